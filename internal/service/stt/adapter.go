// Package stt defines the interface for Speech-to-Text providers and the
// pieces they share: platform audio formats, recording handle loading and
// the multipart upload.
package stt

import (
	"context"
	"math"
	"net/http"

	"github.com/rs/zerolog"

	"brain-health-assessment/internal/models"
	"brain-health-assessment/internal/observability/metrics"
	"brain-health-assessment/internal/schema"
	"brain-health-assessment/internal/transport"
)

// Op is the operation name carried by every transcription error.
const Op = "transcription"

// Transcriber turns one recording into text. Implementations send at most
// one request per call and never retry.
type Transcriber interface {
	// Transcribe reads the recording once and returns its transcript.
	// Failures are *transport.Error values.
	Transcribe(ctx context.Context, handle models.RecordingHandle) (models.TranscriptionResult, error)

	// Name identifies the provider in logs and metrics.
	Name() string
}

// Deps are the collaborators shared by the HTTP-based providers.
type Deps struct {
	Doer      transport.Doer
	Validator *schema.Validator
	Metrics   *metrics.Metrics
	Logger    zerolog.Logger
}

// WithDefaults fills unset collaborators. The logger is left as given.
func (d Deps) WithDefaults() Deps {
	if d.Doer == nil {
		d.Doer = &http.Client{}
	}
	if d.Validator == nil {
		d.Validator = schema.New()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.DefaultMetrics
	}
	return d
}

// Format is the fixed audio encoding a platform records with.
type Format struct {
	MIME     string
	Filename string
	// GoogleEncoding names the Speech-to-Text RecognitionConfig encoding.
	GoogleEncoding string
}

var formats = map[models.Platform]Format{
	models.PlatformIOS:     {MIME: "audio/m4a", Filename: "recording.m4a", GoogleEncoding: "ENCODING_UNSPECIFIED"},
	models.PlatformAndroid: {MIME: "audio/wav", Filename: "recording.wav", GoogleEncoding: "LINEAR16"},
	models.PlatformWeb:     {MIME: "audio/webm", Filename: "recording.webm", GoogleEncoding: "WEBM_OPUS"},
}

// FormatFor returns the audio format for p. Unknown platforms get the
// android format.
func FormatFor(p models.Platform) Format {
	if f, ok := formats[p]; ok {
		return f
	}
	return formats[models.PlatformAndroid]
}

// ClampConfidence forces c into [0, 1].
func ClampConfidence(c float64) float64 {
	switch {
	case math.IsNaN(c) || c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}
