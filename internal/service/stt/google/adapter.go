// Package google provides a Google Cloud Speech-to-Text adapter.
package google

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"brain-health-assessment/internal/models"
	"brain-health-assessment/internal/observability/logging"
	"brain-health-assessment/internal/service/stt"
	"brain-health-assessment/internal/transport"
)

// Config holds Google STT configuration.
type Config struct {
	LanguageCode string
	SampleRateHz int
	// AudioEncoding is used when the platform format does not name one.
	AudioEncoding string
	Timeout       time.Duration
	Platform      models.Platform
}

// DefaultConfig returns default Google STT configuration.
func DefaultConfig() Config {
	return Config{
		LanguageCode:  "en-US",
		SampleRateHz:  16000,
		AudioEncoding: "LINEAR16",
		Timeout:       120 * time.Second,
		Platform:      models.PlatformAndroid,
	}
}

// Recognizer is the subset of the Speech client the adapter uses.
type Recognizer interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)
}

type clientRecognizer struct {
	client *speech.Client
}

func (c clientRecognizer) Recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
	return c.client.Recognize(ctx, req)
}

// Adapter implements stt.Transcriber using Google Cloud Speech-to-Text.
type Adapter struct {
	rec    Recognizer
	client *speech.Client
	cfg    Config
	deps   stt.Deps
}

// New creates a new Google STT adapter.
// Requires GOOGLE_APPLICATION_CREDENTIALS environment variable to be set.
func New(ctx context.Context, cfg Config, deps stt.Deps) (*Adapter, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	a := NewWithRecognizer(clientRecognizer{client: c}, cfg, deps)
	a.client = c
	return a, nil
}

// NewWithRecognizer creates an adapter over an existing recognizer.
func NewWithRecognizer(rec Recognizer, cfg Config, deps stt.Deps) *Adapter {
	return &Adapter{rec: rec, cfg: cfg, deps: deps.WithDefaults()}
}

// Transcribe sends the whole recording in one Recognize call and joins the
// top alternative of every result. Confidence is the mean of those
// alternatives.
func (a *Adapter) Transcribe(ctx context.Context, handle models.RecordingHandle) (models.TranscriptionResult, error) {
	logger := a.deps.Logger.With().Str("provider", a.Name()).Logger()

	ctx, cancel := transport.WithBudget(ctx, a.cfg.Timeout)
	defer cancel()

	audio, err := stt.Open(ctx, a.deps.Doer, handle, a.cfg.Platform)
	if err != nil {
		logger.Error().Err(err).Msg("transcription error")
		return models.TranscriptionResult{}, err
	}

	encoding := audio.Format.GoogleEncoding
	if encoding == "" {
		encoding = a.cfg.AudioEncoding
	}
	recCfg := &speechpb.RecognitionConfig{
		Encoding:     parseAudioEncoding(encoding),
		LanguageCode: a.cfg.LanguageCode,
	}
	if recCfg.Encoding == speechpb.RecognitionConfig_LINEAR16 {
		recCfg.SampleRateHertz = int32(a.cfg.SampleRateHz)
	}

	logger.Info().
		Str("encoding", recCfg.Encoding.String()).
		Int("bytes", len(audio.Data)).
		Bool(logging.RequestKey, true).
		Msg("Sending audio for transcription")
	a.deps.Metrics.RecordAudioUploaded(len(audio.Data))

	resp, err := a.rec.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: recCfg,
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio.Data},
		},
	})
	if err != nil {
		err = classify(ctx, a.cfg.Timeout, err)
		logger.Error().Err(err).Msg("transcription error")
		return models.TranscriptionResult{}, err
	}

	var (
		parts []string
		sum   float64
	)
	for _, r := range resp.GetResults() {
		if len(r.Alternatives) == 0 {
			continue
		}
		alt := r.Alternatives[0]
		parts = append(parts, strings.TrimSpace(alt.Transcript))
		sum += float64(alt.Confidence)
	}

	result := models.TranscriptionResult{Text: strings.Join(parts, " ")}
	if len(parts) > 0 {
		result.Confidence = stt.ClampConfidence(sum / float64(len(parts)))
	}
	return result, nil
}

// Name identifies the provider in logs and metrics.
func (a *Adapter) Name() string {
	return "google"
}

// Close releases the underlying client.
func (a *Adapter) Close() error {
	if a.client != nil {
		return a.client.Close()
	}
	return nil
}

// classify maps a gRPC failure onto the transport error kinds.
func classify(callCtx context.Context, timeout time.Duration, err error) error {
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return transport.Timeout(stt.Op, timeout, err)
	}

	st, ok := status.FromError(err)
	if !ok {
		return transport.Network(stt.Op, stt.Op+" request failed: "+err.Error(), err)
	}
	switch st.Code() {
	case codes.DeadlineExceeded:
		return transport.Timeout(stt.Op, timeout, err)
	case codes.Unavailable, codes.Canceled:
		return transport.Network(stt.Op, st.Message(), err)
	default:
		return &transport.Error{
			Op:         stt.Op,
			Kind:       transport.KindHTTP,
			StatusCode: httpStatus(st.Code()),
			Message:    st.Message(),
			Err:        err,
		}
	}
}

func httpStatus(c codes.Code) int {
	switch c {
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Unimplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// parseAudioEncoding converts string encoding to Google's enum.
func parseAudioEncoding(encoding string) speechpb.RecognitionConfig_AudioEncoding {
	switch encoding {
	case "ENCODING_UNSPECIFIED":
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	case "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC
	case "AMR":
		return speechpb.RecognitionConfig_AMR
	case "AMR_WB":
		return speechpb.RecognitionConfig_AMR_WB
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS
	case "SPEEX_WITH_HEADER_BYTE":
		return speechpb.RecognitionConfig_SPEEX_WITH_HEADER_BYTE
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS
	default:
		return speechpb.RecognitionConfig_LINEAR16
	}
}
