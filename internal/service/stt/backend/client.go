// Package backend transcribes recordings through the assessment backend's
// /transcribe endpoint.
package backend

import (
	"context"
	"encoding/json"
	"time"

	"brain-health-assessment/internal/models"
	"brain-health-assessment/internal/observability/logging"
	"brain-health-assessment/internal/schema"
	"brain-health-assessment/internal/service/stt"
	"brain-health-assessment/internal/transport"
)

// Config holds backend transcription settings.
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	Platform models.Platform
}

// Client implements stt.Transcriber against the backend.
type Client struct {
	cfg  Config
	deps stt.Deps
}

// New creates a backend transcription client.
func New(cfg Config, deps stt.Deps) *Client {
	return &Client{cfg: cfg, deps: deps.WithDefaults()}
}

type transcribeResponse struct {
	Text       string   `json:"text"`
	Confidence *float64 `json:"confidence"`
}

// Transcribe uploads the recording as multipart field "file" and returns the
// backend's transcript. A missing confidence is reported as 1.0.
func (c *Client) Transcribe(ctx context.Context, handle models.RecordingHandle) (models.TranscriptionResult, error) {
	logger := c.deps.Logger.With().Str("provider", c.Name()).Logger()

	ctx, cancel := transport.WithBudget(ctx, c.cfg.Timeout)
	defer cancel()

	audio, err := stt.Open(ctx, c.deps.Doer, handle, c.cfg.Platform)
	if err != nil {
		logger.Error().Err(err).Msg("transcription error")
		return models.TranscriptionResult{}, err
	}

	url := c.cfg.BaseURL + "/transcribe"
	req, err := stt.NewUploadRequest(ctx, url, audio)
	if err != nil {
		return models.TranscriptionResult{}, transport.Network(stt.Op, "failed to build upload: "+err.Error(), err)
	}

	logger.Info().
		Str("url", url).
		Str("platform", string(audio.Platform)).
		Int("bytes", len(audio.Data)).
		Bool(logging.RequestKey, true).
		Msg("Sending audio for transcription")
	c.deps.Metrics.RecordAudioUploaded(len(audio.Data))

	resp, err := transport.Call(ctx, c.deps.Doer, req, 0, stt.Op)
	if err != nil {
		logger.Error().Err(err).Msg("transcription error")
		return models.TranscriptionResult{}, err
	}

	if err := c.deps.Validator.Validate(schema.Transcription, resp.Body); err != nil {
		err = transport.Malformed(stt.Op, err)
		logger.Error().Err(err).Msg("transcription error")
		return models.TranscriptionResult{}, err
	}
	var body transcribeResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		err = transport.Malformed(stt.Op, err)
		logger.Error().Err(err).Msg("transcription error")
		return models.TranscriptionResult{}, err
	}

	confidence := 1.0
	if body.Confidence != nil {
		confidence = stt.ClampConfidence(*body.Confidence)
	}

	logger.Info().
		Int("chars", len(body.Text)).
		Float64("confidence", confidence).
		Bool(logging.RequestKey, true).
		Msg("Transcription received")

	return models.TranscriptionResult{Text: body.Text, Confidence: confidence}, nil
}

// Name identifies the provider in logs and metrics.
func (c *Client) Name() string {
	return "backend"
}
