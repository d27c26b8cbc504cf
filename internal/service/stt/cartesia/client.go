// Package cartesia transcribes recordings directly with the Cartesia
// speech-to-text API.
package cartesia

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

// Config holds vendor settings.
type Config struct {
	URL      string
	APIKey   string
	Version  string
	Model    string
	Language string
	Timeout  time.Duration
	Platform models.Platform
}

// Client implements stt.Transcriber against the vendor API.
type Client struct {
	cfg  Config
	deps stt.Deps
}

// New creates a vendor transcription client.
func New(cfg Config, deps stt.Deps) *Client {
	return &Client{cfg: cfg, deps: deps.WithDefaults()}
}

type sttResponse struct {
	Text *string `json:"text"`
}

// Transcribe uploads the recording with the configured model and language.
// The vendor reports no confidence, so 1.0 is returned.
func (c *Client) Transcribe(ctx context.Context, handle models.RecordingHandle) (models.TranscriptionResult, error) {
	logger := c.deps.Logger.With().Str("provider", c.Name()).Logger()

	ctx, cancel := transport.WithBudget(ctx, c.cfg.Timeout)
	defer cancel()

	audio, err := stt.Open(ctx, c.deps.Doer, handle, c.cfg.Platform)
	if err != nil {
		logger.Error().Err(err).Msg("transcription error")
		return models.TranscriptionResult{}, err
	}

	req, err := stt.NewUploadRequest(ctx, c.cfg.URL, audio,
		stt.Field{Name: "model", Value: c.cfg.Model},
		stt.Field{Name: "language", Value: c.cfg.Language},
	)
	if err != nil {
		return models.TranscriptionResult{}, transport.Network(stt.Op, "failed to build upload: "+err.Error(), err)
	}
	req.Header.Set("X-API-Key", c.cfg.APIKey)
	req.Header.Set("Cartesia-Version", c.cfg.Version)

	logger.Info().
		Str("model", c.cfg.Model).
		Int("bytes", len(audio.Data)).
		Bool(logging.RequestKey, true).
		Msg("Sending audio for transcription")
	c.deps.Metrics.RecordAudioUploaded(len(audio.Data))

	resp, err := transport.Call(ctx, c.deps.Doer, req, 0, stt.Op)
	if err != nil {
		logger.Error().Err(err).Msg("transcription error")
		return models.TranscriptionResult{}, err
	}

	if err := c.deps.Validator.Validate(schema.VendorTranscription, resp.Body); err != nil {
		err = transport.Malformed(stt.Op, err)
		logger.Error().Err(err).Msg("transcription error")
		return models.TranscriptionResult{}, err
	}
	var body sttResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		err = transport.Malformed(stt.Op, err)
		logger.Error().Err(err).Msg("transcription error")
		return models.TranscriptionResult{}, err
	}

	text := ""
	if body.Text != nil {
		text = *body.Text
	}
	return models.TranscriptionResult{Text: text, Confidence: 1.0}, nil
}

// Name identifies the provider in logs and metrics.
func (c *Client) Name() string {
	return "cartesia"
}
