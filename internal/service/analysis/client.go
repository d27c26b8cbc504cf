// Package analysis submits transcripts to the backend's scoring endpoint.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"brain-health-assessment/internal/models"
	"brain-health-assessment/internal/observability/logging"
	"brain-health-assessment/internal/schema"
	"brain-health-assessment/internal/transport"
)

// Op is the operation name carried by every analysis error.
const Op = "analysis"

// Analyzer scores a transcript.
type Analyzer interface {
	// Analyze sends at most one request and returns the scores unmodified.
	Analyze(ctx context.Context, text string) (models.AnalysisResult, error)

	// Name identifies the provider in logs and metrics.
	Name() string
}

// Client implements Analyzer against POST {baseURL}/analyze.
type Client struct {
	baseURL   string
	timeout   time.Duration
	doer      transport.Doer
	validator *schema.Validator
	log       zerolog.Logger
}

// New creates an analysis client. A nil doer or validator gets a default.
func New(baseURL string, timeout time.Duration, doer transport.Doer, validator *schema.Validator, logger zerolog.Logger) *Client {
	if doer == nil {
		doer = &http.Client{}
	}
	if validator == nil {
		validator = schema.New()
	}
	return &Client{
		baseURL:   baseURL,
		timeout:   timeout,
		doer:      doer,
		validator: validator,
		log:       logger,
	}
}

type analyzeRequest struct {
	Text string `json:"text"`
}

// Analyze posts the transcript and returns the backend's scores unmodified.
// Empty text is sent as-is; scoring it is the backend's call.
func (c *Client) Analyze(ctx context.Context, text string) (models.AnalysisResult, error) {
	payload, err := json.Marshal(analyzeRequest{Text: text})
	if err != nil {
		return models.AnalysisResult{}, transport.Network(Op, "failed to encode request: "+err.Error(), err)
	}

	url := c.baseURL + "/analyze"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return models.AnalysisResult{}, transport.Network(Op, "failed to build request: "+err.Error(), err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.log.Info().
		Str("url", url).
		Int("chars", len(text)).
		Bool(logging.RequestKey, true).
		Msg("Sending text for analysis")

	resp, err := transport.Call(ctx, c.doer, req, c.timeout, Op)
	if err != nil {
		c.log.Error().Err(err).Msg("analysis error")
		return models.AnalysisResult{}, err
	}

	if err := c.validator.Validate(schema.Analysis, resp.Body); err != nil {
		err = transport.Malformed(Op, err)
		c.log.Error().Err(err).Msg("analysis error")
		return models.AnalysisResult{}, err
	}
	var result models.AnalysisResult
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		err = transport.Malformed(Op, err)
		c.log.Error().Err(err).Msg("analysis error")
		return models.AnalysisResult{}, err
	}

	c.log.Info().
		Int("animalCount", result.AnimalCount).
		Int("brainHealthScore", result.BrainHealthScore).
		Bool(logging.RequestKey, true).
		Msg("Analysis received")

	return result, nil
}

// Name identifies the provider in logs and metrics.
func (c *Client) Name() string {
	return "backend"
}
