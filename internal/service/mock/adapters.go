package mock

import (
	"context"
	"time"

	"brain-health-assessment/internal/models"
)

// Transcriber serves scenario transcriptions in mock mode, after a
// simulated delay.
type Transcriber struct {
	gen   *Generator
	delay time.Duration
}

// NewTranscriber creates a mock transcriber.
func NewTranscriber(gen *Generator, delay time.Duration) *Transcriber {
	return &Transcriber{gen: gen, delay: delay}
}

// Transcribe ignores the handle and returns a scenario transcription.
func (t *Transcriber) Transcribe(ctx context.Context, _ models.RecordingHandle) (models.TranscriptionResult, error) {
	if err := wait(ctx, t.delay); err != nil {
		return models.TranscriptionResult{}, err
	}
	return t.gen.Generate().Transcription, nil
}

// Name identifies the provider in logs and metrics.
func (t *Transcriber) Name() string {
	return "mock"
}

// Analyzer serves scenario analyses in mock mode.
type Analyzer struct {
	gen   *Generator
	delay time.Duration
}

// NewAnalyzer creates a mock analyzer.
func NewAnalyzer(gen *Generator, delay time.Duration) *Analyzer {
	return &Analyzer{gen: gen, delay: delay}
}

// Analyze ignores the text and returns a scenario analysis.
func (a *Analyzer) Analyze(ctx context.Context, _ string) (models.AnalysisResult, error) {
	if err := wait(ctx, a.delay); err != nil {
		return models.AnalysisResult{}, err
	}
	return a.gen.Generate().Analysis, nil
}

// Name identifies the provider in logs and metrics.
func (a *Analyzer) Name() string {
	return "mock"
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
