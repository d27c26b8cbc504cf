// Package pipeline runs one assessment: transcribe the recording, then
// analyze the transcript, substituting demo data per stage when errors are
// suppressed.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"brain-health-assessment/internal/models"
	"brain-health-assessment/internal/observability/logging"
	"brain-health-assessment/internal/observability/metrics"
	"brain-health-assessment/internal/service/analysis"
	"brain-health-assessment/internal/service/mock"
	"brain-health-assessment/internal/service/session"
	"brain-health-assessment/internal/service/stt"
	"brain-health-assessment/internal/transport"
)

// Stage names.
const (
	StageTranscription = "transcription"
	StageAnalysis      = "analysis"
)

// Outcome labels for the pipeline_runs_total metric.
const (
	outcomeSuccess  = "success"
	outcomeFallback = "fallback"
	outcomeFailed   = "failed"
)

const defaultPublishTimeout = 5 * time.Second

// PipelineError reports which stage failed when errors are not suppressed.
type PipelineError struct {
	Stage string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Kind returns the transport error kind of the failed stage.
func (e *PipelineError) Kind() transport.Kind {
	return transport.KindOf(e.Err)
}

// Publisher receives one event per finished session.
type Publisher interface {
	PublishCompleted(ctx context.Context, event models.AssessmentEvent) error
	PublishFailed(ctx context.Context, event models.AssessmentEvent) error
}

// Deps are the orchestrator's collaborators. Publisher may be nil.
type Deps struct {
	Transcriber stt.Transcriber
	Analyzer    analysis.Analyzer
	Fallback    *mock.Generator
	Publisher   Publisher
	Sessions    *session.Generator
	Metrics     *metrics.Metrics
	Logger      zerolog.Logger
}

// Orchestrator sequences the two stages. It holds no per-run state, so Run
// may be called concurrently.
type Orchestrator struct {
	deps           Deps
	suppressErrors bool
	publishTimeout time.Duration
}

// New creates an orchestrator. With suppressErrors set, a failed stage is
// replaced by fallback data instead of failing the run.
func New(deps Deps, suppressErrors bool) *Orchestrator {
	if deps.Fallback == nil {
		deps.Fallback = mock.New()
	}
	if deps.Sessions == nil {
		deps.Sessions = session.New()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.DefaultMetrics
	}
	return &Orchestrator{
		deps:           deps,
		suppressErrors: suppressErrors,
		publishTimeout: defaultPublishTimeout,
	}
}

type runOptions struct {
	age int
}

// RunOption adds optional context to a run.
type RunOption func(*runOptions)

// WithAge records the participant's age on the published event.
func WithAge(age int) RunOption {
	return func(o *runOptions) {
		o.age = age
	}
}

// Run transcribes the recording and analyzes the transcript. Stages run in
// order with at most one request each and no retries. Without error
// suppression a failed stage ends the run with a *PipelineError and no
// later stage is attempted.
func (o *Orchestrator) Run(ctx context.Context, handle models.RecordingHandle, opts ...RunOption) (models.PipelineResult, error) {
	var ro runOptions
	for _, opt := range opts {
		opt(&ro)
	}

	sessionId := o.deps.Sessions.Next()
	lc := session.NewLifecycle(sessionId)
	provider := o.deps.Transcriber.Name()
	logger := logging.WithSession(o.deps.Logger, sessionId, provider)

	o.deps.Metrics.RecordPipelineStart()
	outcome := outcomeSuccess
	defer func() {
		o.deps.Metrics.RecordPipelineEnd(outcome, lc.Elapsed().Seconds())
	}()

	result := models.PipelineResult{SessionID: sessionId}

	logger.Info().Str("uri", handle.URI).Str("platform", string(handle.Platform)).Msg("Assessment started")

	// Transcription
	if err := lc.BeginTranscription(); err != nil {
		return models.PipelineResult{}, err
	}
	start := time.Now()
	transcription, err := o.deps.Transcriber.Transcribe(ctx, handle)
	o.deps.Metrics.RecordStage(StageTranscription, provider, time.Since(start).Seconds())
	if err != nil {
		o.deps.Metrics.RecordStageError(StageTranscription, kindLabel(err))
		if !o.suppressErrors {
			outcome = outcomeFailed
			return models.PipelineResult{}, o.fail(ctx, lc, logger, provider, ro, err)
		}
		logger.Debug().Err(err).Msg("Transcription failed, using demo transcription")
		o.deps.Metrics.RecordFallback(StageTranscription)
		transcription = o.deps.Fallback.Generate().Transcription
		result.TranscriptionFallback = true
	}
	result.Transcription = transcription

	// Analysis
	if err := lc.BeginAnalysis(); err != nil {
		return models.PipelineResult{}, err
	}
	start = time.Now()
	scores, err := o.deps.Analyzer.Analyze(ctx, transcription.Text)
	o.deps.Metrics.RecordStage(StageAnalysis, o.deps.Analyzer.Name(), time.Since(start).Seconds())
	if err != nil {
		o.deps.Metrics.RecordStageError(StageAnalysis, kindLabel(err))
		if !o.suppressErrors {
			outcome = outcomeFailed
			return models.PipelineResult{}, o.fail(ctx, lc, logger, provider, ro, err)
		}
		logger.Debug().Err(err).Msg("Analysis failed, using demo analysis")
		o.deps.Metrics.RecordFallback(StageAnalysis)
		scores = o.deps.Fallback.Generate().Analysis
		result.AnalysisFallback = true
	}
	result.Analysis = scores

	if err := lc.Complete(); err != nil {
		return models.PipelineResult{}, err
	}
	result.CompletedAt = time.Now().UTC()
	if result.TranscriptionFallback || result.AnalysisFallback {
		outcome = outcomeFallback
	}

	logger.Info().
		Int("animalCount", result.Analysis.AnimalCount).
		Int("brainHealthScore", result.Analysis.BrainHealthScore).
		Bool("transcriptionFallback", result.TranscriptionFallback).
		Bool("analysisFallback", result.AnalysisFallback).
		Dur("elapsed", lc.Elapsed()).
		Msg("Assessment completed")

	o.publishCompleted(ctx, logger, models.AssessmentEvent{
		SessionID: sessionId,
		Provider:  provider,
		Age:       ro.age,
		Result:    &result,
	})
	return result, nil
}

// fail marks the session FAILED, publishes the failure and builds the error.
func (o *Orchestrator) fail(ctx context.Context, lc *session.Lifecycle, logger zerolog.Logger, provider string, ro runOptions, err error) error {
	stage, _ := lc.Fail()
	perr := &PipelineError{Stage: stage, Err: err}

	logger.Error().
		Err(err).
		Str("stage", stage).
		Str("kind", kindLabel(err)).
		Msg("Assessment failed")

	o.publishFailed(ctx, logger, models.AssessmentEvent{
		SessionID: lc.SessionId(),
		Provider:  provider,
		Age:       ro.age,
		Stage:     stage,
		ErrorKind: kindLabel(err),
		Error:     err.Error(),
	})
	return perr
}

func (o *Orchestrator) publishCompleted(ctx context.Context, logger zerolog.Logger, ev models.AssessmentEvent) {
	if o.deps.Publisher == nil {
		return
	}
	ctx, cancel := o.publishContext(ctx)
	defer cancel()
	if err := o.deps.Publisher.PublishCompleted(ctx, ev); err != nil {
		logger.Warn().Err(err).Msg("Failed to publish completed event")
	}
}

func (o *Orchestrator) publishFailed(ctx context.Context, logger zerolog.Logger, ev models.AssessmentEvent) {
	if o.deps.Publisher == nil {
		return
	}
	ctx, cancel := o.publishContext(ctx)
	defer cancel()
	if err := o.deps.Publisher.PublishFailed(ctx, ev); err != nil {
		logger.Warn().Err(err).Msg("Failed to publish failed event")
	}
}

// publishContext ignores caller cancellation and is bounded by publishTimeout.
func (o *Orchestrator) publishContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), o.publishTimeout)
}

func kindLabel(err error) string {
	if k := transport.KindOf(err); k != "" {
		return string(k)
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return string(transport.KindTimeout)
	case errors.Is(err, context.Canceled):
		return string(transport.KindNetwork)
	default:
		return "unknown"
	}
}
