package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"brain-health-assessment/internal/config"
	"brain-health-assessment/internal/events"
	"brain-health-assessment/internal/observability/logging"
	"brain-health-assessment/internal/observability/metrics"
	"brain-health-assessment/internal/schema"
	"brain-health-assessment/internal/service/analysis"
	"brain-health-assessment/internal/service/health"
	"brain-health-assessment/internal/service/mock"
	"brain-health-assessment/internal/service/pipeline"
	"brain-health-assessment/internal/service/stt"
	"brain-health-assessment/internal/service/stt/backend"
	"brain-health-assessment/internal/service/stt/cartesia"
	"brain-health-assessment/internal/service/stt/google"
	"brain-health-assessment/internal/transport"
)

// Application holds process-wide state for the assessment service.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Config

	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	Fallback    *mock.Generator
	Transcriber stt.Transcriber
	Analyzer    analysis.Analyzer
	Health      *health.Checker
	Publisher   *events.Publisher
	Pipeline    *pipeline.Orchestrator

	closers []io.Closer
}

// Options override process-wide defaults, mainly for tests.
type Options struct {
	// LogOutput defaults to stdout.
	LogOutput io.Writer
	// Registry defaults to the Prometheus default registry.
	Registry *prometheus.Registry
	// Doer defaults to a plain *http.Client.
	Doer transport.Doer
	// Fallback defaults to a randomly selecting generator.
	Fallback *mock.Generator
}

// New constructs the Application from a copy of cfg; later changes to cfg
// do not reach it.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	snapshot := *cfg
	snapshot.Kafka.Brokers = append([]string(nil), cfg.Kafka.Brokers...)
	a := &Application{Cfg: &snapshot}
	a.setupLogger(opts.LogOutput)

	appLogger := a.Logger.With().
		Str("component", "application").
		Str("method", "New").
		Logger()

	if opts.Registry != nil {
		a.Metrics = metrics.NewMetrics(opts.Registry)
		a.Gatherer = opts.Registry
	} else {
		a.Metrics = metrics.DefaultMetrics
		a.Gatherer = prometheus.DefaultGatherer
	}

	doer := opts.Doer
	if doer == nil {
		doer = &http.Client{}
	}

	a.Fallback = opts.Fallback
	if a.Fallback == nil {
		a.Fallback = mock.New()
	}

	validator := schema.New()
	sttDeps := stt.Deps{
		Doer:      doer,
		Validator: validator,
		Metrics:   a.Metrics,
		Logger:    logging.WithComponent(a.Logger, "stt"),
	}

	if err := a.setupClients(ctx, sttDeps); err != nil {
		return nil, err
	}

	a.Health = health.NewChecker(
		cfg.Backend.BaseURL,
		cfg.Backend.HealthTimeout,
		cfg.Features.UseMockData,
		cfg.Features.SuppressErrors,
		doer,
		a.Metrics,
		logging.WithComponent(a.Logger, "health"),
	)

	a.Publisher = events.New(&events.Config{
		Enabled:        cfg.Kafka.Enabled,
		Brokers:        cfg.Kafka.Brokers,
		TopicCompleted: cfg.Kafka.TopicCompleted,
		TopicFailed:    cfg.Kafka.TopicFailed,
		Principal:      cfg.Kafka.Principal,
	}, a.Metrics, logging.WithComponent(a.Logger, "events"))
	a.closers = append(a.closers, a.Publisher)

	a.Pipeline = pipeline.New(pipeline.Deps{
		Transcriber: a.Transcriber,
		Analyzer:    a.Analyzer,
		Fallback:    a.Fallback,
		Publisher:   a.Publisher,
		Metrics:     a.Metrics,
		Logger:      logging.WithComponent(a.Logger, "pipeline"),
	}, cfg.Features.SuppressErrors)

	appLogger.Info().
		Str("provider", a.Transcriber.Name()).
		Str("backend", cfg.Backend.BaseURL).
		Bool("mockData", cfg.Features.UseMockData).
		Bool("suppressErrors", cfg.Features.SuppressErrors).
		Msg("Brain health assessment application created")
	return a, nil
}

// setupClients picks the transcription provider and analyzer. Mock mode
// bypasses every network client.
func (a *Application) setupClients(ctx context.Context, deps stt.Deps) error {
	cfg := a.Cfg

	if cfg.Features.UseMockData {
		a.Transcriber = mock.NewTranscriber(a.Fallback, cfg.Mock.TranscriptionDelay)
		a.Analyzer = mock.NewAnalyzer(a.Fallback, cfg.Mock.AnalysisDelay)
		return nil
	}

	switch cfg.Transcription.Provider {
	case config.ProviderBackend:
		a.Transcriber = backend.New(backend.Config{
			BaseURL:  cfg.Backend.BaseURL,
			Timeout:  cfg.Transcription.Timeout,
			Platform: cfg.Transcription.Platform,
		}, deps)
	case config.ProviderCartesia:
		a.Transcriber = cartesia.New(cartesia.Config{
			URL:      cfg.Cartesia.URL,
			APIKey:   cfg.Cartesia.APIKey,
			Version:  cfg.Cartesia.Version,
			Model:    cfg.Cartesia.Model,
			Language: cfg.Cartesia.Language,
			Timeout:  cfg.Transcription.Timeout,
			Platform: cfg.Transcription.Platform,
		}, deps)
	case config.ProviderGoogle:
		gcfg := google.DefaultConfig()
		gcfg.LanguageCode = cfg.Google.LanguageCode
		gcfg.SampleRateHz = cfg.Google.SampleRateHz
		gcfg.Timeout = cfg.Transcription.Timeout
		gcfg.Platform = cfg.Transcription.Platform
		adapter, err := google.New(ctx, gcfg, deps)
		if err != nil {
			return fmt.Errorf("create google speech client: %w", err)
		}
		a.Transcriber = adapter
		a.closers = append(a.closers, adapter)
	default:
		return fmt.Errorf("unknown transcription provider %q", cfg.Transcription.Provider)
	}

	a.Analyzer = analysis.New(
		cfg.Backend.BaseURL,
		cfg.Analysis.Timeout,
		deps.Doer,
		deps.Validator,
		logging.WithComponent(a.Logger, "analysis"),
	)
	return nil
}

// setupLogger configures zerolog for the service.
func (a *Application) setupLogger(out io.Writer) {
	if out == nil {
		out = os.Stdout
	}
	a.Logger = logging.New(logging.Config{
		Level:      a.Cfg.Observability.LogLevel,
		Format:     a.Cfg.Observability.LogFormat,
		TimeFormat: time.RFC3339,
	}, logging.Options{
		LogRequests:    a.Cfg.Features.LogRequests,
		LogErrors:      a.Cfg.Features.LogErrors,
		SuppressErrors: a.Cfg.Features.SuppressErrors,
	}, out)

	a.Logger.Debug().
		Str("logLevel", a.Cfg.Observability.LogLevel).
		Str("logFormat", a.Cfg.Observability.LogFormat).
		Msg("Logger setup completed")
}

// Start performs any startup work required before serving traffic.
func (a *Application) Start() error {
	startLogger := a.Logger.With().
		Str("method", "Start").
		Logger()

	a.StartupTime = time.Now().UTC()
	startLogger.Info().
		Time("startupTime", a.StartupTime).
		Msg("Brain health assessment service starting")

	return nil
}

// Shutdown releases clients and writers. It is safe to call once.
func (a *Application) Shutdown() error {
	shutdownLogger := a.Logger.With().
		Str("method", "Shutdown").
		Logger()

	shutdownLogger.Info().Msg("Brain health assessment service shutting down")

	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
