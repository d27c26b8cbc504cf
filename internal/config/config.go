// Package config resolves the process configuration from the environment.
// It is read once at startup and never mutated afterwards.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"brain-health-assessment/internal/models"
)

// Transcription providers.
const (
	ProviderBackend  = "backend"
	ProviderCartesia = "cartesia"
	ProviderGoogle   = "google"
)

// Config is the process configuration. Load builds it from the environment
// and callers may apply overrides before handing it to the application, which
// keeps its own copy and never changes it.
type Config struct {
	Service       ServiceConfig
	Backend       BackendConfig
	Features      FeatureFlags
	Transcription TranscriptionConfig
	Analysis      AnalysisConfig
	Cartesia      CartesiaConfig
	Google        GoogleConfig
	Mock          MockConfig
	Assessment    AssessmentConfig
	Observability ObservabilityConfig
	Server        ServerConfig
	Kafka         KafkaConfig
}

type ServiceConfig struct {
	Principal string
}

// BackendConfig points at the intermediary transcription/scoring backend.
type BackendConfig struct {
	BaseURL       string
	HealthTimeout time.Duration
}

// FeatureFlags gate demo behaviour and diagnostics.
type FeatureFlags struct {
	UseMockData    bool
	SuppressErrors bool
	LogRequests    bool
	LogErrors      bool
}

type TranscriptionConfig struct {
	Provider string
	Platform models.Platform
	Timeout  time.Duration
}

type AnalysisConfig struct {
	Timeout time.Duration
}

// CartesiaConfig configures the direct vendor speech-to-text backend.
type CartesiaConfig struct {
	APIKey   string
	Version  string
	URL      string
	Model    string
	Language string
}

type GoogleConfig struct {
	LanguageCode string
	SampleRateHz int
}

// MockConfig controls simulated latency when UseMockData is set.
type MockConfig struct {
	TranscriptionDelay time.Duration
	AnalysisDelay      time.Duration
}

type AssessmentConfig struct {
	RecordingDuration time.Duration
}

type ObservabilityConfig struct {
	LogLevel    string
	LogFormat   string
	MetricsAddr string
}

type ServerConfig struct {
	HTTPAddr       string
	GRPCHealthPort string
}

type KafkaConfig struct {
	Enabled        bool
	Brokers        []string
	TopicCompleted string
	TopicFailed    string
	Principal      string
}

// Defaults.
const (
	DefaultBaseURL            = "http://localhost:8000"
	DefaultTranscriptionWait  = 120 * time.Second
	DefaultAnalysisWait       = 30 * time.Second
	DefaultHealthWait         = 5 * time.Second
	DefaultCartesiaURL        = "https://api.cartesia.ai/stt"
	DefaultCartesiaVersion    = "2025-04-16"
	DefaultCartesiaModel      = "ink-whisper"
	DefaultRecordingDuration  = 60 * time.Second
	DefaultServicePrincipal   = "svc-brain-health"
	DefaultTopicCompleted     = "assessment.completed"
	DefaultTopicFailed        = "assessment.failed"
	defaultMockTranscribeWait = 1 * time.Second
	defaultMockAnalyzeWait    = 1500 * time.Millisecond
)

// LoadDotEnv loads KEY=value pairs from the given files (default ".env")
// without overriding variables already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads the configuration from the environment. Invalid values fall
// back to their defaults.
func Load() *Config {
	principal := envOrDefault("SERVICE_PRINCIPAL", DefaultServicePrincipal)

	platform, err := models.ParsePlatform(envOrDefault("CLIENT_PLATFORM", string(models.PlatformAndroid)))
	if err != nil {
		platform = models.PlatformAndroid
	}

	return &Config{
		Service: ServiceConfig{
			Principal: principal,
		},
		Backend: BackendConfig{
			BaseURL:       NormalizeBaseURL(firstEnv("BACKEND_URL", "EXPO_PUBLIC_AZURE_BACKEND")),
			HealthTimeout: envOrDefaultDuration("HEALTH_TIMEOUT", DefaultHealthWait),
		},
		Features: FeatureFlags{
			UseMockData:    envOrDefaultBool("USE_MOCK_DATA", false),
			SuppressErrors: envOrDefaultBool("SUPPRESS_ERRORS", false),
			LogRequests:    envEnabledUnlessFalse("LOG_REQUESTS"),
			LogErrors:      envEnabledUnlessFalse("LOG_ERRORS"),
		},
		Transcription: TranscriptionConfig{
			Provider: strings.ToLower(envOrDefault("TRANSCRIPTION_PROVIDER", ProviderBackend)),
			Platform: platform,
			Timeout:  envOrDefaultDuration("TRANSCRIPTION_TIMEOUT", DefaultTranscriptionWait),
		},
		Analysis: AnalysisConfig{
			Timeout: envOrDefaultDuration("ANALYSIS_TIMEOUT", DefaultAnalysisWait),
		},
		Cartesia: CartesiaConfig{
			APIKey:   os.Getenv("CARTESIA_API_KEY"),
			Version:  envOrDefault("CARTESIA_VERSION", DefaultCartesiaVersion),
			URL:      envOrDefault("CARTESIA_URL", DefaultCartesiaURL),
			Model:    envOrDefault("CARTESIA_MODEL", DefaultCartesiaModel),
			Language: envOrDefault("CARTESIA_LANGUAGE", "en"),
		},
		Google: GoogleConfig{
			LanguageCode: envOrDefault("GOOGLE_STT_LANGUAGE_CODE", "en-US"),
			SampleRateHz: envOrDefaultInt("GOOGLE_STT_SAMPLE_RATE_HZ", 16000),
		},
		Mock: MockConfig{
			TranscriptionDelay: envOrDefaultDuration("MOCK_TRANSCRIPTION_DELAY", defaultMockTranscribeWait),
			AnalysisDelay:      envOrDefaultDuration("MOCK_ANALYSIS_DELAY", defaultMockAnalyzeWait),
		},
		Assessment: AssessmentConfig{
			RecordingDuration: envOrDefaultDuration("RECORDING_DURATION", DefaultRecordingDuration),
		},
		Observability: ObservabilityConfig{
			LogLevel:    envOrDefault("LOG_LEVEL", "info"),
			LogFormat:   envOrDefault("LOG_FORMAT", "json"),
			MetricsAddr: envOrDefault("METRICS_ADDR", ":9090"),
		},
		Server: ServerConfig{
			HTTPAddr:       envOrDefault("HTTP_ADDR", ":8080"),
			GRPCHealthPort: envOrDefault("GRPC_HEALTH_PORT", "50051"),
		},
		Kafka: KafkaConfig{
			Enabled:        envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:        envList("KAFKA_BROKERS"),
			TopicCompleted: envOrDefault("KAFKA_TOPIC_COMPLETED", DefaultTopicCompleted),
			TopicFailed:    envOrDefault("KAFKA_TOPIC_FAILED", DefaultTopicFailed),
			Principal:      envOrDefault("KAFKA_PRINCIPAL", principal),
		},
	}
}

// Validate reports settings that would make the configured provider unusable.
func (c *Config) Validate() error {
	var errs []error
	switch c.Transcription.Provider {
	case ProviderBackend, ProviderGoogle:
	case ProviderCartesia:
		if c.Cartesia.APIKey == "" && !c.Features.UseMockData {
			errs = append(errs, errors.New("cartesia provider selected but CARTESIA_API_KEY is empty"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown transcription provider %q", c.Transcription.Provider))
	}
	if c.Transcription.Timeout <= 0 {
		errs = append(errs, errors.New("transcription timeout must be positive"))
	}
	if c.Analysis.Timeout <= 0 {
		errs = append(errs, errors.New("analysis timeout must be positive"))
	}
	return errors.Join(errs...)
}

// NormalizeBaseURL adds http:// when no scheme is given and strips a
// trailing slash. Empty input yields DefaultBaseURL.
func NormalizeBaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultBaseURL
	}
	if !strings.HasPrefix(raw, "http") {
		raw = "http://" + raw
	}
	return strings.TrimSuffix(raw, "/")
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func envOrDefaultBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// envEnabledUnlessFalse is on unless the variable is literally "false".
func envEnabledUnlessFalse(key string) bool {
	return !strings.EqualFold(strings.TrimSpace(os.Getenv(key)), "false")
}

func envOrDefaultInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// envOrDefaultDuration accepts Go durations ("90s") or whole seconds ("60").
func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return def
		}
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return def
	}
	return d
}

func envList(key string) []string {
	var out []string
	for _, p := range strings.Split(os.Getenv(key), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
