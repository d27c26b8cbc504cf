package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"brain-health-assessment/internal/models"
)

var allKeys = []string{
	"SERVICE_PRINCIPAL", "BACKEND_URL", "EXPO_PUBLIC_AZURE_BACKEND", "HEALTH_TIMEOUT",
	"USE_MOCK_DATA", "SUPPRESS_ERRORS", "LOG_REQUESTS", "LOG_ERRORS",
	"TRANSCRIPTION_PROVIDER", "CLIENT_PLATFORM", "TRANSCRIPTION_TIMEOUT", "ANALYSIS_TIMEOUT",
	"CARTESIA_API_KEY", "CARTESIA_VERSION", "CARTESIA_URL", "CARTESIA_MODEL", "CARTESIA_LANGUAGE",
	"GOOGLE_STT_LANGUAGE_CODE", "GOOGLE_STT_SAMPLE_RATE_HZ",
	"MOCK_TRANSCRIPTION_DELAY", "MOCK_ANALYSIS_DELAY", "RECORDING_DURATION",
	"LOG_LEVEL", "LOG_FORMAT", "METRICS_ADDR", "HTTP_ADDR", "GRPC_HEALTH_PORT",
	"KAFKA_ENABLED", "KAFKA_BROKERS", "KAFKA_TOPIC_COMPLETED", "KAFKA_TOPIC_FAILED", "KAFKA_PRINCIPAL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.Backend.BaseURL != "http://localhost:8000" {
		t.Errorf("expected default base URL, got %s", cfg.Backend.BaseURL)
	}
	if cfg.Features.UseMockData {
		t.Error("expected mock data off by default")
	}
	if cfg.Features.SuppressErrors {
		t.Error("expected error suppression off by default")
	}
	if !cfg.Features.LogRequests || !cfg.Features.LogErrors {
		t.Error("expected request and error logging on by default")
	}
	if cfg.Transcription.Provider != ProviderBackend {
		t.Errorf("expected default provider 'backend', got %s", cfg.Transcription.Provider)
	}
	if cfg.Transcription.Platform != models.PlatformAndroid {
		t.Errorf("expected default platform android, got %s", cfg.Transcription.Platform)
	}
	if cfg.Transcription.Timeout != 120*time.Second {
		t.Errorf("expected transcription timeout 120s, got %v", cfg.Transcription.Timeout)
	}
	if cfg.Analysis.Timeout != 30*time.Second {
		t.Errorf("expected analysis timeout 30s, got %v", cfg.Analysis.Timeout)
	}
	if cfg.Cartesia.URL != "https://api.cartesia.ai/stt" {
		t.Errorf("expected default cartesia URL, got %s", cfg.Cartesia.URL)
	}
	if cfg.Cartesia.Model != "ink-whisper" || cfg.Cartesia.Language != "en" {
		t.Errorf("unexpected cartesia model/language %s/%s", cfg.Cartesia.Model, cfg.Cartesia.Language)
	}
	if cfg.Assessment.RecordingDuration != 60*time.Second {
		t.Errorf("expected recording duration 60s, got %v", cfg.Assessment.RecordingDuration)
	}
	if cfg.Kafka.Enabled || len(cfg.Kafka.Brokers) != 0 {
		t.Error("expected kafka disabled with no brokers")
	}
	if cfg.Kafka.Principal != DefaultServicePrincipal {
		t.Errorf("expected kafka principal to default to service principal, got %s", cfg.Kafka.Principal)
	}
	if cfg.Observability.LogLevel != "info" {
		t.Errorf("expected default log level 'info', got %s", cfg.Observability.LogLevel)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("BACKEND_URL", "20.172.129.92:8000/")
	t.Setenv("USE_MOCK_DATA", "true")
	t.Setenv("SUPPRESS_ERRORS", "1")
	t.Setenv("LOG_REQUESTS", "false")
	t.Setenv("LOG_ERRORS", "FALSE")
	t.Setenv("TRANSCRIPTION_PROVIDER", "Cartesia")
	t.Setenv("CLIENT_PLATFORM", "ios")
	t.Setenv("TRANSCRIPTION_TIMEOUT", "90s")
	t.Setenv("ANALYSIS_TIMEOUT", "10")
	t.Setenv("CARTESIA_API_KEY", "sk-test")
	t.Setenv("RECORDING_DURATION", "10")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "kafka-0:9092, kafka-1:9092,")

	cfg := Load()

	if cfg.Backend.BaseURL != "http://20.172.129.92:8000" {
		t.Errorf("expected normalized base URL, got %s", cfg.Backend.BaseURL)
	}
	if !cfg.Features.UseMockData || !cfg.Features.SuppressErrors {
		t.Error("expected mock data and suppression enabled")
	}
	if cfg.Features.LogRequests || cfg.Features.LogErrors {
		t.Error("expected request and error logging disabled")
	}
	if cfg.Transcription.Provider != ProviderCartesia {
		t.Errorf("expected provider 'cartesia', got %s", cfg.Transcription.Provider)
	}
	if cfg.Transcription.Platform != models.PlatformIOS {
		t.Errorf("expected platform ios, got %s", cfg.Transcription.Platform)
	}
	if cfg.Transcription.Timeout != 90*time.Second {
		t.Errorf("expected 90s, got %v", cfg.Transcription.Timeout)
	}
	if cfg.Analysis.Timeout != 10*time.Second {
		t.Errorf("expected 10s, got %v", cfg.Analysis.Timeout)
	}
	if cfg.Assessment.RecordingDuration != 10*time.Second {
		t.Errorf("expected 10s recording, got %v", cfg.Assessment.RecordingDuration)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "kafka-1:9092" {
		t.Errorf("unexpected brokers %v", cfg.Kafka.Brokers)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestLoad_LegacyBackendVariable(t *testing.T) {
	clearEnv(t)
	t.Setenv("EXPO_PUBLIC_AZURE_BACKEND", "https://brain.example.com/")

	cfg := Load()
	if cfg.Backend.BaseURL != "https://brain.example.com" {
		t.Errorf("expected legacy variable to be honoured, got %s", cfg.Backend.BaseURL)
	}
}

func TestLoad_InvalidValues_FallbackToDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("USE_MOCK_DATA", "maybe")
	t.Setenv("CLIENT_PLATFORM", "symbian")
	t.Setenv("TRANSCRIPTION_TIMEOUT", "soon")
	t.Setenv("ANALYSIS_TIMEOUT", "-5")
	t.Setenv("GOOGLE_STT_SAMPLE_RATE_HZ", "high")

	cfg := Load()

	if cfg.Features.UseMockData {
		t.Error("expected default mock flag on invalid input")
	}
	if cfg.Transcription.Platform != models.PlatformAndroid {
		t.Errorf("expected default platform on invalid input, got %s", cfg.Transcription.Platform)
	}
	if cfg.Transcription.Timeout != DefaultTranscriptionWait {
		t.Errorf("expected default transcription timeout on invalid input, got %v", cfg.Transcription.Timeout)
	}
	if cfg.Analysis.Timeout != DefaultAnalysisWait {
		t.Errorf("expected default analysis timeout on negative input, got %v", cfg.Analysis.Timeout)
	}
	if cfg.Google.SampleRateHz != 16000 {
		t.Errorf("expected default sample rate on invalid input, got %d", cfg.Google.SampleRateHz)
	}
}

func TestValidate(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	cfg.Transcription.Provider = "whisper"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "whisper") {
		t.Errorf("expected unknown provider error, got %v", err)
	}

	cfg = Load()
	cfg.Transcription.Provider = ProviderCartesia
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for cartesia without API key")
	}

	cfg.Features.UseMockData = true
	if err := cfg.Validate(); err != nil {
		t.Errorf("mock mode should not require an API key: %v", err)
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "http://localhost:8000"},
		{"localhost:8000", "http://localhost:8000"},
		{"http://10.0.0.1:8000/", "http://10.0.0.1:8000"},
		{"https://api.example.com", "https://api.example.com"},
		{"  https://api.example.com/  ", "https://api.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeBaseURL(tt.input); got != tt.expected {
				t.Errorf("NormalizeBaseURL(%q) = %s, want %s", tt.input, got, tt.expected)
			}
		})
	}
}

func TestEnvOrDefaultBool(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		def      bool
		expected bool
	}{
		{"true string", "true", false, true},
		{"false string", "false", true, false},
		{"1", "1", false, true},
		{"0", "0", true, false},
		{"TRUE uppercase", "TRUE", false, true},
		{"invalid", "invalid", true, true},
		{"empty", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_BOOL_VAR", tt.envValue)
			got := envOrDefaultBool("TEST_BOOL_VAR", tt.def)
			if got != tt.expected {
				t.Errorf("envOrDefaultBool(%s, %v) = %v, want %v", tt.envValue, tt.def, got, tt.expected)
			}
		})
	}
}

func TestEnvEnabledUnlessFalse(t *testing.T) {
	for value, expected := range map[string]bool{"": true, "true": true, "0": true, "false": false, "False": false} {
		t.Setenv("TEST_FLAG_VAR", value)
		if got := envEnabledUnlessFalse("TEST_FLAG_VAR"); got != expected {
			t.Errorf("envEnabledUnlessFalse(%q) = %v, want %v", value, got, expected)
		}
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "BRAIN_TEST_FROM_FILE=from-file\nBRAIN_TEST_PRESET=from-file\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	os.Unsetenv("BRAIN_TEST_FROM_FILE")
	t.Cleanup(func() { os.Unsetenv("BRAIN_TEST_FROM_FILE") })
	t.Setenv("BRAIN_TEST_PRESET", "from-env")

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv("BRAIN_TEST_FROM_FILE"); got != "from-file" {
		t.Errorf("expected value from file, got %q", got)
	}
	if got := os.Getenv("BRAIN_TEST_PRESET"); got != "from-env" {
		t.Errorf("existing variable must win, got %q", got)
	}
}
