// Command assess runs the animal-naming brain health assessment pipeline
// from the terminal or as a small HTTP service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"brain-health-assessment/internal/app"
	"brain-health-assessment/internal/config"
)

var (
	envFile        string
	providerFlag   string
	mockFlag       bool
	suppressFlag   bool
	logLevelFlag   string
	logFormatFlag  string
	backendURLFlag string
)

var rootCmd = &cobra.Command{
	Use:   "assess",
	Short: "Brain health assessment pipeline",
	Long: `Transcribe an animal-naming recording and score it against the
analysis backend.

Configuration comes from the environment (and an optional .env file);
flags override the matching variables.

Examples:
  assess run --audio recording.wav --platform android --age 42
  assess health
  assess serve`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	pf.StringVar(&providerFlag, "provider", "", "transcription provider: backend, cartesia or google")
	pf.StringVar(&backendURLFlag, "backend", "", "analysis backend base URL")
	pf.BoolVar(&mockFlag, "mock", false, "serve demo data without any network calls")
	pf.BoolVar(&suppressFlag, "suppress-errors", false, "replace failed stages with demo data")
	pf.StringVar(&logLevelFlag, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&logFormatFlag, "log-format", "", "json or console")
}

// loadConfig reads the environment and applies flags that were set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, err
	}
	cfg := config.Load()

	flags := cmd.Flags()
	if flags.Changed("provider") {
		cfg.Transcription.Provider = providerFlag
	}
	if flags.Changed("backend") {
		cfg.Backend.BaseURL = config.NormalizeBaseURL(backendURLFlag)
	}
	if flags.Changed("mock") {
		cfg.Features.UseMockData = mockFlag
	}
	if flags.Changed("suppress-errors") {
		cfg.Features.SuppressErrors = suppressFlag
	}
	if flags.Changed("log-level") {
		cfg.Observability.LogLevel = logLevelFlag
	}
	if flags.Changed("log-format") {
		cfg.Observability.LogFormat = logFormatFlag
	}
	return cfg, nil
}

// newApplication builds the application with logs on stderr so stdout
// stays reserved for command output.
func newApplication(ctx context.Context, cmd *cobra.Command) (*app.Application, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, app.Options{LogOutput: cmd.ErrOrStderr()})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
