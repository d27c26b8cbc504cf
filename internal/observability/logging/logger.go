// Package logging provides structured logging with zerolog.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logging configuration.
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	TimeFormat string // RFC3339, Unix, etc.
}

// Options gate what reaches the output. They mirror the feature flags.
type Options struct {
	LogRequests    bool
	LogErrors      bool
	SuppressErrors bool
}

// DefaultConfig returns sensible default logging configuration.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "json",
		TimeFormat: time.RFC3339,
	}
}

// DefaultOptions logs everything.
func DefaultOptions() Options {
	return Options{LogRequests: true, LogErrors: true}
}

// New builds a logger writing to out with the gating hooks for opts attached.
func New(cfg Config, opts Options, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.Kitchen,
		}
	}

	if !opts.LogRequests || opts.SuppressErrors {
		fw := &FilterWriter{Out: out, DropRequests: !opts.LogRequests}
		if opts.SuppressErrors {
			s := NewSuppressor()
			fw.Suppress = &s
		}
		out = fw
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "brain-health-assessment").
		Logger().
		Hook(GateHook{LogErrors: opts.LogErrors})
}

// Init initializes the global zerolog logger and returns it.
func Init(cfg Config, opts Options) zerolog.Logger {
	if cfg.TimeFormat != "" {
		zerolog.TimeFieldFormat = cfg.TimeFormat
	}
	log.Logger = New(cfg, opts, os.Stdout)
	return log.Logger
}

// Nop returns a logger that discards everything.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

// WithComponent returns a logger with a component tag.
func WithComponent(base zerolog.Logger, component string) zerolog.Logger {
	return base.With().
		Str("component", component).
		Logger()
}

// WithSession returns a logger with assessment session context.
func WithSession(base zerolog.Logger, sessionId, provider string) zerolog.Logger {
	return base.With().
		Str("sessionId", sessionId).
		Str("sttProvider", provider).
		Logger()
}
