package logging

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// RequestKey tags per-request diagnostics. Tagged events are dropped when
// request logging is off; untagged info and debug events are kept.
const RequestKey = "request"

// SuppressedPatterns are the failure texts hidden in demo mode. They are
// matched against both the message and the error field.
var SuppressedPatterns = []string{
	"network request failed",
	"analysis error",
	"transcription error",
	"fetch failed",
	"econnrefused",
	"connection refused",
	"connection reset",
	"no such host",
	"context deadline exceeded",
	"timeout",
	"timed out",
}

// GateHook drops error-level events when LogErrors is off.
type GateHook struct {
	LogErrors bool
}

func (h GateHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	if level >= zerolog.ErrorLevel && level < zerolog.NoLevel && !h.LogErrors {
		e.Discard()
	}
}

// Suppressor matches expected network failures while demo mode
// substitutes mock data.
type Suppressor struct {
	patterns []string
}

// NewSuppressor builds a matcher over SuppressedPatterns plus extra.
func NewSuppressor(extra ...string) Suppressor {
	patterns := make([]string, 0, len(SuppressedPatterns)+len(extra))
	for _, p := range append(append([]string{}, SuppressedPatterns...), extra...) {
		patterns = append(patterns, strings.ToLower(p))
	}
	return Suppressor{patterns: patterns}
}

// Matches reports whether text contains a suppressed pattern, ignoring case.
func (s Suppressor) Matches(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, p := range s.patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// FilterWriter drops encoded events before they reach Out. Hooks only see
// the message, so rules that depend on fields live here.
type FilterWriter struct {
	Out io.Writer
	// DropRequests discards events tagged with RequestKey.
	DropRequests bool
	// Suppress, when set, discards warn and error events whose message or
	// error matches.
	Suppress *Suppressor
}

func (w *FilterWriter) Write(p []byte) (int, error) {
	return w.Out.Write(p)
}

func (w *FilterWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if w.drop(level, p) {
		return len(p), nil
	}
	if lw, ok := w.Out.(zerolog.LevelWriter); ok {
		return lw.WriteLevel(level, p)
	}
	return w.Out.Write(p)
}

func (w *FilterWriter) drop(level zerolog.Level, p []byte) bool {
	suppressible := w.Suppress != nil && level >= zerolog.WarnLevel && level < zerolog.NoLevel
	if !w.DropRequests && !suppressible {
		return false
	}

	var fields map[string]any
	if err := json.Unmarshal(p, &fields); err != nil {
		return false
	}

	if w.DropRequests {
		if tagged, _ := fields[RequestKey].(bool); tagged {
			return true
		}
	}
	if suppressible {
		msg, _ := fields[zerolog.MessageFieldName].(string)
		errText, _ := fields[zerolog.ErrorFieldName].(string)
		return w.Suppress.Matches(msg) || w.Suppress.Matches(errText)
	}
	return false
}
