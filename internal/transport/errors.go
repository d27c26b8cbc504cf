// Package transport provides the bounded-wait HTTP call shared by the
// transcription, analysis and health clients, and the error taxonomy they surface.
package transport

import (
	"errors"
	"fmt"
)

// Kind classifies why a network call failed.
type Kind string

const (
	// KindTimeout - the call exceeded its deadline.
	KindTimeout Kind = "timeout"
	// KindHTTP - the server answered with a non-success status.
	KindHTTP Kind = "http"
	// KindNetwork - no response at all (dial, reset, cancelled, unreadable input).
	KindNetwork Kind = "network"
	// KindMalformed - the response could not be parsed into the expected result.
	KindMalformed Kind = "malformed"
)

// Error is returned by every client call. Op names the operation
// ("transcription", "analysis", "health").
type Error struct {
	Op         string
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (kind=%s, http_status=%d)", e.Op, e.Message, e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s (kind=%s)", e.Op, e.Message, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether re-invoking the call may succeed.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindTimeout, KindNetwork:
		return true
	case KindHTTP:
		return e.StatusCode == 429 || e.StatusCode >= 500
	default:
		return false
	}
}

// AsError tries to convert err to *Error.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the error kind, or "" when err is not a transport error.
func KindOf(err error) Kind {
	if e, ok := AsError(err); ok {
		return e.Kind
	}
	return ""
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	if e, ok := AsError(err); ok {
		return e.StatusCode
	}
	return 0
}

// IsTimeout reports whether err is a deadline failure.
func IsTimeout(err error) bool {
	return KindOf(err) == KindTimeout
}

// Malformed wraps a decode or validation failure.
func Malformed(op string, err error) *Error {
	return &Error{Op: op, Kind: KindMalformed, Message: "malformed response: " + err.Error(), Err: err}
}

// Network wraps a failure that happened before any response was received.
func Network(op, message string, err error) *Error {
	return &Error{Op: op, Kind: KindNetwork, Message: message, Err: err}
}

// Timeout builds a deadline failure.
func Timeout(op string, deadline fmt.Stringer, err error) *Error {
	return &Error{Op: op, Kind: KindTimeout, Message: fmt.Sprintf("%s timed out after %s", op, deadline), Err: err}
}

// HTTP builds a non-success status failure.
func HTTP(op string, status int, message string) *Error {
	return &Error{Op: op, Kind: KindHTTP, StatusCode: status, Message: message}
}
