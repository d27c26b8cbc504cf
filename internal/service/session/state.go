// Package session provides assessment session ID generation and lifecycle management.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// State represents the lifecycle state of an assessment session.
type State int

const (
	// StateCreated - Session exists, no stage started.
	StateCreated State = iota
	// StateTranscribing - Transcription stage in flight.
	StateTranscribing
	// StateAnalyzing - Analysis stage in flight.
	StateAnalyzing
	// StateCompleted - Both stages produced a result (real or fallback).
	StateCompleted
	// StateFailed - A stage failed without fallback. Terminal.
	StateFailed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "CREATED"
	case StateTranscribing:
		return "TRANSCRIBING"
	case StateAnalyzing:
		return "ANALYZING"
	case StateCompleted:
		return "COMPLETED"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// IsTerminal returns true if the state is terminal (COMPLETED or FAILED).
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Stage names the pipeline stage running in s, or "" outside a stage.
func (s State) Stage() string {
	switch s {
	case StateTranscribing:
		return "transcription"
	case StateAnalyzing:
		return "analysis"
	default:
		return ""
	}
}

// Errors for invalid state transitions.
var (
	ErrSessionClosed     = errors.New("session is closed")
	ErrInvalidTransition = errors.New("invalid session transition")
)

// Lifecycle manages the state machine for a single session.
// Thread-safe for concurrent access.
//
// State transitions:
//
//	CREATED → TRANSCRIBING → ANALYZING → COMPLETED
//	              │              │
//	              └──── Fail() ──┴──→ FAILED
//
// Each stage is entered at most once, so a session never issues a second
// request for the same stage.
type Lifecycle struct {
	mu        sync.RWMutex
	sessionId string
	state     State
	started   time.Time
}

// NewLifecycle creates a new session lifecycle in CREATED state.
func NewLifecycle(sessionId string) *Lifecycle {
	return &Lifecycle{
		sessionId: sessionId,
		state:     StateCreated,
		started:   time.Now(),
	}
}

// SessionId returns the session ID.
func (l *Lifecycle) SessionId() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sessionId
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Elapsed returns the time since the session was created.
func (l *Lifecycle) Elapsed() time.Duration {
	return time.Since(l.started)
}

// IsClosed returns true if the session is in a terminal state.
func (l *Lifecycle) IsClosed() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.IsTerminal()
}

// BeginTranscription transitions CREATED → TRANSCRIBING.
func (l *Lifecycle) BeginTranscription() error {
	return l.advance(StateCreated, StateTranscribing)
}

// BeginAnalysis transitions TRANSCRIBING → ANALYZING.
func (l *Lifecycle) BeginAnalysis() error {
	return l.advance(StateTranscribing, StateAnalyzing)
}

// Complete transitions ANALYZING → COMPLETED.
func (l *Lifecycle) Complete() error {
	return l.advance(StateAnalyzing, StateCompleted)
}

func (l *Lifecycle) advance(from, to State) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch {
	case l.state.IsTerminal():
		return ErrSessionClosed
	case l.state != from:
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, l.state, to)
	default:
		l.state = to
		return nil
	}
}

// Fail transitions the session to FAILED and returns the stage that was
// running. ok is false if the session was already terminal.
func (l *Lifecycle) Fail() (stage string, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state.IsTerminal() {
		return "", false
	}
	stage = l.state.Stage()
	l.state = StateFailed
	return stage, true
}
