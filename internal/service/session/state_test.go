package session

import (
	"errors"
	"sync"
	"testing"
)

func TestLifecycle_InitialState(t *testing.T) {
	lc := NewLifecycle("sess-1")

	if lc.State() != StateCreated {
		t.Errorf("expected StateCreated, got %v", lc.State())
	}
	if lc.SessionId() != "sess-1" {
		t.Errorf("expected sess-1, got %v", lc.SessionId())
	}
	if lc.IsClosed() {
		t.Error("expected IsClosed to be false")
	}
}

func TestLifecycle_FullCycle(t *testing.T) {
	lc := NewLifecycle("sess-1")

	if err := lc.BeginTranscription(); err != nil {
		t.Fatalf("BeginTranscription: %v", err)
	}
	if lc.State().Stage() != "transcription" {
		t.Errorf("expected transcription stage, got %q", lc.State().Stage())
	}
	if err := lc.BeginAnalysis(); err != nil {
		t.Fatalf("BeginAnalysis: %v", err)
	}
	if lc.State().Stage() != "analysis" {
		t.Errorf("expected analysis stage, got %q", lc.State().Stage())
	}
	if err := lc.Complete(); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if lc.State() != StateCompleted {
		t.Errorf("expected StateCompleted, got %v", lc.State())
	}
	if !lc.IsClosed() {
		t.Error("expected IsClosed to be true")
	}
}

func TestLifecycle_StagesEnteredOnce(t *testing.T) {
	lc := NewLifecycle("sess-1")
	lc.BeginTranscription()

	if err := lc.BeginTranscription(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second BeginTranscription: expected ErrInvalidTransition, got %v", err)
	}

	lc.BeginAnalysis()
	if err := lc.BeginAnalysis(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second BeginAnalysis: expected ErrInvalidTransition, got %v", err)
	}
}

func TestLifecycle_SkippingStagesFails(t *testing.T) {
	lc := NewLifecycle("sess-1")

	if err := lc.BeginAnalysis(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if err := lc.Complete(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if lc.State() != StateCreated {
		t.Errorf("state should be unchanged, got %v", lc.State())
	}
}

func TestLifecycle_Fail(t *testing.T) {
	lc := NewLifecycle("sess-1")
	lc.BeginTranscription()

	stage, ok := lc.Fail()
	if !ok || stage != "transcription" {
		t.Errorf("expected (transcription, true), got (%q, %v)", stage, ok)
	}
	if lc.State() != StateFailed {
		t.Errorf("expected StateFailed, got %v", lc.State())
	}

	// Terminal: further failures and transitions are rejected
	if _, ok := lc.Fail(); ok {
		t.Error("expected second Fail to return false")
	}
	if err := lc.BeginAnalysis(); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}
}

func TestLifecycle_FailAfterComplete(t *testing.T) {
	lc := NewLifecycle("sess-1")
	lc.BeginTranscription()
	lc.BeginAnalysis()
	lc.Complete()

	if _, ok := lc.Fail(); ok {
		t.Error("expected Fail on a completed session to return false")
	}
	if lc.State() != StateCompleted {
		t.Errorf("expected StateCompleted, got %v", lc.State())
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state    State
		expected string
	}{
		{StateCreated, "CREATED"},
		{StateTranscribing, "TRANSCRIBING"},
		{StateAnalyzing, "ANALYZING"},
		{StateCompleted, "COMPLETED"},
		{StateFailed, "FAILED"},
		{State(99), "UNKNOWN(99)"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.expected {
			t.Errorf("State(%d).String() = %v, want %v", tt.state, got, tt.expected)
		}
	}
}

func TestLifecycle_ConcurrentFail(t *testing.T) {
	lc := NewLifecycle("sess-1")
	lc.BeginTranscription()

	var wg sync.WaitGroup
	wins := make(chan bool, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := lc.Fail()
			wins <- ok
		}()
	}
	wg.Wait()
	close(wins)

	count := 0
	for ok := range wins {
		if ok {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one successful Fail, got %d", count)
	}
}
