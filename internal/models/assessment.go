// Package models defines the data structures exchanged by the assessment pipeline.
package models

import (
	"fmt"
	"strings"
	"time"
)

// Platform identifies the client environment that produced a recording.
type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
	PlatformWeb     Platform = "web"
)

// ParsePlatform converts a platform name (case-insensitive) to a Platform.
func ParsePlatform(s string) (Platform, error) {
	switch p := Platform(strings.ToLower(strings.TrimSpace(s))); p {
	case PlatformIOS, PlatformAndroid, PlatformWeb:
		return p, nil
	default:
		return "", fmt.Errorf("unknown platform %q", s)
	}
}

// RecordingHandle is an opaque reference to a captured audio asset.
// The pipeline reads it once and never mutates it.
type RecordingHandle struct {
	URI      string   `json:"uri"`
	Platform Platform `json:"platform"`
}

// TranscriptionResult is the text recognized from a recording.
type TranscriptionResult struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// AnalysisResult is the scoring backend's verdict on a transcript.
type AnalysisResult struct {
	AnimalCount      int    `json:"animal_count"`
	Repetitions      int    `json:"repetitions"`
	MemoryScore      int    `json:"memory_score"`
	BrainHealthScore int    `json:"brain_health_score"`
	Report           string `json:"report"`
}

// PipelineResult is the outcome of one assessment session.
type PipelineResult struct {
	SessionID             string              `json:"sessionId"`
	Transcription         TranscriptionResult `json:"transcription"`
	Analysis              AnalysisResult      `json:"analysis"`
	TranscriptionFallback bool                `json:"transcriptionFallback"`
	AnalysisFallback      bool                `json:"analysisFallback"`
	CompletedAt           time.Time           `json:"completedAt"`
}

// AssessmentEvent is published once per session.
type AssessmentEvent struct {
	EventType string          `json:"eventType"`
	SessionID string          `json:"sessionId"`
	Timestamp int64           `json:"timestamp"`
	Provider  string          `json:"provider"`
	Age       int             `json:"age,omitempty"`
	Result    *PipelineResult `json:"result,omitempty"`
	Stage     string          `json:"stage,omitempty"`
	ErrorKind string          `json:"errorKind,omitempty"`
	Error     string          `json:"error,omitempty"`
}

const (
	EventAssessmentCompleted = "assessment.completed"
	EventAssessmentFailed    = "assessment.failed"
)
