// Package report renders assessment results for the terminal.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"brain-health-assessment/internal/models"
)

// Age bounds accepted for a participant.
const (
	MinAge     = 18
	MaxAge     = 99
	DefaultAge = 35
)

// Score bands.
const (
	BandGood = "good"
	BandFair = "fair"
	BandPoor = "poor"
)

var bandColors = map[string]lipgloss.Color{
	BandGood: lipgloss.Color("#4CAF50"),
	BandFair: lipgloss.Color("#FF9800"),
	BandPoor: lipgloss.Color("#F44336"),
}

// Band classifies a 0-100 score.
func Band(score int) string {
	switch {
	case score >= 80:
		return BandGood
	case score >= 60:
		return BandFair
	default:
		return BandPoor
	}
}

// Level names the achievement tier for a brain health score.
func Level(score int) string {
	switch {
	case score >= 90:
		return "Brain Master"
	case score >= 80:
		return "Brain Athlete"
	case score >= 70:
		return "Sharp Mind"
	case score >= 60:
		return "Learning"
	default:
		return "Growing"
	}
}

// ValidateAge rejects ages outside [MinAge, MaxAge].
func ValidateAge(age int) error {
	if age < MinAge || age > MaxAge {
		return fmt.Errorf("age %d out of range %d-%d", age, MinAge, MaxAge)
	}
	return nil
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6e7681"))
	cardStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00ff9f")).
			Padding(0, 1)
)

// Render builds the result card. age 0 omits the age line.
func Render(res models.PipelineResult, age int) string {
	a := res.Analysis
	scoreStyle := lipgloss.NewStyle().Bold(true).Foreground(bandColors[Band(a.BrainHealthScore)])

	row := func(label, value string) string {
		return labelStyle.Render(fmt.Sprintf("%-20s", label)) + value
	}

	lines := []string{
		titleStyle.Render("Brain Health Assessment"),
		"",
		row("Brain health score", scoreStyle.Render(fmt.Sprintf("%d / 100", a.BrainHealthScore))),
		row("Level", Level(a.BrainHealthScore)),
		row("Unique animals", fmt.Sprintf("%d", a.AnimalCount)),
		row("Repetitions", fmt.Sprintf("%d", a.Repetitions)),
		row("Memory score", fmt.Sprintf("%d / 100", a.MemoryScore)),
	}
	if age > 0 {
		lines = append(lines, row("Age", fmt.Sprintf("%d", age)))
	}
	lines = append(lines,
		"",
		row("Transcript", res.Transcription.Text),
		row("Confidence", fmt.Sprintf("%.1f%%", res.Transcription.Confidence*100)),
	)
	if res.TranscriptionFallback || res.AnalysisFallback {
		lines = append(lines, row("Data", "demo ("+fallbackStages(res)+")"))
	}

	card := cardStyle.Render(strings.Join(lines, "\n"))
	if a.Report == "" {
		return card
	}
	return card + "\n\n" + a.Report
}

func fallbackStages(res models.PipelineResult) string {
	var stages []string
	if res.TranscriptionFallback {
		stages = append(stages, "transcription")
	}
	if res.AnalysisFallback {
		stages = append(stages, "analysis")
	}
	return strings.Join(stages, ", ")
}
