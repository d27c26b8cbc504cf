// Package mock provides the demo scenario generator used when live services
// are disabled or failing. The scenario table is static; only the selection
// is random, and tests can fix it with WithSelector.
package mock

import (
	"fmt"
	"math/rand/v2"

	"brain-health-assessment/internal/models"
)

// Scenario is a pre-authored, internally consistent assessment outcome.
type Scenario struct {
	Text             string `json:"text"`
	AnimalCount      int    `json:"animal_count"`
	Repetitions      int    `json:"repetitions"`
	MemoryScore      int    `json:"memory_score"`
	BrainHealthScore int    `json:"brain_health_score"`
}

// Scenarios is the fixed scenario table.
var Scenarios = []Scenario{
	{
		Text:             "cat dog bird fish elephant lion tiger bear wolf deer rabbit squirrel mouse rat hamster guinea pig",
		AnimalCount:      16,
		Repetitions:      0,
		MemoryScore:      100,
		BrainHealthScore: 95,
	},
	{
		Text:             "cat dog cat bird fish fish elephant lion tiger bear wolf deer rabbit",
		AnimalCount:      11,
		Repetitions:      2,
		MemoryScore:      98,
		BrainHealthScore: 88,
	},
	{
		Text:             "dog cat horse cow pig sheep goat chicken duck turkey rabbit hamster giraffe zebra kangaroo koala panda",
		AnimalCount:      17,
		Repetitions:      0,
		MemoryScore:      100,
		BrainHealthScore: 98,
	},
}

const reportTemplate = `🧠 AI Cognitive Assessment - Animal Naming (Demo)
-----------------------------------------------
Total entries:     %d
Unique animals:    %d
Repetitions:       %d
Memory score:      %d / 100
Brain health score:%d / 100

Unique list: %s

Disclaimer: Demo-only. Not clinical-grade. Not for diagnosis.`

// Report formats the human-readable report from the scenario's own fields.
func Report(s Scenario) string {
	return fmt.Sprintf(reportTemplate,
		s.AnimalCount+s.Repetitions,
		s.AnimalCount,
		s.Repetitions,
		s.MemoryScore,
		s.BrainHealthScore,
		s.Text,
	)
}

// Output is a generated transcription/analysis pair.
type Output struct {
	Transcription models.TranscriptionResult
	Analysis      models.AnalysisResult
}

// Output builds the pipeline-shaped data for the scenario. Confidence is
// always 1.0 for mock data.
func (s Scenario) Output() Output {
	return Output{
		Transcription: models.TranscriptionResult{
			Text:       s.Text,
			Confidence: 1.0,
		},
		Analysis: models.AnalysisResult{
			AnimalCount:      s.AnimalCount,
			Repetitions:      s.Repetitions,
			MemoryScore:      s.MemoryScore,
			BrainHealthScore: s.BrainHealthScore,
			Report:           Report(s),
		},
	}
}

// Selector picks an index in [0, n).
type Selector func(n int) int

// Fixed returns a selector that always picks index i.
func Fixed(i int) Selector {
	return func(int) int { return i }
}

// Generator selects scenarios. It never fails and performs no I/O.
type Generator struct {
	scenarios []Scenario
	selectFn  Selector
}

// Option configures a Generator.
type Option func(*Generator)

// WithSelector replaces the random selection.
func WithSelector(fn Selector) Option {
	return func(g *Generator) {
		g.selectFn = fn
	}
}

// WithScenarios replaces the scenario table.
func WithScenarios(s []Scenario) Option {
	return func(g *Generator) {
		g.scenarios = s
	}
}

// New creates a generator over Scenarios with uniform random selection.
func New(opts ...Option) *Generator {
	g := &Generator{
		scenarios: Scenarios,
		selectFn:  rand.IntN,
	}
	for _, opt := range opts {
		opt(g)
	}
	if len(g.scenarios) == 0 {
		g.scenarios = Scenarios
	}
	if g.selectFn == nil {
		g.selectFn = rand.IntN
	}
	return g
}

// Generate returns the output of one selected scenario.
func (g *Generator) Generate() Output {
	return g.pick().Output()
}

// Scenarios returns a copy of the generator's table.
func (g *Generator) Scenarios() []Scenario {
	return append([]Scenario(nil), g.scenarios...)
}

func (g *Generator) pick() Scenario {
	n := len(g.scenarios)
	idx := g.selectFn(n) % n
	if idx < 0 {
		idx += n
	}
	return g.scenarios[idx]
}
