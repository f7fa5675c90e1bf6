package evaluation

import (
	"fmt"
	"time"
)

// GuardrailConfig holds minimum quality thresholds an evaluation run must meet.
type GuardrailConfig struct {
	MinAvgRecallAt5     float64
	MinCategoryAccuracy float64
	MaxAvgLatency       time.Duration
}

type Guardrails struct {
	config GuardrailConfig
}

func NewGuardrails(config GuardrailConfig) *Guardrails {
	if config.MaxAvgLatency <= 0 {
		config.MaxAvgLatency = 30 * time.Second
	}
	return &Guardrails{config: config}
}

// Check returns one violation message per threshold the summary misses.
// An empty slice means the run passed.
func (g *Guardrails) Check(summary *EvalSummary) []string {
	violations := []string{}

	if summary.AvgRecallAt5 < g.config.MinAvgRecallAt5 {
		violations = append(violations, fmt.Sprintf(
			"avg recall@5 %.3f below threshold %.3f", summary.AvgRecallAt5, g.config.MinAvgRecallAt5))
	}
	if summary.CategoryAccuracy < g.config.MinCategoryAccuracy {
		violations = append(violations, fmt.Sprintf(
			"category accuracy %.3f below threshold %.3f", summary.CategoryAccuracy, g.config.MinCategoryAccuracy))
	}
	if summary.AvgLatency > g.config.MaxAvgLatency {
		violations = append(violations, fmt.Sprintf(
			"avg latency %s above threshold %s", summary.AvgLatency, g.config.MaxAvgLatency))
	}

	return violations
}
