package policy

import (
	"testing"

	"github.com/astraidlabs/veriado-searchcore/internal/config"
	"github.com/stretchr/testify/assert"
)

func defaultFallback() config.FallbackConfig {
	return config.NewConfig().Fallback
}

func TestRequiresTrigramFallback_PlanAlreadyRequiresIt(t *testing.T) {
	plan := PlanSignals{RequiresTrigramFallback: true}
	assert.True(t, RequiresTrigramFallback(plan, ExecutionOutcome{Hits: 1000}, defaultFallback()))
}

func TestRequiresTrigramFallback_PrefixUndershootsMinResults(t *testing.T) {
	plan := PlanSignals{HasPrefix: true}
	cfg := defaultFallback()
	assert.True(t, RequiresTrigramFallback(plan, ExecutionOutcome{Hits: cfg.PrefixMinResults - 1}, cfg))
}

func TestRequiresTrigramFallback_PrefixMeetsMinResults(t *testing.T) {
	plan := PlanSignals{HasPrefix: true}
	cfg := defaultFallback()
	assert.False(t, RequiresTrigramFallback(plan, ExecutionOutcome{Hits: cfg.PrefixMinResults}, cfg))
}

func TestRequiresTrigramFallback_ExplicitFuzzyUndershootsMinResults(t *testing.T) {
	plan := PlanSignals{HasExplicitFuzzy: true}
	cfg := defaultFallback()
	assert.True(t, RequiresTrigramFallback(plan, ExecutionOutcome{Hits: 0}, cfg))
}

func TestRequiresTrigramFallback_HeuristicFuzzyBelowScoreThreshold(t *testing.T) {
	plan := PlanSignals{HasHeuristicFuzzy: true}
	cfg := defaultFallback()
	outcome := ExecutionOutcome{Hits: 1000, TopNormalizedScore: cfg.FuzzyScoreThreshold - 0.01}
	assert.True(t, RequiresTrigramFallback(plan, outcome, cfg))
}

func TestRequiresTrigramFallback_HeuristicFuzzyDisabledNeverTriggers(t *testing.T) {
	plan := PlanSignals{HasHeuristicFuzzy: true}
	cfg := defaultFallback()
	cfg.EnableHeuristicFuzzy = false
	outcome := ExecutionOutcome{Hits: 1000, TopNormalizedScore: 0}
	assert.False(t, RequiresTrigramFallback(plan, outcome, cfg))
}

func TestRequiresTrigramFallback_NoSignalsNoFallback(t *testing.T) {
	plan := PlanSignals{}
	cfg := defaultFallback()
	outcome := ExecutionOutcome{Hits: 1000, TopNormalizedScore: 1.0}
	assert.False(t, RequiresTrigramFallback(plan, outcome, cfg))
}
