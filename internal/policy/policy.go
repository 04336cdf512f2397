// Package policy implements the Parse Policy / Fallback Heuristic
// (spec.md §4.5): after lexical execution, decide whether the
// trigram fallback must also run and be merged in.
package policy

import "github.com/astraidlabs/veriado-searchcore/internal/config"

// ExecutionOutcome is the lexical-execution evidence the fallback
// heuristic needs: how many hits came back and, if scored, the
// normalized score of the top hit.
type ExecutionOutcome struct {
	Hits               int
	TopNormalizedScore float64
}

// PlanSignals is the subset of a query.Plan the heuristic consults.
// Declared independently of the query package (rather than importing
// it) so policy has no dependency on the compiler; callers pass the
// four flags straight from their Plan.
type PlanSignals struct {
	RequiresTrigramFallback bool
	HasPrefix               bool
	HasExplicitFuzzy        bool
	HasHeuristicFuzzy       bool
}

// RequiresTrigramFallback reports whether, given the plan's signals,
// the outcome of lexical execution, and the fallback configuration,
// the executor must also run the trigram query and merge results
// (spec.md §4.5):
//
//	requires_trigram_fallback
//	  OR (has_prefix AND hits < prefix_min_results)
//	  OR (has_explicit_fuzzy AND hits < fuzzy_min_results)
//	  OR (enable_heuristic_fuzzy AND has_heuristic_fuzzy
//	      AND top_normalized_score < fuzzy_score_threshold)
func RequiresTrigramFallback(plan PlanSignals, outcome ExecutionOutcome, cfg config.FallbackConfig) bool {
	if plan.RequiresTrigramFallback {
		return true
	}
	if plan.HasPrefix && outcome.Hits < cfg.PrefixMinResults {
		return true
	}
	if plan.HasExplicitFuzzy && outcome.Hits < cfg.FuzzyMinResults {
		return true
	}
	if cfg.EnableHeuristicFuzzy && plan.HasHeuristicFuzzy && outcome.TopNormalizedScore < cfg.FuzzyScoreThreshold {
		return true
	}
	return false
}
