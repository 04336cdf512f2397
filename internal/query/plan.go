package query

import "github.com/astraidlabs/veriado-searchcore/internal/scoring"

// Parameter is a bound SQL parameter emitted alongside a WHERE
// fragment.
type Parameter struct {
	Name     string
	Value    any
	TypeHint string
}

// Plan is the immutable output of the builder (spec.md §3 "Plan").
// Once returned from Build, a Plan is never mutated; the builder that
// produced it resets its own internal accumulators for reuse.
type Plan struct {
	MatchExpr    string
	WhereClauses []string
	Parameters   []Parameter
	Scoring      *scoring.Plan

	RawQueryText string

	TrigramExpr                string
	RequiresTrigramFallback    bool
	RequiresTrigramForWildcard bool
	HasPrefix                  bool
	HasExplicitFuzzy           bool
	HasHeuristicFuzzy          bool
}
