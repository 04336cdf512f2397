// Package scoring implements the Scoring Plan (spec.md §4.8): the
// weighted BM25 field weights, the optional TF-IDF alternative,
// custom rank/similarity hooks, and the hybrid merge parameters a
// query plan carries to the executor.
package scoring

import (
	"strings"
	"time"

	"github.com/astraidlabs/veriado-searchcore/internal/config"
	"github.com/astraidlabs/veriado-searchcore/internal/hybrid"
	"github.com/astraidlabs/veriado-searchcore/internal/searcherr"
)

// boostableFields is the fixed set of columns a boost() call may
// scale (spec.md §6: "boosts limited to {title, author, mime,
// metadata_text, metadata}").
var boostableFields = map[string]struct{}{
	"title":         {},
	"author":        {},
	"mime":          {},
	"metadata_text": {},
	"metadata":      {},
}

// SimilarityFn is the code-side custom similarity hook: a pure
// function of (bm25, custom_sim?, modified_utc?) -> score.
type SimilarityFn func(bm25 float64, customSim *float64, modifiedUTC *time.Time) float64

// Plan is the mutable, per-builder scoring configuration. Boost and
// the use_* operations mutate a live Plan; Clone copies it so a
// built query.Plan carries an immutable snapshot (spec.md §4.8
// "clone() copies for per-build immutability").
type Plan struct {
	FieldWeights         map[string]float64
	ScoreMultiplier      float64
	UseTFIDFAlternative  bool
	TFIDFDamping         float64
	HigherIsBetter       bool
	MergeMode            hybrid.MergeMode
	LuceneWeight         float64
	OversampleMultiplier int
	DefaultTrigramScale  float64
	TrigramFloor         float64

	CustomRankExpr      string
	CustomSimilaritySQL string
	CustomSimilarityFn  SimilarityFn
}

// FromConfig builds a fresh Plan from the configured defaults. The
// field weight map is copied so later boosts never mutate cfg.
func FromConfig(cfg config.ScoringConfig) *Plan {
	weights := make(map[string]float64, len(cfg.FieldWeights))
	for k, v := range cfg.FieldWeights {
		weights[k] = v
	}
	return &Plan{
		FieldWeights:         weights,
		ScoreMultiplier:      cfg.ScoreMultiplier,
		UseTFIDFAlternative:  cfg.UseTFIDFAlternative,
		TFIDFDamping:         cfg.TFIDFDamping,
		HigherIsBetter:       cfg.HigherIsBetter,
		MergeMode:            hybrid.MergeMode(cfg.MergeMode),
		LuceneWeight:         cfg.LuceneWeight,
		OversampleMultiplier: cfg.OversampleMultiplier,
		DefaultTrigramScale:  cfg.DefaultTrigramScale,
		TrigramFloor:         cfg.TrigramFloor,
	}
}

// Clone returns a deep-enough copy: the field weight map is copied,
// the custom similarity function reference (if any) is shared since
// functions are immutable values.
func (p *Plan) Clone() *Plan {
	weights := make(map[string]float64, len(p.FieldWeights))
	for k, v := range p.FieldWeights {
		weights[k] = v
	}
	clone := *p
	clone.FieldWeights = weights
	return &clone
}

// Boost multiplies the weight of field by factor. Unknown fields are
// silently ignored (spec.md §6: boosts are limited to a fixed set;
// anything else is a no-op, matching range()'s "unknown field
// silently ignored" policy). factor must be positive.
func (p *Plan) Boost(field string, factor float64) error {
	if factor <= 0 {
		return searcherr.InvalidArgument("boost factor must be positive")
	}
	key := strings.ToLower(strings.TrimSpace(field))
	if _, ok := boostableFields[key]; !ok {
		return nil
	}
	p.FieldWeights[key] *= factor
	return nil
}

// UseTFIDFRanking enables the TF-IDF alternative 1/(damping+bm25) in
// place of weighted BM25, and marks the result higher-is-better since
// the inversion turns BM25's cost-like score into a benefit-like one.
// A negative damping is coerced to 0.5 (spec.md §7).
func (p *Plan) UseTFIDFRanking(damping float64) {
	if damping < 0 {
		damping = 0.5
	}
	p.UseTFIDFAlternative = true
	p.TFIDFDamping = damping
	p.HigherIsBetter = true
}

// UseRankExpression installs a raw SQL rank expression, validated
// against the SQL safety rules in spec.md §6.
func (p *Plan) UseRankExpression(sql string, higherIsBetter bool) error {
	if err := validateSQLFragment(sql); err != nil {
		return err
	}
	p.CustomRankExpr = sql
	p.HigherIsBetter = higherIsBetter
	return nil
}

// UseCustomSimilaritySQL installs a raw SQL fragment aliased as
// custom_similarity, validated against the same SQL safety rules.
func (p *Plan) UseCustomSimilaritySQL(sql string) error {
	if err := validateSQLFragment(sql); err != nil {
		return err
	}
	p.CustomSimilaritySQL = sql
	return nil
}

// UseCustomSimilarity installs a code-side post-hoc similarity
// function, applied to each hit after the SQL query returns.
func (p *Plan) UseCustomSimilarity(fn SimilarityFn) {
	p.CustomSimilarityFn = fn
}

// isAllowedSQLChar reports whether r is one of the characters spec.md
// §6 permits in a custom SQL fragment: letters, digits, whitespace, and
// "_()+-*/.,: ".
func isAllowedSQLChar(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == ' ', r == '\t', r == '\n', r == '\r':
		return true
	}
	switch r {
	case '_', '(', ')', '+', '-', '*', '/', '.', ',', ':':
		return true
	}
	return false
}

var forbiddenSequences = []string{"--", "/*", "*/", ";"}

// validateSQLFragment enforces spec.md §6's SQL safety rules: an
// allowed character set, and rejection of comment/statement-separator
// sequences that could be used to break out of the interpolated
// fragment.
func validateSQLFragment(sql string) error {
	for _, r := range sql {
		if !isAllowedSQLChar(r) {
			return searcherr.InvalidArgument("sql fragment contains a disallowed character").
				WithDetail("fragment", sql)
		}
	}
	for _, seq := range forbiddenSequences {
		if strings.Contains(sql, seq) {
			return searcherr.InvalidArgument("sql fragment contains a disallowed sequence").
				WithDetail("fragment", sql).
				WithDetail("sequence", seq)
		}
	}
	return nil
}
