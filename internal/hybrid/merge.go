// Package hybrid implements the merge step of the Hybrid Executor
// (spec.md §4.6): given the lexical and trigram result sets that
// internal/executor fetched, it combines them into one ranked list.
// Running the queries themselves is internal/executor's job.
//
// The merge step is grounded in the teacher's RRF fusion
// (internal/search/fusion.go): a map keyed by document id accumulates
// per-source contributions, then a deterministic sort with explicit
// tie-breaks produces the final order. Unlike the teacher's
// reciprocal-rank fusion, the merge here combines normalized lexical
// and trigram *scores* directly, per merge_mode, because spec.md §4.2
// fixes merge_mode to one of max/sum/weighted rather than RRF.
package hybrid

import "sort"

// MergeMode selects how lexical and trigram scores combine.
type MergeMode string

const (
	MergeModeMax      MergeMode = "max"
	MergeModeSum      MergeMode = "sum"
	MergeModeWeighted MergeMode = "weighted"
)

// LexicalResult is one row from the lexical (MATCH) query.
type LexicalResult struct {
	DocumentID   string
	Score        float64
	MatchedTerms []string
}

// TrigramResult is one row from the trigram fallback query.
type TrigramResult struct {
	DocumentID string
	Score      float64
}

// MergeParams carries the scoring-plan fields the merge needs
// (spec.md §4.2: merge_mode, lucene_weight, default_trigram_scale,
// trigram_floor). Oversampling happens before the merge, in
// internal/executor.
type MergeParams struct {
	Mode                MergeMode
	LuceneWeight        float64
	DefaultTrigramScale float64
	TrigramFloor        float64
}

// MergedResult is one row of the final, ranked hybrid result set.
type MergedResult struct {
	DocumentID        string
	CombinedScore     float64
	LexicalScore      float64
	LexicalNormalized float64
	TrigramScore      float64
	TrigramNormalized float64
	InBothSources     bool
	MatchedTerms      []string
}

// Merge combines lexical and trigram result sets per spec.md §4.6
// step 4. Either slice may be empty — a trigram-only or lexical-only
// call still normalizes and returns its single source.
func Merge(lexical []LexicalResult, trigram []TrigramResult, params MergeParams) []*MergedResult {
	if len(lexical) == 0 && len(trigram) == 0 {
		return []*MergedResult{}
	}

	lexicalMax := maxLexicalScore(lexical)
	trigramMax := maxTrigramScore(trigram)

	rows := make(map[string]*MergedResult, len(lexical)+len(trigram))

	for _, r := range lexical {
		row := getOrCreate(rows, r.DocumentID)
		row.LexicalScore = r.Score
		row.MatchedTerms = r.MatchedTerms
		row.LexicalNormalized = normalize(r.Score, lexicalMax)
	}

	for _, r := range trigram {
		row := getOrCreate(rows, r.DocumentID)
		if row.LexicalScore != 0 || row.LexicalNormalized != 0 {
			row.InBothSources = true
		}
		row.TrigramScore = r.Score
		row.TrigramNormalized = normalize(r.Score, trigramMax)
	}

	weight := params.LuceneWeight
	for _, row := range rows {
		row.TrigramNormalized = adjustTrigram(row.TrigramNormalized, params)
		row.CombinedScore = combine(row.LexicalNormalized, row.TrigramNormalized, weight, params)
	}

	return toSortedSlice(rows)
}

// adjustTrigram applies default_trigram_scale and trigram_floor ahead
// of combination, for the modes spec.md §4.6 names them in (max and
// sum). weighted combines the raw normalized trigram score.
func adjustTrigram(trigramNormalized float64, params MergeParams) float64 {
	if params.Mode != MergeModeMax && params.Mode != MergeModeSum {
		return trigramNormalized
	}
	if trigramNormalized == 0 {
		return 0
	}
	scaled := trigramNormalized * params.DefaultTrigramScale
	if scaled < params.TrigramFloor {
		return params.TrigramFloor
	}
	return scaled
}

func combine(lexicalNormalized, adjustedTrigram, luceneWeight float64, params MergeParams) float64 {
	lexicalTerm := lexicalNormalized * luceneWeight
	trigramTerm := adjustedTrigram * (1 - luceneWeight)

	switch params.Mode {
	case MergeModeMax:
		if lexicalTerm > trigramTerm {
			return lexicalTerm
		}
		return trigramTerm
	default: // sum, weighted
		return lexicalTerm + trigramTerm
	}
}

func getOrCreate(m map[string]*MergedResult, id string) *MergedResult {
	if r, ok := m[id]; ok {
		return r
	}
	r := &MergedResult{DocumentID: id}
	m[id] = r
	return r
}

func maxLexicalScore(results []LexicalResult) float64 {
	max := 0.0
	for _, r := range results {
		if r.Score > max {
			max = r.Score
		}
	}
	return max
}

func maxTrigramScore(results []TrigramResult) float64 {
	max := 0.0
	for _, r := range results {
		if r.Score > max {
			max = r.Score
		}
	}
	return max
}

func normalize(score, max float64) float64 {
	if max == 0 {
		return 0
	}
	return score / max
}

// toSortedSlice sorts by: CombinedScore desc -> InBothSources true
// first -> LexicalScore desc -> DocumentID asc (deterministic), the
// same tie-break order the teacher's RRF fusion uses.
func toSortedSlice(m map[string]*MergedResult) []*MergedResult {
	results := make([]*MergedResult, 0, len(m))
	for _, r := range m {
		results = append(results, r)
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.CombinedScore != b.CombinedScore {
			return a.CombinedScore > b.CombinedScore
		}
		if a.InBothSources != b.InBothSources {
			return a.InBothSources
		}
		if a.LexicalScore != b.LexicalScore {
			return a.LexicalScore > b.LexicalScore
		}
		return a.DocumentID < b.DocumentID
	})

	return results
}
