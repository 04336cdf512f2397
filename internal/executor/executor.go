// Package executor implements the Hybrid Executor (spec.md §4.6): the
// boundary between a compiled query.Plan and the store. It runs the
// lexical MATCH query (and, when the fallback heuristic calls for it,
// the trigram MATCH query), merges the two via internal/hybrid,
// applies skip/take, and hydrates hits with snippets.
//
// The connection handling (single modernc.org/sqlite pool, prepared
// statement + row scanning shape) is grounded in the teacher's
// internal/store/sqlite_bm25.go Search method; the oversample/merge
// logic is new, built from spec.md §4.6.
package executor

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/astraidlabs/veriado-searchcore/internal/hybrid"
	"github.com/astraidlabs/veriado-searchcore/internal/query"
	"github.com/astraidlabs/veriado-searchcore/internal/schema"
	"github.com/astraidlabs/veriado-searchcore/internal/searcherr"
)

// weightedFields is the fixed column order the FTS5 bm25() auxiliary
// function expects its per-column weight arguments in, matching the
// column order the schema manager declared the FTS table with.
var weightedFields = []string{"title", "author", "mime", "metadata_text", "metadata"}

// Hit is one hydrated result row.
type Hit struct {
	FileID           string
	Rank             float64
	BM25Score        float64
	CustomSimilarity *float64
	Title            string
	Author           string
	Mime             string
	MetadataText     string
	Snippet          string
	InBothSources    bool
}

// Params bounds the result window.
type Params struct {
	Skip int
	Take int
}

// Executor runs a compiled plan against the document mirror table and
// its companion trigram table.
type Executor struct {
	db *sql.DB
}

// New returns an Executor for db. db's schema is assumed to already
// be Valid (the caller is expected to have run schema.Manager.Enforce
// and checked schema.State.AllowsQuery before calling Execute).
func New(db *sql.DB) *Executor {
	return &Executor{db: db}
}

// Execute runs plan's lexical MATCH query, optionally the trigram
// fallback query (when runTrigram is true, decided by
// internal/policy against the lexical outcome or plan.RequiresTrigramFallback
// up front), merges them per the scoring plan's merge mode, and
// returns at most params.Take hits starting at params.Skip.
func (e *Executor) Execute(ctx context.Context, plan *query.Plan, runTrigram bool, params Params) ([]*Hit, error) {
	take := params.Take
	if take <= 0 {
		take = 20
	}
	oversample := take
	if runTrigram && plan.Scoring.OversampleMultiplier > 1 {
		oversample = take * plan.Scoring.OversampleMultiplier
	}

	var lexical []hybrid.LexicalResult
	var lexicalHits map[string]*Hit
	var trigramResults []hybrid.TrigramResult

	needsTrigram := (runTrigram || plan.RequiresTrigramFallback) && plan.TrigramExpr != ""

	if needsTrigram && plan.RequiresTrigramFallback {
		// The plan already knows up front it needs both sources (no
		// lexical outcome to wait on first), so run them concurrently
		// under a cancellable errgroup.Group: either failing aborts
		// the other via ctx, matching the teacher's use of errgroup
		// for its own fan-out store calls.
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			if plan.MatchExpr == "" {
				return nil
			}
			var err error
			lexical, lexicalHits, err = e.runLexical(gctx, plan, oversample)
			return err
		})
		g.Go(func() error {
			var err error
			trigramResults, err = e.runTrigram(gctx, plan.TrigramExpr, oversample)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return e.finalize(lexical, trigramResults, lexicalHits, nil, plan, params)
	}

	if plan.MatchExpr != "" {
		var err error
		lexical, lexicalHits, err = e.runLexical(ctx, plan, oversample)
		if err != nil {
			return nil, err
		}
	}

	if !needsTrigram {
		return e.finalize(lexical, nil, lexicalHits, nil, plan, params)
	}

	var err error
	trigramResults, err = e.runTrigram(ctx, plan.TrigramExpr, oversample)
	if err != nil {
		return nil, err
	}

	return e.finalize(lexical, trigramResults, lexicalHits, nil, plan, params)
}

func (e *Executor) runLexical(ctx context.Context, plan *query.Plan, limit int) ([]hybrid.LexicalResult, map[string]*Hit, error) {
	rankExpr, err := e.rankExpression(plan)
	if err != nil {
		return nil, nil, err
	}

	// The mirror table is aliased "f" (for "file": a row is a file's
	// indexed search-relevant projection), matching the alias
	// internal/query.Builder.Range qualifies its range columns with
	// (spec.md §8 scenario 2: "f.modified_utc").
	var b strings.Builder
	fmt.Fprintf(&b, `SELECT hex(f.file_id), %s AS rank_value, bm25(%s`, rankExpr, schema.FTSTableName)
	for _, fld := range weightedFields {
		fmt.Fprintf(&b, ", %f", plan.Scoring.FieldWeights[fld])
	}
	b.WriteString(`) AS bm25_score, f.title, f.author, f.mime, f.metadata_text`)
	if plan.Scoring.CustomSimilaritySQL != "" {
		fmt.Fprintf(&b, ", (%s) AS custom_similarity", plan.Scoring.CustomSimilaritySQL)
	}
	fmt.Fprintf(&b, " FROM %s JOIN %s f ON f.rowid = %s.rowid WHERE %s MATCH ?",
		schema.FTSTableName, schema.DocumentTableName, schema.FTSTableName, schema.FTSTableName)

	args := []any{plan.MatchExpr}
	for _, wc := range plan.WhereClauses {
		b.WriteString(" AND ")
		b.WriteString(rebindClause(wc, len(args)))
	}
	for _, p := range plan.Parameters {
		args = append(args, p.Value)
	}

	direction := "ASC"
	if plan.Scoring.HigherIsBetter {
		direction = "DESC"
	}
	fmt.Fprintf(&b, " ORDER BY rank_value %s LIMIT ?", direction)
	args = append(args, limit)

	rows, err := e.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, nil, searcherr.StoreError("lexical query failed", err)
	}
	defer rows.Close()

	var lexical []hybrid.LexicalResult
	hits := make(map[string]*Hit)
	for rows.Next() {
		hit := &Hit{}
		var rank, bm25Score float64
		var custom sql.NullFloat64
		scanArgs := []any{&hit.FileID, &rank, &bm25Score, &hit.Title, &hit.Author, &hit.Mime, &hit.MetadataText}
		if plan.Scoring.CustomSimilaritySQL != "" {
			scanArgs = append(scanArgs, &custom)
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, nil, searcherr.StoreError("failed to scan lexical row", err)
		}
		if custom.Valid {
			hit.CustomSimilarity = &custom.Float64
		}
		hit.Rank = rank
		hit.BM25Score = bm25Score
		mergeScore := rank
		if !plan.Scoring.HigherIsBetter {
			// rank is cost-like here (bm25-derived, more negative is
			// better); hybrid.Merge expects a benefit-like score like
			// the trigram side already provides, so flip its sign.
			mergeScore = -rank
		}
		lexical = append(lexical, hybrid.LexicalResult{DocumentID: hit.FileID, Score: mergeScore})
		hits[hit.FileID] = hit
	}
	if err := rows.Err(); err != nil {
		return nil, nil, searcherr.StoreError("lexical row iteration failed", err)
	}
	return lexical, hits, nil
}

func (e *Executor) runTrigram(ctx context.Context, trigramExpr string, limit int) ([]hybrid.TrigramResult, error) {
	stmt := fmt.Sprintf(
		`SELECT hex(m.file_id), bm25(%s) AS score FROM %s t
		 JOIN %s m ON m.trigram_rowid = t.rowid
		 WHERE t.trigrams MATCH ? ORDER BY score LIMIT ?`,
		schema.TrigramTableName, schema.TrigramTableName, schema.TrigramMapTableName)

	rows, err := e.db.QueryContext(ctx, stmt, trigramExpr, limit)
	if err != nil {
		return nil, searcherr.StoreError("trigram query failed", err)
	}
	defer rows.Close()

	var results []hybrid.TrigramResult
	for rows.Next() {
		var fileID string
		var score float64
		if err := rows.Scan(&fileID, &score); err != nil {
			return nil, searcherr.StoreError("failed to scan trigram row", err)
		}
		results = append(results, hybrid.TrigramResult{DocumentID: fileID, Score: -score})
	}
	if err := rows.Err(); err != nil {
		return nil, searcherr.StoreError("trigram row iteration failed", err)
	}
	return results, nil
}

// rankExpression chooses the SQL rank expression per spec.md §4.6
// step 2: custom_rank_expr, then the TF-IDF alternative, then plain
// bm25() (already weighted via the bm25() call's own arguments, so
// the default rank expression is just a reference to it).
func (e *Executor) rankExpression(plan *query.Plan) (string, error) {
	scorer := plan.Scoring
	switch {
	case scorer.CustomRankExpr != "":
		return fmt.Sprintf("(%s) * %f", scorer.CustomRankExpr, scorer.ScoreMultiplier), nil
	case scorer.UseTFIDFAlternative:
		weighted := bm25CallExpr(scorer.FieldWeights)
		return fmt.Sprintf("(1.0 / (%f + %s)) * %f", scorer.TFIDFDamping, weighted, scorer.ScoreMultiplier), nil
	default:
		weighted := bm25CallExpr(scorer.FieldWeights)
		return fmt.Sprintf("%s * %f", weighted, scorer.ScoreMultiplier), nil
	}
}

func bm25CallExpr(weights map[string]float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "bm25(%s", schema.FTSTableName)
	for _, f := range weightedFields {
		fmt.Fprintf(&b, ", %f", weights[f])
	}
	b.WriteString(")")
	return b.String()
}

// rebindClause rewrites a WHERE fragment's "$pN" placeholder into the
// positional "?" the database/sql driver expects, given the number of
// positional arguments already bound ahead of it. The clause names
// are produced by query.Builder.Range and always take the form
// "column OP $pN"; only the trailing placeholder needs rewriting.
func rebindClause(clause string, _ int) string {
	if idx := strings.IndexByte(clause, '$'); idx >= 0 {
		return clause[:idx] + "?"
	}
	return clause
}

// finalize merges lexical and trigram results (if any), applies
// skip/take, and hydrates the merged rows from whichever source saw
// them, preferring the lexical row's richer projection.
func (e *Executor) finalize(
	lexical []hybrid.LexicalResult,
	trigramResults []hybrid.TrigramResult,
	lexicalHits map[string]*Hit,
	trigramHits map[string]*Hit,
	plan *query.Plan,
	params Params,
) ([]*Hit, error) {
	merged := hybrid.Merge(lexical, trigramResults, hybrid.MergeParams{
		Mode:                plan.Scoring.MergeMode,
		LuceneWeight:        plan.Scoring.LuceneWeight,
		DefaultTrigramScale: plan.Scoring.DefaultTrigramScale,
		TrigramFloor:        plan.Scoring.TrigramFloor,
	})

	take := params.Take
	if take <= 0 {
		take = 20
	}

	var out []*Hit
	for i, m := range merged {
		if i < params.Skip {
			continue
		}
		if len(out) >= take {
			break
		}
		hit, ok := lexicalHits[m.DocumentID]
		if !ok {
			hit = &Hit{FileID: m.DocumentID}
		}
		hit.Rank = m.CombinedScore
		hit.InBothSources = m.InBothSources
		hit.Snippet = buildSnippet(hit.Title, hit.MetadataText)
		out = append(out, hit)
	}
	return out, nil
}

// buildSnippet assembles a crude headline from the title and
// metadata text fields (spec.md §4.6 step 5: "hydrate with snippets
// using the store's snippet/headline equivalent on title +
// metadata_text"). A real snippet/headline SQL function is a driver
// extension this module doesn't depend on; this is a plain
// best-effort substitute built from whichever of the two fields the
// hit carries. It is empty when both are empty, as for a hit that only
// the trigram query returned.
func buildSnippet(title, metadataText string) string {
	const maxLen = 160
	text := strings.TrimSpace(title)
	if metadataText != "" {
		if text != "" {
			text += " — "
		}
		text += strings.TrimSpace(metadataText)
	}
	if len(text) > maxLen {
		return text[:maxLen] + "…"
	}
	return text
}
