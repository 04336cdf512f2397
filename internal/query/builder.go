package query

import (
	"fmt"
	"strings"

	"github.com/astraidlabs/veriado-searchcore/internal/normalize"
	"github.com/astraidlabs/veriado-searchcore/internal/scoring"
	"github.com/astraidlabs/veriado-searchcore/internal/searcherr"
	"github.com/astraidlabs/veriado-searchcore/internal/synonym"
	"github.com/astraidlabs/veriado-searchcore/internal/trigram"
)

// fieldMap is the fixed, case-insensitive field lookup of spec.md §3:
// "content" and "any" mean no field restriction; anything not listed
// passes through lower-cased rather than being rejected.
var fieldMap = map[string]string{
	"title":         "title",
	"author":        "author",
	"mime":          "mime",
	"metadata_text": "metadata_text",
	"metadata":      "metadata",
	"content":       "",
	"any":           "",
}

// documentAlias is the table alias the executor's lexical SELECT gives
// the document mirror table (spec.md §8 scenario 2's "f.modified_utc"),
// short for "file": a row in the mirror table is a file's indexed
// search-relevant projection.
const documentAlias = "f"

// rangeColumns maps the short field names range() accepts to their
// real schema column, qualified with documentAlias (spec.md §4.3,
// §8 scenario 2). modified_utc/created_utc are accepted both under
// their short alias and their real name.
//
// size/size_bytes are deliberately not in this map: spec.md's own
// document mirror columns (§3 "Schema snapshot") never include a size
// column, and the size-bearing "files" table spec.md §4.6 step 1
// mentions belongs to the host document-management application, not
// to this module's owned schema (internal/schema creates only the FTS,
// mirror, and trigram tables) — see DESIGN.md.
var rangeColumns = map[string]string{
	"modified":     documentAlias + ".modified_utc",
	"modified_utc": documentAlias + ".modified_utc",
	"created":      documentAlias + ".created_utc",
	"created_utc":  documentAlias + ".created_utc",
}

func normalizeField(field string) string {
	key := strings.ToLower(strings.TrimSpace(field))
	if key == "" {
		return ""
	}
	if mapped, ok := fieldMap[key]; ok {
		return mapped
	}
	return key
}

// Builder fluently assembles a Query AST and the accumulators (range
// filters, scoring overrides) that build() folds into a Plan. A
// Builder is owned by a single caller; after Build returns, its
// accumulators reset so the instance can be reused for the next
// query (spec.md §3 "Lifecycles").
type Builder struct {
	synonyms *synonym.Provider
	language string
	scoring  *scoring.Plan

	whereClauses []string
	parameters   []Parameter
	paramSeq     int
}

// NewBuilder returns a Builder seeded with scoring defaults and a
// synonym provider. language selects the synonym dictionary's
// language tag (spec.md §4.4); pass "" to use the provider's
// language-agnostic entries.
func NewBuilder(scoringPlan *scoring.Plan, synonyms *synonym.Provider, language string) *Builder {
	return &Builder{
		synonyms: synonyms,
		language: language,
		scoring:  scoringPlan,
	}
}

// Term builds a TermNode from the first normalized token of text,
// restricted to field if non-empty. Returns nil if text normalizes to
// nothing (spec.md §4.3: "null means no valid token").
func (b *Builder) Term(field, text string) Node {
	token := normalize.ExtractSingleToken(text)
	if token == "" {
		return nil
	}
	return &TermNode{Field: normalizeField(field), Value: token}
}

// Phrase builds a PhraseNode from the normalized form of the entire
// text.
func (b *Builder) Phrase(field, text string) Node {
	value := normalize.Text(text)
	if value == "" {
		return nil
	}
	return &PhraseNode{Field: normalizeField(field), Value: value}
}

// Proximity builds a ProximityNode for two normalized tokens within
// distance words of each other. distance is clamped to at least 1
// (spec.md §7: "negative distance coerced to 1").
func (b *Builder) Proximity(field, first, second string, distance int) Node {
	a := normalize.ExtractSingleToken(first)
	c := normalize.ExtractSingleToken(second)
	if a == "" || c == "" {
		return nil
	}
	if distance < 1 {
		distance = 1
	}
	return &ProximityNode{Field: normalizeField(field), First: a, Second: c, Distance: distance}
}

// Prefix builds a PrefixNode from the first normalized token of text
// (any trailing '*' is stripped before normalization and re-appended
// after).
func (b *Builder) Prefix(field, text string) Node {
	trimmed := strings.TrimSuffix(text, "*")
	token := normalize.ExtractSingleToken(trimmed)
	if token == "" {
		return nil
	}
	return &PrefixNode{Field: normalizeField(field), Value: token}
}

// Wildcard builds a WildcardNode for a pattern containing '*'/'?'.
// The pattern itself is not normalized (case-folding a wildcard
// pattern could change which glyphs a segment matches); only its
// trigram fallback, computed at emission time, is normalized
// per-segment.
func (b *Builder) Wildcard(field, pattern string) Node {
	if pattern == "" {
		return nil
	}
	return &WildcardNode{Field: normalizeField(field), Pattern: pattern}
}

// Fuzzy builds a TermNode carrying a trigram fallback expression
// alongside its exact-match value, for explicit fuzzy search
// (spec.md §4.3). requireAll selects AND- vs OR-joining the term's
// trigrams.
func (b *Builder) Fuzzy(field, text string, requireAll bool) Node {
	token := normalize.ExtractSingleToken(text)
	if token == "" {
		return nil
	}
	return &TermNode{
		Field:               normalizeField(field),
		Value:               token,
		TrigramExpr:         trigram.BuildMatch(token, requireAll),
		RequiresAllTrigrams: requireAll,
	}
}

// And combines nodes with AND, dropping nils, flattening nested
// BooleanNode{Op: And} children, and unwrapping a single survivor
// (spec.md §8 "AST associativity", "Null absorption").
func (b *Builder) And(nodes ...Node) Node {
	return combine(OpAnd, nodes)
}

// Or combines nodes with OR under the same rules as And.
func (b *Builder) Or(nodes ...Node) Node {
	return combine(OpOr, nodes)
}

func combine(op BoolOp, nodes []Node) Node {
	var children []Node
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if bn, ok := n.(*BooleanNode); ok && bn.Op == op {
			children = append(children, bn.Children...)
			continue
		}
		children = append(children, n)
	}
	switch len(children) {
	case 0:
		return nil
	case 1:
		return children[0]
	default:
		return &BooleanNode{Op: op, Children: children}
	}
}

// Not wraps node in negation. not(nil) absorbs to nil (spec.md §8).
func (b *Builder) Not(node Node) Node {
	if node == nil {
		return nil
	}
	return &NotNode{Operand: node}
}

// Range records a SQL range filter over field, binding from/to as
// parameters against the real, alias-qualified schema column (spec.md
// §8 scenario 2). Unknown fields are silently ignored. from and to may
// be nil to leave that bound open.
func (b *Builder) Range(field string, from, to any, includeLower, includeUpper bool) {
	key := strings.ToLower(strings.TrimSpace(field))
	column, ok := rangeColumns[key]
	if !ok {
		return
	}
	typeHint := "time"
	if from != nil {
		op := ">="
		if !includeLower {
			op = ">"
		}
		b.addWhere(column, op, from, typeHint)
	}
	if to != nil {
		op := "<="
		if !includeUpper {
			op = "<"
		}
		b.addWhere(column, op, to, typeHint)
	}
}

func (b *Builder) addWhere(column, op string, value any, typeHint string) {
	name := fmt.Sprintf("p%d", b.paramSeq)
	b.paramSeq++
	b.whereClauses = append(b.whereClauses, fmt.Sprintf("%s %s $%s", column, op, name))
	b.parameters = append(b.parameters, Parameter{Name: name, Value: value, TypeHint: typeHint})
}

// Boost scales field's weight in the live scoring plan.
func (b *Builder) Boost(field string, factor float64) error {
	return b.scoring.Boost(field, factor)
}

// UseTFIDFRanking switches the live scoring plan to the TF-IDF
// alternative.
func (b *Builder) UseTFIDFRanking(damping float64) {
	b.scoring.UseTFIDFRanking(damping)
}

// UseRankExpression installs a validated custom rank SQL fragment.
func (b *Builder) UseRankExpression(sql string, higherIsBetter bool) error {
	return b.scoring.UseRankExpression(sql, higherIsBetter)
}

// UseCustomSimilaritySQL installs a validated custom similarity SQL
// fragment.
func (b *Builder) UseCustomSimilaritySQL(sql string) error {
	return b.scoring.UseCustomSimilaritySQL(sql)
}

// UseCustomSimilarity installs a code-side similarity function.
func (b *Builder) UseCustomSimilarity(fn scoring.SimilarityFn) {
	b.scoring.UseCustomSimilarity(fn)
}

// Build walks root to emit the MATCH and trigram expressions, folds
// in the accumulated WHERE clauses/parameters and scoring plan, and
// returns the immutable Plan. rawText, if provided, is attached as
// diagnostic metadata (spec.md §7). Returns InvalidQuery if both the
// MATCH and trigram expressions are empty.
//
// Build resets the builder's WHERE/parameter accumulators so the
// instance can be reused; the scoring plan is not reset, since boosts
// and use_* overrides are meant to persist across builds on the same
// Builder (spec.md §4.8).
func (b *Builder) Build(root Node, rawText string) (*Plan, error) {
	matchExpr := emitMatch(root, b.synonyms, b.language)
	trigramExpr := emitTrigram(root)

	if matchExpr == "" && trigramExpr == "" {
		return nil, searcherr.InvalidQuery("query compiles to an empty match and an empty trigram expression")
	}

	plan := &Plan{
		MatchExpr:                  matchExpr,
		WhereClauses:               b.whereClauses,
		Parameters:                 b.parameters,
		Scoring:                    b.scoring.Clone(),
		RawQueryText:               rawText,
		TrigramExpr:                trigramExpr,
		RequiresTrigramFallback:    trigramExpr != "",
		RequiresTrigramForWildcard: containsWildcard(root),
		HasPrefix:                  containsPrefix(root),
		HasExplicitFuzzy:           containsExplicitFuzzy(root),
		HasHeuristicFuzzy:          containsHeuristicFuzzy(root),
	}

	b.whereClauses = nil
	b.parameters = nil
	b.paramSeq = 0

	return plan, nil
}

func containsWildcard(n Node) bool {
	return walkAny(n, func(n Node) bool {
		_, ok := n.(*WildcardNode)
		return ok
	})
}

func containsPrefix(n Node) bool {
	return walkAny(n, func(n Node) bool {
		_, ok := n.(*PrefixNode)
		return ok
	})
}

func containsExplicitFuzzy(n Node) bool {
	return walkAny(n, func(n Node) bool {
		t, ok := n.(*TermNode)
		return ok && t.TrigramExpr != "" && !t.IsHeuristicFuzzy
	})
}

func containsHeuristicFuzzy(n Node) bool {
	return walkAny(n, func(n Node) bool {
		t, ok := n.(*TermNode)
		return ok && t.IsHeuristicFuzzy
	})
}

// walkAny reports whether pred matches n or any of its descendants.
func walkAny(n Node, pred func(Node) bool) bool {
	if n == nil {
		return false
	}
	if pred(n) {
		return true
	}
	switch v := n.(type) {
	case *BooleanNode:
		for _, c := range v.Children {
			if walkAny(c, pred) {
				return true
			}
		}
	case *NotNode:
		return walkAny(v.Operand, pred)
	}
	return false
}
