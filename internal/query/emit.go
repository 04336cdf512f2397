package query

import (
	"fmt"
	"strings"

	"github.com/astraidlabs/veriado-searchcore/internal/synonym"
	"github.com/astraidlabs/veriado-searchcore/internal/trigram"
)

var reservedMatchOperators = map[string]struct{}{
	"AND": {},
	"OR":  {},
	"NOT": {},
}

// quoteMatchToken wraps tok in double quotes (escaping embedded
// quotes) if it contains whitespace or collides with a reserved MATCH
// operator.
func quoteMatchToken(tok string) string {
	_, reserved := reservedMatchOperators[strings.ToUpper(tok)]
	if !reserved && !strings.ContainsAny(tok, " \t\"") {
		return tok
	}
	return `"` + strings.ReplaceAll(tok, `"`, `""`) + `"`
}

func fieldPrefix(field string) string {
	if field == "" {
		return ""
	}
	return field + ":"
}

// emitMatch recursively renders the MATCH expression for n (spec.md
// §4.3 "Match emission"). synonyms/language drive term expansion;
// either may be nil/"" to disable expansion (falls back to the raw
// term).
func emitMatch(n Node, synonyms *synonym.Provider, language string) string {
	switch v := n.(type) {
	case nil:
		return ""
	case *TermNode:
		return emitTermMatch(v, synonyms, language)
	case *PhraseNode:
		return fieldPrefix(v.Field) + `"` + strings.ReplaceAll(v.Value, `"`, `""`) + `"`
	case *ProximityNode:
		inner := fmt.Sprintf(`"%s" NEAR/%d "%s"`,
			strings.ReplaceAll(v.First, `"`, `""`),
			v.Distance,
			strings.ReplaceAll(v.Second, `"`, `""`))
		if v.Field == "" {
			return inner
		}
		return v.Field + ":(" + inner + ")"
	case *PrefixNode:
		return fieldPrefix(v.Field) + v.Value + "*"
	case *WildcardNode:
		// Wildcards never enter the MATCH expression; they are
		// translated to a trigram sub-expression only (spec.md §4.3,
		// §6).
		return ""
	case *BooleanNode:
		return emitBooleanMatch(v, synonyms, language)
	case *NotNode:
		inner := emitMatch(v.Operand, synonyms, language)
		if inner == "" {
			return ""
		}
		return "NOT (" + inner + ")"
	default:
		return ""
	}
}

func emitTermMatch(t *TermNode, synonyms *synonym.Provider, language string) string {
	candidates := []string{t.Value}
	if synonyms != nil {
		if expanded := synonyms.Expand(language, t.Value); len(expanded) > 0 {
			candidates = expanded
		}
	}

	prefix := fieldPrefix(t.Field)
	if len(candidates) == 1 {
		return prefix + quoteMatchToken(candidates[0])
	}

	quoted := make([]string, len(candidates))
	for i, c := range candidates {
		quoted[i] = quoteMatchToken(c)
	}
	return prefix + "(" + strings.Join(quoted, " OR ") + ")"
}

func emitBooleanMatch(b *BooleanNode, synonyms *synonym.Provider, language string) string {
	joiner := " AND "
	if b.Op == OpOr {
		joiner = " OR "
	}

	var parts []string
	for _, c := range b.Children {
		part := emitMatch(c, synonyms, language)
		if part == "" {
			continue
		}
		parts = append(parts, part)
	}

	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return "(" + strings.Join(parts, joiner) + ")"
	}
}

// emitTrigram recursively renders the trigram fallback sub-expression
// for n, composing child contributions with the same operator as the
// MATCH tree (spec.md §4.3 "Trigram emission"). Proximity nodes never
// contribute, since the trigram index has no notion of word order.
func emitTrigram(n Node) string {
	switch v := n.(type) {
	case nil:
		return ""
	case *TermNode:
		if v.TrigramExpr != "" {
			return v.TrigramExpr
		}
		return trigram.BuildMatch(v.Value, false)
	case *PhraseNode:
		return trigram.BuildMatch(v.Value, true)
	case *ProximityNode:
		return ""
	case *PrefixNode:
		return trigram.BuildMatch(v.Value, true)
	case *WildcardNode:
		return trigram.BuildWildcardMatch(v.Pattern)
	case *BooleanNode:
		return emitBooleanTrigram(v)
	case *NotNode:
		inner := emitTrigram(v.Operand)
		if inner == "" {
			return ""
		}
		return "NOT (" + inner + ")"
	default:
		return ""
	}
}

func emitBooleanTrigram(b *BooleanNode) string {
	joiner := " AND "
	if b.Op == OpOr {
		joiner = " OR "
	}

	var parts []string
	for _, c := range b.Children {
		part := emitTrigram(c)
		if part == "" {
			continue
		}
		parts = append(parts, part)
	}

	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return "(" + strings.Join(parts, joiner) + ")"
	}
}
