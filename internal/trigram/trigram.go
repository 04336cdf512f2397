// Package trigram builds the fuzzy/wildcard fallback index: sorted,
// deduplicated 3-character windows over normalized text, and the
// MATCH expressions used to query them.
package trigram

import (
	"sort"
	"strings"

	"github.com/astraidlabs/veriado-searchcore/internal/normalize"
)

// MaxTokens caps the number of trigram entries produced for a single
// piece of text, preventing pathological inputs from blowing up the
// index. Collection stops as soon as the cap is reached; the returned
// set is still sorted and deduplicated up to that point.
const MaxTokens = 2048

// reservedOperators must be quoted if they appear as a bare trigram
// token, since the MATCH grammar treats them as boolean operators.
var reservedOperators = map[string]struct{}{
	"AND": {},
	"OR":  {},
	"NOT": {},
}

// Build returns the sorted, deduplicated set of 3-grams for text.
// Text is normalized first. Tokens of length <= 3 are kept whole;
// longer tokens contribute every contiguous 3-rune window.
func Build(text string) []string {
	tokens := normalize.Tokens(text)
	if len(tokens) == 0 {
		return nil
	}

	set := make(map[string]struct{})
	for _, tok := range tokens {
		for _, g := range windowsOf(tok) {
			if _, exists := set[g]; exists {
				continue
			}
			set[g] = struct{}{}
			if len(set) >= MaxTokens {
				return sortedKeys(set)
			}
		}
	}
	return sortedKeys(set)
}

// windowsOf returns the trigram windows for a single normalized token.
func windowsOf(token string) []string {
	runes := []rune(token)
	if len(runes) <= 3 {
		return []string{token}
	}
	out := make([]string, 0, len(runes)-2)
	for i := 0; i+3 <= len(runes); i++ {
		out = append(out, string(runes[i:i+3]))
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// escape wraps a trigram literal in double quotes if it equals a
// reserved MATCH operator or contains whitespace, doubling any
// embedded quote characters so the literal round-trips through the
// MATCH grammar.
func escape(token string) string {
	_, reserved := reservedOperators[strings.ToUpper(token)]
	needsQuote := reserved || strings.ContainsAny(token, " \t\"")
	if !needsQuote {
		return token
	}
	escaped := strings.ReplaceAll(token, `"`, `""`)
	return `"` + escaped + `"`
}

// BuildMatch builds a MATCH expression over the trigram column from
// text: generate the trigram set, escape each token, and join with
// " AND " (requireAll) or " OR ". Returns "" if text yields no
// trigrams.
func BuildMatch(text string, requireAll bool) string {
	grams := Build(text)
	return joinGrams(grams, requireAll)
}

func joinGrams(grams []string, requireAll bool) string {
	if len(grams) == 0 {
		return ""
	}
	joiner := " OR "
	if requireAll {
		joiner = " AND "
	}
	escaped := make([]string, len(grams))
	for i, g := range grams {
		escaped[i] = escape(g)
	}
	return strings.Join(escaped, joiner)
}

// BuildWildcardMatch builds a trigram MATCH expression for a wildcard
// pattern containing '*'/'?'. The pattern is split on those
// characters; segments shorter than 2 runes (which cannot contribute
// a reliable trigram) are dropped. Each remaining segment contributes
// its own AND-joined trigram sub-expression (segments are themselves
// normalized text, so multi-token segments still require all of their
// grams); the segment sub-expressions are then OR-combined, after
// deduplicating identical sub-expressions by raw string equality and
// never wrapping a lone survivor in redundant parentheses.
func BuildWildcardMatch(pattern string) string {
	segments := splitOnWildcards(pattern)

	var subExprs []string
	seen := make(map[string]struct{})
	for _, seg := range segments {
		normalized := normalize.Text(seg)
		if len([]rune(normalized)) < 2 {
			continue
		}
		sub := BuildMatch(normalized, true)
		if sub == "" {
			continue
		}
		if _, dup := seen[sub]; dup {
			continue
		}
		seen[sub] = struct{}{}
		subExprs = append(subExprs, sub)
	}

	if len(subExprs) == 0 {
		return ""
	}
	if len(subExprs) == 1 {
		return subExprs[0]
	}

	wrapped := make([]string, len(subExprs))
	for i, s := range subExprs {
		wrapped[i] = "(" + s + ")"
	}
	return strings.Join(wrapped, " OR ")
}

// splitOnWildcards splits a raw wildcard pattern on '*' and '?',
// discarding empty segments.
func splitOnWildcards(pattern string) []string {
	var segments []string
	var current strings.Builder
	for _, r := range pattern {
		if r == '*' || r == '?' {
			if current.Len() > 0 {
				segments = append(segments, current.String())
				current.Reset()
			}
			continue
		}
		current.WriteRune(r)
	}
	if current.Len() > 0 {
		segments = append(segments, current.String())
	}
	return segments
}
