// Package normalize canonicalizes free text for indexing and query matching.
//
// Normalization is the single source of truth for how the search core
// folds case, strips diacritics, and collapses whitespace before text
// reaches the trigram generator, the synonym provider, or the query
// builder. Every one of those callers must see the same canonical form
// for the same input, or lexical and trigram paths would silently
// diverge.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// diacriticStripper removes combining marks (category Mn) left behind
// by NFKD decomposition, e.g. turning "é" into "e´" into "e".
var diacriticStripper = transform.Chain(
	norm.NFKD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// wordChars are retained verbatim in the canonical form; everything
// else collapses to a single separating space.
func isWordChar(r rune) bool {
	switch r {
	case '_', '-', '.':
		return true
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Text lower-cases, strips diacritics, and collapses whitespace into a
// single-line canonical form. Retained word characters are letters,
// digits, and the three punctuation marks '_', '-', '.'; everything
// else (including punctuation that isn't in that set) is treated as
// whitespace and collapsed.
//
// Normalization is idempotent: Text(Text(s)) == Text(s) for all s.
func Text(text string) string {
	if text == "" {
		return ""
	}

	stripped, _, err := transform.String(diacriticStripper, text)
	if err != nil {
		// transform.String only fails on encoding errors from the
		// source reader, which cannot happen for an in-memory string;
		// fall back to the un-stripped input rather than lose data.
		stripped = text
	}

	var b strings.Builder
	b.Grow(len(stripped))
	pendingSpace := false
	wroteAny := false

	for _, r := range stripped {
		if isWordChar(r) {
			if pendingSpace && wroteAny {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(unicode.ToLower(r))
			wroteAny = true
			continue
		}
		if wroteAny {
			pendingSpace = true
		}
	}

	return b.String()
}

// ExtractSingleToken normalizes text and returns its first
// whitespace-separated token. Returns "" if normalization yields no
// tokens.
func ExtractSingleToken(text string) string {
	normalized := Text(text)
	if normalized == "" {
		return ""
	}
	if idx := strings.IndexByte(normalized, ' '); idx >= 0 {
		return normalized[:idx]
	}
	return normalized
}

// Tokens splits normalized text on single spaces. Returns nil for
// empty input.
func Tokens(text string) []string {
	normalized := Text(text)
	if normalized == "" {
		return nil
	}
	return strings.Split(normalized, " ")
}
