package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText_CaseFoldAndDiacritics(t *testing.T) {
	got := Text("Café René")
	assert.Equal(t, "cafe rene", got)
}

func TestText_RetainsWordPunctuation(t *testing.T) {
	got := Text("file_name-v2.final")
	assert.Equal(t, "file_name-v2.final", got)
}

func TestText_CollapsesOtherPunctuationToSpace(t *testing.T) {
	got := Text("Report, Q1! (final)")
	assert.Equal(t, "report q1 final", got)
}

func TestText_EmptyInput(t *testing.T) {
	assert.Equal(t, "", Text(""))
}

func TestText_TrimsLeadingTrailingWhitespace(t *testing.T) {
	assert.Equal(t, "hello world", Text("  hello   world  "))
}

func TestText_Idempotent(t *testing.T) {
	samples := []string{
		"Café René",
		"  Multiple   Spaces  ",
		"file_name-v2.final",
		"",
		"Already Normalized Text",
		"Ünïcödé Everywhere™ — now with em-dash",
	}
	for _, s := range samples {
		once := Text(s)
		twice := Text(once)
		assert.Equal(t, once, twice, "normalize(normalize(%q)) must equal normalize(%q)", s, s)
	}
}

func TestExtractSingleToken(t *testing.T) {
	require.Equal(t, "quarterly", ExtractSingleToken("Quarterly Earnings Report"))
	require.Equal(t, "", ExtractSingleToken("   "))
	require.Equal(t, "", ExtractSingleToken(""))
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"quarterly", "earnings", "report"}, Tokens("Quarterly Earnings Report"))
	assert.Nil(t, Tokens(""))
}
