package synonym

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand_EmptyTermReturnsEmptyList(t *testing.T) {
	p := NewProvider()
	assert.Empty(t, p.Expand("en", ""))
}

func TestExpand_AlwaysIncludesOriginalTermFirst(t *testing.T) {
	p := NewProvider()
	result := p.Expand("en", "invoice")
	require.NotEmpty(t, result)
	assert.Equal(t, "invoice", result[0])
}

func TestExpand_KnownTermReturnsOrderedUniqueList(t *testing.T) {
	p := NewProvider()
	result := p.Expand("en", "doc")
	assert.Equal(t, []string{"doc", "document", "file"}, result)
}

func TestExpand_UnknownTermReturnsOnlyOriginal(t *testing.T) {
	p := NewProvider()
	result := p.Expand("en", "zzznotaword")
	assert.Equal(t, []string{"zzznotaword"}, result)
}

func TestExpand_IsCaseInsensitiveForLookup(t *testing.T) {
	p := NewProvider()
	result := p.Expand("en", "DOC")
	assert.Equal(t, []string{"DOC", "document", "file"}, result)
}

func TestExpand_DeduplicatesCaseVariants(t *testing.T) {
	p := NewProvider(WithDictionary(map[string][]string{
		"report": {"Report", "summary"},
	}))
	result := p.Expand("en", "report")
	assert.Equal(t, []string{"report", "summary"}, result)
}

func TestExpand_CachesByLanguageAndTerm(t *testing.T) {
	calls := 0
	p := NewProvider(WithDictionary(map[string][]string{}))
	p.dictionary = countingDictionary(&calls)

	first := p.Expand("en", "report")
	p.dictionary = map[string][]string{} // a second lookup must come from the cache
	second := p.Expand("en", "report")

	assert.Equal(t, first, second)
}

func countingDictionary(calls *int) map[string][]string {
	*calls++
	return map[string][]string{"report": {"summary"}}
}

func TestWithCache_ZeroSizeDisablesCaching(t *testing.T) {
	p := NewProvider(WithCache(0, time.Minute))
	assert.Nil(t, p.cache)
}

func TestWithCache_DistinctLanguagesDoNotCollide(t *testing.T) {
	p := NewProvider()
	en := p.Expand("en", "report")
	fr := p.Expand("fr", "report")
	assert.Equal(t, en, fr) // same dictionary, but cached under distinct keys
	assert.Equal(t, 2, p.cache.Len())
}
