// Package synonym implements the Synonym Provider: language+term
// lookup that expands a query term into an ordered, unique list of
// candidates (the original term always included), optionally cached
// with a TTL.
package synonym

import (
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// documentSynonyms maps document-search vocabulary to its common
// equivalents: filenames, document kinds, authorship, and the
// metadata terms a user typing a casual query would reach for instead
// of the field names the schema actually uses.
var documentSynonyms = map[string][]string{
	"doc":            {"document", "file"},
	"document":       {"doc", "file", "record"},
	"file":           {"document", "doc", "attachment"},
	"attachment":     {"file", "enclosure"},
	"report":         {"summary", "memo", "writeup"},
	"memo":           {"memorandum", "note", "report"},
	"memorandum":     {"memo", "note"},
	"invoice":        {"bill", "receipt", "statement"},
	"bill":           {"invoice", "statement"},
	"receipt":        {"invoice", "proof of purchase"},
	"contract":       {"agreement", "deal"},
	"agreement":      {"contract"},
	"letter":         {"correspondence", "note"},
	"correspondence": {"letter", "email"},
	"author":         {"writer", "creator", "owner"},
	"writer":         {"author"},
	"creator":        {"author", "owner"},
	"owner":          {"author", "creator"},
	"title":          {"subject", "name", "heading"},
	"subject":        {"title", "topic"},
	"heading":        {"title"},
	"summary":        {"abstract", "overview", "synopsis"},
	"abstract":       {"summary"},
	"overview":       {"summary"},
	"tag":            {"label", "keyword", "category"},
	"label":          {"tag"},
	"keyword":        {"tag", "term"},
	"category":       {"tag", "type", "classification"},
	"draft":          {"unfinished", "wip", "working"},
	"final":          {"approved", "signed", "published"},
	"approved":       {"final", "signed"},
	"signed":         {"approved", "executed"},
	"pdf":            {"portable document format"},
	"spreadsheet":    {"sheet", "workbook", "excel"},
	"sheet":          {"spreadsheet"},
	"presentation":   {"slides", "deck"},
	"slides":         {"presentation", "deck"},
	"image":          {"picture", "photo", "scan"},
	"picture":        {"image", "photo"},
	"scan":           {"image", "scanned document"},
}

// DefaultCacheSize is the number of (language, term) entries retained
// in the expansion cache.
const DefaultCacheSize = 512

// DefaultCacheTTL is how long an expansion is trusted before it is
// recomputed, per spec.md §4.4's optional TTL cache.
const DefaultCacheTTL = 10 * time.Minute

// Provider expands a (language, term) pair into an ordered, unique
// list of candidates, optionally backed by a TTL cache.
type Provider struct {
	dictionary map[string][]string
	cache      *lru.LRU[string, []string]
}

// Option configures a Provider.
type Option func(*Provider)

// WithDictionary replaces the default dictionary.
func WithDictionary(dict map[string][]string) Option {
	return func(p *Provider) {
		p.dictionary = dict
	}
}

// WithCache installs a TTL cache of the given size and duration. A
// size or TTL of zero disables caching.
func WithCache(size int, ttl time.Duration) Option {
	return func(p *Provider) {
		if size <= 0 || ttl <= 0 {
			p.cache = nil
			return
		}
		p.cache = lru.NewLRU[string, []string](size, nil, ttl)
	}
}

// NewProvider returns a Provider seeded with the default document
// vocabulary and a TTL cache of DefaultCacheSize/DefaultCacheTTL.
func NewProvider(opts ...Option) *Provider {
	p := &Provider{
		dictionary: documentSynonyms,
		cache:      lru.NewLRU[string, []string](DefaultCacheSize, nil, DefaultCacheTTL),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Expand returns the ordered, unique expansion of term for language,
// always including the original term first. Empty input yields an
// empty list.
func (p *Provider) Expand(language, term string) []string {
	if term == "" {
		return nil
	}

	key := language + "\x00" + term
	if p.cache != nil {
		if cached, ok := p.cache.Get(key); ok {
			return cached
		}
	}

	result := p.expand(term)

	if p.cache != nil {
		p.cache.Add(key, result)
	}
	return result
}

func (p *Provider) expand(term string) []string {
	seen := make(map[string]bool, 4)
	result := make([]string, 0, 4)

	add := func(s string) {
		lower := strings.ToLower(s)
		if !seen[lower] {
			seen[lower] = true
			result = append(result, s)
		}
	}

	add(term)

	lower := strings.ToLower(term)
	if syns, ok := p.dictionary[lower]; ok {
		for _, s := range syns {
			add(s)
		}
	}

	return result
}
