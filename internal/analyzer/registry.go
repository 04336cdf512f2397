// Package analyzer holds named analyzer profiles: the stemming,
// number-handling, stopword, and filename-splitting knobs that
// describe how a field's text should be prepared before indexing.
//
// The search core does not implement its own tokenizer for the
// inverted index (that is delegated to the database's FTS engine);
// a Profile only records which options should be requested when the
// corresponding index/column is created. The synonym provider does
// not consult these profiles.
package analyzer

import "strings"

// Profile describes one named analyzer configuration.
type Profile struct {
	Name             string
	EnableStemming   bool
	KeepNumbers      bool
	Stopwords        map[string]struct{}
	SplitFilenames   bool
	CustomTokenizer  string   // optional; empty means "use the default FTS tokenizer"
	CustomFilterIDs  []string // optional
}

// IsStopword reports whether word (case-insensitively) is in the
// profile's stopword set.
func (p Profile) IsStopword(word string) bool {
	if len(p.Stopwords) == 0 {
		return false
	}
	_, ok := p.Stopwords[strings.ToLower(word)]
	return ok
}

// Registry holds named analyzer profiles, keyed case-insensitively,
// plus a default-by-language lookup and a fallback default profile
// id. Registry is read-mostly: profiles are registered at startup and
// looked up concurrently thereafter; it is safe for concurrent reads
// once registration is complete, matching the single-writer,
// many-reader shape used elsewhere in the search core.
type Registry struct {
	profiles       map[string]Profile // keyed by lower-cased id
	byLanguage     map[string]string  // language tag -> profile id
	defaultProfile string
}

// NewRegistry creates an empty registry. Call Register to populate it
// and SetDefault to choose the fallback profile.
func NewRegistry() *Registry {
	return &Registry{
		profiles:   make(map[string]Profile),
		byLanguage: make(map[string]string),
	}
}

// Register adds or replaces a profile, keyed case-insensitively by
// its Name.
func (r *Registry) Register(p Profile) {
	r.profiles[strings.ToLower(p.Name)] = p
}

// SetDefault designates profileID as the fallback used when a lookup
// misses. profileID must already be registered; if it isn't, the
// registry keeps its previous default.
func (r *Registry) SetDefault(profileID string) {
	key := strings.ToLower(profileID)
	if _, ok := r.profiles[key]; !ok {
		return
	}
	r.defaultProfile = key
}

// SetLanguageDefault associates a language tag (e.g. "en", "fr") with
// a profile id, so Lookup can resolve "no profile requested, but this
// document's language is known" queries via LookupByLanguage.
func (r *Registry) SetLanguageDefault(language, profileID string) {
	r.byLanguage[strings.ToLower(language)] = strings.ToLower(profileID)
}

// Lookup returns the profile for id, falling back to the registry's
// default profile on a miss. The bool result reports whether id
// matched directly (false means the fallback was used, including
// when there is no default at all, in which case a zero Profile with
// Name "" is returned).
func (r *Registry) Lookup(id string) (Profile, bool) {
	key := strings.ToLower(id)
	if p, ok := r.profiles[key]; ok {
		return p, true
	}
	if r.defaultProfile != "" {
		if p, ok := r.profiles[r.defaultProfile]; ok {
			return p, false
		}
	}
	return Profile{}, false
}

// LookupByLanguage resolves the profile associated with a language
// tag, falling back to the registry default if the language has no
// explicit mapping.
func (r *Registry) LookupByLanguage(language string) (Profile, bool) {
	if id, ok := r.byLanguage[strings.ToLower(language)]; ok {
		return r.Lookup(id)
	}
	return r.Lookup(r.defaultProfile)
}

// DefaultProfiles returns a registry pre-populated with the two
// baseline profiles every deployment needs: a permissive "standard"
// profile and a conservative "exact" profile with no stemming and no
// stopword filtering, suited to identifiers and codes.
func DefaultProfiles() *Registry {
	r := NewRegistry()
	r.Register(Profile{
		Name:           "standard",
		EnableStemming: true,
		KeepNumbers:    true,
		Stopwords:      buildStopwordSet(defaultEnglishStopwords),
		SplitFilenames: true,
	})
	r.Register(Profile{
		Name:           "exact",
		EnableStemming: false,
		KeepNumbers:    true,
		Stopwords:      nil,
		SplitFilenames: false,
	})
	r.SetDefault("standard")
	r.SetLanguageDefault("en", "standard")
	return r
}

func buildStopwordSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = struct{}{}
	}
	return set
}

// defaultEnglishStopwords is a small, conservative list; the database
// engine's own tokenizer does not filter stopwords, so callers who
// want filtering apply this set themselves.
var defaultEnglishStopwords = []string{
	"a", "an", "and", "are", "as", "at", "be", "but", "by",
	"for", "if", "in", "into", "is", "it", "no", "not", "of",
	"on", "or", "such", "that", "the", "their", "then", "there",
	"these", "they", "this", "to", "was", "will", "with",
}
