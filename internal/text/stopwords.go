package text

// Stopwords is a named, immutable table of normalized stopword forms. The
// id is part of any fingerprint that depends on filtering (spec.md §4.1).
type Stopwords struct {
	id    string
	words map[string]struct{}
}

// ID returns the stopword set's fingerprint-relevant identifier.
func (s Stopwords) ID() string { return s.id }

// Contains reports whether normalized is in the set.
func (s Stopwords) Contains(normalized string) bool {
	_, ok := s.words[normalized]
	return ok
}

// registry of named stopword sets, keyed by id.
var registry = map[string]Stopwords{}

func register(id string, words []string) {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	registry[id] = Stopwords{id: id, words: set}
}

// Lookup returns the stopword set registered under id, or ok=false.
func Lookup(id string) (Stopwords, bool) {
	s, ok := registry[id]
	return s, ok
}

// Empty is the stopword set that treats every token as content.
var Empty = Stopwords{id: "none", words: map[string]struct{}{}}

func init() {
	register("none", nil)

	// en-basic is a small, deliberately conservative English stopword list:
	// function words that carry little content-matching value for anchor
	// mining, but are kept out of the aligner's scoring input entirely only
	// via the anchor engine's filtered views (spec.md §4.3), never dropped
	// from BookIndex or the aligner's own word-op output.
	register("en-basic", []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else",
		"of", "to", "in", "on", "at", "by", "for", "with", "about",
		"as", "into", "like", "through", "after", "over", "between",
		"out", "against", "during", "without", "before", "under",
		"around", "among", "is", "are", "was", "were", "be", "been",
		"being", "am", "it", "its", "this", "that", "these", "those",
		"i", "you", "he", "she", "we", "they", "them", "his", "her",
		"their", "our", "your", "my", "me", "him",
	})
}
