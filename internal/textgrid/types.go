// Package textgrid implements the TextGrid Merger (spec.md §4.6): parsing
// Praat long-text TextGrid files and reconciling their word-tier intervals
// with the book/transcript timing sources.
package textgrid

// Word mirrors TextGridWord (spec.md §3).
type Word struct {
	Text     string  `json:"text"`
	StartSec float64 `json:"start_sec"`
	EndSec   float64 `json:"end_sec"`
}

// Document mirrors TextGridDocument: an ordered list of word intervals.
type Document struct {
	Words []Word `json:"words"`
}

// MergeReport mirrors the summary in spec.md §4.6.
type MergeReport struct {
	TextGridTokens   int `json:"textgrid_tokens"`
	BookTokens       int `json:"book_tokens"`
	Pairs            int `json:"pairs"`
	Matches          int `json:"matches"`
	WildMatches      int `json:"wild_matches"`
	Insertions       int `json:"insertions"`
	Deletions        int `json:"deletions"`
	WordsUpdated     int `json:"words_updated"`
	SentencesUpdated int `json:"sentences_updated"`
	OverridesApplied int `json:"overrides_applied"`
}

// DefaultWildMatchWindow is the default lookahead bound for the two-pointer
// matcher (spec.md §4.6).
const DefaultWildMatchWindow = 3
