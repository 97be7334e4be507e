package text

import (
	"github.com/clipperhouse/uax29/v2/sentences"
	"github.com/clipperhouse/uax29/v2/words"
)

// Token is a single lexical unit surfaced from raw text, carrying both its
// original surface form and byte offsets into the source (for
// BookWord.char_start/char_end, spec.md §3).
type Token struct {
	Text       string
	ByteStart  int
	ByteEnd    int
	IsSentence bool // true when this token is itself a sentence boundary marker (unused by Words, set by Sentences)
}

// Words segments raw text into Unicode words using uax29's word-boundary
// algorithm (UAX #29), which the tokenizer relies on instead of a
// whitespace/punctuation hand-split so that contractions, hyphenated
// compounds, and non-Latin scripts segment correctly.
func Words(raw string) []Token {
	seg := words.NewSegmenter([]byte(raw))
	var toks []Token
	offset := 0
	for seg.Next() {
		b := seg.Bytes()
		start := offset
		end := offset + len(b)
		offset = end
		toks = append(toks, Token{Text: string(b), ByteStart: start, ByteEnd: end})
	}
	return toks
}

// SentenceSpans segments raw text into sentences using uax29's
// sentence-boundary algorithm, returning each sentence's byte range in raw.
// BookIndex does not call it: its rule-based boundary detection (spec.md
// §4.2) works on the Words tokens with its own abbreviation guard.
func SentenceSpans(raw string) []Token {
	seg := sentences.NewSegmenter([]byte(raw))
	var toks []Token
	offset := 0
	for seg.Next() {
		b := seg.Bytes()
		start := offset
		end := offset + len(b)
		offset = end
		toks = append(toks, Token{Text: string(b), ByteStart: start, ByteEnd: end, IsSentence: true})
	}
	return toks
}
