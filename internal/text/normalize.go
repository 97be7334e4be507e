// Package text implements the deterministic, versioned normalization and
// tokenization pipeline described in spec.md §4.1, plus the named immutable
// stopword tables it depends on.
package text

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Version identifies the normalization algorithm. It is part of any
// fingerprint that depends on filtering (spec.md §4.1, §4.9).
const Version = "text-norm-v1"

var caseFolder = cases.Fold()

// curlyApostrophes maps Unicode typographic apostrophe variants to ASCII '.
var curlyApostrophes = map[rune]rune{
	'‘': '\'', // left single quote
	'’': '\'', // right single quote (most common curly apostrophe)
	'‛': '\'', // single high-reversed-9 quote
	'ʼ': '\'', // modifier letter apostrophe
	'＇': '\'', // fullwidth apostrophe
}

// Normalize applies the five-step algorithm from spec.md §4.1 to a single
// token's surface text: (1) NFKC, (2) casefold, (3) fold curly apostrophes,
// (4) strip leading/trailing punctuation, (5) the caller drops the result if
// IsPunctuationOnly reports true.
//
// Returns (normalized, ok). ok is false only when s is not valid UTF-8,
// corresponding to InvalidToken in spec.md §4.1.
func Normalize(s string) (string, bool) {
	if !isValidUTF8(s) {
		return "", false
	}
	nfkc := norm.NFKC.String(s)
	folded := caseFolder.String(nfkc)
	folded = foldApostrophes(folded)
	trimmed := strings.TrimFunc(folded, isStripPunct)
	return trimmed, true
}

// IsContent reports whether a normalized token is "content": it survived
// normalization (non-empty, not purely punctuation) and is absent from the
// active stopword set.
func IsContent(normalized string, stop Stopwords) bool {
	if normalized == "" {
		return false
	}
	if isPunctuationOnly(normalized) {
		return false
	}
	return !stop.Contains(normalized)
}

func foldApostrophes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if repl, ok := curlyApostrophes[r]; ok {
			b.WriteRune(repl)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// isStripPunct reports whether r should be trimmed from a token's edges.
// Internal apostrophes/hyphens are preserved (e.g. "don't", "mother-in-law").
func isStripPunct(r rune) bool {
	if r == '\'' || r == '-' {
		return false
	}
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

func isPunctuationOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) && r != '\'' && r != '-' {
			return false
		}
	}
	return true
}

func isValidUTF8(s string) bool {
	return utf8.ValidString(s)
}

// FoldLanguage is the language tag used by the casefolder; exported for
// callers that need to build a language-aware variant (e.g. Turkish dotless
// i). Bookalign's default normalization is language-neutral (und).
var FoldLanguage = language.Und
