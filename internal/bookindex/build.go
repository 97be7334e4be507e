package bookindex

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/narrationlab/bookalign/internal/docparse"
	"github.com/narrationlab/bookalign/internal/text"
)

// DefaultAverageWPM is the fallback narration rate used for est_duration_sec
// when the caller does not override it (spec.md §4.2).
const DefaultAverageWPM = 200

// honorifics are trailing single-letter or common abbreviations that must
// not be mistaken for a sentence boundary when followed by a period
// (spec.md §4.2 "abbreviation guard").
var honorifics = map[string]struct{}{
	"mr": {}, "mrs": {}, "ms": {}, "dr": {}, "prof": {}, "sr": {}, "jr": {},
	"st": {}, "vs": {}, "etc": {}, "mt": {}, "gen": {}, "rev": {}, "capt": {},
	"lt": {}, "col": {}, "gov": {}, "sgt": {},
}

// sectionHeadingRe is the configurable fallback regex list for section
// detection when no structural hints identify a heading (spec.md §4.2).
var sectionHeadingRe = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*(chapter|part|book)\s+([0-9]+|[ivxlcdm]+)\b`),
	regexp.MustCompile(`(?i)^\s*(prologue|epilogue|introduction|foreword|afterword)\b`),
}

// Options configures Build.
type Options struct {
	SourceFile string
	AverageWPM int // 0 means DefaultAverageWPM
	Stopwords  text.Stopwords
}

// ParseError reports an irrecoverable structural-hint conflict (spec.md
// §4.2: "Fails with ParseError if structural hints conflict irrecoverably;
// never silently drops text").
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string { return fmt.Sprintf("bookindex: %s", e.Reason) }

// Build converts a parsed book document into a BookIndex, per spec.md §4.2.
func Build(parsed docparse.ParseResult, opts Options) (*Index, error) {
	wpm := opts.AverageWPM
	if wpm <= 0 {
		wpm = DefaultAverageWPM
	}

	headingAt := make(map[int]string, len(parsed.StructureHints.Headings))
	for _, h := range parsed.StructureHints.Headings {
		headingAt[h.ByteOffset] = h.Text
	}
	paragraphBreakAt := make(map[int]struct{}, len(parsed.StructureHints.ParagraphBreaks))
	for _, p := range parsed.StructureHints.ParagraphBreaks {
		paragraphBreakAt[p.ByteOffset] = struct{}{}
	}

	tokens := text.Words(parsed.FullText)
	if len(tokens) == 0 {
		return nil, &ParseError{Reason: "no words found in source text"}
	}

	words := make([]Word, 0, len(tokens))
	for i, tok := range tokens {
		start := uint32(tok.ByteStart)
		end := uint32(tok.ByteEnd)
		words = append(words, Word{
			Index:     uint32(i),
			Text:      tok.Text,
			CharStart: &start,
			CharEnd:   &end,
		})
	}

	sentences := buildSentences(parsed.FullText, words)
	assignSentenceIndex(words, sentences)

	paragraphs := buildParagraphs(sentences, words, paragraphBreakAt)
	assignParagraphIndex(words, paragraphs)

	sections := buildSections(paragraphs, words, parsed.FullText, headingAt)
	assignSectionIndex(words, sections)

	totalWords := uint32(len(words))
	idx := &Index{
		SourceFile: opts.SourceFile,
		Totals: Totals{
			Words:          totalWords,
			Sentences:      uint32(len(sentences)),
			Paragraphs:     uint32(len(paragraphs)),
			EstDurationSec: float64(totalWords) / float64(wpm) * 60.0,
		},
		Words:                words,
		Sentences:            sentences,
		Paragraphs:            paragraphs,
		Sections:             sections,
		NormalizationVersion: text.Version,
	}
	return idx, nil
}

// buildSentences detects sentence boundaries by scanning word end-punctuation,
// applying the abbreviation guard from spec.md §4.2: a trailing single letter
// or a known honorific immediately before a `.` does not end a sentence.
func buildSentences(fullText string, words []Word) []Sentence {
	var sentences []Sentence
	start := 0
	for i, w := range words {
		if !endsSentence(w.Text) {
			continue
		}
		if isAbbreviation(w.Text) && i+1 < len(words) {
			continue
		}
		sentences = append(sentences, Sentence{
			Index:     uint32(len(sentences)),
			StartWord: uint32(start),
			EndWord:   uint32(i),
		})
		start = i + 1
	}
	if start < len(words) {
		sentences = append(sentences, Sentence{
			Index:     uint32(len(sentences)),
			StartWord: uint32(start),
			EndWord:   uint32(len(words) - 1),
		})
	}
	return sentences
}

func endsSentence(tok string) bool {
	if tok == "" {
		return false
	}
	last := tok[len(tok)-1]
	return last == '.' || last == '!' || last == '?'
}

// isAbbreviation reports whether a `.`-terminated token is a trailing
// single letter (e.g. "J.") or a known honorific (e.g. "Mr.", "Dr.") rather
// than a genuine sentence end.
func isAbbreviation(tok string) bool {
	if !strings.HasSuffix(tok, ".") {
		return false
	}
	body := strings.TrimSuffix(tok, ".")
	if body == "" {
		return false
	}
	if len([]rune(body)) == 1 {
		return true
	}
	_, ok := honorifics[strings.ToLower(body)]
	return ok
}

func assignSentenceIndex(words []Word, sentences []Sentence) {
	for _, s := range sentences {
		for i := s.StartWord; i <= s.EndWord; i++ {
			words[i].SentenceIndex = s.Index
		}
	}
}

// buildParagraphs groups sentences using paragraph-break hints: a sentence
// starting at or after a byte offset present in paragraphBreakAt begins a
// new paragraph. Falls back to one paragraph per sentence run bounded by the
// nearest preceding break when hints are sparse, per spec.md §4.2's
// "hint-first, never silently drop text" rule applied at the paragraph
// level.
func buildParagraphs(sentences []Sentence, words []Word, paragraphBreakAt map[int]struct{}) []Paragraph {
	if len(sentences) == 0 {
		return nil
	}
	var paragraphs []Paragraph
	pStart := 0
	for i, s := range sentences {
		if i == 0 {
			continue
		}
		if sentenceStartsAtBreak(s, words, paragraphBreakAt) {
			paragraphs = append(paragraphs, Paragraph{
				Index:     uint32(len(paragraphs)),
				StartWord: sentences[pStart].StartWord,
				EndWord:   sentences[i-1].EndWord,
			})
			pStart = i
		}
	}
	paragraphs = append(paragraphs, Paragraph{
		Index:     uint32(len(paragraphs)),
		StartWord: sentences[pStart].StartWord,
		EndWord:   sentences[len(sentences)-1].EndWord,
	})
	return paragraphs
}

func sentenceStartsAtBreak(s Sentence, words []Word, paragraphBreakAt map[int]struct{}) bool {
	w := words[s.StartWord]
	if w.CharStart == nil {
		return false
	}
	start := int(*w.CharStart)
	for offset := range paragraphBreakAt {
		if offset <= start && offset > start-64 {
			return true
		}
	}
	return false
}

func assignParagraphIndex(words []Word, paragraphs []Paragraph) {
	for _, p := range paragraphs {
		for i := p.StartWord; i <= p.EndWord; i++ {
			words[i].ParagraphIndex = p.Index
		}
	}
}

// buildSections groups paragraphs under headings: hint-first (a heading
// recorded at or near a paragraph's start byte offset), falling back to the
// configurable chapter/part/book regex list run against each paragraph's
// first line (spec.md §4.2).
func buildSections(paragraphs []Paragraph, words []Word, fullText string, headingAt map[int]string) []Section {
	if len(paragraphs) == 0 {
		return nil
	}
	type boundary struct {
		paragraphIdx int
		title        string
	}
	var boundaries []boundary
	for i, p := range paragraphs {
		w := words[p.StartWord]
		if w.CharStart == nil {
			continue
		}
		start := int(*w.CharStart)
		if title, ok := nearestHeading(headingAt, start); ok {
			boundaries = append(boundaries, boundary{paragraphIdx: i, title: title})
			continue
		}
		line := firstLine(fullText, start)
		for _, re := range sectionHeadingRe {
			if re.MatchString(line) {
				boundaries = append(boundaries, boundary{paragraphIdx: i, title: strings.TrimSpace(line)})
				break
			}
		}
	}

	if len(boundaries) == 0 || boundaries[0].paragraphIdx != 0 {
		boundaries = append([]boundary{{paragraphIdx: 0, title: ""}}, boundaries...)
	}

	var sections []Section
	for i, b := range boundaries {
		endParagraph := len(paragraphs) - 1
		if i+1 < len(boundaries) {
			endParagraph = boundaries[i+1].paragraphIdx - 1
		}
		var title *string
		if b.title != "" {
			t := b.title
			title = &t
		}
		sections = append(sections, Section{
			Index:     uint32(len(sections)),
			StartWord: paragraphs[b.paragraphIdx].StartWord,
			EndWord:   paragraphs[endParagraph].EndWord,
			Title:     title,
		})
	}
	return sections
}

func nearestHeading(headingAt map[int]string, start int) (string, bool) {
	for offset, title := range headingAt {
		if offset <= start && offset > start-64 {
			return title, true
		}
	}
	return "", false
}

func firstLine(fullText string, start int) string {
	if start >= len(fullText) {
		return ""
	}
	rest := fullText[start:]
	if idx := strings.IndexByte(rest, '\n'); idx >= 0 {
		return rest[:idx]
	}
	return rest
}

func assignSectionIndex(words []Word, sections []Section) {
	for _, s := range sections {
		for i := s.StartWord; i <= s.EndWord; i++ {
			words[i].SectionIndex = s.Index
		}
	}
}
