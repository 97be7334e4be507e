// Package bookindex implements the BookIndex Builder (spec.md §4.2): it
// converts parsed book text with structural hints into word/sentence/
// paragraph/section arrays carrying stable global indices (spec.md §3).
package bookindex

// Word mirrors BookWord (spec.md §3). Index is the word's global position
// in the book; Text preserves the original surface form for display, while
// normalization is re-derived on demand via internal/text.
type Word struct {
	Index          uint32  `json:"index"`
	Text           string  `json:"text"`
	SentenceIndex  uint32  `json:"sentence_index"`
	ParagraphIndex uint32  `json:"paragraph_index"`
	SectionIndex   uint32  `json:"section_index"`
	CharStart      *uint32 `json:"char_start,omitempty"`
	CharEnd        *uint32 `json:"char_end,omitempty"`
	Phoneme        *string `json:"phoneme,omitempty"`
}

// Sentence mirrors BookSentence. Ranges are contiguous and non-overlapping.
type Sentence struct {
	Index     uint32  `json:"index"`
	StartWord uint32  `json:"start_word"`
	EndWord   uint32  `json:"end_word"` // inclusive
	Title     *string `json:"title,omitempty"`
}

// Paragraph mirrors BookParagraph. Ranges are unions of consecutive
// sentence ranges.
type Paragraph struct {
	Index     uint32  `json:"index"`
	StartWord uint32  `json:"start_word"`
	EndWord   uint32  `json:"end_word"`
	Title     *string `json:"title,omitempty"`
}

// Section mirrors BookSection. Sections partition the book, in document order.
type Section struct {
	Index     uint32  `json:"index"`
	StartWord uint32  `json:"start_word"`
	EndWord   uint32  `json:"end_word"`
	Title     *string `json:"title,omitempty"`
}

// Totals mirrors BookIndex.totals.
type Totals struct {
	Words          uint32  `json:"words"`
	Sentences      uint32  `json:"sentences"`
	Paragraphs     uint32  `json:"paragraphs"`
	EstDurationSec float64 `json:"est_duration_sec"`
}

// Index mirrors BookIndex (spec.md §3). Created once per book; immutable
// once written; may be cached on disk keyed by source-file hash +
// NormalizationVersion.
type Index struct {
	SourceFile           string      `json:"source_file"`
	Totals               Totals      `json:"totals"`
	Words                []Word      `json:"words"`
	Sentences            []Sentence  `json:"sentences"`
	Paragraphs           []Paragraph `json:"paragraphs"`
	Sections             []Section   `json:"sections"`
	NormalizationVersion string      `json:"normalization_version"`
}

// WordRange returns the words in [startWord, endWord] inclusive.
func (idx *Index) WordRange(startWord, endWord uint32) []Word {
	if int(endWord) >= len(idx.Words) {
		endWord = uint32(len(idx.Words)) - 1
	}
	if startWord > endWord {
		return nil
	}
	return idx.Words[startWord : endWord+1]
}

// JoinedText joins the original surface text of words[startWord..endWord]
// with single spaces, for BookSentence/Paragraph book_text hydration
// (spec.md §4.5).
func (idx *Index) JoinedText(startWord, endWord uint32) string {
	words := idx.WordRange(startWord, endWord)
	if len(words) == 0 {
		return ""
	}
	out := words[0].Text
	for _, w := range words[1:] {
		out += " " + w.Text
	}
	return out
}
