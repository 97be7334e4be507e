package rollup

import (
	"fmt"
	"strings"

	"github.com/narrationlab/bookalign/internal/align"
	"github.com/narrationlab/bookalign/internal/asr"
	"github.com/narrationlab/bookalign/internal/bookindex"
	"github.com/narrationlab/bookalign/internal/text"
	"github.com/narrationlab/bookalign/internal/timing"
)

// HydratedWord mirrors HydratedWord (spec.md §3): a WordAlign plus the
// original book word, the ASR word if matched, and resolved timing.
type HydratedWord struct {
	WordAlign
	BookWord    string  `json:"book_word"`
	AsrWord     string  `json:"asr_word,omitempty"`
	StartSec    float64 `json:"start_sec"`
	EndSec      float64 `json:"end_sec"`
	DurationSec float64 `json:"duration_sec"`
}

// HydratedSentence mirrors HydratedSentence.
type HydratedSentence struct {
	SentenceAlign
	Words      []HydratedWord `json:"words"`
	Diff       string         `json:"diff"`
	BookText   string         `json:"book_text"`
	ScriptText string         `json:"script_text"`
}

// HydratedParagraph mirrors HydratedParagraph.
type HydratedParagraph struct {
	ParagraphAlign
	BookText string `json:"book_text"`
}

// Transcript mirrors HydratedTranscript, the canonical artifact downstream
// consumers use (spec.md §3).
type Transcript struct {
	Sentences  []HydratedSentence  `json:"sentences"`
	Paragraphs []HydratedParagraph `json:"paragraphs"`
}

// Hydrate enriches a TranscriptIndex with original text, per-word timing,
// and diff strings (spec.md §4.5).
func Hydrate(idx *bookindex.Index, resp asr.Response, ops []align.WordOp, ti Index) Transcript {
	grouped := groupBySentence(idx, ops)

	sentences := make([]HydratedSentence, 0, len(ti.Sentences))
	for _, sa := range ti.Sentences {
		sentences = append(sentences, hydrateSentence(idx, resp, sa, grouped[sa.ID]))
	}

	paragraphs := make([]HydratedParagraph, 0, len(ti.Paragraphs))
	for _, pa := range ti.Paragraphs {
		paragraphs = append(paragraphs, HydratedParagraph{
			ParagraphAlign: pa,
			BookText:       idx.JoinedText(pa.BookRange.Start, pa.BookRange.End),
		})
	}

	return Transcript{Sentences: sentences, Paragraphs: paragraphs}
}

func hydrateSentence(idx *bookindex.Index, resp asr.Response, sa SentenceAlign, ops []align.WordOp) HydratedSentence {
	words := make([]HydratedWord, 0, len(ops))
	var bookTokens, scriptTokens []string
	for _, op := range ops {
		hw := HydratedWord{
			WordAlign: WordAlign{Kind: string(op.Kind), BookIdx: op.BookIdx, AsrIdx: op.AsrIdx, Score: op.Score},
		}
		if op.BookIdx >= 0 && int(op.BookIdx) < len(idx.Words) {
			hw.BookWord = idx.Words[op.BookIdx].Text
			bookTokens = append(bookTokens, hw.BookWord)
		}
		if op.AsrIdx >= 0 && int(op.AsrIdx) < len(resp.Tokens) {
			t := resp.Tokens[op.AsrIdx]
			hw.AsrWord = t.Text
			hw.StartSec = t.StartSec
			hw.EndSec = t.StartSec + t.DurationSec
			hw.DurationSec = t.DurationSec
			scriptTokens = append(scriptTokens, hw.AsrWord)
		}
		words = append(words, hw)
	}

	bookText := idx.JoinedText(sa.BookRange.Start, sa.BookRange.End)
	scriptText := strings.Join(scriptTokens, " ")

	return HydratedSentence{
		SentenceAlign: sa,
		Words:         words,
		Diff:          unifiedDiff(bookTokens, scriptTokens),
		BookText:      bookText,
		ScriptText:    scriptText,
	}
}

// unifiedDiff renders a side-by-side, line-per-token diff of normalized
// book vs script word sequences (spec.md §4.5: "purely display; never
// re-used for alignment"). It runs its own LCS line diff over the
// normalized book/script token lists, independent of the word-op
// alignment, so the output reads like a conventional unified diff.
func unifiedDiff(book, script []string) string {
	bookNorm := normalizeAll(book)
	scriptNorm := normalizeAll(script)

	ops := lcsDiff(bookNorm, scriptNorm)
	var b strings.Builder
	for _, op := range ops {
		switch op.kind {
		case diffEqual:
			fmt.Fprintf(&b, "  %s\n", op.text)
		case diffDel:
			fmt.Fprintf(&b, "- %s\n", op.text)
		case diffIns:
			fmt.Fprintf(&b, "+ %s\n", op.text)
		}
	}
	return b.String()
}

func normalizeAll(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		n, ok := text.Normalize(t)
		if !ok {
			n = t
		}
		out[i] = n
	}
	return out
}

type diffOpKind int

const (
	diffEqual diffOpKind = iota
	diffDel
	diffIns
)

type diffLine struct {
	kind diffOpKind
	text string
}

// lcsDiff computes a classic longest-common-subsequence diff between two
// token sequences, for display purposes only.
func lcsDiff(a, b []string) []diffLine {
	na, nb := len(a), len(b)
	lcs := make([][]int, na+1)
	for i := range lcs {
		lcs[i] = make([]int, nb+1)
	}
	for i := na - 1; i >= 0; i-- {
		for j := nb - 1; j >= 0; j-- {
			if a[i] == b[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else if lcs[i+1][j] >= lcs[i][j+1] {
				lcs[i][j] = lcs[i+1][j]
			} else {
				lcs[i][j] = lcs[i][j+1]
			}
		}
	}

	var out []diffLine
	i, j := 0, 0
	for i < na && j < nb {
		switch {
		case a[i] == b[j]:
			out = append(out, diffLine{kind: diffEqual, text: a[i]})
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			out = append(out, diffLine{kind: diffDel, text: a[i]})
			i++
		default:
			out = append(out, diffLine{kind: diffIns, text: b[j]})
			j++
		}
	}
	for ; i < na; i++ {
		out = append(out, diffLine{kind: diffDel, text: a[i]})
	}
	for ; j < nb; j++ {
		out = append(out, diffLine{kind: diffIns, text: b[j]})
	}
	return out
}

// EnforceSentenceMonotonicity applies the global timing monotonicity pass
// (spec.md §4.11) across a transcript's sentences, writing each shrunk
// range back into its sentence's Timing in place.
func EnforceSentenceMonotonicity(sentences []HydratedSentence) {
	items := make([]timing.Indexed, len(sentences))
	for i, s := range sentences {
		items[i] = timing.Indexed{Index: i, Timing: s.Timing}
	}
	fixed := timing.EnforceMonotonic(items)
	for _, f := range fixed {
		sentences[f.Index].Timing = f.Timing
	}
}
