package rollup

import (
	"github.com/narrationlab/bookalign/internal/align"
	"github.com/narrationlab/bookalign/internal/asr"
	"github.com/narrationlab/bookalign/internal/bookindex"
	"github.com/narrationlab/bookalign/internal/text"
	"github.com/narrationlab/bookalign/internal/timing"
)

// sentenceOf returns the BookSentence index owning bookIdx.
func sentenceOf(idx *bookindex.Index, bookIdx int64) uint32 {
	if bookIdx < 0 {
		return 0
	}
	if int(bookIdx) < len(idx.Words) {
		return idx.Words[bookIdx].SentenceIndex
	}
	return uint32(len(idx.Sentences)) - 1
}

// groupBySentence buckets WordOps by containing BookSentence, attributing
// Ins ops (which carry no book_idx) to the sentence of the nearest
// preceding consuming op, per spec.md §4.5 "group word ops by containing
// BookSentence (via book_idx)".
func groupBySentence(idx *bookindex.Index, ops []align.WordOp) map[uint32][]align.WordOp {
	grouped := make(map[uint32][]align.WordOp)
	current := uint32(0)
	for _, op := range ops {
		if op.Kind != align.Ins {
			current = sentenceOf(idx, op.BookIdx)
		}
		grouped[current] = append(grouped[current], op)
	}
	return grouped
}

// Rollup computes the TranscriptIndex from the concatenated WordOps across
// all alignment windows (spec.md §4.5).
func Rollup(idx *bookindex.Index, resp asr.Response, ops []align.WordOp, audioPath, scriptPath, bookIndexPath, createdAt string) Index {
	words := make([]WordAlign, 0, len(ops))
	for _, op := range ops {
		words = append(words, WordAlign{
			Kind:    string(op.Kind),
			BookIdx: op.BookIdx,
			AsrIdx:  op.AsrIdx,
			Score:   op.Score,
		})
	}

	grouped := groupBySentence(idx, ops)
	sentences := make([]SentenceAlign, 0, len(idx.Sentences))
	for _, s := range idx.Sentences {
		sentences = append(sentences, sentenceRollup(idx, resp, s, grouped[s.Index]))
	}

	paragraphs := make([]ParagraphAlign, 0, len(idx.Paragraphs))
	for _, p := range idx.Paragraphs {
		paragraphs = append(paragraphs, paragraphRollup(idx, p, sentences))
	}

	return Index{
		AudioPath:            audioPath,
		ScriptPath:           scriptPath,
		BookIndexPath:        bookIndexPath,
		Words:                words,
		Sentences:            sentences,
		Paragraphs:           paragraphs,
		NormalizationVersion: text.Version,
		CreatedAt:            createdAt,
	}
}

func sentenceRollup(idx *bookindex.Index, resp asr.Response, s bookindex.Sentence, ops []align.WordOp) SentenceAlign {
	bookWordCount := int(s.EndWord-s.StartWord) + 1

	subs, ins, del, matches := 0, 0, 0, 0
	missingRuns, extraRuns := 0, 0
	inMissingRun, inExtraRun := false, false
	var asrIdxs []int64
	for _, op := range ops {
		switch op.Kind {
		case align.Match:
			matches++
			inMissingRun, inExtraRun = false, false
			asrIdxs = append(asrIdxs, op.AsrIdx)
		case align.Sub:
			subs++
			inMissingRun, inExtraRun = false, false
			asrIdxs = append(asrIdxs, op.AsrIdx)
		case align.Ins:
			ins++
			if !inExtraRun {
				extraRuns++
				inExtraRun = true
			}
			inMissingRun = false
			asrIdxs = append(asrIdxs, op.AsrIdx)
		case align.Del:
			del++
			if !inMissingRun {
				missingRuns++
				inMissingRun = true
			}
			inExtraRun = false
		}
	}

	wer := 0.0
	if bookWordCount > 0 {
		wer = float64(subs+ins+del) / float64(bookWordCount)
	}

	bookText := idx.JoinedText(s.StartWord, s.EndWord)
	scriptText := joinedAsrText(resp, asrIdxs)
	bookNorm, _ := text.Normalize(bookText)
	scriptNorm, _ := text.Normalize(scriptText)
	cer := 0.0
	if len([]rune(bookNorm)) > 0 {
		cer = float64(levenshteinRunes(bookNorm, scriptNorm)) / float64(len([]rune(bookNorm)))
	}

	spanWERValue := spanWER(asrIdxs, subs, ins, del, bookWordCount)

	var tr timing.Range
	status := StatusUnaligned
	if len(asrIdxs) > 0 {
		minStart, maxEnd := asrSpanBounds(resp, asrIdxs)
		tr = timing.Range{Start: minStart, End: maxEnd}
		if wer <= SentenceStatusThreshold {
			status = StatusOK
		} else {
			status = StatusFlagged
		}
	} else {
		tr = timing.Range{Start: 0, End: 0}
	}

	var scriptRange *WordRange
	if len(asrIdxs) > 0 {
		lo, hi := asrIdxs[0], asrIdxs[0]
		for _, a := range asrIdxs {
			if a < lo {
				lo = a
			}
			if a > hi {
				hi = a
			}
		}
		scriptRange = &WordRange{Start: uint32(lo), End: uint32(hi)}
	}

	return SentenceAlign{
		ID:          s.Index,
		BookRange:   WordRange{Start: s.StartWord, End: s.EndWord},
		ScriptRange: scriptRange,
		Metrics: SentenceMetrics{
			WER:         wer,
			CER:         cer,
			SpanWER:     spanWERValue,
			MissingRuns: missingRuns,
			ExtraRuns:   extraRuns,
		},
		Timing: timing.SentenceTiming{Range: tr},
		Status: status,
	}
}

// spanWER restricts WER to the contiguous ASR span covering the sentence
// (spec.md §4.5): same error numerator as wer, but divided by the width of
// the matched ASR span rather than the book sentence's word count.
func spanWER(asrIdxs []int64, subs, ins, del, bookWordCount int) float64 {
	if len(asrIdxs) == 0 {
		if bookWordCount == 0 {
			return 0
		}
		return float64(subs+ins+del) / float64(bookWordCount)
	}
	lo, hi := asrIdxs[0], asrIdxs[0]
	for _, a := range asrIdxs {
		if a < lo {
			lo = a
		}
		if a > hi {
			hi = a
		}
	}
	spanLen := float64(hi-lo) + 1
	if spanLen <= 0 {
		spanLen = 1
	}
	return float64(subs+ins+del) / spanLen
}

func joinedAsrText(resp asr.Response, asrIdxs []int64) string {
	if len(asrIdxs) == 0 {
		return ""
	}
	out := ""
	for i, a := range asrIdxs {
		if int(a) >= len(resp.Tokens) {
			continue
		}
		if i > 0 {
			out += " "
		}
		out += resp.Tokens[a].Text
	}
	return out
}

func asrSpanBounds(resp asr.Response, asrIdxs []int64) (float64, float64) {
	minStart := resp.Tokens[asrIdxs[0]].StartSec
	maxEnd := resp.Tokens[asrIdxs[0]].StartSec + resp.Tokens[asrIdxs[0]].DurationSec
	for _, a := range asrIdxs {
		if int(a) >= len(resp.Tokens) {
			continue
		}
		t := resp.Tokens[a]
		if t.StartSec < minStart {
			minStart = t.StartSec
		}
		end := t.StartSec + t.DurationSec
		if end > maxEnd {
			maxEnd = end
		}
	}
	return minStart, maxEnd
}

// paragraphRollup aggregates the metrics of the sentences owned by p,
// weighted by word count (spec.md §4.5 and §9 Open Questions: "weighted by
// word count" is the decision recorded in DESIGN.md).
func paragraphRollup(idx *bookindex.Index, p bookindex.Paragraph, sentences []SentenceAlign) ParagraphAlign {
	var sentenceIDs []uint32
	var totalWords, werNum, cerNum float64
	flaggedAny := false
	unalignedAll := true
	for _, s := range sentences {
		if s.BookRange.Start < p.StartWord || s.BookRange.End > p.EndWord {
			continue
		}
		sentenceIDs = append(sentenceIDs, s.ID)
		words := float64(s.BookRange.End-s.BookRange.Start) + 1
		totalWords += words
		werNum += s.Metrics.WER * words
		cerNum += s.Metrics.CER * words
		if s.Status == StatusFlagged {
			flaggedAny = true
		}
		if s.Status != StatusUnaligned {
			unalignedAll = false
		}
	}

	wer, cer := 0.0, 0.0
	if totalWords > 0 {
		wer = werNum / totalWords
		cer = cerNum / totalWords
	}

	status := StatusOK
	switch {
	case unalignedAll:
		status = StatusUnaligned
	case flaggedAny:
		status = StatusFlagged
	}

	return ParagraphAlign{
		ID:          p.Index,
		BookRange:   WordRange{Start: p.StartWord, End: p.EndWord},
		SentenceIDs: sentenceIDs,
		Metrics: ParagraphMetrics{
			WER:      wer,
			CER:      cer,
			Coverage: coverage(idx, p, sentences),
		},
		Status: status,
	}
}

func coverage(idx *bookindex.Index, p bookindex.Paragraph, sentences []SentenceAlign) float64 {
	total := float64(p.EndWord-p.StartWord) + 1
	if total <= 0 {
		return 0
	}
	covered := 0.0
	for _, s := range sentences {
		if s.BookRange.Start < p.StartWord || s.BookRange.End > p.EndWord {
			continue
		}
		if s.Status != StatusUnaligned {
			covered += float64(s.BookRange.End-s.BookRange.Start) + 1
		}
	}
	return covered / total
}

// levenshteinRunes computes edit distance over rune slices; duplicated
// (rather than shared) from internal/align because rollup's CER operates
// on whole joined strings, not single tokens, and importing align's
// unexported helper would require exporting it purely for this call site.
func levenshteinRunes(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	na, nb := len(ra), len(rb)
	if na == 0 {
		return nb
	}
	if nb == 0 {
		return na
	}
	prev := make([]int, nb+1)
	curr := make([]int, nb+1)
	for j := 0; j <= nb; j++ {
		prev[j] = j
	}
	for i := 1; i <= na; i++ {
		curr[0] = i
		for j := 1; j <= nb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			insc := curr[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if insc < m {
				m = insc
			}
			if sub < m {
				m = sub
			}
			curr[j] = m
		}
		prev, curr = curr, prev
	}
	return prev[nb]
}
