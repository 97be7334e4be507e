package textgrid

import (
	"github.com/narrationlab/bookalign/internal/bookindex"
	"github.com/narrationlab/bookalign/internal/errs"
	"github.com/narrationlab/bookalign/internal/rollup"
	"github.com/narrationlab/bookalign/internal/text"
	"github.com/narrationlab/bookalign/internal/timing"
)

// Options configures Merge.
type Options struct {
	WildMatchWindow    int
	ApplyToTranscript  bool
	BookStartWord      *uint32
	BookEndWord        *uint32
}

// pairKind tags a two-pointer step outcome.
type pairKind int

const (
	pairMatch pairKind = iota
	pairWildMatch
	pairInsertion
	pairDeletion
)

type pair struct {
	kind     pairKind
	tgIdx    int
	bookWord uint32
}

// matchWords runs the two-pointer greedy scan described in spec.md §4.6
// step 3, restricted to [bookLo, bookHi] if given.
func matchWords(doc Document, idx *bookindex.Index, bookLo, bookHi uint32, window int) []pair {
	if window <= 0 {
		window = DefaultWildMatchWindow
	}

	bookNorm := make([]string, len(idx.Words))
	for i, w := range idx.Words {
		n, _ := text.Normalize(w.Text)
		bookNorm[i] = n
	}
	tgNorm := make([]string, len(doc.Words))
	for i, w := range doc.Words {
		n, _ := text.Normalize(w.Text)
		tgNorm[i] = n
	}

	var pairs []pair
	t, b := 0, int(bookLo)
	end := int(bookHi)
	for t < len(doc.Words) && b <= end {
		if tgNorm[t] == bookNorm[b] {
			pairs = append(pairs, pair{kind: pairMatch, tgIdx: t, bookWord: uint32(b)})
			t++
			b++
			continue
		}

		matchedT, matchedB := -1, -1
		for w := 1; w <= window; w++ {
			if t+w < len(doc.Words) && tgNorm[t+w] == bookNorm[b] {
				matchedT = t + w
				break
			}
		}
		for w := 1; w <= window; w++ {
			if b+w <= end && tgNorm[t] == bookNorm[b+w] {
				matchedB = b + w
				break
			}
		}

		switch {
		case matchedT >= 0 && (matchedB < 0 || matchedT-t <= matchedB-b):
			for skip := t; skip < matchedT; skip++ {
				pairs = append(pairs, pair{kind: pairInsertion, tgIdx: skip})
			}
			pairs = append(pairs, pair{kind: pairWildMatch, tgIdx: matchedT, bookWord: uint32(b)})
			t = matchedT + 1
			b++
		case matchedB >= 0:
			for skip := b; skip < matchedB; skip++ {
				pairs = append(pairs, pair{kind: pairDeletion, bookWord: uint32(skip)})
			}
			pairs = append(pairs, pair{kind: pairWildMatch, tgIdx: t, bookWord: uint32(matchedB)})
			t++
			b = matchedB + 1
		default:
			pairs = append(pairs, pair{kind: pairInsertion, tgIdx: t})
			t++
		}
	}
	for ; t < len(doc.Words); t++ {
		pairs = append(pairs, pair{kind: pairInsertion, tgIdx: t})
	}
	for ; b <= end; b++ {
		pairs = append(pairs, pair{kind: pairDeletion, bookWord: uint32(b)})
	}
	return pairs
}

// Merge applies a parsed TextGrid to a hydrated transcript and (optionally)
// a TranscriptIndex, per the algorithm in spec.md §4.6. The precedence chain
// for a sentence's final timing is: TextGrid word intervals (via matchWords)
// first, ASR-derived word timing already present on the hydrated words
// second, and overrides's manual ranges last — consulted only for
// sentences that still have no timing from either of the first two sources,
// i.e. gap-filling, never overriding a source with actual alignment
// evidence. It updates transcript's sentences (and ti's, when
// ApplyToTranscript is set) in place and returns the MergeReport, with
// errs.MergeInconsistent if the post-merge monotonicity shrink pass cannot
// resolve an overlap.
func Merge(doc Document, idx *bookindex.Index, transcript *rollup.Transcript, ti *rollup.Index, overrides map[uint32]timing.Range, opts Options) (MergeReport, error) {
	bookLo := uint32(0)
	bookHi := uint32(len(idx.Words) - 1)
	if opts.BookStartWord != nil {
		bookLo = *opts.BookStartWord
	}
	if opts.BookEndWord != nil {
		bookHi = *opts.BookEndWord
	}

	pairs := matchWords(doc, idx, bookLo, bookHi, opts.WildMatchWindow)

	report := MergeReport{
		TextGridTokens: len(doc.Words),
		BookTokens:     int(bookHi-bookLo) + 1,
	}

	bookWordTiming := make(map[uint32]timing.Range, len(pairs))
	for _, p := range pairs {
		switch p.kind {
		case pairMatch, pairWildMatch:
			report.Pairs++
			if p.kind == pairMatch {
				report.Matches++
			} else {
				report.WildMatches++
			}
			tg := doc.Words[p.tgIdx]
			bookWordTiming[p.bookWord] = timing.Range{Start: tg.StartSec, End: tg.EndSec}
			report.WordsUpdated++
		case pairInsertion:
			report.Insertions++
		case pairDeletion:
			report.Deletions++
		}
	}

	for si := range transcript.Sentences {
		s := &transcript.Sentences[si]
		var sentTiming timing.Range
		first := true
		for wi := range s.Words {
			w := &s.Words[wi]
			if w.BookIdx < 0 {
				continue
			}
			if r, ok := bookWordTiming[uint32(w.BookIdx)]; ok {
				w.StartSec = r.Start
				w.EndSec = r.End
				w.DurationSec = r.End - r.Start
			}
			wr := timing.Range{Start: w.StartSec, End: w.EndSec}
			if wr.Unknown() && w.StartSec == 0 && w.EndSec == 0 {
				continue
			}
			if first {
				sentTiming = wr
				first = false
			} else {
				sentTiming = sentTiming.Union(wr)
			}
		}
		if !first {
			s.Timing.Range = sentTiming
			report.SentencesUpdated++
		} else if override, ok := overrides[s.ID]; ok {
			s.Timing.Range = override
			s.Timing.FragmentBacked = true
			report.OverridesApplied++
		}
		if opts.ApplyToTranscript && ti != nil && si < len(ti.Sentences) {
			ti.Sentences[si].Timing.Range = s.Timing.Range
		}
	}

	items := make([]timing.Indexed, len(transcript.Sentences))
	for i, s := range transcript.Sentences {
		items[i] = timing.Indexed{Index: i, Timing: s.Timing}
	}
	fixed := timing.EnforceMonotonic(items)
	for _, f := range fixed {
		if f.Timing.End < transcript.Sentences[f.Index].Timing.Start {
			return report, errs.New(errs.MergeInconsistent, "", "mfa", "textgrid merge produced an unresolvable monotonicity violation", nil)
		}
		transcript.Sentences[f.Index].Timing = f.Timing
		if opts.ApplyToTranscript && ti != nil && f.Index < len(ti.Sentences) {
			ti.Sentences[f.Index].Timing = f.Timing
		}
	}

	return report, nil
}
