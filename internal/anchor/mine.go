package anchor

import (
	"sort"

	"github.com/narrationlab/bookalign/internal/asr"
	"github.com/narrationlab/bookalign/internal/bookindex"
	"github.com/narrationlab/bookalign/internal/text"
)

// viewEntry is one content token surviving normalization, with its index in
// the original (book or ASR) sequence.
type viewEntry struct {
	normalized   string
	originalIdx  uint32
}

// buildBookView filters BookIndex.Words down to content tokens (spec.md
// §4.3 step 1), preserving original_index.
func buildBookView(idx *bookindex.Index, stop text.Stopwords) []viewEntry {
	view := make([]viewEntry, 0, len(idx.Words))
	for _, w := range idx.Words {
		norm, ok := text.Normalize(w.Text)
		if !ok || !text.IsContent(norm, stop) {
			continue
		}
		view = append(view, viewEntry{normalized: norm, originalIdx: w.Index})
	}
	return view
}

// buildAsrView filters AsrResponse.Tokens down to content tokens.
func buildAsrView(resp asr.Response, stop text.Stopwords) []viewEntry {
	view := make([]viewEntry, 0, len(resp.Tokens))
	for i, t := range resp.Tokens {
		norm, ok := text.Normalize(t.Text)
		if !ok || !text.IsContent(norm, stop) {
			continue
		}
		view = append(view, viewEntry{normalized: norm, originalIdx: uint32(i)})
	}
	return view
}

// candidate is a unique-ngram match mapped back to global positions.
type candidate struct {
	bookPos uint32
	asrPos  uint32
}

// ngramKey joins n consecutive normalized tokens with a separator unlikely
// to appear inside a normalized word (normalization strips most
// punctuation already).
func ngramKey(view []viewEntry, start, n int) string {
	key := view[start].normalized
	for i := 1; i < n; i++ {
		key += "\x00" + view[start+i].normalized
	}
	return key
}

// uniqueNgramFirstPositions returns, for each n-gram key appearing exactly
// once in view, the original_idx of its first token.
func uniqueNgramFirstPositions(view []viewEntry, n int) map[string]uint32 {
	counts := make(map[string]int)
	firstOriginal := make(map[string]uint32)
	for i := 0; i+n <= len(view); i++ {
		key := ngramKey(view, i, n)
		counts[key]++
		if counts[key] == 1 {
			firstOriginal[key] = view[i].originalIdx
		}
	}
	unique := make(map[string]uint32, len(firstOriginal))
	for key, pos := range firstOriginal {
		if counts[key] == 1 {
			unique[key] = pos
		}
	}
	return unique
}

// mineCandidates finds unique-ngram matches common to both views (spec.md
// §4.3 steps 2-4).
func mineCandidates(bookView, asrView []viewEntry, n int) []candidate {
	bookUnique := uniqueNgramFirstPositions(bookView, n)
	asrUnique := uniqueNgramFirstPositions(asrView, n)

	var candidates []candidate
	for key, bookPos := range bookUnique {
		if asrPos, ok := asrUnique[key]; ok {
			candidates = append(candidates, candidate{bookPos: bookPos, asrPos: asrPos})
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].bookPos < candidates[j].bookPos })
	return candidates
}

// selectMonotone picks a strictly-monotone-on-both-axes subsequence with
// minimum separation minSep on both axes (spec.md §4.3 step 5), via a
// greedy first-fit scan: candidates already come book-ascending, and each
// one is kept if it clears the required gap from the last kept candidate on
// both axes. It does not search for the largest possible chain; an early
// candidate that fits is kept even when skipping it would admit more.
func selectMonotone(candidates []candidate, minSep uint32, sectionOf func(bookPos uint32) uint32, disallowBoundaryCross bool) []candidate {
	var selected []candidate
	var lastBook, lastAsr uint32
	first := true
	for _, c := range candidates {
		if !first {
			if c.bookPos < lastBook+minSep || c.asrPos < lastAsr+minSep {
				continue
			}
			if disallowBoundaryCross && sectionOf != nil && sectionOf(c.bookPos) != sectionOf(lastBook) {
				continue
			}
		}
		selected = append(selected, c)
		lastBook, lastAsr = c.bookPos, c.asrPos
		first = false
	}
	return selected
}

// Mine builds an AnchorDocument from a BookIndex and AsrResponse per the
// protocol in spec.md §4.3: unique-ngram mining, monotone min-separated
// selection, density-driven relaxation, and the mandatory synthetic (0,0)
// anchor.
func Mine(idx *bookindex.Index, resp asr.Response, policy Policy) (Document, error) {
	stop, ok := text.Lookup(policy.StopwordSetID)
	if !ok {
		stop = text.Empty
	}

	bookView := buildBookView(idx, stop)
	asrView := buildAsrView(resp, stop)

	sectionOf := func(bookPos uint32) uint32 {
		if int(bookPos) >= len(idx.Words) {
			return 0
		}
		return idx.Words[bookPos].SectionIndex
	}

	n := policy.NgramN
	if n <= 0 {
		n = 3
	}
	relaxed := false

	var selected []candidate
	var candidates []candidate
	for attempt := 0; attempt < 2; attempt++ {
		candidates = mineCandidates(bookView, asrView, n)
		selected = selectMonotone(candidates, policy.MinSeparation, sectionOf, policy.DisallowBoundaryCross)

		meetsDensity := densitySatisfied(selected, len(bookView), policy.TargetDensity)
		if meetsDensity || n <= 2 || attempt == 1 {
			break
		}
		n--
		relaxed = true
	}

	if overDense(selected, len(bookView), policy.TargetDensity) {
		selected = downsampleMaxSeparation(selected, policy.MinSeparation)
	}

	// A first candidate on either axis' origin cannot follow the synthetic
	// (0,0) strictly, so it is dropped unless it is (0,0) itself.
	if len(selected) > 0 && (selected[0].bookPos == 0) != (selected[0].asrPos == 0) {
		selected = selected[1:]
	}

	anchors := make([]Anchor, 0, len(selected)+1)
	if len(selected) == 0 || selected[0].bookPos != 0 || selected[0].asrPos != 0 {
		anchors = append(anchors, Anchor{BookPosition: 0, AsrPosition: 0})
	}
	for _, c := range selected {
		anchors = append(anchors, Anchor{BookPosition: c.bookPos, AsrPosition: c.asrPos})
	}

	if len(anchors) < 2 {
		return Document{}, &InsufficientAnchorsError{Produced: len(anchors)}
	}

	doc := Document{
		Anchors: anchors,
		Policy:  policy,
		Stats: Stats{
			CandidateCount: len(candidates),
			SelectedCount:  len(anchors),
			NgramUsed:      n,
			RelaxedOnce:    relaxed,
		},
	}
	return doc, nil
}

func densitySatisfied(selected []candidate, contentTokens int, targetDensity float64) bool {
	if contentTokens == 0 || targetDensity <= 0 {
		return true
	}
	want := float64(contentTokens) * targetDensity
	return float64(len(selected)) >= want*0.5
}

func overDense(selected []candidate, contentTokens int, targetDensity float64) bool {
	if contentTokens == 0 || targetDensity <= 0 {
		return false
	}
	want := float64(contentTokens) * targetDensity
	return float64(len(selected)) > want*2.0
}

// downsampleMaxSeparation thins an over-dense anchor set with one greedy
// pass at twice the minimum separation (10 when minSep is 0), favoring
// spacing over raw count (spec.md §4.3 density policy). The result is not
// re-checked for density; a set still over-dense after this pass is kept.
func downsampleMaxSeparation(selected []candidate, minSep uint32) []candidate {
	sep := minSep * 2
	if sep == 0 {
		sep = 10
	}
	var out []candidate
	var lastBook, lastAsr uint32
	first := true
	for _, c := range selected {
		if !first && (c.bookPos < lastBook+sep || c.asrPos < lastAsr+sep) {
			continue
		}
		out = append(out, c)
		lastBook, lastAsr = c.bookPos, c.asrPos
		first = false
	}
	return out
}
