package align

import (
	"sort"
	"testing"

	"github.com/narrationlab/bookalign/internal/anchor"
	"github.com/narrationlab/bookalign/internal/asr"
	"github.com/narrationlab/bookalign/internal/bookindex"
)

func wordIndex(words ...string) *bookindex.Index {
	out := make([]bookindex.Word, len(words))
	for i, w := range words {
		out[i] = bookindex.Word{Index: uint32(i), Text: w}
	}
	return &bookindex.Index{Words: out}
}

func asrResponse(words ...string) asr.Response {
	out := make([]asr.Token, len(words))
	for i, w := range words {
		out[i] = asr.Token{StartSec: float64(i), DurationSec: 0.3, Text: w}
	}
	return asr.Response{Tokens: out}
}

// assertCoverage checks the Alignment coverage universal invariant (spec.md
// §8): the multiset of book_idx across Match|Sub|Del equals [0, bookLen), and
// the multiset of asr_idx across Match|Sub|Ins equals [0, asrLen).
func assertCoverage(t *testing.T, ops []WordOp, bookLen, asrLen int) {
	t.Helper()
	var bookIdxs, asrIdxs []int
	for _, op := range ops {
		switch op.Kind {
		case Match, Sub, Del:
			bookIdxs = append(bookIdxs, int(op.BookIdx))
		}
		switch op.Kind {
		case Match, Sub, Ins:
			asrIdxs = append(asrIdxs, int(op.AsrIdx))
		}
	}
	sort.Ints(bookIdxs)
	sort.Ints(asrIdxs)

	if len(bookIdxs) != bookLen {
		t.Fatalf("got %d book indices, want %d: %v", len(bookIdxs), bookLen, bookIdxs)
	}
	for i, v := range bookIdxs {
		if v != i {
			t.Fatalf("book indices are not exactly [0,%d): got %v", bookLen, bookIdxs)
		}
	}
	if len(asrIdxs) != asrLen {
		t.Fatalf("got %d asr indices, want %d: %v", len(asrIdxs), asrLen, asrIdxs)
	}
	for i, v := range asrIdxs {
		if v != i {
			t.Fatalf("asr indices are not exactly [0,%d): got %v", asrLen, asrIdxs)
		}
	}
}

// a single anchor at the origin falls through to the trailing-window branch
// and must cover the whole book/ASR range by itself.
func TestAlignWindows_SingleTrailingWindowCoversEntireRange(t *testing.T) {
	idx := wordIndex("the", "quick", "brown", "fox", "jumps", "over")
	resp := asrResponse("the", "quick", "brown", "fox", "jumps", "over")
	doc := anchor.Document{Anchors: []anchor.Anchor{{BookPosition: 0, AsrPosition: 0}}}

	ops := AlignWindows(idx, resp, doc, DefaultCosts())

	assertCoverage(t, ops, len(idx.Words), len(resp.Tokens))
	for _, op := range ops {
		if op.Kind != Match {
			t.Errorf("got op %+v, want all Match for identical sequences", op)
		}
	}
}

// two anchors split the alignment into an inter-anchor window and a trailing
// window; coverage must still hold across their concatenation, and a
// substitution inside the second window must carry globally-translated
// indices.
func TestAlignWindows_MultipleWindowsPreserveGlobalCoverage(t *testing.T) {
	idx := wordIndex("the", "quick", "brown", "fox", "jumps", "over")
	resp := asrResponse("the", "quick", "brown", "foxx", "jumps", "over")
	doc := anchor.Document{Anchors: []anchor.Anchor{
		{BookPosition: 0, AsrPosition: 0},
		{BookPosition: 3, AsrPosition: 3},
	}}

	ops := AlignWindows(idx, resp, doc, DefaultCosts())

	assertCoverage(t, ops, len(idx.Words), len(resp.Tokens))

	found := false
	for _, op := range ops {
		if op.Kind == Sub && op.BookIdx == 3 && op.AsrIdx == 3 {
			found = true
		}
	}
	if !found {
		t.Errorf("got ops %+v, want a Sub at global (book=3, asr=3) for \"fox\"/\"foxx\"", ops)
	}
}
