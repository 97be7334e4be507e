package align

import "testing"

// bookToks and asrToks build BookToken/AsrToken lists from plain normalized words,
// mirroring how internal/align/window.go feeds Align after text.Normalize.
func bookToks(words ...string) []BookToken {
	out := make([]BookToken, len(words))
	for i, w := range words {
		out[i] = BookToken{Normalized: w}
	}
	return out
}

func asrToks(words ...string) []AsrToken {
	out := make([]AsrToken, len(words))
	for i, w := range words {
		out[i] = AsrToken{Normalized: w}
	}
	return out
}

// scenario 1 of spec.md §8: "Hello world. Goodbye cruel world." recognized
// perfectly — expect all Match ops and zero edit distance.
func TestAlign_PerfectRecognitionYieldsAllMatches(t *testing.T) {
	book := bookToks("hello", "world", "goodbye", "cruel", "world")
	asr := asrToks("hello", "world", "goodbye", "cruel", "world")

	ops := Align(book, asr, DefaultCosts())

	if len(ops) != 5 {
		t.Fatalf("got %d ops, want 5: %+v", len(ops), ops)
	}
	for i, op := range ops {
		if op.Kind != Match {
			t.Errorf("op %d: got kind %q, want %q", i, op.Kind, Match)
		}
		if op.BookIdx != int64(i) || op.AsrIdx != int64(i) {
			t.Errorf("op %d: got (book=%d, asr=%d), want (%d, %d)", i, op.BookIdx, op.AsrIdx, i, i)
		}
		if op.Score != 1.0 {
			t.Errorf("op %d: got score %v, want 1.0", i, op.Score)
		}
	}
}

// scenario 2: ASR mishears "Hello" as "Helloo" — expect exactly one Sub op
// at position 0 and Match everywhere else.
func TestAlign_OneWordSubstitutionYieldsSingleSub(t *testing.T) {
	book := bookToks("hello", "world", "goodbye", "cruel", "world")
	asr := asrToks("helloo", "world", "goodbye", "cruel", "world")

	ops := Align(book, asr, DefaultCosts())

	if len(ops) != 5 {
		t.Fatalf("got %d ops, want 5: %+v", len(ops), ops)
	}
	if ops[0].Kind != Sub || ops[0].BookIdx != 0 || ops[0].AsrIdx != 0 {
		t.Errorf("op 0: got %+v, want a Sub at (0, 0)", ops[0])
	}
	for i := 1; i < 5; i++ {
		if ops[i].Kind != Match {
			t.Errorf("op %d: got kind %q, want %q", i, ops[i].Kind, Match)
		}
	}
}

// scenario 3: ASR drops the first word entirely — expect a single Del at
// book_idx 0, then Match for the remaining four words shifted one asr
// position earlier.
func TestAlign_MissingOpeningWordYieldsSingleDel(t *testing.T) {
	book := bookToks("hello", "world", "goodbye", "cruel", "world")
	asr := asrToks("world", "goodbye", "cruel", "world")

	ops := Align(book, asr, DefaultCosts())

	if len(ops) != 5 {
		t.Fatalf("got %d ops, want 5: %+v", len(ops), ops)
	}
	if ops[0].Kind != Del || ops[0].BookIdx != 0 || ops[0].AsrIdx != -1 {
		t.Errorf("op 0: got %+v, want a Del at book_idx 0", ops[0])
	}
	for i := 1; i < 5; i++ {
		want := WordOp{Kind: Match, BookIdx: int64(i), AsrIdx: int64(i - 1), Score: 1.0}
		if ops[i] != want {
			t.Errorf("op %d: got %+v, want %+v", i, ops[i], want)
		}
	}
}

func TestBandWidth_FloorsAt32(t *testing.T) {
	if got := BandWidth(5, 4); got != 32 {
		t.Errorf("got %d, want 32 for a tiny window", got)
	}
	if got := BandWidth(200, 190); got != 50 {
		t.Errorf("got %d, want 50 (0.25 * 200)", got)
	}
}

func TestAlign_SubScoreReflectsLevenshteinRatio(t *testing.T) {
	ops := Align(bookToks("hello"), asrToks("helloo"), DefaultCosts())
	if len(ops) != 1 || ops[0].Kind != Sub {
		t.Fatalf("got %+v, want a single Sub op", ops)
	}
	// levenshtein("hello","helloo")=1, maxLen=6, ratio=1/6, score=5/6.
	want := 1.0 - 1.0/6.0
	if diff := ops[0].Score - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("got score %v, want %v", ops[0].Score, want)
	}
}
