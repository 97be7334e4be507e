package timing

import "testing"

func closeEnough(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}

func TestRange_Duration(t *testing.T) {
	if got := (Range{Start: 1.2, End: 2.8}).Duration(); !closeEnough(got, 1.6) {
		t.Errorf("got %v, want 1.6", got)
	}
	if got := (Range{Start: 5, End: 2}).Duration(); got != 0 {
		t.Errorf("got %v for an inverted range, want 0", got)
	}
}

func TestRange_Unknown(t *testing.T) {
	if !(Range{Start: 1.5, End: 1.5}).Unknown() {
		t.Error("equal-endpoint range should be Unknown")
	}
	if (Range{Start: 0, End: 0.9}).Unknown() {
		t.Error("a real span should not be Unknown")
	}
}

func TestRange_Union(t *testing.T) {
	got := (Range{Start: 1.2, End: 1.9}).Union(Range{Start: 0.5, End: 1.4})
	want := Range{Start: 0.5, End: 1.9}
	if !closeEnough(got.Start, want.Start) || !closeEnough(got.End, want.End) {
		t.Errorf("got %+v, want %+v", got, want)
	}

	// Unknown on either side defers entirely to the other.
	if got := (Range{}).Union(Range{Start: 1.0, End: 2.0}); got != (Range{Start: 1.0, End: 2.0}) {
		t.Errorf("got %+v, want the non-unknown operand", got)
	}
	if got := (Range{Start: 1.0, End: 2.0}).Union(Range{}); got != (Range{Start: 1.0, End: 2.0}) {
		t.Errorf("got %+v, want the non-unknown operand", got)
	}
}

// Timing monotonicity universal invariant (spec.md §8): for every i,
// sentence i's end must not exceed sentence i+1's start. An overrunning end
// is shrunk to the next sentence's start.
func TestEnforceMonotonic_ShrinksOverrunningEnd(t *testing.T) {
	items := []Indexed{
		{Index: 0, Timing: SentenceTiming{Range: Range{Start: 0.0, End: 2.0}}},
		{Index: 1, Timing: SentenceTiming{Range: Range{Start: 1.2, End: 2.8}}},
	}

	out := EnforceMonotonic(items)

	byIndex := map[int]SentenceTiming{}
	for _, o := range out {
		byIndex[o.Index] = o.Timing
	}
	if !closeEnough(byIndex[0].End, 1.2) {
		t.Errorf("got sentence 0 end %v, want shrunk to 1.2", byIndex[0].End)
	}
	if byIndex[0].Start > byIndex[1].Start {
		t.Fatalf("sentences were not sorted by start")
	}
	for i := 0; i < len(out)-1; i++ {
		if out[i].Timing.End > out[i+1].Timing.Start {
			t.Errorf("monotonicity violated: sentence %d ends at %v, sentence %d starts at %v",
				out[i].Index, out[i].Timing.End, out[i+1].Index, out[i+1].Timing.Start)
		}
	}
}

// Already-monotone, non-overlapping ranges must pass through unchanged.
func TestEnforceMonotonic_LeavesNonOverlappingRangesAlone(t *testing.T) {
	items := []Indexed{
		{Index: 0, Timing: SentenceTiming{Range: Range{Start: 0.0, End: 0.9}}},
		{Index: 1, Timing: SentenceTiming{Range: Range{Start: 1.2, End: 2.8}}},
	}

	out := EnforceMonotonic(items)

	for _, o := range out {
		want := items[o.Index].Timing
		if !closeEnough(o.Timing.Start, want.Start) || !closeEnough(o.Timing.End, want.End) {
			t.Errorf("sentence %d got %+v, want unchanged %+v", o.Index, o.Timing.Range, want.Range)
		}
	}
}

// An Unknown (degenerate) range must never be shrunk or treated as an
// overrun source.
func TestEnforceMonotonic_SkipsUnknownRanges(t *testing.T) {
	items := []Indexed{
		{Index: 0, Timing: SentenceTiming{Range: Range{Start: 0.0, End: 0.0}}},
		{Index: 1, Timing: SentenceTiming{Range: Range{Start: 1.0, End: 2.0}}},
	}

	out := EnforceMonotonic(items)

	for _, o := range out {
		if o.Index == 0 && !o.Timing.Unknown() {
			t.Errorf("unknown sentence timing should stay unknown, got %+v", o.Timing.Range)
		}
	}
}
