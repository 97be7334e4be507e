package concurrency

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
)

func TestRunChapters_RunsAllAndReturnsNil(t *testing.T) {
	var count int64
	ids := []string{"a", "b", "c", "d"}
	err := RunChapters(context.Background(), ids, 0, func(ctx context.Context, id string) error {
		atomic.AddInt64(&count, 1)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != int64(len(ids)) {
		t.Fatalf("got %d invocations, want %d", count, len(ids))
	}
}

func TestRunChapters_PropagatesFirstError(t *testing.T) {
	wantErr := errors.New("chapter boom")
	ids := []string{"a", "b"}
	err := RunChapters(context.Background(), ids, 0, func(ctx context.Context, id string) error {
		if id == "b" {
			return wantErr
		}
		return nil
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want %v", err, wantErr)
	}
}

func TestRunChapters_RespectsMaxConcurrent(t *testing.T) {
	var active, maxSeen int64
	ids := []string{"a", "b", "c", "d", "e", "f"}
	err := RunChapters(context.Background(), ids, 2, func(ctx context.Context, id string) error {
		n := atomic.AddInt64(&active, 1)
		defer atomic.AddInt64(&active, -1)
		for {
			m := atomic.LoadInt64(&maxSeen)
			if n <= m || atomic.CompareAndSwapInt64(&maxSeen, m, n) {
				break
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if maxSeen > 2 {
		t.Fatalf("saw %d concurrent chapters, want at most 2", maxSeen)
	}
}

func TestRunChapters_CancelledContextReturnsError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var count int64
	ids := []string{"a", "b", "c"}
	err := RunChapters(ctx, ids, 1, func(ctx context.Context, id string) error {
		atomic.AddInt64(&count, 1)
		return ctx.Err()
	})
	if err == nil {
		t.Fatal("expected an error from a pre-cancelled context")
	}
}

// scenario 6 of spec.md §8: 8 equal-sized chapters fanned out with the ASR
// semaphore capped at 2 — at most 2 chapters may hold an ASR permit at any
// instant, and every chapter still completes exactly once (the deterministic
// final state a serial run would also reach, just interleaved differently).
func TestRunChapters_WithAsrSemaphoreNeverExceedsTwoConcurrent(t *testing.T) {
	sems := New(Limits{AsrSlots: 2})
	ids := []string{"ch1", "ch2", "ch3", "ch4", "ch5", "ch6", "ch7", "ch8"}

	var active, maxSeen int64
	var mu sync.Mutex
	var completed []string

	err := RunChapters(context.Background(), ids, 0, func(ctx context.Context, id string) error {
		if err := sems.AcquireAsr(ctx); err != nil {
			return err
		}
		defer sems.ReleaseAsr()

		n := atomic.AddInt64(&active, 1)
		defer atomic.AddInt64(&active, -1)
		for {
			m := atomic.LoadInt64(&maxSeen)
			if n <= m || atomic.CompareAndSwapInt64(&maxSeen, m, n) {
				break
			}
		}

		mu.Lock()
		completed = append(completed, id)
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if maxSeen > 2 {
		t.Fatalf("saw %d chapters holding an ASR permit concurrently, want at most 2", maxSeen)
	}

	sort.Strings(completed)
	want := append([]string(nil), ids...)
	sort.Strings(want)
	if len(completed) != len(want) {
		t.Fatalf("got %d completed chapters, want %d", len(completed), len(want))
	}
	for i := range want {
		if completed[i] != want[i] {
			t.Fatalf("got completed set %v, want every chapter exactly once: %v", completed, want)
		}
	}
}
