package concurrency

import (
	"context"
	"testing"
	"time"
)

func TestSemaphores_DefaultsApplied(t *testing.T) {
	sems := New(Limits{})
	if sems.Asr.TryAcquire(DefaultAsrSlots) {
		sems.Asr.Release(DefaultAsrSlots)
	} else {
		t.Fatalf("expected default ASR slots of %d to be acquirable at once", DefaultAsrSlots)
	}
	if sems.Mfa.TryAcquire(int64(DefaultMfaWorkspaces)) {
		sems.Mfa.Release(int64(DefaultMfaWorkspaces))
	} else {
		t.Fatalf("expected default MFA workspace count of %d to be acquirable at once", DefaultMfaWorkspaces)
	}
}

func TestSemaphores_BookIndexIsExclusive(t *testing.T) {
	sems := New(Limits{})
	ctx := context.Background()
	if err := sems.AcquireBookIndex(ctx); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	defer sems.ReleaseBookIndex()

	if sems.BookIndex.TryAcquire(1) {
		t.Fatal("expected the single book-index permit to already be held")
	}
}

func TestSemaphores_AsrRespectsLimit(t *testing.T) {
	sems := New(Limits{AsrSlots: 1})
	ctx := context.Background()

	if err := sems.AcquireAsr(ctx); err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if err := sems.AcquireAsr(waitCtx); err == nil {
		t.Fatal("expected second concurrent acquire to block past the limit and time out")
	}

	sems.ReleaseAsr()
	if err := sems.AcquireAsr(ctx); err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	sems.ReleaseAsr()
}

func TestSemaphores_AcquireBookIndexRespectsCancellation(t *testing.T) {
	sems := New(Limits{})
	ctx := context.Background()
	if err := sems.AcquireBookIndex(ctx); err != nil {
		t.Fatal(err)
	}
	defer sems.ReleaseBookIndex()

	cancelCtx, cancel := context.WithCancel(ctx)
	cancel()
	if err := sems.AcquireBookIndex(cancelCtx); err == nil {
		t.Fatal("expected cancelled context to abort the wait")
	}
}

func TestSemaphores_MfaAcquireReleaseRoundTrips(t *testing.T) {
	dir := t.TempDir()
	sems := New(Limits{MfaWorkspaces: 1, MfaWorkspaceDir: dir})
	ctx := context.Background()

	ws, err := sems.AcquireMfa(ctx)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if ws.Dir == "" {
		t.Fatal("expected a non-empty workspace directory")
	}
	sems.ReleaseMfa(ws)

	ws2, err := sems.AcquireMfa(ctx)
	if err != nil {
		t.Fatalf("second acquire after release: %v", err)
	}
	if ws2.Dir != ws.Dir {
		t.Fatalf("expected the single pooled workspace to be reused, got %q then %q", ws.Dir, ws2.Dir)
	}
	sems.ReleaseMfa(ws2)
}
