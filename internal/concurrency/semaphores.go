// Package concurrency implements the named-semaphore resource model (spec.md
// §5) that bounds how many book-index builds, ASR calls, and MFA
// invocations may run at once across concurrently-running chapter
// pipelines.
package concurrency

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/narrationlab/bookalign/internal/mfa"
)

// Limits configures the three named semaphores and the MFA workspace pool
// (spec.md §5).
type Limits struct {
	AsrSlots        int64 // default: number of ASR engine slots, caller-supplied
	MfaWorkspaces   int   // default 2-4; also sizes MfaSemaphore
	MfaWorkspaceDir string // parent directory under which MFA_1, MFA_2, ... are created
}

// DefaultAsrSlots is used when Limits.AsrSlots is unset (<=0).
const DefaultAsrSlots = 2

// DefaultMfaWorkspaces is used when Limits.MfaWorkspaces is unset (<=0).
const DefaultMfaWorkspaces = 2

// Semaphores holds the three named weighted semaphores from spec.md §5,
// plus the MFA workspace pool that MfaSemaphore permits are paired with.
type Semaphores struct {
	BookIndex *semaphore.Weighted // permits = 1
	Asr       *semaphore.Weighted // permits = configurable ASR slots
	Mfa       *semaphore.Weighted // permits = size of MFA workspace pool
	Workspaces *WorkspacePool
}

// New builds the Semaphores set from Limits, filling in defaults for unset
// fields.
func New(limits Limits) *Semaphores {
	asrSlots := limits.AsrSlots
	if asrSlots <= 0 {
		asrSlots = DefaultAsrSlots
	}
	mfaSlots := limits.MfaWorkspaces
	if mfaSlots <= 0 {
		mfaSlots = DefaultMfaWorkspaces
	}

	return &Semaphores{
		BookIndex:  semaphore.NewWeighted(1),
		Asr:        semaphore.NewWeighted(asrSlots),
		Mfa:        semaphore.NewWeighted(int64(mfaSlots)),
		Workspaces: NewWorkspacePool(limits.MfaWorkspaceDir, mfaSlots),
	}
}

// AcquireBookIndex blocks (respecting ctx) until the single BookIndex-build
// permit is available.
func (s *Semaphores) AcquireBookIndex(ctx context.Context) error {
	return s.BookIndex.Acquire(ctx, 1)
}

// ReleaseBookIndex releases the BookIndex-build permit.
func (s *Semaphores) ReleaseBookIndex() { s.BookIndex.Release(1) }

// AcquireAsr blocks until an ASR call slot is available.
func (s *Semaphores) AcquireAsr(ctx context.Context) error {
	return s.Asr.Acquire(ctx, 1)
}

// ReleaseAsr releases an ASR call slot.
func (s *Semaphores) ReleaseAsr() { s.Asr.Release(1) }

// AcquireMfa blocks until both the MFA semaphore and a workspace directory
// are available, returning the acquired workspace. Callers must call
// ReleaseMfa(ws) exactly once, on every exit path including cancellation,
// so the workspace is returned to the pool.
func (s *Semaphores) AcquireMfa(ctx context.Context) (mfa.Workspace, error) {
	if err := s.Mfa.Acquire(ctx, 1); err != nil {
		return mfa.Workspace{}, err
	}
	ws, err := s.Workspaces.Acquire(ctx)
	if err != nil {
		s.Mfa.Release(1)
		return mfa.Workspace{}, err
	}
	return ws, nil
}

// ReleaseMfa returns ws to the pool and releases the MFA semaphore permit.
func (s *Semaphores) ReleaseMfa(ws mfa.Workspace) {
	s.Workspaces.Release(ws)
	s.Mfa.Release(1)
}
