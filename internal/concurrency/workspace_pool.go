package concurrency

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/narrationlab/bookalign/internal/errs"
	"github.com/narrationlab/bookalign/internal/mfa"
)

// WorkspacePool is a finite set of isolated MFA workspace directories
// (`MFA_1`, `MFA_2`, ...) handed out one at a time, paired with
// MfaSemaphore permits (spec.md §5).
type WorkspacePool struct {
	free chan mfa.Workspace
}

// NewWorkspacePool seeds the pool with n workspace directory paths under
// parentDir. It does not touch the disk; Acquire creates a directory the
// first time it hands it out.
func NewWorkspacePool(parentDir string, n int) *WorkspacePool {
	pool := &WorkspacePool{free: make(chan mfa.Workspace, n)}
	for i := 1; i <= n; i++ {
		dir := filepath.Join(parentDir, fmt.Sprintf("MFA_%d", i))
		pool.free <- mfa.Workspace{Dir: dir}
	}
	return pool
}

// Acquire blocks (respecting ctx) until a workspace directory is free,
// ensuring it exists on disk before returning it.
func (p *WorkspacePool) Acquire(ctx context.Context) (mfa.Workspace, error) {
	select {
	case ws := <-p.free:
		if err := os.MkdirAll(ws.Dir, 0o755); err != nil {
			p.free <- ws
			return mfa.Workspace{}, errs.New(errs.IOError, "", "concurrency", "failed creating mfa workspace dir "+ws.Dir, err)
		}
		return ws, nil
	case <-ctx.Done():
		return mfa.Workspace{}, errs.New(errs.Cancelled, "", "concurrency", "cancelled waiting for mfa workspace", ctx.Err())
	}
}

// Release returns ws to the pool for reuse. Callers are expected to have
// cleaned its contents (or rely on the next acquirer's tool invocation to
// overwrite them); Release itself does not delete files, only recycles the
// slot.
func (p *WorkspacePool) Release(ws mfa.Workspace) {
	p.free <- ws
}
