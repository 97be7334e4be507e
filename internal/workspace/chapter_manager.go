package workspace

import (
	"context"
	"sync"

	"github.com/narrationlab/bookalign/internal/chapter"
	"github.com/narrationlab/bookalign/internal/errs"
)

// OpenPolicy controls what a second concurrent Open call for the same
// chapter does while the first holder has not yet Released (spec.md
// §4.10: "second opener waits or fails fast by policy").
type OpenPolicy int

const (
	// OpenWait blocks the second opener until the first Handle is released.
	OpenWait OpenPolicy = iota
	// OpenFailFast returns errs.IOError immediately instead of blocking.
	OpenFailFast
)

// chapterLock is the per-chapter exclusivity gate: a buffered channel of
// capacity 1 used as a non-blocking-checkable mutex, so OpenFailFast can
// distinguish "already held" from blocking.
type chapterLock chan struct{}

func newChapterLock() chapterLock {
	l := make(chapterLock, 1)
	l <- struct{}{}
	return l
}

// ChapterManager mediates exclusive chapter.Context ownership across
// concurrent callers, one lock per chapter ID (spec.md §4.10).
type ChapterManager struct {
	mu    sync.Mutex
	locks map[string]chapterLock
}

// NewChapterManager returns an empty ChapterManager.
func NewChapterManager() *ChapterManager {
	return &ChapterManager{locks: make(map[string]chapterLock)}
}

func (cm *ChapterManager) lockFor(chapterID string) chapterLock {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	l, ok := cm.locks[chapterID]
	if !ok {
		l = newChapterLock()
		cm.locks[chapterID] = l
	}
	return l
}

// Open acquires exclusive access to chapterID's Context, wired to the
// conventional document-slot paths under chapterDir, and returns a Handle
// whose Release both saves dirty slots and frees the per-chapter lock.
func (cm *ChapterManager) Open(ctx context.Context, chapterID, chapterDir string, policy OpenPolicy) (*chapter.Handle, error) {
	l := cm.lockFor(chapterID)

	switch policy {
	case OpenFailFast:
		select {
		case <-l:
		default:
			return nil, errs.New(errs.IOError, chapterID, "workspace", "chapter already open", nil)
		}
	default: // OpenWait
		select {
		case <-l:
		case <-ctx.Done():
			return nil, errs.New(errs.Cancelled, chapterID, "workspace", "cancelled waiting for chapter lock", ctx.Err())
		}
	}

	cctx := chapter.NewContext(chapterID, chapterDir)
	return chapter.NewHandle(cctx, func() { l <- struct{}{} }), nil
}
