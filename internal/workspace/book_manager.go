package workspace

import (
	"sync"

	"github.com/narrationlab/bookalign/internal/bookindex"
	"github.com/narrationlab/bookalign/internal/docparse"
	"github.com/narrationlab/bookalign/internal/errs"
	"github.com/narrationlab/bookalign/internal/fingerprint"
)

// BookManager memoizes the parsed BookIndex for a manuscript, keyed by the
// source file's content hash, so repeated chapter runs within one process
// never re-parse or re-segment the book (spec.md §4.10).
type BookManager struct {
	mu    sync.Mutex
	cache map[string]*bookIndexCacheEntry // sourcePath -> entry
}

// NewBookManager returns an empty BookManager.
func NewBookManager() *BookManager {
	return &BookManager{cache: make(map[string]*bookIndexCacheEntry)}
}

// Get returns the cached BookIndex for sourcePath if its content hash still
// matches, otherwise parses and builds a fresh one via parse/build and
// caches it.
func (bm *BookManager) Get(sourcePath string, parse func() (docparse.ParseResult, error), opts bookindex.Options) (*bookindex.Index, error) {
	hash, err := fingerprint.HashFile(sourcePath)
	if err != nil {
		return nil, err
	}

	bm.mu.Lock()
	entry, ok := bm.cache[sourcePath]
	bm.mu.Unlock()
	if ok && entry.sourceHash == hash {
		return entry.index, nil
	}

	parsed, err := parse()
	if err != nil {
		return nil, errs.New(errs.InputInvalid, "", "workspace", "failed parsing book source "+sourcePath, err)
	}
	idx, err := bookindex.Build(parsed, opts)
	if err != nil {
		return nil, err
	}

	bm.mu.Lock()
	bm.cache[sourcePath] = &bookIndexCacheEntry{sourceHash: hash, index: idx}
	bm.mu.Unlock()
	return idx, nil
}

// Invalidate drops any cached BookIndex for sourcePath, forcing the next
// Get to reparse regardless of hash.
func (bm *BookManager) Invalidate(sourcePath string) {
	bm.mu.Lock()
	delete(bm.cache, sourcePath)
	bm.mu.Unlock()
}
