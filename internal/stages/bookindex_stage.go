// Package stages wires the seven pipeline.Stage implementations (spec.md
// §4.8) to the algorithm packages: bookindex, asr, anchor, align, rollup,
// textgrid, mfa. Stages close over the book-level dependencies a single
// `pipeline run` invocation needs (the manuscript path, the ASR/MFA/audio
// adapters, tunable parameters) so that Stage.Run's signature stays fixed
// to (ctx, *chapter.Context) across all seven, per spec.md §4.7.
package stages

import (
	"context"
	"sync"

	"github.com/narrationlab/bookalign/internal/bookindex"
	"github.com/narrationlab/bookalign/internal/chapter"
	"github.com/narrationlab/bookalign/internal/docparse"
	"github.com/narrationlab/bookalign/internal/text"
	"github.com/narrationlab/bookalign/internal/workspace"
)

// bookIndexHolder shares the one BookIndex a book-level pipeline run builds
// across every chapter's Anchors/Transcript/Hydrate/Merge stages. BookIndex
// is never saved per chapter (spec.md §4.7), so it lives here rather than
// in chapter.Documents.
type bookIndexHolder struct {
	mu  sync.RWMutex
	idx *bookindex.Index
}

func (h *bookIndexHolder) get() *bookindex.Index {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.idx
}

func (h *bookIndexHolder) set(idx *bookindex.Index) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.idx = idx
}

// BookIndexStage builds (or fetches from BookManager's cache) the book's
// BookIndex (spec.md §4.2).
type BookIndexStage struct {
	SourcePath string
	Options    bookindex.Options
	BookMgr    *workspace.BookManager
	holder     *bookIndexHolder
}

// NewBookIndexStage constructs the stage and returns the shared holder so
// downstream stages (Anchors, Transcript, Hydrate, Merge) can read the
// BookIndex it produces.
func NewBookIndexStage(sourcePath string, avgWPM int, stopwordSetID string, bookMgr *workspace.BookManager) (*BookIndexStage, *bookIndexHolder) {
	stop, ok := text.Lookup(stopwordSetID)
	if !ok {
		stop = text.Empty
	}
	holder := &bookIndexHolder{}
	return &BookIndexStage{
		SourcePath: sourcePath,
		Options:    bookindex.Options{SourceFile: sourcePath, AverageWPM: avgWPM, Stopwords: stop},
		BookMgr:    bookMgr,
		holder:     holder,
	}, holder
}

func (s *BookIndexStage) Name() string          { return "book_index" }
func (s *BookIndexStage) Dependencies() []string { return nil }
func (s *BookIndexStage) Params() any            { return s.Options }

func (s *BookIndexStage) ToolVersions() map[string]string {
	return map[string]string{"bookindex": text.Version}
}

func (s *BookIndexStage) Inputs(cctx *chapter.Context) ([]string, error) {
	return []string{s.SourcePath}, nil
}

func (s *BookIndexStage) Run(ctx context.Context, cctx *chapter.Context) error {
	idx, err := s.BookMgr.Get(s.SourcePath, func() (docparse.ParseResult, error) {
		parser, err := docparse.ForPath(s.SourcePath)
		if err != nil {
			return docparse.ParseResult{}, err
		}
		return parser.Parse(s.SourcePath)
	}, s.Options)
	if err != nil {
		return err
	}
	s.holder.set(idx)
	return nil
}
