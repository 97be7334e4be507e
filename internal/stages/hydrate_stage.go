package stages

import (
	"context"

	"github.com/narrationlab/bookalign/internal/align"
	"github.com/narrationlab/bookalign/internal/chapter"
	"github.com/narrationlab/bookalign/internal/errs"
	"github.com/narrationlab/bookalign/internal/fingerprint"
	"github.com/narrationlab/bookalign/internal/rollup"
)

// HydrateStage enriches the TranscriptIndex with original book/ASR text,
// per-word timing, and diff strings (spec.md §4.5).
type HydrateStage struct {
	holder     *bookIndexHolder
	sourcePath string
}

// NewHydrateStage wires the stage to the BookIndex holder and the book's
// source path, for fingerprint inputs.
func NewHydrateStage(holder *bookIndexHolder, sourcePath string) *HydrateStage {
	return &HydrateStage{holder: holder, sourcePath: sourcePath}
}

func (s *HydrateStage) Name() string { return string(fingerprint.StageHydrate) }
func (s *HydrateStage) Dependencies() []string {
	return []string{string(fingerprint.StageTranscript)}
}
func (s *HydrateStage) Params() any { return struct{}{} }

func (s *HydrateStage) ToolVersions() map[string]string {
	return map[string]string{"rollup": "rollup-v1"}
}

func (s *HydrateStage) Inputs(cctx *chapter.Context) ([]string, error) {
	return []string{s.sourcePath, cctx.Docs.Asr.Path(), cctx.Docs.Transcript.Path()}, nil
}

func (s *HydrateStage) Run(ctx context.Context, cctx *chapter.Context) error {
	idx := s.holder.get()
	if idx == nil {
		return errs.New(errs.InputMissing, cctx.ChapterID, s.Name(), "book index not built before hydrate stage", nil)
	}
	resp, err := cctx.Docs.Asr.Get()
	if err != nil {
		return err
	}
	ti, err := cctx.Docs.Transcript.Get()
	if err != nil {
		return err
	}

	ops := make([]align.WordOp, len(ti.Words))
	for i, w := range ti.Words {
		ops[i] = align.WordOp{Kind: align.OpKind(w.Kind), BookIdx: w.BookIdx, AsrIdx: w.AsrIdx, Score: w.Score}
	}

	transcript := rollup.Hydrate(idx, resp, ops, ti)
	cctx.Docs.Hydrated.Set(transcript)
	return nil
}
