package stages

import (
	"context"
	"time"

	"github.com/narrationlab/bookalign/internal/align"
	"github.com/narrationlab/bookalign/internal/chapter"
	"github.com/narrationlab/bookalign/internal/errs"
	"github.com/narrationlab/bookalign/internal/fingerprint"
	"github.com/narrationlab/bookalign/internal/rollup"
)

// transcriptParams is the stage's fingerprint parameter record (spec.md
// §4.9: "params_hash is the SHA-256 of the canonical serialization of the
// stage's parameter record").
type transcriptParams struct {
	Costs align.Costs `json:"costs"`
}

// TranscriptStage runs the windowed aligner between anchors and rolls the
// resulting word ops up into sentence/paragraph alignment records (spec.md
// §4.4, §4.5).
type TranscriptStage struct {
	holder         *bookIndexHolder
	sourcePath     string
	audioPath      func(cctx *chapter.Context) string
	Costs          align.Costs
}

// NewTranscriptStage wires the stage to the BookIndex holder, the book's
// source path (for fingerprint inputs), and a per-chapter audio path
// resolver.
func NewTranscriptStage(holder *bookIndexHolder, sourcePath string, audioPath func(cctx *chapter.Context) string, costs align.Costs) *TranscriptStage {
	return &TranscriptStage{holder: holder, sourcePath: sourcePath, audioPath: audioPath, Costs: costs}
}

func (s *TranscriptStage) Name() string { return string(fingerprint.StageTranscript) }
func (s *TranscriptStage) Dependencies() []string {
	return []string{string(fingerprint.StageAnchors)}
}
func (s *TranscriptStage) Params() any { return transcriptParams{Costs: s.Costs} }

func (s *TranscriptStage) ToolVersions() map[string]string {
	return map[string]string{"align": "align-dp-v1"}
}

func (s *TranscriptStage) Inputs(cctx *chapter.Context) ([]string, error) {
	return []string{s.sourcePath, cctx.Docs.Asr.Path(), cctx.Docs.Anchors.Path()}, nil
}

func (s *TranscriptStage) Run(ctx context.Context, cctx *chapter.Context) error {
	idx := s.holder.get()
	if idx == nil {
		return errs.New(errs.InputMissing, cctx.ChapterID, s.Name(), "book index not built before transcript stage", nil)
	}
	resp, err := cctx.Docs.Asr.Get()
	if err != nil {
		return err
	}
	anchorDoc, err := cctx.Docs.Anchors.Get()
	if err != nil {
		return err
	}

	ops := align.AlignWindows(idx, resp, anchorDoc, s.Costs)

	ti := rollup.Rollup(idx, resp, ops, s.audioPath(cctx), s.sourcePath, s.sourcePath, time.Now().UTC().Format(time.RFC3339))
	cctx.Docs.Transcript.Set(ti)
	return nil
}
