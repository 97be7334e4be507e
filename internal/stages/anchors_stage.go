package stages

import (
	"context"
	"errors"

	"github.com/narrationlab/bookalign/internal/anchor"
	"github.com/narrationlab/bookalign/internal/chapter"
	"github.com/narrationlab/bookalign/internal/errs"
	"github.com/narrationlab/bookalign/internal/fingerprint"
)

// AnchorsStage mines sync-points between the book and the ASR transcript
// (spec.md §4.3).
type AnchorsStage struct {
	holder     *bookIndexHolder
	sourcePath string
	Policy     anchor.Policy
}

// NewAnchorsStage wires the stage to the holder BookIndexStage populates.
// sourcePath names the book manuscript file, so the stage's declared
// inputs cover the book side of its fingerprint (spec.md §4.9: "for
// transcript stages it includes BookIndex and AsrResponse hashes").
func NewAnchorsStage(holder *bookIndexHolder, sourcePath string, policy anchor.Policy) *AnchorsStage {
	return &AnchorsStage{holder: holder, sourcePath: sourcePath, Policy: policy}
}

func (s *AnchorsStage) Name() string { return string(fingerprint.StageAnchors) }
func (s *AnchorsStage) Dependencies() []string {
	return []string{string(fingerprint.StageBookIndex), string(fingerprint.StageAsr)}
}
func (s *AnchorsStage) Params() any { return s.Policy }

func (s *AnchorsStage) ToolVersions() map[string]string {
	return map[string]string{"anchor": "anchor-v1"}
}

func (s *AnchorsStage) Inputs(cctx *chapter.Context) ([]string, error) {
	return []string{s.sourcePath, cctx.Docs.Asr.Path()}, nil
}

func (s *AnchorsStage) Run(ctx context.Context, cctx *chapter.Context) error {
	idx := s.holder.get()
	if idx == nil {
		return errs.New(errs.InputMissing, cctx.ChapterID, s.Name(), "book index not built before anchors stage", nil)
	}
	resp, err := cctx.Docs.Asr.Get()
	if err != nil {
		return err
	}

	doc, err := anchor.Mine(idx, resp, s.Policy)
	if err != nil {
		// Fewer than two anchors: fall back to one whole-chapter window. The
		// lone synthetic (0,0) anchor makes AlignWindows' trailing window span
		// both sequences end to end.
		var insufficient *anchor.InsufficientAnchorsError
		if !errors.As(err, &insufficient) {
			return err
		}
		doc = anchor.Document{
			Anchors: []anchor.Anchor{{BookPosition: 0, AsrPosition: 0}},
			Policy:  s.Policy,
			Stats:   anchor.Stats{SelectedCount: 1},
		}
	}
	cctx.Docs.Anchors.Set(doc)
	return nil
}
