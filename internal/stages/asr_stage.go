package stages

import (
	"context"
	"fmt"

	"github.com/narrationlab/bookalign/internal/asr"
	"github.com/narrationlab/bookalign/internal/chapter"
	"github.com/narrationlab/bookalign/internal/fingerprint"
)

// AsrStage transcribes a chapter's audio via the configured ASR adapter
// (spec.md §4.12) and stores the AsrResponse into the chapter's Asr slot.
type AsrStage struct {
	Adapter   asr.Asr
	AudioPath func(cctx *chapter.Context) string
	Options   asr.Options
}

func (s *AsrStage) Name() string          { return string(fingerprint.StageAsr) }
func (s *AsrStage) Dependencies() []string { return []string{string(fingerprint.StageBookIndex)} }
func (s *AsrStage) Params() any            { return s.Options }

func (s *AsrStage) ToolVersions() map[string]string {
	return map[string]string{"asr": s.Adapter.ModelVersion()}
}

func (s *AsrStage) Inputs(cctx *chapter.Context) ([]string, error) {
	path := s.AudioPath(cctx)
	if path == "" {
		return nil, fmt.Errorf("asr stage: no raw audio resolved for chapter %s", cctx.ChapterID)
	}
	return []string{path}, nil
}

func (s *AsrStage) Run(ctx context.Context, cctx *chapter.Context) error {
	path := s.AudioPath(cctx)
	resp, err := s.Adapter.Transcribe(ctx, path, s.Options)
	if err != nil {
		return err
	}
	cctx.Docs.Asr.Set(resp)
	return nil
}
