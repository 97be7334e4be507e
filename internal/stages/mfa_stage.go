package stages

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/narrationlab/bookalign/internal/asr"
	"github.com/narrationlab/bookalign/internal/audio"
	"github.com/narrationlab/bookalign/internal/chapter"
	"github.com/narrationlab/bookalign/internal/errs"
	"github.com/narrationlab/bookalign/internal/fingerprint"
	"github.com/narrationlab/bookalign/internal/mfa"
	"github.com/narrationlab/bookalign/internal/pipeline"
	"github.com/narrationlab/bookalign/internal/textgrid"
)

// mfaParams is the stage's fingerprint parameter record.
type mfaParams struct {
	AcousticModel string `json:"acoustic_model"`
	Dictionary    string `json:"dictionary"`
}

// MfaStage stages a corpus directory and .lab transcript for a chapter,
// invokes the forced aligner, and parses the resulting TextGrid (spec.md
// §4.12). It requires a workspace acquired by the orchestrator's MfaSemaphore
// (pipeline.WorkspaceFromContext).
type MfaStage struct {
	Adapter       mfa.Mfa
	Codec         audio.Codec
	AudioPath     func(cctx *chapter.Context) string
	AcousticModel string
	Dictionary    string
}

func (s *MfaStage) Name() string          { return string(fingerprint.StageMfa) }
func (s *MfaStage) Dependencies() []string { return []string{string(fingerprint.StageAsr)} }
func (s *MfaStage) Params() any {
	return mfaParams{AcousticModel: s.AcousticModel, Dictionary: s.Dictionary}
}

func (s *MfaStage) ToolVersions() map[string]string {
	return map[string]string{"mfa": s.Adapter.Version()}
}

func (s *MfaStage) Inputs(cctx *chapter.Context) ([]string, error) {
	path := s.AudioPath(cctx)
	if path == "" {
		return nil, errs.New(errs.InputMissing, cctx.ChapterID, s.Name(), "no raw audio resolved for mfa stage", nil)
	}
	return []string{path, cctx.Docs.Asr.Path()}, nil
}

func (s *MfaStage) Run(ctx context.Context, cctx *chapter.Context) error {
	ws, ok := pipeline.WorkspaceFromContext(ctx)
	if !ok {
		return errs.New(errs.Cancelled, cctx.ChapterID, s.Name(), "no mfa workspace acquired for stage run", nil)
	}

	resp, err := cctx.Docs.Asr.Get()
	if err != nil {
		return err
	}

	corpusDir := filepath.Join(cctx.ChapterDir, "alignment", "corpus")
	mfaDir := filepath.Join(cctx.ChapterDir, "alignment", "mfa")
	if err := os.MkdirAll(corpusDir, 0o755); err != nil {
		return errs.New(errs.IOError, cctx.ChapterID, s.Name(), "failed creating corpus directory", err)
	}
	if err := os.MkdirAll(mfaDir, 0o755); err != nil {
		return errs.New(errs.IOError, cctx.ChapterID, s.Name(), "failed creating mfa output directory", err)
	}

	corpusAudio := filepath.Join(corpusDir, cctx.ChapterID+".wav")
	if err := s.stageCorpusAudio(cctx, corpusAudio); err != nil {
		return err
	}

	text := corpusText(resp)
	labFile := filepath.Join(corpusDir, cctx.ChapterID+".lab")
	if err := os.WriteFile(labFile, []byte(text), 0o644); err != nil {
		return errs.New(errs.IOError, cctx.ChapterID, s.Name(), "failed writing lab file", err)
	}
	corpusTxt := filepath.Join(cctx.ChapterDir, cctx.ChapterID+".asr.corpus.txt")
	if err := os.WriteFile(corpusTxt, []byte(text), 0o644); err != nil {
		return errs.New(errs.IOError, cctx.ChapterID, s.Name(), "failed writing asr corpus text", err)
	}

	dictionaryZip := filepath.Join(mfaDir, cctx.ChapterID+".dictionary.zip")
	outTextGrid := filepath.Join(mfaDir, cctx.ChapterID+".TextGrid")

	if err := s.Adapter.Validate(ctx, ws); err != nil {
		return errs.New(errs.ToolUnavailable, cctx.ChapterID, s.Name(), "mfa validate failed", err)
	}

	req := mfa.AlignRequest{
		CorpusDir:     corpusDir,
		LabFile:       labFile,
		AudioFile:     corpusAudio,
		DictionaryZip: dictionaryZip,
		OutTextGrid:   outTextGrid,
		Workspace:     ws,
	}
	if err := s.Adapter.Align(ctx, req); err != nil {
		return errs.New(errs.ToolExitNonZero, cctx.ChapterID, s.Name(), "mfa align failed", err)
	}

	doc, err := textgrid.Parse(outTextGrid)
	if err != nil {
		return errs.New(errs.InputInvalid, cctx.ChapterID, s.Name(), "failed parsing mfa output TextGrid", err)
	}
	cctx.Docs.TextGrid.Set(doc)
	return nil
}

// stageCorpusAudio decodes the chapter's raw audio and re-encodes it into
// the corpus directory at the canonical mastering format (spec.md §6:
// 44.1kHz 16-bit PCM), so MFA always sees a consistent sample rate.
func (s *MfaStage) stageCorpusAudio(cctx *chapter.Context, dest string) error {
	raw := s.AudioPath(cctx)
	buf, err := s.Codec.Decode(raw)
	if err != nil {
		return errs.New(errs.ToolUnavailable, cctx.ChapterID, s.Name(), "failed decoding raw audio", err)
	}
	resampled, err := s.Codec.Resample(buf, audio.DefaultEncodeOptions().SampleRate)
	if err != nil {
		return errs.New(errs.ToolExitNonZero, cctx.ChapterID, s.Name(), "failed resampling audio for mfa corpus", err)
	}
	if err := s.Codec.EncodeWAV(dest, resampled, audio.DefaultEncodeOptions()); err != nil {
		return errs.New(errs.IOError, cctx.ChapterID, s.Name(), "failed encoding mfa corpus wav", err)
	}
	return nil
}

// corpusText joins ASR token text into the plain-text transcript MFA's .lab
// format expects (spec.md §6: "<chapter-id>.asr.corpus.txt").
func corpusText(resp asr.Response) string {
	words := make([]string, 0, len(resp.Tokens))
	for _, t := range resp.Tokens {
		if t.Text == "" {
			continue
		}
		words = append(words, t.Text)
	}
	return strings.Join(words, " ")
}
