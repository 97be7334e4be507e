package stages

import (
	"time"

	"github.com/narrationlab/bookalign/internal/align"
	"github.com/narrationlab/bookalign/internal/anchor"
	"github.com/narrationlab/bookalign/internal/asr"
	"github.com/narrationlab/bookalign/internal/audio"
	"github.com/narrationlab/bookalign/internal/chapter"
	"github.com/narrationlab/bookalign/internal/config"
	"github.com/narrationlab/bookalign/internal/mfa"
	"github.com/narrationlab/bookalign/internal/pipeline"
	"github.com/narrationlab/bookalign/internal/textgrid"
	"github.com/narrationlab/bookalign/internal/workspace"
)

// rawAudioPath resolves a chapter's raw audio buffer from its discovered
// descriptor (spec.md §4.10). Stages receive this as a closure rather than
// a fixed path because the same *Stage instance runs once per chapter in a
// book-level pipeline run.
func rawAudioPath(descriptors map[string]workspace.ChapterDescriptor) func(cctx *chapter.Context) string {
	return func(cctx *chapter.Context) string {
		d, ok := descriptors[cctx.ChapterID]
		if !ok {
			return ""
		}
		return d.Audio[workspace.AudioRaw]
	}
}

// BuildRegistry wires the seven stages into a pipeline.Registry for one
// book run, resolving the ASR/MFA/audio-codec adapters from cfg (spec.md
// §4.12). descriptors lists each chapter with its discovered audio
// (typically from workspace.Discover).
func BuildRegistry(sourcePath string, descriptors []workspace.ChapterDescriptor, bookMgr *workspace.BookManager, cfg *config.Config) (*pipeline.Registry, error) {
	byID := make(map[string]workspace.ChapterDescriptor, len(descriptors))
	for _, d := range descriptors {
		byID[d.ChapterID] = d
	}
	audioPath := rawAudioPath(byID)

	bookIndexStage, holder := NewBookIndexStage(sourcePath, int(cfg.BookIndex.AverageWPM), cfg.Anchor.StopwordSetID, bookMgr)

	asrAdapter := buildAsrAdapter(cfg.Asr)
	asrStage := &AsrStage{
		Adapter:   asrAdapter,
		AudioPath: audioPath,
		Options:   asr.Options{},
	}

	anchorPolicy := anchor.Policy{
		NgramN:                cfg.Anchor.NgramN,
		TargetDensity:         cfg.Anchor.TargetDensity,
		MinSeparation:         cfg.Anchor.MinSeparation,
		StopwordSetID:         cfg.Anchor.StopwordSetID,
		DisallowBoundaryCross: cfg.Anchor.DisallowBoundaryCross,
	}
	anchorsStage := NewAnchorsStage(holder, sourcePath, anchorPolicy)

	costs := align.Costs{CostSub: cfg.Align.CostSub, CostIns: cfg.Align.CostIns, CostDel: cfg.Align.CostDel}
	transcriptStage := NewTranscriptStage(holder, sourcePath, audioPath, costs)

	hydrateStage := NewHydrateStage(holder, sourcePath)

	codec := audio.NewFFmpegCodec()
	mfaAdapter, err := buildMfaAdapter(cfg.Mfa)
	if err != nil {
		return nil, err
	}
	mfaStage := &MfaStage{
		Adapter:       mfaAdapter,
		Codec:         codec,
		AudioPath:     audioPath,
		AcousticModel: cfg.Mfa.AcousticModel,
		Dictionary:    cfg.Mfa.Dictionary,
	}

	mergeStage := NewMergeStage(holder, textgrid.Options{WildMatchWindow: cfg.TextGrid.WildMatchWindow})

	reg := pipeline.NewRegistry()
	for _, s := range []pipeline.Stage{bookIndexStage, asrStage, anchorsStage, transcriptStage, hydrateStage, mfaStage, mergeStage} {
		if err := reg.Register(s); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func buildAsrAdapter(cfg config.AsrConfig) asr.Asr {
	return asr.NewOpenAIAsr(asr.OpenAIConfig{
		APIKey:     config.ResolveEnvVars(cfg.APIKey),
		Model:      cfg.Model,
		RateLimit:  cfg.RateLimitPerSec,
		MaxRetries: int(cfg.MaxRetries),
		RetryDelay: time.Duration(cfg.RetryDelaySec * float64(time.Second)),
		Timeout:    time.Duration(cfg.TimeoutSec * float64(time.Second)),
	})
}

func buildMfaAdapter(cfg config.MfaConfig) (mfa.Mfa, error) {
	if cfg.UseDocker {
		return mfa.NewDockerMfa(mfa.DockerMfaConfig{
			Image:         cfg.DockerImage,
			AcousticModel: cfg.AcousticModel,
			Dictionary:    cfg.Dictionary,
		})
	}
	return mfa.NewExecMfa(cfg.AcousticModel, cfg.Dictionary), nil
}
