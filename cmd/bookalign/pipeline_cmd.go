package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/narrationlab/bookalign/internal/concurrency"
	"github.com/narrationlab/bookalign/internal/errs"
	"github.com/narrationlab/bookalign/internal/fingerprint"
	"github.com/narrationlab/bookalign/internal/pipeline"
	"github.com/narrationlab/bookalign/internal/stages"
	"github.com/narrationlab/bookalign/internal/workspace"
)

var (
	pipelineBook           string
	pipelineAudio          string
	pipelineChapter        string
	pipelineAll            bool
	pipelineFrom           string
	pipelineTo             string
	pipelineForce          bool
	pipelineAsrConcurrency int64
	pipelineMfaConcurrency int64
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run the seven-stage alignment pipeline",
}

var pipelineRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run pipeline stages for one chapter or the whole book",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd.Context())
	},
}

func init() {
	pipelineCmd.AddCommand(pipelineRunCmd)

	pipelineRunCmd.Flags().StringVar(&pipelineBook, "book", "", "path to the book manuscript")
	pipelineRunCmd.Flags().StringVar(&pipelineAudio, "audio", "", "path to the book's audio root directory")
	pipelineRunCmd.Flags().StringVar(&pipelineChapter, "chapter", "", "chapter id to run")
	pipelineRunCmd.Flags().BoolVar(&pipelineAll, "all", false, "run every discovered chapter")
	pipelineRunCmd.Flags().StringVar(&pipelineFrom, "from", "", "first stage to run (default: from the beginning)")
	pipelineRunCmd.Flags().StringVar(&pipelineTo, "to", "", "last stage to run (default: through the end)")
	pipelineRunCmd.Flags().BoolVar(&pipelineForce, "force", false, "ignore fingerprint match and re-run")
	pipelineRunCmd.Flags().Int64Var(&pipelineAsrConcurrency, "asr-concurrency", 0, "override concurrent ASR call limit")
	pipelineRunCmd.Flags().Int64Var(&pipelineMfaConcurrency, "mfa-concurrency", 0, "override concurrent MFA workspace limit")

	_ = pipelineRunCmd.MarkFlagRequired("book")
	_ = pipelineRunCmd.MarkFlagRequired("audio")
}

func runPipeline(ctx context.Context) error {
	if pipelineChapter == "" && !pipelineAll {
		return errs.New(errs.InputMissing, "", "cli", "one of --chapter or --all is required", nil)
	}

	startStage, err := stageFromFlag(pipelineFrom)
	if err != nil {
		return err
	}
	endStage, err := stageFromFlag(pipelineTo)
	if err != nil {
		return err
	}

	_, cfgMgr, err := loadServices()
	if err != nil {
		return err
	}
	cfg := cfgMgr.Get()

	descriptors, err := workspace.Discover(pipelineAudio)
	if err != nil {
		return err
	}

	bookMgr := workspace.NewBookManager()
	registry, err := stages.BuildRegistry(pipelineBook, descriptors, bookMgr, cfg)
	if err != nil {
		return err
	}

	sems := semaphoresFrom(cfg, pipelineAsrConcurrency, pipelineMfaConcurrency)
	orch := pipeline.NewOrchestrator(registry, sems, nil)

	chapterMgr := workspace.NewChapterManager()
	opts := pipeline.RunOptions{StartStage: startStage, EndStage: endStage, Force: pipelineForce}

	targets := descriptors
	if !pipelineAll {
		targets = nil
		for _, d := range descriptors {
			if d.ChapterID == pipelineChapter {
				targets = append(targets, d)
			}
		}
		if len(targets) == 0 {
			return errs.New(errs.InputMissing, pipelineChapter, "cli", "chapter not found under "+pipelineAudio, nil)
		}
	}

	chapterIDs := make([]string, len(targets))
	byID := make(map[string]workspace.ChapterDescriptor, len(targets))
	for i, d := range targets {
		chapterIDs[i] = d.ChapterID
		byID[d.ChapterID] = d
	}

	// Chapter fan-out itself is unbounded; the per-resource semaphores
	// (ASR/MFA/BookIndex) are what actually cap concurrent external work.
	return concurrency.RunChapters(ctx, chapterIDs, 0, func(ctx context.Context, chapterID string) error {
		d := byID[chapterID]
		handle, err := chapterMgr.Open(ctx, chapterID, d.Dir, workspace.OpenWait)
		if err != nil {
			return err
		}
		defer handle.Release()

		manifestPath := pipeline.ManifestPath(d.Dir)
		return orch.Run(ctx, handle.Context(), manifestPath, opts)
	})
}

func stageFromFlag(name string) (fingerprint.StageName, error) {
	if name == "" {
		return "", nil
	}
	for _, s := range fingerprint.StageOrder {
		if string(s) == name {
			return s, nil
		}
	}
	return "", errs.New(errs.InputInvalid, "", "cli", fmt.Sprintf("unknown stage %q", name), nil)
}
