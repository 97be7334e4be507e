package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/narrationlab/bookalign/internal/chapter"
	"github.com/narrationlab/bookalign/internal/concurrency"
	"github.com/narrationlab/bookalign/internal/errs"
	"github.com/narrationlab/bookalign/internal/fingerprint"
	"github.com/narrationlab/bookalign/internal/mfa"
)

// Clock abstracts wall-clock access so orchestrator tests can supply a
// deterministic time; production callers pass time.Now.
type Clock func() time.Time

// RunOptions controls one orchestrator invocation over a chapter
// (spec.md §4.8).
type RunOptions struct {
	StartStage fingerprint.StageName // empty = from the beginning
	EndStage   fingerprint.StageName // empty = through the end
	Force      bool
}

// Orchestrator runs the registered stages for a chapter in fixed order,
// skipping any whose fingerprint matches the manifest's last recorded run
// (spec.md §4.8).
type Orchestrator struct {
	registry *Registry
	sems     *concurrency.Semaphores
	clock    Clock
}

// NewOrchestrator builds an Orchestrator backed by registry's stages and
// sems for resource permits. clock defaults to time.Now if nil.
func NewOrchestrator(registry *Registry, sems *concurrency.Semaphores, clock Clock) *Orchestrator {
	if clock == nil {
		clock = time.Now
	}
	return &Orchestrator{registry: registry, sems: sems, clock: clock}
}

// Run executes the in-range stages against cctx, persisting a ManifestV2 at
// manifestPath (spec.md §6: "<chapter-id>/alignment/manifest.json"). It
// returns the first stage error encountered; the chapter context's
// SaveChanges is still invoked for the failing stage before the error is
// returned, so partial progress in prior stages remains durable.
func (o *Orchestrator) Run(ctx context.Context, cctx *chapter.Context, manifestPath string, opts RunOptions) error {
	manifest, err := fingerprint.LoadManifest(manifestPath, cctx.ChapterID)
	if err != nil {
		return err
	}

	stages := fingerprint.StagesFrom(opts.StartStage, opts.EndStage)
	for _, name := range stages {
		stage, ok := o.registry.Get(string(name))
		if !ok {
			continue // stage not registered in this build; range control may name stages the caller doesn't run
		}

		if err := o.runOne(ctx, cctx, manifest, fingerprint.StageName(name), stage, opts.Force); err != nil {
			return err
		}
		if err := manifest.Save(manifestPath); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) runOne(ctx context.Context, cctx *chapter.Context, manifest *fingerprint.ManifestV2, name fingerprint.StageName, stage Stage, force bool) error {
	inputPaths, err := stage.Inputs(cctx)
	if err != nil {
		return err
	}
	inputHashes := make([]string, 0, len(inputPaths))
	for _, p := range inputPaths {
		h, err := fingerprint.HashFile(p)
		if err != nil {
			return err
		}
		inputHashes = append(inputHashes, h)
	}
	inputHash := fingerprint.InputHash(inputHashes)

	paramsHash, err := fingerprint.ParamsHash(stage.Params())
	if err != nil {
		return err
	}
	toolVersions, err := fingerprint.ToolVersionsCanonical(stage.ToolVersions())
	if err != nil {
		return err
	}
	want := fingerprint.Stage(inputHash, paramsHash, toolVersions)

	if !force && manifest.Matches(name, want) {
		return nil
	}

	runCtx, release, err := o.acquire(ctx, name)
	if err != nil {
		return err
	}
	defer release()

	start := o.clock()
	runErr := stage.Run(runCtx, cctx)

	// save_changes() runs on every exit path, including failure, so partial
	// progress in this and prior stages is durable (spec.md §4.8, §5).
	saveErr := cctx.Docs.SaveChanges()

	if runErr != nil {
		return runErr
	}
	if saveErr != nil {
		return saveErr
	}

	manifest.Record(name, fingerprint.StageEntry{
		RunID:        uuid.NewString(),
		Fingerprint:  want,
		InputHash:    inputHash,
		ParamsHash:   paramsHash,
		ToolVersions: toolVersions,
		Inputs:       inputPaths,
		CompletedAt:  o.clock().Format(time.RFC3339),
		DurationMs:   o.clock().Sub(start).Milliseconds(),
	})
	return nil
}

// mfaWorkspaceKey is the context key an MFA-invoking stage uses to recover
// the workspace directory the orchestrator acquired for it
// (WorkspaceFromContext).
type mfaWorkspaceKey struct{}

// acquire takes whichever named semaphore (and, for MFA, workspace) a stage
// needs based on its name, returning the context the stage should run with
// (carrying the acquired MFA workspace, if any) and a release func. Stages
// with no resource contention (Anchors, Transcript, Hydrate, Merge: pure
// CPU, no external collaborator) get a no-op release and the same ctx back.
func (o *Orchestrator) acquire(ctx context.Context, name fingerprint.StageName) (context.Context, func(), error) {
	if o.sems == nil {
		return ctx, func() {}, nil
	}
	switch name {
	case fingerprint.StageBookIndex:
		if err := o.sems.AcquireBookIndex(ctx); err != nil {
			return nil, nil, errs.New(errs.Cancelled, "", string(name), "cancelled acquiring book index permit", err)
		}
		return ctx, o.sems.ReleaseBookIndex, nil
	case fingerprint.StageAsr:
		if err := o.sems.AcquireAsr(ctx); err != nil {
			return nil, nil, errs.New(errs.Cancelled, "", string(name), "cancelled acquiring asr permit", err)
		}
		return ctx, o.sems.ReleaseAsr, nil
	case fingerprint.StageMfa:
		ws, err := o.sems.AcquireMfa(ctx)
		if err != nil {
			return nil, nil, errs.New(errs.Cancelled, "", string(name), "cancelled acquiring mfa permit", err)
		}
		return context.WithValue(ctx, mfaWorkspaceKey{}, ws), func() { o.sems.ReleaseMfa(ws) }, nil
	default:
		return ctx, func() {}, nil
	}
}

// WorkspaceFromContext recovers the MFA workspace the orchestrator acquired
// for the current stage run, for use by the MFA stage's Run implementation.
func WorkspaceFromContext(ctx context.Context) (mfa.Workspace, bool) {
	v, ok := ctx.Value(mfaWorkspaceKey{}).(mfa.Workspace)
	return v, ok
}

// ManifestPath returns the conventional manifest path for a chapter
// directory (spec.md §6).
func ManifestPath(chapterDir string) string {
	return filepath.Join(chapterDir, "alignment", "manifest.json")
}
