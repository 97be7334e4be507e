// Package pipeline implements the seven-stage chapter orchestrator
// (spec.md §4.8): BookIndex -> ASR -> Anchors -> Transcript -> Hydrate ->
// MFA -> Merge, each stage fingerprinted and skipped when its inputs,
// parameters, and tool versions have not changed since the manifest's last
// recorded run.
package pipeline

import (
	"context"

	"github.com/narrationlab/bookalign/internal/chapter"
)

// Stage is one of the seven pipeline stages. Each stage is a pure function
// of its declared inputs plus its parameters and any external tool
// versions it depends on (spec.md §4.8).
type Stage interface {
	// Name identifies the stage, matching a fingerprint.StageName value.
	Name() string

	// Dependencies lists stage names that must run first: the stages whose
	// outputs this one reads (Anchors needs both BookIndex and ASR, Merge
	// both Hydrate and MFA). Registry supports arbitrary DAGs.
	Dependencies() []string

	// Inputs returns the file paths this stage's fingerprint is derived
	// from, in declared order.
	Inputs(cctx *chapter.Context) ([]string, error)

	// Params returns the stage's parameter record, canonically serialized
	// for ParamsHash.
	Params() any

	// ToolVersions returns the external tool versions (if any) this stage's
	// fingerprint must include, e.g. {"asr_model": "whisper-1"}.
	ToolVersions() map[string]string

	// Run executes the stage, writing outputs through the chapter
	// Context's DocumentSlots. It must not call SaveChanges itself; the
	// orchestrator does that once after each stage run, whether it
	// succeeded or failed.
	Run(ctx context.Context, cctx *chapter.Context) error
}
