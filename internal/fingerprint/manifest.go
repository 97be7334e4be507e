package fingerprint

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/narrationlab/bookalign/internal/errs"
)

// StageName enumerates the seven pipeline stages in execution order
// (spec.md §4.8).
type StageName string

const (
	StageBookIndex  StageName = "book_index"
	StageAsr        StageName = "asr"
	StageAnchors    StageName = "anchors"
	StageTranscript StageName = "transcript"
	StageHydrate    StageName = "hydrate"
	StageMfa        StageName = "mfa"
	StageMerge      StageName = "merge"
)

// StageOrder is the fixed execution order of the seven stages.
var StageOrder = []StageName{
	StageBookIndex, StageAsr, StageAnchors, StageTranscript, StageHydrate, StageMfa, StageMerge,
}

// StageEntry records one stage's last successful run (spec.md §3 ManifestV2).
// RunID uniquely tags the specific execution that produced this entry,
// independent of the fingerprint: two runs can land on the same fingerprint
// (a no-op rerun with --force) but are still distinct executions worth
// telling apart when correlating this entry against log lines or MFA
// container labels for that run.
type StageEntry struct {
	RunID        string   `json:"run_id"`
	Fingerprint  string   `json:"fingerprint"`
	InputHash    string   `json:"input_hash"`
	ParamsHash   string   `json:"params_hash"`
	ToolVersions string   `json:"tool_versions"`
	Inputs       []string `json:"inputs"`
	Outputs      []string `json:"outputs"`
	CompletedAt  string   `json:"completed_at"` // RFC3339, caller-supplied (no wall-clock calls here)
	DurationMs   int64    `json:"duration_ms"`
}

// ManifestV2 is the per-chapter record of each stage's last fingerprinted
// run, used to decide skip-vs-rerun (spec.md §4.9).
type ManifestV2 struct {
	SchemaVersion int                      `json:"schema_version"`
	ChapterID     string                   `json:"chapter_id"`
	Stages        map[StageName]StageEntry `json:"stages"`
}

const manifestSchemaVersion = 2

// NewManifest returns an empty ManifestV2 for chapterID.
func NewManifest(chapterID string) *ManifestV2 {
	return &ManifestV2{
		SchemaVersion: manifestSchemaVersion,
		ChapterID:     chapterID,
		Stages:        make(map[StageName]StageEntry),
	}
}

// LoadManifest reads a manifest from path. A missing file yields a fresh
// empty manifest for chapterID rather than an error, since "no manifest
// yet" is the normal state for a never-run chapter.
func LoadManifest(path, chapterID string) (*ManifestV2, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewManifest(chapterID), nil
		}
		return nil, errs.New(errs.IOError, chapterID, "fingerprint", "failed reading manifest "+path, err)
	}
	var m ManifestV2
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errs.New(errs.InputInvalid, chapterID, "fingerprint", "failed decoding manifest "+path, err)
	}
	if m.Stages == nil {
		m.Stages = make(map[StageName]StageEntry)
	}
	return &m, nil
}

// Save atomically writes the manifest (write-temp-then-rename), matching the
// persistence pattern used by chapter.DocumentSlot.
func (m *ManifestV2) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errs.New(errs.IOError, m.ChapterID, "fingerprint", "failed encoding manifest", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-manifest-*")
	if err != nil {
		return errs.New(errs.IOError, m.ChapterID, "fingerprint", "failed creating temp manifest file", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errs.New(errs.IOError, m.ChapterID, "fingerprint", "failed writing temp manifest file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errs.New(errs.IOError, m.ChapterID, "fingerprint", "failed closing temp manifest file", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errs.New(errs.IOError, m.ChapterID, "fingerprint", "failed renaming temp manifest file", err)
	}
	return nil
}

// Matches reports whether stage's last recorded fingerprint equals want,
// meaning the stage can be skipped (spec.md §4.8 step "if fingerprint
// matches manifest entry and force flag absent: skip").
func (m *ManifestV2) Matches(stage StageName, want string) bool {
	entry, ok := m.Stages[stage]
	return ok && entry.Fingerprint == want
}

// Record stores a completed stage's entry.
func (m *ManifestV2) Record(stage StageName, entry StageEntry) {
	m.Stages[stage] = entry
}

// StagesFrom returns the subslice of StageOrder starting at start
// (inclusive) and ending at end (inclusive), honoring the CLI's
// --start-stage/--end-stage range controls (spec.md §6). Empty strings mean
// "from the beginning" / "through the end".
func StagesFrom(start, end StageName) []StageName {
	lo, hi := 0, len(StageOrder)-1
	for i, s := range StageOrder {
		if s == start {
			lo = i
		}
		if s == end {
			hi = i
		}
	}
	if lo > hi {
		return nil
	}
	return StageOrder[lo : hi+1]
}
