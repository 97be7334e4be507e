// Package mfa implements the forced-aligner external-collaborator contract
// (spec.md §4.12): four subprocess operations producing a TextGrid file.
// The core never runs acoustic models itself.
package mfa

import "context"

// Workspace is an isolated working directory the adapter must accept so
// that N chapters can run concurrently without colliding on shared
// sqlite/corpus state (spec.md §4.12).
type Workspace struct {
	Dir string
}

// AlignRequest names the staged corpus directory and .lab file for one
// chapter's forced-alignment run.
type AlignRequest struct {
	CorpusDir     string
	LabFile       string
	AudioFile     string
	DictionaryZip string
	OutTextGrid   string
	Workspace     Workspace
}

// Mfa is the external forced-aligner collaborator (spec.md §4.12). Adapters
// must tolerate idempotent re-runs.
type Mfa interface {
	Validate(ctx context.Context, ws Workspace) error
	G2P(ctx context.Context, words []string, outDictionary string, ws Workspace) error
	AddWords(ctx context.Context, dictionary string, words []string, ws Workspace) error
	Align(ctx context.Context, req AlignRequest) error
	Version() string
}
