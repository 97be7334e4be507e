// Package asr defines the speech-to-text external collaborator contract
// (spec.md §4.12) and adapters for it. The core never performs inference
// itself; it only consumes an AsrResponse.
package asr

import "context"

// Token mirrors AsrToken (spec.md §3).
type Token struct {
	StartSec    float64 `json:"start_sec"`
	DurationSec float64 `json:"duration_sec"`
	Text        string  `json:"text"`
}

// Segment is a coarse grouping, never the sole source of word-level timing.
type Segment struct {
	StartSec float64 `json:"start_sec"`
	EndSec   float64 `json:"end_sec"`
	Text     string  `json:"text"`
}

// Response mirrors AsrResponse (spec.md §3).
type Response struct {
	ModelVersion string    `json:"model_version"`
	Tokens       []Token   `json:"tokens"`
	Segments     []Segment `json:"segments,omitempty"`
}

// Options carries per-call tuning the adapter may use (e.g. language hint).
type Options struct {
	Language string
}

// Asr is the external speech-to-text collaborator (spec.md §4.12): it
// must return tokens in chronological order and a model_version string used
// in fingerprints.
type Asr interface {
	Transcribe(ctx context.Context, audioPath string, opts Options) (Response, error)
	ModelVersion() string
}
