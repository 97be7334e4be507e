// Package rollup implements the Rollup & Hydrator (spec.md §4.5): it
// groups word ops into sentences and paragraphs, computes WER/CER/coverage,
// and produces the hydrated transcript the rest of the product consumes.
package rollup

import "github.com/narrationlab/bookalign/internal/timing"

// Status mirrors the SentenceAlign/ParagraphAlign status field.
type Status string

const (
	StatusOK        Status = "ok"
	StatusFlagged   Status = "flagged"
	StatusUnaligned Status = "unaligned"
)

// WordAlign mirrors a WordOp plus provenance (spec.md §3).
type WordAlign struct {
	Kind    string  `json:"kind"`
	BookIdx int64   `json:"book_idx,omitempty"`
	AsrIdx  int64   `json:"asr_idx,omitempty"`
	Score   float64 `json:"score,omitempty"`
}

// SentenceMetrics mirrors SentenceAlign.metrics.
type SentenceMetrics struct {
	WER         float64 `json:"wer"`
	CER         float64 `json:"cer"`
	SpanWER     float64 `json:"span_wer"`
	MissingRuns int     `json:"missing_runs"`
	ExtraRuns   int     `json:"extra_runs"`
}

// WordRange is an inclusive [Start, End] range.
type WordRange struct {
	Start uint32 `json:"start"`
	End   uint32 `json:"end"`
}

// SentenceAlign mirrors the SentenceAlign type (spec.md §3).
type SentenceAlign struct {
	ID          uint32                 `json:"id"`
	BookRange   WordRange              `json:"book_range"`
	ScriptRange *WordRange             `json:"script_range,omitempty"`
	Metrics     SentenceMetrics        `json:"metrics"`
	Timing      timing.SentenceTiming  `json:"timing"`
	Status      Status                 `json:"status"`
}

// ParagraphMetrics mirrors ParagraphAlign.metrics.
type ParagraphMetrics struct {
	WER      float64 `json:"wer"`
	CER      float64 `json:"cer"`
	Coverage float64 `json:"coverage"`
}

// ParagraphAlign mirrors the ParagraphAlign type (spec.md §3).
type ParagraphAlign struct {
	ID          uint32           `json:"id"`
	BookRange   WordRange        `json:"book_range"`
	SentenceIDs []uint32         `json:"sentence_ids"`
	Metrics     ParagraphMetrics `json:"metrics"`
	Status      Status           `json:"status"`
}

// Index mirrors TranscriptIndex (spec.md §3).
type Index struct {
	AudioPath            string           `json:"audio_path"`
	ScriptPath           string           `json:"script_path"`
	BookIndexPath        string           `json:"book_index_path"`
	Words                []WordAlign      `json:"words"`
	Sentences            []SentenceAlign  `json:"sentences"`
	Paragraphs           []ParagraphAlign `json:"paragraphs"`
	NormalizationVersion string           `json:"normalization_version"`
	CreatedAt            string           `json:"created_at"`
}

// SentenceStatusThreshold is the default WER threshold separating "ok" from
// "flagged" sentences (spec.md §4.5, flagged as a tunable default in §9
// Open Questions).
const SentenceStatusThreshold = 0.35
