// Package align implements the Windowed Aligner (spec.md §4.4): banded
// Needleman-Wunsch dynamic programming between a book word window and an
// ASR token window, producing a word-op sequence.
package align

// OpKind tags a WordOp (spec.md §3).
type OpKind string

const (
	Match OpKind = "match"
	Sub   OpKind = "sub"
	Ins   OpKind = "ins" // extra ASR word
	Del   OpKind = "del" // missing ASR word
)

// WordOp mirrors the tagged WordOp union. BookIdx/AsrIdx are -1 when not
// applicable to the op kind (Ins has no BookIdx, Del has no AsrIdx).
type WordOp struct {
	Kind    OpKind  `json:"kind"`
	BookIdx int64   `json:"book_idx,omitempty"`
	AsrIdx  int64   `json:"asr_idx,omitempty"`
	Score   float64 `json:"score,omitempty"`
}

// Costs configures DP edge weights (spec.md §4.4 defaults).
type Costs struct {
	CostSub float64
	CostIns float64
	CostDel float64
}

// DefaultCosts returns cost_sub=cost_ins=cost_del=1.0.
func DefaultCosts() Costs {
	return Costs{CostSub: 1.0, CostIns: 1.0, CostDel: 1.0}
}

// BookToken is the minimal view the aligner needs of a book word.
type BookToken struct {
	Normalized string
	Phoneme    string // empty if absent
}

// AsrToken is the minimal view the aligner needs of an ASR token.
type AsrToken struct {
	Normalized string
	Phoneme    string
}
