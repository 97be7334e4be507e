// Package anchor implements the Anchor Engine (spec.md §4.3): it mines
// stable book<->ASR sync points so the windowed aligner can run in bounded
// windows instead of on whole chapters.
package anchor

// Anchor mirrors the Anchor type (spec.md §3).
type Anchor struct {
	BookPosition uint32 `json:"book_idx"`
	AsrPosition  uint32 `json:"asr_idx"`
}

// Policy mirrors AnchorDocument.policy.
type Policy struct {
	NgramN              int     `json:"ngram_n"`
	TargetDensity        float64 `json:"target_density"`
	MinSeparation        uint32  `json:"min_separation"`
	StopwordSetID        string  `json:"stopword_set_id"`
	DisallowBoundaryCross bool   `json:"disallow_boundary_cross"`
}

// Stats reports mining diagnostics alongside the selected anchors.
type Stats struct {
	CandidateCount int `json:"candidate_count"`
	SelectedCount  int `json:"selected_count"`
	NgramUsed      int `json:"ngram_used"`
	RelaxedOnce    bool `json:"relaxed_once"`
}

// WordRange is an inclusive [Start, End] word-index range.
type WordRange struct {
	Start uint32 `json:"start"`
	End   uint32 `json:"end"`
}

// Document mirrors AnchorDocument (spec.md §3). Anchors are strictly
// increasing on both coordinates; the synthetic anchor (0,0) is always
// first.
type Document struct {
	Anchors          []Anchor   `json:"anchors"`
	Policy           Policy     `json:"policy"`
	Stats            Stats      `json:"stats"`
	SectionRangeWords *WordRange `json:"section_range_words,omitempty"`
}

// DefaultPolicy returns the spec's default anchor policy (n=3, stopword
// set en-basic, relax-on-underdense).
func DefaultPolicy() Policy {
	return Policy{
		NgramN:                3,
		TargetDensity:         0.02,
		MinSeparation:         5,
		StopwordSetID:         "en-basic",
		DisallowBoundaryCross: false,
	}
}

// InsufficientAnchorsError reports that fewer than two anchors (including
// the synthetic one) could be produced even after relaxation (spec.md
// §4.3); the caller must fall back to a single whole-chapter window.
type InsufficientAnchorsError struct {
	Produced int
}

func (e *InsufficientAnchorsError) Error() string {
	return "anchor: insufficient anchors produced, fewer than 2 after relaxation"
}
