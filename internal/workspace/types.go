// Package workspace implements book/chapter discovery and the book- and
// chapter-level managers that mediate access to shared, cached state
// (spec.md §4.10).
package workspace

import "github.com/narrationlab/bookalign/internal/bookindex"

// AudioRole tags which processing stage an audio buffer represents
// (spec.md §4.10).
type AudioRole string

const (
	AudioRaw      AudioRole = "raw"
	AudioTreated  AudioRole = "treated"
	AudioFiltered AudioRole = "filtered"
)

// ChapterDescriptor is one discovered chapter directory plus its resolved
// audio paths, keyed by role (spec.md §4.10).
type ChapterDescriptor struct {
	ChapterID string
	Dir       string
	Audio     map[AudioRole]string
}

// bookIndexCacheEntry pairs a parsed BookIndex with the source hash it was
// built from, so BookManager can detect a changed manuscript file.
type bookIndexCacheEntry struct {
	sourceHash string
	index      *bookindex.Index
}
