package chapter

import (
	"path/filepath"

	"github.com/narrationlab/bookalign/internal/anchor"
	"github.com/narrationlab/bookalign/internal/asr"
	"github.com/narrationlab/bookalign/internal/rollup"
	"github.com/narrationlab/bookalign/internal/textgrid"
	"github.com/narrationlab/bookalign/internal/timing"
)

// TimingOverrides holds manual gap-filling overrides (spec.md §4.6
// precedence: "manual TimingOverrides for gaps only").
type TimingOverrides struct {
	SentenceOverrides map[uint32]timing.Range `json:"sentence_overrides,omitempty"`
}

// Documents is the lazy slot set for one chapter's artifacts (spec.md §3
// ChapterDocuments; BookIndex lives in the book-level cache, never saved
// per chapter, per spec.md §4.7).
type Documents struct {
	Asr             *DocumentSlot[asr.Response]
	Anchors         *DocumentSlot[anchor.Document]
	Transcript      *DocumentSlot[rollup.Index]
	Hydrated        *DocumentSlot[rollup.Transcript]
	TextGrid        *DocumentSlot[textgrid.Document]
	TimingOverrides *DocumentSlot[TimingOverrides]
}

// NewDocuments wires one DocumentSlot per artifact type to its
// conventional path under chapterDir (spec.md §6 persisted state layout).
func NewDocuments(chapterDir, chapterID string) *Documents {
	return &Documents{
		Asr:             NewDocumentSlot[asr.Response](filepath.Join(chapterDir, chapterID+".asr.json")),
		Anchors:         NewDocumentSlot[anchor.Document](filepath.Join(chapterDir, chapterID+".align.anchors.json")),
		Transcript:      NewDocumentSlot[rollup.Index](filepath.Join(chapterDir, chapterID+".align.tx.json")),
		Hydrated:        NewDocumentSlot[rollup.Transcript](filepath.Join(chapterDir, chapterID+".align.hydrate.json")),
		TextGrid:        NewDocumentSlot[textgrid.Document](filepath.Join(chapterDir, "alignment", "mfa", chapterID+".textgrid.json")),
		TimingOverrides: NewDocumentSlot[TimingOverrides](filepath.Join(chapterDir, chapterID+".timing-overrides.json")),
	}
}

// SaveChanges writes every dirty slot atomically, in the deterministic
// order ASR, Anchors, Transcript, Hydrated, TextGrid, TimingOverrides
// (spec.md §4.7), returning the first error encountered but still
// attempting every slot so that partial progress in prior slots is not
// lost by an unrelated later failure.
func (d *Documents) SaveChanges() error {
	var firstErr error
	try := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	try(d.Asr.SaveIfDirty())
	try(d.Anchors.SaveIfDirty())
	try(d.Transcript.SaveIfDirty())
	try(d.Hydrated.SaveIfDirty())
	try(d.TextGrid.SaveIfDirty())
	try(d.TimingOverrides.SaveIfDirty())
	return firstErr
}

// Context is a chapter's single-writer document holder (spec.md §4.7).
// ChapterManager mediates exclusive ownership; the pipeline orchestrator
// reads/writes slots through it during stage execution.
type Context struct {
	ChapterID string
	ChapterDir string
	Docs      *Documents
}

// NewContext builds a chapter Context with freshly wired document slots.
func NewContext(chapterID, chapterDir string) *Context {
	return &Context{ChapterID: chapterID, ChapterDir: chapterDir, Docs: NewDocuments(chapterDir, chapterID)}
}

// Handle is a scoped acquisition of a chapter Context: its Release method
// guarantees SaveChanges() runs and any audio buffer handles are released
// on every exit path, including a panic unwinding through the caller
// (spec.md §4.7). Callers should always `defer handle.Release()`
// immediately after acquiring one.
type Handle struct {
	ctx      *Context
	release  func()
	released bool
}

// NewHandle wraps ctx with a release callback (e.g. unlocking the
// ChapterManager's per-chapter mutex).
func NewHandle(ctx *Context, release func()) *Handle {
	return &Handle{ctx: ctx, release: release}
}

// Context returns the underlying chapter Context.
func (h *Handle) Context() *Context { return h.ctx }

// Release saves all dirty slots and invokes the release callback exactly
// once, even if called multiple times (e.g. once via defer and once
// explicitly on the success path) or via a deferred recover after panic.
func (h *Handle) Release() error {
	if h.released {
		return nil
	}
	h.released = true
	err := h.ctx.Docs.SaveChanges()
	if h.release != nil {
		h.release()
	}
	return err
}
