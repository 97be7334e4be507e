// Package chapter implements the Chapter Context & Document Slots
// component (spec.md §4.7): lazy, dirty-tracked artifact cells with
// lifecycle-scoped acquisition guaranteeing save/release on every exit
// path, including panic.
package chapter

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/narrationlab/bookalign/internal/errs"
)

// slotState tags a DocumentSlot's lifecycle stage.
type slotState int

const (
	notLoaded slotState = iota
	loaded
	dirty
)

// DocumentSlot is a lazy, single-writer cell over an artifact of type T
// (spec.md §4.7). Get loads from disk on first access; Set marks dirty;
// Reload re-reads from disk, discarding in-memory changes; SaveIfDirty
// writes atomically (temp file + rename) only when dirty.
type DocumentSlot[T any] struct {
	path  string
	state slotState
	value T
}

// NewDocumentSlot creates a slot backed by path. The value is not read
// until Get or Reload is called.
func NewDocumentSlot[T any](path string) *DocumentSlot[T] {
	return &DocumentSlot[T]{path: path, state: notLoaded}
}

// Get returns the current value, loading it from disk on first access.
// Returns the zero value and no error if the backing file does not exist
// yet (an artifact that has never been produced).
func (s *DocumentSlot[T]) Get() (T, error) {
	if s.state == notLoaded {
		if err := s.load(); err != nil {
			var zero T
			return zero, err
		}
	}
	return s.value, nil
}

// Set replaces the in-memory value and marks the slot dirty.
func (s *DocumentSlot[T]) Set(v T) {
	s.value = v
	s.state = dirty
}

// Dirty reports whether Set has been called since the last successful save.
func (s *DocumentSlot[T]) Dirty() bool { return s.state == dirty }

// Path returns the slot's backing file path, for stages that declare it as
// a fingerprint input (spec.md §4.9).
func (s *DocumentSlot[T]) Path() string { return s.path }

// Reload re-reads the backing file, discarding any unsaved in-memory value.
func (s *DocumentSlot[T]) Reload() error {
	return s.load()
}

func (s *DocumentSlot[T]) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			var zero T
			s.value = zero
			s.state = loaded
			return nil
		}
		return errs.New(errs.IOError, "", "chapter", "failed reading document slot "+s.path, err)
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return errs.New(errs.InputInvalid, "", "chapter", "failed decoding document slot "+s.path, err)
	}
	s.value = v
	s.state = loaded
	return nil
}

// SaveIfDirty atomically writes the slot's value (write-temp-then-rename)
// only if it is dirty, then clears the dirty flag.
func (s *DocumentSlot[T]) SaveIfDirty() error {
	if s.state != dirty {
		return nil
	}
	data, err := json.MarshalIndent(s.value, "", "  ")
	if err != nil {
		return errs.New(errs.IOError, "", "chapter", "failed encoding document slot "+s.path, err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return errs.New(errs.IOError, "", "chapter", "failed creating temp file for "+s.path, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errs.New(errs.IOError, "", "chapter", "failed writing temp file for "+s.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errs.New(errs.IOError, "", "chapter", "failed closing temp file for "+s.path, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return errs.New(errs.IOError, "", "chapter", "failed renaming temp file onto "+s.path, err)
	}
	s.state = loaded
	return nil
}
