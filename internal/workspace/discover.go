package workspace

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/narrationlab/bookalign/internal/errs"
)

// Discover enumerates bookRoot's immediate subdirectories as chapters
// (spec.md §4.10), resolving each chapter's audio buffer with the fallback
// rule: chapter-local `{id}.wav`, else book-root `{id}.wav`. The treated
// and filtered roles are set only when `{id}.treated.wav` /
// `{id}.filtered.wav` already exist in the chapter directory.
func Discover(bookRoot string) ([]ChapterDescriptor, error) {
	entries, err := os.ReadDir(bookRoot)
	if err != nil {
		return nil, errs.New(errs.InputMissing, "", "workspace", "failed reading book root "+bookRoot, err)
	}

	var chapters []ChapterDescriptor
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		chapterID := e.Name()
		dir := filepath.Join(bookRoot, chapterID)

		desc := ChapterDescriptor{
			ChapterID: chapterID,
			Dir:       dir,
			Audio:     make(map[AudioRole]string),
		}
		if raw := resolveRawAudio(bookRoot, dir, chapterID); raw != "" {
			desc.Audio[AudioRaw] = raw
		}
		if treated := filepath.Join(dir, chapterID+".treated.wav"); fileExists(treated) {
			desc.Audio[AudioTreated] = treated
		}
		if filtered := filepath.Join(dir, chapterID+".filtered.wav"); fileExists(filtered) {
			desc.Audio[AudioFiltered] = filtered
		}
		chapters = append(chapters, desc)
	}

	sort.Slice(chapters, func(i, j int) bool { return chapters[i].ChapterID < chapters[j].ChapterID })
	return chapters, nil
}

// resolveRawAudio implements the chapter-local-else-book-root fallback rule
// (spec.md §4.10).
func resolveRawAudio(bookRoot, chapterDir, chapterID string) string {
	local := filepath.Join(chapterDir, chapterID+".wav")
	if fileExists(local) {
		return local
	}
	fallback := filepath.Join(bookRoot, chapterID+".wav")
	if fileExists(fallback) {
		return fallback
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
