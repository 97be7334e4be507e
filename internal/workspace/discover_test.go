package workspace

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDiscover_ChapterLocalAudioPreferred(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ch1", "ch1.wav"))
	writeFile(t, filepath.Join(root, "ch1.wav")) // book-root fallback should be ignored

	chapters, err := Discover(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(chapters) != 1 {
		t.Fatalf("got %d chapters, want 1", len(chapters))
	}
	want := filepath.Join(root, "ch1", "ch1.wav")
	if chapters[0].Audio[AudioRaw] != want {
		t.Errorf("got %q, want %q", chapters[0].Audio[AudioRaw], want)
	}
}

func TestDiscover_FallsBackToBookRootAudio(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "ch1"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(root, "ch1.wav"))

	chapters, err := Discover(root)
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(root, "ch1.wav")
	if chapters[0].Audio[AudioRaw] != want {
		t.Errorf("got %q, want %q", chapters[0].Audio[AudioRaw], want)
	}
}

func TestDiscover_MissingAudioLeavesRoleUnset(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "ch1"), 0o755); err != nil {
		t.Fatal(err)
	}

	chapters, err := Discover(root)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := chapters[0].Audio[AudioRaw]; ok {
		t.Fatal("expected no raw audio role to be set when no wav file exists")
	}
}

func TestDiscover_TreatedAndFilteredDetected(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ch1", "ch1.wav"))
	writeFile(t, filepath.Join(root, "ch1", "ch1.treated.wav"))
	writeFile(t, filepath.Join(root, "ch1", "ch1.filtered.wav"))

	chapters, err := Discover(root)
	if err != nil {
		t.Fatal(err)
	}
	d := chapters[0]
	if d.Audio[AudioTreated] == "" || d.Audio[AudioFiltered] == "" {
		t.Fatalf("expected treated and filtered audio roles to be populated, got %+v", d.Audio)
	}
}

func TestDiscover_SortedByChapterID(t *testing.T) {
	root := t.TempDir()
	for _, id := range []string{"ch3", "ch1", "ch2"} {
		if err := os.MkdirAll(filepath.Join(root, id), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	chapters, err := Discover(root)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"ch1", "ch2", "ch3"}
	for i, id := range want {
		if chapters[i].ChapterID != id {
			t.Errorf("position %d: got %q, want %q", i, chapters[i].ChapterID, id)
		}
	}
}

func TestDiscover_IgnoresFilesAtBookRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ch1", "ch1.wav"))
	writeFile(t, filepath.Join(root, "README.txt"))

	chapters, err := Discover(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(chapters) != 1 {
		t.Fatalf("got %d chapters, want 1 (loose files at the root must be ignored)", len(chapters))
	}
}
