package stages

import (
	"testing"

	"github.com/narrationlab/bookalign/internal/config"
	"github.com/narrationlab/bookalign/internal/fingerprint"
	"github.com/narrationlab/bookalign/internal/workspace"
)

func TestBuildRegistry_RegistersAllSevenStagesInDependencyOrder(t *testing.T) {
	dir := t.TempDir()
	bookPath := dir + "/book.txt"
	writeFile(t, bookPath, sampleBookText)

	descriptors := []workspace.ChapterDescriptor{
		{ChapterID: "ch1", Dir: dir, Audio: map[workspace.AudioRole]string{workspace.AudioRaw: dir + "/ch1.wav"}},
	}
	bookMgr := workspace.NewBookManager()
	cfg := config.DefaultConfig()

	reg, err := BuildRegistry(bookPath, descriptors, bookMgr, cfg)
	if err != nil {
		t.Fatalf("BuildRegistry: %v", err)
	}

	for _, name := range fingerprint.StageOrder {
		if _, ok := reg.Get(string(name)); !ok {
			t.Errorf("expected stage %q to be registered", name)
		}
	}

	if err := reg.Validate(); err != nil {
		t.Fatalf("expected a valid dependency graph, got: %v", err)
	}

	ordered, err := reg.GetOrdered()
	if err != nil {
		t.Fatalf("GetOrdered: %v", err)
	}
	if len(ordered) != len(fingerprint.StageOrder) {
		t.Fatalf("got %d ordered stages, want %d", len(ordered), len(fingerprint.StageOrder))
	}
}
