package stages

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/narrationlab/bookalign/internal/align"
	"github.com/narrationlab/bookalign/internal/anchor"
	"github.com/narrationlab/bookalign/internal/asr"
	"github.com/narrationlab/bookalign/internal/bookindex"
	"github.com/narrationlab/bookalign/internal/chapter"
	"github.com/narrationlab/bookalign/internal/docparse"
	"github.com/narrationlab/bookalign/internal/rollup"
	"github.com/narrationlab/bookalign/internal/textgrid"
	"github.com/narrationlab/bookalign/internal/workspace"
)

const sampleBookText = "The quick brown fox jumps over the lazy dog. The dog barks back twice."

// fakeAsr is a minimal asr.Asr that returns tokens built from the same
// words as sampleBookText, so downstream anchor mining and alignment have
// real overlapping content to work with.
type fakeAsr struct {
	version string
	resp    asr.Response
	err     error
}

func (f *fakeAsr) Transcribe(ctx context.Context, audioPath string, opts asr.Options) (asr.Response, error) {
	return f.resp, f.err
}
func (f *fakeAsr) ModelVersion() string { return f.version }

func sampleAsrResponse() asr.Response {
	words := []string{"the", "quick", "brown", "fox", "jumps", "over", "the", "lazy", "dog", "the", "dog", "barks", "back", "twice"}
	tokens := make([]asr.Token, len(words))
	for i, w := range words {
		tokens[i] = asr.Token{StartSec: float64(i), DurationSec: 0.5, Text: w}
	}
	return asr.Response{ModelVersion: "fake-v1", Tokens: tokens}
}

func buildTestBookIndex(t *testing.T) *bookindex.Index {
	t.Helper()
	idx, err := bookindex.Build(docparse.ParseResult{FullText: sampleBookText}, bookindex.Options{SourceFile: "book.txt"})
	if err != nil {
		t.Fatalf("bookindex.Build: %v", err)
	}
	return idx
}

func TestBookIndexStage_RunPopulatesHolder(t *testing.T) {
	dir := t.TempDir()
	bookPath := filepath.Join(dir, "book.txt")
	writeFile(t, bookPath, sampleBookText)

	bookMgr := workspace.NewBookManager()
	stage, holder := NewBookIndexStage(bookPath, 200, "", bookMgr)

	if stage.Name() != "book_index" {
		t.Errorf("got name %q", stage.Name())
	}
	if len(stage.Dependencies()) != 0 {
		t.Errorf("expected no dependencies, got %v", stage.Dependencies())
	}
	inputs, err := stage.Inputs(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(inputs) != 1 || inputs[0] != bookPath {
		t.Errorf("got inputs %v, want [%s]", inputs, bookPath)
	}
	if stage.ToolVersions()["bookindex"] == "" {
		t.Error("expected a non-empty bookindex tool version")
	}

	cctx := chapter.NewContext("ch1", dir)
	if err := stage.Run(context.Background(), cctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if holder.get() == nil {
		t.Fatal("expected Run to populate the shared book index holder")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestAsrStage_RunSetsSlotAndReportsToolVersion(t *testing.T) {
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "ch1.wav")
	writeFile(t, audioPath, "fake-wav-bytes")

	adapter := &fakeAsr{version: "whisper-test", resp: sampleAsrResponse()}
	stage := &AsrStage{
		Adapter:   adapter,
		AudioPath: func(cctx *chapter.Context) string { return audioPath },
	}

	if stage.ToolVersions()["asr"] != "whisper-test" {
		t.Errorf("expected tool version to reflect adapter.ModelVersion()")
	}

	cctx := chapter.NewContext("ch1", dir)
	inputs, err := stage.Inputs(cctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(inputs) != 1 || inputs[0] != audioPath {
		t.Errorf("got inputs %v", inputs)
	}

	if err := stage.Run(context.Background(), cctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got, err := cctx.Docs.Asr.Get()
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Tokens) != len(adapter.resp.Tokens) {
		t.Errorf("expected the transcribed response to be stored in the Asr slot")
	}
}

func TestAsrStage_InputsErrorsWithoutResolvedAudio(t *testing.T) {
	stage := &AsrStage{AudioPath: func(cctx *chapter.Context) string { return "" }}
	cctx := chapter.NewContext("ch1", t.TempDir())
	if _, err := stage.Inputs(cctx); err == nil {
		t.Fatal("expected an error when no raw audio path resolves")
	}
}

func TestAnchorsStage_RunErrorsWithoutBookIndex(t *testing.T) {
	holder := &bookIndexHolder{}
	stage := NewAnchorsStage(holder, "book.txt", anchor.DefaultPolicy())
	cctx := chapter.NewContext("ch1", t.TempDir())
	cctx.Docs.Asr.Set(sampleAsrResponse())

	if err := stage.Run(context.Background(), cctx); err == nil {
		t.Fatal("expected an error when the book index holder has not been populated")
	}
}

func TestAnchorsStage_RunMinesAnchors(t *testing.T) {
	idx := buildTestBookIndex(t)
	holder := &bookIndexHolder{}
	holder.set(idx)

	stage := NewAnchorsStage(holder, "book.txt", anchor.DefaultPolicy())
	if stage.Name() != "anchors" {
		t.Errorf("got name %q", stage.Name())
	}

	cctx := chapter.NewContext("ch1", t.TempDir())
	cctx.Docs.Asr.Set(sampleAsrResponse())
	if err := cctx.Docs.SaveChanges(); err != nil {
		t.Fatal(err)
	}

	inputs, err := stage.Inputs(cctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(inputs) != 2 {
		t.Fatalf("expected 2 declared inputs (book source, asr slot path), got %v", inputs)
	}

	if err := stage.Run(context.Background(), cctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	doc, err := cctx.Docs.Anchors.Get()
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Anchors) < 2 {
		t.Fatalf("got %d anchors, want at least 2 (identical book/ASR content should mine several)", len(doc.Anchors))
	}
	if doc.Anchors[0] != (anchor.Anchor{BookPosition: 0, AsrPosition: 0}) {
		t.Errorf("got first anchor %+v, want the synthetic (0,0)", doc.Anchors[0])
	}
	for i := 1; i < len(doc.Anchors); i++ {
		prev, cur := doc.Anchors[i-1], doc.Anchors[i]
		if cur.BookPosition <= prev.BookPosition || cur.AsrPosition <= prev.AsrPosition {
			t.Fatalf("anchors not strictly monotone at %d: %+v then %+v", i, prev, cur)
		}
	}
}

func TestHydrateStage_RunReconstructsWordOpsFromRollup(t *testing.T) {
	idx := buildTestBookIndex(t)
	holder := &bookIndexHolder{}
	holder.set(idx)

	anchorsStage := NewAnchorsStage(holder, "book.txt", anchor.DefaultPolicy())
	transcriptStage := NewTranscriptStage(holder, "book.txt", func(cctx *chapter.Context) string { return "audio.wav" }, align.DefaultCosts())
	hydrateStage := NewHydrateStage(holder, "book.txt")

	cctx := chapter.NewContext("ch1", t.TempDir())
	cctx.Docs.Asr.Set(sampleAsrResponse())

	if err := anchorsStage.Run(context.Background(), cctx); err != nil {
		t.Fatalf("anchors run: %v", err)
	}
	if err := transcriptStage.Run(context.Background(), cctx); err != nil {
		t.Fatalf("transcript run: %v", err)
	}
	if err := hydrateStage.Run(context.Background(), cctx); err != nil {
		t.Fatalf("hydrate run: %v", err)
	}

	transcript, err := cctx.Docs.Hydrated.Get()
	if err != nil {
		t.Fatal(err)
	}
	if len(transcript.Sentences) == 0 {
		t.Fatal("expected at least one hydrated sentence")
	}
	for _, s := range transcript.Sentences {
		if len(s.Words) == 0 {
			t.Errorf("sentence %d has no hydrated words", s.ID)
		}
		if s.Metrics.WER != 0 || s.Status != rollup.StatusOK {
			t.Errorf("sentence %d got WER=%v status=%q, want 0/%q for identical book/ASR content",
				s.ID, s.Metrics.WER, s.Status, rollup.StatusOK)
		}
	}
}

func TestMergeStage_Dependencies(t *testing.T) {
	holder := &bookIndexHolder{}
	stage := NewMergeStage(holder, textgrid.Options{})
	deps := stage.Dependencies()
	if len(deps) != 2 {
		t.Fatalf("expected merge to depend on hydrate and mfa, got %v", deps)
	}
}

func TestRawAudioPath_ResolvesFromDescriptor(t *testing.T) {
	descriptors := map[string]workspace.ChapterDescriptor{
		"ch1": {ChapterID: "ch1", Audio: map[workspace.AudioRole]string{workspace.AudioRaw: "/books/ch1/ch1.wav"}},
	}
	resolver := rawAudioPath(descriptors)

	cctx := chapter.NewContext("ch1", t.TempDir())
	if got := resolver(cctx); got != "/books/ch1/ch1.wav" {
		t.Errorf("got %q", got)
	}

	unknownCctx := chapter.NewContext("missing", t.TempDir())
	if got := resolver(unknownCctx); got != "" {
		t.Errorf("expected empty string for an undiscovered chapter, got %q", got)
	}
}
