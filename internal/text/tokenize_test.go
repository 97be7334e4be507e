package text

import "testing"

func TestWords_OffsetsReconstructTheSourceString(t *testing.T) {
	raw := "Hello, world!"
	toks := Words(raw)
	if len(toks) == 0 {
		t.Fatal("got no tokens")
	}
	for _, tok := range toks {
		if tok.Text != raw[tok.ByteStart:tok.ByteEnd] {
			t.Errorf("token %+v does not match raw[%d:%d]=%q", tok, tok.ByteStart, tok.ByteEnd, raw[tok.ByteStart:tok.ByteEnd])
		}
	}
	if toks[0].ByteStart != 0 || toks[len(toks)-1].ByteEnd != len(raw) {
		t.Errorf("tokens do not span the full input: first=%d last=%d len=%d", toks[0].ByteStart, toks[len(toks)-1].ByteEnd, len(raw))
	}
}

func TestWords_SegmentsDistinctWords(t *testing.T) {
	toks := Words("Hello world")
	var texts []string
	for _, tok := range toks {
		if tok.Text == " " {
			continue
		}
		texts = append(texts, tok.Text)
	}
	if len(texts) != 2 || texts[0] != "Hello" || texts[1] != "world" {
		t.Errorf("got words %v, want [Hello world]", texts)
	}
}

// spec.md §8 scenario 1's book text splits into its two stated sentences.
func TestSentenceSpans_SplitsScenarioOneIntoTwoSentences(t *testing.T) {
	raw := "Hello world. Goodbye cruel world."
	spans := Words(raw) // sanity: tokenizing doesn't panic on the fixture text
	if len(spans) == 0 {
		t.Fatal("got no word tokens")
	}

	sentences := SentenceSpans(raw)
	if len(sentences) != 2 {
		t.Fatalf("got %d sentences, want 2: %+v", len(sentences), sentences)
	}
	for _, s := range sentences {
		if !s.IsSentence {
			t.Errorf("sentence span %+v should have IsSentence=true", s)
		}
		if s.Text != raw[s.ByteStart:s.ByteEnd] {
			t.Errorf("sentence span %+v does not match raw[%d:%d]=%q", s, s.ByteStart, s.ByteEnd, raw[s.ByteStart:s.ByteEnd])
		}
	}
	if sentences[len(sentences)-1].ByteEnd != len(raw) {
		t.Errorf("sentence spans do not cover the full input")
	}
}
