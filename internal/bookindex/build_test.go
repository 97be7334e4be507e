package bookindex

import "testing"

// wordsFromText builds a []Word whose Text fields are exactly toks, with no
// byte offsets — enough to drive buildSentences/buildParagraphs/buildSections
// without depending on the real tokenizer's segmentation of punctuation.
func wordsFromText(toks ...string) []Word {
	words := make([]Word, len(toks))
	for i, tok := range toks {
		words[i] = Word{Index: uint32(i), Text: tok}
	}
	return words
}

// scenario 1's book text, tokenized as the abbreviation-free case: two
// sentences, "Hello world." and "Goodbye cruel world.".
func TestBuildSentences_SplitsOnTerminalPunctuation(t *testing.T) {
	words := wordsFromText("Hello", "world.", "Goodbye", "cruel", "world.")
	sentences := buildSentences("", words)

	if len(sentences) != 2 {
		t.Fatalf("got %d sentences, want 2: %+v", len(sentences), sentences)
	}
	if sentences[0].StartWord != 0 || sentences[0].EndWord != 1 {
		t.Errorf("sentence 0 got range [%d,%d], want [0,1]", sentences[0].StartWord, sentences[0].EndWord)
	}
	if sentences[1].StartWord != 2 || sentences[1].EndWord != 4 {
		t.Errorf("sentence 1 got range [%d,%d], want [2,4]", sentences[1].StartWord, sentences[1].EndWord)
	}
}

// the abbreviation guard: a trailing single letter or honorific before "."
// must not end a sentence, so "Dr. Smith left." is one sentence, not two.
func TestBuildSentences_AbbreviationGuardSuppressesFalseBoundary(t *testing.T) {
	words := wordsFromText("Dr.", "Smith", "left.")
	sentences := buildSentences("", words)

	if len(sentences) != 1 {
		t.Fatalf("got %d sentences, want 1 (the honorific should not split): %+v", len(sentences), sentences)
	}
	if sentences[0].StartWord != 0 || sentences[0].EndWord != 2 {
		t.Errorf("got range [%d,%d], want [0,2]", sentences[0].StartWord, sentences[0].EndWord)
	}
}

func TestBuildSentences_SingleLetterInitialIsAnAbbreviation(t *testing.T) {
	words := wordsFromText("J.", "Smith", "arrived.")
	sentences := buildSentences("", words)
	if len(sentences) != 1 {
		t.Fatalf("got %d sentences, want 1: %+v", len(sentences), sentences)
	}
}

// a trailing sentence with no terminal punctuation must still be captured,
// never silently dropped.
func TestBuildSentences_TrailingFragmentWithoutPunctuationIsKept(t *testing.T) {
	words := wordsFromText("Hello", "world.", "trailing", "fragment")
	sentences := buildSentences("", words)
	if len(sentences) != 2 {
		t.Fatalf("got %d sentences, want 2: %+v", len(sentences), sentences)
	}
	last := sentences[len(sentences)-1]
	if last.StartWord != 2 || last.EndWord != 3 {
		t.Errorf("trailing fragment got range [%d,%d], want [2,3]", last.StartWord, last.EndWord)
	}
}

func TestIsAbbreviation(t *testing.T) {
	cases := map[string]bool{
		"Mr.":      true,
		"Dr.":      true,
		"J.":       true,
		"world.":   false,
		"etc.":     true,
		"tomorrow": false,
	}
	for tok, want := range cases {
		if got := isAbbreviation(tok); got != want {
			t.Errorf("isAbbreviation(%q) = %v, want %v", tok, got, want)
		}
	}
}

func TestAssignSentenceIndex(t *testing.T) {
	words := wordsFromText("Hello", "world.", "Goodbye", "cruel", "world.")
	sentences := buildSentences("", words)
	assignSentenceIndex(words, sentences)

	for i := 0; i <= 1; i++ {
		if words[i].SentenceIndex != 0 {
			t.Errorf("word %d got sentence index %d, want 0", i, words[i].SentenceIndex)
		}
	}
	for i := 2; i <= 4; i++ {
		if words[i].SentenceIndex != 1 {
			t.Errorf("word %d got sentence index %d, want 1", i, words[i].SentenceIndex)
		}
	}
}

func TestIndex_WordRangeAndJoinedText(t *testing.T) {
	idx := &Index{Words: wordsFromText("Hello", "world.", "Goodbye", "cruel", "world.")}

	got := idx.WordRange(2, 4)
	if len(got) != 3 || got[0].Text != "Goodbye" {
		t.Errorf("got %+v, want words 2..4", got)
	}

	if text := idx.JoinedText(2, 4); text != "Goodbye cruel world." {
		t.Errorf("got %q, want %q", text, "Goodbye cruel world.")
	}

	// clamps an out-of-range end rather than panicking.
	if got := idx.WordRange(3, 99); len(got) != 2 {
		t.Errorf("got %d words, want clamped to the last 2", len(got))
	}
}
