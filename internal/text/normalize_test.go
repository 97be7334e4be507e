package text

import "testing"

func TestNormalize_CasefoldsAndTrimsPunctuation(t *testing.T) {
	got, ok := Normalize("Hello,")
	if !ok {
		t.Fatal("got ok=false for valid UTF-8")
	}
	if got != "hello" {
		t.Errorf("got %q, want %q", got, "hello")
	}
}

func TestNormalize_PreservesInternalApostropheAndHyphen(t *testing.T) {
	for _, s := range []string{"don't", "mother-in-law"} {
		got, ok := Normalize(s)
		if !ok || got != s {
			t.Errorf("Normalize(%q) = (%q, %v), want (%q, true) unchanged", s, got, ok, s)
		}
	}
}

func TestNormalize_FoldsCurlyApostrophes(t *testing.T) {
	got, ok := Normalize("don’t")
	if !ok {
		t.Fatal("got ok=false")
	}
	if got != "don't" {
		t.Errorf("got %q, want the ASCII-apostrophe form %q", got, "don't")
	}
}

func TestNormalize_StripsOuterPunctuationOnly(t *testing.T) {
	got, ok := Normalize(`"world"`)
	if !ok || got != "world" {
		t.Errorf("got (%q, %v), want (%q, true)", got, ok, "world")
	}
}

func TestNormalize_RejectsInvalidUTF8(t *testing.T) {
	_, ok := Normalize(string([]byte{0xff, 0xfe}))
	if ok {
		t.Error("got ok=true for invalid UTF-8, want false")
	}
}

func TestNormalize_NFKCFoldsCompatibilityVariants(t *testing.T) {
	// U+FF28 U+FF45 U+FF4C U+FF4C U+FF4F is fullwidth "Hello"; NFKC folds it
	// to ASCII, then casefold lowercases it.
	got, ok := Normalize("Ｈｅｌｌｏ")
	if !ok || got != "hello" {
		t.Errorf("got (%q, %v), want (%q, true)", got, ok, "hello")
	}
}

func TestIsContent_FiltersStopwordsAndPunctuation(t *testing.T) {
	stop, ok := Lookup("en-basic")
	if !ok {
		t.Fatal("en-basic stopword set not registered")
	}
	if IsContent("the", stop) {
		t.Error("\"the\" should not be content under en-basic")
	}
	if IsContent("", stop) {
		t.Error("empty string should never be content")
	}
	if IsContent("...", stop) {
		t.Error("punctuation-only token should never be content")
	}
	if !IsContent("hello", stop) {
		t.Error("\"hello\" should be content under en-basic")
	}
}

func TestIsContent_EmptyStopwordsTreatsEverythingAsContent(t *testing.T) {
	if !IsContent("the", Empty) {
		t.Error("the \"none\" stopword set should treat every real word as content")
	}
}
