package docparse

import (
	"os"
	"regexp"
	"strings"
)

// chapterHeadingRe is the fallback heading-candidate pattern used when a
// document has no explicit markup (spec.md §4.2: "fallback to a
// configurable regex list").
var chapterHeadingRe = regexp.MustCompile(`(?i)^\s*(chapter|part|book)\s+([0-9]+|[ivxlcdm]+)\b.*$`)

// MarkdownParser extracts structure hints from Markdown heading syntax
// (`#`.."######") and blank-line paragraph breaks.
type MarkdownParser struct{}

func (MarkdownParser) Parse(path string) (ParseResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ParseResult{}, err
	}
	return parseLineOriented(string(raw), true), nil
}

// TextParser extracts structure hints from plain text using only the
// fallback "Chapter N" heading regex and blank-line paragraph breaks.
type TextParser struct{}

func (TextParser) Parse(path string) (ParseResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ParseResult{}, err
	}
	return parseLineOriented(string(raw), false), nil
}

// parseLineOriented walks raw line by line, recording paragraph-break hints
// at blank lines and heading hints at Markdown ATX headings (if
// markdownHeadings) or the fallback chapter-heading regex otherwise.
func parseLineOriented(raw string, markdownHeadings bool) ParseResult {
	var hints StructureHints
	offset := 0
	lines := strings.Split(raw, "\n")

	blankRun := 0
	for _, line := range lines {
		lineLen := len(line) + 1 // +1 for the stripped '\n'
		trimmed := strings.TrimSpace(line)

		isHeading := false
		headingText := trimmed
		if markdownHeadings && strings.HasPrefix(trimmed, "#") {
			isHeading = true
			headingText = strings.TrimLeft(trimmed, "# \t")
		} else if chapterHeadingRe.MatchString(trimmed) {
			isHeading = true
		}

		if isHeading {
			hints.Headings = append(hints.Headings, HeadingHint{ByteOffset: offset, Text: headingText})
		}

		if trimmed == "" {
			blankRun++
			if blankRun == 1 && offset > 0 {
				hints.ParagraphBreaks = append(hints.ParagraphBreaks, ParagraphBreakHint{ByteOffset: offset})
			}
		} else {
			blankRun = 0
		}

		offset += lineLen
	}

	return ParseResult{FullText: raw, StructureHints: hints}
}
