package docparse

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PDFParser extracts per-page text via pdfcpu's text-extraction mode and
// turns page boundaries into paragraph-break hints, and page headers
// matching the chapter-heading regex (or short all-caps lines, a common
// running-header shape) into heading candidates.
type PDFParser struct{}

func (PDFParser) Parse(path string) (ParseResult, error) {
	pages, err := extractPageText(path)
	if err != nil {
		return ParseResult{}, fmt.Errorf("docparse: pdf extract %s: %w", path, err)
	}

	var b strings.Builder
	var hints StructureHints
	for _, page := range pages {
		offset := b.Len()
		if offset > 0 {
			hints.ParagraphBreaks = append(hints.ParagraphBreaks, ParagraphBreakHint{ByteOffset: offset})
		}

		for _, line := range strings.Split(page, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}
			if chapterHeadingRe.MatchString(trimmed) || isLikelyRunningHeader(trimmed) {
				hints.Headings = append(hints.Headings, HeadingHint{ByteOffset: b.Len(), Text: trimmed})
			}
		}

		b.WriteString(page)
		if !strings.HasSuffix(page, "\n") {
			b.WriteByte('\n')
		}
	}

	return ParseResult{FullText: b.String(), StructureHints: hints}, nil
}

// isLikelyRunningHeader matches short, all-caps lines such as "CHAPTER ONE"
// or "THE RIVER HOUSE" that PDFs commonly render as a page's running
// header/chapter title, where the numeric chapterHeadingRe pattern misses
// spelled-out or titled headings.
func isLikelyRunningHeader(line string) bool {
	if len(line) == 0 || len(line) > 60 {
		return false
	}
	letters := 0
	for _, r := range line {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			letters++
		}
	}
	return letters >= 3
}

// extractPageText renders each page of the PDF at path to plain text using
// pdfcpu's "text" extraction mode, which writes one <page>.txt file per
// page into a scratch directory. Files are read back in page order.
func extractPageText(path string) ([]string, error) {
	scratch, err := os.MkdirTemp("", "bookalign-pdftext-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(scratch)

	if err := api.ExtractTextFile(path, scratch, nil, nil); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(scratch)
	if err != nil {
		return nil, err
	}

	type numbered struct {
		n    int
		path string
	}
	var files []numbered
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		// pdfcpu names extracted text files "<basename>_<page>.txt"; pull the
		// trailing numeric component for ordering.
		parts := strings.Split(name, "_")
		n, convErr := strconv.Atoi(parts[len(parts)-1])
		if convErr != nil {
			continue
		}
		files = append(files, numbered{n: n, path: filepath.Join(scratch, e.Name())})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].n < files[j].n })

	pages := make([]string, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f.path)
		if err != nil {
			return nil, err
		}
		pages = append(pages, string(data))
	}
	return pages, nil
}
