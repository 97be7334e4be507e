// Package docparse implements the book-document-parsing external
// collaborator described in spec.md §4.12: "parse(path) -> ParseResult{text,
// structure_hints}", deterministic for a given source file.
//
// spec.md treats this boundary as opaque; this package supplies concrete,
// file-extension-selected adapters so the pipeline is runnable end-to-end
// (SPEC_FULL.md §4.13).
package docparse

import (
	"fmt"
	"path/filepath"
	"strings"
)

// HeadingHint marks a candidate section heading found during parsing, at a
// byte offset into FullText.
type HeadingHint struct {
	ByteOffset int
	Text       string
}

// ParagraphBreakHint marks a byte offset in FullText where the source
// document had an explicit paragraph break (blank line, page break, block
// element boundary, ...).
type ParagraphBreakHint struct {
	ByteOffset int
}

// StructureHints carries the source format's structural signal forward so
// BookIndex construction does not have to re-derive it from prose alone.
type StructureHints struct {
	Headings         []HeadingHint
	ParagraphBreaks  []ParagraphBreakHint
}

// ParseResult is the parser's output (spec.md §4.12).
type ParseResult struct {
	FullText       string
	StructureHints StructureHints
}

// Parser is the capability interface the pipeline depends on; concrete
// adapters live in this package, one per supported source format.
type Parser interface {
	// Parse is deterministic for a given source file.
	Parse(path string) (ParseResult, error)
}

// ForPath selects a Parser by file extension.
func ForPath(path string) (Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return MarkdownParser{}, nil
	case ".txt":
		return TextParser{}, nil
	case ".pdf":
		return PDFParser{}, nil
	case ".docx":
		return DocxParser{}, nil
	case ".rtf":
		return RTFParser{}, nil
	default:
		return nil, fmt.Errorf("docparse: unsupported book format %q", filepath.Ext(path))
	}
}
