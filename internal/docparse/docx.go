package docparse

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// DocxParser extracts visible text runs from a DOCX's word/document.xml.
// No third-party DOCX library appears anywhere in the retrieval pack, so
// this adapter is stdlib-only (archive/zip + encoding/xml); see DESIGN.md.
type DocxParser struct{}

// wordBody mirrors just enough of the WordprocessingML schema to recover
// paragraphs, runs, and heading styles; everything else is ignored.
type wordBody struct {
	Paragraphs []wordParagraph `xml:"body>p"`
}

type wordParagraph struct {
	Props *wordParagraphProps `xml:"pPr"`
	Runs  []wordRun           `xml:"r"`
}

type wordParagraphProps struct {
	Style wordStyleRef `xml:"pStyle"`
}

type wordStyleRef struct {
	Val string `xml:"val,attr"`
}

type wordRun struct {
	Text []string `xml:"t"`
}

func (DocxParser) Parse(path string) (ParseResult, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return ParseResult{}, fmt.Errorf("docparse: open docx %s: %w", path, err)
	}
	defer zr.Close()

	var docXML io.ReadCloser
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docXML, err = f.Open()
			if err != nil {
				return ParseResult{}, fmt.Errorf("docparse: open word/document.xml: %w", err)
			}
			break
		}
	}
	if docXML == nil {
		return ParseResult{}, fmt.Errorf("docparse: %s has no word/document.xml", path)
	}
	defer docXML.Close()

	var body wordBody
	if err := xml.NewDecoder(docXML).Decode(&body); err != nil {
		return ParseResult{}, fmt.Errorf("docparse: decode document.xml: %w", err)
	}

	var b strings.Builder
	var hints StructureHints
	for _, p := range body.Paragraphs {
		var text strings.Builder
		for _, r := range p.Runs {
			for _, t := range r.Text {
				text.WriteString(t)
			}
		}
		line := text.String()
		if line == "" {
			continue
		}

		offset := b.Len()
		style := ""
		if p.Props != nil {
			style = p.Props.Style.Val
		}
		if strings.HasPrefix(strings.ToLower(style), "heading") {
			hints.Headings = append(hints.Headings, HeadingHint{ByteOffset: offset, Text: line})
		}
		if offset > 0 {
			hints.ParagraphBreaks = append(hints.ParagraphBreaks, ParagraphBreakHint{ByteOffset: offset})
		}

		b.WriteString(line)
		b.WriteString("\n")
	}

	return ParseResult{FullText: b.String(), StructureHints: hints}, nil
}
