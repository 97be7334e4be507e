package textgrid

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/narrationlab/bookalign/internal/errs"
)

// Parse reads a Praat long-text TextGrid file and extracts the word tier
// named "words" (spec.md §6 file formats, §4.6).
func Parse(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, errs.New(errs.InputMissing, "", "mfa", fmt.Sprintf("textgrid file missing: %s", path), err)
	}
	defer f.Close()

	return parseReader(f, path)
}

func parseReader(f *os.File, path string) (Document, error) {
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	var inWordsTier bool
	var words []Word
	lineNo := 0

	var pendingXmin, pendingXmax *float64
	var pendingHasText bool
	var pendingText string

	flush := func() {
		if pendingXmin != nil && pendingXmax != nil && pendingHasText {
			text := strings.TrimSpace(pendingText)
			if text != "" {
				words = append(words, Word{Text: text, StartSec: *pendingXmin, EndSec: *pendingXmax})
			}
		}
		pendingXmin, pendingXmax = nil, nil
		pendingHasText = false
		pendingText = ""
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if strings.Contains(line, `name = "words"`) {
			inWordsTier = true
			continue
		}
		if strings.HasPrefix(line, "item [") {
			// Entering a new tier; stop collecting once we've left "words".
			if inWordsTier && len(words) > 0 {
				inWordsTier = false
			}
		}
		if !inWordsTier {
			continue
		}

		if strings.HasPrefix(line, "intervals [") {
			flush()
			continue
		}
		switch {
		case strings.HasPrefix(line, "xmin = "):
			v, perr := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(line, "xmin = ")), 64)
			if perr == nil {
				pendingXmin = &v
			}
		case strings.HasPrefix(line, "xmax = "):
			v, perr := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(line, "xmax = ")), 64)
			if perr == nil {
				pendingXmax = &v
			}
		case strings.HasPrefix(line, "text = "):
			pendingHasText = true
			pendingText = unquote(strings.TrimSpace(strings.TrimPrefix(line, "text = ")))
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return Document{}, errs.New(errs.InputInvalid, "", "mfa", fmt.Sprintf("textgrid scan error at %s:%d", path, lineNo), err)
	}
	return Document{Words: words}, nil
}

// unquote strips a single pair of surrounding double quotes, un-escaping
// doubled internal quotes ("" -> ") per Praat's text format.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return strings.ReplaceAll(s, `""`, `"`)
}
