package align

import (
	"github.com/narrationlab/bookalign/internal/anchor"
	"github.com/narrationlab/bookalign/internal/asr"
	"github.com/narrationlab/bookalign/internal/bookindex"
	"github.com/narrationlab/bookalign/internal/text"
)

// AlignWindows runs the windowed aligner across every consecutive anchor
// pair (spec.md §4.4, "alignment window" in §3) and concatenates the
// resulting WordOps with book/asr indices translated back to global
// positions.
func AlignWindows(idx *bookindex.Index, resp asr.Response, doc anchor.Document, costs Costs) []WordOp {
	var all []WordOp
	for i := 0; i+1 < len(doc.Anchors); i++ {
		lo := doc.Anchors[i]
		hi := doc.Anchors[i+1]
		ops := alignWindow(idx, resp, lo.BookPosition, hi.BookPosition, lo.AsrPosition, hi.AsrPosition, costs)
		all = append(all, ops...)
	}
	// Trailing window past the last anchor to the end of both sequences.
	if len(doc.Anchors) > 0 {
		last := doc.Anchors[len(doc.Anchors)-1]
		bookEnd := uint32(len(idx.Words))
		asrEnd := uint32(len(resp.Tokens))
		if last.BookPosition < bookEnd || last.AsrPosition < asrEnd {
			ops := alignWindow(idx, resp, last.BookPosition, bookEnd, last.AsrPosition, asrEnd, costs)
			all = append(all, ops...)
		}
	}
	return all
}

// alignWindow aligns book[bLo..bHi) against asr[aLo..aHi), translating the
// local WordOp indices back to global.
func alignWindow(idx *bookindex.Index, resp asr.Response, bLo, bHi, aLo, aHi uint32, costs Costs) []WordOp {
	if bHi > uint32(len(idx.Words)) {
		bHi = uint32(len(idx.Words))
	}
	if aHi > uint32(len(resp.Tokens)) {
		aHi = uint32(len(resp.Tokens))
	}
	if bLo >= bHi && aLo >= aHi {
		return nil
	}

	bookTokens := make([]BookToken, 0, bHi-bLo)
	for i := bLo; i < bHi; i++ {
		norm, _ := text.Normalize(idx.Words[i].Text)
		phoneme := ""
		if idx.Words[i].Phoneme != nil {
			phoneme = *idx.Words[i].Phoneme
		}
		bookTokens = append(bookTokens, BookToken{Normalized: norm, Phoneme: phoneme})
	}
	asrTokens := make([]AsrToken, 0, aHi-aLo)
	for i := aLo; i < aHi; i++ {
		norm, _ := text.Normalize(resp.Tokens[i].Text)
		asrTokens = append(asrTokens, AsrToken{Normalized: norm})
	}

	local := Align(bookTokens, asrTokens, costs)
	for k := range local {
		if local[k].BookIdx >= 0 {
			local[k].BookIdx += int64(bLo)
		}
		if local[k].AsrIdx >= 0 {
			local[k].AsrIdx += int64(aLo)
		}
	}
	return local
}
