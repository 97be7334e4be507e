package asr

import (
	"fmt"
	"os"

	openai "github.com/openai/openai-go/v3"
)

// openAudioFile opens audioPath for streaming into the multipart transcription
// request body; the OpenAI SDK accepts any io.Reader for the file field.
func openAudioFile(audioPath string) (*os.File, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("asr: open audio file %s: %w", audioPath, err)
	}
	return f, nil
}

// mapVerboseTranscription converts the SDK's verbose-JSON transcription
// result (word-level timestamps requested via TimestampGranularities) into
// the package's AsrResponse, preserving chronological order as required by
// spec.md §4.12.
func mapVerboseTranscription(t openai.Transcription, modelVersion string) (Response, error) {
	tokens := make([]Token, 0, len(t.Words))
	for _, w := range t.Words {
		dur := w.End - w.Start
		if dur < 0 {
			dur = 0
		}
		tokens = append(tokens, Token{
			StartSec:    w.Start,
			DurationSec: dur,
			Text:        w.Word,
		})
	}

	segments := make([]Segment, 0, len(t.Segments))
	for _, s := range t.Segments {
		segments = append(segments, Segment{
			StartSec: s.Start,
			EndSec:   s.End,
			Text:     s.Text,
		})
	}

	return Response{
		ModelVersion: modelVersion,
		Tokens:       tokens,
		Segments:     segments,
	}, nil
}
