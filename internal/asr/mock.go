package asr

import "context"

// MockAsr is a fixed-response adapter for tests and offline runs, grounded
// on the need for "injectability for tests" called out by spec.md §9's
// single-implementation-interface note.
type MockAsr struct {
	Response Response
	Err      error
	Version  string
}

func (m *MockAsr) ModelVersion() string {
	if m.Version != "" {
		return m.Version
	}
	return "mock-asr-v1"
}

func (m *MockAsr) Transcribe(ctx context.Context, audioPath string, opts Options) (Response, error) {
	if m.Err != nil {
		return Response{}, m.Err
	}
	r := m.Response
	if r.ModelVersion == "" {
		r.ModelVersion = m.ModelVersion()
	}
	return r, nil
}

var _ Asr = (*MockAsr)(nil)
