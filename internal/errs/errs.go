// Package errs implements the pipeline's error taxonomy. Stages classify
// failures by Kind rather than by sentinel error values, so that callers
// (the orchestrator, the CLI) can apply the propagation policy in spec §7
// uniformly across stages.
package errs

import "fmt"

// Kind classifies a pipeline failure. See spec.md §7.
type Kind string

const (
	// InputMissing: required file/directory absent. Never retried.
	InputMissing Kind = "input_missing"
	// InputInvalid: parse error on a user file (book, ASR JSON, TextGrid). Never retried.
	InputInvalid Kind = "input_invalid"
	// ToolUnavailable: external tool cannot be invoked. Not retried by the core.
	ToolUnavailable Kind = "tool_unavailable"
	// ToolExitNonZero: external tool returned non-zero.
	ToolExitNonZero Kind = "tool_exit_nonzero"
	// AlignmentInsufficient: fewer than two anchors producible. Recovered locally
	// by falling back to whole-chapter windowing; only surfaced if that also fails.
	AlignmentInsufficient Kind = "alignment_insufficient"
	// MergeInconsistent: TextGrid/book matching produced unresolvable monotonicity violations.
	MergeInconsistent Kind = "merge_inconsistent"
	// Cancelled: cooperative cancel/timeout.
	Cancelled Kind = "cancelled"
	// IOError: disk or network transient. Stages may retry once with backoff
	// for ASR/MFA network calls, otherwise surfaced.
	IOError Kind = "io_error"
)

// maxCauseTailLines bounds how many trailing lines of captured tool
// stdout/stderr are retained on a ToolExitNonZero error (spec §7: "last 20
// lines each").
const maxCauseTailLines = 20

// PipelineError carries structured failure context for a single stage
// invocation. It implements error and supports errors.Is/As via Unwrap.
type PipelineError struct {
	Kind      Kind
	ChapterID string
	Stage     string
	Message   string
	Cause     error
	// CauseTail is a field for the last lines of captured external-tool
	// stdout/stderr. New leaves it empty; the adapters in this module put
	// that tail (via TailLines) into Cause instead.
	CauseTail string
}

func (e *PipelineError) Error() string {
	if e.ChapterID != "" && e.Stage != "" {
		return fmt.Sprintf("%s: chapter %s stage %s: %s", e.Kind, e.ChapterID, e.Stage, e.Message)
	}
	if e.Stage != "" {
		return fmt.Sprintf("%s: stage %s: %s", e.Kind, e.Stage, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *PipelineError) Unwrap() error { return e.Cause }

// New builds a PipelineError for the given chapter/stage.
func New(kind Kind, chapterID, stage, message string, cause error) *PipelineError {
	return &PipelineError{Kind: kind, ChapterID: chapterID, Stage: stage, Message: message, Cause: cause}
}

// Retryable reports whether the propagation policy (spec §7) permits a
// single local retry for this error kind. Only transient network IOError is
// retryable by the core; ToolUnavailable retry is left to the caller layer.
func Retryable(kind Kind) bool {
	return kind == IOError
}

// TailLines truncates s to at most maxCauseTailLines trailing lines, for
// embedding external-tool output in a ToolExitNonZero error.
func TailLines(s string) string {
	lines := splitLines(s)
	if len(lines) <= maxCauseTailLines {
		return s
	}
	tail := lines[len(lines)-maxCauseTailLines:]
	out := tail[0]
	for _, l := range tail[1:] {
		out += "\n" + l
	}
	return out
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	lines = append(lines, s[start:])
	return lines
}
