package concurrency

import "time"

// Stage-local timeout defaults (spec.md §5), implemented as cancellation
// triggers layered over the caller's context.
const (
	AsrTimeout = 15 * time.Minute
	MfaTimeout = 30 * time.Minute
	CpuTimeout = 10 * time.Minute
)
