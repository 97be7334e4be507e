package concurrency

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunChapters runs fn once per chapter ID concurrently, bounded by
// maxConcurrent in-flight chapter pipelines, and returns the first error
// encountered (spec.md §5: "no ordering guarantee across chapters; stages
// may interleave freely subject to semaphore capacity" — the per-resource
// semaphores inside fn provide the finer-grained limits; this bounds raw
// goroutine fan-out).
func RunChapters(ctx context.Context, chapterIDs []string, maxConcurrent int, fn func(ctx context.Context, chapterID string) error) error {
	g, gctx := errgroup.WithContext(ctx)
	if maxConcurrent > 0 {
		g.SetLimit(maxConcurrent)
	}
	for _, id := range chapterIDs {
		id := id
		g.Go(func() error {
			return fn(gctx, id)
		})
	}
	return g.Wait()
}
