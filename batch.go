package redact

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// BatchResult pairs one document's Result with any error redacting it
// produced, since a batch must report per-document failures without
// aborting the documents around it.
type BatchResult struct {
	Result
	Err error
}

// RedactBatch redacts every document in docs, parallel internally across
// a bounded errgroup.Group (spec.md §6 "redact_batch ... batch; parallel
// internally"). Cancellation is cooperative and checked only between
// documents — spec.md §5 "Cancellation": an individual document always
// runs to completion once started, never aborted mid-flight. A document
// not yet dispatched when ctx is cancelled gets ctx.Err() as its
// BatchResult.Err instead of running.
func (e *Engine) RedactBatch(ctx context.Context, docs []Document) []BatchResult {
	results := make([]BatchResult, len(docs))
	if len(docs) == 0 {
		return results
	}

	workers := e.Workers
	if workers <= 0 {
		workers = 4
	}

	g, gctx := errgroup.WithContext(context.Background())
	g.SetLimit(workers)

	for i := range docs {
		i := i
		g.Go(func() error {
			select {
			case <-ctx.Done():
				results[i] = BatchResult{Err: ctx.Err()}
				return nil
			default:
			}
			res, err := e.Redact(gctx, docs[i])
			results[i] = BatchResult{Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait() // every goroutine always returns nil; per-document errors live in BatchResult

	return results
}
