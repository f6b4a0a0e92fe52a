package router

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// BatchResult is the outcome of routing one task of a batch.
type BatchResult struct {
	Decision Decision
	Err      error
}

// RouteAll routes tasks concurrently, bounded by the router's parallelism.
// Results are in task order. A task that fails to route records its error
// in its result and does not stop the batch; only cancellation of ctx
// does, in which case unrouted tasks carry ctx's error.
func (r *Router) RouteAll(ctx context.Context, tasks []Task) ([]BatchResult, error) {
	results := make([]BatchResult, len(tasks))
	if len(tasks) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if r.parallelism > 0 {
		g.SetLimit(r.parallelism)
	}

	for i, task := range tasks {
		if err := gctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return err
			}
			d, err := r.Route(task)
			results[i] = BatchResult{Decision: d, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}
