package montecarlo

import (
	"context"

	"gointegral/domain/integration"
	"gointegral/internal/errors"

	"golang.org/x/sync/errgroup"
)

type batchResult struct {
	index int
	size  int
	acc   accumulator
}

// integrateParallel hands disjoint batches to a bounded worker pool. Workers
// only return per-batch accumulators; the reduction and progress reporting
// happen here, on the calling goroutine, in batch order.
func (s *Solver) integrateParallel(ctx context.Context, f integration.BatchFunc, bounds integration.Bounds, plan []int, seed uint64) (accumulator, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := min(s.cfg.Workers, len(plan))
	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan batchJob)
	results := make(chan batchResult, workers)

	g.Go(func() error {
		defer close(jobs)
		for _, job := range jobsFor(plan) {
			select {
			case jobs <- job:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			w := newWorkspace(plan[0], bounds.Dimension())
			for job := range jobs {
				if err := gctx.Err(); err != nil {
					return err
				}
				acc, err := s.runBatch(f, bounds, job, seed, w)
				if err != nil {
					return err
				}
				select {
				case results <- batchResult{index: job.index, size: job.size, acc: acc}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	go func() {
		_ = g.Wait()
		close(results)
	}()

	partials := make([]accumulator, len(plan))
	processed, completed := 0, 0
	var progressErr error
	for r := range results {
		partials[r.index] = r.acc
		processed += r.size
		completed++
		if progressErr != nil {
			continue
		}
		if err := s.report(processed, completed-1, len(plan)); err != nil {
			progressErr = err
			cancel()
		}
	}

	werr := g.Wait()
	if progressErr != nil {
		return accumulator{}, progressErr
	}
	if werr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(werr, ctxErr) {
			return accumulator{}, errors.Wrapf(werr, "monte carlo cancelled after %d of %d samples", processed, s.cfg.Samples)
		}
		return accumulator{}, werr
	}

	var total accumulator
	for _, p := range partials {
		total = total.merge(p)
	}
	return total, nil
}
