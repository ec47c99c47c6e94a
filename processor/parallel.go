package processor

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/MasterOfBinary/batchexec/executor"
)

// ParallelMap returns a Processor that applies fn to the inputs of a batch
// concurrently, with at most limit calls in flight. A limit below 1 means
// no limit.
//
// Results keep the order of the inputs. If fn fails for an input, the
// remaining calls are cancelled and the longest prefix of successful
// results is returned, so the failed input and everything after it resolve
// with executor.StatusNotProduced. The first error is passed to the
// OnItemError function, if any. If the parent ctx is cancelled, ParallelMap
// returns ctx.Err().
func ParallelMap[In, Out, S any](limit int, fn MapFunc[In, Out, S], opts ...MapOption) executor.ProcessorFunc[In, Out, S] {
	o := newMapOptions(opts)

	return func(ctx context.Context, inputs []In, stream S) ([]Out, error) {
		if len(inputs) == 0 {
			return nil, nil
		}

		eg, egCtx := errgroup.WithContext(ctx)
		if limit > 0 {
			eg.SetLimit(limit)
		}

		results := make([]Out, len(inputs))
		ok := make([]bool, len(inputs))

		// failedAt and failErr record the first fn call that failed
		var mu sync.Mutex
		failedAt := -1
		var failErr error

		for i, in := range inputs {
			i, in := i, in
			eg.Go(func() error {
				if err := egCtx.Err(); err != nil {
					return err
				}
				v, err := fn(egCtx, in, stream)
				if err != nil {
					mu.Lock()
					if failedAt < 0 {
						failedAt, failErr = i, err
					}
					mu.Unlock()
					return err
				}
				// Each goroutine writes only its own index.
				results[i] = v
				ok[i] = true
				return nil
			})
		}

		_ = eg.Wait()

		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if failedAt >= 0 {
			o.onError(failedAt, failErr)
		}

		n := 0
		for n < len(ok) && ok[n] {
			n++
		}
		return results[:n], nil
	}
}
