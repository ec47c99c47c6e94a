package processor

import (
	"context"

	"github.com/MasterOfBinary/batchexec/executor"
)

// MapFunc computes the result for a single input. stream is the value the
// executor was started with.
type MapFunc[In, Out, S any] func(ctx context.Context, input In, stream S) (Out, error)

// MapOption configures Map and ParallelMap.
type MapOption func(*mapOptions)

type mapOptions struct {
	onError func(index int, err error)
}

// OnItemError sets a function that is called with the batch index and the
// error of the input that cut a batch short.
func OnItemError(fn func(index int, err error)) MapOption {
	return func(o *mapOptions) {
		o.onError = fn
	}
}

// LogItemErrors logs the error that cut a batch short at warn level.
func LogItemErrors(logger executor.Logger) MapOption {
	return OnItemError(func(index int, err error) {
		logger.Warn("Input %d of batch failed: %v", index, err)
	})
}

func newMapOptions(opts []MapOption) mapOptions {
	var o mapOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.onError == nil {
		o.onError = func(int, error) {}
	}
	return o
}

// Map returns a Processor that applies fn to each input in order.
//
// If fn fails for an input, Map stops and returns the results computed so
// far without an error, so that input and every later one in the batch
// resolve with executor.StatusNotProduced. The error is passed to the
// OnItemError function, if any. If ctx is cancelled, Map returns ctx.Err().
func Map[In, Out, S any](fn MapFunc[In, Out, S], opts ...MapOption) executor.ProcessorFunc[In, Out, S] {
	o := newMapOptions(opts)

	return func(ctx context.Context, inputs []In, stream S) ([]Out, error) {
		out := make([]Out, 0, len(inputs))
		for i, in := range inputs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			v, err := fn(ctx, in, stream)
			if err != nil {
				o.onError(i, err)
				return out, nil
			}
			out = append(out, v)
		}
		return out, nil
	}
}
