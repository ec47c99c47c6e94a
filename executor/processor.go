package executor

import (
	"context"
	"reflect"
)

// Processor computes results for a batch of inputs. It is the processing
// unit an Executor feeds, for example a loaded inference model.
//
// Process is only ever called from the executor's worker goroutine, one
// batch at a time, so implementations do not need to be safe for concurrent
// use. stream is the value given in StartOptions, passed through unchanged.
//
// The returned results are index-aligned with inputs. Returning fewer
// results than inputs is allowed; the remaining items resolve with
// StatusNotProduced. Returning an error resolves every item in the batch with
// StatusFailed.
//
// ctx is cancelled when the executor is stopped. A Processor that gives up
// because of it should return ctx.Err(); its items then resolve with
// StatusStopped.
//
// If the Processor also implements io.Closer, Close is called once the
// executor that created it has stopped.
type Processor[In, Out, S any] interface {
	Process(ctx context.Context, inputs []In, stream S) ([]Out, error)
}

// ProcessorFunc adapts a function to a Processor.
type ProcessorFunc[In, Out, S any] func(ctx context.Context, inputs []In, stream S) ([]Out, error)

// Process implements Processor for ProcessorFunc.
func (f ProcessorFunc[In, Out, S]) Process(ctx context.Context, inputs []In, stream S) ([]Out, error) {
	return f(ctx, inputs, stream)
}

// Factory creates the Processor for one run of an Executor. It is called
// once per Start, on the worker goroutine, and may be arbitrarily expensive
// (loading model weights, for instance). Returning an error, or a nil
// Processor, makes Start fail.
type Factory[In, Out, S any] func(ctx context.Context) (Processor[In, Out, S], error)

// isNil reports whether p is nil or a nil pointer stored in an interface.
func isNil(p interface{}) bool {
	if p == nil {
		return true
	}
	v := reflect.ValueOf(p)
	switch v.Kind() {
	case reflect.Ptr, reflect.Func, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan:
		return v.IsNil()
	}
	return false
}
