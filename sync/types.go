package sync

import (
	"context"
	"errors"

	"github.com/MasterOfBinary/batchexec/executor"
)

var (
	// ErrKeyNotFound is returned by BatchReader.Get when the read function
	// did not return a value for the key.
	ErrKeyNotFound = errors.New("key not found")

	// ErrClosed is returned by calls made after Close, and by calls still
	// queued when Close was called.
	ErrClosed = errors.New("batch closed")
)

// ReadFunc is a user-provided function that performs a batched read operation.
// It receives a slice of keys to fetch and returns a map of results.
// Missing keys can be omitted from the result map.
type ReadFunc[K comparable, V any] func(ctx context.Context, keys []K) (map[K]V, error)

// WriteFunc is a user-provided function that performs a batched write operation.
// It receives a map of key-value pairs to write and returns an error if the
// entire batch fails. For partial failures, implementations should still return
// nil and handle failures internally.
type WriteFunc[K comparable, V any] func(ctx context.Context, data map[K]V) error

// request is a single call waiting in the executor queue.
type request[K comparable, V any] struct {
	ctx   context.Context
	key   K
	value V
}

// response is the executor result of a request.
type response[V any] struct {
	value V
	err   error
}

// outcomeErr converts the outcome of a request into the error returned to
// the caller.
func outcomeErr[V any](o executor.Outcome[response[V]]) (V, error) {
	switch o.Status {
	case executor.StatusProduced:
		return o.Value.value, o.Value.err
	case executor.StatusStopped:
		var zero V
		return zero, ErrClosed
	default:
		var zero V
		return zero, o.Err
	}
}

// wait submits req to ex and blocks until it is resolved or ctx is done.
func wait[K comparable, V, R any](ctx context.Context, ex *executor.Executor[request[K, V], response[R], struct{}],
	req request[K, V]) (R, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req.ctx = ctx

	if err := ctx.Err(); err != nil {
		var zero R
		return zero, err
	}

	o, err := ex.Submit(req).WaitContext(ctx)
	if err != nil {
		var zero R
		return zero, err
	}
	return outcomeErr(o)
}

// splitActive returns the indexes of requests whose context is still live,
// and fills results for the others with their context error.
func splitActive[K comparable, V, R any](reqs []request[K, V], results []response[R]) []int {
	active := make([]int, 0, len(reqs))
	for i, req := range reqs {
		if err := req.ctx.Err(); err != nil {
			results[i].err = err
			continue
		}
		active = append(active, i)
	}
	return active
}
