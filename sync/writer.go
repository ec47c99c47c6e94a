package sync

import (
	"context"
	"errors"
	"sync"

	"github.com/MasterOfBinary/batchexec/executor"
)

// BatchWriter provides synchronous write operations that are batched behind the scenes.
// It uses generics to provide type safety for keys and values.
type BatchWriter[K comparable, V any] struct {
	ex     *executor.Executor[request[K, V], response[struct{}], struct{}]
	closed bool
	mu     sync.Mutex
}

// NewBatchWriter creates a new BatchWriter with the specified configuration and write function.
// The writeFunc will be called with batches of key-value pairs to write.
func NewBatchWriter[K comparable, V any](config executor.Config, writeFunc WriteFunc[K, V]) (*BatchWriter[K, V], error) {
	if writeFunc == nil {
		return nil, errors.New("write function cannot be nil")
	}

	proc := &writeProcessor[K, V]{writeFunc: writeFunc}
	ex := executor.New[request[K, V], response[struct{}], struct{}]()
	err := ex.Start(context.Background(), func(context.Context) (executor.Processor[request[K, V], response[struct{}], struct{}], error) {
		return proc, nil
	}, &executor.StartOptions[struct{}]{Config: config})
	if err != nil {
		return nil, err
	}

	return &BatchWriter[K, V]{ex: ex}, nil
}

// Set writes a key-value pair. It blocks until the batched operation completes
// or the context is cancelled. Multiple concurrent Set calls will be batched
// together according to the batch configuration.
//
// If the same key is set more than once in a batch, the last value wins and
// every caller receives the result of the single write.
func (w *BatchWriter[K, V]) Set(ctx context.Context, key K, value V) error {
	_, err := wait(ctx, w.ex, request[K, V]{key: key, value: value})
	return err
}

// Close shuts down the BatchWriter. A batch being written is allowed to
// finish; calls still queued return ErrClosed.
func (w *BatchWriter[K, V]) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	w.closed = true
	w.ex.Stop()
}

// writeProcessor implements executor.Processor for write requests.
type writeProcessor[K comparable, V any] struct {
	writeFunc WriteFunc[K, V]
}

func (p *writeProcessor[K, V]) Process(ctx context.Context, reqs []request[K, V], _ struct{}) ([]response[struct{}], error) {
	results := make([]response[struct{}], len(reqs))

	active := splitActive(reqs, results)
	if len(active) == 0 {
		return results, nil
	}

	data := make(map[K]V, len(active))
	for _, idx := range active {
		// Last write wins for duplicate keys
		data[reqs[idx].key] = reqs[idx].value
	}

	// Execute batched write
	err := p.writeFunc(ctx, data)
	if err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}

	// Send result to all requests (same error for all in batch)
	for _, idx := range active {
		results[idx].err = err
	}

	return results, nil
}
