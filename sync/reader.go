package sync

import (
	"context"
	"errors"
	"sync"

	"github.com/MasterOfBinary/batchexec/executor"
)

// BatchReader provides synchronous read operations that are batched behind the scenes.
// It uses generics to provide type safety for keys and values.
type BatchReader[K comparable, V any] struct {
	ex     *executor.Executor[request[K, V], response[V], struct{}]
	closed bool
	mu     sync.Mutex
}

// NewBatchReader creates a new BatchReader with the specified configuration and read function.
// The readFunc will be called with batches of keys to fetch, at most MaxBatchSize at a time.
func NewBatchReader[K comparable, V any](config executor.Config, readFunc ReadFunc[K, V]) (*BatchReader[K, V], error) {
	if readFunc == nil {
		return nil, errors.New("read function cannot be nil")
	}

	proc := &readProcessor[K, V]{readFunc: readFunc}
	ex := executor.New[request[K, V], response[V], struct{}]()
	err := ex.Start(context.Background(), func(context.Context) (executor.Processor[request[K, V], response[V], struct{}], error) {
		return proc, nil
	}, &executor.StartOptions[struct{}]{Config: config})
	if err != nil {
		return nil, err
	}

	return &BatchReader[K, V]{ex: ex}, nil
}

// Get retrieves a value by key. It blocks until the batched operation completes
// or the context is cancelled. Multiple concurrent Get calls will be batched
// together according to the batch configuration.
//
// Get returns ErrKeyNotFound if the read function returned no value for key,
// and ErrClosed if the reader is closed.
func (r *BatchReader[K, V]) Get(ctx context.Context, key K) (V, error) {
	return wait(ctx, r.ex, request[K, V]{key: key})
}

// Close shuts down the BatchReader. A batch being read is allowed to
// finish; calls still queued return ErrClosed.
func (r *BatchReader[K, V]) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	r.closed = true
	r.ex.Stop()
}

// readProcessor implements executor.Processor for read requests.
type readProcessor[K comparable, V any] struct {
	readFunc ReadFunc[K, V]
}

func (p *readProcessor[K, V]) Process(ctx context.Context, reqs []request[K, V], _ struct{}) ([]response[V], error) {
	results := make([]response[V], len(reqs))

	// Requests whose callers already gave up are not read
	active := splitActive(reqs, results)
	if len(active) == 0 {
		return results, nil
	}

	keys := make([]K, len(active))
	for i, idx := range active {
		keys[i] = reqs[idx].key
	}

	// Execute batched read
	values, err := p.readFunc(ctx, keys)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Batch error affects all requests
		for _, idx := range active {
			results[idx].err = err
		}
		return results, nil
	}

	for _, idx := range active {
		value, found := values[reqs[idx].key]
		if !found {
			results[idx].err = ErrKeyNotFound
			continue
		}
		results[idx].value = value
	}

	return results, nil
}
