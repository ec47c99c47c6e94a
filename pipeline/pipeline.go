// Package pipeline contains components that own an executor and present a
// simplified, synchronous API on top of it. Callers make plain blocking
// calls while the component batches them in the background.
//
// The key benefits of using a pipeline are:
//
//  1. Simplified API: Callers can use straightforward, synchronous method calls
//     (like Get(key)) without having to understand or interact with handles
//     and outcomes directly.
//
//  2. Batching Transparency: The pipeline handles all batching logic internally,
//     automatically grouping operations for efficiency without requiring the caller
//     to manage batches.
//
// Current Implementations:
//
//   - Doer: Turns any batch function into a blocking Do call.
//   - RedisPipeline: Provides a synchronous API for Redis operations while
//     sending each batch of commands in a single pipelined round trip.
package pipeline

import (
	"context"
	"errors"

	"github.com/MasterOfBinary/batchexec/executor"
)

// ErrNotRunning is returned by calls made while a pipeline is not started,
// and by calls still queued when it is stopped.
var ErrNotRunning = errors.New("pipeline: not running")

// await waits for h and converts its outcome into a value and an error.
func await[R any](ctx context.Context, h *executor.Handle[R]) (R, error) {
	var zero R

	o, err := h.WaitContext(ctx)
	if err != nil {
		return zero, err
	}

	switch o.Status {
	case executor.StatusProduced:
		return o.Value, nil
	case executor.StatusStopped:
		return zero, ErrNotRunning
	default:
		return zero, o.Err
	}
}
