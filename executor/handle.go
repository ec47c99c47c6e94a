package executor

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
)

// Status describes how a Handle was resolved.
type Status int

const (
	// StatusProduced means the Processor returned a result for the item.
	StatusProduced Status = iota
	// StatusNotProduced means the Processor returned fewer results than
	// inputs and this item was past the end.
	StatusNotProduced
	// StatusStopped means the item was resolved by shutdown before a result
	// was produced.
	StatusStopped
	// StatusFailed means the Process call for the item's batch returned an
	// error or panicked.
	StatusFailed
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusProduced:
		return "produced"
	case StatusNotProduced:
		return "not_produced"
	case StatusStopped:
		return "stopped"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the resolved state of a Handle. Value is the zero value of R
// unless Status is StatusProduced.
type Outcome[R any] struct {
	Value  R
	Status Status
	Err    error
}

// OK reports whether a result was produced.
func (o Outcome[R]) OK() bool {
	return o.Status == StatusProduced
}

func produced[R any](v R) Outcome[R] {
	return Outcome[R]{Value: v, Status: StatusProduced}
}

func unresolved[R any](status Status, err error) Outcome[R] {
	return Outcome[R]{Status: status, Err: err}
}

// Handle is the completion handle returned for each submitted input. It is
// resolved exactly once, and any number of goroutines may wait on it.
type Handle[R any] struct {
	id        uuid.UUID
	done      chan struct{}
	fulfilled atomic.Bool
	outcome   Outcome[R]
}

func newHandle[R any]() *Handle[R] {
	return &Handle[R]{
		id:   uuid.New(),
		done: make(chan struct{}),
	}
}

// ID returns the unique identifier of the handle.
func (h *Handle[R]) ID() uuid.UUID {
	return h.id
}

// Done returns a channel that is closed once the handle is resolved.
func (h *Handle[R]) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the handle is resolved and returns its value. The value
// is the zero value of R if no result was produced; use Outcome to tell the
// cases apart.
func (h *Handle[R]) Wait() R {
	<-h.done
	return h.outcome.Value
}

// Outcome blocks until the handle is resolved and returns how it was
// resolved.
func (h *Handle[R]) Outcome() Outcome[R] {
	<-h.done
	return h.outcome
}

// WaitContext is like Outcome, but gives up when ctx is done. Giving up
// does not cancel the item; it is still processed and the handle can be
// waited on again.
func (h *Handle[R]) WaitContext(ctx context.Context) (Outcome[R], error) {
	select {
	case <-h.done:
		return h.outcome, nil
	case <-ctx.Done():
		return Outcome[R]{}, ctx.Err()
	}
}

// Resolved reports whether the handle has been resolved, without blocking.
func (h *Handle[R]) Resolved() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// fulfill resolves the handle. Resolving a handle twice is a bug in the
// executor and panics.
func (h *Handle[R]) fulfill(o Outcome[R]) {
	if !h.fulfilled.CompareAndSwap(false, true) {
		panic("executor: handle " + h.id.String() + " fulfilled twice")
	}
	h.outcome = o
	close(h.done)
}
