package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/MasterOfBinary/batchexec/executor"
)

// DoerFunc processes a batch of inputs. It returns one output per input,
// in order. Returning fewer outputs fails the remaining inputs with
// executor.ErrNotProduced; returning an error fails every input.
type DoerFunc[In, Out any] func(ctx context.Context, inputs []In) ([]Out, error)

// Doer makes individual blocking calls that are batched behind the scenes.
//
// Do not use Doer directly; instead, use NewDoer.
type Doer[In, Out any] struct {
	ex *executor.Executor[In, Out, struct{}]

	// mu protects the following variables
	mu     sync.Mutex
	closed bool
}

// NewDoer creates a Doer that passes batches of at most config's
// MaxBatchSize inputs to f. config may be nil to process one input at a
// time.
func NewDoer[In, Out any](config executor.Config, f DoerFunc[In, Out]) (*Doer[In, Out], error) {
	if f == nil {
		return nil, errors.New("pipeline: nil DoerFunc")
	}

	ex := executor.New[In, Out, struct{}]()
	proc := executor.ProcessorFunc[In, Out, struct{}](func(ctx context.Context, inputs []In, _ struct{}) ([]Out, error) {
		return f(ctx, inputs)
	})
	err := ex.Start(context.Background(), func(context.Context) (executor.Processor[In, Out, struct{}], error) {
		return proc, nil
	}, &executor.StartOptions[struct{}]{Config: config})
	if err != nil {
		return nil, err
	}

	return &Doer[In, Out]{ex: ex}, nil
}

// Do submits val and blocks until its output is available.
//
// If ctx is done, ctx.Err() is returned. val is still processed. After
// Close, Do returns ErrNotRunning.
func (d *Doer[In, Out]) Do(ctx context.Context, val In) (Out, error) {
	if err := ctx.Err(); err != nil {
		var zero Out
		return zero, err
	}
	return await(ctx, d.ex.Submit(val))
}

// Close can be called multiple times with no problems.
func (d *Doer[In, Out]) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.ex.Stop()
	d.closed = true
}
