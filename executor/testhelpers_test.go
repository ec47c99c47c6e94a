package executor_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MasterOfBinary/batchexec/executor"
)

type (
	intExecutor  = executor.Executor[int, int, struct{}]
	intProcessor = executor.Processor[int, int, struct{}]
	intFactory   = executor.Factory[int, int, struct{}]
	intOptions   = executor.StartOptions[struct{}]
	intFunc      = executor.ProcessorFunc[int, int, struct{}]
)

const waitTimeout = 2 * time.Second

// recorder keeps a copy of every batch a processor was called with.
type recorder struct {
	mu      sync.Mutex
	batches [][]int
}

func (r *recorder) record(inputs []int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, append([]int(nil), inputs...))
}

func (r *recorder) get() [][]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([][]int, len(r.batches))
	copy(result, r.batches)
	return result
}

func (r *recorder) inputs() []int {
	var all []int
	for _, b := range r.get() {
		all = append(all, b...)
	}
	return all
}

func (r *recorder) largestBatch() int {
	largest := 0
	for _, b := range r.get() {
		if len(b) > largest {
			largest = len(b)
		}
	}
	return largest
}

// doubler returns a processor that records each batch and doubles every input.
func doubler(rec *recorder) intFunc {
	return func(_ context.Context, inputs []int, _ struct{}) ([]int, error) {
		rec.record(inputs)
		out := make([]int, len(inputs))
		for i, v := range inputs {
			out[i] = v * 2
		}
		return out, nil
	}
}

func factoryOf(p intProcessor) intFactory {
	return func(context.Context) (intProcessor, error) {
		return p, nil
	}
}

func maxBatch(n int) *intOptions {
	return &intOptions{
		Config: executor.NewConstantConfig(&executor.ConfigValues{MaxBatchSize: n}),
	}
}

// startGated starts ex in the background with a factory that blocks until
// the returned release function is called. Items submitted before release
// are queued but not taken by the worker, which makes batch boundaries
// deterministic.
func startGated(t *testing.T, ex *intExecutor, proc intProcessor, opts *intOptions) (release func()) {
	t.Helper()

	entered := make(chan struct{})
	gate := make(chan struct{})
	errCh := make(chan error, 1)

	go func() {
		errCh <- ex.Start(context.Background(), func(context.Context) (intProcessor, error) {
			close(entered)
			<-gate
			return proc, nil
		}, opts)
	}()

	select {
	case <-entered:
	case <-time.After(waitTimeout):
		t.Fatal("factory was not called")
	}

	return func() {
		close(gate)
		require.NoError(t, <-errCh)
	}
}

// waitOutcome waits for h with a timeout so a leaked handle fails the test
// instead of hanging it.
func waitOutcome(t *testing.T, h *executor.Handle[int]) executor.Outcome[int] {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	o, err := h.WaitContext(ctx)
	require.NoError(t, err, "handle %s was not resolved", h.ID())
	return o
}

func sorted(in []int) []int {
	out := append([]int(nil), in...)
	sort.Ints(out)
	return out
}

func seq(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}
