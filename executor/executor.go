package executor

import (
	"context"
	"io"
	"runtime"
	"runtime/debug"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// StartOptions configures one run of an Executor.
type StartOptions[S any] struct {
	// Config provides the batch size. It is read before every batch.
	// If nil, batches hold a single item.
	Config Config

	// Stream is passed unchanged to every Process call, for example a
	// device or execution stream identifier.
	Stream S

	// LockOSThread pins the worker goroutine to its OS thread for the whole
	// run, so the factory and every Process call execute on the same
	// thread. Use it for processors with thread-affine state such as GPU
	// contexts.
	LockOSThread bool
}

// Executor batches inputs submitted from any number of goroutines and
// passes them to a Processor on a single worker goroutine.
//
// To create a new Executor, call New. An Executor is idle until Start is
// called, and may be started again after Stop.
//
//	ex := executor.New[string, []float32, struct{}]().
//		WithLogger(executor.NewConsoleLogger(executor.LogLevelInfo))
//	if err := ex.Start(ctx, factory, nil); err != nil {
//		return err
//	}
//	defer ex.Stop()
//
// Submitting never blocks on processing. Each handle returned by Submit or
// SubmitMany is resolved exactly once: with the result, or with the zero
// value when the processor produced none, failed, or the executor stopped
// first.
type Executor[In, Out, S any] struct {
	tracer trace.Tracer
	queue  *pendingQueue[In, Out]

	// observersMu protects logger and stats, which Submit reads outside
	// lifecycle
	observersMu sync.RWMutex
	logger      Logger
	stats       StatsCollector

	// lifecycle serializes Start and Stop and protects the following variables
	lifecycle  sync.Mutex
	proc       Processor[In, Out, S]
	cancel     context.CancelFunc
	workerDone chan struct{}
}

// New creates an idle Executor. Call Start to begin processing.
func New[In, Out, S any]() *Executor[In, Out, S] {
	return &Executor[In, Out, S]{
		logger: &NoOpLogger{},
		stats:  &NoOpStatsCollector{},
		tracer: otel.Tracer(TracerName),
		queue:  newPendingQueue[In, Out](),
	}
}

// WithLogger sets a custom logger for the Executor.
// If not set, no logging occurs (uses NoOpLogger internally).
//
// Panics if called while the executor is running.
func (e *Executor[In, Out, S]) WithLogger(logger Logger) *Executor[In, Out, S] {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()
	e.mustBeStopped("WithLogger")

	if logger == nil {
		logger = &NoOpLogger{}
	}
	e.observersMu.Lock()
	e.logger = logger
	e.observersMu.Unlock()
	return e
}

// WithStats sets a custom stats collector for the Executor.
// If not set, no statistics are collected (uses NoOpStatsCollector internally).
//
// Panics if called while the executor is running.
func (e *Executor[In, Out, S]) WithStats(stats StatsCollector) *Executor[In, Out, S] {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()
	e.mustBeStopped("WithStats")

	if stats == nil {
		stats = &NoOpStatsCollector{}
	}
	e.observersMu.Lock()
	e.stats = stats
	e.observersMu.Unlock()
	return e
}

// WithTracer sets the OpenTelemetry tracer used to record a span for every
// batch. If not set, the global tracer provider is used.
//
// Panics if called while the executor is running.
func (e *Executor[In, Out, S]) WithTracer(tracer trace.Tracer) *Executor[In, Out, S] {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()
	e.mustBeStopped("WithTracer")

	if tracer == nil {
		tracer = otel.Tracer(TracerName)
	}
	e.tracer = tracer
	return e
}

func (e *Executor[In, Out, S]) mustBeStopped(method string) {
	if e.queue.currentState() != stateStopped {
		panic("executor: " + method + " cannot be called while the executor is running")
	}
}

// Start stops any previous run, creates a Processor with factory and starts
// the worker goroutine. It blocks until factory returns.
//
// The factory is called on the worker goroutine with ctx. ctx only bounds
// the factory call; the run itself lasts until Stop.
//
// Start with a nil factory stops the current run and returns ErrNilFactory.
//
// If factory returns an error or a nil Processor, or panics, Start returns an error,
// no worker keeps running and the executor stays stopped. Items submitted
// while the factory was running are then resolved with StatusStopped. Start
// may be called again afterwards.
func (e *Executor[In, Out, S]) Start(ctx context.Context, factory Factory[In, Out, S], opts *StartOptions[S]) error {
	if opts == nil {
		opts = &StartOptions[S]{}
	}
	config := opts.Config
	if config == nil {
		config = NewConstantConfig(nil)
	}

	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()

	e.stopLocked()

	if factory == nil {
		return ErrNilFactory
	}

	e.logger.Debug("Starting executor, creating processor")
	e.queue.setState(stateStarting)

	runCtx, cancel := context.WithCancel(context.Background())
	status := make(chan startResult[In, Out, S], 1)
	done := make(chan struct{})

	go func() {
		defer close(done)

		if opts.LockOSThread {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
		}

		proc, err := safeFactory(ctx, factory)
		if err == nil && isNil(proc) {
			err = ErrNoProcessor
		}
		if err != nil {
			status <- startResult[In, Out, S]{err: err}
			return
		}

		// Mark running before reporting success so the first take does
		// not see stateStarting and exit.
		e.queue.setState(stateRunning)
		status <- startResult[In, Out, S]{proc: proc}

		e.run(runCtx, proc, config, opts.Stream)
	}()

	res := <-status
	if res.err != nil {
		cancel()
		<-done
		e.resolveStopped(e.drainQueue())
		e.stats.RecordStartFailure()
		e.logger.Error("Executor failed to start: %v", res.err)

		if res.err == ErrNoProcessor {
			return ErrNoProcessor
		}
		return FactoryError{Err: res.err}
	}

	e.proc = res.proc
	e.cancel = cancel
	e.workerDone = done
	e.logger.Info("Executor started with max batch size %d", fixConfig(config.Get()).MaxBatchSize)
	return nil
}

// safeFactory calls factory, turning a panic into a PanicError.
func safeFactory[In, Out, S any](ctx context.Context, factory Factory[In, Out, S]) (proc Processor[In, Out, S], err error) {
	defer func() {
		if r := recover(); r != nil {
			proc = nil
			err = PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return factory(ctx)
}

type startResult[In, Out, S any] struct {
	proc Processor[In, Out, S]
	err  error
}

// Stop stops the executor. Every item still queued is resolved with
// StatusStopped without being processed, the worker goroutine is waited
// for, and the Processor is released. When Stop returns, no handle obtained
// before the call is left unresolved.
//
// A batch already handed to the Processor is allowed to finish; its context
// is cancelled, so a Processor that honours cancellation can return early.
//
// Stop is idempotent and safe for concurrent use.
func (e *Executor[In, Out, S]) Stop() {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()
	e.stopLocked()
}

// Close lets Executor satisfy io.Closer. It calls Stop.
func (e *Executor[In, Out, S]) Close() error {
	e.Stop()
	return nil
}

func (e *Executor[In, Out, S]) stopLocked() {
	rest := e.drainQueue()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.resolveStopped(rest)

	if e.workerDone == nil {
		return
	}

	e.logger.Info("Stopping executor, resolved %d queued item(s)", len(rest))
	<-e.workerDone
	e.workerDone = nil

	if closer, ok := e.proc.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			e.logger.Warn("Processor close error: %v", err)
		}
	}
	e.proc = nil
	e.logger.Info("Executor stopped")
}

func (e *Executor[In, Out, S]) drainQueue() []*item[In, Out] {
	rest, _ := e.queue.drain()
	if len(rest) > 0 {
		e.stats.RecordQueueDepth(0)
	}
	return rest
}

func (e *Executor[In, Out, S]) resolveStopped(items []*item[In, Out]) {
	for _, it := range items {
		it.handle.fulfill(unresolved[Out](StatusStopped, ErrStopped))
		e.stats.RecordItemStopped()
	}
}

// Submit queues input for processing and returns the handle its result
// will be delivered to. It only blocks to acquire the queue lock.
//
// If the executor is not running, the handle is resolved immediately with
// StatusStopped.
func (e *Executor[In, Out, S]) Submit(input In) *Handle[Out] {
	it := &item[In, Out]{
		input:  input,
		handle: newHandle[Out](),
	}
	e.enqueue([]*item[In, Out]{it})
	return it.handle
}

// SubmitMany queues all inputs as one contiguous group, in order, and
// returns their handles in the same order. The worker sees either none or
// all of them.
//
// If the executor is not running, every handle is resolved immediately with
// StatusStopped.
func (e *Executor[In, Out, S]) SubmitMany(inputs []In) []*Handle[Out] {
	items := make([]*item[In, Out], len(inputs))
	handles := make([]*Handle[Out], len(inputs))
	for i, input := range inputs {
		h := newHandle[Out]()
		items[i] = &item[In, Out]{input: input, handle: h}
		handles[i] = h
	}
	e.enqueue(items)
	return handles
}

func (e *Executor[In, Out, S]) enqueue(items []*item[In, Out]) {
	if len(items) == 0 {
		return
	}

	e.observersMu.RLock()
	logger, stats := e.logger, e.stats
	e.observersMu.RUnlock()

	depth, ok := e.queue.push(items)
	if !ok {
		logger.Debug("Executor not running, resolving %d submitted item(s) as stopped", len(items))
		for _, it := range items {
			it.handle.fulfill(unresolved[Out](StatusStopped, ErrStopped))
			stats.RecordItemStopped()
		}
		return
	}

	stats.RecordSubmitted(len(items))
	stats.RecordQueueDepth(depth)
}

// Running reports whether the worker is accepting batches.
func (e *Executor[In, Out, S]) Running() bool {
	return e.queue.currentState() == stateRunning
}

// Pending returns the number of items waiting to be processed.
func (e *Executor[In, Out, S]) Pending() int {
	return e.queue.len()
}
