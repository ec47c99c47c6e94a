package executor

import (
	"context"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// run is the worker loop. It waits for items, takes up to MaxBatchSize of
// them from the front of the queue, processes them and resolves their
// handles, until the queue leaves stateRunning.
//
// Items still queued when the loop exits are resolved by Stop, not here.
func (e *Executor[In, Out, S]) run(ctx context.Context, proc Processor[In, Out, S], config Config, stream S) {
	var batchCount uint64

	e.logger.Debug("Worker started")

	for {
		maxBatchSize := fixConfig(config.Get()).MaxBatchSize
		batch, depth, ok := e.queue.take(maxBatchSize)
		if !ok {
			break
		}

		batchCount++
		e.stats.RecordQueueDepth(depth)
		e.processBatch(ctx, proc, stream, batch, batchCount)
	}

	e.logger.Debug("Worker exiting. Total batches: %d", batchCount)
}

// processBatch calls the Processor once for batch and resolves every item
// in it.
func (e *Executor[In, Out, S]) processBatch(ctx context.Context, proc Processor[In, Out, S], stream S,
	batch []*item[In, Out], batchNum uint64) {
	inputs := make([]In, len(batch))
	for i, it := range batch {
		inputs[i] = it.input
	}

	spanCtx, span := e.tracer.Start(ctx, "batchexec.process",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.Int64("batchexec.batch.number", int64(batchNum)),
			attribute.Int("batchexec.batch.size", len(batch)),
		))
	defer span.End()

	e.logger.Debug("Processing batch %d with %d items", batchNum, len(batch))
	e.stats.RecordBatchStart(len(batch))

	startTime := time.Now()
	results, err := e.safeProcess(spanCtx, proc, inputs, stream)
	duration := time.Since(startTime)

	e.stats.RecordBatchComplete(len(batch), duration)
	span.SetAttributes(attribute.Int("batchexec.batch.results", len(results)))

	if err != nil {
		e.stats.RecordProcessorError()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		// A batch that fails after Stop cancelled the run counts as a
		// shutdown, not a processor failure.
		if ctx.Err() != nil {
			e.logger.Info("Batch %d abandoned by shutdown after %v", batchNum, duration)
			e.resolveStopped(batch)
			return
		}

		e.logger.Error("Batch %d: processor error after %v: %v", batchNum, duration, err)
		failed := unresolved[Out](StatusFailed, ProcessorError{Err: err})
		for _, it := range batch {
			it.handle.fulfill(failed)
			e.stats.RecordItemFailed()
		}
		return
	}

	var producedCount int
	for i, it := range batch {
		if i < len(results) {
			it.handle.fulfill(produced(results[i]))
			e.stats.RecordItemProduced()
			producedCount++
		} else {
			it.handle.fulfill(unresolved[Out](StatusNotProduced, ErrNotProduced))
			e.stats.RecordItemNotProduced()
		}
	}

	if producedCount < len(batch) {
		e.logger.Warn("Batch %d: processor returned %d results for %d items", batchNum, len(results), len(batch))
	}
	e.logger.Debug("Batch %d complete: %d produced, duration: %v", batchNum, producedCount, duration)
}

// safeProcess calls proc.Process, turning a panic into a PanicError so a
// misbehaving processor fails its batch instead of the whole program.
func (e *Executor[In, Out, S]) safeProcess(ctx context.Context, proc Processor[In, Out, S], inputs []In,
	stream S) (results []Out, err error) {
	defer func() {
		if r := recover(); r != nil {
			results = nil
			err = PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return proc.Process(ctx, inputs, stream)
}
