// Package processor contains implementations of executor.Processor and
// helpers for building them, including:
//
// - Map: For applying a per-item function to every input in a batch
// - ParallelMap: Like Map, with the items of a batch run concurrently
// - LoggingProcessor: For logging every batch handed to a wrapped processor
// - Channel: For copying produced results to an output channel
// - Nil: For testing timing behavior without producing results
// - Error: For simulating processors that fail every batch
//
// RetryFactory wraps an executor.Factory so that Start retries a failing
// factory with backoff.
//
// Every processor returns fewer results than inputs rather than failing
// the whole batch when a single item cannot be processed, and returns
// ctx.Err() once the executor is stopping.
//
// Basic usage of Map:
//
//	double := processor.Map(func(_ context.Context, n int, _ struct{}) (int, error) {
//		return n * 2, nil
//	})
//
//	out, _ := double.Process(context.Background(), []int{1, 2}, struct{}{})
//	fmt.Println(out)
//
// Output:
//
//	[2 4]
package processor
