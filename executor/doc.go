// Package executor contains a batching executor. The main type is Executor,
// which can be created using New. Producers hand it individual inputs with
// Submit or SubmitMany and get back a Handle for each one. A single worker
// goroutine drains the pending inputs, groups them into batches of at most
// MaxBatchSize, and passes each batch to a Processor in one call. The results
// are then delivered to the handles in the order the inputs were submitted.
//
// This amortizes a fixed per-call cost, such as invoking an inference model,
// across many concurrent callers without making them batch by hand:
//
//	ex := executor.New[int, int, struct{}]()
//	err := ex.Start(ctx, factory, &executor.StartOptions[struct{}]{
//		Config: executor.NewConstantConfig(&executor.ConfigValues{MaxBatchSize: 16}),
//	})
//	if err != nil {
//		// The factory could not build a Processor.
//	}
//	defer ex.Stop()
//
//	h := ex.Submit(21)
//	fmt.Println(h.Wait()) // 42 for a doubling processor
//
// Every handle is resolved exactly once. Results the processor did not
// produce, items still queued when Stop is called, and batches whose
// processor failed all resolve to the zero value of the result type. Outcome
// reports which of those cases applied.
//
// The Processor is only ever called from the worker goroutine, so it does
// not need to be safe for concurrent use. Only one batch is processed at a
// time, and batches are never split across calls.
//
// The Config is reloaded before each batch is collected. This allows a
// DynamicConfig to change the batch size while the executor is running.
package executor
