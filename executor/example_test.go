package executor_test

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/MasterOfBinary/batchexec/executor"
)

// This example batches strings from several goroutines through a processor
// that upper-cases them.
func Example() {
	ex := executor.New[string, string, struct{}]()

	upper := executor.ProcessorFunc[string, string, struct{}](
		func(_ context.Context, inputs []string, _ struct{}) ([]string, error) {
			out := make([]string, len(inputs))
			for i, in := range inputs {
				out[i] = strings.ToUpper(in)
			}
			return out, nil
		})

	err := ex.Start(context.Background(), func(context.Context) (executor.Processor[string, string, struct{}], error) {
		return upper, nil
	}, &executor.StartOptions[struct{}]{
		Config: executor.NewConstantConfig(&executor.ConfigValues{MaxBatchSize: 8}),
	})
	if err != nil {
		fmt.Println("start:", err)
		return
	}
	defer ex.Stop()

	words := []string{"alpha", "beta", "gamma"}
	results := make([]string, len(words))

	var wg sync.WaitGroup
	for i, w := range words {
		wg.Add(1)
		go func(i int, w string) {
			defer wg.Done()
			results[i] = ex.Submit(w).Wait()
		}(i, w)
	}
	wg.Wait()

	fmt.Println(strings.Join(results, " "))
	// Output: ALPHA BETA GAMMA
}

// This example shows how a handle reports that the executor was not
// running when the input was submitted.
func ExampleHandle_Outcome() {
	ex := executor.New[int, int, struct{}]()

	o := ex.Submit(1).Outcome()
	fmt.Println(o.Status, o.Value, o.Err)
	// Output: stopped 0 executor: stopped
}

// This example changes the batch size between runs of the worker loop.
func ExampleDynamicConfig() {
	cfg := executor.NewDynamicConfig(&executor.ConfigValues{MaxBatchSize: 2})

	ex := executor.New[int, int, struct{}]()
	sizes := make(chan int, 16)
	echo := executor.ProcessorFunc[int, int, struct{}](
		func(_ context.Context, inputs []int, _ struct{}) ([]int, error) {
			sizes <- len(inputs)
			return inputs, nil
		})

	_ = ex.Start(context.Background(), func(context.Context) (executor.Processor[int, int, struct{}], error) {
		return echo, nil
	}, &executor.StartOptions[struct{}]{Config: cfg})
	defer ex.Stop()

	for _, h := range ex.SubmitMany([]int{1, 2}) {
		h.Wait()
	}
	cfg.UpdateMaxBatchSize(4)
	for _, h := range ex.SubmitMany([]int{3, 4, 5, 6}) {
		h.Wait()
	}

	fmt.Println("largest batch size allowed now:", cfg.Get().MaxBatchSize)
	// Output: largest batch size allowed now: 4
}
