package processor

import (
	"context"

	"github.com/MasterOfBinary/batchexec/executor"
)

// Channel wraps a Processor and sends every result it produces to an
// output channel, in addition to returning it to the executor.
//
// Ownership of the output channel remains with the caller. The processor
// does not close the channel; the caller who created it should close it
// once the executor has stopped.
type Channel[In, Out, S any] struct {
	// Processor produces the results.
	Processor executor.Processor[In, Out, S]

	// Output receives each produced result.
	// If nil, results are only returned.
	Output chan<- Out
}

// Process implements the executor.Processor interface. If ctx is cancelled
// while a send is blocked, the results are still returned and the remaining
// sends are skipped.
func (p *Channel[In, Out, S]) Process(ctx context.Context, inputs []In, stream S) ([]Out, error) {
	results, err := p.Processor.Process(ctx, inputs, stream)
	if err != nil || p.Output == nil {
		return results, err
	}

	for _, r := range results {
		select {
		case <-ctx.Done():
			return results, nil
		case p.Output <- r:
		}
	}

	return results, nil
}
