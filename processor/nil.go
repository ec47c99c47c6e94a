package processor

import (
	"context"
	"time"

	"github.com/MasterOfBinary/batchexec/executor"
)

type nilProcessor[In, Out, S any] struct {
	duration time.Duration
}

// Nil returns a Processor that produces no results after a specified
// duration, so every item resolves with executor.StatusNotProduced.
// It can be used as a mock Processor.
func Nil[In, Out, S any](duration time.Duration) executor.Processor[In, Out, S] {
	return &nilProcessor[In, Out, S]{
		duration: duration,
	}
}

// Process waits for the configured duration and returns no results. It
// returns ctx.Err() if ctx is cancelled first.
func (p *nilProcessor[In, Out, S]) Process(ctx context.Context, _ []In, _ S) ([]Out, error) {
	if p.duration <= 0 {
		return nil, nil
	}

	timer := time.NewTimer(p.duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, nil
	}
}
