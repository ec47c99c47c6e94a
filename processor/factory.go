package processor

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/MasterOfBinary/batchexec/executor"
)

// RetryConfig provides configuration options for RetryFactory.
type RetryConfig struct {
	// NewBackOff creates the backoff policy for one Start call.
	// If nil, DefaultBackOff is used.
	NewBackOff func() backoff.BackOff

	// Logger receives a warning for every failed attempt.
	// If nil, no logging occurs.
	Logger executor.Logger
}

// DefaultBackOff returns an exponential backoff starting at 100ms and
// giving up after 30 seconds.
func DefaultBackOff() backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 100 * time.Millisecond
	exp.Multiplier = 2
	exp.MaxInterval = 5 * time.Second
	exp.MaxElapsedTime = 30 * time.Second
	exp.Reset()
	return exp
}

// RetryFactory wraps factory so that a failed attempt is retried with
// backoff. It gives up when the backoff policy stops, when ctx is done, or
// when factory returns an error wrapped with backoff.Permanent, and then
// returns the last error.
//
// Example:
//
//	factory := processor.RetryFactory(loadModel, processor.RetryConfig{
//		NewBackOff: func() backoff.BackOff {
//			return backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Second), 3)
//		},
//	})
//	err := ex.Start(ctx, factory, nil)
func RetryFactory[In, Out, S any](factory executor.Factory[In, Out, S],
	config RetryConfig) executor.Factory[In, Out, S] {
	newBackOff := config.NewBackOff
	if newBackOff == nil {
		newBackOff = DefaultBackOff
	}

	return func(ctx context.Context) (executor.Processor[In, Out, S], error) {
		attempt := 0
		operation := func() (executor.Processor[In, Out, S], error) {
			attempt++
			return factory(ctx)
		}

		var notify backoff.Notify
		if config.Logger != nil {
			notify = func(err error, wait time.Duration) {
				config.Logger.Warn("Factory attempt %d failed, retrying in %v: %v", attempt, wait, err)
			}
		}

		return backoff.RetryNotifyWithData(operation, backoff.WithContext(newBackOff(), ctx), notify)
	}
}
