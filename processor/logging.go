package processor

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/MasterOfBinary/batchexec/executor"
)

// LoggingProcessor wraps another processor and adds logging capabilities.
// It logs when processing starts and completes, along with any errors encountered.
type LoggingProcessor[In, Out, S any] struct {
	// Processor is the wrapped processor that does the actual work.
	Processor executor.Processor[In, Out, S]

	// Logger is used to log processing events.
	// If nil, no logging occurs.
	Logger executor.Logger

	// Name is an optional name for this processor used in log messages.
	// If empty, the type of the wrapped processor is used.
	Name string
}

// Process implements the executor.Processor interface by delegating to the
// wrapped processor and logging the operation.
func (p *LoggingProcessor[In, Out, S]) Process(ctx context.Context, inputs []In, stream S) ([]Out, error) {
	if p.Logger == nil {
		return p.Processor.Process(ctx, inputs, stream)
	}

	name := p.Name
	if name == "" {
		name = fmt.Sprintf("%T", p.Processor)
	}

	startTime := time.Now()
	p.Logger.Debug("Processor '%s' starting with %d inputs", name, len(inputs))

	results, err := p.Processor.Process(ctx, inputs, stream)

	duration := time.Since(startTime)
	switch {
	case err != nil:
		p.Logger.Error("Processor '%s' failed after %v: %v", name, duration, err)
	case len(results) < len(inputs):
		p.Logger.Warn("Processor '%s' completed in %v: %d of %d results produced",
			name, duration, len(results), len(inputs))
	default:
		p.Logger.Debug("Processor '%s' completed in %v: %d results", name, duration, len(results))
	}

	return results, err
}

// Close closes the wrapped processor if it implements io.Closer, so the
// executor still releases it when it is wrapped.
func (p *LoggingProcessor[In, Out, S]) Close() error {
	if closer, ok := p.Processor.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// WrapWithLogging wraps a processor with logging capabilities.
// This is a convenience function for creating a LoggingProcessor.
//
// Example:
//
//	logger := executor.NewConsoleLogger(executor.LogLevelDebug)
//	wrapped := processor.WrapWithLogging(myProcessor, logger, "MyProcessor")
func WrapWithLogging[In, Out, S any](proc executor.Processor[In, Out, S], logger executor.Logger,
	name string) *LoggingProcessor[In, Out, S] {
	return &LoggingProcessor[In, Out, S]{
		Processor: proc,
		Logger:    logger,
		Name:      name,
	}
}
