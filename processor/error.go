package processor

import (
	"context"
	"errors"
)

// ErrProcessor is the error returned by Error when Err is nil.
var ErrProcessor = errors.New("processor error")

// Error is a Processor that fails every batch with the given error.
type Error[In, Out, S any] struct {
	// Err is the error to return.
	// If nil, ErrProcessor is used.
	Err error
}

// Process implements the executor.Processor interface.
func (p *Error[In, Out, S]) Process(context.Context, []In, S) ([]Out, error) {
	if p.Err == nil {
		return nil, ErrProcessor
	}
	return nil, p.Err
}
