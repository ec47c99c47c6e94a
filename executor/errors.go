package executor

import (
	"errors"
	"fmt"
)

var (
	// ErrNilFactory is returned by Start when no factory is given.
	ErrNilFactory = errors.New("executor: nil processor factory")

	// ErrNoProcessor is returned by Start when the factory returns neither a
	// Processor nor an error.
	ErrNoProcessor = errors.New("executor: factory returned no processor")

	// ErrStopped is the Outcome error for items resolved by Stop, or
	// submitted while the executor was not running.
	ErrStopped = errors.New("executor: stopped")

	// ErrNotProduced is the Outcome error for items the processor returned
	// no result for.
	ErrNotProduced = errors.New("executor: no result produced")
)

// FactoryError is returned by Start when the factory fails.
type FactoryError struct {
	Err error
}

func (e FactoryError) Error() string {
	return fmt.Sprintf("factory error: %v", e.Err)
}

func (e FactoryError) Unwrap() error {
	return e.Err
}

// ProcessorError is the Outcome error for items in a batch whose Process
// call returned an error or panicked.
type ProcessorError struct {
	Err error
}

func (e ProcessorError) Error() string {
	return fmt.Sprintf("processor error: %v", e.Err)
}

func (e ProcessorError) Unwrap() error {
	return e.Err
}

// PanicError wraps a value recovered from a panicking Processor or Factory.
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (e PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
