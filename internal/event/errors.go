package event

import (
	"errors"
	"fmt"
)

// Sentinel errors for the signal bus.
var (
	// ErrInvalidSignal is returned when a signal name is empty.
	ErrInvalidSignal = errors.New("invalid signal name")

	// ErrNilHandler is returned when a nil handler is provided.
	ErrNilHandler = errors.New("handler cannot be nil")

	// ErrHandlerPanic is matched by errors recovered from a panicking handler.
	ErrHandlerPanic = errors.New("handler panicked")
)

// HandlerError wraps an error from a handler with the binding it came from.
type HandlerError struct {
	// BindingID is the ID of the binding whose handler failed.
	BindingID string

	// Signal is the name of the signal being emitted.
	Signal string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return "handler error for binding " + e.BindingID + " on signal " + e.Signal + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// PanicError wraps a value recovered from a handler panic.
type PanicError struct {
	// Value is the value passed to panic().
	Value any

	// Stack is the stack trace at the time of the panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panicked: %v", e.Value)
}

// Unwrap lets errors.Is match ErrHandlerPanic.
func (e *PanicError) Unwrap() error {
	return ErrHandlerPanic
}
