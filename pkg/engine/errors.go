package engine

import (
	"errors"
	"fmt"
	"time"
)

// ErrDisposed is returned when a call reaches a context that was disposed.
var ErrDisposed = errors.New("engine context is disposed")

// ErrClosed is returned by a Manager after Close.
var ErrClosed = errors.New("engine manager is closed")

// RuntimeError is a failure raised while running code inside the engine:
// a thrown value, a timeout, or a cancellation.
type RuntimeError struct {
	// Message is the string form of the thrown value, e.g. "Error: boom".
	Message string
	// Stack is the engine stack trace at the point of failure.
	Stack string
	// Interrupted is set when the call was stopped by a timeout or cancellation.
	Interrupted bool

	cause error
}

func (e *RuntimeError) Error() string {
	return e.Message
}

func (e *RuntimeError) Unwrap() error {
	return e.cause
}

// TimeoutError is the interrupt reason used when a call exceeds its budget.
type TimeoutError struct {
	Timeout time.Duration
}

func (e TimeoutError) Error() string {
	return fmt.Sprintf("script execution timed out after %s", e.Timeout)
}

// Init stages reported by InitError.
const (
	StageBuild    = "build"
	StageShims    = "shims"
	StageLoad     = "load"
	StageEvaluate = "evaluate"
	StageVersion  = "version"
)

// InitError reports a context that could not be built. It is never turned
// into a transpile error: an engine that failed to start is not usable.
type InitError struct {
	Stage string
	Err   error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("engine init (%s): %v", e.Stage, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}
