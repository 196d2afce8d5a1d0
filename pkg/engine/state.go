// Package engine owns the embedded JavaScript runtime that runs the
// transformation program.
//
// A Manager builds at most one Context at a time. Building a context is
// expensive (the whole program is bundled and evaluated), and a context is
// not safe for concurrent use, so callers must serialize access; the gateway
// package does that.
package engine

// State is the lifecycle state of the managed context.
type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}
