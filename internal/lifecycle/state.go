// SPDX-License-Identifier: MPL-2.0

package lifecycle

import "errors"

const (
	// StateUninitialized is the state of a new Runtime before Init.
	StateUninitialized State = iota
	// StateInitialized means Init completed but the application never started.
	StateInitialized
	// StateStarted means the application is serving.
	StateStarted
	// StateStopped means the application was started and then stopped, or a
	// reload failed after tearing the previous generation down.
	StateStopped
	// StateFailedProdStart is terminal: PROD precompilation failed.
	StateFailedProdStart
)

var (
	// ErrTerminalState is returned by transitions attempted after the runtime
	// reached a terminal state.
	ErrTerminalState = errors.New("runtime is in a terminal state")

	// ErrNotInitialized is returned by Start before Init.
	ErrNotInitialized = errors.New("runtime is not initialized")

	// ErrAlreadyInitialized is returned by a second Init.
	ErrAlreadyInitialized = errors.New("runtime is already initialized")

	// ErrNotStarted is raised when change detection completes but the
	// application is not serving.
	ErrNotStarted = errors.New("application not started")
)

// State is the lifecycle state of a Runtime.
type State int32

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateStarted:
		return "started"
	case StateStopped:
		return "stopped"
	case StateFailedProdStart:
		return "failed-prod-start"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further transition is possible.
func (s State) IsTerminal() bool {
	return s == StateFailedProdStart
}
