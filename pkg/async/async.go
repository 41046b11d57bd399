// Package async models the lifecycle of a single remote operation as one
// tagged value instead of separate loading/error flags.
package async

import "errors"

// Kind is the tag of a State.
type Kind int

const (
	KindIdle Kind = iota
	KindInFlight
	KindSucceeded
	KindFailed
)

func (k Kind) String() string {
	switch k {
	case KindIdle:
		return "idle"
	case KindInFlight:
		return "in_flight"
	case KindSucceeded:
		return "succeeded"
	case KindFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is {Idle, InFlight, Succeeded(data), Failed(message)}.
// Data is only meaningful when Kind is KindSucceeded, Message only when KindFailed.
type State[T any] struct {
	Kind    Kind
	Data    T
	Message string
}

// Idle returns the initial state.
func Idle[T any]() State[T] {
	return State[T]{Kind: KindIdle}
}

// Start moves to InFlight. Any previous failure message is dropped.
func (s State[T]) Start() State[T] {
	return State[T]{Kind: KindInFlight}
}

// Succeed moves to Succeeded(v).
func (s State[T]) Succeed(v T) State[T] {
	return State[T]{Kind: KindSucceeded, Data: v}
}

// Fail moves to Failed(msg).
func (s State[T]) Fail(msg string) State[T] {
	return State[T]{Kind: KindFailed, Message: msg}
}

// Busy reports whether the operation is in flight.
func (s State[T]) Busy() bool {
	return s.Kind == KindInFlight
}

// Err returns the failure as an error, or nil.
func (s State[T]) Err() error {
	if s.Kind != KindFailed {
		return nil
	}
	return errors.New(s.Message)
}
