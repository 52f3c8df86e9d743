package sim

import "errors"

var (
	// ErrInvalidConfig wraps every configuration error found by Config.Validate.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNotReset is returned by Step before the first Reset.
	ErrNotReset = errors.New("environment not reset")

	// ErrTerminated is returned by Step once the episode has ended.
	ErrTerminated = errors.New("episode terminated")

	// ErrInvalidAction is returned for empty actions and out-of-range indices.
	ErrInvalidAction = errors.New("invalid action")

	// ErrNoCapacity is returned when an action demands more units than a resource has free.
	ErrNoCapacity = errors.New("resource has no free capacity")

	// ErrEmptyQueue is returned when an action demands more patients than a queue holds.
	ErrEmptyQueue = errors.New("queue is empty")
)

// IsContractViolation reports whether err is a rejected Step call.
// State is never mutated when Step returns such an error.
func IsContractViolation(err error) bool {
	return errors.Is(err, ErrNotReset) ||
		errors.Is(err, ErrTerminated) ||
		errors.Is(err, ErrInvalidAction) ||
		errors.Is(err, ErrNoCapacity) ||
		errors.Is(err, ErrEmptyQueue)
}
