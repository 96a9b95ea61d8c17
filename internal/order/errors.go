package order

import "errors"

var (
	// ErrValidation signals malformed or missing caller input.
	ErrValidation = errors.New("order: invalid input")
	// ErrNotFound indicates the order could not be located.
	ErrNotFound = errors.New("order not found")
	// ErrConflict indicates the order changed between read and write.
	ErrConflict = errors.New("order: modified concurrently")
	// ErrPersistence wraps failures of the underlying store.
	ErrPersistence = errors.New("order: store failure")
)
