package confirmation

import "errors"

var (
	// ErrInvalidRequest is returned when a push request fails validation. No side effect occurs.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotFound is returned when an operation references an unknown session.
	ErrNotFound = errors.New("transaction not found")
)
