package queue

import "errors"

// Sentinel errors for this package. These allow errors.Is from callers.
var (
	ErrFull   = errors.New("too many uploads in progress, try again shortly")
	ErrClosed = errors.New("upload processing is shutting down")
)
