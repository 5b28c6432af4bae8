package service

import "errors"

// Sentinel errors for this package. These allow errors.Is from callers.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrUnknownStore = errors.New("unknown user store")
)
