package session

import "errors"

// Sentinel errors for this package. These allow errors.Is from callers.
var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrExpired      = errors.New("session expired")
	ErrNotFound     = errors.New("session not found")
)
