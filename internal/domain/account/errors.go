package account

import "errors"

// Sentinel errors for this package. These allow errors.Is from callers.
var (
	ErrNotFound           = errors.New("account not found")
	ErrExists             = errors.New("username already exists")
	ErrMissingFields      = errors.New("please fill in all fields")
	ErrInvalidCredentials = errors.New("invalid username or password")
)
