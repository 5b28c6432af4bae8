package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("authentication required")
	ErrTooLarge     = errors.New("upload too large")
	ErrRateLimited  = errors.New("too many uploads, slow down")
	ErrNoFile       = errors.New("no file in upload")
)
