package repository

import "errors"

// Sentinel kinds for store setup errors. Lookup errors use the account package sentinels.
var (
	ErrInvalidDSN = errors.New("invalid database url")
)
