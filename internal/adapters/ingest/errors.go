package ingest

import "errors"

// Sentinel errors for this package. These allow errors.Is from callers.
var (
	ErrEmptyFile         = errors.New("no columns to parse from file")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrMalformed         = errors.New("malformed file")
	ErrNoSheet           = errors.New("workbook has no sheets")
)
