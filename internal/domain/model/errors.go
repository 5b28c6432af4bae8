package model

import "errors"

// Schema errors shared by the pipeline stages.
var (
	ErrMissingColumn   = errors.New("missing required column")
	ErrDuplicateColumn = errors.New("duplicate column")
)
