package pipeline

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind string

// Failure kinds.
const (
	KindParse    Kind = "parse"
	KindSchema   Kind = "schema"
	KindEmpty    Kind = "empty"
	KindInternal Kind = "internal"
)

// Sentinel errors for this package. These allow errors.Is from callers.
var (
	ErrParse    = errors.New("file could not be read as a table")
	ErrSchema   = errors.New("schema error")
	ErrEmpty    = errors.New("no rows left after cleaning")
	ErrInternal = errors.New("internal pipeline failure")
)

const userMessagePrefix = "Error processing file: "

// Error is the single failure a pipeline run can return. No partial result
// accompanies it.
type Error struct {
	Kind  Kind
	Stage string
	Err   error
}

func newError(kind Kind, stage string, err error) *Error {
	return &Error{Kind: kind, Stage: stage, Err: err}
}

// Error implements error.
func (e *Error) Error() string {
	return fmt.Sprintf("pipeline %s (%s): %v", e.Stage, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of e's kind.
func (e *Error) Is(target error) bool {
	return target == e.sentinel()
}

// Message returns the text shown to the person who uploaded the file.
// Internal failures do not leak their cause.
func (e *Error) Message() string {
	if e.Kind == KindInternal {
		return userMessagePrefix + ErrInternal.Error()
	}
	return userMessagePrefix + e.Err.Error()
}

func (e *Error) sentinel() error {
	switch e.Kind {
	case KindParse:
		return ErrParse
	case KindSchema:
		return ErrSchema
	case KindEmpty:
		return ErrEmpty
	default:
		return ErrInternal
	}
}

// AsError extracts the *Error from err.
func AsError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
