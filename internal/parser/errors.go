package parser

import (
	"errors"
	"fmt"
)

// Error kinds. A *Error unwraps to exactly one of them, so callers can branch
// with errors.Is.
var (
	// ErrIO means the source file could not be opened or read.
	ErrIO = errors.New("i/o error")
	// ErrUnexpectedToken means the token does not fit the current state.
	ErrUnexpectedToken = errors.New("unexpected token")
	// ErrNotImplemented means a construct the model deliberately skips
	// cannot be skipped safely (type declarations).
	ErrNotImplemented = errors.New("not implemented")
	// ErrUnknownEntity means an architecture names an entity that has not
	// been parsed yet.
	ErrUnknownEntity = errors.New("unknown entity")
	// ErrUnexpectedEOF means input ended with constructs still open.
	ErrUnexpectedEOF = errors.New("unexpected end of file")
)

// Error is a parse failure with its source location. Every failure stops
// the file: there is no resynchronization and at most one Error per file.
type Error struct {
	Kind  error
	File  string
	Line  int
	State State
	// Token is the offending token text, empty for end of file and I/O.
	Token string
	// Message replaces the generic text for fixed diagnostics.
	Message string
	// Err is the underlying cause, set for I/O failures.
	Err error
}

func (e *Error) Error() string {
	switch {
	case errors.Is(e.Kind, ErrIO):
		return fmt.Sprintf("%s: %v", e.File, e.Err)
	case errors.Is(e.Kind, ErrUnexpectedEOF):
		return fmt.Sprintf("%s unexpected end of file (state = %s)", e.File, e.State)
	case e.Message != "":
		return fmt.Sprintf("%s:%d %s (state = %s)", e.File, e.Line, e.Message, e.State)
	default:
		return fmt.Sprintf("%s:%d %q unexpected (state = %s)", e.File, e.Line, e.Token, e.State)
	}
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// AsError returns the *Error inside err, if any.
func AsError(err error) (*Error, bool) {
	var perr *Error
	if errors.As(err, &perr) {
		return perr, true
	}
	return nil, false
}
