// Package apperr classifies application failures so that callers can react
// to the kind of error rather than matching message text.
package apperr

import (
	"errors"
	"fmt"
)

// Kind identifies a class of failure.
type Kind string

const (
	// Validation marks a rejected operation: bad durations, bad time
	// ordering, or a broken entry invariant. No state has changed.
	Validation Kind = "validation"

	// NameConflict marks a mode label that collides with an existing one
	// after canonicalization. No state has changed.
	NameConflict Kind = "name_conflict"

	// Persistence marks a store that is unavailable or locked. The
	// operation may be retried.
	Persistence Kind = "persistence"

	// Corruption marks a schema or read failure. Fatal to the affected
	// store session.
	Corruption Kind = "corruption"
)

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}

	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a classified error with the given message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap classifies an underlying error with additional context.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Fmt returns a copy of the error with the message treated as a format
// string applied to args. The original sentinel is left untouched.
func (e *Error) Fmt(args ...any) *Error {
	return &Error{
		Kind:    e.Kind,
		Message: fmt.Sprintf(e.Message, args...),
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *Error) WithCause(cause error) *Error {
	return &Error{
		Kind:    e.Kind,
		Message: e.Message,
		Cause:   cause,
	}
}

// IsKind reports whether any error in err's chain carries the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	for errors.As(err, &appErr) {
		if appErr.Kind == kind {
			return true
		}

		err = appErr.Cause
		appErr = nil
	}

	return false
}
