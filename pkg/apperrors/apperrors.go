package apperrors

import (
	"errors"
	"fmt"
)

// Kind discriminates the failure classes the workflow engine can surface.
// Callers branch on the kind, never on message text.
type Kind string

const (
	KindUnauthorized       Kind = "UNAUTHORIZED"
	KindNotFound           Kind = "NOT_FOUND"
	KindInvalidState       Kind = "INVALID_STATE"
	KindValidationFailed   Kind = "VALIDATION_FAILED"
	KindConflict           Kind = "CONFLICT"
	KindStorageFailure     Kind = "STORAGE_FAILURE"
	KindDependencyDegraded Kind = "DEPENDENCY_DEGRADED"
	KindInternal           Kind = "INTERNAL"
)

// Error is a tagged domain error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error { return &Error{Kind: kind, Message: msg} }

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Unauthorized(msg string) *Error { return New(KindUnauthorized, msg) }
func NotFound(msg string) *Error     { return New(KindNotFound, msg) }
func InvalidState(msg string) *Error { return New(KindInvalidState, msg) }
func Validation(msg string) *Error   { return New(KindValidationFailed, msg) }
func Conflict(msg string) *Error     { return New(KindConflict, msg) }
func Storage(msg string, err error) *Error {
	return Wrap(KindStorageFailure, msg, err)
}

// KindOf extracts the kind from an error chain; unrecognized errors are
// classified as internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool { return KindOf(err) == kind }
