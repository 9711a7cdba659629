package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies an error for the HTTP boundary.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindSelfAction Kind = "self_action"
	KindAuth       Kind = "auth"
	KindForbidden  Kind = "forbidden"
	KindConflict   Kind = "conflict"
	KindDependency Kind = "dependency"
	KindInternal   Kind = "internal"
)

// Error is the typed error every service returns to its caller.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusFor returns the default HTTP status of a kind.
func StatusFor(kind Kind) int {
	switch kind {
	case KindValidation, KindSelfAction:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindDependency:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Status: StatusFor(kind), Err: err}
}

func Validation(msg string) *Error { return newError(KindValidation, msg, nil) }
func NotFound(msg string) *Error   { return newError(KindNotFound, msg, nil) }
func SelfAction(msg string) *Error { return newError(KindSelfAction, msg, nil) }
func Auth(msg string) *Error       { return newError(KindAuth, msg, nil) }
func Forbidden(msg string) *Error  { return newError(KindForbidden, msg, nil) }
func Conflict(msg string) *Error   { return newError(KindConflict, msg, nil) }

// Dependency reports a downstream collaborator failure (mail, image storage).
func Dependency(msg string, err error) *Error {
	return newError(KindDependency, msg, err)
}

// Internal wraps an unexpected store or runtime failure.
func Internal(msg string, err error) *Error {
	return newError(KindInternal, msg, err)
}

// WithStatus overrides the status code while keeping the kind.
func (e *Error) WithStatus(status int) *Error {
	e.Status = status
	return e
}

// From extracts an *Error from err, wrapping unknown errors as internal.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("Something went wrong", err)
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}
