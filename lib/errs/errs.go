// Package errs provides the error kinds shared by the store, the catalog and the tracker.
//
// Callers match on kind with errors.Is against the sentinels:
//
//	if errors.Is(err, errs.ErrNotFound) {
//	    ...
//	}
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation Kind = "VALIDATION"
	KindNotFound   Kind = "NOT_FOUND"
	KindTransient  Kind = "TRANSIENT"
	KindConflict   Kind = "CONFLICT"
	KindInternal   Kind = "INTERNAL"
)

func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindTransient:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Kind    Kind
	Message string
	Details any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

func (e *Error) HTTPStatus() int { return e.Kind.HTTPStatus() }

func (e *Error) WithCause(err error) *Error {
	return &Error{Kind: e.Kind, Message: e.Message, Details: e.Details, cause: err}
}

var (
	ErrValidation = &Error{Kind: KindValidation, Message: "validation error"}
	ErrNotFound   = &Error{Kind: KindNotFound, Message: "not found"}
	ErrTransient  = &Error{Kind: KindTransient, Message: "temporarily unavailable"}
	ErrConflict   = &Error{Kind: KindConflict, Message: "conflict"}
)

func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Kind: KindValidation, Message: msg, Details: details}
}

func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Transient wraps an upstream failure that is expected to clear up on its own.
func Transient(msg string, cause error) *Error {
	return &Error{Kind: KindTransient, Message: msg, cause: cause}
}

// StatusOf returns the HTTP status for err, defaulting to 500 for untyped errors.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.HTTPStatus()
	}
	return http.StatusInternalServerError
}
