// Package apperr classifies failures of the HTTP endpoints into the kinds
// a caller can act on.
package apperr

import (
	"errors"
	"net/http"
)

// Kind is the failure taxonomy exposed by the API.
type Kind string

const (
	Unauthenticated Kind = "unauthenticated"
	Unauthorized    Kind = "unauthorized"
	Validation      Kind = "validation"
	Conflict        Kind = "conflict"
	NotFound        Kind = "not_found"
	Upstream        Kind = "upstream"
)

// HTTPStatus returns the status code for k. Unknown kinds map to 500.
func (k Kind) HTTPStatus() int {
	switch k {
	case Unauthenticated:
		return http.StatusUnauthorized
	case Unauthorized:
		return http.StatusForbidden
	case Validation:
		return http.StatusBadRequest
	case Conflict:
		return http.StatusConflict
	case NotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// Error is a classified failure. Message is safe to show to the caller;
// Err carries the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an Error of kind k.
func New(k Kind, message string) *Error {
	return &Error{Kind: k, Message: message}
}

// Wrap returns an Error of kind k caused by err.
func Wrap(k Kind, message string, err error) *Error {
	return &Error{Kind: k, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or Upstream
// for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Upstream
}

// MessageOf returns the caller-facing message for err. Unclassified errors
// get a generic message so internals never leak.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}

// HTTPStatus returns the status code for err.
func HTTPStatus(err error) int {
	return KindOf(err).HTTPStatus()
}
