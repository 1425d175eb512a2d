package store

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a domain error with an HTTP status code.
type Error struct {
	Code    int    // HTTP status code
	Message string // User-facing message
	Err     error  // Underlying error (optional)
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPCode returns the HTTP status code associated with this error.
func (e *Error) HTTPCode() int { return e.Code }

// WithMessage returns a new error with a custom message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{
		Code:    e.Code,
		Message: msg,
		Err:     e.Err,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// Sentinel errors.
var (
	ErrNotFound = &Error{
		Code:    http.StatusNotFound,
		Message: "resource not found",
	}

	ErrAlreadyExists = &Error{
		Code:    http.StatusConflict,
		Message: "resource already exists",
	}

	ErrInvalidInput = &Error{
		Code:    http.StatusBadRequest,
		Message: "invalid input",
	}

	// ErrVersionConflict is returned when an optimistic update loses the
	// race: the row's version no longer matches the one the caller read.
	ErrVersionConflict = &Error{
		Code:    http.StatusConflict,
		Message: "record was modified by another request",
	}

	ErrUnauthorized = &Error{
		Code:    http.StatusUnauthorized,
		Message: "unauthorized",
	}

	ErrForbidden = &Error{
		Code:    http.StatusForbidden,
		Message: "forbidden",
	}
)

func hasCode(err error, code int) bool {
	var storeErr *Error
	return errors.As(err, &storeErr) && storeErr.Code == code
}

// IsNotFound reports whether err is a not-found store error.
func IsNotFound(err error) bool {
	return hasCode(err, http.StatusNotFound)
}

// IsAlreadyExists reports whether err is a uniqueness-violation store error.
func IsAlreadyExists(err error) bool {
	return hasCode(err, http.StatusConflict)
}

// IsVersionConflict reports whether err is specifically an optimistic
// concurrency failure, as opposed to other conflicts.
func IsVersionConflict(err error) bool {
	var storeErr *Error
	return errors.As(err, &storeErr) && storeErr.Code == ErrVersionConflict.Code && storeErr.Message == ErrVersionConflict.Message
}
