package api

import (
	"errors"
	"net/http"
)

// Error is a failure that carries the HTTP status it should be reported with.
type Error struct {
	Status  int
	Message string
	Errors  []string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Wrap attaches an underlying cause that is logged but never shown to clients.
func (e *Error) Wrap(cause error) *Error {
	out := *e
	out.cause = cause
	return &out
}

func newError(status int, message string, details []string) *Error {
	if message == "" {
		message = http.StatusText(status)
	}
	return &Error{Status: status, Message: message, Errors: details}
}

// BadRequest reports malformed or missing input.
func BadRequest(message string, details ...string) *Error {
	return newError(http.StatusBadRequest, message, details)
}

// Unauthorized reports a missing, invalid or expired credential.
func Unauthorized(message string) *Error {
	return newError(http.StatusUnauthorized, message, nil)
}

// Forbidden reports an authenticated caller acting on something it does not own.
func Forbidden(message string) *Error {
	return newError(http.StatusForbidden, message, nil)
}

// NotFound reports a referenced entity that does not exist.
func NotFound(message string) *Error {
	return newError(http.StatusNotFound, message, nil)
}

// Conflict reports a write that clashes with existing data.
func Conflict(message string) *Error {
	return newError(http.StatusConflict, message, nil)
}

// TooManyRequests reports a caller that exceeded its rate limit.
func TooManyRequests(message string) *Error {
	return newError(http.StatusTooManyRequests, message, nil)
}

// Internal reports an unexpected store or storage failure.
func Internal(message string, cause error) *Error {
	return newError(http.StatusInternalServerError, message, nil).Wrap(cause)
}

// AsError converts any error into an *Error, defaulting to a generic 500.
func AsError(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Internal("Something went wrong", err)
}
