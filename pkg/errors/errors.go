// Package errors defines structured error types for the ringbridge service.
// Recoverable conditions are returned as typed errors carrying a stable wire
// code and an HTTP status; nothing in the public operation surface panics.
package errors

import (
	"fmt"
	"net/http"
)

// Wire-level error codes. These are the strings clients see in responses.
const (
	CodeNotFound          = "not_found"
	CodeExpired           = "expired"
	CodeInvalidCode       = "invalid_code"
	CodeMissingParams     = "missing_params"
	CodeMissingDeviceCode = "missing_device_code"
	CodeLoginInFlight     = "login_in_flight"
	CodeNotAuthenticated  = "not_authenticated"
	CodeServerError       = "server_error"
)

// AppError is a structured application error with a stable code and HTTP status.
type AppError struct {
	code       string
	httpStatus int
	message    string
	cause      error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Code returns the stable wire code.
func (e *AppError) Code() string { return e.code }

// HTTPStatus returns the HTTP status this error maps to.
func (e *AppError) HTTPStatus() int { return e.httpStatus }

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *AppError) Unwrap() error { return e.cause }

// WithCause attaches an underlying error.
func (e *AppError) WithCause(cause error) *AppError {
	e.cause = cause
	return e
}

// New creates an AppError with the given code, status, and message.
func New(code string, httpStatus int, message string) *AppError {
	return &AppError{code: code, httpStatus: httpStatus, message: message}
}

// ErrNotFound reports an unknown reference such as an unknown device code.
func ErrNotFound(message string) *AppError {
	return New(CodeNotFound, http.StatusNotFound, message)
}

// ErrExpired reports a pairing session past its TTL.
func ErrExpired(message string) *AppError {
	return New(CodeExpired, http.StatusBadRequest, message)
}

// ErrInvalidCode reports a user code that was never issued or is no longer live.
func ErrInvalidCode(message string) *AppError {
	return New(CodeInvalidCode, http.StatusBadRequest, message)
}

// ErrMissingParams reports a request missing required fields. No state is mutated.
func ErrMissingParams(message string) *AppError {
	return New(CodeMissingParams, http.StatusBadRequest, message)
}

// ErrLoginInFlight reports a second concurrent login for an identifier that
// already has a live CLI attempt.
func ErrLoginInFlight(identifier string) *AppError {
	return New(CodeLoginInFlight, http.StatusConflict,
		fmt.Sprintf("a login attempt is already in flight for %s", identifier))
}

// ErrNotAuthenticated reports a missing cached credential for an identifier.
func ErrNotAuthenticated(identifier string) *AppError {
	return New(CodeNotAuthenticated, http.StatusUnauthorized,
		fmt.Sprintf("no cached credential for %s", identifier))
}

// ErrServerError reports an unexpected internal condition.
func ErrServerError(message string) *AppError {
	return New(CodeServerError, http.StatusInternalServerError, message)
}

// AsAppError attempts to cast an error to *AppError.
func AsAppError(err error) (*AppError, bool) {
	appErr, ok := err.(*AppError)
	return appErr, ok
}

// CodeOf returns the wire code of an error, or server_error for plain errors.
func CodeOf(err error) string {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code()
	}
	return CodeServerError
}
