// Package errors defines the typed faults surfaced by the service layer.
// Every fault carries a machine-readable code shown verbatim to the client;
// storage-layer hiccups never reach this package, they degrade to misses
// inside the store.
package errors

import (
	stderrors "errors"
	"net/http"
)

// Error is a typed fault with a machine-readable code and an HTTP status.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *Error) Error() string { return e.Message }

// New creates an Error with an explicit status.
func New(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

// Unauthorized marks an authentication fault.
func Unauthorized(code, message string) *Error {
	return New(http.StatusUnauthorized, code, message)
}

// Forbidden marks an authorization fault.
func Forbidden(code, message string) *Error {
	return New(http.StatusForbidden, code, message)
}

// Invalid marks a validation fault; the operation was refused with no
// partial write.
func Invalid(code, message string) *Error {
	return New(http.StatusBadRequest, code, message)
}

// Conflict marks a state or soft-lock conflict.
func Conflict(code, message string) *Error {
	return New(http.StatusConflict, code, message)
}

// NotFound marks a missing record.
func NotFound(code, message string) *Error {
	return New(http.StatusNotFound, code, message)
}

// ErrorResponse is the standardized error body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ToErrorResponse converts an Error to its response body.
func (e *Error) ToErrorResponse() ErrorResponse {
	return ErrorResponse{Error: e.Message, Code: e.Code}
}

// CodeOf returns the machine code of err, or "" for untyped errors.
func CodeOf(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}

// StatusOf returns the HTTP status for err, defaulting to 500.
func StatusOf(err error) int {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Status
	}
	return http.StatusInternalServerError
}
