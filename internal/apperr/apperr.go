// Package apperr carries the status/message error convention used by the
// service layer.  Handlers translate an *Error straight into an HTTP
// response; anything that is not an *Error is treated as unexpected and
// demoted to a generic 500 so internal details never leak to clients.
package apperr

import (
	"errors"
	"net/http"
)

// Error pairs a caller-visible HTTP status with a message.
type Error struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Message }

// New builds an *Error with an explicit status.
func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// BadRequest is used for malformed ids, missing required fields, invalid
// date ranges and business-rule violations on well-formed requests.
func BadRequest(message string) *Error { return New(http.StatusBadRequest, message) }

// NotFound is used when a referenced activity, event, guide, reservation
// or user does not exist.
func NotFound(message string) *Error { return New(http.StatusNotFound, message) }

// From classifies an arbitrary error.  An *Error anywhere in the chain is
// passed through unchanged, preserving the original caller-facing status.
// Everything else becomes a 500 with a non-leaking default message.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return New(http.StatusInternalServerError, "unexpected error")
}

// StatusOf returns the HTTP status an error maps to.
func StatusOf(err error) int { return From(err).Status }
