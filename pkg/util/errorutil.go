package util

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainError standardizes application errors. Title is the machine-readable
// value of the "error" field in rejection responses; Message is the
// human-readable diagnostic beside it.
type DomainError struct {
	Title      string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(title, message string, status int) *DomainError {
	return &DomainError{Title: title, Message: message, HTTPStatus: status}
}

func NewValidationError(message string) error {
	return NewDomainError("Bad Request", message, http.StatusBadRequest)
}

func NewUnauthorized(message string) error {
	return NewDomainError("Unauthorized", message, http.StatusUnauthorized)
}

func NewForbidden(message string) error {
	return NewDomainError("Forbidden", message, http.StatusForbidden)
}

func NewConflict(message string) error {
	return NewDomainError("Conflict", message, http.StatusConflict)
}

func NewTooManyRequests(message string) error {
	return NewDomainError("Too Many Requests", message, http.StatusTooManyRequests)
}

// NewInternalError wraps an unexpected failure. The wrapped error is for
// server-side logs only; the caller sees an opaque message.
func NewInternalError(err error) error {
	return &DomainError{
		Title:      "Server Error",
		Message:    "an internal error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if de, ok := NewInternalError(err).(*DomainError); ok {
		return de
	}
	return &DomainError{
		Title:      "Server Error",
		Message:    "an internal error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
