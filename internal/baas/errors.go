package baas

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a rejection reported by the backend. Status follows HTTP
// semantics: 404 for a missing resource, 409 for a create that targets an
// existing one.
type Error struct {
	Status  int
	Type    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("%s (%d %s)", e.Message, e.Status, e.Type)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(status int, typ string, format string, args ...any) *Error {
	return &Error{Status: status, Type: typ, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return newError(http.StatusNotFound, "not_found", format, args...)
}

func Conflict(format string, args ...any) *Error {
	return newError(http.StatusConflict, "already_exists", format, args...)
}

func Invalid(format string, args ...any) *Error {
	return newError(http.StatusBadRequest, "invalid", format, args...)
}

// StatusOf returns the backend status carried by err, or 0.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

// IsConflict reports whether err is the backend's "already exists" signal.
func IsConflict(err error) bool {
	return StatusOf(err) == http.StatusConflict
}

// IsNotFound reports whether err is the backend's "not found" signal.
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}
