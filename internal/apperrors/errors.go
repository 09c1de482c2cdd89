// internal/apperrors/errors.go
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error carries the HTTP status a rejected operation maps to. Handlers raise
// these at the point of detection and the middleware in this package turns
// them into the response body; nothing else writes error responses.
type Error struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(status int, defaultMsg string, msg ...string) *Error {
	m := defaultMsg
	if len(msg) > 0 && msg[0] != "" {
		m = msg[0]
	}
	return &Error{StatusCode: status, Message: m}
}

func MissingParameter(msg ...string) *Error {
	return newError(http.StatusUnprocessableEntity, "Missing required data", msg...)
}

func NotFound(msg ...string) *Error {
	return newError(http.StatusNotFound, "Resource not found", msg...)
}

func Validation(msg ...string) *Error {
	return newError(http.StatusBadRequest, "Validation error", msg...)
}

// Token is the insufficient-balance rejection. The inference path responds
// 401 on this, matching the surrounding API.
func Token(msg ...string) *Error {
	return newError(http.StatusUnauthorized, "Not enough tokens", msg...)
}

func Unauthorized(msg ...string) *Error {
	return newError(http.StatusUnauthorized, "Unauthorized access", msg...)
}

func UnsupportedMedia(msg ...string) *Error {
	return newError(http.StatusUnsupportedMediaType, "Unsupported media type", msg...)
}

func FieldsNotUpdatable(msg ...string) *Error {
	return newError(http.StatusForbidden, "These fields cannot be updated", msg...)
}

func MultiFiles(msg ...string) *Error {
	return newError(http.StatusBadRequest, "Exactly one file must be uploaded", msg...)
}

func Internal(msg ...string) *Error {
	return newError(http.StatusInternalServerError, "Internal server error", msg...)
}

// Wrap attaches an underlying cause for logs while keeping the client-facing
// status and message.
func Wrap(appErr *Error, cause error) *Error {
	return &Error{StatusCode: appErr.StatusCode, Message: appErr.Message, Err: cause}
}

// AsError extracts an *Error from any error chain.
func AsError(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
