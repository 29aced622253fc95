// Package errors defines the service error taxonomy shared by the gateway.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Code identifies a class of service failure.
type Code string

const (
	CodeBackend          Code = "BACKEND_ERROR"
	CodeUnsupported      Code = "UNSUPPORTED_CAPABILITY"
	CodeNotFound         Code = "NOT_FOUND"
	CodeMethodNotAllowed Code = "METHOD_NOT_ALLOWED"
	CodeInternal         Code = "INTERNAL_ERROR"
)

// ServiceError is an error that knows how it should be rendered to a client.
type ServiceError struct {
	Code       Code
	Message    string
	HTTPStatus int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Backend reports a failed call to an upstream store. Every backend failure is
// surfaced to clients as a 400 carrying the provider's message.
func Backend(message string, err error) *ServiceError {
	if message == "" && err != nil {
		message = err.Error()
	}
	return &ServiceError{
		Code:       CodeBackend,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
	}
}

// Unsupported reports a capability the selected store does not offer.
func Unsupported(operation, os string) *ServiceError {
	return &ServiceError{
		Code:       CodeUnsupported,
		Message:    fmt.Sprintf("%s is not supported for os %q", operation, os),
		HTTPStatus: http.StatusBadRequest,
	}
}

// NotFound reports an unknown route.
func NotFound(message string) *ServiceError {
	return &ServiceError{
		Code:       CodeNotFound,
		Message:    message,
		HTTPStatus: http.StatusNotFound,
	}
}

// MethodNotAllowed reports a request using an unsupported HTTP method.
func MethodNotAllowed() *ServiceError {
	return &ServiceError{
		Code:       CodeMethodNotAllowed,
		Message:    "method not allowed",
		HTTPStatus: http.StatusMethodNotAllowed,
	}
}

// Internal reports a failure inside the gateway itself.
func Internal(message string, err error) *ServiceError {
	return &ServiceError{
		Code:       CodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// As extracts a *ServiceError from err's chain.
func As(err error) (*ServiceError, bool) {
	var se *ServiceError
	if stderrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	se, ok := As(err)
	return ok && se.Code == code
}

// StatusOf returns the HTTP status for err. Errors outside the taxonomy are
// treated as backend failures.
func StatusOf(err error) int {
	if se, ok := As(err); ok && se.HTTPStatus != 0 {
		return se.HTTPStatus
	}
	return http.StatusBadRequest
}

// MessageOf returns the client-facing message for err.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	if se, ok := As(err); ok {
		return se.Error()
	}
	return err.Error()
}
