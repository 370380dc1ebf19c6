package services

import (
	"fmt"
	"net/http"
)

// ServiceError represents a typed error with an HTTP status code.
type ServiceError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *ServiceError) Unwrap() error {
	return e.Err
}

func badRequest(message string, err error) *ServiceError {
	return &ServiceError{StatusCode: http.StatusBadRequest, Message: message, Err: err}
}

// upstreamError reports a failed provider call. The message carries the
// provider's own error text so callers see what went wrong.
func upstreamError(message string, err error) *ServiceError {
	return &ServiceError{StatusCode: http.StatusInternalServerError, Message: fmt.Sprintf("%s: %v", message, err), Err: err}
}
