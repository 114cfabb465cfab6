package apierrors

import (
	"fmt"
	"net/http"
)

// Machine-readable error codes returned to API clients.
const (
	CodeInvalidInput   = "INVALID_INPUT"
	CodeNotFound       = "NOT_FOUND"
	CodeCallNotFound   = "CALL_NOT_FOUND"
	CodeAgentNotFound  = "AGENT_NOT_FOUND"
	CodeDispatchFailed = "DISPATCH_FAILED"
	CodeSummaryFailed  = "SUMMARY_FAILED"
	CodeInternalError  = "INTERNAL_ERROR"
)

// APIError is an error with an HTTP status and a machine-readable code. The
// Message is safe to expose to clients; internal details stay in the wrapped
// error and the logs.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Internal   error
}

func (e *APIError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Internal
}

// BadRequest creates a 400 error
func BadRequest(code, message string) *APIError {
	return &APIError{StatusCode: http.StatusBadRequest, Code: code, Message: message}
}

// NotFound creates a 404 error
func NotFound(code, message string) *APIError {
	return &APIError{StatusCode: http.StatusNotFound, Code: code, Message: message}
}

// BadGateway creates a 502 error for upstream service failures
func BadGateway(code, message string, internalErr error) *APIError {
	return &APIError{StatusCode: http.StatusBadGateway, Code: code, Message: message, Internal: internalErr}
}

// ServiceUnavailable creates a 503 error
func ServiceUnavailable(code, message string, internalErr error) *APIError {
	return &APIError{StatusCode: http.StatusServiceUnavailable, Code: code, Message: message, Internal: internalErr}
}

// InternalError creates a sanitized 500 error - never exposes internal details
func InternalError(internalErr error) *APIError {
	return &APIError{
		StatusCode: http.StatusInternalServerError,
		Code:       CodeInternalError,
		Message:    "An internal error occurred. Please try again later.",
		Internal:   internalErr,
	}
}
