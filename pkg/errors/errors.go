// Package errors provides structured error handling for the nutrition API
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// ErrorCode represents an error code
type ErrorCode string

const (
	// Client errors (4xx)
	CodeMissingParameter ErrorCode = "MISSING_PARAMETER"

	// Upstream errors. All of them surface as 500.
	CodeUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"
	CodeUpstreamMalformed   ErrorCode = "UPSTREAM_MALFORMED"
	CodeUpstreamTimeout     ErrorCode = "UPSTREAM_TIMEOUT"
	CodeInvalidFood         ErrorCode = "INVALID_FOOD"

	// Server errors (5xx)
	CodeInternal ErrorCode = "INTERNAL_ERROR"
)

// AppError represents an application error with structured information
type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// StatusCode returns the HTTP status for the error. Only a missing parameter is a
// client error; everything that goes wrong upstream or internally is a 500.
func (e *AppError) StatusCode() int {
	switch e.Code {
	case CodeMissingParameter:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// WithMetadata adds metadata to the error
func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// WithCause adds a cause error
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message, details string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Details:    details,
		StackTrace: getStackTrace(),
	}
}

// NewMissingParameterError creates an error for a required query parameter the client omitted
func NewMissingParameterError(param string) *AppError {
	return NewAppError(
		CodeMissingParameter,
		fmt.Sprintf("Missing ?%s parameter", param),
		"",
	).WithMetadata("parameter", param)
}

// NewUpstreamUnavailableError creates an error for a non-success upstream response.
// A zero status means the provider could not be reached at all.
func NewUpstreamUnavailableError(provider string, status int, cause error) *AppError {
	details := fmt.Sprintf("%s responded with status %d", provider, status)
	if status == 0 {
		details = fmt.Sprintf("Failed to communicate with %s", provider)
	}
	return NewAppError(
		CodeUpstreamUnavailable,
		"Nutrition service unavailable",
		details,
	).WithMetadata("provider", provider).WithMetadata("status", status).WithCause(cause)
}

// NewUpstreamMalformedError creates an error for an upstream body that is not valid JSON
func NewUpstreamMalformedError(provider string, cause error) *AppError {
	return NewAppError(
		CodeUpstreamMalformed,
		"Nutrition service returned an invalid response",
		fmt.Sprintf("Failed to decode %s response", provider),
	).WithMetadata("provider", provider).WithCause(cause)
}

// NewUpstreamTimeoutError creates an error for an upstream call that ran out of time
func NewUpstreamTimeoutError(provider string, cause error) *AppError {
	return NewAppError(
		CodeUpstreamTimeout,
		"Nutrition service timed out",
		fmt.Sprintf("No response from %s before the deadline", provider),
	).WithMetadata("provider", provider).WithCause(cause)
}

// NewInvalidFoodError passes through the upstream's signal that the text is not food
func NewInvalidFoodError(food, reason string) *AppError {
	return NewAppError(
		CodeInvalidFood,
		reason,
		fmt.Sprintf("%q was not recognised as food", food),
	).WithMetadata("food", food)
}

// NewInternalError creates an internal server error
func NewInternalError(message string) *AppError {
	if message == "" {
		message = "An unexpected error occurred"
	}
	return NewAppError(CodeInternal, message, "")
}

// Wrap wraps an error as an internal error if it's not already an AppError
func Wrap(err error, message string) *AppError {
	if err == nil {
		return nil
	}

	if appErr, ok := As(err); ok {
		return appErr
	}

	return NewInternalError(message).WithCause(err)
}

// As finds the first AppError in err's chain
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is checks if an error is of a specific error code
func Is(err error, code ErrorCode) bool {
	if appErr, ok := As(err); ok {
		return appErr.Code == code
	}
	return false
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return CodeInternal
}

// getStackTrace captures the current stack trace
func getStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var builder strings.Builder
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "pkg/errors") {
			builder.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}

	return builder.String()
}

// ErrorResponse is the JSON body written for a failed request
type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      ErrorCode `json:"code"`
	Details   string    `json:"details,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

// ToErrorResponse converts an AppError to an API error response
func ToErrorResponse(err *AppError, requestID string) ErrorResponse {
	return ErrorResponse{
		Error:     err.Message,
		Code:      err.Code,
		Details:   err.Details,
		RequestID: requestID,
	}
}
