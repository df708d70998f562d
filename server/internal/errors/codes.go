// Package errors defines the coded errors the honeypot API reports to callers.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
)

// Code is a stable, caller-visible error identifier.
type Code string

const (
	CodeUnauthorized         Code = "UNAUTHORIZED"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"
	CodeInvalidArgument      Code = "INVALID_ARGUMENT"
	CodeNotFound             Code = "NOT_FOUND"
	CodeLLMUnavailable       Code = "LLM_UNAVAILABLE"
	CodeTimeout              Code = "TIMEOUT"
	CodeContextCanceled      Code = "CONTEXT_CANCELED"
	CodeReportDeliveryFailed Code = "REPORT_DELIVERY_FAILED"
	CodeInternal             Code = "INTERNAL"
)

var statusByCode = map[Code]int{
	CodeUnauthorized:         http.StatusUnauthorized,
	CodeRateLimitExceeded:    http.StatusTooManyRequests,
	CodeInvalidArgument:      http.StatusBadRequest,
	CodeNotFound:             http.StatusNotFound,
	CodeLLMUnavailable:       http.StatusServiceUnavailable,
	CodeTimeout:              http.StatusGatewayTimeout,
	CodeContextCanceled:      http.StatusServiceUnavailable,
	CodeReportDeliveryFailed: http.StatusBadGateway,
}

// APIError carries a code, the HTTP status it maps to and an optional cause.
type APIError struct {
	Code    Code
	Status  int
	Message string
	Cause   error
}

func (e *APIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

// New creates an error whose status is derived from code. Unknown codes map to 500.
func New(code Code, msg string) *APIError {
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &APIError{Code: code, Status: status, Message: msg}
}

// Wrap is New with a cause.
func Wrap(cause error, code Code, msg string) *APIError {
	e := New(code, msg)
	e.Cause = cause
	return e
}

func Unauthorized(msg string) *APIError      { return New(CodeUnauthorized, msg) }
func RateLimitExceeded(msg string) *APIError { return New(CodeRateLimitExceeded, msg) }
func InvalidArgument(msg string) *APIError   { return New(CodeInvalidArgument, msg) }

// NotFound reports a missing resource by kind and id.
func NotFound(kind, id string) *APIError {
	return New(CodeNotFound, fmt.Sprintf("%s %q not found", kind, id))
}

// FromContext maps a context error to TIMEOUT or CONTEXT_CANCELED.
func FromContext(err error) *APIError {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return Wrap(err, CodeTimeout, "deadline exceeded")
	}
	return Wrap(err, CodeContextCanceled, "operation canceled")
}

// ReportDeliveryFailed records a report the upstream endpoint did not accept.
func ReportDeliveryFailed(sessionID string, cause error) *APIError {
	return Wrap(cause, CodeReportDeliveryFailed, fmt.Sprintf("report for session %s not delivered", sessionID))
}

// CodeOf returns the code of the first APIError in err's chain, or def.
func CodeOf(err error, def Code) Code {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Code
	}
	return def
}

// StatusOf returns the HTTP status of the first APIError in err's chain, or 500.
func StatusOf(err error) int {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Status
	}
	return http.StatusInternalServerError
}
