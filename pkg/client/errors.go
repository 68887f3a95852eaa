package client

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the caller's context ends the retry loop.
	ErrContextCancelled = errors.New("context cancelled")
)

// ErrorCode is the machine-readable code of an Error.
type ErrorCode string

const (
	// CodeValidation marks a missing or invalid caller-supplied argument.
	// Raised before any network attempt and never retried.
	CodeValidation ErrorCode = "VALIDATION_ERROR"

	// CodeNetwork marks a timeout, transport failure or non-2xx response.
	CodeNetwork ErrorCode = "NETWORK_ERROR"

	// CodeRateLimited marks a request rejected because the API quota is exhausted.
	CodeRateLimited ErrorCode = "RATE_LIMITED"

	// CodeUnknown wraps any other failure.
	CodeUnknown ErrorCode = "UNKNOWN_ERROR"
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 Too Many Requests responses.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents transport errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassTimeout represents attempts aborted by the per-attempt timeout.
	ErrorClassTimeout ErrorClass = "timeout"

	// ErrorClassQuota represents requests refused locally by the quota tracker.
	ErrorClassQuota ErrorClass = "quota"

	// ErrorClassCancelled represents requests stopped by the caller's context.
	ErrorClassCancelled ErrorClass = "cancelled"
)

// Error is the error type returned by every client and service operation.
type Error struct {
	Code       ErrorCode
	Class      ErrorClass
	Message    string
	StatusCode int
	StatusText string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d %s)", msg, e.StatusCode, e.StatusText)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewValidationError creates a VALIDATION_ERROR.
func NewValidationError(format string, args ...any) *Error {
	return &Error{
		Code:    CodeValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapValidation wraps err, typically ozzo-validation errors, as a VALIDATION_ERROR.
// Returns nil if err is nil.
func WrapValidation(err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    CodeValidation,
		Message: message,
		Err:     err,
	}
}

// CodeOf returns the code of the first Error in err's chain,
// CodeUnknown for other errors and "" for nil.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsValidation reports whether err is a VALIDATION_ERROR.
func IsValidation(err error) bool {
	return CodeOf(err) == CodeValidation
}

// IsNetwork reports whether err is a NETWORK_ERROR.
func IsNetwork(err error) bool {
	return CodeOf(err) == CodeNetwork
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}

// asError gives err a uniform surface: errors that already carry an Error
// are returned unchanged, anything else is wrapped as UNKNOWN_ERROR.
func asError(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, ErrContextCancelled) {
		return &Error{
			Code:    CodeNetwork,
			Class:   ErrorClassCancelled,
			Message: "request cancelled",
			Err:     err,
		}
	}
	return &Error{
		Code:    CodeUnknown,
		Message: "unexpected failure",
		Err:     err,
	}
}

// shouldRetry determines if an error should be retried based on its classification.
// HTTP errors are not split into transient and permanent ones: any non-2xx
// response is retried like a transport failure.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassClient, ErrorClassServer, ErrorClassRateLimit, ErrorClassNetwork, ErrorClassTimeout:
		return true
	default:
		// quota, cancelled and unclassified failures are final
		return false
	}
}
