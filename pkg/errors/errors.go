package errors

import (
	"fmt"

	cerrors "github.com/cockroachdb/errors"
)

// ErrorCode represents an error code
type ErrorCode string

const (
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized    ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden       ErrorCode = "FORBIDDEN"
	ErrCodeConflict        ErrorCode = "CONFLICT"
	ErrCodeTooManyRequests ErrorCode = "TOO_MANY_REQUESTS"
	ErrCodeInternalError   ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation      ErrorCode = "VALIDATION_ERROR"
	ErrCodeDispatch        ErrorCode = "DISPATCH_ERROR"
	ErrCodeChannelNotReady ErrorCode = "CHANNEL_NOT_READY"
)

// AppError represents an application error
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with an AppError
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Validation reports missing or malformed input.
func Validation(message string) *AppError {
	return New(ErrCodeValidation, message)
}

// NotFound reports an unknown id.
func NotFound(message string) *AppError {
	return New(ErrCodeNotFound, message)
}

// Unauthorized reports missing or rejected credentials.
func Unauthorized(message string) *AppError {
	return New(ErrCodeUnauthorized, message)
}

// Forbidden reports an authenticated caller lacking permission.
func Forbidden(message string) *AppError {
	return New(ErrCodeForbidden, message)
}

// Conflict reports a unique value already in use.
func Conflict(message string) *AppError {
	return New(ErrCodeConflict, message)
}

// TooManyRequests reports a throttled caller.
func TooManyRequests(message string) *AppError {
	return New(ErrCodeTooManyRequests, message)
}

// Dispatch reports a failed delivery on a channel the caller depends on.
func Dispatch(message string, err error) *AppError {
	return Wrap(ErrCodeDispatch, message, err)
}

// Internal wraps an unexpected persistence or integration failure.
func Internal(message string, err error) *AppError {
	return Wrap(ErrCodeInternalError, message, err)
}

// CodeOf returns the code of the first AppError in err's chain, or
// ErrCodeInternalError when there is none.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if cerrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternalError
}

// MessageOf returns the caller-facing message of the first AppError in err's chain.
func MessageOf(err error) string {
	var appErr *AppError
	if cerrors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}

// IsNotFound checks if error is NotFound
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

// IsValidation checks if error is a validation error
func IsValidation(err error) bool {
	return CodeOf(err) == ErrCodeValidation
}

// IsUnauthorized checks if error is Unauthorized
func IsUnauthorized(err error) bool {
	return CodeOf(err) == ErrCodeUnauthorized
}

// IsForbidden checks if error is Forbidden
func IsForbidden(err error) bool {
	return CodeOf(err) == ErrCodeForbidden
}
