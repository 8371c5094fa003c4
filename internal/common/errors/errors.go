package errors

import (
	"fmt"
	"time"
)

// ErrorCode identifies the class of an application error.
type ErrorCode string

const (
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation        ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrCodeAlreadyUsed       ErrorCode = "ALREADY_USED"
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	ErrCodeAlreadyJoined     ErrorCode = "ALREADY_JOINED"
	ErrCodeNotEligible       ErrorCode = "NOT_ELIGIBLE"
	ErrCodeSessionExpired    ErrorCode = "SESSION_EXPIRED"
	ErrCodeCollaborator      ErrorCode = "COLLABORATOR_FAILURE"
)

// AppError is a typed application error. Rejection classes
// (validation, not-found, transition guards, authorization) are reported
// back to the invoking actor; collaborator failures are logged and
// swallowed by the caller.
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// IsRejection reports whether the error should be shown to the invoking
// actor as a rejection rather than treated as a system failure.
func (e *AppError) IsRejection() bool {
	switch e.Code {
	case ErrCodeValidation, ErrCodeNotFound, ErrCodeUnauthorized,
		ErrCodeAlreadyUsed, ErrCodeInvalidTransition, ErrCodeAlreadyJoined,
		ErrCodeNotEligible, ErrCodeSessionExpired:
		return true
	}
	return false
}

func (e *AppError) IsNotFound() bool {
	return e.Code == ErrCodeNotFound
}

func (e *AppError) IsCollaborator() bool {
	return e.Code == ErrCodeCollaborator
}

// WithDetail attaches structured detail to the error.
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new application error.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Newf creates a new application error with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an underlying error.
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	return appErr
}

// NewValidationError creates a validation rejection.
func NewValidationError(field, reason string) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf("Validation failed for '%s': %s", field, reason)).
		WithDetail("field", field).
		WithDetail("reason", reason)
}

// NewNotFoundError creates a "not found" rejection.
func NewNotFoundError(resource string, id interface{}) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource)).
		WithDetail("resource", resource).
		WithDetail("id", id)
}

// NewUnauthorizedError creates an authorization rejection.
func NewUnauthorizedError(reason string) *AppError {
	return New(ErrCodeUnauthorized, fmt.Sprintf("Unauthorized: %s", reason))
}

// NewCollaboratorError wraps a failed external call (send, lookup, persist).
func NewCollaboratorError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeCollaborator, fmt.Sprintf("Collaborator call failed: %s", operation)).
		WithDetail("operation", operation)
}

// AsAppError converts err to *AppError when possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if err != nil {
		appErr, _ = err.(*AppError)
	}
	return appErr, appErr != nil
}
