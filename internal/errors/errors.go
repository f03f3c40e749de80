package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Tracky error code.
type ErrorCode string

const (
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"     // 400
	ErrUnauthorized      ErrorCode = "UNAUTHORIZED"        // 401
	ErrNotFound          ErrorCode = "NOT_FOUND"           // 404
	ErrFileNotFound      ErrorCode = "FILE_NOT_FOUND"      // 404
	ErrNameAlreadyExists ErrorCode = "NAME_ALREADY_EXISTS" // 409
	ErrNoteTooLarge      ErrorCode = "NOTE_TOO_LARGE"      // 413
	ErrCancelled         ErrorCode = "CANCELLED"           // 499
	ErrInternal          ErrorCode = "INTERNAL"            // 500
)

// TrackyError represents a structured error with code, status, and details.
type TrackyError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *TrackyError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *TrackyError {
	return &TrackyError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewUnauthorized creates a 401 error for missing or bad credentials.
func NewUnauthorized(msg string) *TrackyError {
	return &TrackyError{
		Code:    ErrUnauthorized,
		Status:  401,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing notebook, note or user.
func NewNotFound(kind, identifier string) *TrackyError {
	return &TrackyError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, identifier),
		Details: map[string]any{"kind": kind, "identifier": identifier},
	}
}

// NewFileNotFound creates a 404 error for a missing file path.
func NewFileNotFound(path string) *TrackyError {
	return &TrackyError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewNameAlreadyExists creates a 409 error for name collisions.
func NewNameAlreadyExists(kind, name string) *TrackyError {
	return &TrackyError{
		Code:    ErrNameAlreadyExists,
		Status:  409,
		Message: fmt.Sprintf("%s %q already exists", kind, name),
		Details: map[string]any{"kind": kind, "name": name},
	}
}

// NewNoteTooLarge creates a 413 error when note content exceeds the size limit.
func NewNoteTooLarge(max, actual int) *TrackyError {
	return &TrackyError{
		Code:    ErrNoteTooLarge,
		Status:  413,
		Message: fmt.Sprintf("note exceeds maximum size: %d chars (max %d)", actual, max),
		Details: map[string]any{"max_chars": max, "actual_chars": actual},
	}
}

// NewCancelled creates a 499 error when an operation is cancelled.
func NewCancelled(operation string) *TrackyError {
	return &TrackyError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", operation),
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *TrackyError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &TrackyError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a TrackyError with the given code.
func Is(err error, code ErrorCode) bool {
	var tErr *TrackyError
	if stderrors.As(err, &tErr) {
		return tErr.Code == code
	}
	return false
}

// As returns err as a TrackyError, wrapping anything else as INTERNAL.
func As(err error) *TrackyError {
	var tErr *TrackyError
	if stderrors.As(err, &tErr) {
		return tErr
	}
	return NewInternal(err)
}
