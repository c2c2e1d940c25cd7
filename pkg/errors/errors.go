package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeValidation indicates a validation error
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeInvalidState indicates an operation attempted from a status that
	// does not permit it (e.g. allocating a booking that is not waiting in queue)
	ErrorTypeInvalidState ErrorType = "INVALID_STATE"

	// ErrorTypeConflict indicates a conflict with existing data, such as a bed
	// that is already occupied or that lost a concurrent allocation race
	ErrorTypeConflict ErrorType = "CONFLICT"

	// ErrorTypeUnauthorized indicates unauthorized access
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"

	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"

	// ErrorTypeExternal indicates an error from external service
	ErrorTypeExternal ErrorType = "EXTERNAL"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewInvalidStateError creates a new invalid state error
func NewInvalidStateError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeInvalidState,
		Message: message,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeConflict,
		Message: message,
	}
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeUnauthorized,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// NewExternalError creates a new external service error
func NewExternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeExternal,
		Message: message,
		Err:     err,
	}
}

// TypeOf returns the ErrorType of err, or ErrorTypeInternal for foreign errors
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

func isType(err error, t ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == t
}

// IsNotFound reports whether err is a not found error
func IsNotFound(err error) bool {
	return isType(err, ErrorTypeNotFound)
}

// IsValidation reports whether err is a validation error
func IsValidation(err error) bool {
	return isType(err, ErrorTypeValidation)
}

// IsInvalidState reports whether err is an invalid state error
func IsInvalidState(err error) bool {
	return isType(err, ErrorTypeInvalidState)
}

// IsConflict reports whether err is a conflict error
func IsConflict(err error) bool {
	return isType(err, ErrorTypeConflict)
}

// IsUnauthorized reports whether err is an unauthorized error
func IsUnauthorized(err error) bool {
	return isType(err, ErrorTypeUnauthorized)
}
