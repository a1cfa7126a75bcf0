// Package errors defines the error taxonomy shared by the stores, the
// application handlers and the HTTP layer.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies an AppError
type ErrorType string

const (
	ErrorTypeInvalidInput ErrorType = "INVALID_INPUT"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeUnavailable  ErrorType = "UNAVAILABLE"
	ErrorTypeInternal     ErrorType = "INTERNAL"
)

var statusByType = map[ErrorType]int{
	ErrorTypeInvalidInput: http.StatusBadRequest,
	ErrorTypeNotFound:     http.StatusNotFound,
	ErrorTypeUnauthorized: http.StatusUnauthorized,
	ErrorTypeForbidden:    http.StatusForbidden,
	ErrorTypeUnavailable:  http.StatusServiceUnavailable,
	ErrorTypeInternal:     http.StatusInternalServerError,
}

// AppError is an error with a type the HTTP layer can map to a status
type AppError struct {
	Type    ErrorType
	Message string
	Details map[string]interface{}
	Cause   error
}

func newAppError(t ErrorType, message string) *AppError {
	return &AppError{Type: t, Message: message}
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Status returns the HTTP status for the error type
func (e *AppError) Status() int {
	if status, ok := statusByType[e.Type]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WithDetails attaches machine-readable details
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// WithCause records the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// NewInvalidInputError is returned for malformed ids and out-of-range fields
func NewInvalidInputError(message string) *AppError {
	return newAppError(ErrorTypeInvalidInput, message)
}

func NewInvalidInputErrorf(format string, args ...interface{}) *AppError {
	return newAppError(ErrorTypeInvalidInput, fmt.Sprintf(format, args...))
}

func NewNotFoundError(resource string) *AppError {
	return newAppError(ErrorTypeNotFound, resource+" not found")
}

func NewUnauthorizedError(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return newAppError(ErrorTypeUnauthorized, message)
}

func NewForbiddenError(message string) *AppError {
	if message == "" {
		message = "forbidden"
	}
	return newAppError(ErrorTypeForbidden, message)
}

// NewUnavailableError is returned when a store cannot be reached or a deadline passes
func NewUnavailableError(operation string, cause error) *AppError {
	return newAppError(ErrorTypeUnavailable, operation+" is unavailable").WithCause(cause)
}

func NewInternalError(message string) *AppError {
	return newAppError(ErrorTypeInternal, message)
}

// GetAppError returns the first AppError in the chain, or nil
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

func IsAppError(err error) bool {
	return GetAppError(err) != nil
}

func isType(err error, t ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == t
}

func IsNotFound(err error) bool     { return isType(err, ErrorTypeNotFound) }
func IsInvalidInput(err error) bool { return isType(err, ErrorTypeInvalidInput) }
func IsUnavailable(err error) bool  { return isType(err, ErrorTypeUnavailable) }

// IsDeadline reports whether err came from a cancelled or expired context
func IsDeadline(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

// Wrapf prefixes an AppError's message, or turns any other error into Internal
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	if appErr := GetAppError(err); appErr != nil {
		appErr.Message = message + ": " + appErr.Message
		return appErr
	}
	return NewInternalError(message).WithCause(err)
}
