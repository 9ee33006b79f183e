// Package errors provides the application error type shared by services and handlers.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for common failure scenarios.
var (
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")
)

// AppError is a structured application error with HTTP status and error code.
type AppError struct {
	// Code is a machine-readable error code (e.g., "INCIDENT_NOT_FOUND").
	Code string `json:"code"`

	Message string `json:"message"`

	HTTPStatus int `json:"-"`

	// FieldErrors carries field-level validation details for form submissions.
	FieldErrors []FieldError `json:"field_errors,omitempty"`

	Err error `json:"-"`
}

// FieldError describes a field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an existing error into an AppError.
func Wrap(err error, code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// WithFieldErrors attaches field-level errors to the AppError.
func (e *AppError) WithFieldErrors(fieldErrors []FieldError) *AppError {
	if e == nil || len(fieldErrors) == 0 {
		return e
	}
	e.FieldErrors = fieldErrors
	return e
}

// NotFound creates a 404 error wrapping ErrNotFound.
func NotFound(code, message string) *AppError {
	return Wrap(ErrNotFound, code, message, http.StatusNotFound)
}

// BadRequest creates a 400 error.
func BadRequest(code, message string) *AppError {
	return New(code, message, http.StatusBadRequest)
}

// Forbidden creates a 403 error wrapping ErrForbidden.
func Forbidden(code, message string) *AppError {
	return Wrap(ErrForbidden, code, message, http.StatusForbidden)
}

// Conflict creates a 409 error wrapping ErrConflict.
func Conflict(code, message string) *AppError {
	return Wrap(ErrConflict, code, message, http.StatusConflict)
}

// Internal creates a 500 error.
func Internal(code, message string, err error) *AppError {
	return Wrap(err, code, message, http.StatusInternalServerError)
}

// Validation creates a 400 error carrying field errors.
func Validation(fieldErrors ...FieldError) *AppError {
	e := Wrap(ErrValidation, CodeValidationFailed, "the submitted form is invalid", http.StatusBadRequest)
	return e.WithFieldErrors(fieldErrors)
}

// FieldInvalid is a shorthand for a single-field validation error.
func FieldInvalid(field, code, message string) *AppError {
	return Validation(FieldError{Field: field, Code: code, Message: message})
}

// IsAppError checks if an error is an AppError and returns it.
func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
