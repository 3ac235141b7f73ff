package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeNoRecipients  = "NO_RECIPIENTS"
	CodeResolution    = "RESOLUTION_ERROR"
	CodeSend          = "SEND_ERROR"
	CodeConfiguration = "CONFIGURATION_ERROR"
	CodeInternal      = "INTERNAL_ERROR"
)

// AppError represents an application error
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
	Details any    `json:"details,omitempty"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s - %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails attaches structured detail to the error
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// NewValidationError creates a new validation error
func NewValidationError(message string, err error) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
		Err:     err,
	}
}

// NewNoRecipientsError creates an error for an empty recipient set
func NewNoRecipientsError(message string) *AppError {
	return &AppError{
		Code:    CodeNoRecipients,
		Message: message,
	}
}

// NewResolutionError creates an error for a failed recipient lookup
func NewResolutionError(message string, err error) *AppError {
	return &AppError{
		Code:    CodeResolution,
		Message: message,
		Err:     err,
	}
}

// NewSendError creates an error for a failed provider call
func NewSendError(message string, err error) *AppError {
	return &AppError{
		Code:    CodeSend,
		Message: message,
		Err:     err,
	}
}

// NewConfigurationError creates an error for missing configuration
func NewConfigurationError(message string, err error) *AppError {
	return &AppError{
		Code:    CodeConfiguration,
		Message: message,
		Err:     err,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: message,
		Err:     err,
	}
}

// As extracts an *AppError from err, wrapping unknown errors as internal.
func As(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError(err.Error(), err)
}

// IsCode reports whether err carries the given code
func IsCode(err error, code string) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.Code == code
}

// HTTPStatus maps an error to the status code returned to API clients
func HTTPStatus(err error) int {
	switch As(err).Code {
	case CodeValidation, CodeNoRecipients:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
