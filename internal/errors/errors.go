package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeStorageTransaction = "STORAGE_TRANSACTION_ERROR"
	ErrCodeRecordFailed       = "RECORD_FAILED"
	ErrCodeStructuralMismatch = "STRUCTURAL_MISMATCH"
	ErrCodeInternal           = "INTERNAL_ERROR"
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeConflict           = "CONFLICT"
)

// AppError represents an application error with HTTP status code and error code
type AppError struct {
	Code    string // Error code (e.g., "NOT_FOUND", "VALIDATION_ERROR")
	Message string // Human-readable error message
	Status  int    // HTTP status code
	Err     error  // Wrapped underlying error (optional)
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error wrapping support
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a new NOT_FOUND error
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %v", resource, id),
		Status:  http.StatusNotFound,
	}
}

// NewValidationError creates a new VALIDATION_ERROR
func NewValidationError(field string, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf("validation failed for %s: %s", field, reason),
		Status:  http.StatusBadRequest,
	}
}

// NewStorageTransactionError wraps a failed atomic write. The cause is kept
// so callers can inspect the driver error.
func NewStorageTransactionError(operation string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeStorageTransaction,
		Message: fmt.Sprintf("%s failed, no changes were written", operation),
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// NewRecordError reports a write that failed after earlier writes of the same
// operation were committed. Those writes are kept.
func NewRecordError(what string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeRecordFailed,
		Message: fmt.Sprintf("%s could not be saved; changes made before it were kept", what),
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// NewStructuralMismatchError reports a document of the wrong shape for the
// requested operation (e.g. restoring from a non-backup file).
func NewStructuralMismatchError(expected, got string) *AppError {
	return &AppError{
		Code:    ErrCodeStructuralMismatch,
		Message: fmt.Sprintf("expected a %s document, got %s", expected, got),
		Status:  http.StatusUnprocessableEntity,
	}
}

// NewInternalError creates a new INTERNAL_ERROR
func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: "internal server error",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// NewBadRequestError creates a new BAD_REQUEST error
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeBadRequest,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

// NewConflictError is returned when an operation is not valid in the current
// state, such as answering a card that has not been revealed.
func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeConflict,
		Message: message,
		Status:  http.StatusConflict,
	}
}

// As extracts an *AppError from anywhere in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

func IsNotFound(err error) bool   { return HasCode(err, ErrCodeNotFound) }
func IsValidation(err error) bool { return HasCode(err, ErrCodeValidation) }
