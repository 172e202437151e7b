package errors

import (
	"fmt"
)

// FathomError is the structured error type used at package boundaries.
// It carries a stable code plus classification metadata for logging and
// user presentation.
type FathomError struct {
	// Code is the unique error code (e.g., "ERR_201_FILE_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Network, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool
}

// Error implements the error interface.
func (e *FathomError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *FathomError) Unwrap() error {
	return e.Cause
}

// Is matches errors by code, enabling errors.Is with sentinel instances.
func (e *FathomError) Is(target error) bool {
	if t, ok := target.(*FathomError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *FathomError) WithDetail(key, value string) *FathomError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new FathomError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *FathomError {
	return &FathomError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a FathomError from an existing error.
// The error's message becomes the FathomError message.
func Wrap(code string, err error) *FathomError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *FathomError {
	return New(ErrCodeInvalidInput, message, cause)
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if fe, ok := err.(*FathomError); ok {
		return fe.Retryable
	}
	return false
}

// GetCode extracts the error code from a FathomError.
// Returns empty string if not a FathomError.
func GetCode(err error) string {
	if fe, ok := err.(*FathomError); ok {
		return fe.Code
	}
	return ""
}
