// Package recerrors provides sentinel and custom error types for the application.
package recerrors

import "strconv"

// ErrConfiguration is the sentinel for configuration errors.
// Use when a request names an unknown embedding space or score-metric version.
var ErrConfiguration = &ConfigurationError{}

// ConfigurationError is a sentinel error for bad or unknown configuration values.
// It is fatal to the call and must not be retried.
type ConfigurationError struct {
	Setting string
	Message string
}

// NewConfigurationError creates a ConfigurationError for the given setting.
func NewConfigurationError(setting, message string) *ConfigurationError {
	return &ConfigurationError{
		Setting: setting,
		Message: message,
	}
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Setting != "" {
		return "invalid configuration: " + e.Setting
	}

	return "configuration error"
}

// Is implements the error interface for error comparison.
func (e *ConfigurationError) Is(target error) bool {
	_, ok := target.(*ConfigurationError)

	return ok
}

// ErrDimensionalityMismatch is the sentinel for vector length mismatches.
var ErrDimensionalityMismatch = &DimensionalityMismatchError{}

// DimensionalityMismatchError is returned when a query vector's length does not
// equal the embedding space's declared dimensionality. It indicates a caller or
// configuration bug; fatal, never retried, never silently truncated or padded.
type DimensionalityMismatchError struct {
	Space string
	Want  int
	Got   int
}

// NewDimensionalityMismatchError creates a DimensionalityMismatchError.
func NewDimensionalityMismatchError(space string, want, got int) *DimensionalityMismatchError {
	return &DimensionalityMismatchError{Space: space, Want: want, Got: got}
}

// Error implements the error interface.
func (e *DimensionalityMismatchError) Error() string {
	if e.Space == "" && e.Want == 0 && e.Got == 0 {
		return "embedding dimensionality mismatch"
	}

	return "embedding dimensionality mismatch for space " + e.Space +
		": want " + strconv.Itoa(e.Want) + ", got " + strconv.Itoa(e.Got)
}

// Is implements the error interface for error comparison.
func (e *DimensionalityMismatchError) Is(target error) bool {
	_, ok := target.(*DimensionalityMismatchError)

	return ok
}

// ErrEmbeddingProvider is the sentinel for external embedding call failures.
var ErrEmbeddingProvider = &EmbeddingProviderError{}

// EmbeddingProviderError wraps a failure of the external embedding call
// (timeout, quota, malformed response). The pipeline surfaces it without
// retrying; the whole operation is idempotent, so callers may retry with backoff.
type EmbeddingProviderError struct {
	Model string
	Cause error
}

// NewEmbeddingProviderError creates an EmbeddingProviderError for the given model.
func NewEmbeddingProviderError(model string, cause error) *EmbeddingProviderError {
	return &EmbeddingProviderError{Model: model, Cause: cause}
}

// Error implements the error interface.
func (e *EmbeddingProviderError) Error() string {
	msg := "embedding provider error"
	if e.Model != "" {
		msg += " (" + e.Model + ")"
	}

	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}

	return msg
}

// Unwrap returns the underlying provider failure.
func (e *EmbeddingProviderError) Unwrap() error {
	return e.Cause
}

// Is implements the error interface for error comparison.
func (e *EmbeddingProviderError) Is(target error) bool {
	_, ok := target.(*EmbeddingProviderError)

	return ok
}

// ErrStore is the sentinel for store failures.
var ErrStore = &StoreError{}

// StoreError wraps an underlying store failure (connection, query).
// The ranking pipeline performs no writes, so nothing needs rolling back
// above the store's own locking.
type StoreError struct {
	Op    string
	Cause error
}

// NewStoreError creates a StoreError for the given operation.
func NewStoreError(op string, cause error) *StoreError {
	return &StoreError{Op: op, Cause: cause}
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	msg := "store error"
	if e.Op != "" {
		msg += ": " + e.Op
	}

	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}

	return msg
}

// Unwrap returns the underlying store failure.
func (e *StoreError) Unwrap() error {
	return e.Cause
}

// Is implements the error interface for error comparison.
func (e *StoreError) Is(target error) bool {
	_, ok := target.(*StoreError)

	return ok
}

// ErrValidation represents a validation error.
// Use when client input fails validation (e.g. page < 1).
var ErrValidation = &ValidationError{}

// ValidationError is a sentinel error for validation failures.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a new ValidationError with a custom message.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Field != "" {
		return "validation failed for field: " + e.Field
	}

	return "validation error"
}

// Is implements the error interface for error comparison.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)

	return ok
}
