package core

import (
	"fmt"
)

// ExecutionError represents a structured error with category and details
type ExecutionError struct {
	Category ErrorCategory
	Code     string                 // Machine-readable code: mixed_log_kinds, unresolved_element, etc.
	Message  string                 // Human-readable message
	Details  map[string]interface{} // Additional context
	Cause    error                  // Underlying error
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an ExecutionError with the same code.
// Copies made through WithCause/WithMessage/WithDetails still match their sentinel.
func (e *ExecutionError) Is(target error) bool {
	t, ok := target.(*ExecutionError)
	if !ok || t == nil {
		return false
	}
	return e.Code != "" && e.Code == t.Code
}

// WithCause returns a copy of the error with the given cause
func (e *ExecutionError) WithCause(cause error) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  e.Details,
		Cause:    cause,
	}
}

// WithMessage returns a copy of the error with a custom message
func (e *ExecutionError) WithMessage(msg string) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  msg,
		Details:  e.Details,
		Cause:    e.Cause,
	}
}

// WithDetails returns a copy of the error with additional details
func (e *ExecutionError) WithDetails(details map[string]interface{}) *ExecutionError {
	merged := make(map[string]interface{})
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  merged,
		Cause:    e.Cause,
	}
}

// Predefined errors
var (
	// Log errors (pre-flight)
	ErrMalformedLog = &ExecutionError{
		Category: ErrCategoryLog,
		Code:     "malformed_log",
		Message:  "malformed log record",
	}
	ErrMixedLogKinds = &ExecutionError{
		Category: ErrCategoryLog,
		Code:     "mixed_log_kinds",
		Message:  "mixed touch and element entries are not supported in a single log",
	}

	// Snapshot errors (pre-flight)
	ErrMissingUISnapshot = &ExecutionError{
		Category: ErrCategorySnapshot,
		Code:     "missing_ui_snapshot",
		Message:  "UI snapshot not found; provide --ui-source pointing to a JSON file or directory",
	}
	ErrInvalidUISnapshot = &ExecutionError{
		Category: ErrCategorySnapshot,
		Code:     "invalid_ui_snapshot",
		Message:  "invalid UI snapshot",
	}

	// Lookup errors
	ErrUnresolvedElement = &ExecutionError{
		Category: ErrCategoryLookup,
		Code:     "unresolved_element",
		Message:  "element could not be resolved in UI snapshot",
	}

	// Dispatch errors
	ErrDispatchFailure = &ExecutionError{
		Category: ErrCategoryDispatch,
		Code:     "dispatch_failure",
		Message:  "device rejected gesture command",
	}
	ErrVerificationFailed = &ExecutionError{
		Category: ErrCategoryDispatch,
		Code:     "verification_failed",
		Message:  "verification capture failed",
	}

	// Connection errors
	ErrDeviceNotFound = &ExecutionError{
		Category: ErrCategoryConnection,
		Code:     "device_not_found",
		Message:  "device not found",
	}

	// Config errors
	ErrInvalidConfig = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "invalid_config",
		Message:  "invalid configuration",
	}
)

// NewExecutionError creates a new ExecutionError with the given parameters
func NewExecutionError(category ErrorCategory, code, message string) *ExecutionError {
	return &ExecutionError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}
