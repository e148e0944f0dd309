package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestExecutionError_Error(t *testing.T) {
	err := &ExecutionError{
		Category: ErrCategoryLog,
		Code:     "test_error",
		Message:  "test message",
	}

	if got := err.Error(); got != "test message" {
		t.Errorf("Error() = %q, want %q", got, "test message")
	}
}

func TestExecutionError_ErrorWithCause(t *testing.T) {
	cause := errors.New("underlying error")
	err := &ExecutionError{
		Category: ErrCategoryDispatch,
		Code:     "test_error",
		Message:  "test message",
		Cause:    cause,
	}

	got := err.Error()
	if !strings.Contains(got, "test message") {
		t.Errorf("Error() = %q, should contain 'test message'", got)
	}
	if !strings.Contains(got, "underlying error") {
		t.Errorf("Error() = %q, should contain 'underlying error'", got)
	}
}

func TestExecutionError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &ExecutionError{
		Message: "wrapper",
		Cause:   cause,
	}

	if got := err.Unwrap(); got != cause {
		t.Errorf("Unwrap() = %v, want %v", got, cause)
	}
}

func TestExecutionError_WithCause(t *testing.T) {
	original := ErrDispatchFailure
	cause := errors.New("adb: exit status 1")

	newErr := original.WithCause(cause)

	if newErr.Cause != cause {
		t.Error("WithCause() did not set cause")
	}
	if newErr.Code != original.Code {
		t.Errorf("Code = %s, want %s", newErr.Code, original.Code)
	}
	if original.Cause != nil {
		t.Error("WithCause() modified the sentinel")
	}
}

func TestExecutionError_WithMessage(t *testing.T) {
	newErr := ErrUnresolvedElement.WithMessage("element not found (resource-id='x')")

	if newErr.Message != "element not found (resource-id='x')" {
		t.Errorf("Message = %q", newErr.Message)
	}
	if newErr.Category != ErrCategoryLookup {
		t.Errorf("Category = %v, want lookup", newErr.Category)
	}
	if ErrUnresolvedElement.Message == newErr.Message {
		t.Error("WithMessage() modified the sentinel")
	}
}

func TestExecutionError_WithDetails(t *testing.T) {
	first := ErrMalformedLog.WithDetails(map[string]interface{}{"record": 3})
	second := first.WithDetails(map[string]interface{}{"field": "x"})

	if second.Details["record"] != 3 {
		t.Errorf("Details[record] = %v, want 3", second.Details["record"])
	}
	if second.Details["field"] != "x" {
		t.Errorf("Details[field] = %v, want x", second.Details["field"])
	}
	if _, ok := first.Details["field"]; ok {
		t.Error("WithDetails() mutated the receiver's details")
	}
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		err      *ExecutionError
		category ErrorCategory
		code     string
	}{
		{ErrMalformedLog, ErrCategoryLog, "malformed_log"},
		{ErrMixedLogKinds, ErrCategoryLog, "mixed_log_kinds"},
		{ErrMissingUISnapshot, ErrCategorySnapshot, "missing_ui_snapshot"},
		{ErrInvalidUISnapshot, ErrCategorySnapshot, "invalid_ui_snapshot"},
		{ErrUnresolvedElement, ErrCategoryLookup, "unresolved_element"},
		{ErrDispatchFailure, ErrCategoryDispatch, "dispatch_failure"},
		{ErrVerificationFailed, ErrCategoryDispatch, "verification_failed"},
		{ErrDeviceNotFound, ErrCategoryConnection, "device_not_found"},
		{ErrInvalidConfig, ErrCategoryConfig, "invalid_config"},
	}

	for _, tt := range tests {
		if tt.err.Category != tt.category {
			t.Errorf("%s: Category = %v, want %v", tt.code, tt.err.Category, tt.category)
		}
		if tt.err.Code != tt.code {
			t.Errorf("Code = %q, want %q", tt.err.Code, tt.code)
		}
		if tt.err.Message == "" {
			t.Errorf("%s: empty message", tt.code)
		}
	}
}

func TestNewExecutionError(t *testing.T) {
	err := NewExecutionError(ErrCategoryConfig, "bad_speed", "speed must be positive")

	if err.Category != ErrCategoryConfig {
		t.Errorf("Category = %v, want config", err.Category)
	}
	if err.Code != "bad_speed" {
		t.Errorf("Code = %q, want bad_speed", err.Code)
	}
	if err.Error() != "speed must be positive" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestExecutionError_ErrorsIs(t *testing.T) {
	derived := ErrMixedLogKinds.WithDetails(map[string]interface{}{"record": 1})
	wrapped := fmt.Errorf("loading log: %w", derived)

	if !errors.Is(wrapped, ErrMixedLogKinds) {
		t.Error("errors.Is should match a derived copy of the sentinel")
	}
	if errors.Is(wrapped, ErrMalformedLog) {
		t.Error("errors.Is should not match a different code")
	}

	cause := errors.New("exit status 1")
	dispatch := ErrDispatchFailure.WithCause(cause)
	if !errors.Is(dispatch, cause) {
		t.Error("errors.Is should reach the cause through Unwrap")
	}

	var execErr *ExecutionError
	if !errors.As(wrapped, &execErr) {
		t.Fatal("errors.As should find ExecutionError")
	}
	if execErr.Details["record"] != 1 {
		t.Errorf("Details[record] = %v, want 1", execErr.Details["record"])
	}
}
