package core

// StepStatus represents the execution status of a replay step
type StepStatus int

const (
	StatusPending StepStatus = iota // Not yet dispatched
	StatusRunning                   // Waiting or dispatching
	StatusPassed                    // Dispatched (and verified, when enabled)
	StatusFailed                    // Dispatch or verification failed
	StatusSkipped                   // Not reached because the run aborted
)

// String returns the string representation of StepStatus
func (s StepStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// IsTerminal returns true if the status is a final state
func (s StepStatus) IsTerminal() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusSkipped:
		return true
	default:
		return false
	}
}

// IsSuccess returns true if the status indicates success
func (s StepStatus) IsSuccess() bool {
	return s == StatusPassed
}

// ErrorCategory classifies the type of error for reporting
type ErrorCategory int

const (
	ErrCategoryNone       ErrorCategory = iota // No error
	ErrCategoryLog                             // Log file unreadable, malformed or mixed
	ErrCategorySnapshot                        // UI snapshot missing or invalid
	ErrCategoryLookup                          // Element reference did not resolve
	ErrCategoryDispatch                        // Device rejected a command
	ErrCategoryConnection                      // Device/adb unavailable
	ErrCategoryConfig                          // Invalid configuration
)

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryLog:
		return "log"
	case ErrCategorySnapshot:
		return "snapshot"
	case ErrCategoryLookup:
		return "lookup"
	case ErrCategoryDispatch:
		return "dispatch"
	case ErrCategoryConnection:
		return "connection"
	case ErrCategoryConfig:
		return "config"
	default:
		return "unknown"
	}
}
