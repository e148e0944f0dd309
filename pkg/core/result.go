package core

import (
	"time"
)

// StepResult captures the outcome of dispatching a single gesture
type StepResult struct {
	// Identity
	Index   int    `json:"index"`   // 1-based position in the replay
	Label   string `json:"label"`   // touch-N or element-N
	Kind    string `json:"kind"`    // tap or swipe
	Command string `json:"command"` // Command line sent to the device

	// Status
	Status   StepStatus    `json:"status"`
	Category ErrorCategory `json:"errorCategory,omitempty"`

	// Timing
	Delay     time.Duration `json:"delay"` // Wait applied before dispatch
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	// Error Details
	Error string `json:"error,omitempty"`

	// Verification artifacts
	Attachments []Attachment `json:"attachments,omitempty"`
}

// RunResult captures the outcome of a whole replay run
type RunResult struct {
	Status    StepStatus    `json:"status"`
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`
	Steps     []StepResult  `json:"steps"`
	Error     string        `json:"error,omitempty"`
}

// Passed returns the number of steps that passed
func (r *RunResult) Passed() int {
	return r.count(StatusPassed)
}

// Failed returns the number of steps that failed
func (r *RunResult) Failed() int {
	return r.count(StatusFailed)
}

// Skipped returns the number of steps that were never reached
func (r *RunResult) Skipped() int {
	return r.count(StatusSkipped)
}

func (r *RunResult) count(status StepStatus) int {
	n := 0
	for _, s := range r.Steps {
		if s.Status == status {
			n++
		}
	}
	return n
}
