// Package report writes the JSON run report of a replay.
//
// One report.json describes one run: the device, the log and snapshot it
// replayed, the timing policy, and every step with its command, wait,
// outcome and verification files.
package report

import (
	"time"

	"github.com/devicelab-dev/touch-replay/pkg/core"
)

// Version is the report schema version.
const Version = "1.0.0"

// Status represents the execution status.
type Status string

// Status values.
const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// IsTerminal returns true if the status is a final state.
func (s Status) IsTerminal() bool {
	return s == StatusPassed || s == StatusFailed || s == StatusSkipped
}

// StatusOf maps a step status to its report form.
func StatusOf(s core.StepStatus) Status {
	switch s {
	case core.StatusRunning:
		return StatusRunning
	case core.StatusPassed:
		return StatusPassed
	case core.StatusFailed:
		return StatusFailed
	case core.StatusSkipped:
		return StatusSkipped
	default:
		return StatusPending
	}
}

// Report is the content of report.json.
type Report struct {
	Version   string     `json:"version"`
	RunID     string     `json:"runId"`
	Status    Status     `json:"status"`
	DryRun    bool       `json:"dryRun,omitempty"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	Duration  int64      `json:"duration"` // milliseconds
	Device    Device     `json:"device"`
	Log       LogInfo    `json:"log"`
	Timing    Timing     `json:"timing"`
	Summary   Summary    `json:"summary"`
	Steps     []Step     `json:"steps"`
	Error     *string    `json:"error,omitempty"`
}

// Device contains device information.
type Device struct {
	Serial     string `json:"serial"`
	Model      string `json:"model,omitempty"`
	Brand      string `json:"brand,omitempty"`
	SDK        string `json:"sdk,omitempty"`
	IsEmulator bool   `json:"isEmulator"`
}

// LogInfo describes the replayed input.
type LogInfo struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"` // touch, element, empty
	Snapshot string `json:"snapshot,omitempty"`
}

// Timing records the timing and verification policy of the run.
type Timing struct {
	Speed        float64 `json:"speed"`
	FixedDelayMs *int64  `json:"fixedDelayMs,omitempty"`
	Verify       string  `json:"verify"`
	VerifyDir    string  `json:"verifyDir,omitempty"`
}

// Summary contains aggregated counts.
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	Pending int `json:"pending"`
}

// Step is one replayed gesture.
type Step struct {
	Index         int          `json:"index"`
	Label         string       `json:"label"`
	Kind          string       `json:"kind"`
	Command       string       `json:"command"`
	Status        Status       `json:"status"`
	DelayMs       int64        `json:"delayMs"`
	StartTime     *time.Time   `json:"startTime,omitempty"`
	DurationMs    int64        `json:"durationMs"`
	Error         *string      `json:"error,omitempty"`
	ErrorCategory string       `json:"errorCategory,omitempty"`
	Attachments   []Attachment `json:"attachments,omitempty"`
}

// Attachment is a verification file written for a step.
type Attachment struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Path        string `json:"path"`
}
