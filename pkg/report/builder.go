package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/devicelab-dev/touch-replay/pkg/core"
)

// Meta is the run context that is not part of the step results.
type Meta struct {
	RunID     string // generated when empty
	DryRun    bool
	Device    Device
	Log       LogInfo
	Speed     float64
	Fixed     *time.Duration
	Verify    string
	VerifyDir string
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.New().String()
}

// Build converts a run result into a report.
func Build(result *core.RunResult, meta Meta) *Report {
	runID := meta.RunID
	if runID == "" {
		runID = NewRunID()
	}

	r := &Report{
		Version:   Version,
		RunID:     runID,
		Status:    StatusOf(result.Status),
		DryRun:    meta.DryRun,
		StartTime: result.StartTime,
		Duration:  result.Duration.Milliseconds(),
		Device:    meta.Device,
		Log:       meta.Log,
		Timing: Timing{
			Speed:     meta.Speed,
			Verify:    meta.Verify,
			VerifyDir: meta.VerifyDir,
		},
		Steps: make([]Step, 0, len(result.Steps)),
	}
	if meta.Fixed != nil {
		ms := meta.Fixed.Milliseconds()
		r.Timing.FixedDelayMs = &ms
	}
	if r.Status.IsTerminal() {
		end := result.StartTime.Add(result.Duration)
		r.EndTime = &end
	}
	if result.Error != "" {
		msg := result.Error
		r.Error = &msg
	}

	for _, s := range result.Steps {
		step := Step{
			Index:      s.Index,
			Label:      s.Label,
			Kind:       s.Kind,
			Command:    s.Command,
			Status:     StatusOf(s.Status),
			DelayMs:    s.Delay.Milliseconds(),
			DurationMs: s.Duration.Milliseconds(),
		}
		if !s.StartTime.IsZero() {
			start := s.StartTime
			step.StartTime = &start
		}
		if s.Error != "" {
			msg := s.Error
			step.Error = &msg
			step.ErrorCategory = s.Category.String()
		}
		for _, a := range s.Attachments {
			step.Attachments = append(step.Attachments, Attachment{Name: a.Name, ContentType: a.ContentType, Path: a.Path})
		}
		r.Steps = append(r.Steps, step)

		r.Summary.Total++
		switch step.Status {
		case StatusPassed:
			r.Summary.Passed++
		case StatusFailed:
			r.Summary.Failed++
		case StatusSkipped:
			r.Summary.Skipped++
		default:
			r.Summary.Pending++
		}
	}
	return r
}

// Write saves the report to path atomically, creating the parent directory.
func Write(path string, r *Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	return atomicWriteJSON(path, r)
}

// Read loads a report file.
func Read(path string) (*Report, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- report path from the caller
	if err != nil {
		return nil, err
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("invalid report %s: %w", path, err)
	}
	return &r, nil
}

// atomicWriteJSON writes v to a temp file next to path and renames it into
// place, so readers never see a partial report.
func atomicWriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
