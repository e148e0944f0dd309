package device

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/devicelab-dev/touch-replay/pkg/core"
	"github.com/devicelab-dev/touch-replay/pkg/logger"
)

// VerifyMode selects what is captured after each replayed step.
type VerifyMode string

// VerifyMode values.
const (
	VerifyNone       VerifyMode = "none"
	VerifyUI         VerifyMode = "ui"
	VerifyScreenshot VerifyMode = "screenshot"
	VerifyBoth       VerifyMode = "both"
)

// ParseVerifyMode parses a mode name. Empty means none.
func ParseVerifyMode(s string) (VerifyMode, error) {
	switch m := VerifyMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return VerifyNone, nil
	case VerifyNone, VerifyUI, VerifyScreenshot, VerifyBoth:
		return m, nil
	default:
		return "", core.ErrInvalidConfig.WithMessage(
			fmt.Sprintf("unknown verify mode %q (expected none, ui, screenshot or both)", s))
	}
}

// Enabled reports whether anything is captured.
func (m VerifyMode) Enabled() bool { return m == VerifyUI || m == VerifyScreenshot || m == VerifyBoth }

// UI reports whether a hierarchy dump is captured.
func (m VerifyMode) UI() bool { return m == VerifyUI || m == VerifyBoth }

// Screenshot reports whether a screenshot is captured.
func (m VerifyMode) Screenshot() bool { return m == VerifyScreenshot || m == VerifyBoth }

// Capturer is the part of a device used for verification.
type Capturer interface {
	DumpUI(local string) error
	Screenshot(local string) error
}

// Verifier writes step<NNN>-<YYYYmmdd-HHMMSS>.{xml,png} into Dir after each step.
type Verifier struct {
	Device Capturer
	Mode   VerifyMode
	Dir    string
}

// CaptureName returns the file prefix for a step captured at at.
func CaptureName(step int, at time.Time) string {
	return fmt.Sprintf("step%03d-%s", step, at.Format("20060102-150405"))
}

// Capture records the device state for step. Attachments already written
// are returned even when a later capture fails.
func (v *Verifier) Capture(ctx context.Context, step int, at time.Time) ([]core.Attachment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(v.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create verify directory: %w", err)
	}

	base := filepath.Join(v.Dir, CaptureName(step, at))
	var attachments []core.Attachment

	if v.Mode.UI() {
		path := base + ".xml"
		if err := v.Device.DumpUI(path); err != nil {
			return attachments, err
		}
		attachments = append(attachments, core.NewHierarchyAttachment(path, nil))
	}

	if v.Mode.Screenshot() {
		path := base + ".png"
		if err := v.Device.Screenshot(path); err != nil {
			return attachments, err
		}
		attachments = append(attachments, core.NewScreenshotAttachment(path, nil))
	}

	logger.LogDebug("device").Int("step", step).Int("files", len(attachments)).Str("dir", v.Dir).Msg("verification captured")
	return attachments, nil
}
