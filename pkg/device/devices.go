package device

import (
	"fmt"
	"strings"
)

// Entry is one line of `adb devices`.
type Entry struct {
	Serial string `json:"serial"`
	State  string `json:"state"` // device, offline, unauthorized, ...
}

// NoDevicesError is returned when no usable device is attached.
type NoDevicesError struct {
	Message     string
	Attached    []Entry // devices seen in a non-usable state
	Suggestions []string
}

func (e *NoDevicesError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)

	if len(e.Attached) > 0 {
		sb.WriteString("\n\nAttached but not ready:")
		for _, a := range e.Attached {
			fmt.Fprintf(&sb, "\n  %s (%s)", a.Serial, a.State)
		}
	}

	if len(e.Suggestions) > 0 {
		sb.WriteString("\n\nOptions:")
		for _, s := range e.Suggestions {
			sb.WriteString("\n  - ")
			sb.WriteString(s)
		}
	}
	return sb.String()
}

func buildNoDevicesError(entries []Entry) *NoDevicesError {
	err := &NoDevicesError{
		Message: "No Android devices found",
		Suggestions: []string{
			"Connect a device via USB and enable USB debugging",
			"Connect over the network: adb connect <ip>:<port>",
			"Select a device explicitly with --device <serial>",
		},
	}
	for _, e := range entries {
		if e.State == "unauthorized" {
			err.Suggestions = append([]string{"Accept the USB debugging prompt on " + e.Serial}, err.Suggestions...)
		}
		err.Attached = append(err.Attached, e)
	}
	return err
}

// ListDevices returns every device adb knows about, in any state.
func ListDevices() ([]Entry, error) {
	adbPath, err := findADB()
	if err != nil {
		return nil, err
	}
	return listDevices(execRun, adbPath)
}

func listDevices(run RunFunc, adbPath string) ([]Entry, error) {
	stdout, stderr, err := run(adbPath, "devices")
	if err != nil {
		return nil, fmt.Errorf("adb devices: %w: %s", err, strings.TrimSpace(stderr))
	}
	return parseDevices(stdout), nil
}

func parseDevices(out string) []Entry {
	var entries []Entry
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "List of") || strings.HasPrefix(line, "*") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		entries = append(entries, Entry{Serial: parts[0], State: parts[1]})
	}
	return entries
}
