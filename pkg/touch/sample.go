// Package touch turns raw kernel input-event streams into touch samples.
//
// The input is the text produced by `getevent -lt`:
//
//	[   1234.567890] /dev/input/event2: EV_ABS       ABS_MT_POSITION_X    000001f4
//	[   1234.567890] /dev/input/event2: EV_SYN       SYN_REPORT           00000000
//
// Position updates between two SYN_REPORT markers become one sample.
package touch

import (
	"fmt"
	"strings"
)

// Action is the phase of a touch sample.
type Action string

// Action values.
const (
	ActionDown Action = "down"
	ActionMove Action = "move"
	ActionUp   Action = "up"
)

// ParseAction parses a case-insensitive action name.
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionDown, ActionMove, ActionUp:
		return a, nil
	default:
		return "", fmt.Errorf("unknown touch action %q", s)
	}
}

// Sample is one touch position report.
type Sample struct {
	Timestamp float64 `json:"timestamp"` // seconds, as reported by the kernel
	X         int     `json:"x"`
	Y         int     `json:"y"`
	Action    Action  `json:"action"`
}
