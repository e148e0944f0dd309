// Package gesture collapses touch samples into tap and swipe gestures.
package gesture

import (
	"fmt"

	"github.com/devicelab-dev/touch-replay/pkg/core"
)

// Kind is the gesture type dispatched to the device.
type Kind string

// Kind values.
const (
	KindTap   Kind = "tap"
	KindSwipe Kind = "swipe"
)

// Gesture is one dispatchable action. Taps have Start == End.
// A swipe is the straight line between its first and last touch point.
type Gesture struct {
	Kind    Kind       `json:"kind"`
	Start   core.Point `json:"start"`
	End     core.Point `json:"end"`
	StartTS float64    `json:"startTs"` // seconds
	EndTS   float64    `json:"endTs"`   // seconds
	Label   string     `json:"label"`
}

// Tap builds a tap gesture at p.
func Tap(p core.Point, startTS, endTS float64, label string) Gesture {
	return Gesture{Kind: KindTap, Start: p, End: p, StartTS: startTS, EndTS: endTS, Label: label}
}

// Swipe builds a swipe gesture from start to end.
func Swipe(start, end core.Point, startTS, endTS float64, label string) Gesture {
	return Gesture{Kind: KindSwipe, Start: start, End: end, StartTS: startTS, EndTS: endTS, Label: label}
}

// Duration returns the recorded gesture length in seconds.
func (g Gesture) Duration() float64 {
	return g.EndTS - g.StartTS
}

// String renders the gesture for progress output.
func (g Gesture) String() string {
	if g.Kind == KindTap {
		return fmt.Sprintf("%s: tap %s @%.3fs", g.Label, g.Start, g.StartTS)
	}
	return fmt.Sprintf("%s: swipe %s -> %s @%.3fs (%.3fs)", g.Label, g.Start, g.End, g.StartTS, g.Duration())
}
