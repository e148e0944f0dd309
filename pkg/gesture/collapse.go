package gesture

import (
	"fmt"
	"sort"

	"github.com/devicelab-dev/touch-replay/pkg/core"
	"github.com/devicelab-dev/touch-replay/pkg/touch"
)

// LabelPrefix prefixes the ordinal label of collapsed gestures.
const LabelPrefix = "touch"

// Collapser buffers the samples of the current physical touch and emits a
// gesture whenever that touch completes.
type Collapser struct {
	buffer   []touch.Sample
	gestures []Gesture
}

// Add feeds one sample. Samples must arrive in timestamp order.
// A down while a touch is buffered closes the buffered touch first;
// an up always closes the current touch.
func (c *Collapser) Add(s touch.Sample) {
	if s.Action == touch.ActionDown && len(c.buffer) > 0 {
		c.flush()
	}
	c.buffer = append(c.buffer, s)
	if s.Action == touch.ActionUp {
		c.flush()
	}
}

// Flush closes any buffered touch and returns all gestures so far.
func (c *Collapser) Flush() []Gesture {
	c.flush()
	out := make([]Gesture, len(c.gestures))
	copy(out, c.gestures)
	return out
}

func (c *Collapser) flush() {
	if len(c.buffer) == 0 {
		return
	}

	first := c.buffer[0]
	last := c.buffer[len(c.buffer)-1]
	start := core.Point{X: first.X, Y: first.Y}
	end := core.Point{X: last.X, Y: last.Y}
	label := fmt.Sprintf("%s-%d", LabelPrefix, len(c.gestures)+1)

	var g Gesture
	switch {
	case len(c.buffer) == 1:
		g = Tap(start, first.Timestamp, first.Timestamp, label)
	case pressRelease(c.buffer):
		// Bare down/up at one point: a tap spanning the press.
		g = Tap(start, first.Timestamp, last.Timestamp, label)
	default:
		g = Swipe(start, end, first.Timestamp, last.Timestamp, label)
	}

	c.gestures = append(c.gestures, g)
	c.buffer = c.buffer[:0]
}

// pressRelease reports a two-sample down/up run that never moved. Longer
// stationary runs stay swipes so the hold time reaches the device.
func pressRelease(samples []touch.Sample) bool {
	if len(samples) != 2 {
		return false
	}
	down, up := samples[0], samples[1]
	return down.Action == touch.ActionDown && up.Action == touch.ActionUp &&
		down.X == up.X && down.Y == up.Y
}

// Collapse sorts samples by timestamp (stable on ties) and converts them
// into gestures. The input slice is not modified.
func Collapse(samples []touch.Sample) []Gesture {
	sorted := make([]touch.Sample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	var c Collapser
	for _, s := range sorted {
		c.Add(s)
	}
	return c.Flush()
}
