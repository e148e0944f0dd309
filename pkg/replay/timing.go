package replay

import (
	"fmt"
	"math"
	"time"

	"github.com/devicelab-dev/touch-replay/pkg/core"
	"github.com/devicelab-dev/touch-replay/pkg/gesture"
)

// Timing is the inter-step timing policy.
type Timing struct {
	// Speed divides recorded gaps and swipe durations. 2.0 replays twice as fast.
	Speed float64

	// FixedDelay, when set, replaces recorded gaps with a constant wait
	// before every step. Negative values wait zero.
	FixedDelay *time.Duration
}

// DefaultTiming replays at recorded speed.
func DefaultTiming() Timing {
	return Timing{Speed: 1.0}
}

// Validate rejects a non-positive speed.
func (t Timing) Validate() error {
	if !(t.Speed > 0) || math.IsInf(t.Speed, 0) {
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("speed must be a positive number, got %v", t.Speed))
	}
	return nil
}

// Delay returns the wait before next. prev is nil for the first step.
func (t Timing) Delay(prev *gesture.Gesture, next gesture.Gesture) time.Duration {
	if t.FixedDelay != nil {
		if *t.FixedDelay < 0 {
			return 0
		}
		return *t.FixedDelay
	}
	if prev == nil {
		return 0
	}
	gap := next.StartTS - prev.EndTS
	if gap <= 0 {
		return 0
	}
	return seconds(gap / t.Speed)
}

// SwipeDuration returns the dispatched length of a swipe, never below 1ms.
// Taps are not scaled by speed.
func (t Timing) SwipeDuration(g gesture.Gesture) time.Duration {
	ms := math.Round(g.Duration() * 1000 / t.Speed)
	if ms < 1 || math.IsNaN(ms) {
		ms = 1
	}
	return time.Duration(ms) * time.Millisecond
}

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
