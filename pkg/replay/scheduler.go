// Package replay schedules gestures onto a device with recorded timing.
//
// A run is strictly sequential: wait, dispatch, optionally verify, repeat.
// Only the waits observe context cancellation. A command already handed to
// the device is allowed to finish so the target is never left mid-gesture.
package replay

import (
	"context"
	"time"

	"github.com/devicelab-dev/touch-replay/pkg/core"
	"github.com/devicelab-dev/touch-replay/pkg/gesture"
	"github.com/devicelab-dev/touch-replay/pkg/logger"
)

// Dispatcher sends gesture commands to the device. A non-nil error means the
// device reported failure.
type Dispatcher interface {
	Tap(x, y int) error
	Swipe(x1, y1, x2, y2 int, duration time.Duration) error
}

// Verifier captures evidence of the device state after a step.
type Verifier interface {
	Capture(ctx context.Context, step int, at time.Time) ([]core.Attachment, error)
}

// StepHook is called before the wait of each step.
type StepHook func(step int, g gesture.Gesture, delay time.Duration)

// Scheduler replays gestures through a Dispatcher.
type Scheduler struct {
	Dispatcher Dispatcher
	Verifier   Verifier // nil disables verification
	Timing     Timing
	OnStep     StepHook

	// OnDispatch runs after each successful dispatch with the command text.
	OnDispatch func(step int, g gesture.Gesture, command string)

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// NewScheduler creates a scheduler using the wall clock.
func NewScheduler(d Dispatcher, timing Timing) *Scheduler {
	return &Scheduler{
		Dispatcher: d,
		Timing:     timing,
		sleep:      sleepContext,
		now:        time.Now,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Run replays gestures in order. The first dispatch or verification failure
// stops the run; remaining steps are marked skipped and the error returned.
// An empty sequence passes with no dispatch.
func (s *Scheduler) Run(ctx context.Context, gestures []gesture.Gesture) (*core.RunResult, error) {
	if err := s.Timing.Validate(); err != nil {
		return nil, err
	}
	if s.sleep == nil {
		s.sleep = sleepContext
	}
	if s.now == nil {
		s.now = time.Now
	}

	result := &core.RunResult{
		Status:    core.StatusRunning,
		StartTime: s.now(),
		Steps:     make([]core.StepResult, len(gestures)),
	}
	for i, g := range gestures {
		result.Steps[i] = core.StepResult{
			Index:   i + 1,
			Label:   g.Label,
			Kind:    string(g.Kind),
			Command: Describe(g, s.Timing),
			Status:  core.StatusPending,
		}
	}

	if len(gestures) == 0 {
		logger.LogInfo("replay").Msg("no replayable steps")
		return s.finish(result, nil), nil
	}

	var prev *gesture.Gesture
	for i := range gestures {
		g := gestures[i]
		step := &result.Steps[i]

		delay := s.Timing.Delay(prev, g)
		step.Delay = delay
		step.Status = core.StatusRunning
		if s.OnStep != nil {
			s.OnStep(step.Index, g, delay)
		}

		if delay > 0 {
			if err := s.sleep(ctx, delay); err != nil {
				logger.LogWarn("replay").Int("step", step.Index).Err(err).Msg("replay interrupted while waiting")
				skipFrom(result, i)
				return s.finish(result, err), err
			}
		} else if err := ctx.Err(); err != nil {
			skipFrom(result, i)
			return s.finish(result, err), err
		}

		step.StartTime = s.now()
		err := s.dispatch(g)
		step.Duration = s.now().Sub(step.StartTime)
		if err != nil {
			execErr := core.ErrDispatchFailure.WithCause(err).
				WithDetails(map[string]interface{}{"step": step.Index, "label": g.Label, "command": step.Command})
			failStep(step, execErr)
			skipFrom(result, i+1)
			logger.LogError("replay").Int("step", step.Index).Str("label", g.Label).Err(err).Msg("dispatch failed")
			return s.finish(result, execErr), execErr
		}
		logger.LogInfo("replay").Int("step", step.Index).Str("label", g.Label).Str("command", step.Command).Msg("dispatched")
		if s.OnDispatch != nil {
			s.OnDispatch(step.Index, g, step.Command)
		}

		if s.Verifier != nil {
			attachments, err := s.Verifier.Capture(ctx, step.Index, s.now())
			step.Attachments = attachments
			if err != nil {
				execErr := core.ErrVerificationFailed.WithCause(err).
					WithDetails(map[string]interface{}{"step": step.Index, "label": g.Label})
				failStep(step, execErr)
				skipFrom(result, i+1)
				logger.LogError("replay").Int("step", step.Index).Err(err).Msg("verification capture failed")
				return s.finish(result, execErr), execErr
			}
		}

		step.Status = core.StatusPassed
		prev = &gestures[i]
	}

	return s.finish(result, nil), nil
}

func (s *Scheduler) dispatch(g gesture.Gesture) error {
	if g.Kind == gesture.KindTap {
		return s.Dispatcher.Tap(g.Start.X, g.Start.Y)
	}
	return s.Dispatcher.Swipe(g.Start.X, g.Start.Y, g.End.X, g.End.Y, s.Timing.SwipeDuration(g))
}

func (s *Scheduler) finish(result *core.RunResult, err error) *core.RunResult {
	result.Duration = s.now().Sub(result.StartTime)
	if err != nil {
		result.Status = core.StatusFailed
		result.Error = err.Error()
		return result
	}
	result.Status = core.StatusPassed
	return result
}

func failStep(step *core.StepResult, err *core.ExecutionError) {
	step.Status = core.StatusFailed
	step.Category = err.Category
	step.Error = err.Error()
}

func skipFrom(result *core.RunResult, from int) {
	for i := from; i < len(result.Steps); i++ {
		result.Steps[i].Status = core.StatusSkipped
	}
}
