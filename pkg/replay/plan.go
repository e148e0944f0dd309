package replay

import (
	"fmt"
	"sort"

	"github.com/devicelab-dev/touch-replay/pkg/core"
	"github.com/devicelab-dev/touch-replay/pkg/gesture"
	"github.com/devicelab-dev/touch-replay/pkg/logger"
	"github.com/devicelab-dev/touch-replay/pkg/touchlog"
	"github.com/devicelab-dev/touch-replay/pkg/uiindex"
)

// ElementLabelPrefix prefixes the ordinal label of element steps.
const ElementLabelPrefix = "element"

// Prepared is a replay ready to schedule. Every element reference in it has
// already been resolved.
type Prepared struct {
	Kind         touchlog.Kind
	Gestures     []gesture.Gesture
	SnapshotPath string // set for element logs
}

// Plan turns a loaded log into gestures. Element logs resolve their
// snapshot from uiSource (file, or newest *.json in a directory).
// All failures here happen before any device interaction.
func Plan(l *touchlog.Log, uiSource string) (*Prepared, error) {
	p := &Prepared{Kind: l.Kind, Gestures: []gesture.Gesture{}}

	switch l.Kind {
	case touchlog.KindTouch:
		p.Gestures = gesture.Collapse(l.Samples)

	case touchlog.KindElement:
		path, err := uiindex.ResolveSource(uiSource)
		if err != nil {
			return nil, core.ErrMissingUISnapshot.WithCause(err)
		}
		if path == "" {
			return nil, core.ErrMissingUISnapshot.
				WithDetails(map[string]interface{}{"ui_source": uiSource})
		}
		snapshot, err := uiindex.Load(path)
		if err != nil {
			return nil, err
		}
		gestures, err := FromElements(l.Elements, snapshot)
		if err != nil {
			return nil, err
		}
		p.Gestures = gestures
		p.SnapshotPath = path
	}

	logger.LogInfo("replay").
		Str("kind", p.Kind.String()).
		Int("steps", len(p.Gestures)).
		Str("snapshot", p.SnapshotPath).
		Msg("replay planned")
	return p, nil
}

// FromElements resolves element actions to taps, ordered by timestamp.
// The first unresolved reference fails the whole list.
func FromElements(actions []touchlog.ElementAction, snapshot *uiindex.Snapshot) ([]gesture.Gesture, error) {
	sorted := make([]touchlog.ElementAction, len(actions))
	copy(sorted, actions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	gestures := make([]gesture.Gesture, 0, len(sorted))
	for i, a := range sorted {
		p, err := snapshot.Resolve(a.ResourceID, a.Text)
		if err != nil {
			return nil, err
		}
		label := fmt.Sprintf("%s-%d", ElementLabelPrefix, i+1)
		gestures = append(gestures, gesture.Tap(p, a.Timestamp, a.Timestamp, label))
	}
	return gestures, nil
}

// Describe renders the device command a gesture dispatches as.
func Describe(g gesture.Gesture, t Timing) string {
	if g.Kind == gesture.KindTap {
		return fmt.Sprintf("input tap %d %d", g.Start.X, g.Start.Y)
	}
	return fmt.Sprintf("input swipe %d %d %d %d %d",
		g.Start.X, g.Start.Y, g.End.X, g.End.Y, t.SwipeDuration(g).Milliseconds())
}
