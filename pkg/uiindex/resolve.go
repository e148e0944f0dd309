package uiindex

import (
	"fmt"

	"github.com/devicelab-dev/touch-replay/pkg/core"
)

// Resolve returns the center of the element identified by resourceID or
// text. Resource-id is tried first; text is used only when the id is empty
// or matches nothing.
//
// When several nodes share a key, the node with the smallest pre-order index
// wins. The minimum is taken explicitly so the result does not depend on how
// a stored lookup list happens to be ordered.
func (s *Snapshot) Resolve(resourceID, text string) (core.Point, error) {
	idx := -1
	if resourceID != "" {
		idx = firstIndex(s.Lookup.ByResourceID[resourceID])
	}
	if idx < 0 && text != "" {
		idx = firstIndex(s.Lookup.ByText[text])
	}

	details := map[string]interface{}{"resource_id": resourceID, "text": text}
	if idx < 0 || idx >= len(s.Nodes) {
		return core.Point{}, core.ErrUnresolvedElement.
			WithMessage(fmt.Sprintf("element not found in UI snapshot (resource-id=%q, text=%q)", resourceID, text)).
			WithDetails(details)
	}

	node := s.Nodes[idx]
	if node.Center == nil {
		details["node"] = idx
		return core.Point{}, core.ErrUnresolvedElement.
			WithMessage(fmt.Sprintf("element center is missing for node %d (resource-id=%q, text=%q); ensure bounds are present in UI snapshot", idx, resourceID, text)).
			WithDetails(details)
	}
	return *node.Center, nil
}

func firstIndex(indices []int) int {
	best := -1
	for _, i := range indices {
		if i >= 0 && (best < 0 || i < best) {
			best = i
		}
	}
	return best
}
