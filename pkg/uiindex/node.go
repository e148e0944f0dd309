package uiindex

import (
	"encoding/json"
	"regexp"
	"strconv"

	"github.com/devicelab-dev/touch-replay/pkg/core"
)

var boundsPattern = regexp.MustCompile(`^\[(\d+),(\d+)\]\[(\d+),(\d+)\]$`)

// Rect is an element rectangle in "[x1,y1][x2,y2]" form.
type Rect struct {
	X1, Y1, X2, Y2 int
}

// Center returns the integer midpoint of the rectangle.
func (r Rect) Center() core.Point {
	return core.Point{X: (r.X1 + r.X2) / 2, Y: (r.Y1 + r.Y2) / 2}
}

// ParseBounds parses an Android bounds attribute. Anything other than four
// non-negative integers in "[x1,y1][x2,y2]" form returns ok=false.
func ParseBounds(s string) (Rect, bool) {
	m := boundsPattern.FindStringSubmatch(s)
	if m == nil {
		return Rect{}, false
	}
	var v [4]int
	for i := range v {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return Rect{}, false
		}
		v[i] = n
	}
	return Rect{X1: v[0], Y1: v[1], X2: v[2], Y2: v[3]}, true
}

// Node is one flattened UI element. Bounds and Center are nil when the
// source rectangle was absent or malformed.
type Node struct {
	ResourceID string
	Text       string
	Class      string
	Bounds     *Rect
	Center     *core.Point
}

// NewNode builds a node and derives its center from the raw bounds attribute.
func NewNode(resourceID, text, class, bounds string) Node {
	n := Node{ResourceID: resourceID, Text: text, Class: class}
	if r, ok := ParseBounds(bounds); ok {
		c := r.Center()
		n.Bounds = &r
		n.Center = &c
	}
	return n
}

// JSON shape written by the capture tool: absent values are explicit nulls.
type nodeJSON struct {
	ResourceID string     `json:"resource_id"`
	Text       string     `json:"text"`
	Class      string     `json:"class"`
	Bounds     boundsJSON `json:"bounds"`
	Center     centerJSON `json:"center"`
}

type boundsJSON struct {
	X1 *int `json:"x1"`
	Y1 *int `json:"y1"`
	X2 *int `json:"x2"`
	Y2 *int `json:"y2"`
}

type centerJSON struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

// MarshalJSON implements json.Marshaler.
func (n Node) MarshalJSON() ([]byte, error) {
	out := nodeJSON{ResourceID: n.ResourceID, Text: n.Text, Class: n.Class}
	if n.Bounds != nil {
		b := *n.Bounds
		out.Bounds = boundsJSON{X1: &b.X1, Y1: &b.Y1, X2: &b.X2, Y2: &b.Y2}
	}
	if n.Center != nil {
		c := *n.Center
		out.Center = centerJSON{X: &c.X, Y: &c.Y}
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler. Partially-null bounds or
// centers decode as absent.
func (n *Node) UnmarshalJSON(data []byte) error {
	var in nodeJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*n = Node{ResourceID: in.ResourceID, Text: in.Text, Class: in.Class}

	b := in.Bounds
	if b.X1 != nil && b.Y1 != nil && b.X2 != nil && b.Y2 != nil {
		n.Bounds = &Rect{X1: *b.X1, Y1: *b.Y1, X2: *b.X2, Y2: *b.Y2}
	}
	if in.Center.X != nil && in.Center.Y != nil {
		n.Center = &core.Point{X: *in.Center.X, Y: *in.Center.Y}
	}
	return nil
}
