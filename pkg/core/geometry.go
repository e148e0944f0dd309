package core

import "fmt"

// Point is a screen position in device pixels.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// String formats the point as "(x,y)".
func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}
