// Package core provides the shared types and error taxonomy for appium-vision.
package core

// Point represents an absolute screen coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Bounds represents element position and size.
type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Center returns the center point of the bounds.
func (b Bounds) Center() Point {
	return Point{X: b.X + b.Width/2, Y: b.Y + b.Height/2}
}

// Contains checks if a point is within the bounds.
func (b Bounds) Contains(p Point) bool {
	return p.X >= b.X && p.X < b.X+b.Width && p.Y >= b.Y && p.Y < b.Y+b.Height
}

// LocateResult is the outcome of a single locate attempt. It is produced and
// consumed within one keyword call and never persisted.
type LocateResult struct {
	// Found reports whether the target was located on screen.
	Found bool `json:"found"`

	// Point is the tap target (region center) when Found is true.
	Point Point `json:"point"`

	// Bounds is the matched region when the strategy produces one.
	Bounds Bounds `json:"bounds"`

	// Confidence is the normalized [0,1] match score. Only the OCR and image
	// strategies report it; it is filled even when Found is false so callers
	// can diagnose near misses.
	Confidence float64 `json:"confidence,omitempty"`
}
