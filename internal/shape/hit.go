package shape

import (
	"fmt"
	"math"

	"github.com/drawroom/drawroom/internal/geometry"
)

const (
	// EraseTolerance is how close the pointer must be to a pencil vertex or
	// an arrow shaft to erase it.
	EraseTolerance = 8.0

	// Text has no measured extent; erasing uses the minimum size of the
	// text-entry box.
	TextHitWidth  = 40.0
	TextHitHeight = 24.0
)

// Contains reports whether the eraser at (x, y) hits s.
func Contains(s Shape, x, y float64) bool {
	switch s := s.(type) {
	case Rect:
		return geometry.PointInRect(x, y, geometry.Rect{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height})
	case Circle:
		return geometry.PointInCircle(x, y, s.CenterX, s.CenterY, s.Radius)
	case Pencil:
		return geometry.PointNearPolylineVertex(x, y, s.Points, EraseTolerance)
	case Diamond:
		// Bounding box, not the rhombus itself.
		return geometry.PointInRect(x, y, geometry.Rect{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height})
	case Text:
		return geometry.PointInRect(x, y, geometry.Rect{X: s.X, Y: s.Y, Width: TextHitWidth, Height: TextHitHeight})
	case Arrow:
		return geometry.PointToSegmentDistance(x, y, s.X1, s.Y1, s.X2, s.Y2) < EraseTolerance
	default:
		panic(fmt.Sprintf("shape: unhandled variant %T", s))
	}
}

// Bounds returns the normalized axis-aligned extent of s.
func Bounds(s Shape) geometry.Rect {
	switch s := s.(type) {
	case Rect:
		return geometry.Rect{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height}.Normalize()
	case Circle:
		r := math.Abs(s.Radius)
		return geometry.Rect{X: s.CenterX - r, Y: s.CenterY - r, Width: 2 * r, Height: 2 * r}
	case Pencil:
		return geometry.BoundsOf(s.Points)
	case Diamond:
		return geometry.Rect{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height}.Normalize()
	case Text:
		return geometry.Rect{X: s.X, Y: s.Y, Width: TextHitWidth, Height: TextHitHeight}
	case Arrow:
		return geometry.BoundsOf([]geometry.Point{{X: s.X1, Y: s.Y1}, {X: s.X2, Y: s.Y2}})
	default:
		panic(fmt.Sprintf("shape: unhandled variant %T", s))
	}
}

// BoundsAll returns the union of the bounds of shapes.
func BoundsAll(shapes []Shape) geometry.Rect {
	if len(shapes) == 0 {
		return geometry.Rect{}
	}
	b := Bounds(shapes[0])
	for _, s := range shapes[1:] {
		b = b.Union(Bounds(s))
	}
	return b
}
