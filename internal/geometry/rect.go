package geometry

import "math"

// Point is a position on the canvas.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is a rectangle given by a corner and signed extents.
// Width and Height may be negative when a shape was dragged up or left.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Normalize returns the same area with a top-left corner and non-negative extents.
func (r Rect) Normalize() Rect {
	minX, maxX := math.Min(r.X, r.X+r.Width), math.Max(r.X, r.X+r.Width)
	minY, maxY := math.Min(r.Y, r.Y+r.Height), math.Max(r.Y, r.Y+r.Height)
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Contains checks if a point is inside the rect, edges included.
func (r Rect) Contains(x, y float64) bool {
	n := r.Normalize()
	return x >= n.X && x <= n.X+n.Width && y >= n.Y && y <= n.Y+n.Height
}

// Union returns the smallest rect containing both rects.
// Degenerate rects (a point or a line) still contribute their extent.
func (r Rect) Union(other Rect) Rect {
	a, b := r.Normalize(), other.Normalize()

	minX := min(a.X, b.X)
	minY := min(a.Y, b.Y)
	maxX := max(a.X+a.Width, b.X+b.Width)
	maxY := max(a.Y+a.Height, b.Y+b.Height)

	return Rect{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX,
		Height: maxY - minY,
	}
}

// Center returns the center point of the rect.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// BoundsOf returns the normalized bounding box of a point list.
func BoundsOf(points []Point) Rect {
	if len(points) == 0 {
		return Rect{}
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
