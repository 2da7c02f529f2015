// Package geometry holds the pure hit-testing and layout math used by the
// whiteboard: containment tests, point-to-segment distance and a 2D affine
// matrix. Nothing here has side effects.
package geometry

import "math"

// PointInRect reports whether (px, py) lies within r. Negative extents are
// treated as a drag in the opposite direction, so the bounds are the min/max
// of the two corners.
func PointInRect(px, py float64, r Rect) bool {
	return r.Contains(px, py)
}

// PointInCircle reports whether (px, py) is within |radius| of the center.
func PointInCircle(px, py, centerX, centerY, radius float64) bool {
	dx := px - centerX
	dy := py - centerY
	return math.Sqrt(dx*dx+dy*dy) <= math.Abs(radius)
}

// PointNearPolylineVertex reports whether any vertex is strictly within
// tolerance of (px, py) on both axes. This is a box test, not a radial one.
func PointNearPolylineVertex(px, py float64, points []Point, tolerance float64) bool {
	for _, p := range points {
		if math.Abs(px-p.X) < tolerance && math.Abs(py-p.Y) < tolerance {
			return true
		}
	}
	return false
}

// PointToSegmentDistance returns the shortest distance from (px, py) to the
// finite segment (x1, y1)-(x2, y2). A zero-length segment yields the distance
// to its endpoint.
func PointToSegmentDistance(px, py, x1, y1, x2, y2 float64) float64 {
	cx := x2 - x1
	cy := y2 - y1
	lenSq := cx*cx + cy*cy

	// Projection parameter, clamped to the segment.
	t := 0.0
	if lenSq != 0 {
		t = ((px-x1)*cx + (py-y1)*cy) / lenSq
		t = math.Max(0, math.Min(1, t))
	}

	nearX := x1 + t*cx
	nearY := y1 + t*cy
	return math.Hypot(px-nearX, py-nearY)
}
