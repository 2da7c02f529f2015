package geometry

import "math"

// Matrix represents a 2D affine transformation matrix.
// Layout: [a, b, c, d, e, f] representing:
// | a  c  e |
// | b  d  f |
// | 0  0  1 |
type Matrix [6]float64

// Identity returns the identity matrix.
func Identity() Matrix {
	return Matrix{1, 0, 0, 1, 0, 0}
}

// Translate returns a translation matrix.
func Translate(tx, ty float64) Matrix {
	return Matrix{1, 0, 0, 1, tx, ty}
}

// Scale returns a scale matrix.
func Scale(sx, sy float64) Matrix {
	return Matrix{sx, 0, 0, sy, 0, 0}
}

// Multiply multiplies this matrix by another: result = m * other
// This applies 'other' first, then 'm'.
func (m Matrix) Multiply(other Matrix) Matrix {
	return Matrix{
		m[0]*other[0] + m[2]*other[1],
		m[1]*other[0] + m[3]*other[1],
		m[0]*other[2] + m[2]*other[3],
		m[1]*other[2] + m[3]*other[3],
		m[0]*other[4] + m[2]*other[5] + m[4],
		m[1]*other[4] + m[3]*other[5] + m[5],
	}
}

// TransformPoint applies the matrix to a point.
func (m Matrix) TransformPoint(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// TransformRect transforms a rectangle and returns its axis-aligned bounding box.
func (m Matrix) TransformRect(r Rect) Rect {
	n := r.Normalize()
	x0, y0 := m.TransformPoint(n.X, n.Y)
	x1, y1 := m.TransformPoint(n.X+n.Width, n.Y)
	x2, y2 := m.TransformPoint(n.X+n.Width, n.Y+n.Height)
	x3, y3 := m.TransformPoint(n.X, n.Y+n.Height)

	return BoundsOf([]Point{{x0, y0}, {x1, y1}, {x2, y2}, {x3, y3}})
}

// ScaleFactor returns the uniform scale of the matrix (geometric mean of the axes).
func (m Matrix) ScaleFactor() float64 {
	return math.Sqrt(math.Abs(m[0]*m[3] - m[1]*m[2]))
}

// IsIdentity checks if this is the identity matrix (within epsilon).
func (m Matrix) IsIdentity() bool {
	const eps = 1e-10
	return math.Abs(m[0]-1) < eps &&
		math.Abs(m[1]) < eps &&
		math.Abs(m[2]) < eps &&
		math.Abs(m[3]-1) < eps &&
		math.Abs(m[4]) < eps &&
		math.Abs(m[5]) < eps
}

// Fit returns the transform that scales content uniformly (never enlarging it)
// and centers it inside a width x height viewport with the given padding.
// Empty content maps to the identity.
func Fit(content Rect, width, height, padding float64) Matrix {
	c := content.Normalize()
	if c.Width <= 0 && c.Height <= 0 {
		return Identity()
	}

	availW := width - 2*padding
	availH := height - 2*padding
	s := 1.0
	if c.Width > 0 {
		s = math.Min(s, availW/c.Width)
	}
	if c.Height > 0 {
		s = math.Min(s, availH/c.Height)
	}
	if s <= 0 {
		s = 1
	}

	cx, cy := c.Center()
	// T(viewport center) * S(s) * T(-content center)
	return Translate(width/2, height/2).Multiply(Scale(s, s)).Multiply(Translate(-cx, -cy))
}
