// Package render paints a scene onto a Surface. Every call is a full
// repaint: the surface is cleared and each shape is drawn in z-order, so
// rendering the same shapes twice produces the same output.
package render

import (
	"fmt"
	"math"

	"github.com/drawroom/drawroom/internal/geometry"
	"github.com/drawroom/drawroom/internal/shape"
)

const (
	Background  = "#000000"
	Foreground  = "#ffffff"
	StrokeWidth = 1.0

	FontSize = 20.0
	// TextBaseline shifts text down so its visual top-left sits on the anchor.
	TextBaseline = 20.0

	ArrowHeadLength = 16.0
	ArrowHeadAngle  = math.Pi / 7
)

// Style carries the paint parameters of one drawing call.
type Style struct {
	Color     string
	LineWidth float64
	FontSize  float64
}

var (
	strokeStyle = Style{Color: Foreground, LineWidth: StrokeWidth}
	fillStyle   = Style{Color: Foreground}
	textStyle   = Style{Color: Foreground, FontSize: FontSize}
)

// Surface is a 2D drawing target.
type Surface interface {
	// Clear fills the whole surface with an opaque background color.
	Clear(background string)
	StrokePath(path []PathCommand, style Style)
	FillPath(path []PathCommand, style Style)
	// FillText draws text with its baseline at y.
	FillText(text string, x, y float64, style Style)
}

// Redraw clears the surface and paints shapes in order.
func Redraw(surface Surface, shapes []shape.Shape) {
	surface.Clear(Background)
	for _, s := range shapes {
		Paint(surface, s)
	}
}

// Preview is Redraw plus the in-progress draft on top. The draft is never
// part of the scene.
func Preview(surface Surface, shapes []shape.Shape, draft shape.Shape) {
	Redraw(surface, shapes)
	if draft != nil {
		Paint(surface, draft)
	}
}

// Paint draws a single shape.
func Paint(surface Surface, s shape.Shape) {
	switch s := s.(type) {
	case shape.Rect:
		surface.StrokePath(rectPath(s.X, s.Y, s.Width, s.Height), strokeStyle)
	case shape.Circle:
		r := math.Abs(s.Radius)
		surface.StrokePath(ellipsePath(s.CenterX, s.CenterY, r, r), strokeStyle)
	case shape.Pencil:
		surface.StrokePath(polylinePath(s.Points), strokeStyle)
	case shape.Diamond:
		surface.StrokePath(diamondPath(s.X, s.Y, s.Width, s.Height), strokeStyle)
	case shape.Text:
		surface.FillText(s.Text, s.X, s.Y+TextBaseline, textStyle)
	case shape.Arrow:
		surface.StrokePath([]PathCommand{MoveTo(s.X1, s.Y1), LineTo(s.X2, s.Y2)}, strokeStyle)
		surface.FillPath(arrowHead(s.X1, s.Y1, s.X2, s.Y2), fillStyle)
	default:
		panic(fmt.Sprintf("render: unhandled shape %T", s))
	}
}

// Transformed wraps a surface so every coordinate passes through m first.
// Line widths and font sizes scale with the matrix.
func Transformed(surface Surface, m geometry.Matrix) Surface {
	if m.IsIdentity() {
		return surface
	}
	return &transformed{inner: surface, m: m}
}

type transformed struct {
	inner Surface
	m     geometry.Matrix
}

func (t *transformed) Clear(background string) {
	t.inner.Clear(background)
}

func (t *transformed) StrokePath(path []PathCommand, style Style) {
	style.LineWidth *= t.m.ScaleFactor()
	t.inner.StrokePath(transformPath(path, t.m), style)
}

func (t *transformed) FillPath(path []PathCommand, style Style) {
	t.inner.FillPath(transformPath(path, t.m), style)
}

func (t *transformed) FillText(text string, x, y float64, style Style) {
	x, y = t.m.TransformPoint(x, y)
	style.FontSize *= t.m.ScaleFactor()
	t.inner.FillText(text, x, y, style)
}
