package render

import (
	"encoding/json"
	"math"

	"github.com/drawroom/drawroom/internal/geometry"
)

// PathCommand is a single path segment.
// JSON form matches Canvas2D: ["M", x, y], ["L", x, y], ["C", x1, y1, x2, y2, x, y], ["Z"].
type PathCommand struct {
	Op   string
	Args []float64
}

func MoveTo(x, y float64) PathCommand { return PathCommand{Op: "M", Args: []float64{x, y}} }
func LineTo(x, y float64) PathCommand { return PathCommand{Op: "L", Args: []float64{x, y}} }
func ClosePath() PathCommand          { return PathCommand{Op: "Z"} }

func CubicTo(x1, y1, x2, y2, x, y float64) PathCommand {
	return PathCommand{Op: "C", Args: []float64{x1, y1, x2, y2, x, y}}
}

func (c PathCommand) MarshalJSON() ([]byte, error) {
	out := make([]interface{}, 0, len(c.Args)+1)
	out = append(out, c.Op)
	for _, a := range c.Args {
		out = append(out, a)
	}
	return json.Marshal(out)
}

func (c *PathCommand) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) == 0 {
		*c = PathCommand{}
		return nil
	}
	var op string
	if err := json.Unmarshal(raw[0], &op); err != nil {
		return err
	}
	var args []float64
	if len(raw) > 1 {
		args = make([]float64, len(raw)-1)
	}
	for i, r := range raw[1:] {
		if err := json.Unmarshal(r, &args[i]); err != nil {
			return err
		}
	}
	*c = PathCommand{Op: op, Args: args}
	return nil
}

// rectPath outlines the rectangle from (x, y) with signed extents, the way
// strokeRect does.
func rectPath(x, y, w, h float64) []PathCommand {
	return []PathCommand{
		MoveTo(x, y),
		LineTo(x+w, y),
		LineTo(x+w, y+h),
		LineTo(x, y+h),
		ClosePath(),
	}
}

// ellipsePath approximates a full ellipse with four cubic beziers.
func ellipsePath(cx, cy, rx, ry float64) []PathCommand {
	// k = 4 * (sqrt(2) - 1) / 3
	k := 0.5522847498
	kx, ky := rx*k, ry*k

	return []PathCommand{
		MoveTo(cx+rx, cy),
		CubicTo(cx+rx, cy+ky, cx+kx, cy+ry, cx, cy+ry),
		CubicTo(cx-kx, cy+ry, cx-rx, cy+ky, cx-rx, cy),
		CubicTo(cx-rx, cy-ky, cx-kx, cy-ry, cx, cy-ry),
		CubicTo(cx+kx, cy-ry, cx+rx, cy-ky, cx+rx, cy),
		ClosePath(),
	}
}

// polylinePath connects points in order. Fewer than two points is no path.
func polylinePath(points []geometry.Point) []PathCommand {
	if len(points) < 2 {
		return nil
	}
	path := make([]PathCommand, 0, len(points))
	path = append(path, MoveTo(points[0].X, points[0].Y))
	for _, p := range points[1:] {
		path = append(path, LineTo(p.X, p.Y))
	}
	return path
}

// diamondPath is the rhombus through the midpoints of the bounding box edges.
func diamondPath(x, y, w, h float64) []PathCommand {
	halfW, halfH := w/2, h/2
	return []PathCommand{
		MoveTo(x+halfW, y),
		LineTo(x+w, y+halfH),
		LineTo(x+halfW, y+h),
		LineTo(x, y+halfH),
		ClosePath(),
	}
}

// arrowHead returns the filled triangle with its apex at (x2, y2).
func arrowHead(x1, y1, x2, y2 float64) []PathCommand {
	angle := math.Atan2(y2-y1, x2-x1)
	lx := x2 - ArrowHeadLength*math.Cos(angle-ArrowHeadAngle)
	ly := y2 - ArrowHeadLength*math.Sin(angle-ArrowHeadAngle)
	rx := x2 - ArrowHeadLength*math.Cos(angle+ArrowHeadAngle)
	ry := y2 - ArrowHeadLength*math.Sin(angle+ArrowHeadAngle)
	return []PathCommand{
		MoveTo(x2, y2),
		LineTo(lx, ly),
		LineTo(rx, ry),
		ClosePath(),
	}
}

// transformPath maps every coordinate pair through m.
func transformPath(path []PathCommand, m geometry.Matrix) []PathCommand {
	out := make([]PathCommand, len(path))
	for i, cmd := range path {
		var args []float64
		if len(cmd.Args) > 0 {
			args = make([]float64, len(cmd.Args))
		}
		for j := 0; j+1 < len(cmd.Args); j += 2 {
			args[j], args[j+1] = m.TransformPoint(cmd.Args[j], cmd.Args[j+1])
		}
		out[i] = PathCommand{Op: cmd.Op, Args: args}
	}
	return out
}
