// Package shape defines the six drawable primitives of a room as a closed
// set of variants. Consumers switch over the concrete types; the unexported
// sealed method keeps other packages from adding variants.
package shape

import (
	"slices"

	"github.com/drawroom/drawroom/internal/geometry"
	"github.com/drawroom/drawroom/internal/typeid"
)

type Kind string

const (
	KindRect    Kind = "rect"
	KindCircle  Kind = "circle"
	KindPencil  Kind = "pencil"
	KindDiamond Kind = "diamond"
	KindText    Kind = "text"
	KindArrow   Kind = "arrow"
)

// Shape is one of Rect, Circle, Pencil, Diamond, Text or Arrow.
type Shape interface {
	ShapeID() string
	Kind() Kind
	sealed()
}

// Rect has its corner at (X, Y). Width and Height keep the drag direction
// and may be negative.
type Rect struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Circle may carry a signed radius from older producers; use its magnitude.
type Circle struct {
	ID      string  `json:"id"`
	CenterX float64 `json:"centerX"`
	CenterY float64 `json:"centerY"`
	Radius  float64 `json:"radius"`
}

// Pencil is a freehand polyline in draw order.
type Pencil struct {
	ID     string           `json:"id"`
	Points []geometry.Point `json:"points"`
}

// Diamond is the rhombus inscribed in its bounding box.
type Diamond struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Text is anchored at the point the user clicked.
type Text struct {
	ID   string  `json:"id"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Text string  `json:"text"`
}

// Arrow points from (X1, Y1) to (X2, Y2).
type Arrow struct {
	ID string  `json:"id"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

func (s Rect) ShapeID() string    { return s.ID }
func (s Circle) ShapeID() string  { return s.ID }
func (s Pencil) ShapeID() string  { return s.ID }
func (s Diamond) ShapeID() string { return s.ID }
func (s Text) ShapeID() string    { return s.ID }
func (s Arrow) ShapeID() string   { return s.ID }

func (Rect) Kind() Kind    { return KindRect }
func (Circle) Kind() Kind  { return KindCircle }
func (Pencil) Kind() Kind  { return KindPencil }
func (Diamond) Kind() Kind { return KindDiamond }
func (Text) Kind() Kind    { return KindText }
func (Arrow) Kind() Kind   { return KindArrow }

func (Rect) sealed()    {}
func (Circle) sealed()  {}
func (Pencil) sealed()  {}
func (Diamond) sealed() {}
func (Text) sealed()    {}
func (Arrow) sealed()   {}

func NewRect(x, y, width, height float64) Rect {
	return Rect{ID: typeid.NewShapeID(), X: x, Y: y, Width: width, Height: height}
}

func NewCircle(centerX, centerY, radius float64) Circle {
	return Circle{ID: typeid.NewShapeID(), CenterX: centerX, CenterY: centerY, Radius: radius}
}

// NewPencil copies points so later edits to the caller's slice do not leak in.
func NewPencil(points []geometry.Point) Pencil {
	return Pencil{ID: typeid.NewShapeID(), Points: slices.Clone(points)}
}

func NewDiamond(x, y, width, height float64) Diamond {
	return Diamond{ID: typeid.NewShapeID(), X: x, Y: y, Width: width, Height: height}
}

func NewText(x, y float64, text string) Text {
	return Text{ID: typeid.NewShapeID(), X: x, Y: y, Text: text}
}

func NewArrow(x1, y1, x2, y2 float64) Arrow {
	return Arrow{ID: typeid.NewShapeID(), X1: x1, Y1: y1, X2: x2, Y2: y2}
}
