package board

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/drawroom/drawroom/internal/gateway"
	"github.com/drawroom/drawroom/internal/geometry"
	"github.com/drawroom/drawroom/internal/render"
	"github.com/drawroom/drawroom/internal/scene"
	"github.com/drawroom/drawroom/internal/shape"
	"github.com/drawroom/drawroom/internal/typeid"
)

// Controller turns pointer and keyboard input into scene mutations,
// redraws and broadcasts. It is not safe for concurrent use; a Handle
// drives it from its event loop.
type Controller struct {
	store      *scene.Store
	surface    render.Surface
	gateway    *gateway.Gateway
	onTextEdit func(x, y float64)
	onRedraw   func()
	logger     *slog.Logger

	tool  Tool
	state State

	// Gesture scratch, reset when the gesture ends.
	dragTool Tool
	anchor   geometry.Point
	current  geometry.Point
	points   []geometry.Point
	buffer   string
}

// NewController returns an idle controller with the default tool. It is not
// safe for concurrent use; Handle serializes calls through its loop.
func NewController(store *scene.Store, surface render.Surface, gw *gateway.Gateway, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		store:   store,
		surface: surface,
		gateway: gw,
		logger:  logger,
		tool:    DefaultTool,
	}
}

// SetTool changes the tool for the next pointer-down. A drag in progress
// keeps the tool it started with.
func (c *Controller) SetTool(t Tool) {
	c.tool = t
}

func (c *Controller) Tool() Tool   { return c.tool }
func (c *Controller) State() State { return c.state }

func (c *Controller) PointerDown(ctx context.Context, x, y float64) {
	if c.state != StateIdle {
		return
	}
	p := geometry.Point{X: x, Y: y}

	switch c.tool {
	case ToolEraser:
		c.eraseAt(ctx, x, y)
	case ToolText:
		c.state = StateTextEditing
		c.anchor = p
		c.buffer = ""
		if c.onTextEdit != nil {
			c.onTextEdit(x, y)
		}
	default:
		c.state = StateDragging
		c.dragTool = c.tool
		c.anchor = p
		c.current = p
		c.points = c.points[:0]
		if c.dragTool == ToolPencil {
			c.points = append(c.points, p)
		}
	}
}

func (c *Controller) PointerMove(x, y float64) {
	if c.state != StateDragging {
		return
	}
	c.current = geometry.Point{X: x, Y: y}
	if c.dragTool == ToolPencil {
		c.points = append(c.points, c.current)
	}
	c.paint(c.draft(""))
}

func (c *Controller) PointerUp(ctx context.Context, x, y float64) {
	if c.state != StateDragging {
		return
	}
	c.current = geometry.Point{X: x, Y: y}
	s := c.draft(typeid.NewShapeID())
	c.endGesture()

	if s == nil {
		c.Redraw()
		return
	}
	c.commit(ctx, s)
}

// TypeText appends typed characters to the text buffer.
func (c *Controller) TypeText(s string) {
	if c.state != StateTextEditing {
		return
	}
	c.buffer += s
}

func (c *Controller) Backspace() {
	if c.state != StateTextEditing || c.buffer == "" {
		return
	}
	_, size := utf8.DecodeLastRuneInString(c.buffer)
	c.buffer = c.buffer[:len(c.buffer)-size]
}

// KeyDown handles editing keys. Enter commits the buffer and Escape
// cancels it.
func (c *Controller) KeyDown(ctx context.Context, key string) {
	if c.state != StateTextEditing {
		return
	}
	switch key {
	case "Enter":
		c.finishText(ctx)
	case "Escape":
		c.CancelText()
	case "Backspace":
		c.Backspace()
	}
}

// Blur commits the buffer when the text entry loses focus.
func (c *Controller) Blur(ctx context.Context) {
	if c.state != StateTextEditing {
		return
	}
	c.finishText(ctx)
}

func (c *Controller) CancelText() {
	if c.state != StateTextEditing {
		return
	}
	c.endGesture()
}

// CommitText places text at (x, y) for a UI that runs its own text entry.
// It ends any text editing in progress without committing that buffer.
func (c *Controller) CommitText(ctx context.Context, x, y float64, text string) {
	if c.state == StateTextEditing {
		c.endGesture()
	}
	c.placeText(ctx, x, y, text)
}

func (c *Controller) finishText(ctx context.Context) {
	anchor, text := c.anchor, c.buffer
	c.endGesture()
	c.placeText(ctx, anchor.X, anchor.Y, text)
}

// placeText is the single finalization path for text. Whitespace-only
// input is discarded.
func (c *Controller) placeText(ctx context.Context, x, y float64, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	c.commit(ctx, shape.NewText(x, y, text))
}

func (c *Controller) eraseAt(ctx context.Context, x, y float64) {
	hit, ok := c.store.TopmostAt(x, y)
	if !ok {
		return
	}
	c.store.RemoveByID(hit.ShapeID())
	c.Redraw()
	c.gateway.BroadcastDelete(ctx, hit.ShapeID())
}

func (c *Controller) commit(ctx context.Context, s shape.Shape) {
	if err := c.store.Append(s); err != nil {
		return
	}
	c.Redraw()
	c.gateway.BroadcastAdd(ctx, s)
}

// Redraw repaints the scene plus the current drag preview, if any.
func (c *Controller) Redraw() {
	var draft shape.Shape
	if c.state == StateDragging {
		draft = c.draft("")
	}
	c.paint(draft)
}

func (c *Controller) paint(draft shape.Shape) {
	render.Preview(c.surface, c.store.All(), draft)
	if c.onRedraw != nil {
		c.onRedraw()
	}
}

func (c *Controller) endGesture() {
	c.state = StateIdle
	c.dragTool = ""
	c.points = nil
	c.buffer = ""
}

// draft builds the shape the current drag would produce, or nil when it
// produces none. Rects and circles come out with non-negative extents.
func (c *Controller) draft(id string) shape.Shape {
	sx, sy := c.anchor.X, c.anchor.Y
	ex, ey := c.current.X, c.current.Y
	dx, dy := ex-sx, ey-sy

	switch c.dragTool {
	case ToolRect:
		r := geometry.Rect{X: sx, Y: sy, Width: dx, Height: dy}.Normalize()
		return shape.Rect{ID: id, X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
	case ToolCircle:
		radius := math.Max(dx, dy) / 2
		return shape.Circle{ID: id, CenterX: sx + radius, CenterY: sy + radius, Radius: math.Abs(radius)}
	case ToolDiamond:
		return shape.Diamond{ID: id, X: sx, Y: sy, Width: math.Abs(dx), Height: math.Abs(dy)}
	case ToolArrow:
		return shape.Arrow{ID: id, X1: sx, Y1: sy, X2: ex, Y2: ey}
	case ToolPencil:
		if len(c.points) < 2 {
			return nil
		}
		return shape.Pencil{ID: id, Points: append([]geometry.Point(nil), c.points...)}
	default:
		return nil
	}
}
