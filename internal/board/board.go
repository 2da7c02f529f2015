// Package board is the live drawing engine of one open canvas. A Handle
// owns the canvas's scene, its interaction state and its room connection,
// and serializes pointer input and inbound frames on a single event loop.
package board

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/drawroom/drawroom/internal/gateway"
	"github.com/drawroom/drawroom/internal/render"
	"github.com/drawroom/drawroom/internal/scene"
	"github.com/drawroom/drawroom/internal/shape"
)

var (
	ErrDestroyed   = errors.New("board destroyed")
	ErrUnknownTool = errors.New("unknown tool")
)

// History loads the persisted shapes of a room in z-order.
type History interface {
	FetchShapes(ctx context.Context, roomID string) ([]shape.Shape, error)
}

type Option func(*options)

type options struct {
	history    History
	logger     *slog.Logger
	strict     bool
	onTextEdit func(x, y float64)
	onRedraw   func()
	sessionID  string
}

func WithHistory(h History) Option {
	return func(o *options) { o.history = h }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithStrict turns precondition violations into panics.
func WithStrict(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

// WithOnTextEdit is called on the event loop when the text tool opens a
// text entry at (x, y).
func WithOnTextEdit(fn func(x, y float64)) Option {
	return func(o *options) { o.onTextEdit = fn }
}

// WithOnRedraw is called on the event loop after every repaint of the
// surface.
func WithOnRedraw(fn func()) Option {
	return func(o *options) { o.onRedraw = fn }
}

// WithSessionID sets the origin stamped on outbound frames. Defaults to a
// random UUID.
func WithSessionID(id string) Option {
	return func(o *options) { o.sessionID = id }
}

type Handle struct {
	roomID  string
	history History
	channel gateway.Channel
	store   *scene.Store
	ctrl    *Controller
	gateway *gateway.Gateway
	strict  bool
	logger  *slog.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	cmds      chan func()
	done      chan struct{}
	destroyed atomic.Bool
}

// Create opens a canvas for roomID and starts its event loop. The loop
// hydrates the scene from history before it handles any other event.
// Cancelling ctx stops the loop like Destroy does.
func Create(ctx context.Context, surface render.Surface, roomID string, channel gateway.Channel, opts ...Option) *Handle {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.sessionID == "" {
		o.sessionID = uuid.NewString()
	}
	logger := o.logger.With("room", roomID, "session", o.sessionID)

	store := scene.NewStore(scene.WithStrict(o.strict), scene.WithLogger(logger))
	gw := gateway.New(channel, store, roomID, o.sessionID, logger)
	ctrl := NewController(store, surface, gw, logger)
	ctrl.onTextEdit = o.onTextEdit
	ctrl.onRedraw = o.onRedraw

	loopCtx, cancel := context.WithCancel(ctx)
	h := &Handle{
		roomID:  roomID,
		history: o.history,
		channel: channel,
		store:   store,
		ctrl:    ctrl,
		gateway: gw,
		strict:  o.strict,
		logger:  logger,
		ctx:     loopCtx,
		cancel:  cancel,
		cmds:    make(chan func()),
		done:    make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Handle) run() {
	defer close(h.done)

	h.hydrate()

	var inbound <-chan []byte
	if h.channel != nil {
		inbound = h.channel.Receive()
	}
	for {
		select {
		case <-h.ctx.Done():
			h.logger.Debug("board loop stopped")
			return
		case cmd := <-h.cmds:
			cmd()
		case frame, ok := <-inbound:
			if !ok {
				h.logger.Info("room channel closed")
				inbound = nil
				continue
			}
			if !h.gateway.Apply(frame) {
				h.logger.Debug("inbound frame left scene unchanged")
			}
			h.ctrl.Redraw()
		}
	}
}

func (h *Handle) hydrate() {
	var shapes []shape.Shape
	if h.history != nil {
		fetched, err := h.history.FetchShapes(h.ctx, h.roomID)
		if err != nil {
			h.logger.Warn("failed to load room history, starting empty", "error", err)
		} else {
			shapes = fetched
		}
	}
	if err := h.store.Hydrate(shapes); err != nil {
		return
	}
	h.logger.Debug("scene hydrated", "shapes", h.store.Len())
	h.ctrl.Redraw()
}

// do runs fn on the event loop and waits for it to finish. It reports
// false when the loop is gone, after Destroy or a cancelled context.
func (h *Handle) do(fn func()) bool {
	if h.destroyed.Load() {
		h.violation()
		return false
	}
	finished := make(chan struct{})
	select {
	case h.cmds <- func() {
		defer close(finished)
		fn()
	}:
	case <-h.done:
		h.stopped()
		return false
	}
	<-finished
	return true
}

// stopped handles a call that found the loop gone. Only calls after
// Destroy are violations; a cancelled parent context just ends the board.
func (h *Handle) stopped() {
	if h.destroyed.Load() {
		h.violation()
		return
	}
	h.logger.Debug("call on stopped board ignored", "cause", context.Cause(h.ctx))
}

func (h *Handle) violation() {
	if h.strict {
		panic("board: " + ErrDestroyed.Error())
	}
	h.logger.Warn("call on destroyed board ignored")
}

// SetTool selects the tool for the next gesture. A drag in progress keeps
// the tool it started with.
func (h *Handle) SetTool(t Tool) {
	h.do(func() { h.ctrl.SetTool(t) })
}

// PointerDown starts a drag, erases the topmost shape under the pointer,
// or opens a text edit at (x, y), depending on the tool. Ignored while
// editing text.
func (h *Handle) PointerDown(x, y float64) {
	h.do(func() { h.ctrl.PointerDown(h.ctx, x, y) })
}

// PointerMove updates the drag preview.
func (h *Handle) PointerMove(x, y float64) {
	h.do(func() { h.ctrl.PointerMove(x, y) })
}

// PointerUp finalizes the drag into a shape, appends it and broadcasts it.
func (h *Handle) PointerUp(x, y float64) {
	h.do(func() { h.ctrl.PointerUp(h.ctx, x, y) })
}

// TypeText appends s to the text being edited.
func (h *Handle) TypeText(s string) {
	h.do(func() { h.ctrl.TypeText(s) })
}

func (h *Handle) Backspace() {
	h.do(h.ctrl.Backspace)
}

// KeyDown handles Enter (commit), Escape (cancel) and Backspace while
// editing text.
func (h *Handle) KeyDown(key string) {
	h.do(func() { h.ctrl.KeyDown(h.ctx, key) })
}

// Blur commits the text being edited.
func (h *Handle) Blur() {
	h.do(func() { h.ctrl.Blur(h.ctx) })
}

func (h *Handle) CancelText() {
	h.do(h.ctrl.CancelText)
}

// CommitText places text at (x, y) through the same path as the text tool.
func (h *Handle) CommitText(x, y float64, text string) {
	h.do(func() { h.ctrl.CommitText(h.ctx, x, y, text) })
}

// Redraw repaints the surface from the current scene.
func (h *Handle) Redraw() {
	h.do(h.ctrl.Redraw)
}

// Shapes returns a snapshot of the scene in z-order.
func (h *Handle) Shapes() []shape.Shape {
	var shapes []shape.Shape
	h.do(func() { shapes = h.store.All() })
	return shapes
}

func (h *Handle) State() State {
	state := StateIdle
	h.do(func() { state = h.ctrl.State() })
	return state
}

func (h *Handle) Tool() Tool {
	var t Tool
	h.do(func() { t = h.ctrl.Tool() })
	return t
}

// Destroy stops the event loop and waits for it to exit. No inbound frame
// or input reaches the scene afterwards.
func (h *Handle) Destroy() {
	if !h.destroyed.CompareAndSwap(false, true) {
		h.violation()
		return
	}
	h.cancel()
	<-h.done
}
