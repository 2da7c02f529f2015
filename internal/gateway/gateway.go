// Package gateway connects a scene to its room channel: it announces local
// changes and applies the changes of other participants.
package gateway

import (
	"context"
	"errors"
	"log/slog"

	"github.com/drawroom/drawroom/internal/protocol"
	"github.com/drawroom/drawroom/internal/scene"
	"github.com/drawroom/drawroom/internal/shape"
)

// Channel is a bidirectional stream of frames for one room. Send must not
// block on a slow peer; implementations buffer and drop instead.
type Channel interface {
	Send(ctx context.Context, frame []byte) error
	Receive() <-chan []byte
}

// Gateway turns local scene changes into frames on the room channel and
// applies frames from peers to the scene.
type Gateway struct {
	channel Channel
	store   *scene.Store
	roomID  string
	origin  string
	logger  *slog.Logger
}

// New returns a gateway for roomID. Frames sent carry origin, and inbound
// frames with the same origin are treated as echoes.
func New(channel Channel, store *scene.Store, roomID, origin string, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		channel: channel,
		store:   store,
		roomID:  roomID,
		origin:  origin,
		logger:  logger.With("room", roomID),
	}
}

// BroadcastAdd announces a finalized shape. Failures are logged and dropped.
func (g *Gateway) BroadcastAdd(ctx context.Context, s shape.Shape) {
	frame, err := protocol.NewAdd(g.roomID, g.origin, s)
	if err != nil {
		g.logger.Debug("encode add failed", "id", s.ShapeID(), "error", err)
		return
	}
	g.send(ctx, frame)
}

// BroadcastDelete announces an erased shape. Failures are logged and dropped.
func (g *Gateway) BroadcastDelete(ctx context.Context, id string) {
	frame, err := protocol.NewDelete(g.roomID, g.origin, id)
	if err != nil {
		g.logger.Debug("encode delete failed", "id", id, "error", err)
		return
	}
	g.send(ctx, frame)
}

func (g *Gateway) send(ctx context.Context, frame []byte) {
	if g.channel == nil {
		return
	}
	if err := g.channel.Send(ctx, frame); err != nil {
		g.logger.Debug("send failed", "error", err)
	}
}

// Apply applies one inbound frame to the scene and reports whether the
// scene changed and needs a redraw.
func (g *Gateway) Apply(frame []byte) bool {
	env, err := protocol.Parse(frame)
	if err != nil {
		g.logger.Debug("dropped malformed frame", "error", err)
		return false
	}
	if env.Origin != "" && env.Origin == g.origin {
		return false
	}

	switch env.Type {
	case protocol.TypeChat:
		return g.applyAdd(env)
	case protocol.TypeDelete:
		return g.store.RemoveByID(env.ID)
	default:
		return false
	}
}

func (g *Gateway) applyAdd(env *protocol.Envelope) bool {
	s, err := env.Shape()
	if err != nil {
		g.logger.Debug("dropped malformed shape", "error", err)
		return false
	}
	if g.store.Has(s.ShapeID()) {
		g.logger.Debug("dropped duplicate shape", "id", s.ShapeID())
		return false
	}
	if err := g.store.Append(s); err != nil {
		if !errors.Is(err, scene.ErrDuplicateID) {
			g.logger.Debug("append failed", "id", s.ShapeID(), "error", err)
		}
		return false
	}
	return true
}
