// Package collab is the websocket relay: it fans drawing frames out to the
// other clients of a room and records them in the room's shape log.
package collab

import (
	"context"
	"log/slog"
	"sync"

	"github.com/coder/websocket"

	"github.com/drawroom/drawroom/internal/protocol"
	"github.com/drawroom/drawroom/internal/shape"
)

// ShapeLog persists the scene of each room.
type ShapeLog interface {
	AppendShape(ctx context.Context, roomID, userID string, s shape.Shape) error
	DeleteShape(ctx context.Context, roomID, id string) error
}

type Room struct {
	roomID   string
	clients  map[string]*Client // clientID -> client
	presence *PresenceManager
}

func NewRoom(roomID string) *Room {
	return &Room{
		roomID:   roomID,
		clients:  make(map[string]*Client),
		presence: NewPresenceManager(),
	}
}

type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // roomID -> room
	shapes     ShapeLog
	register   chan *Client
	unregister chan *Client
	quit       chan struct{}
	done       chan struct{}
	stopOnce   sync.Once
}

// NewHub returns a hub persisting through shapes, which may be nil for a
// relay without history.
func NewHub(shapes ShapeLog) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		shapes:     shapes,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.quit:
			return
		}
	}
}

// Stop ends Run and closes every open connection.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.quit)
		<-h.done

		h.mu.RLock()
		var clients []*Client
		for _, room := range h.rooms {
			for _, c := range room.clients {
				clients = append(clients, c)
			}
		}
		h.mu.RUnlock()

		var wg sync.WaitGroup
		for _, c := range clients {
			wg.Add(1)
			go func(c *Client) {
				defer wg.Done()
				c.conn.Close(websocket.StatusGoingAway, "server shutting down")
			}(c)
		}
		wg.Wait()
		slog.Info("hub stopped", "clients", len(clients))
	})
}

// Register reports false when the hub is stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Members returns the roster of a room.
func (h *Hub) Members(roomID string) []protocol.Member {
	h.mu.RLock()
	room, ok := h.rooms[roomID]
	h.mu.RUnlock()
	if !ok {
		return []protocol.Member{}
	}
	return room.presence.Members()
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.RoomID]
	if !ok {
		room = NewRoom(client.RoomID)
		h.rooms[client.RoomID] = room
	}
	room.clients[client.ClientID] = client
	first := room.presence.Join(client.member())
	h.mu.Unlock()

	if first {
		h.broadcastPresence(protocol.TypePresenceJoin, client)
	}
	slog.Info("client joined", "user", client.UserID, "room", client.RoomID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.RoomID]
	if !ok || room.clients[client.ClientID] != client {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	close(client.send)
	last := room.presence.Leave(client.UserID)

	if len(room.clients) == 0 {
		delete(h.rooms, client.RoomID)
	}
	h.mu.Unlock()

	if last {
		h.broadcastPresence(protocol.TypePresenceLeave, client)
	}
	slog.Info("client left", "user", client.UserID, "room", client.RoomID)
}

func (h *Hub) broadcastPresence(typ string, client *Client) {
	frame, err := protocol.NewPresence(typ, client.RoomID, client.member())
	if err != nil {
		slog.Error("marshal presence", "error", err)
		return
	}
	h.broadcastToRoom(client.RoomID, frame, client.ClientID)
}

// handleFrame persists a drawing frame and relays it to the rest of the
// room, stamped with the sender.
func (h *Hub) handleFrame(ctx context.Context, sender *Client, env *protocol.Envelope) {
	switch env.Type {
	case protocol.TypeChat:
		s, err := env.Shape()
		if err != nil {
			slog.Warn("invalid shape", "error", err, "user", sender.UserID, "room", sender.RoomID)
			return
		}
		if h.shapes != nil {
			if err := h.shapes.AppendShape(ctx, sender.RoomID, sender.UserID, s); err != nil {
				slog.Error("persist shape", "error", err, "room", sender.RoomID, "id", s.ShapeID())
			}
		}
	case protocol.TypeDelete:
		if h.shapes != nil {
			if err := h.shapes.DeleteShape(ctx, sender.RoomID, env.ID); err != nil {
				slog.Error("persist delete", "error", err, "room", sender.RoomID, "id", env.ID)
			}
		}
	default:
		slog.Warn("unknown frame type", "type", env.Type, "user", sender.UserID)
		return
	}

	env.RoomID = sender.RoomID
	env.UserID = sender.UserID
	frame, err := env.Marshal()
	if err != nil {
		slog.Error("marshal frame", "error", err)
		return
	}
	h.broadcastToRoom(sender.RoomID, frame, sender.ClientID)
}

func (h *Hub) broadcastToRoom(roomID string, frame []byte, excludeClientID string) {
	// Sending under the read lock keeps removeClient from closing a send
	// channel mid-broadcast. Send never blocks.
	h.mu.RLock()
	defer h.mu.RUnlock()

	room, ok := h.rooms[roomID]
	if !ok {
		return
	}
	for id, c := range room.clients {
		if id != excludeClientID {
			c.Send(frame)
		}
	}
}
