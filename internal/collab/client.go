package collab

import (
	"context"
	"log/slog"
	"time"

	"github.com/coder/websocket"

	"github.com/drawroom/drawroom/internal/protocol"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 64 * 1024
	sendBuffer = 256
)

type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	UserID      string
	DisplayName string
	RoomID      string
	ClientID    string
}

func NewClient(hub *Hub, conn *websocket.Conn, userID, displayName, roomID, clientID string) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		UserID:      userID,
		DisplayName: displayName,
		RoomID:      roomID,
		ClientID:    clientID,
	}
}

func (c *Client) member() protocol.Member {
	return protocol.Member{UserID: c.UserID, DisplayName: c.DisplayName}
}

func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMsgSize)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
				slog.Debug("read error", "error", err, "user", c.UserID, "room", c.RoomID)
			}
			return
		}

		env, err := protocol.Parse(data)
		if err != nil {
			slog.Warn("invalid frame", "error", err, "user", c.UserID, "room", c.RoomID)
			continue
		}

		c.hub.handleFrame(ctx, c, env)
	}
}

func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				return
			}

			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, frame)
			cancel()
			if err != nil {
				slog.Debug("write error", "error", err, "user", c.UserID)
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// Send queues a frame for the write pump, dropping it when the client is
// too slow to keep up.
func (c *Client) Send(frame []byte) {
	select {
	case c.send <- frame:
	default:
		slog.Warn("client send buffer full, dropping frame", "user", c.UserID, "room", c.RoomID)
	}
}
