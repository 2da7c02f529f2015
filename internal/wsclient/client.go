// Package wsclient is the websocket room channel used by native clients.
package wsclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 64 * 1024
	bufferSize = 256
)

var (
	ErrClosed     = errors.New("channel closed")
	ErrBufferFull = errors.New("send buffer full")
)

// Conn is a room channel over a websocket. Outbound frames are buffered and
// written by a single goroutine; inbound frames are delivered on Receive
// in arrival order.
type Conn struct {
	conn   *websocket.Conn
	send   chan []byte
	recv   chan []byte
	logger *slog.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// RoomURL builds the relay address for roomID from the server base URL,
// e.g. "http://localhost:8080".
func RoomURL(base, roomID, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u = u.JoinPath("ws", "room", roomID)
	if token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Dial connects to a room relay and starts the read and write pumps.
func Dial(ctx context.Context, rawURL string, header http.Header, logger *slog.Logger) (*Conn, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, _, err := websocket.Dial(ctx, rawURL, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		return nil, fmt.Errorf("dial room: %w", err)
	}
	conn.SetReadLimit(maxMsgSize)

	pumpCtx, cancel := context.WithCancel(context.Background())
	c := &Conn{
		conn:   conn,
		send:   make(chan []byte, bufferSize),
		recv:   make(chan []byte, bufferSize),
		logger: logger,
		ctx:    pumpCtx,
		cancel: cancel,
	}
	c.wg.Add(2)
	go c.readPump()
	go c.writePump()
	return c, nil
}

// Send queues a frame without waiting for delivery. A full buffer drops the
// frame.
func (c *Conn) Send(_ context.Context, frame []byte) error {
	if c.ctx.Err() != nil {
		return ErrClosed
	}
	select {
	case c.send <- frame:
		return nil
	default:
		c.logger.Warn("room send buffer full, dropping frame")
		return ErrBufferFull
	}
}

// Receive returns the inbound frames. The channel is closed when the
// connection ends.
func (c *Conn) Receive() <-chan []byte {
	return c.recv
}

// Close ends the connection and waits for the pumps to exit.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.cancel()
		c.conn.Close(websocket.StatusNormalClosure, "")
	})
	c.wg.Wait()
	return nil
}

func (c *Conn) readPump() {
	defer func() {
		close(c.recv)
		c.cancel()
		c.wg.Done()
	}()

	for {
		_, data, err := c.conn.Read(c.ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && c.ctx.Err() == nil {
				c.logger.Debug("room read error", "error", err)
			}
			return
		}
		select {
		case c.recv <- data:
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
		c.wg.Done()
	}()

	for {
		select {
		case frame := <-c.send:
			writeCtx, cancel := context.WithTimeout(c.ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, frame)
			cancel()
			if err != nil {
				c.logger.Debug("room write error", "error", err)
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(c.ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				c.logger.Debug("room ping failed", "error", err)
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}
