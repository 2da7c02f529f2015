// Package history loads a room's persisted shapes from the server.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/drawroom/drawroom/internal/shape"
)

var ErrUnexpectedStatus = errors.New("unexpected status")

// maxBody bounds the shapes response; larger scenes are rejected.
const maxBody = 16 << 20

// ShapesResponse is the body of GET /api/rooms/{roomId}/shapes.
type ShapesResponse struct {
	Shapes json.RawMessage `json:"shapes"`
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
}

func NewClient(baseURL, token string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{baseURL: baseURL, token: token, http: httpClient, logger: logger}
}

// FetchShapes returns the room's shapes in z-order. Entries the client
// cannot decode are skipped.
func (c *Client) FetchShapes(ctx context.Context, roomID string) ([]shape.Shape, error) {
	endpoint, err := url.JoinPath(c.baseURL, "api", "rooms", roomID, "shapes")
	if err != nil {
		return nil, fmt.Errorf("build shapes url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("new shapes request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch shapes: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch shapes: %w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var body ShapesResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode shapes response: %w", err)
	}
	if len(body.Shapes) == 0 {
		return nil, nil
	}

	shapes, err := shape.DecodeList(body.Shapes)
	if shapes == nil && err != nil {
		return nil, fmt.Errorf("decode shapes: %w", err)
	}
	if err != nil {
		c.logger.Debug("skipped undecodable shapes", "room", roomID, "error", err)
	}
	return shapes, nil
}
