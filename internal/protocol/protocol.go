// Package protocol defines the JSON frames exchanged over a room channel.
//
//	{"type":"chat","message":"{\"shape\":{...}}","roomId":"..."}
//	{"type":"delete","id":"...","roomId":"..."}
//
// Frames may also carry the origin session, and the relay stamps the
// sending user. Receivers ignore types they do not know.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/drawroom/drawroom/internal/shape"
)

const (
	TypeChat   = "chat"
	TypeDelete = "delete"

	// Relay notices
	TypePresenceJoin  = "presence.join"
	TypePresenceLeave = "presence.leave"
)

var ErrMalformedFrame = errors.New("malformed frame")

type Envelope struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId,omitempty"`

	// For chat: JSON-encoded ChatPayload
	Message string `json:"message,omitempty"`

	// For delete: shape id
	ID string `json:"id,omitempty"`

	// Session that produced the event, used to drop echoes
	Origin string `json:"origin,omitempty"`

	// Stamped by the relay
	UserID      string `json:"userId,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// ChatPayload is the decoded form of a chat envelope's message.
type ChatPayload struct {
	Shape json.RawMessage `json:"shape"`
}

// NewAdd builds the frame announcing a finalized shape.
func NewAdd(roomID, origin string, s shape.Shape) ([]byte, error) {
	shapeJSON, err := shape.Encode(s)
	if err != nil {
		return nil, fmt.Errorf("encode shape: %w", err)
	}
	message, err := json.Marshal(ChatPayload{Shape: shapeJSON})
	if err != nil {
		return nil, fmt.Errorf("marshal chat payload: %w", err)
	}
	return json.Marshal(Envelope{
		Type:    TypeChat,
		RoomID:  roomID,
		Message: string(message),
		Origin:  origin,
	})
}

// NewDelete builds the frame announcing an erased shape.
func NewDelete(roomID, origin, id string) ([]byte, error) {
	return json.Marshal(Envelope{
		Type:   TypeDelete,
		RoomID: roomID,
		ID:     id,
		Origin: origin,
	})
}

// Parse decodes a frame. Only the envelope is checked; use Shape to decode a
// chat payload.
func Parse(frame []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedFrame)
	}
	if env.Type == TypeDelete && env.ID == "" {
		return nil, fmt.Errorf("%w: delete without id", ErrMalformedFrame)
	}
	return &env, nil
}

// Shape decodes the shape carried by a chat envelope.
func (e *Envelope) Shape() (shape.Shape, error) {
	if e.Type != TypeChat {
		return nil, fmt.Errorf("%w: %s frame carries no shape", ErrMalformedFrame, e.Type)
	}
	var payload ChatPayload
	if err := json.Unmarshal([]byte(e.Message), &payload); err != nil {
		return nil, fmt.Errorf("%w: message: %v", ErrMalformedFrame, err)
	}
	if len(payload.Shape) == 0 {
		return nil, fmt.Errorf("%w: message without shape", ErrMalformedFrame)
	}
	return shape.Decode(payload.Shape)
}

// Marshal re-encodes the envelope, e.g. after the relay stamps it.
func (e *Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Member is one participant of a room as reported by the relay.
type Member struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

// NewPresence builds a presence.join or presence.leave notice.
func NewPresence(typ, roomID string, m Member) ([]byte, error) {
	return json.Marshal(Envelope{
		Type:        typ,
		RoomID:      roomID,
		UserID:      m.UserID,
		DisplayName: m.DisplayName,
	})
}
