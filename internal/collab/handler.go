package collab

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// Identity is the authenticated user behind a websocket upgrade.
type Identity struct {
	UserID      string
	DisplayName string
}

type Handler struct {
	hub *Hub
	// authenticate resolves the caller of an upgrade request.
	authenticate func(r *http.Request) (Identity, error)
	// resolveRoom maps a room id or slug to the room id.
	resolveRoom    func(ctx context.Context, idOrSlug string) (string, error)
	originPatterns []string
}

func NewHandler(
	hub *Hub,
	authenticate func(*http.Request) (Identity, error),
	resolveRoom func(context.Context, string) (string, error),
	originPatterns []string,
) *Handler {
	return &Handler{
		hub:            hub,
		authenticate:   authenticate,
		resolveRoom:    resolveRoom,
		originPatterns: originPatterns,
	}
}

// ServeRoom upgrades GET /ws/room/{roomId} and pumps frames until the
// client goes away.
func (h *Handler) ServeRoom(w http.ResponseWriter, r *http.Request) {
	who, err := h.authenticate(r)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	roomID, err := h.resolveRoom(r.Context(), mux.Vars(r)["roomId"])
	if err != nil {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	client := NewClient(h.hub, conn, who.UserID, who.DisplayName, roomID, uuid.NewString())
	if !h.hub.Register(client) {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}

// Presence serves GET /api/rooms/{roomId}/presence.
func (h *Handler) Presence(w http.ResponseWriter, r *http.Request) {
	roomID, err := h.resolveRoom(r.Context(), mux.Vars(r)["roomId"])
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "room not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": h.hub.Members(roomID)})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
