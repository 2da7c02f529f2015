package room

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/drawroom/drawroom/internal/auth"
	"github.com/drawroom/drawroom/internal/shape"
)

type Handler struct {
	service  *Service
	exporter Exporter
}

func NewHandler(service *Service, exporter Exporter) *Handler {
	return &Handler{service: service, exporter: exporter}
}

type createRequest struct {
	Slug string `json:"slug"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	room, err := h.service.Create(r.Context(), req.Slug, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, room)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	rooms, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rooms)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	room, err := h.service.Get(r.Context(), mux.Vars(r)["roomId"])
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, room)
}

// Shapes serves the room's history as {"shapes":[...]} in z-order.
func (h *Handler) Shapes(w http.ResponseWriter, r *http.Request) {
	shapes, ok := h.loadShapes(w, r)
	if !ok {
		return
	}

	encoded := make([]json.RawMessage, 0, len(shapes))
	for _, s := range shapes {
		data, err := shape.Encode(s)
		if err != nil {
			slog.Error("encode shape", "error", err, "id", s.ShapeID())
			continue
		}
		encoded = append(encoded, data)
	}

	writeJSON(w, http.StatusOK, map[string]any{"shapes": encoded})
}

// Export serves export.png and export.pdf.
func (h *Handler) Export(format Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shapes, ok := h.loadShapes(w, r)
		if !ok {
			return
		}

		var buf bytes.Buffer
		if err := h.exporter.Export(&buf, format, shapes); err != nil {
			slog.Error("export failed", "error", err, "format", format)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "export failed"})
			return
		}

		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.WriteHeader(http.StatusOK)
		w.Write(buf.Bytes())
	}
}

func (h *Handler) loadShapes(w http.ResponseWriter, r *http.Request) ([]shape.Shape, bool) {
	room, err := h.service.Get(r.Context(), mux.Vars(r)["roomId"])
	if err != nil {
		handleServiceError(w, err)
		return nil, false
	}
	shapes, err := h.service.Shapes(r.Context(), room.ID)
	if err != nil {
		handleServiceError(w, err)
		return nil, false
	}
	return shapes, true
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "room not found"})
	case errors.Is(err, ErrSlugTaken):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "slug already taken"})
	case errors.Is(err, ErrInvalidSlug):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "slug must be 2-63 lowercase letters, digits or dashes"})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
