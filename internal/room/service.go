// Package room serves room metadata, persisted shape history and scene
// exports.
package room

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/drawroom/drawroom/internal/db"
	"github.com/drawroom/drawroom/internal/shape"
	"github.com/drawroom/drawroom/internal/typeid"
)

var (
	ErrNotFound    = errors.New("room not found")
	ErrSlugTaken   = errors.New("slug already taken")
	ErrInvalidSlug = errors.New("invalid slug")
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,62}$`)

// Store is the slice of db.Queries the room service needs.
type Store interface {
	CreateRoom(ctx context.Context, arg db.CreateRoomParams) (db.Room, error)
	GetRoom(ctx context.Context, idOrSlug string) (db.Room, error)
	ListRoomsForUser(ctx context.Context, userID string) ([]db.Room, error)
	AppendShape(ctx context.Context, arg db.AppendShapeParams) error
	DeleteShape(ctx context.Context, roomID, id string) (bool, error)
	ListShapes(ctx context.Context, roomID string) ([]db.Shape, error)
}

type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

type Room struct {
	ID        string `json:"id"`
	Slug      string `json:"slug"`
	AdminID   string `json:"adminId"`
	CreatedAt string `json:"createdAt"`
}

func (s *Service) Create(ctx context.Context, slug, adminID string) (*Room, error) {
	if !slugPattern.MatchString(slug) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
	}
	dbRoom, err := s.store.CreateRoom(ctx, db.CreateRoomParams{
		ID:      typeid.NewRoomID(),
		Slug:    slug,
		AdminID: adminID,
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("create room: %w", err)
	}
	return toRoom(dbRoom), nil
}

// Get finds a room by id or slug.
func (s *Service) Get(ctx context.Context, idOrSlug string) (*Room, error) {
	dbRoom, err := s.store.GetRoom(ctx, idOrSlug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get room: %w", err)
	}
	return toRoom(dbRoom), nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Room, error) {
	dbRooms, err := s.store.ListRoomsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	rooms := make([]Room, len(dbRooms))
	for i, r := range dbRooms {
		rooms[i] = *toRoom(r)
	}
	return rooms, nil
}

// Shapes returns the room's persisted shapes in z-order. Rows that no longer
// decode are skipped.
func (s *Service) Shapes(ctx context.Context, roomID string) ([]shape.Shape, error) {
	rows, err := s.store.ListShapes(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("list shapes: %w", err)
	}
	shapes := make([]shape.Shape, 0, len(rows))
	for _, row := range rows {
		sh, err := shape.Decode(row.Body)
		if err != nil {
			s.logger.Warn("skipping stored shape", "room", roomID, "id", row.ID, "error", err)
			continue
		}
		shapes = append(shapes, sh)
	}
	return shapes, nil
}

// AppendShape persists a shape relayed by userID.
func (s *Service) AppendShape(ctx context.Context, roomID, userID string, sh shape.Shape) error {
	body, err := shape.Encode(sh)
	if err != nil {
		return fmt.Errorf("encode shape: %w", err)
	}
	err = s.store.AppendShape(ctx, db.AppendShapeParams{
		RoomID:    roomID,
		ID:        sh.ShapeID(),
		Kind:      string(sh.Kind()),
		Body:      body,
		CreatedBy: userID,
	})
	if err != nil {
		return fmt.Errorf("append shape: %w", err)
	}
	return nil
}

// DeleteShape removes a persisted shape. Deleting an absent id is not an
// error.
func (s *Service) DeleteShape(ctx context.Context, roomID, id string) error {
	if _, err := s.store.DeleteShape(ctx, roomID, id); err != nil {
		return fmt.Errorf("delete shape: %w", err)
	}
	return nil
}

func toRoom(r db.Room) *Room {
	return &Room{
		ID:        r.ID,
		Slug:      r.Slug,
		AdminID:   r.AdminID,
		CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ResolveID maps a room id or slug to the room id.
func (s *Service) ResolveID(ctx context.Context, idOrSlug string) (string, error) {
	r, err := s.Get(ctx, idOrSlug)
	if err != nil {
		return "", err
	}
	return r.ID, nil
}
