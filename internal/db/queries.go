// Package db holds the Postgres schema and the queries the server runs
// against it.
package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// IsUniqueViolation reports whether err is a Postgres unique_violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

type User struct {
	ID        string
	Email     string
	Password  string
	Name      string
	CreatedAt time.Time
}

type Room struct {
	ID        string
	Slug      string
	AdminID   string
	CreatedAt time.Time
}

type Shape struct {
	RoomID    string
	ID        string
	Seq       int64
	Kind      string
	Body      json.RawMessage
	CreatedBy string
	CreatedAt time.Time
}

type CreateUserParams struct {
	ID       string
	Email    string
	Password string
	Name     string
}

const createUser = `
INSERT INTO users (id, email, password, name)
VALUES ($1, $2, $3, $4)
RETURNING id, email, password, name, created_at`

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	var u User
	err := q.db.QueryRow(ctx, createUser, arg.ID, arg.Email, arg.Password, arg.Name).
		Scan(&u.ID, &u.Email, &u.Password, &u.Name, &u.CreatedAt)
	return u, err
}

const getUserByEmail = `
SELECT id, email, password, name, created_at FROM users WHERE email = $1`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := q.db.QueryRow(ctx, getUserByEmail, email).
		Scan(&u.ID, &u.Email, &u.Password, &u.Name, &u.CreatedAt)
	return u, err
}

const getUserByID = `
SELECT id, email, password, name, created_at FROM users WHERE id = $1`

func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	var u User
	err := q.db.QueryRow(ctx, getUserByID, id).
		Scan(&u.ID, &u.Email, &u.Password, &u.Name, &u.CreatedAt)
	return u, err
}

type CreateRoomParams struct {
	ID      string
	Slug    string
	AdminID string
}

const createRoom = `
INSERT INTO rooms (id, slug, admin_id)
VALUES ($1, $2, $3)
RETURNING id, slug, admin_id, created_at`

func (q *Queries) CreateRoom(ctx context.Context, arg CreateRoomParams) (Room, error) {
	var r Room
	err := q.db.QueryRow(ctx, createRoom, arg.ID, arg.Slug, arg.AdminID).
		Scan(&r.ID, &r.Slug, &r.AdminID, &r.CreatedAt)
	return r, err
}

const getRoom = `
SELECT id, slug, admin_id, created_at FROM rooms WHERE id = $1 OR slug = $1`

// GetRoom looks a room up by id or slug.
func (q *Queries) GetRoom(ctx context.Context, idOrSlug string) (Room, error) {
	var r Room
	err := q.db.QueryRow(ctx, getRoom, idOrSlug).
		Scan(&r.ID, &r.Slug, &r.AdminID, &r.CreatedAt)
	return r, err
}

const listRoomsForUser = `
SELECT DISTINCT r.id, r.slug, r.admin_id, r.created_at
FROM rooms r
LEFT JOIN shapes s ON s.room_id = r.id AND s.created_by = $1
WHERE r.admin_id = $1 OR s.id IS NOT NULL
ORDER BY r.created_at DESC`

// ListRoomsForUser returns the rooms a user created or has drawn in.
func (q *Queries) ListRoomsForUser(ctx context.Context, userID string) ([]Room, error) {
	rows, err := q.db.Query(ctx, listRoomsForUser, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Room, error) {
		var r Room
		err := row.Scan(&r.ID, &r.Slug, &r.AdminID, &r.CreatedAt)
		return r, err
	})
}

type AppendShapeParams struct {
	RoomID    string
	ID        string
	Kind      string
	Body      json.RawMessage
	CreatedBy string
}

const appendShape = `
INSERT INTO shapes (room_id, id, kind, body, created_by)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (room_id, id) DO NOTHING`

// AppendShape stores a shape on top of the room's scene. Re-appending an
// existing id is ignored.
func (q *Queries) AppendShape(ctx context.Context, arg AppendShapeParams) error {
	_, err := q.db.Exec(ctx, appendShape, arg.RoomID, arg.ID, arg.Kind, []byte(arg.Body), arg.CreatedBy)
	return err
}

const deleteShape = `
DELETE FROM shapes WHERE room_id = $1 AND id = $2`

// DeleteShape reports whether a row was removed.
func (q *Queries) DeleteShape(ctx context.Context, roomID, id string) (bool, error) {
	tag, err := q.db.Exec(ctx, deleteShape, roomID, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

const listShapes = `
SELECT room_id, id, seq, kind, body, created_by, created_at
FROM shapes WHERE room_id = $1 ORDER BY seq`

func (q *Queries) ListShapes(ctx context.Context, roomID string) ([]Shape, error) {
	rows, err := q.db.Query(ctx, listShapes, roomID)
	if err != nil {
		return nil, fmt.Errorf("query shapes: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Shape, error) {
		var s Shape
		var body []byte
		err := row.Scan(&s.RoomID, &s.ID, &s.Seq, &s.Kind, &body, &s.CreatedBy, &s.CreatedAt)
		s.Body = body
		return s, err
	})
}
