package collab

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/drawroom/drawroom/internal/protocol"
	"github.com/drawroom/drawroom/internal/shape"
	"github.com/drawroom/drawroom/internal/wsclient"
)

type memLog struct {
	mu      sync.Mutex
	shapes  map[string][]string // roomID -> shape ids
	deleted []string
}

func (m *memLog) AppendShape(_ context.Context, roomID, _ string, s shape.Shape) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shapes[roomID] = append(m.shapes[roomID], s.ShapeID())
	return nil
}

func (m *memLog) DeleteShape(_ context.Context, _ string, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *memLog) snapshot(roomID string) ([]string, []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.shapes[roomID]...), append([]string(nil), m.deleted...)
}

func newRelay(t *testing.T) (*httptest.Server, *Hub, *memLog) {
	t.Helper()
	log := &memLog{shapes: make(map[string][]string)}
	hub := NewHub(log)
	go hub.Run()

	authenticate := func(r *http.Request) (Identity, error) {
		user := r.URL.Query().Get("token")
		if user == "" {
			return Identity{}, errors.New("no token")
		}
		return Identity{UserID: user, DisplayName: strings.ToUpper(user)}, nil
	}
	resolve := func(_ context.Context, idOrSlug string) (string, error) {
		if idOrSlug == "missing" {
			return "", errors.New("not found")
		}
		return "room_" + idOrSlug, nil
	}
	h := NewHandler(hub, authenticate, resolve, nil)

	r := mux.NewRouter()
	r.HandleFunc("/ws/room/{roomId}", h.ServeRoom)
	r.HandleFunc("/api/rooms/{roomId}/presence", h.Presence)
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		hub.Stop()
		srv.Close()
	})
	return srv, hub, log
}

func dial(t *testing.T, srv *httptest.Server, room, user string) *wsclient.Conn {
	t.Helper()
	url, err := wsclient.RoomURL(srv.URL, room, user)
	if err != nil {
		t.Fatal(err)
	}
	conn, err := wsclient.Dial(context.Background(), url, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func next(t *testing.T, conn *wsclient.Conn) *protocol.Envelope {
	t.Helper()
	select {
	case frame, ok := <-conn.Receive():
		if !ok {
			t.Fatal("connection closed")
		}
		env, err := protocol.Parse(frame)
		if err != nil {
			t.Fatal(err)
		}
		return env
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for frame")
	}
	return nil
}

func waitMembers(t *testing.T, hub *Hub, roomID string, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for len(hub.Members(roomID)) != n {
		if time.Now().After(deadline) {
			t.Fatalf("room %s has %d members, want %d", roomID, len(hub.Members(roomID)), n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRelayPersistsAndFansOut(t *testing.T) {
	srv, hub, log := newRelay(t)
	ctx := context.Background()

	alice := dial(t, srv, "r1", "alice")
	waitMembers(t, hub, "room_r1", 1)
	bob := dial(t, srv, "r1", "bob")

	join := next(t, alice)
	if join.Type != protocol.TypePresenceJoin || join.UserID != "bob" || join.DisplayName != "BOB" {
		t.Fatalf("join = %+v", join)
	}

	add, err := protocol.NewAdd("r1", "bob-session", shape.Rect{ID: "s1", Width: 10, Height: 10})
	if err != nil {
		t.Fatal(err)
	}
	if err := bob.Send(ctx, add); err != nil {
		t.Fatal(err)
	}

	got := next(t, alice)
	if got.Type != protocol.TypeChat || got.UserID != "bob" || got.Origin != "bob-session" {
		t.Fatalf("relayed = %+v", got)
	}
	if s, err := got.Shape(); err != nil || s.ShapeID() != "s1" {
		t.Errorf("relayed shape = %v, %v", s, err)
	}

	del, _ := protocol.NewDelete("r1", "alice-session", "s1")
	if err := alice.Send(ctx, del); err != nil {
		t.Fatal(err)
	}
	if got := next(t, bob); got.Type != protocol.TypeDelete || got.ID != "s1" {
		t.Fatalf("relayed delete = %+v", got)
	}

	shapes, deleted := log.snapshot("room_r1")
	if len(shapes) != 1 || shapes[0] != "s1" {
		t.Errorf("persisted shapes = %v", shapes)
	}
	if len(deleted) != 1 || deleted[0] != "s1" {
		t.Errorf("persisted deletes = %v", deleted)
	}
}

func TestRelaySkipsMalformedFrames(t *testing.T) {
	srv, hub, log := newRelay(t)
	ctx := context.Background()

	alice := dial(t, srv, "r1", "alice")
	waitMembers(t, hub, "room_r1", 1)
	bob := dial(t, srv, "r1", "bob")
	next(t, alice) // bob's join

	bob.Send(ctx, []byte(`not json`))
	bob.Send(ctx, []byte(`{"type":"chat","message":"{\"shape\":{\"type\":\"blob\",\"id\":\"x\"}}"}`))
	bob.Send(ctx, []byte(`{"type":"cursor","roomId":"r1"}`))
	good, _ := protocol.NewDelete("r1", "", "gone")
	bob.Send(ctx, good)

	// Frames are handled in order, so the first frame alice sees is the
	// delete.
	if got := next(t, alice); got.Type != protocol.TypeDelete || got.ID != "gone" {
		t.Fatalf("first relayed frame = %+v", got)
	}
	if shapes, _ := log.snapshot("room_r1"); len(shapes) != 0 {
		t.Errorf("malformed shapes persisted: %v", shapes)
	}
}

func TestRoomsAreIsolated(t *testing.T) {
	srv, hub, _ := newRelay(t)
	ctx := context.Background()

	other := dial(t, srv, "r2", "carol")
	alice := dial(t, srv, "r1", "alice")
	waitMembers(t, hub, "room_r1", 1)
	waitMembers(t, hub, "room_r2", 1)
	bob := dial(t, srv, "r1", "bob")
	next(t, alice)

	add, _ := protocol.NewAdd("r1", "", shape.Circle{ID: "c", Radius: 2})
	bob.Send(ctx, add)
	next(t, alice)

	select {
	case frame := <-other.Receive():
		t.Errorf("room r2 received %s", frame)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPresenceEndpointAndLeave(t *testing.T) {
	srv, hub, _ := newRelay(t)

	alice := dial(t, srv, "r1", "alice")
	waitMembers(t, hub, "room_r1", 1)
	bob := dial(t, srv, "r1", "bob")
	next(t, alice)

	resp, err := http.Get(srv.URL + "/api/rooms/r1/presence")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body struct {
		Members []protocol.Member `json:"members"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Members) != 2 || body.Members[0].DisplayName != "ALICE" || body.Members[1].DisplayName != "BOB" {
		t.Errorf("members = %+v", body.Members)
	}

	bob.Close()
	if got := next(t, alice); got.Type != protocol.TypePresenceLeave || got.UserID != "bob" {
		t.Errorf("leave = %+v", got)
	}
	waitMembers(t, hub, "room_r1", 1)
}

func TestServeRoomRejects(t *testing.T) {
	srv, _, _ := newRelay(t)
	httpURL := srv.URL + "/ws/room/"

	for _, tt := range []struct {
		path string
		want int
	}{
		{"r1", http.StatusUnauthorized},
		{"missing?token=alice", http.StatusNotFound},
	} {
		resp, err := http.Get(httpURL + tt.path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.path, resp.StatusCode, tt.want)
		}
	}
}

func TestPresenceManagerCountsConnections(t *testing.T) {
	pm := NewPresenceManager()
	m := protocol.Member{UserID: "u", DisplayName: "U"}

	if !pm.Join(m) {
		t.Error("first join not reported")
	}
	if pm.Join(m) {
		t.Error("second tab reported as join")
	}
	if pm.Leave("u") {
		t.Error("closing one of two tabs reported as leave")
	}
	if !pm.Leave("u") {
		t.Error("last leave not reported")
	}
	if pm.Leave("u") {
		t.Error("leave of absent user reported")
	}
	if n := len(pm.Members()); n != 0 {
		t.Errorf("Members = %d, want 0", n)
	}
}
