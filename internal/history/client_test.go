package history

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/drawroom/drawroom/internal/shape"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestFetchShapes(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotAuth = r.URL.Path, r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"shapes":[
			{"type":"rect","id":"a","x":1,"y":2,"width":3,"height":4},
			{"type":"star","id":"bad"},
			{"type":"text","id":"b","x":5,"y":6,"text":"hi"}
		]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", nil, quiet)
	shapes, err := c.FetchShapes(context.Background(), "room_1")
	if err != nil {
		t.Fatal(err)
	}
	if gotPath != "/api/rooms/room_1/shapes" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if len(shapes) != 2 || shapes[0].ShapeID() != "a" || shapes[1].ShapeID() != "b" {
		t.Fatalf("shapes = %#v", shapes)
	}
	if txt, ok := shapes[1].(shape.Text); !ok || txt.Text != "hi" {
		t.Errorf("second shape = %#v", shapes[1])
	}
}

func TestFetchShapesEmptyRoom(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"shapes":[]}`)
	}))
	defer srv.Close()

	shapes, err := NewClient(srv.URL, "", nil, quiet).FetchShapes(context.Background(), "r")
	if err != nil || len(shapes) != 0 {
		t.Errorf("FetchShapes = %v, %v", shapes, err)
	}
}

func TestFetchShapesErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"not found", http.StatusNotFound, `{"error":"room not found"}`, ErrUnexpectedStatus},
		{"bad json", http.StatusOK, `{"shapes":`, nil},
		{"shapes not a list", http.StatusOK, `{"shapes":{}}`, shape.ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, "", nil, quiet).FetchShapes(context.Background(), "r")
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
