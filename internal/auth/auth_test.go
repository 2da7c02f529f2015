package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/drawroom/drawroom/internal/db"
)

type memStore struct {
	mu    sync.Mutex
	users map[string]db.User
}

func newMemStore() *memStore {
	return &memStore{users: make(map[string]db.User)}
}

func (m *memStore) CreateUser(_ context.Context, arg db.CreateUserParams) (db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == arg.Email {
			return db.User{}, &pgconn.PgError{Code: "23505"}
		}
	}
	u := db.User{ID: arg.ID, Email: arg.Email, Password: arg.Password, Name: arg.Name, CreatedAt: time.Now()}
	m.users[u.ID] = u
	return u, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return db.User{}, pgx.ErrNoRows
}

func (m *memStore) GetUserByID(_ context.Context, id string) (db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return db.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func TestSignupSigninAndToken(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemStore(), "secret")

	res, err := svc.Signup(ctx, "ada@example.com", "password1", "Ada")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(res.User.ID, "user_") || res.User.Name != "Ada" {
		t.Errorf("user = %+v", res.User)
	}

	userID, err := svc.ValidateToken(res.Token)
	if err != nil || userID != res.User.ID {
		t.Errorf("ValidateToken = %q, %v", userID, err)
	}

	if _, err := svc.Signup(ctx, "ada@example.com", "password2", "Ada 2"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate signup err = %v", err)
	}

	if _, err := svc.Signin(ctx, "ada@example.com", "password1"); err != nil {
		t.Errorf("signin: %v", err)
	}
	for _, tt := range []struct{ email, password string }{
		{"ada@example.com", "wrong-password"},
		{"nobody@example.com", "password1"},
	} {
		if _, err := svc.Signin(ctx, tt.email, tt.password); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Signin(%s) err = %v", tt.email, err)
		}
	}
}

func TestSignupValidatesInput(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemStore(), "secret")

	tests := []struct {
		name, email, password, display string
		wantMsg                        string
	}{
		{"missing name", "a@b.c", "password1", "  ", "required"},
		{"missing email", "", "password1", "A", "required"},
		{"no at sign", "ab.c", "password1", "A", "malformed email"},
		{"short password", "a@b.c", "short", "A", "at least 8"},
		{"multibyte short", "a@b.c", "ééééééé", "A", "at least 8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Signup(ctx, tt.email, tt.password, tt.display)
			if !errors.Is(err, ErrInvalidInput) || !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("err = %v, want invalid input mentioning %q", err, tt.wantMsg)
			}
		})
	}

	if _, err := svc.Signin(ctx, " ", "password1"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("blank signin err = %v", err)
	}
}

func TestEmailIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemStore(), "secret")

	res, err := svc.Signup(ctx, "  Ada@Example.com ", "password1", " Ada ")
	if err != nil {
		t.Fatal(err)
	}
	if res.User.Email != "ada@example.com" || res.User.Name != "Ada" {
		t.Errorf("user = %+v", res.User)
	}
	if _, err := svc.Signin(ctx, "ADA@example.com", "password1"); err != nil {
		t.Errorf("signin with different case: %v", err)
	}
	if _, err := svc.Signup(ctx, "ada@EXAMPLE.com", "password1", "Ada"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate signup in other case err = %v", err)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	svc := NewService(newMemStore(), "secret")
	other := NewService(newMemStore(), "other-secret")

	token, err := other.issueToken("user_1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("foreign token err = %v", err)
	}

	expired := NewService(newMemStore(), "secret")
	expired.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	token, err = expired.issueToken("user_1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token err = %v", err)
	}

	if _, err := svc.ValidateToken("not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage token err = %v", err)
	}
}

func TestSignupHandler(t *testing.T) {
	h := NewHandler(NewService(newMemStore(), "secret"))

	tests := []struct {
		name    string
		body    string
		want    int
		wantErr string
	}{
		{"created", `{"email":"a@b.c","password":"password1","name":"A"}`, http.StatusCreated, ""},
		{"duplicate", `{"email":"a@b.c","password":"password1","name":"A"}`, http.StatusConflict, "email already registered"},
		{"short password", `{"email":"x@b.c","password":"short","name":"X"}`, http.StatusBadRequest, "invalid input: password must be at least 8 characters"},
		{"missing name", `{"email":"y@b.c","password":"password1"}`, http.StatusBadRequest, "invalid input: email, password and name are required"},
		{"bad json", `{`, http.StatusBadRequest, "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Signup(rec, httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(tt.body)))
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body)
			}
			if tt.wantErr == "" {
				return
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body["error"] != tt.wantErr {
				t.Errorf("error = %q, want %q", body["error"], tt.wantErr)
			}
		})
	}
}

func TestSigninHandler(t *testing.T) {
	svc := NewService(newMemStore(), "secret")
	if _, err := svc.Signup(context.Background(), "a@b.c", "password1", "A"); err != nil {
		t.Fatal(err)
	}
	h := NewHandler(svc)

	rec := httptest.NewRecorder()
	h.Signin(rec, httptest.NewRequest(http.MethodPost, "/auth/signin",
		strings.NewReader(`{"email":"a@b.c","password":"password1"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var res AuthResult
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.Token == "" || res.User.Email != "a@b.c" {
		t.Errorf("result = %+v", res)
	}

	rec = httptest.NewRecorder()
	h.Signin(rec, httptest.NewRequest(http.MethodPost, "/auth/signin",
		bytes.NewBufferString(`{"email":"a@b.c","password":"nope-nope"}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad password status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Signin(rec, httptest.NewRequest(http.MethodPost, "/auth/signin",
		strings.NewReader(`{"email":"a@b.c"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing password status = %d", rec.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	svc := NewService(newMemStore(), "secret")
	token, err := svc.issueToken("user_42")
	if err != nil {
		t.Fatal(err)
	}

	var seen string
	handler := svc.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserIDFromContext(r.Context())
	}))

	tests := []struct {
		header string
		want   int
	}{
		{"Bearer " + token, http.StatusOK},
		{"", http.StatusUnauthorized},
		{"Token " + token, http.StatusUnauthorized},
		{"Bearer junk", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		seen = ""
		req := httptest.NewRequest(http.MethodGet, "/api/rooms", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("%q: status = %d, want %d", tt.header, rec.Code, tt.want)
		}
		if tt.want == http.StatusOK && seen != "user_42" {
			t.Errorf("user in context = %q", seen)
		}
	}
}

func TestUserFromQuery(t *testing.T) {
	svc := NewService(newMemStore(), "secret")
	token, _ := svc.issueToken("user_7")

	got, err := svc.UserFromQuery(httptest.NewRequest(http.MethodGet, "/ws/room/r?token="+token, nil))
	if err != nil || got != "user_7" {
		t.Errorf("UserFromQuery = %q, %v", got, err)
	}
	if _, err := svc.UserFromQuery(httptest.NewRequest(http.MethodGet, "/ws/room/r", nil)); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("missing token err = %v", err)
	}
}
