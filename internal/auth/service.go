package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/drawroom/drawroom/internal/db"
	"github.com/drawroom/drawroom/internal/typeid"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidInput       = errors.New("invalid input")
)

const (
	bcryptCost     = 12
	tokenTTL       = 24 * time.Hour
	minPasswordLen = 8
)

// Store is the slice of db.Queries the auth service needs.
type Store interface {
	CreateUser(ctx context.Context, arg db.CreateUserParams) (db.User, error)
	GetUserByEmail(ctx context.Context, email string) (db.User, error)
	GetUserByID(ctx context.Context, id string) (db.User, error)
}

type Service struct {
	store     Store
	jwtSecret []byte
	now       func() time.Time
}

func NewService(store Store, jwtSecret string) *Service {
	return &Service{
		store:     store,
		jwtSecret: []byte(jwtSecret),
		now:       time.Now,
	}
}

type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Signup registers a user and signs them in. Emails are matched
// case-insensitively.
func (s *Service) Signup(ctx context.Context, email, password, name string) (*AuthResult, error) {
	email, name = normalizeEmail(email), strings.TrimSpace(name)
	switch {
	case email == "" || password == "" || name == "":
		return nil, fmt.Errorf("%w: email, password and name are required", ErrInvalidInput)
	case !strings.Contains(email, "@"):
		return nil, fmt.Errorf("%w: malformed email", ErrInvalidInput)
	case utf8.RuneCountInString(password) < minPasswordLen:
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	dbUser, err := s.store.CreateUser(ctx, db.CreateUserParams{
		ID:       typeid.NewUserID(),
		Email:    email,
		Password: string(hash),
		Name:     name,
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.result(dbUser)
}

func (s *Service) Signin(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	dbUser, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(dbUser.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.result(dbUser)
}

func (s *Service) GetUser(ctx context.Context, userID string) (*User, error) {
	dbUser, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	u := toUser(dbUser)
	return &u, nil
}

// ValidateToken returns the user id carried by a token this service issued.
func (s *Service) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID, err := token.Claims.GetSubject()
	if err != nil || userID == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return userID, nil
}

func (s *Service) result(dbUser db.User) (*AuthResult, error) {
	token, err := s.issueToken(dbUser.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: toUser(dbUser)}, nil
}

func (s *Service) issueToken(userID string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func toUser(u db.User) User {
	return User{ID: u.ID, Email: u.Email, Name: u.Name}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
