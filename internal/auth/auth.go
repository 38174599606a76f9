// Package auth registers users, verifies credentials and issues bearer tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/verte-zerg/typetrack/internal/model"
	"github.com/verte-zerg/typetrack/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("unable to login")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUserExists         = errors.New("username or email already registered")
)

const (
	DefaultBcryptCost = 8
	DefaultTokenTTL   = 7 * 24 * time.Hour

	minUsernameLength = 3
	maxUsernameLength = 30
	minPasswordLength = 6
)

// ValidationError reports a malformed registration field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u model.User) (model.User, error)
	UserByEmail(ctx context.Context, email string) (model.User, error)
	UserByID(ctx context.Context, id string) (model.User, error)
}

// Config holds token and hashing settings.
type Config struct {
	Secret     string
	TokenTTL   time.Duration
	BcryptCost int
	Issuer     string
}

type Service struct {
	users   UserStore
	secret  []byte
	ttl     time.Duration
	cost    int
	issuer  string
	nowFunc func() time.Time
}

func NewService(users UserStore, cfg Config) (*Service, error) {
	if users == nil {
		return nil, fmt.Errorf("user store is required")
	}
	if cfg.Secret == "" {
		return nil, fmt.Errorf("token secret is required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = DefaultBcryptCost
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Service{
		users:   users,
		secret:  []byte(cfg.Secret),
		ttl:     cfg.TokenTTL,
		cost:    cfg.BcryptCost,
		issuer:  cfg.Issuer,
		nowFunc: time.Now,
	}, nil
}

// Registration is the input of Register.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account and returns it with a fresh token.
func (s *Service) Register(ctx context.Context, r Registration) (model.User, string, error) {
	username, email, password, err := normalizeRegistration(r)
	if err != nil {
		return model.User{}, "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return model.User{}, "", fmt.Errorf("hash password: %w", err)
	}
	user, err := s.users.CreateUser(ctx, model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return model.User{}, "", ErrUserExists
		}
		return model.User{}, "", fmt.Errorf("create user: %w", err)
	}
	token, err := s.IssueToken(user.ID)
	if err != nil {
		return model.User{}, "", err
	}
	return user, token, nil
}

// Login checks an email and password pair. Unknown emails and wrong
// passwords both yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (model.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.User{}, "", ErrInvalidCredentials
		}
		return model.User{}, "", fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(strings.TrimSpace(password))); err != nil {
		return model.User{}, "", ErrInvalidCredentials
	}
	token, err := s.IssueToken(user.ID)
	if err != nil {
		return model.User{}, "", err
	}
	return user, token, nil
}

// Authenticate resolves a bearer token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (model.User, error) {
	userID, err := s.ParseToken(token)
	if err != nil {
		return model.User{}, err
	}
	user, err := s.users.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.User{}, ErrInvalidToken
		}
		return model.User{}, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// IssueToken signs an HS256 token for the user id.
func (s *Service) IssueToken(userID string) (string, error) {
	now := s.nowFunc()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies a token and returns its subject.
func (s *Service) ParseToken(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidToken
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.nowFunc),
		jwt.WithExpirationRequired(),
	)
	if err != nil || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func normalizeRegistration(r Registration) (string, string, string, error) {
	username := strings.TrimSpace(r.Username)
	if n := utf8.RuneCountInString(username); n < minUsernameLength || n > maxUsernameLength {
		return "", "", "", &ValidationError{Field: "username", Reason: "Username must be between 3 and 30 characters"}
	}
	email := strings.ToLower(strings.TrimSpace(r.Email))
	if !validEmail(email) {
		return "", "", "", &ValidationError{Field: "email", Reason: "Email is invalid"}
	}
	password := strings.TrimSpace(r.Password)
	if utf8.RuneCountInString(password) < minPasswordLength {
		return "", "", "", &ValidationError{Field: "password", Reason: "Password must be at least 6 characters"}
	}
	return username, email, password, nil
}

func validEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return false
	}
	at := strings.LastIndex(email, "@")
	return at > 0 && strings.Contains(email[at+1:], ".")
}
