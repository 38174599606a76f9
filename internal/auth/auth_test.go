package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/verte-zerg/typetrack/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	st, err := store.Open(store.DriverSQLite, filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	svc, err := NewService(st, Config{Secret: "test-secret", BcryptCost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("NewService() error: %v", err)
	}
	return svc
}

func TestRegisterLoginAuthenticate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, token, err := svc.Register(ctx, Registration{Username: "  ada  ", Email: " Ada@Example.COM ", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if user.Username != "ada" || user.Email != "ada@example.com" {
		t.Fatalf("expected normalized user, got %+v", user)
	}
	if user.PasswordHash == "secret1" {
		t.Fatalf("password stored in clear text")
	}
	if token == "" {
		t.Fatalf("expected token")
	}

	loggedIn, _, err := svc.Login(ctx, "ADA@example.com", "secret1")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, loggedIn.ID)
	}

	me, err := svc.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("Authenticate() error: %v", err)
	}
	if me.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, me.ID)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	if _, _, err := svc.Register(ctx, Registration{Username: "ada", Email: "ada@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	if _, _, err := svc.Login(ctx, "ada@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	if _, _, err := svc.Register(ctx, Registration{Username: "ada", Email: "ada@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	_, _, err := svc.Register(ctx, Registration{Username: "ada", Email: "other@example.com", Password: "secret1"})
	if !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t)
	cases := []struct {
		name  string
		reg   Registration
		field string
	}{
		{"short username", Registration{Username: "ab", Email: "a@b.io", Password: "secret1"}, "username"},
		{"long username", Registration{Username: "abcdefghijklmnopqrstuvwxyz12345", Email: "a@b.io", Password: "secret1"}, "username"},
		{"bad email", Registration{Username: "ada", Email: "not-an-email", Password: "secret1"}, "email"},
		{"named email", Registration{Username: "ada", Email: "Ada <ada@example.com>", Password: "secret1"}, "email"},
		{"short password", Registration{Username: "ada", Email: "a@b.io", Password: " 12345 "}, "password"},
	}
	for _, tc := range cases {
		_, _, err := svc.Register(context.Background(), tc.reg)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%s: expected ValidationError, got %v", tc.name, err)
		}
		if verr.Field != tc.field {
			t.Fatalf("%s: expected field %s, got %s", tc.name, tc.field, verr.Field)
		}
	}
}

func TestParseTokenRejectsExpiredAndForeign(t *testing.T) {
	svc := newTestService(t)
	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.nowFunc = func() time.Time { return issued }
	token, err := svc.IssueToken("u1")
	if err != nil {
		t.Fatalf("IssueToken() error: %v", err)
	}
	if sub, err := svc.ParseToken(token); err != nil || sub != "u1" {
		t.Fatalf("expected subject u1, got %q %v", sub, err)
	}

	svc.nowFunc = func() time.Time { return issued.Add(DefaultTokenTTL + time.Minute) }
	if _, err := svc.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to fail, got %v", err)
	}

	svc.nowFunc = func() time.Time { return issued }
	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(issued.Add(time.Hour)),
	})
	signed, err := foreign.SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatalf("sign foreign token: %v", err)
	}
	if _, err := svc.ParseToken(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected foreign token to fail, got %v", err)
	}
	if _, err := svc.ParseToken(""); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected empty token to fail, got %v", err)
	}
}

func TestAuthenticateUnknownUser(t *testing.T) {
	svc := newTestService(t)
	token, err := svc.IssueToken("ghost")
	if err != nil {
		t.Fatalf("IssueToken() error: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestNewServiceRequiresSecret(t *testing.T) {
	if _, err := NewService(nil, Config{Secret: "x"}); err == nil {
		t.Fatalf("expected error without store")
	}
	st, err := store.Open(store.DriverSQLite, filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()
	if _, err := NewService(st, Config{}); err == nil {
		t.Fatalf("expected error without secret")
	}
	if _, err := NewService(st, Config{Secret: "x", BcryptCost: 99}); err == nil {
		t.Fatalf("expected error for bcrypt cost")
	}
}
