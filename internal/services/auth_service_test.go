package services

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/tbourn/go-dm-backend/internal/domain"
)

type stubIssuer struct {
	token string
	err   error
	calls int
}

func (s *stubIssuer) Issue(userID string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.token + ":" + userID, nil
}

func TestSignup_CreatesAccount(t *testing.T) {
	db := newTestDB(t)
	svc := &AuthService{DB: db, Tokens: &stubIssuer{}, HashCost: bcrypt.MinCost}

	u, err := svc.Signup(context.Background(), "  alice  ", "Alice@Example.COM", "s3cret")
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if u.ID == "" {
		t.Fatal("expected assigned id")
	}
	if u.Username != "alice" {
		t.Fatalf("username = %q, want trimmed %q", u.Username, "alice")
	}
	if u.Email != "alice@example.com" {
		t.Fatalf("email = %q, want lowercased", u.Email)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("s3cret")); err != nil {
		t.Fatalf("stored password is not a bcrypt hash of the input: %v", err)
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	svc := &AuthService{DB: db, Tokens: &stubIssuer{}, HashCost: bcrypt.MinCost}
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "alice", "alice@example.com", "s3cret"); err != nil {
		t.Fatalf("first Signup: %v", err)
	}
	if _, err := svc.Signup(ctx, "other", "alice@example.com", "different"); !errors.Is(err, ErrDuplicateAccount) {
		t.Fatalf("err = %v, want ErrDuplicateAccount", err)
	}

	var count int64
	if err := db.Model(&domain.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("user count = %d, want 1 after rejected duplicate", count)
	}
}

func TestSignup_Validation(t *testing.T) {
	db := newTestDB(t)
	svc := &AuthService{DB: db, Tokens: &stubIssuer{}, HashCost: bcrypt.MinCost}
	ctx := context.Background()

	cases := []struct {
		name                      string
		username, email, password string
	}{
		{"missing username", "", "a@example.com", "pw"},
		{"missing email", "alice", "", "pw"},
		{"missing password", "alice", "a@example.com", ""},
		{"malformed email", "alice", "not-an-email", "pw"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Signup(ctx, tc.username, tc.email, tc.password); !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestLogin_Success(t *testing.T) {
	db := newTestDB(t)
	issuer := &stubIssuer{token: "tok"}
	svc := &AuthService{DB: db, Tokens: issuer, HashCost: bcrypt.MinCost}
	ctx := context.Background()

	created, err := svc.Signup(ctx, "alice", "alice@example.com", "s3cret")
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}

	token, u, err := svc.Login(ctx, " ALICE@example.com ", "s3cret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token != "tok:"+created.ID {
		t.Fatalf("token = %q, want issuer output for %s", token, created.ID)
	}
	if u.ID != created.ID {
		t.Fatalf("user id = %s, want %s", u.ID, created.ID)
	}
	if issuer.calls != 1 {
		t.Fatalf("issuer calls = %d, want 1", issuer.calls)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	db := newTestDB(t)
	issuer := &stubIssuer{token: "tok"}
	svc := &AuthService{DB: db, Tokens: issuer, HashCost: bcrypt.MinCost}

	token, u, err := svc.Login(context.Background(), "ghost@example.com", "pw")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
	if token != "" || u != nil {
		t.Fatal("expected no token and no user on unknown email")
	}
	if issuer.calls != 0 {
		t.Fatal("no token must be issued for an unknown email")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	db := newTestDB(t)
	issuer := &stubIssuer{token: "tok"}
	svc := &AuthService{DB: db, Tokens: issuer, HashCost: bcrypt.MinCost}
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "alice", "alice@example.com", "s3cret"); err != nil {
		t.Fatalf("Signup: %v", err)
	}

	token, u, err := svc.Login(ctx, "alice@example.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	if token != "" || u != nil {
		t.Fatal("expected no token and no user on wrong password")
	}
	if issuer.calls != 0 {
		t.Fatal("no token must be issued for a wrong password")
	}
}
