// Package services – AuthService
//
// This file implements AuthService, which owns signup and login. It hashes
// passwords with bcrypt, detects duplicate accounts, and issues bearer
// tokens through the auth.Manager. Service-level errors (ErrUserNotFound,
// ErrInvalidCredentials, ErrDuplicateAccount) are returned for predictable
// cases so handlers can map them to HTTP results consistently.
package services

import (
	"context"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-dm-backend/internal/domain"
	"github.com/tbourn/go-dm-backend/internal/repo"
)

// TokenIssuer abstracts token creation so tests can stub it. *auth.Manager
// satisfies it.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// AuthService provides account signup and login.
type AuthService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Tokens issues bearer tokens on successful login.
	Tokens TokenIssuer
	// HashCost is the bcrypt cost; <= 0 uses bcrypt.DefaultCost.
	HashCost int
}

// NewAuthService constructs an AuthService with the default bcrypt cost.
func NewAuthService(db *gorm.DB, tokens TokenIssuer) *AuthService {
	return &AuthService{DB: db, Tokens: tokens}
}

// Signup registers a new account. The email must be unused; a duplicate
// yields ErrDuplicateAccount and no new row. Missing fields or a malformed
// email yield ErrValidation.
func (s *AuthService) Signup(ctx context.Context, username, email, password string) (*domain.User, error) {
	tr := otel.Tracer("services/AuthService")
	ctx, span := tr.Start(ctx, "Signup")
	defer span.End()

	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || password == "" {
		return nil, ErrValidation
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrValidation
	}

	cost := s.HashCost
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, err
	}

	// The unique index is the source of truth for duplicates: no pre-check,
	// no check-then-insert race.
	u, err := repo.CreateUser(ctx, s.DB, username, email, string(hash))
	if err != nil {
		if repo.IsUniqueViolation(err) {
			return nil, ErrDuplicateAccount
		}
		return nil, err
	}
	return u, nil
}

// Login verifies credentials and issues a bearer token. An unknown email
// yields ErrUserNotFound, a wrong password ErrInvalidCredentials; neither
// mutates any state.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	tr := otel.Tracer("services/AuthService")
	ctx, span := tr.Start(ctx, "Login",
		trace.WithAttributes(attribute.String("auth.method", "password")),
	)
	defer span.End()

	email = strings.ToLower(strings.TrimSpace(email))
	u, err := repo.GetUserByEmail(ctx, s.DB, email)
	if err != nil {
		if err == repo.ErrNotFound {
			return "", nil, ErrUserNotFound
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.Tokens.Issue(u.ID)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}
