// Package services – UserService
//
// User discovery: profile lookup for the authenticated account and the
// case-insensitive substring search backing the contact picker.
package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-dm-backend/internal/domain"
	"github.com/tbourn/go-dm-backend/internal/repo"
)

// UserService provides account lookup and search.
type UserService struct {
	DB *gorm.DB
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

// Get returns the account for id, or ErrUserNotFound.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := repo.GetUser(ctx, s.DB, id)
	if err != nil {
		if err == repo.ErrNotFound {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// Search returns up to 20 accounts whose username or email contains the
// query (case-insensitive). A blank query yields an empty result rather
// than the whole directory.
func (s *UserService) Search(ctx context.Context, query string) ([]domain.User, error) {
	tr := otel.Tracer("services/UserService")
	ctx, span := tr.Start(ctx, "Search",
		trace.WithAttributes(attribute.Int("query.len", len(query))),
	)
	defer span.End()

	if strings.TrimSpace(query) == "" {
		return []domain.User{}, nil
	}
	return repo.SearchUsers(ctx, s.DB, query)
}
