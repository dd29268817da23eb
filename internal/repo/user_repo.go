// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a user is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - A duplicate email surfaces as a uniqueness violation from the driver;
//     use IsUniqueViolation to detect it. The caller decides how to map it.
package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-dm-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist. It aliases
// gorm.ErrRecordNotFound for consistency across the service layer and
// handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// searchLimit caps user search and thread list results.
const searchLimit = 20

// IsUniqueViolation reports whether err is a uniqueness-constraint failure.
// GORM translates driver errors to ErrDuplicatedKey when the dialect
// supports it; the message check covers SQLite builds that do not.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// CreateUser inserts a new user row with a generated UUID primary key.
// password must already be hashed by the caller. A duplicate email surfaces
// as a uniqueness violation (no pre-check here; the service layer relies on
// the constraint to avoid a check-then-insert race).
func CreateUser(ctx context.Context, db *gorm.DB, username, email, password string) (*domain.User, error) {
	u := &domain.User{
		ID:       uuid.NewString(),
		Username: username,
		Email:    email,
		Password: password,
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// GetUser fetches a single user by ID, or ErrNotFound if missing.
func GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail fetches a single user by email, or ErrNotFound if missing.
func GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// SearchUsers returns up to 20 users whose username or email contains the
// query, case-insensitive. An empty slice is returned when nothing matches.
func SearchUsers(ctx context.Context, db *gorm.DB, query string) ([]domain.User, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	var out []domain.User
	err := db.WithContext(ctx).
		Where("lower(username) LIKE ? OR lower(email) LIKE ?", pattern, pattern).
		Limit(searchLimit).
		Find(&out).Error
	return out, err
}
