// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Chat model.
//
// Functions:
//
//   - CreateChat(ctx, db, userA, userB) -> *domain.Chat, error
//     Inserts a new chat for the canonicalized pair.
//
//   - GetChat(ctx, db, id) -> *domain.Chat, error
//     Fetches a single chat by ID, or ErrNotFound if missing.
//
//   - ListChatsForUser(ctx, db, userID) -> []domain.Chat, error
//     Returns the user's chats, most recently updated first, capped at 20.
//
//   - TouchChat(ctx, db, id) -> error
//     Unconditionally bumps updated_at; message-send side effect only.
//
// This repository is designed to be wrapped by a higher-level service
// (see services.ChatService) which enforces business rules such as contact
// existence and duplicate-pair mapping.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-dm-backend/internal/domain"
)

// CanonicalPair orders two account ids so that the same unordered pair
// always maps to the same (user1, user2) columns. The composite unique
// index then rejects a second chat for the pair in either argument order.
func CanonicalPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// CreateChat inserts a new chat row for the unordered pair (userA, userB).
// The pair is canonicalized before insert; a duplicate pair surfaces as a
// uniqueness violation from storage rather than a racy pre-check. Both
// timestamps are set to UTC now.
func CreateChat(ctx context.Context, db *gorm.DB, userA, userB string) (*domain.Chat, error) {
	u1, u2 := CanonicalPair(userA, userB)
	now := time.Now().UTC()
	c := &domain.Chat{
		ID:        uuid.NewString(),
		User1:     u1,
		User2:     u2,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// GetChat fetches a single chat by its ID, or ErrNotFound if missing.
func GetChat(ctx context.Context, db *gorm.DB, id string) (*domain.Chat, error) {
	var c domain.Chat
	if err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ListChatsForUser returns up to 20 chats involving userID, ordered by
// updated_at descending (most recently active first).
func ListChatsForUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.Chat, error) {
	var out []domain.Chat
	err := db.WithContext(ctx).
		Where("user1 = ? OR user2 = ?", userID, userID).
		Order("updated_at desc").
		Limit(searchLimit).
		Find(&out).Error
	return out, err
}

// TouchChat unconditionally sets the chat's updated_at to UTC now. Callers
// do not treat a missing row as an error; last-write-wins under concurrent
// senders.
func TouchChat(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).
		Model(&domain.Chat{}).
		Where("id = ?", id).
		Update("updated_at", time.Now().UTC()).Error
}
