// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Message
// model.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-dm-backend/internal/domain"
)

// CreateMessage inserts a new message row with status "sent" and returns the
// persisted record, including its assigned id. No participant-membership
// check happens here; the relay enforces that before calling.
func CreateMessage(ctx context.Context, db *gorm.DB, chatID, senderID, text string, fileURL *string) (*domain.Message, error) {
	m := &domain.Message{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		SenderID:  senderID,
		Text:      text,
		FileURL:   fileURL,
		Status:    domain.StatusSent,
		CreatedAt: time.Now().UTC(),
	}
	return m, db.WithContext(ctx).Create(m).Error
}

// ListMessages returns the full history for a chat ordered deterministically
// (CreatedAt ASC, ID ASC). An empty chat yields an empty slice.
func ListMessages(ctx context.Context, db *gorm.DB, chatID string) ([]domain.Message, error) {
	var out []domain.Message
	err := db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// GetLastMessage returns the newest message for a chat, or nil when the chat
// has none.
func GetLastMessage(ctx context.Context, db *gorm.DB, chatID string) (*domain.Message, error) {
	var out []domain.Message
	err := db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at DESC, id DESC").
		Limit(1).
		Find(&out).Error
	if err != nil || len(out) == 0 {
		return nil, err
	}
	return &out[0], nil
}
