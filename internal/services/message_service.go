// Package services – MessageService
//
// This file implements MessageService, the application-level component that
// owns the message log: appending messages (with optional file upload to the
// blob store) and replaying a chat's history.
//
// Append runs "upload → persist → bump chat timestamp" as three independent
// steps with no transaction around them. A failure between persist and bump
// can leave updated_at stale relative to the newest message; that window is
// accepted, and a client that misses the live broadcast recovers the message
// from the next history replay.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// chat/sender identifiers.
package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-dm-backend/internal/blob"
	"github.com/tbourn/go-dm-backend/internal/domain"
	"github.com/tbourn/go-dm-backend/internal/repo"
)

// MessageService coordinates attachment upload, message persistence, and the
// chat activity bump.
type MessageService struct {
	DB    *gorm.DB
	Blobs blob.Store

	// MaxTextRunes caps message length when > 0.
	MaxTextRunes int
}

// NewMessageService constructs a MessageService.
func NewMessageService(db *gorm.DB, blobs blob.Store) *MessageService {
	return &MessageService{DB: db, Blobs: blobs}
}

// Append persists one message and returns the record with its assigned id.
// When file bytes are present they are uploaded first and only the resulting
// URL is persisted. After a successful insert the chat's updated_at is
// bumped. Any failed step aborts the remainder and surfaces the error; no
// participant-membership check happens here (the relay enforces that).
func (s *MessageService) Append(ctx context.Context, chatID, senderID, text string, file []byte) (*domain.Message, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Append",
		trace.WithAttributes(
			attribute.String("chat.id", chatID),
			attribute.String("sender.id", senderID),
			attribute.Bool("has_file", len(file) > 0),
		),
	)
	defer span.End()

	if text == "" && len(file) == 0 {
		return nil, ErrValidation
	}
	if s.MaxTextRunes > 0 && len([]rune(text)) > s.MaxTextRunes {
		return nil, ErrValidation
	}

	var fileURL *string
	if len(file) > 0 {
		if s.Blobs == nil {
			return nil, fmt.Errorf("no blob store configured for attachment")
		}
		url, err := s.Blobs.Put(ctx, chatID+"/"+uuid.NewString(), file)
		if err != nil {
			return nil, fmt.Errorf("upload attachment: %w", err)
		}
		fileURL = &url
	}

	m, err := repo.CreateMessage(ctx, s.DB, chatID, senderID, text, fileURL)
	if err != nil {
		return nil, err
	}

	if err := repo.TouchChat(ctx, s.DB, chatID); err != nil {
		return nil, err
	}
	return m, nil
}

// History returns a chat's full message log, oldest first.
func (s *MessageService) History(ctx context.Context, chatID string) ([]domain.Message, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "History",
		trace.WithAttributes(attribute.String("chat.id", chatID)),
	)
	defer span.End()

	return repo.ListMessages(ctx, s.DB, chatID)
}

// Last returns the newest message of a chat, or nil when empty.
func (s *MessageService) Last(ctx context.Context, chatID string) (*domain.Message, error) {
	return repo.GetLastMessage(ctx, s.DB, chatID)
}
