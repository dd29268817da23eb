// Package services – ChatService
//
// This file implements the ChatService, which manages the chat directory:
// resolving a user's threads enriched with the contact and last message,
// creating new threads, and answering membership checks for the relay.
//
// The thread-list enrichment is deliberately not atomic with the list read:
// a message persisted between the two queries may or may not be reflected.
// That read skew is acceptable for a directory view.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-dm-backend/internal/domain"
	"github.com/tbourn/go-dm-backend/internal/repo"
)

// ChatRepo defines the repository contract required by ChatService.
// Implementations are responsible for persistence of chat aggregates.
type ChatRepo interface {
	// CreateChat inserts a chat for the canonicalized unordered pair.
	CreateChat(ctx context.Context, db *gorm.DB, userA, userB string) (*domain.Chat, error)

	// GetChat fetches a chat by ID.
	GetChat(ctx context.Context, db *gorm.DB, id string) (*domain.Chat, error)

	// ListChatsForUser returns the user's chats, most recently updated
	// first, capped at 20.
	ListChatsForUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.Chat, error)

	// GetUser resolves a contact account.
	GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error)

	// GetLastMessage returns the newest message of a chat, or nil.
	GetLastMessage(ctx context.Context, db *gorm.DB, chatID string) (*domain.Message, error)
}

// ChatService provides the chat directory operations.
type ChatService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the chat repository used by this service.
	Repo ChatRepo
}

// NewChatService constructs a ChatService.
func NewChatService(db *gorm.DB, r ChatRepo) *ChatService {
	return &ChatService{DB: db, Repo: r}
}

// ListForUser returns up to 20 of the user's most recently updated chats,
// each enriched with the contact's id/name and the last message (nil for an
// empty chat). A chat whose contact account no longer resolves yields
// ErrContactNotFound.
func (s *ChatService) ListForUser(ctx context.Context, userID string) ([]domain.ChatSummary, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "ListForUser",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	chats, err := s.Repo.ListChatsForUser(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.ChatSummary, 0, len(chats))
	for _, c := range chats {
		contactID := c.ContactOf(userID)
		contact, err := s.Repo.GetUser(ctx, s.DB, contactID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, ErrContactNotFound
			}
			return nil, err
		}

		last, err := s.Repo.GetLastMessage(ctx, s.DB, c.ID)
		if err != nil {
			return nil, err
		}

		out = append(out, domain.ChatSummary{
			ID:          c.ID,
			ContactID:   contactID,
			ContactName: contact.Username,
			LastMessage: last,
			UpdatedAt:   c.UpdatedAt,
		})
	}
	return out, nil
}

// Create starts a chat between userID and contactID. The contact must be an
// existing account (ErrContactNotFound otherwise); a chat for the same
// unordered pair may exist at most once (ErrDuplicateChat). The duplicate is
// detected via the storage uniqueness violation, not a pre-check, so two
// concurrent creates cannot both succeed.
func (s *ChatService) Create(ctx context.Context, userID, contactID string) (*domain.Chat, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("contact.id", contactID),
		),
	)
	defer span.End()

	if contactID == "" || contactID == userID {
		return nil, ErrValidation
	}
	if _, err := s.Repo.GetUser(ctx, s.DB, contactID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrContactNotFound
		}
		return nil, err
	}

	c, err := s.Repo.CreateChat(ctx, s.DB, userID, contactID)
	if err != nil {
		if repo.IsUniqueViolation(err) {
			return nil, ErrDuplicateChat
		}
		return nil, err
	}
	return c, nil
}

// Get fetches a chat by id, or ErrChatNotFound.
func (s *ChatService) Get(ctx context.Context, id string) (*domain.Chat, error) {
	c, err := s.Repo.GetChat(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	return c, nil
}

// Membership returns the chat when userID is one of its two participants.
// A missing chat yields ErrChatNotFound; an existing chat the user is not
// part of yields ErrNotParticipant.
func (s *ChatService) Membership(ctx context.Context, chatID, userID string) (*domain.Chat, error) {
	c, err := s.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !c.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}
	return c, nil
}
