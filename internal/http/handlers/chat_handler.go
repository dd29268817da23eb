// Chat HTTP handlers.
//
// Routes:
//   - GET  /chat/all     (list the caller's chats, ETag support)
//   - POST /chat/create  (start a chat with another account)
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-dm-backend/internal/domain"
	"github.com/tbourn/go-dm-backend/internal/http/middleware"
	"github.com/tbourn/go-dm-backend/internal/repo"
	"github.com/tbourn/go-dm-backend/internal/services"
)

// ChatService defines the chat directory operations consumed by HTTP
// handlers.
type ChatService interface {
	// ListForUser returns the caller's chats enriched with contact and last
	// message.
	ListForUser(ctx context.Context, userID string) ([]domain.ChatSummary, error)
	// Create starts a chat between the caller and contactID.
	Create(ctx context.Context, userID, contactID string) (*domain.Chat, error)
}

// Handlers groups the REST endpoints for accounts and chats.
type Handlers struct {
	authSvc AuthService
	userSvc UserService
	chatSvc ChatService
}

// New constructs a Handlers instance bound to the given services.
func New(authSvc AuthService, userSvc UserService, chatSvc ChatService) *Handlers {
	return &Handlers{authSvc: authSvc, userSvc: userSvc, chatSvc: chatSvc}
}

// CreateChatRequest is the JSON payload for POST /chat/create.
type CreateChatRequest struct {
	ContactID string `json:"contactId" binding:"required"`
}

// ListChats handles GET /chat/all. It answers with a weak ETag derived from
// the caller's chat count and newest activity timestamp, and returns 304
// when If-None-Match matches.
func (h *Handlers) ListChats(c *gin.Context) {
	ctx := c.Request.Context()
	uid := middleware.UserIDFrom(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, okSvc := h.chatSvc.(*services.ChatService); okSvc {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.ChatsStats(ctx, db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"chats:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	chats, err := h.chatSvc.ListForUser(ctx, uid)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, "chats retrieved", chats)
}

// CreateChat handles POST /chat/create.
func (h *Handlers) CreateChat(c *gin.Context) {
	var req CreateChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.ContactID) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "contactId is required")
		return
	}

	uid := middleware.UserIDFrom(c)
	chat, err := h.chatSvc.Create(c.Request.Context(), uid, strings.TrimSpace(req.ContactID))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, "chat created", chat)
}
