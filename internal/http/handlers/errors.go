package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-dm-backend/internal/services"
)

// Stable machine-readable error codes. Clients branch on these rather than
// on message text.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)

// mapServiceError translates a service-layer error into its HTTP status,
// error code, and client-safe message. Unrecognized errors become opaque
// 500s so internals never leak.
func mapServiceError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest, ErrCodeBadRequest, "invalid request"
	case errors.Is(err, services.ErrDuplicateAccount):
		return http.StatusBadRequest, ErrCodeConflict, "an account with this email already exists"
	case errors.Is(err, services.ErrDuplicateChat):
		return http.StatusBadRequest, ErrCodeConflict, "a chat with this contact already exists"
	case errors.Is(err, services.ErrUserNotFound):
		return http.StatusNotFound, ErrCodeNotFound, "user not found"
	case errors.Is(err, services.ErrContactNotFound):
		return http.StatusNotFound, ErrCodeNotFound, "contact not found"
	case errors.Is(err, services.ErrChatNotFound):
		return http.StatusNotFound, ErrCodeNotFound, "chat not found"
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrCodeUnauthorized, "invalid credentials"
	case errors.Is(err, services.ErrNotParticipant):
		return http.StatusForbidden, ErrCodeForbidden, "not a participant of this chat"
	default:
		return http.StatusInternalServerError, ErrCodeInternal, "internal server error"
	}
}

// failService maps a service error and aborts with the failure envelope.
func failService(c *gin.Context, err error) {
	status, code, msg := mapServiceError(err)
	fail(c, status, code, msg)
}
