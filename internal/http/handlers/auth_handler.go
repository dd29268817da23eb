// Auth and user HTTP handlers.
//
// Routes:
//   - POST /auth/signup   (register)
//   - POST /auth/login    (authenticate, returns bearer token)
//   - GET  /user          (search accounts, authenticated)
//   - GET  /user/me       (current account, authenticated)
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results into the response envelope.
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-dm-backend/internal/domain"
	"github.com/tbourn/go-dm-backend/internal/http/middleware"
)

// AuthService defines the account operations consumed by HTTP handlers.
// Implementations must be safe for concurrent use and honor the context.
type AuthService interface {
	// Signup registers a new account.
	Signup(ctx context.Context, username, email, password string) (*domain.User, error)
	// Login verifies credentials and returns a bearer token with the account.
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
}

// UserService defines account lookup and search operations.
type UserService interface {
	// Get returns the account for id.
	Get(ctx context.Context, id string) (*domain.User, error)
	// Search returns accounts matching the query.
	Search(ctx context.Context, query string) ([]domain.User, error)
}

// SignupRequest is the JSON payload for POST /auth/signup.
type SignupRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest is the JSON payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is the data payload of a successful login.
type LoginResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// Signup handles POST /auth/signup.
func (h *Handlers) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username, email and password are required")
		return
	}

	u, err := h.authSvc.Signup(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, "account created", u)
}

// Login handles POST /auth/login. An unknown email maps to 404 and a wrong
// password to 401, so clients can distinguish the two.
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email and password are required")
		return
	}

	token, u, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, "login successful", LoginResponse{Token: token, User: u})
}

// SearchUsers handles GET /user?search=<q>.
func (h *Handlers) SearchUsers(c *gin.Context) {
	query := strings.TrimSpace(c.Query("search"))
	users, err := h.userSvc.Search(c.Request.Context(), query)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, "users found", users)
}

// Me handles GET /user/me, returning the authenticated account.
func (h *Handlers) Me(c *gin.Context) {
	uid := middleware.UserIDFrom(c)
	u, err := h.userSvc.Get(c.Request.Context(), uid)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, "user profile", u)
}
