// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns:
// tracing, correlation IDs, logging and redaction, panic recovery, metrics,
// CORS, security headers, rate limiting, and the bearer-token guard.
//
// Middleware ordering is deliberate: RequestID before logging so every entry
// carries a correlation id, recovery after logging so panics are captured
// with context, rate limiting after auth so buckets key on the account.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-dm-backend/internal/auth"
	"github.com/tbourn/go-dm-backend/internal/blob"
	"github.com/tbourn/go-dm-backend/internal/config"
	"github.com/tbourn/go-dm-backend/internal/domain"
	"github.com/tbourn/go-dm-backend/internal/http/handlers"
	"github.com/tbourn/go-dm-backend/internal/http/middleware"
	"github.com/tbourn/go-dm-backend/internal/relay"
	"github.com/tbourn/go-dm-backend/internal/repo"
	"github.com/tbourn/go-dm-backend/internal/services"
)

// chatRepoShim adapts the repository free functions to the services.ChatRepo
// interface expected by the ChatService. This keeps services decoupled from
// the concrete repo package while reusing existing functions.
type chatRepoShim struct{}

// CreateChat proxies repo.CreateChat.
func (chatRepoShim) CreateChat(ctx context.Context, db *gorm.DB, userA, userB string) (*domain.Chat, error) {
	return repo.CreateChat(ctx, db, userA, userB)
}

// GetChat proxies repo.GetChat.
func (chatRepoShim) GetChat(ctx context.Context, db *gorm.DB, id string) (*domain.Chat, error) {
	return repo.GetChat(ctx, db, id)
}

// ListChatsForUser proxies repo.ListChatsForUser.
func (chatRepoShim) ListChatsForUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.Chat, error) {
	return repo.ListChatsForUser(ctx, db, userID)
}

// GetUser proxies repo.GetUser.
func (chatRepoShim) GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	return repo.GetUser(ctx, db, id)
}

// GetLastMessage proxies repo.GetLastMessage.
func (chatRepoShim) GetLastMessage(ctx context.Context, db *gorm.DB, chatID string) (*domain.Message, error) {
	return repo.GetLastMessage(ctx, db, chatID)
}

// RegisterRoutes attaches all middleware and endpoints to the Gin engine:
// the public auth routes, the token-guarded user and chat API, the websocket
// entry point, the uploaded-file static mount, and the health and metrics
// endpoints.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, blobs blob.Store, tokens *auth.Manager, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// Trace all HTTP requests.
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// Correlate requests and logs.
	r.Use(middleware.RequestID())

	// Structured logging with PII scrubbing.
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))

	// Panic recovery to JSON 500.
	r.Use(middleware.Recovery())

	// Global body size limit. Attachments travel over the websocket, so the
	// REST cap stays small.
	r.Use(limitBody(1 << 20))

	// Prometheus metrics and /metrics endpoint.
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Token-bucket rate limiter per account/IP.
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// CORS posture: allow all when no origins configured.
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and the request is HTTPS).
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks.
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness.
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Uploaded attachments, compressed for text-ish content. A disk store
	// mounted at the root would shadow the API routes, so that is skipped.
	if ds, okStore := blobs.(*blob.DiskStore); okStore && ds.BaseURL != "" {
		r.Group(ds.BaseURL, gzip.Gzip(gzip.DefaultCompression)).Static("/", ds.Dir)
	}

	// Dependency injection: services ← repo/db/blobs.
	authSvc := services.NewAuthService(db, tokens)
	userSvc := services.NewUserService(db)
	chatSvc := services.NewChatService(db, chatRepoShim{})
	msgSvc := services.NewMessageService(db, blobs)
	msgSvc.MaxTextRunes = cfg.MaxMessageRunes

	hub := relay.NewHub(chatSvc, msgSvc, log.Logger)
	h := handlers.New(authSvc, userSvc, chatSvc)
	ws := handlers.NewWSHandler(hub, tokens, cfg.CORS.AllowedOrigins)

	// Public auth routes.
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/signup", h.Signup)
		authGroup.POST("/login", h.Login)
	}

	// Token-guarded API.
	authed := r.Group("", middleware.RequireAuth(tokens))
	{
		authed.GET("/user", h.SearchUsers)
		authed.GET("/user/me", h.Me)
		authed.GET("/chat/all", h.ListChats)
		authed.POST("/chat/create", h.CreateChat)
	}

	// Websocket entry point; the token rides the query string.
	r.GET("/ws", ws.Serve)
}

// limitBody caps the request body size using http.MaxBytesReader; reads past
// the cap error downstream.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
