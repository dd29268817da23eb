// Websocket HTTP handler.
//
// GET /ws?token=<bearer> upgrades the connection and hands it to the relay.
// The token travels as a query parameter because browser websocket clients
// cannot set an Authorization header on the handshake request.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/tbourn/go-dm-backend/internal/http/middleware"
	"github.com/tbourn/go-dm-backend/internal/relay"
)

// WSHandler upgrades authenticated websocket connections and runs their
// read/write pumps against the relay hub.
type WSHandler struct {
	hub      *relay.Hub
	tokens   middleware.TokenVerifier
	upgrader websocket.Upgrader
}

// NewWSHandler constructs a WSHandler. allowedOrigins restricts handshake
// origins; empty allows any origin (requests without an Origin header, such
// as non-browser clients, are always accepted).
func NewWSHandler(hub *relay.Hub, tokens middleware.TokenVerifier, allowedOrigins []string) *WSHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return &WSHandler{
		hub:    hub,
		tokens: tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || len(allowed) == 0 {
					return true
				}
				_, okOrigin := allowed[origin]
				return okOrigin
			},
		},
	}
}

// Serve handles GET /ws. The handshake is rejected with 401 before any
// upgrade when the token is missing or invalid.
func (h *WSHandler) Serve(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing token")
		return
	}
	userID, err := h.tokens.Verify(token)
	if err != nil {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid or expired token")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the handshake error.
		middleware.LoggerFrom(c).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	middleware.WSConnOpened()
	client := relay.NewClient(h.hub, conn, userID)

	go client.WritePump()
	go func() {
		defer middleware.WSConnClosed()
		// The request context is cancelled once this handler returns, so the
		// pump runs on the background context for the connection's lifetime.
		client.ReadPump(context.Background())
	}()
}
