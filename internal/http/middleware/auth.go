package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// userIDKey is the Gin context key under which the authenticated account id
// is stored by RequireAuth.
const userIDKey = "userID"

// TokenVerifier validates a bearer token and returns the account id it was
// issued for. *auth.Manager satisfies it.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// RequireAuth guards a route group with bearer-token authentication. The
// token comes from the Authorization header ("Bearer <token>"); a missing,
// malformed, or invalid token aborts with 401 before the handler runs. On
// success the account id is stored under "userID" for handlers and the
// downstream logging and rate-limit middleware.
func RequireAuth(tokens TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		userID, err := tokens.Verify(strings.TrimSpace(token))
		if err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserIDFrom returns the authenticated account id set by RequireAuth, empty
// when the request is unauthenticated.
func UserIDFrom(c *gin.Context) string {
	v, ok := c.Get(userIDKey)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       "unauthorized",
		"message":    msg,
	})
}
