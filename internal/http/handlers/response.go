// Package handlers provides HTTP handler implementations for the public API.
//
// Every endpoint answers with the same JSON envelope:
//
//	{
//	  "success":   true,
//	  "status":    200,
//	  "message":   "OK",
//	  "data":      { ... },
//	  "_metadata": { "url": "/user/me", "method": "GET", "ip": "203.0.113.7", "timestamp": "..." }
//	}
//
// Failures carry success=false and an error object with a stable
// machine-readable code instead of data. fail() centralizes error formatting
// and logs 5xx responses with request context.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-dm-backend/internal/http/middleware"
)

// Metadata echoes request facts back to the caller on every response.
type Metadata struct {
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	IP        string    `json:"ip"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorBody is the error object inside a failure envelope.
type ErrorBody struct {
	// RequestID correlates server logs and client errors.
	RequestID string `json:"request_id,omitempty"`
	// Code is a stable machine-readable string (see errors.go constants).
	Code string `json:"code"`
}

// Response is the envelope wrapping every API response.
type Response struct {
	Success  bool       `json:"success"`
	Status   int        `json:"status"`
	Message  string     `json:"message"`
	Data     any        `json:"data,omitempty"`
	Error    *ErrorBody `json:"error,omitempty"`
	Metadata Metadata   `json:"_metadata"`
}

// metadata builds the request echo block.
func metadata(c *gin.Context) Metadata {
	return Metadata{
		URL:       c.Request.URL.RequestURI(),
		Method:    c.Request.Method,
		IP:        c.ClientIP(),
		Timestamp: time.Now().UTC(),
	}
}

// ok writes a success envelope with the given status and payload.
func ok(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Response{
		Success:  true,
		Status:   status,
		Message:  message,
		Data:     data,
		Metadata: metadata(c),
	})
}

// fail aborts the request with a failure envelope. Server errors (>= 500)
// are logged with the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, Response{
		Success: false,
		Status:  status,
		Message: msg,
		Error: &ErrorBody{
			RequestID: c.Writer.Header().Get("X-Request-ID"),
			Code:      code,
		},
		Metadata: metadata(c),
	})
}

// Fail is the exported variant of fail, for router-level fallbacks (NoRoute,
// NoMethod).
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }
