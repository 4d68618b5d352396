package middleware

import (
	"net/http"
	"time"

	"bank-ledger/pkg/apperror"
	"bank-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// HeaderAccountID carries the acting account's id. The engine trusts
	// the perimeter to have authenticated it; identity plumbing stops here.
	HeaderAccountID = "X-Account-ID"

	// HeaderIdempotencyKey carries the optional client retry key.
	HeaderIdempotencyKey = "Idempotency-Key"

	// Context keys
	CtxAccountID = "account_id"
)

// ActorIdentity resolves the acting account from the request headers and
// stores it in the Gin context. Requests without a parseable account id
// are rejected before reaching any handler.
func ActorIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(HeaderAccountID)
		if raw == "" {
			response.Error(c, apperror.ErrActorRequired())
			c.Abort()
			return
		}
		accountID, err := uuid.Parse(raw)
		if err != nil {
			response.Error(c, apperror.ErrActorRequired())
			c.Abort()
			return
		}
		c.Set(CtxAccountID, accountID)
		c.Next()
	}
}

// RequestLogger creates a middleware that logs every HTTP request.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		} else if status >= http.StatusBadRequest {
			event = log.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}

// Recovery creates a panic recovery middleware.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("path", c.Request.URL.Path).Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error_code": "SYS_001",
					"message":    "Internal server error",
				})
			}
		}()
		c.Next()
	}
}

// MaxBodySize returns middleware that limits the request body size.
// Once the limit is exceeded the reader returns an error and the
// request is rejected with 413 Payload Too Large.
func MaxBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
