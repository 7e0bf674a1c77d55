package middleware

import (
	"net/http"
	"time"

	"checkout-session-engine/internal/core/ports"
	"checkout-session-engine/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// Request metadata headers recognized on mutating endpoints.
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderRequestID      = "Request-Id"
	HeaderSignature      = "X-Signature"
	HeaderTimestamp      = "X-Timestamp"

	// Context keys
	CtxIdempotencyKey = "idempotency_key"
	CtxSignature      = "signature"
	CtxTimestamp      = "timestamp"
)

// RequestContext extracts the request metadata headers into the gin
// context and echoes the request id back to the caller. A missing
// Request-Id is minted so every log line and response carries one.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(response.CtxRequestID, requestID)
		c.Set(CtxIdempotencyKey, c.GetHeader(HeaderIdempotencyKey))
		c.Set(CtxSignature, c.GetHeader(HeaderSignature))
		c.Set(CtxTimestamp, c.GetHeader(HeaderTimestamp))
		c.Header(HeaderRequestID, requestID)
		c.Next()
	}
}

// Meta assembles the request metadata previously stored by
// RequestContext.
func Meta(c *gin.Context) ports.RequestMeta {
	return ports.RequestMeta{
		IdempotencyKey: c.GetString(CtxIdempotencyKey),
		RequestID:      c.GetString(response.CtxRequestID),
		Signature:      c.GetString(CtxSignature),
		Timestamp:      c.GetString(CtxTimestamp),
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
			Str("request_id", c.GetString(response.CtxRequestID)).
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
					"type":    "internal_error",
					"code":    "internal_error",
					"message": "Internal server error",
				})
			}
		}()
		c.Next()
	}
}
