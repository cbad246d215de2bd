// Package middleware provides HTTP middleware for the Gin engine serving
// quote streams.
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jsamuelsen/quote-viewmodel/internal/platform/logging"
)

const (
	// HeaderRequestID identifies a single HTTP request.
	HeaderRequestID = "X-Request-ID"

	// HeaderCorrelationID follows a transaction across services. A stream
	// session keeps the correlation ID of the request that opened it.
	HeaderCorrelationID = "X-Correlation-ID"

	// ContextKeyRequestID is the gin.Context key for the request ID.
	ContextKeyRequestID = "request_id"

	// ContextKeyCorrelationID is the gin.Context key for the correlation ID.
	ContextKeyCorrelationID = "correlation_id"
)

// RequestID returns middleware that takes the request ID from X-Request-ID,
// or generates a UUID, and echoes it in the response.
func RequestID() gin.HandlerFunc {
	return idMiddleware(HeaderRequestID, ContextKeyRequestID, func(ctx context.Context, id string) context.Context {
		return ContextWithRequestID(logging.WithRequestID(ctx, id), id)
	})
}

// CorrelationID returns middleware that propagates X-Correlation-ID, starting
// a new correlation when the caller sent none.
func CorrelationID() gin.HandlerFunc {
	return idMiddleware(HeaderCorrelationID, ContextKeyCorrelationID, func(ctx context.Context, id string) context.Context {
		return ContextWithCorrelationID(logging.WithCorrelationID(ctx, id), id)
	})
}

// GetRequestID returns the request ID set by RequestID, or "".
func GetRequestID(c *gin.Context) string {
	return c.GetString(ContextKeyRequestID)
}

// GetCorrelationID returns the correlation ID set by CorrelationID, or "".
func GetCorrelationID(c *gin.Context) string {
	return c.GetString(ContextKeyCorrelationID)
}

func idMiddleware(header, key string, enrich func(context.Context, string) context.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(header)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(key, id)
		c.Header(header, id)
		c.Request = c.Request.WithContext(enrich(c.Request.Context(), id))

		c.Next()
	}
}
