package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nexfield/nexfield-api/libs/go/logger"
)

// CorrelationIDHeader carries the correlation ID in and out of the API.
const CorrelationIDHeader = "X-Correlation-ID"

const correlationIDKey = "correlationID"

// contextKey keeps request-context values from colliding with other
// packages' keys.
type contextKey string

const correlationIDContextKey contextKey = "correlationID"

// CorrelationIDMiddleware tags every request with a correlation ID. A
// caller-supplied ID is honored so a client's retry chain shares one ID;
// otherwise a fresh UUID is minted. The ID rides the response header,
// the gin context, and the request context.
func CorrelationIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(CorrelationIDHeader)
		if id == "" {
			id = uuid.New().String()
		}

		c.Set(correlationIDKey, id)
		c.Header(CorrelationIDHeader, id)
		c.Request = c.Request.WithContext(WithCorrelationID(c.Request.Context(), id))

		c.Next()
	}
}

// GetCorrelationID returns the request's correlation ID, or "" when the
// middleware did not run.
func GetCorrelationID(c *gin.Context) string {
	return c.GetString(correlationIDKey)
}

// WithCorrelationID returns a context carrying the correlation ID, for
// propagation past the HTTP layer.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDContextKey, id)
}

// CorrelationIDFromContext reads the correlation ID back out of a
// context, or "" when none was attached.
func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDContextKey).(string)
	return id
}

// LogWithCorrelationID returns the global logger tagged with the
// context's correlation ID, ready for request-scoped logging.
func LogWithCorrelationID(ctx context.Context) *zap.Logger {
	if logger.Log == nil {
		return nil
	}
	if id := CorrelationIDFromContext(ctx); id != "" {
		return logger.Log.With(zap.String("correlation_id", id))
	}
	return logger.Log
}
