package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nexfield/nexfield-api/libs/go/logger"
)

// Ledger imports and result payloads can run to megabytes; bodies above
// this size are logged by size only.
const maxLoggedBodyBytes = 64 * 1024

// Headers whose values never belong in a log line.
var redactedHeaders = map[string]bool{
	"Authorization": true,
	"X-Api-Key":     true,
	"Cookie":        true,
}

// responseRecorder tees everything written to the client into a buffer
// so the development logger can replay it.
type responseRecorder struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (r *responseRecorder) Write(p []byte) (int, error) {
	r.buf.Write(p)
	return r.ResponseWriter.Write(p)
}

// headerSnapshot flattens a header map for logging, hiding credentials.
func headerSnapshot(h map[string][]string) map[string]string {
	out := make(map[string]string, len(h))
	for key, values := range h {
		if len(values) == 0 {
			continue
		}
		if redactedHeaders[key] {
			out[key] = "[REDACTED]"
		} else {
			out[key] = values[0]
		}
	}
	return out
}

// jsonSnapshot decodes a body for structured logging. Non-JSON and
// oversized bodies come back nil; the caller logs the size instead.
func jsonSnapshot(body []byte, contentType string) interface{} {
	if len(body) == 0 || len(body) > maxLoggedBodyBytes {
		return nil
	}
	if !strings.HasPrefix(contentType, "application/json") {
		return nil
	}
	var decoded interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return string(body)
	}
	return decoded
}

// EnhancedLoggingMiddleware logs full request and response payloads.
// It is wired only for development stages; run payloads are far too
// chatty for production.
func EnhancedLoggingMiddleware(isDevelopment bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isDevelopment || logger.Log == nil {
			c.Next()
			return
		}

		start := time.Now()
		log := LogWithCorrelationID(c.Request.Context())

		var requestBody []byte
		if c.Request.Body != nil {
			requestBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(requestBody))
		}

		log.Info("Detailed request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.Any("headers", headerSnapshot(c.Request.Header)),
			zap.Any("body", jsonSnapshot(requestBody, c.GetHeader("Content-Type"))),
			zap.Int("body_size", len(requestBody)),
		)

		rec := &responseRecorder{ResponseWriter: c.Writer}
		c.Writer = rec

		c.Next()

		responseBody := rec.buf.Bytes()
		log.Info("Detailed response",
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.Any("headers", headerSnapshot(c.Writer.Header())),
			zap.Any("body", jsonSnapshot(responseBody, c.Writer.Header().Get("Content-Type"))),
			zap.Int("body_size", len(responseBody)),
			zap.Int("errors_count", len(c.Errors)),
		)

		for _, err := range c.Errors {
			log.Error("Request error",
				zap.Error(err.Err),
				zap.Uint64("type", uint64(err.Type)),
				zap.Any("meta", err.Meta),
			)
		}
	}
}

// RequestLoggingMiddleware emits one line per request, the production
// access log.
func RequestLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		if logger.Log == nil {
			return
		}
		logger.Log.Info("Request completed",
			zap.String("correlation_id", GetCorrelationID(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		)
	}
}
