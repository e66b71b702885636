package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexfield/nexfield-api/libs/go/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.InitLogger("test")
}

func TestCorrelationIDMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		inbound  string
		wantSame bool
	}{
		{
			name:     "generates an ID when the caller sends none",
			inbound:  "",
			wantSame: false,
		},
		{
			name:     "echoes the caller's ID back unchanged",
			inbound:  "run-7f3a-retry-2",
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(CorrelationIDMiddleware())

			// The handler reports what it saw in both the gin context and
			// the request context, so the test can verify propagation.
			var fromGin, fromRequest string
			router.GET("/analyses", func(c *gin.Context) {
				fromGin = GetCorrelationID(c)
				fromRequest = CorrelationIDFromContext(c.Request.Context())
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/analyses", nil)
			if tt.inbound != "" {
				req.Header.Set(CorrelationIDHeader, tt.inbound)
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)

			echoed := w.Header().Get(CorrelationIDHeader)
			require.NotEmpty(t, echoed)

			if tt.wantSame {
				assert.Equal(t, tt.inbound, echoed)
			} else {
				_, err := uuid.Parse(echoed)
				assert.NoError(t, err, "generated correlation IDs are UUIDs")
			}

			// Handlers and the engine behind them must see the same ID.
			assert.Equal(t, echoed, fromGin)
			assert.Equal(t, echoed, fromRequest)
		})
	}
}

func TestGetCorrelationID_MissingMiddleware(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Empty(t, GetCorrelationID(c))
}

func TestCorrelationIDFromContext_Empty(t *testing.T) {
	assert.Empty(t, CorrelationIDFromContext(context.Background()))
}

func TestLogWithCorrelationID(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "b2ac9e04-52c1-4dd0-8de5-c30b4bb0ce6f")
	log := LogWithCorrelationID(ctx)
	require.NotNil(t, log)

	// A bare context still yields a usable logger.
	assert.NotNil(t, LogWithCorrelationID(context.Background()))
}
