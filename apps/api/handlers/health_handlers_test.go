package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexfield/nexfield-api/libs/go/middleware"
)

// stubPinger stands in for the connection pool in readiness tests.
type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error {
	return p.err
}

func TestNewHealthHandler(t *testing.T) {
	handler := NewHealthHandler(nil)
	require.NotNil(t, handler)
	assert.IsType(t, &HealthHandler{}, handler)
}

func TestHealthHandler_Health(t *testing.T) {
	handler := NewHealthHandler(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	handler.Health(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHealthHandler_Ready(t *testing.T) {
	tests := []struct {
		name       string
		db         DBPinger
		wantStatus int
		wantBody   string
	}{
		{
			name:       "ready while the database answers",
			db:         stubPinger{},
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ok"}`,
		},
		{
			name:       "unavailable while the database is down",
			db:         stubPinger{err: errors.New("dial tcp: connection refused")},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   `{"error":"database unreachable"}`,
		},
		{
			name:       "ready when no pool is configured",
			db:         nil,
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ok"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(tt.db)

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

			handler.Ready(c)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

// The health check is registered both at /health and under the deployment
// stage prefix, and it must report a correlation ID like every other route.
func TestHealthHandler_ThroughRouter(t *testing.T) {
	handler := NewHealthHandler(stubPinger{})

	router := gin.New()
	router.Use(middleware.CorrelationIDMiddleware())
	router.GET("/health", handler.Health)
	router.GET("/:stage/health", handler.Health)
	router.GET("/ready", handler.Ready)

	for _, path := range []string{"/health", "/prod/health", "/ready"} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, path, nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
			assert.NotEmpty(t, w.Header().Get(middleware.CorrelationIDHeader))
		})
	}
}

func TestHealthHandler_Concurrency(t *testing.T) {
	handler := NewHealthHandler(nil)

	router := gin.New()
	router.GET("/health", handler.Health)

	const requests = 20
	var wg sync.WaitGroup
	results := make(chan int, requests)

	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			router.ServeHTTP(w, req)
			results <- w.Code
		}()
	}

	wg.Wait()
	close(results)

	for code := range results {
		assert.Equal(t, http.StatusOK, code)
	}
}
