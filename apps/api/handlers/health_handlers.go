package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nexfield/nexfield-api/libs/go/types/api/responses"
)

// DBPinger is the slice of the connection pool the readiness probe needs.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	db DBPinger
}

// NewHealthHandler creates the probe handler. db may be nil when no pool
// exists, in which case readiness reports ok unconditionally.
func NewHealthHandler(db DBPinger) *HealthHandler {
	return &HealthHandler{db: db}
}

type HealthResponse = responses.HealthResponse

// Health godoc
// @Summary Check the health of the server
// @Description Returns a simple "ok" status without touching the database
// @Tags health
// @Accept json
// @Produce json
// @Tags exclude
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "ok",
	})
}

// Ready godoc
// @Summary Check the server is ready to take traffic
// @Description Pings the database and reports 503 while it is unreachable
// @Tags health
// @Accept json
// @Produce json
// @Tags exclude
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := h.db.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, responses.ErrorResponse{
				Error: "database unreachable",
			})
			return
		}
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status: "ok",
	})
}
