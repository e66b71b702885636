package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	awsclient "github.com/nexfield/nexfield-api/libs/go/client/aws"
	"github.com/nexfield/nexfield-api/libs/go/logger"
	"github.com/nexfield/nexfield-api/libs/go/middleware"
	"github.com/nexfield/nexfield-api/libs/go/services"
	"github.com/nexfield/nexfield-api/libs/go/types/api/responses"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// CommonServices holds the outbound integrations handlers share. Both are
// optional: without a queue async runs are rejected, and without a
// notification service completion emails are skipped.
type CommonServices struct {
	NotificationService *services.NotificationService
	RunQueue            *awsclient.RunQueueClient
}

// ErrorResponse represents a standard error response
type ErrorResponse = responses.ErrorResponse

// SuccessResponse represents a standard success response
type SuccessResponse = responses.SuccessResponse

// sendError logs the failure and sends a JSON error response. The
// correlation ID is echoed in the body so callers can quote it when
// reporting problems.
func sendError(c *gin.Context, statusCode int, message string, err error) {
	correlationID := middleware.GetCorrelationID(c)

	logger.Error(message,
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
		zap.String("correlation_id", correlationID),
	)

	response := struct {
		Error         string `json:"error"`
		CorrelationID string `json:"correlation_id,omitempty"`
	}{
		Error:         message,
		CorrelationID: correlationID,
	}

	c.JSON(statusCode, response)
}

// handleServiceError maps service and database errors to HTTP status codes.
// Lifecycle conflicts (locked, not runnable, results pending) map to 409,
// missing records to 404, everything else to 500.
func handleServiceError(c *gin.Context, err error, notFoundMsg string) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, pgx.ErrNoRows),
		errors.Is(err, services.ErrAnalysisNotFound),
		errors.Is(err, services.ErrRuleNotFound):
		sendError(c, http.StatusNotFound, notFoundMsg, err)
	case errors.Is(err, services.ErrAnalysisLocked):
		sendError(c, http.StatusConflict, "Analysis is currently processing", err)
	case errors.Is(err, services.ErrAnalysisNotRunnable):
		sendError(c, http.StatusConflict, "Analysis is already running", err)
	case errors.Is(err, services.ErrResultsNotAvailable):
		sendError(c, http.StatusConflict, "Analysis has no computed results", err)
	default:
		sendError(c, http.StatusInternalServerError, "Internal server error", err)
	}
}

// sendSuccess sends a success response
func sendSuccess(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

type PaginatedResponse = responses.PaginatedResponse

type Pagination = responses.Pagination

// buildPaginatedResponse assembles a paginated list payload
func buildPaginatedResponse(data interface{}, page, limit, total int) PaginatedResponse {
	totalPages := (total + limit - 1) / limit
	return PaginatedResponse{
		Data:    data,
		Object:  "list",
		HasMore: page < totalPages,
		Pagination: Pagination{
			CurrentPage: page,
			PerPage:     limit,
			TotalItems:  total,
			TotalPages:  totalPages,
		},
	}
}

// sendSuccessMessage sends a bare confirmation message
func sendSuccessMessage(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, SuccessResponse{Message: message})
}

// sendList sends an unpaginated list response
func sendList(c *gin.Context, items interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   items,
	})
}

// validatePaginationParams parses the limit and page query parameters,
// defaulting to 10 per page starting at page 1. Limits are capped at 100.
func validatePaginationParams(c *gin.Context) (limit int32, page int32, err error) {
	limit, err = queryInt32(c, "limit", 10, 100)
	if err != nil {
		return 0, 0, err
	}
	page, err = queryInt32(c, "page", 1, 0)
	if err != nil {
		return 0, 0, err
	}
	return limit, page, nil
}

// queryInt32 parses a positive integer query parameter. Absent, zero and
// negative values fall back to the default; values above max clamp to max
// when max is positive.
func queryInt32(c *gin.Context, name string, def, max int32) (int32, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	parsed, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}
	value := int32(parsed)
	if value < 1 {
		return def, nil
	}
	if max > 0 && value > max {
		return max, nil
	}
	return value, nil
}
