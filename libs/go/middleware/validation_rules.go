package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/nexfield/nexfield-api/libs/go/constants"
	"github.com/nexfield/nexfield-api/libs/go/helpers"
	"github.com/nexfield/nexfield-api/libs/go/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Request validation configs for the analysis endpoints. Rule payloads
// are validated where they bind; anything not expressible as a field rule
// lives on the handler or service.

// Analysis validation rules
var CreateAnalysisValidation = ValidationConfig{
	MaxBodySize:        64 * 1024, // 64KB
	AllowUnknownFields: false,
	Rules: []ValidationRule{
		AnalysisNameValidation,
		{
			Field:    "period_start",
			Type:     "string",
			Required: true,
			Custom:   ValidateDateString,
		},
		{
			Field:    "period_end",
			Type:     "string",
			Required: true,
			Custom:   ValidateDateString,
		},
		{
			Field:    "evaluation_date",
			Type:     "string",
			Required: false,
			Custom:   ValidateDateString,
		},
		{
			Field:    "vda_mode",
			Type:     "boolean",
			Required: false,
		},
		{
			Field:    "base_tax_only",
			Type:     "boolean",
			Required: false,
		},
		{
			Field:    "strict_lookback",
			Type:     "boolean",
			Required: false,
		},
	},
}

// Transaction import validation rules. Row-level field checks stay with the
// handler binding and the engine's findings, so a structurally sound batch
// is never rejected wholesale here.
var ImportTransactionsValidation = ValidationConfig{
	MaxBodySize:        8 * 1024 * 1024, // 8MB for large ledger batches
	AllowUnknownFields: false,
	Rules: []ValidationRule{
		{
			Field:    "transactions",
			Type:     "array",
			Required: true,
			Custom: func(value interface{}) error {
				rows, ok := value.([]interface{})
				if !ok {
					return fmt.Errorf("transactions must be an array")
				}
				if len(rows) < 1 {
					return fmt.Errorf("at least one transaction is required")
				}
				if len(rows) > 50000 {
					return fmt.Errorf("maximum 50000 transactions allowed per import")
				}
				return nil
			},
		},
	},
}

// Physical presence validation rules
var CreatePhysicalPresenceValidation = ValidationConfig{
	MaxBodySize:        64 * 1024, // 64KB
	AllowUnknownFields: false,
	Rules: []ValidationRule{
		JurisdictionCodeValidation,
		{
			Field:    "start_date",
			Type:     "string",
			Required: true,
			Custom:   ValidateDateString,
		},
		{
			Field:    "end_date",
			Type:     "string",
			Required: false,
			Custom:   ValidateDateString,
		},
		DescriptionValidation,
	},
}

// Pagination bounds shared by the list endpoints
var ListQueryValidation = ValidationConfig{
	Rules: []ValidationRule{
		{
			Field:    "page",
			Type:     "number",
			Required: false,
			Min:      float64Ptr(1),
			Max:      float64Ptr(1000),
		},
		{
			Field:    "limit",
			Type:     "number",
			Required: false,
			Min:      float64Ptr(1),
			Max:      float64Ptr(100),
		},
	},
}

// Run endpoint query validation
var RunQueryValidation = ValidationConfig{
	Rules: []ValidationRule{
		{
			Field:         "async",
			Type:          "string",
			Required:      false,
			AllowedValues: []string{"true", "false"},
		},
		{
			Field:    "notify_email",
			Type:     "email",
			Required: false,
		},
	},
}

// ValidateDateString checks a value is a date-only string. Empty strings
// pass so optional date fields can be sent blank.
func ValidateDateString(value interface{}) error {
	str, ok := value.(string)
	if !ok {
		return fmt.Errorf("must be a string")
	}
	if str == "" {
		return nil
	}
	if _, err := time.Parse(constants.DateLayout, str); err != nil {
		return fmt.Errorf("must be a date in YYYY-MM-DD format")
	}
	return nil
}

// ValidateJurisdictionCode checks a value is a usable jurisdiction code
// after normalization ("us-ca" and "US-CA" are the same jurisdiction).
func ValidateJurisdictionCode(value interface{}) error {
	str, ok := value.(string)
	if !ok {
		return fmt.Errorf("must be a string")
	}
	if !helpers.IsJurisdictionCodeValid(helpers.NormalizeJurisdictionCode(str)) {
		return fmt.Errorf("must be a valid jurisdiction code")
	}
	return nil
}

// ValidateQueryParams creates validation for URL query parameters
func ValidateQueryParams(config ValidationConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Parse query parameters into a map
		params := make(map[string]interface{})
		for key, values := range c.Request.URL.Query() {
			if len(values) > 0 {
				// Numeric-looking params are validated as numbers; everything
				// else stays a string so AllowedValues rules can match
				if num, err := strconv.ParseFloat(values[0], 64); err == nil {
					params[key] = num
				} else {
					params[key] = values[0]
				}
			}
		}

		errors := checkFields(params, config.Rules, config.AllowUnknownFields)
		if len(errors) > 0 {
			if logger.Log != nil {
				logger.Log.Debug("Query validation failed",
					zap.Any("errors", errors),
					zap.String("path", c.Request.URL.Path),
					zap.String("correlation_id", c.GetHeader("X-Correlation-ID")),
				)
			}
			c.JSON(http.StatusBadRequest, ValidationErrors{Errors: errors})
			c.Abort()
			return
		}

		// Store validated params in context
		c.Set("validatedQuery", params)
		c.Next()
	}
}
