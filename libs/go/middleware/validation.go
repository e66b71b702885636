package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nexfield/nexfield-api/libs/go/logger"
)

// ValidationRule describes the checks applied to one body or query field.
type ValidationRule struct {
	Field         string
	Required      bool
	Type          string // string, number, boolean, uuid, email, url, array, object
	MinLength     int
	MaxLength     int
	Pattern       string
	Min           *float64
	Max           *float64
	AllowedValues []string
	Sanitize      bool
	Custom        func(interface{}) error
}

// ValidationConfig holds the rule set for one endpoint.
type ValidationConfig struct {
	Rules              []ValidationRule
	MaxBodySize        int64
	AllowUnknownFields bool
}

var (
	EmailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	URLRegex   = regexp.MustCompile(`^https?://[^\s/$.?#].[^\s]*$`)
)

// ValidationError reports one failed check on one field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// ValidateInput rejects a request before the handler ever sees it when
// its body violates the endpoint's rules. Valid bodies are stored on the
// context and replayed for the handler's own binding.
func ValidateInput(config ValidationConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if config.MaxBodySize > 0 && c.Request.ContentLength > config.MaxBodySize {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": fmt.Sprintf("Request body too large. Maximum size: %d bytes", config.MaxBodySize),
			})
			c.Abort()
			return
		}

		var body map[string]interface{}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid JSON in request body",
			})
			c.Abort()
			return
		}

		if errs := checkFields(body, config.Rules, config.AllowUnknownFields); len(errs) > 0 {
			c.JSON(http.StatusBadRequest, ValidationErrors{Errors: errs})
			c.Abort()
			return
		}

		// Sanitization may have rewritten values, so the handler must
		// bind from the checked map, not the original bytes.
		bodyBytes, _ := json.Marshal(body)
		c.Set("validatedBody", body)
		c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))

		c.Next()
	}
}

// checkFields runs every rule against the payload and collects all
// failures, so a caller fixing a bad request sees the full list at once.
func checkFields(data map[string]interface{}, rules []ValidationRule, allowUnknown bool) []ValidationError {
	var errs []ValidationError
	known := make(map[string]bool, len(rules))

	fail := func(field, message string) {
		errs = append(errs, ValidationError{Field: field, Message: message})
	}

	for _, rule := range rules {
		known[rule.Field] = true

		value, exists := data[rule.Field]
		if rule.Required && (!exists || value == nil || value == "") {
			fail(rule.Field, fmt.Sprintf("%s is required", rule.Field))
			continue
		}
		if !exists || value == nil {
			continue
		}

		if err := rule.checkType(value); err != nil {
			fail(rule.Field, err.Error())
		} else if rule.Sanitize && rule.Type == "string" {
			if str, ok := value.(string); ok {
				data[rule.Field] = sanitizeString(str)
			}
		}

		if rule.Custom != nil {
			if err := rule.Custom(value); err != nil {
				fail(rule.Field, err.Error())
			}
		}
	}

	if !allowUnknown {
		for field := range data {
			if !known[field] {
				fail(field, "unknown field")
			}
		}
	}

	return errs
}

// checkType applies the rule's type-specific constraints.
func (rule ValidationRule) checkType(value interface{}) error {
	switch rule.Type {
	case "string":
		return rule.checkString(value)
	case "number", "int", "float":
		return rule.checkNumber(value)
	case "boolean", "bool":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("must be a boolean")
		}
	case "uuid":
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("must be a string")
		}
		if _, err := uuid.Parse(str); err != nil {
			return fmt.Errorf("must be a valid UUID")
		}
	case "email":
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("must be a string")
		}
		if !EmailRegex.MatchString(str) {
			return fmt.Errorf("must be a valid email address")
		}
	case "url":
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("must be a string")
		}
		if !URLRegex.MatchString(str) {
			return fmt.Errorf("must be a valid URL")
		}
	case "array":
		if _, ok := value.([]interface{}); !ok {
			return fmt.Errorf("must be an array")
		}
	case "object":
		if _, ok := value.(map[string]interface{}); !ok {
			return fmt.Errorf("must be an object")
		}
	}
	return nil
}

func (rule ValidationRule) checkString(value interface{}) error {
	str, ok := value.(string)
	if !ok {
		return fmt.Errorf("must be a string")
	}

	length := utf8.RuneCountInString(str)
	if rule.MinLength > 0 && length < rule.MinLength {
		return fmt.Errorf("must be at least %d characters long", rule.MinLength)
	}
	if rule.MaxLength > 0 && length > rule.MaxLength {
		return fmt.Errorf("must be at most %d characters long", rule.MaxLength)
	}

	if rule.Pattern != "" {
		regex, err := regexp.Compile(rule.Pattern)
		if err != nil {
			logger.Log.Error("Invalid regex pattern", zap.String("pattern", rule.Pattern), zap.Error(err))
			return fmt.Errorf("invalid validation pattern")
		}
		if !regex.MatchString(str) {
			return fmt.Errorf("invalid format")
		}
	}

	if len(rule.AllowedValues) > 0 {
		for _, v := range rule.AllowedValues {
			if str == v {
				return nil
			}
		}
		return fmt.Errorf("must be one of: %s", strings.Join(rule.AllowedValues, ", "))
	}

	return nil
}

func (rule ValidationRule) checkNumber(value interface{}) error {
	var num float64
	switch v := value.(type) {
	case float64:
		num = v
	case int:
		num = float64(v)
	case int64:
		num = float64(v)
	default:
		return fmt.Errorf("must be a number")
	}

	if rule.Min != nil && num < *rule.Min {
		return fmt.Errorf("must be at least %v", *rule.Min)
	}
	if rule.Max != nil && num > *rule.Max {
		return fmt.Errorf("must be at most %v", *rule.Max)
	}

	return nil
}

// sanitizeString neutralizes markup in free-text fields. Jurisdiction
// names and analysis descriptions end up in report UIs verbatim.
func sanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	input = strings.TrimSpace(input)
	return html.EscapeString(input)
}

// Rules shared across endpoint configurations.
var (
	// AnalysisNameValidation for analysis display names
	AnalysisNameValidation = ValidationRule{
		Field:     "name",
		Type:      "string",
		Required:  true,
		MinLength: 1,
		MaxLength: 255,
		Sanitize:  true,
	}

	// JurisdictionCodeValidation for jurisdiction code fields
	JurisdictionCodeValidation = ValidationRule{
		Field:    "jurisdiction_code",
		Type:     "string",
		Required: true,
		Custom:   ValidateJurisdictionCode,
	}

	// DescriptionValidation for free-form description fields
	DescriptionValidation = ValidationRule{
		Field:     "description",
		Type:      "string",
		Required:  false,
		MaxLength: 500,
		Sanitize:  true,
	}
)

func float64Ptr(f float64) *float64 {
	return &f
}
