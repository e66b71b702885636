package middleware

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestCreateAnalysisValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		body           map[string]interface{}
		expectedStatus int
		expectedError  string
	}{
		{
			name: "Valid analysis request",
			body: map[string]interface{}{
				"name":         "FY22-FY24 nexus review",
				"period_start": "2022-01-01",
				"period_end":   "2024-12-31",
				"vda_mode":     false,
			},
			expectedStatus: 200,
		},
		{
			name: "Missing name",
			body: map[string]interface{}{
				"period_start": "2022-01-01",
				"period_end":   "2024-12-31",
			},
			expectedStatus: 400,
			expectedError:  "name is required",
		},
		{
			name: "Malformed period start",
			body: map[string]interface{}{
				"name":         "Bad dates",
				"period_start": "01/01/2022",
				"period_end":   "2024-12-31",
			},
			expectedStatus: 400,
			expectedError:  "must be a date in YYYY-MM-DD format",
		},
		{
			name: "Evaluation date may be blank",
			body: map[string]interface{}{
				"name":            "Blank evaluation date",
				"period_start":    "2022-01-01",
				"period_end":      "2024-12-31",
				"evaluation_date": "",
			},
			expectedStatus: 200,
		},
		{
			name: "VDA mode must be boolean",
			body: map[string]interface{}{
				"name":         "Wrong flag type",
				"period_start": "2022-01-01",
				"period_end":   "2024-12-31",
				"vda_mode":     "yes",
			},
			expectedStatus: 400,
			expectedError:  "must be a boolean",
		},
		{
			name: "Unknown field rejected",
			body: map[string]interface{}{
				"name":         "Stray field",
				"period_start": "2022-01-01",
				"period_end":   "2024-12-31",
				"stray":        "value",
			},
			expectedStatus: 400,
			expectedError:  "unknown field",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.POST("/analyses", ValidateInput(CreateAnalysisValidation), func(c *gin.Context) {
				c.JSON(200, gin.H{"status": "ok"})
			})

			bodyBytes, _ := json.Marshal(tt.body)
			req := httptest.NewRequest("POST", "/analyses", bytes.NewReader(bodyBytes))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Contains(t, w.Body.String(), tt.expectedError)
			}
		})
	}
}

func TestImportTransactionsValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)

	row := map[string]interface{}{
		"jurisdiction_code": "CA",
		"date":              "2023-02-14",
		"amount_cents":      129900,
		"channel":           "direct",
	}

	tests := []struct {
		name           string
		body           map[string]interface{}
		expectedStatus int
		expectedError  string
	}{
		{
			name: "Valid batch",
			body: map[string]interface{}{
				"transactions": []interface{}{row},
			},
			expectedStatus: 200,
		},
		{
			name: "Empty batch rejected",
			body: map[string]interface{}{
				"transactions": []interface{}{},
			},
			expectedStatus: 400,
			expectedError:  "at least one transaction is required",
		},
		{
			name:           "Missing transactions field",
			body:           map[string]interface{}{},
			expectedStatus: 400,
			expectedError:  "transactions is required",
		},
		{
			name: "Transactions must be an array",
			body: map[string]interface{}{
				"transactions": "not-an-array",
			},
			expectedStatus: 400,
			expectedError:  "must be an array",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.POST("/import", ValidateInput(ImportTransactionsValidation), func(c *gin.Context) {
				c.JSON(200, gin.H{"status": "ok"})
			})

			bodyBytes, _ := json.Marshal(tt.body)
			req := httptest.NewRequest("POST", "/import", bytes.NewReader(bodyBytes))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Contains(t, w.Body.String(), tt.expectedError)
			}
		})
	}
}

func TestCreatePhysicalPresenceValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		body           map[string]interface{}
		expectedStatus int
		expectedError  string
	}{
		{
			name: "Valid presence declaration",
			body: map[string]interface{}{
				"jurisdiction_code": "WA",
				"start_date":        "2023-06-01",
				"end_date":          "2023-08-31",
				"description":       "Trade show booth",
			},
			expectedStatus: 200,
		},
		{
			name: "Lowercase code accepted",
			body: map[string]interface{}{
				"jurisdiction_code": "us-ca",
				"start_date":        "2023-06-01",
			},
			expectedStatus: 200,
		},
		{
			name: "Invalid jurisdiction code",
			body: map[string]interface{}{
				"jurisdiction_code": "X",
				"start_date":        "2023-06-01",
			},
			expectedStatus: 400,
			expectedError:  "must be a valid jurisdiction code",
		},
		{
			name: "Malformed start date",
			body: map[string]interface{}{
				"jurisdiction_code": "WA",
				"start_date":        "June 1st",
			},
			expectedStatus: 400,
			expectedError:  "must be a date in YYYY-MM-DD format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.POST("/presence", ValidateInput(CreatePhysicalPresenceValidation), func(c *gin.Context) {
				c.JSON(200, gin.H{"status": "ok"})
			})

			bodyBytes, _ := json.Marshal(tt.body)
			req := httptest.NewRequest("POST", "/presence", bytes.NewReader(bodyBytes))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Contains(t, w.Body.String(), tt.expectedError)
			}
		})
	}
}

func TestRunQueryValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		query          string
		expectedStatus int
	}{
		{
			name:           "No query params",
			query:          "",
			expectedStatus: 200,
		},
		{
			name:           "Async run with notification",
			query:          "async=true&notify_email=controller@example.com",
			expectedStatus: 200,
		},
		{
			name:           "Invalid async flag",
			query:          "async=maybe",
			expectedStatus: 400,
		},
		{
			name:           "Invalid notification email",
			query:          "notify_email=not-an-email",
			expectedStatus: 400,
		},
		{
			name:           "Unknown query param rejected",
			query:          "force=true",
			expectedStatus: 400,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.POST("/run", ValidateQueryParams(RunQueryValidation), func(c *gin.Context) {
				c.JSON(200, gin.H{"status": "ok"})
			})

			url := "/run"
			if tt.query != "" {
				url += "?" + tt.query
			}
			req := httptest.NewRequest("POST", url, nil)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestValidateDateString(t *testing.T) {
	assert.NoError(t, ValidateDateString("2024-02-29"))
	assert.NoError(t, ValidateDateString(""))
	assert.Error(t, ValidateDateString("2023-02-29"))
	assert.Error(t, ValidateDateString("2023-1-2"))
	assert.Error(t, ValidateDateString(20230102))
}

func TestValidateJurisdictionCode(t *testing.T) {
	assert.NoError(t, ValidateJurisdictionCode("CA"))
	assert.NoError(t, ValidateJurisdictionCode("us-ca"))
	assert.NoError(t, ValidateJurisdictionCode("NYC"))
	assert.Error(t, ValidateJurisdictionCode("C"))
	assert.Error(t, ValidateJurisdictionCode("TOOLONGCODE"))
	assert.Error(t, ValidateJurisdictionCode(42))
}
