package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	awsclient "github.com/nexfield/nexfield-api/libs/go/client/aws"
	"github.com/nexfield/nexfield-api/libs/go/constants"
	"github.com/nexfield/nexfield-api/libs/go/db"
	"github.com/nexfield/nexfield-api/libs/go/logger"
	"github.com/nexfield/nexfield-api/libs/go/services"
	"github.com/nexfield/nexfield-api/libs/go/testutil"
	"github.com/nexfield/nexfield-api/libs/go/types/api/responses"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.InitLogger("test")
}

// newAnalysisTestStack wires a handler against a mocked store. The nil pool
// keeps result persistence on the plain store so every query hits the mock.
func newAnalysisTestStack(runQueue *awsclient.RunQueueClient) (*testutil.MockQuerier, *AnalysisHandler) {
	mockDB := new(testutil.MockQuerier)
	rulesService := services.NewRulesService(mockDB)
	analysisService := services.NewAnalysisService(mockDB, nil, rulesService)
	common := &CommonServices{RunQueue: runQueue}
	return mockDB, NewAnalysisHandler(common, analysisService, zap.NewNop())
}

// newRequestContext builds a gin test context with an optional analysis_id
// path parameter and an optional JSON body. A string payload is sent raw so
// tests can exercise malformed JSON.
func newRequestContext(t *testing.T, method, target, analysisID string, payload interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var body io.Reader
	if payload != nil {
		if raw, ok := payload.(string); ok {
			body = strings.NewReader(raw)
		} else {
			encoded, err := json.Marshal(payload)
			require.NoError(t, err)
			body = bytes.NewReader(encoded)
		}
	}
	c.Request = httptest.NewRequest(method, target, body)
	c.Request.Header.Set("Content-Type", "application/json")
	if analysisID != "" {
		c.Params = gin.Params{{Key: "analysis_id", Value: analysisID}}
	}
	return c, w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestNewAnalysisHandler(t *testing.T) {
	mockDB, handler := newAnalysisTestStack(nil)
	require.NotNil(t, mockDB)
	require.NotNil(t, handler)
	assert.IsType(t, &AnalysisHandler{}, handler)
}

func TestAnalysisHandler_CreateAnalysis(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		setupMocks     func(m *testutil.MockQuerier)
		expectedStatus int
		expectedError  string
	}{
		{
			name: "creates a draft analysis",
			body: gin.H{
				"name":         "FY22-24 lookback",
				"period_start": "2022-01-01",
				"period_end":   "2024-12-31",
			},
			setupMocks: func(m *testutil.MockQuerier) {
				m.On("CreateAnalysis", mock.Anything, mock.MatchedBy(func(arg db.CreateAnalysisParams) bool {
					return arg.Name == "FY22-24 lookback" &&
						arg.Status == constants.AnalysisStatusDraft &&
						arg.PeriodStart.Equal(time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)) &&
						arg.PeriodEnd.Equal(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)) &&
						!arg.VdaMode && !arg.EvaluationDate.Valid
				})).Return(createTestAnalysisRow(constants.AnalysisStatusDraft), nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "carries the VDA and evaluation date options through",
			body: gin.H{
				"name":            "VDA disclosure",
				"period_start":    "2021-01-01",
				"period_end":      "2023-12-31",
				"evaluation_date": "2024-03-01",
				"vda_mode":        true,
				"base_tax_only":   true,
			},
			setupMocks: func(m *testutil.MockQuerier) {
				m.On("CreateAnalysis", mock.Anything, mock.MatchedBy(func(arg db.CreateAnalysisParams) bool {
					return arg.VdaMode && arg.BaseTaxOnly && !arg.StrictLookback &&
						arg.EvaluationDate.Valid &&
						arg.EvaluationDate.Time.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
				})).Return(createTestAnalysisRow(constants.AnalysisStatusDraft), nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "rejects malformed JSON",
			body:           `{"name": "broken`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid request body",
		},
		{
			name: "rejects a missing name",
			body: gin.H{
				"period_start": "2022-01-01",
				"period_end":   "2024-12-31",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid request body",
		},
		{
			name: "rejects a bad period_start",
			body: gin.H{
				"name":         "FY22-24 lookback",
				"period_start": "01/01/2022",
				"period_end":   "2024-12-31",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid period_start date format",
		},
		{
			name: "rejects an inverted period",
			body: gin.H{
				"name":         "FY22-24 lookback",
				"period_start": "2024-01-01",
				"period_end":   "2022-12-31",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "period_end precedes period_start",
		},
		{
			name: "rejects a bad evaluation_date",
			body: gin.H{
				"name":            "FY22-24 lookback",
				"period_start":    "2022-01-01",
				"period_end":      "2024-12-31",
				"evaluation_date": "soon",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid evaluation_date date format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockDB, handler := newAnalysisTestStack(nil)
			if tt.setupMocks != nil {
				tt.setupMocks(mockDB)
			}

			c, w := newRequestContext(t, http.MethodPost, "/analyses", "", tt.body)
			handler.CreateAnalysis(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, decodeError(t, w))
				return
			}

			var resp responses.AnalysisResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, testAnalysisID.String(), resp.ID)
			assert.Equal(t, "analysis", resp.Object)
			assert.Equal(t, "draft", resp.Status)
			mockDB.AssertExpectations(t)
		})
	}
}

func TestAnalysisHandler_GetAnalysis(t *testing.T) {
	tests := []struct {
		name           string
		analysisID     string
		setupMocks     func(m *testutil.MockQuerier)
		expectedStatus int
		expectedError  string
	}{
		{
			name:       "returns the analysis",
			analysisID: testAnalysisID.String(),
			setupMocks: func(m *testutil.MockQuerier) {
				m.On("GetAnalysis", mock.Anything, testAnalysisID).
					Return(createTestAnalysisRow(constants.AnalysisStatusCompleted), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "rejects a malformed id",
			analysisID:     "not-a-uuid",
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid analysis ID format",
		},
		{
			name:       "maps a missing analysis to 404",
			analysisID: testAnalysisID.String(),
			setupMocks: func(m *testutil.MockQuerier) {
				m.On("GetAnalysis", mock.Anything, testAnalysisID).
					Return(db.Analysis{}, pgx.ErrNoRows)
			},
			expectedStatus: http.StatusNotFound,
			expectedError:  "Analysis not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockDB, handler := newAnalysisTestStack(nil)
			if tt.setupMocks != nil {
				tt.setupMocks(mockDB)
			}

			c, w := newRequestContext(t, http.MethodGet, "/analyses/"+tt.analysisID, tt.analysisID, nil)
			handler.GetAnalysis(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, decodeError(t, w))
				return
			}

			var resp responses.AnalysisResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "completed", resp.Status)
			assert.Equal(t, "2022-01-01", resp.PeriodStart)
			assert.Equal(t, "2024-12-31", resp.PeriodEnd)
		})
	}
}

func TestAnalysisHandler_GetAnalysis_ResponseFormat(t *testing.T) {
	row := createTestAnalysisRow(constants.AnalysisStatusDraft)
	row.CreatedAt = time.Unix(1719800000, 0)
	row.UpdatedAt = time.Unix(1719800000, 0)

	mockDB, handler := newAnalysisTestStack(nil)
	mockDB.On("GetAnalysis", mock.Anything, testAnalysisID).Return(row, nil)

	c, w := newRequestContext(t, http.MethodGet, "/analyses/"+testAnalysisID.String(), testAnalysisID.String(), nil)
	handler.GetAnalysis(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	// Unset optional fields (evaluation_date, failure_reason) must be omitted.
	expectedJSON := `{
		"id": "01234567-89ab-cdef-0123-456789abcdef",
		"object": "analysis",
		"name": "FY22-24 lookback",
		"status": "draft",
		"period_start": "2022-01-01",
		"period_end": "2024-12-31",
		"vda_mode": false,
		"base_tax_only": false,
		"strict_lookback": false,
		"created_at": 1719800000,
		"updated_at": 1719800000
	}`
	assert.JSONEq(t, expectedJSON, w.Body.String())
}

func TestAnalysisHandler_ListAnalyses(t *testing.T) {
	tests := []struct {
		name            string
		target          string
		setupMocks      func(m *testutil.MockQuerier)
		expectedStatus  int
		expectedError   string
		expectedItems   int
		expectedHasMore bool
		expectedPage    int
	}{
		{
			name:   "returns the first page with defaults",
			target: "/analyses",
			setupMocks: func(m *testutil.MockQuerier) {
				m.On("ListAnalyses", mock.Anything, mock.MatchedBy(func(arg db.ListAnalysesParams) bool {
					return arg.Limit == 10 && arg.Offset == 0
				})).Return([]db.Analysis{
					createTestAnalysisRow(constants.AnalysisStatusCompleted),
					createTestAnalysisRow(constants.AnalysisStatusDraft),
				}, nil)
				m.On("CountAnalyses", mock.Anything).Return(int64(12), nil)
			},
			expectedStatus:  http.StatusOK,
			expectedItems:   2,
			expectedHasMore: true,
			expectedPage:    1,
		},
		{
			name:   "caps the page size at 100",
			target: "/analyses?limit=500&page=2",
			setupMocks: func(m *testutil.MockQuerier) {
				m.On("ListAnalyses", mock.Anything, mock.MatchedBy(func(arg db.ListAnalysesParams) bool {
					return arg.Limit == 100 && arg.Offset == 100
				})).Return([]db.Analysis{}, nil)
				m.On("CountAnalyses", mock.Anything).Return(int64(150), nil)
			},
			expectedStatus:  http.StatusOK,
			expectedItems:   0,
			expectedHasMore: false,
			expectedPage:    2,
		},
		{
			name:           "rejects a malformed limit",
			target:         "/analyses?limit=abc",
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid limit parameter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockDB, handler := newAnalysisTestStack(nil)
			if tt.setupMocks != nil {
				tt.setupMocks(mockDB)
			}

			c, w := newRequestContext(t, http.MethodGet, tt.target, "", nil)
			handler.ListAnalyses(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, decodeError(t, w))
				return
			}

			var resp struct {
				Data       []responses.AnalysisResponse `json:"data"`
				Object     string                       `json:"object"`
				HasMore    bool                         `json:"has_more"`
				Pagination Pagination                   `json:"pagination"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "list", resp.Object)
			assert.Len(t, resp.Data, tt.expectedItems)
			assert.Equal(t, tt.expectedHasMore, resp.HasMore)
			assert.Equal(t, tt.expectedPage, resp.Pagination.CurrentPage)
			mockDB.AssertExpectations(t)
		})
	}
}

func TestAnalysisHandler_DeleteAnalysis(t *testing.T) {
	t.Run("deletes the analysis and everything attached", func(t *testing.T) {
		mockDB, handler := newAnalysisTestStack(nil)
		mockDB.On("GetAnalysis", mock.Anything, testAnalysisID).
			Return(createTestAnalysisRow(constants.AnalysisStatusCompleted), nil)
		mockDB.On("DeleteAnalysisDiagnosticsByAnalysis", mock.Anything, testAnalysisID).Return(nil)
		mockDB.On("DeleteAnalysisSummaryByAnalysis", mock.Anything, testAnalysisID).Return(nil)
		mockDB.On("DeleteNexusResultsByAnalysis", mock.Anything, testAnalysisID).Return(nil)
		mockDB.On("DeleteTransactionsByAnalysis", mock.Anything, testAnalysisID).Return(nil)
		mockDB.On("DeletePhysicalPresenceByAnalysis", mock.Anything, testAnalysisID).Return(nil)
		mockDB.On("DeleteAnalysis", mock.Anything, testAnalysisID).Return(nil)

		c, w := newRequestContext(t, http.MethodDelete, "/analyses/"+testAnalysisID.String(), testAnalysisID.String(), nil)
		handler.DeleteAnalysis(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"Analysis deleted successfully"}`, w.Body.String())
		mockDB.AssertExpectations(t)
	})

	t.Run("refuses to delete a mid-run analysis", func(t *testing.T) {
		mockDB, handler := newAnalysisTestStack(nil)
		mockDB.On("GetAnalysis", mock.Anything, testAnalysisID).
			Return(createTestAnalysisRow(constants.AnalysisStatusProcessing), nil)

		c, w := newRequestContext(t, http.MethodDelete, "/analyses/"+testAnalysisID.String(), testAnalysisID.String(), nil)
		handler.DeleteAnalysis(c)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "Analysis is currently processing", decodeError(t, w))
		mockDB.AssertNotCalled(t, "DeleteAnalysis", mock.Anything, mock.Anything)
	})

	t.Run("maps a missing analysis to 404", func(t *testing.T) {
		mockDB, handler := newAnalysisTestStack(nil)
		mockDB.On("GetAnalysis", mock.Anything, testAnalysisID).
			Return(db.Analysis{}, pgx.ErrNoRows)

		c, w := newRequestContext(t, http.MethodDelete, "/analyses/"+testAnalysisID.String(), testAnalysisID.String(), nil)
		handler.DeleteAnalysis(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Analysis not found", decodeError(t, w))
	})
}

func TestAnalysisHandler_ImportTransactions(t *testing.T) {
	t.Run("imports valid rows and reports malformed ones as findings", func(t *testing.T) {
		mockDB, handler := newAnalysisTestStack(nil)
		mockDB.On("GetAnalysis", mock.Anything, testAnalysisID).
			Return(createTestAnalysisRow(constants.AnalysisStatusDraft), nil)
		mockDB.On("InsertTransactionBatch", mock.Anything, mock.MatchedBy(func(batch []db.InsertTransactionBatchParams) bool {
			return len(batch) == 2 &&
				batch[0].JurisdictionCode == "CA" &&
				batch[0].AmountCents == 50000 &&
				batch[0].Channel == "direct" &&
				batch[1].JurisdictionCode == "TX" &&
				batch[1].Channel == "marketplace"
		})).Return(int64(2), nil)

		body := gin.H{
			"transactions": []gin.H{
				{"source_ref": "inv-100", "jurisdiction_code": "ca", "date": "2022-03-15", "amount_cents": 50000, "channel": "direct"},
				{"source_ref": "inv-101", "jurisdiction_code": "WA", "date": "2022-99-99", "amount_cents": 20000, "channel": "direct"},
				{"source_ref": "inv-102", "jurisdiction_code": "TX", "date": "2022-04-01", "amount_cents": 30000, "channel": "marketplace"},
			},
		}

		c, w := newRequestContext(t, http.MethodPost, "/analyses/"+testAnalysisID.String()+"/transactions", testAnalysisID.String(), body)
		handler.ImportTransactions(c)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp responses.ImportTransactionsResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Imported)
		assert.Equal(t, 1, resp.Rejected)
		require.Len(t, resp.Findings, 1)
		assert.Equal(t, "malformed_transaction", resp.Findings[0].Kind)
		assert.Equal(t, "inv-101", resp.Findings[0].SourceRef)
		assert.Contains(t, resp.Findings[0].Message, "unparseable date")
		mockDB.AssertExpectations(t)
	})

	t.Run("locks out a mid-run analysis", func(t *testing.T) {
		mockDB, handler := newAnalysisTestStack(nil)
		mockDB.On("GetAnalysis", mock.Anything, testAnalysisID).
			Return(createTestAnalysisRow(constants.AnalysisStatusProcessing), nil)

		body := gin.H{
			"transactions": []gin.H{
				{"jurisdiction_code": "CA", "date": "2022-03-15", "amount_cents": 50000, "channel": "direct"},
			},
		}
		c, w := newRequestContext(t, http.MethodPost, "/analyses/"+testAnalysisID.String()+"/transactions", testAnalysisID.String(), body)
		handler.ImportTransactions(c)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "Analysis is currently processing", decodeError(t, w))
		mockDB.AssertNotCalled(t, "InsertTransactionBatch", mock.Anything, mock.Anything)
	})

	t.Run("rejects an empty batch", func(t *testing.T) {
		_, handler := newAnalysisTestStack(nil)
		c, w := newRequestContext(t, http.MethodPost, "/analyses/"+testAnalysisID.String()+"/transactions", testAnalysisID.String(), gin.H{"transactions": []gin.H{}})
		handler.ImportTransactions(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid request body", decodeError(t, w))
	})
}

func TestAnalysisHandler_AddPhysicalPresence(t *testing.T) {
	t.Run("records presence with a normalized jurisdiction code", func(t *testing.T) {
		mockDB, handler := newAnalysisTestStack(nil)
		mockDB.On("GetAnalysis", mock.Anything, testAnalysisID).
			Return(createTestAnalysisRow(constants.AnalysisStatusDraft), nil)
		mockDB.On("CreatePhysicalPresence", mock.Anything, mock.MatchedBy(func(arg db.CreatePhysicalPresenceParams) bool {
			return arg.AnalysisID == testAnalysisID &&
				arg.JurisdictionCode == "WA" &&
				arg.StartDate.Equal(time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)) &&
				!arg.EndDate.Valid
		})).Return(db.PhysicalPresenceRecord{
			ID:               testPresenceID,
			AnalysisID:       testAnalysisID,
			JurisdictionCode: "WA",
			StartDate:        time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC),
			Description:      pgText("warehouse"),
		}, nil)

		body := gin.H{"jurisdiction_code": "wa", "start_date": "2022-06-01", "description": "warehouse"}
		c, w := newRequestContext(t, http.MethodPost, "/analyses/"+testAnalysisID.String()+"/physical-presence", testAnalysisID.String(), body)
		handler.AddPhysicalPresence(c)

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp responses.PhysicalPresenceResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "physical_presence", resp.Object)
		assert.Equal(t, "WA", resp.JurisdictionCode)
		assert.Equal(t, "2022-06-01", resp.StartDate)
		assert.Empty(t, resp.EndDate)
		assert.Equal(t, "warehouse", resp.Description)
		mockDB.AssertExpectations(t)
	})

	t.Run("rejects an inverted presence window", func(t *testing.T) {
		_, handler := newAnalysisTestStack(nil)
		body := gin.H{"jurisdiction_code": "WA", "start_date": "2022-06-01", "end_date": "2022-01-01"}
		c, w := newRequestContext(t, http.MethodPost, "/analyses/"+testAnalysisID.String()+"/physical-presence", testAnalysisID.String(), body)
		handler.AddPhysicalPresence(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "end_date precedes start_date", decodeError(t, w))
	})

	t.Run("rejects a bad start_date", func(t *testing.T) {
		_, handler := newAnalysisTestStack(nil)
		body := gin.H{"jurisdiction_code": "WA", "start_date": "June 2022"}
		c, w := newRequestContext(t, http.MethodPost, "/analyses/"+testAnalysisID.String()+"/physical-presence", testAnalysisID.String(), body)
		handler.AddPhysicalPresence(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid start_date date format", decodeError(t, w))
	})
}

func TestAnalysisHandler_ListPhysicalPresence(t *testing.T) {
	mockDB, handler := newAnalysisTestStack(nil)
	mockDB.On("ListPhysicalPresenceByAnalysis", mock.Anything, testAnalysisID).
		Return([]db.PhysicalPresenceRecord{
			{
				ID:               testPresenceID,
				AnalysisID:       testAnalysisID,
				JurisdictionCode: "WA",
				StartDate:        time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC),
				EndDate:          pgDate(time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)),
			},
		}, nil)

	c, w := newRequestContext(t, http.MethodGet, "/analyses/"+testAnalysisID.String()+"/physical-presence", testAnalysisID.String(), nil)
	handler.ListPhysicalPresence(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Object string                               `json:"object"`
		Data   []responses.PhysicalPresenceResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "list", resp.Object)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "WA", resp.Data[0].JurisdictionCode)
	assert.Equal(t, "2023-06-01", resp.Data[0].EndDate)
}

func TestAnalysisHandler_ListTransactions(t *testing.T) {
	t.Run("returns one page of the ledger", func(t *testing.T) {
		mockDB, handler := newAnalysisTestStack(nil)
		mockDB.On("GetAnalysis", mock.Anything, testAnalysisID).
			Return(createTestAnalysisRow(constants.AnalysisStatusDraft), nil)
		mockDB.On("ListTransactionsByAnalysis", mock.Anything, mock.MatchedBy(func(arg db.ListTransactionsByAnalysisParams) bool {
			return arg.AnalysisID == testAnalysisID && arg.Limit == 10 && arg.Offset == 0
		})).Return([]db.AnalysisTransaction{
			{
				ID:               testResultID,
				AnalysisID:       testAnalysisID,
				SourceRef:        pgText("inv-100"),
				JurisdictionCode: "CA",
				Date:             time.Date(2022, 3, 15, 0, 0, 0, 0, time.UTC),
				AmountCents:      50000,
				Channel:          "direct",
			},
		}, nil)
		mockDB.On("CountTransactionsByAnalysis", mock.Anything, testAnalysisID).Return(int64(1), nil)

		c, w := newRequestContext(t, http.MethodGet, "/analyses/"+testAnalysisID.String()+"/transactions", testAnalysisID.String(), nil)
		handler.ListTransactions(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data    []responses.TransactionResponse `json:"data"`
			Object  string                          `json:"object"`
			HasMore bool                            `json:"has_more"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "list", resp.Object)
		require.Len(t, resp.Data, 1)
		assert.Equal(t, "transaction", resp.Data[0].Object)
		assert.Equal(t, "CA", resp.Data[0].JurisdictionCode)
		assert.Equal(t, "2022-03-15", resp.Data[0].Date)
		assert.False(t, resp.HasMore)
	})

	t.Run("maps a missing analysis to 404", func(t *testing.T) {
		mockDB, handler := newAnalysisTestStack(nil)
		mockDB.On("GetAnalysis", mock.Anything, testAnalysisID).
			Return(db.Analysis{}, pgx.ErrNoRows)

		c, w := newRequestContext(t, http.MethodGet, "/analyses/"+testAnalysisID.String()+"/transactions", testAnalysisID.String(), nil)
		handler.ListTransactions(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Analysis not found", decodeError(t, w))
	})
}

func TestAnalysisHandler_RunAnalysis(t *testing.T) {
	t.Run("runs an empty ledger to completion", func(t *testing.T) {
		mockDB, handler := newAnalysisTestStack(nil)
		mockDB.On("GetAnalysis", mock.Anything, testAnalysisID).
			Return(createTestAnalysisRow(constants.AnalysisStatusDraft), nil)
		mockDB.On("UpdateAnalysisStatus", mock.Anything, mock.MatchedBy(func(arg db.UpdateAnalysisStatusParams) bool {
			return arg.Status == constants.AnalysisStatusProcessing
		})).Return(createTestAnalysisRow(constants.AnalysisStatusProcessing), nil)
		mockDB.On("ListAllTransactionsByAnalysis", mock.Anything, testAnalysisID).
			Return([]db.AnalysisTransaction{}, nil)
		mockDB.On("ListPhysicalPresenceByAnalysis", mock.Anything, testAnalysisID).
			Return([]db.PhysicalPresenceRecord{}, nil)
		mockDB.On("ListThresholdRules", mock.Anything).Return([]db.ThresholdRule{}, nil)
		mockDB.On("ListTaxRates", mock.Anything).Return([]db.TaxRate{}, nil)
		mockDB.On("ListMarketplaceRules", mock.Anything).Return([]db.MarketplaceFacilitatorRule{}, nil)
		mockDB.On("ListInterestPenaltyRules", mock.Anything).Return([]db.InterestPenaltyRule{}, nil)
		mockDB.On("DeleteAnalysisDiagnosticsByAnalysis", mock.Anything, testAnalysisID).Return(nil)
		mockDB.On("DeleteAnalysisSummaryByAnalysis", mock.Anything, testAnalysisID).Return(nil)
		mockDB.On("DeleteNexusResultsByAnalysis", mock.Anything, testAnalysisID).Return(nil)
		mockDB.On("CreateAnalysisSummary", mock.Anything, mock.MatchedBy(func(arg db.CreateAnalysisSummaryParams) bool {
			return arg.AnalysisID == testAnalysisID && arg.ResultCount == 0 && arg.TotalLiabilityCents == 0
		})).Return(db.AnalysisSummary{ID: testSummaryID, AnalysisID: testAnalysisID}, nil)
		mockDB.On("UpdateAnalysisStatus", mock.Anything, mock.MatchedBy(func(arg db.UpdateAnalysisStatusParams) bool {
			return arg.Status == constants.AnalysisStatusCompleted
		})).Return(createTestAnalysisRow(constants.AnalysisStatusCompleted), nil)

		// notify_email with no notification service configured is a no-op.
		c, w := newRequestContext(t, http.MethodPost, "/analyses/"+testAnalysisID.String()+"/run?notify_email=ops@example.com", testAnalysisID.String(), nil)
		handler.RunAnalysis(c)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp responses.RunCompletedResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "completed", resp.Analysis.Status)
		assert.Equal(t, "analysis_summary", resp.Summary.Object)
		assert.Equal(t, 0, resp.ResultCount)
		assert.Equal(t, 0, resp.FailureCount)
		assert.Equal(t, 0, resp.WarningCount)
		mockDB.AssertExpectations(t)
	})

	t.Run("rejects a run while one is in flight", func(t *testing.T) {
		mockDB, handler := newAnalysisTestStack(nil)
		mockDB.On("GetAnalysis", mock.Anything, testAnalysisID).
			Return(createTestAnalysisRow(constants.AnalysisStatusProcessing), nil)

		c, w := newRequestContext(t, http.MethodPost, "/analyses/"+testAnalysisID.String()+"/run", testAnalysisID.String(), nil)
		handler.RunAnalysis(c)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "Analysis is already running", decodeError(t, w))
	})

	t.Run("rejects async runs when no queue is configured", func(t *testing.T) {
		mockDB, handler := newAnalysisTestStack(nil)

		c, w := newRequestContext(t, http.MethodPost, "/analyses/"+testAnalysisID.String()+"/run?async=true", testAnalysisID.String(), nil)
		handler.RunAnalysis(c)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "Async runs are not configured", decodeError(t, w))
		mockDB.AssertNotCalled(t, "GetAnalysis", mock.Anything, mock.Anything)
	})

	t.Run("resolves the analysis before enqueueing", func(t *testing.T) {
		mockDB, handler := newAnalysisTestStack(&awsclient.RunQueueClient{})
		mockDB.On("GetAnalysis", mock.Anything, testAnalysisID).
			Return(createTestAnalysisRow(constants.AnalysisStatusProcessing), nil)

		c, w := newRequestContext(t, http.MethodPost, "/analyses/"+testAnalysisID.String()+"/run?async=true", testAnalysisID.String(), nil)
		handler.RunAnalysis(c)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "Analysis is already running", decodeError(t, w))
	})
}

func TestAnalysisHandler_GetSummary(t *testing.T) {
	t.Run("returns the stored rollup", func(t *testing.T) {
		mockDB, handler := newAnalysisTestStack(nil)
		mockDB.On("GetAnalysis", mock.Anything, testAnalysisID).
			Return(createTestAnalysisRow(constants.AnalysisStatusCompleted), nil)
		mockDB.On("GetAnalysisSummary", mock.Anything, testAnalysisID).
			Return(createTestSummaryRow(), nil)

		c, w := newRequestContext(t, http.MethodGet, "/analyses/"+testAnalysisID.String()+"/summary", testAnalysisID.String(), nil)
		handler.GetSummary(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp responses.AnalysisSummaryResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "analysis_summary", resp.Object)
		assert.Equal(t, int64(185000), resp.TotalLiabilityCents)
		assert.Equal(t, int64(160000), resp.TotalBaseTaxCents)
		assert.Equal(t, 1, resp.JurisdictionsWithNexus)
		assert.Equal(t, 9, resp.ResultCount)
	})

	t.Run("maps a never-run analysis to 409", func(t *testing.T) {
		mockDB, handler := newAnalysisTestStack(nil)
		mockDB.On("GetAnalysis", mock.Anything, testAnalysisID).
			Return(createTestAnalysisRow(constants.AnalysisStatusDraft), nil)
		mockDB.On("GetAnalysisSummary", mock.Anything, testAnalysisID).
			Return(db.AnalysisSummary{}, pgx.ErrNoRows)

		c, w := newRequestContext(t, http.MethodGet, "/analyses/"+testAnalysisID.String()+"/summary", testAnalysisID.String(), nil)
		handler.GetSummary(c)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "Analysis has no computed results", decodeError(t, w))
	})
}

func TestAnalysisHandler_GetResults(t *testing.T) {
	t.Run("returns results with scoped failures", func(t *testing.T) {
		mockDB, handler := newAnalysisTestStack(nil)
		mockDB.On("GetAnalysis", mock.Anything, testAnalysisID).
			Return(createTestAnalysisRow(constants.AnalysisStatusCompleted), nil)
		mockDB.On("ListNexusResultsByAnalysis", mock.Anything, testAnalysisID).
			Return([]db.NexusResult{
				{
					ID:                        testResultID,
					AnalysisID:                testAnalysisID,
					JurisdictionCode:          "CA",
					Year:                      2023,
					NexusStatus:               "has_nexus",
					NexusType:                 "economic",
					NexusFirstEstablishedYear: pgtype.Int4{Int32: 2022, Valid: true},
					NexusIsSticky:             true,
					TotalSalesCents:           60000000,
					DirectSalesCents:          45000000,
					MarketplaceSalesCents:     15000000,
					TaxableSalesCents:         45000000,
					TransactionCount:          410,
					ThresholdCrossingDate:     pgDate(time.Date(2022, 9, 14, 0, 0, 0, 0, time.UTC)),
					ObligationStartDate:       pgDate(time.Date(2022, 10, 1, 0, 0, 0, 0, time.UTC)),
					BaseTaxCents:              3262500,
					InterestCents:             146800,
					PenaltiesCents:            326200,
					EstimatedLiabilityCents:   3735500,
				},
			}, nil)
		mockDB.On("ListAnalysisDiagnosticsByAnalysis", mock.Anything, testAnalysisID).
			Return([]db.AnalysisDiagnostic{
				{
					AnalysisID:       testAnalysisID,
					Severity:         constants.DiagnosticSeverityFatal,
					JurisdictionCode: pgText("WA"),
					Year:             pgtype.Int4{Int32: 2023, Valid: true},
					Message:          "no tax rate covers the obligation period",
				},
			}, nil)

		c, w := newRequestContext(t, http.MethodGet, "/analyses/"+testAnalysisID.String()+"/results", testAnalysisID.String(), nil)
		handler.GetResults(c)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp responses.AnalysisResultsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, testAnalysisID.String(), resp.AnalysisID)
		require.Len(t, resp.Results, 1)
		result := resp.Results[0]
		assert.Equal(t, "nexus_result", result.Object)
		assert.Equal(t, "CA", result.JurisdictionCode)
		assert.Equal(t, 2023, result.Year)
		assert.Equal(t, "has_nexus", result.NexusStatus)
		assert.True(t, result.NexusIsSticky)
		assert.Equal(t, "2022-09-14", result.ThresholdCrossingDate)
		assert.Equal(t, "2022-10-01", result.ObligationStartDate)
		assert.Equal(t, int64(3735500), result.EstimatedLiabilityCents)
		require.Len(t, resp.Failures, 1)
		assert.Equal(t, "WA", resp.Failures[0].JurisdictionCode)
		assert.Equal(t, 2023, resp.Failures[0].Year)
	})

	t.Run("maps a never-run analysis to 409", func(t *testing.T) {
		mockDB, handler := newAnalysisTestStack(nil)
		mockDB.On("GetAnalysis", mock.Anything, testAnalysisID).
			Return(createTestAnalysisRow(constants.AnalysisStatusDraft), nil)
		mockDB.On("ListNexusResultsByAnalysis", mock.Anything, testAnalysisID).
			Return([]db.NexusResult{}, nil)

		c, w := newRequestContext(t, http.MethodGet, "/analyses/"+testAnalysisID.String()+"/results", testAnalysisID.String(), nil)
		handler.GetResults(c)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "Analysis has no computed results", decodeError(t, w))
	})
}

func TestAnalysisHandler_GetDiagnostics(t *testing.T) {
	mockDB, handler := newAnalysisTestStack(nil)
	mockDB.On("GetAnalysis", mock.Anything, testAnalysisID).
		Return(createTestAnalysisRow(constants.AnalysisStatusCompleted), nil)
	mockDB.On("ListAnalysisDiagnosticsByAnalysis", mock.Anything, testAnalysisID).
		Return([]db.AnalysisDiagnostic{
			{
				AnalysisID:       testAnalysisID,
				Severity:         constants.DiagnosticSeverityWarning,
				Kind:             pgText("missing_tax_rate"),
				JurisdictionCode: pgText("WA"),
				Year:             pgtype.Int4{Int32: 2023, Valid: true},
				Message:          "no tax rate in force for 2023; liability withheld",
			},
			{
				AnalysisID:       testAnalysisID,
				Severity:         constants.DiagnosticSeverityFatal,
				JurisdictionCode: pgText("CA"),
				Message:          "threshold evaluation failed",
			},
		}, nil)

	c, w := newRequestContext(t, http.MethodGet, "/analyses/"+testAnalysisID.String()+"/diagnostics", testAnalysisID.String(), nil)
	handler.GetDiagnostics(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp responses.AnalysisDiagnosticsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Diagnostics, 1)
	assert.Equal(t, "missing_tax_rate", resp.Diagnostics[0].Kind)
	assert.Equal(t, "WA", resp.Diagnostics[0].JurisdictionCode)
	assert.Equal(t, 2023, resp.Diagnostics[0].Year)
	require.Len(t, resp.Failures, 1)
	assert.Equal(t, "CA", resp.Failures[0].JurisdictionCode)
	assert.Equal(t, "threshold evaluation failed", resp.Failures[0].Reason)
}
