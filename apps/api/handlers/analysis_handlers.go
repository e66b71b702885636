package handlers

import (
	"context"
	"net/http"
	"time"

	awsclient "github.com/nexfield/nexfield-api/libs/go/client/aws"
	"github.com/nexfield/nexfield-api/libs/go/constants"
	"github.com/nexfield/nexfield-api/libs/go/services"
	"github.com/nexfield/nexfield-api/libs/go/types/api/params"
	"github.com/nexfield/nexfield-api/libs/go/types/api/requests"
	"github.com/nexfield/nexfield-api/libs/go/types/api/responses"
	"github.com/nexfield/nexfield-api/libs/go/types/business"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AnalysisHandler handles analysis lifecycle operations: create, import,
// run, and result retrieval.
type AnalysisHandler struct {
	common          *CommonServices
	analysisService *services.AnalysisService
	logger          *zap.Logger
}

// NewAnalysisHandler creates a handler with its service dependencies. A nil
// common is treated as having no queue and no notifier configured.
func NewAnalysisHandler(common *CommonServices, analysisService *services.AnalysisService, logger *zap.Logger) *AnalysisHandler {
	if common == nil {
		common = &CommonServices{}
	}
	if logger == nil {
		logger = zap.L()
	}
	return &AnalysisHandler{
		common:          common,
		analysisService: analysisService,
		logger:          logger,
	}
}

// CreateAnalysis godoc
// @Summary Create analysis
// @Description Creates a draft analysis covering the given period
// @Tags analyses
// @Accept json
// @Produce json
// @Param request body requests.CreateAnalysisRequest true "Analysis details"
// @Success 201 {object} responses.AnalysisResponse
// @Failure 400 {object} ErrorResponse
// @Router /analyses [post]
func (h *AnalysisHandler) CreateAnalysis(c *gin.Context) {
	var req requests.CreateAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	periodStart, err := time.Parse(constants.DateLayout, req.PeriodStart)
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid period_start date format", err)
		return
	}
	periodEnd, err := time.Parse(constants.DateLayout, req.PeriodEnd)
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid period_end date format", err)
		return
	}
	if periodEnd.Before(periodStart) {
		sendError(c, http.StatusBadRequest, "period_end precedes period_start", nil)
		return
	}

	var evaluationDate *time.Time
	if req.EvaluationDate != "" {
		parsed, err := time.Parse(constants.DateLayout, req.EvaluationDate)
		if err != nil {
			sendError(c, http.StatusBadRequest, "Invalid evaluation_date date format", err)
			return
		}
		evaluationDate = &parsed
	}

	analysis, err := h.analysisService.CreateAnalysis(c.Request.Context(), params.CreateAnalysisParams{
		Name:           req.Name,
		PeriodStart:    periodStart,
		PeriodEnd:      periodEnd,
		EvaluationDate: evaluationDate,
		VDAMode:        req.VDAMode,
		BaseTaxOnly:    req.BaseTaxOnly,
		StrictLookback: req.StrictLookback,
	})
	if err != nil {
		handleServiceError(c, err, "Analysis not found")
		return
	}

	sendSuccess(c, http.StatusCreated, analysisResponse(*analysis))
}

// ListAnalyses godoc
// @Summary List analyses
// @Description Returns a paginated list of analyses
// @Tags analyses
// @Accept json
// @Produce json
// @Param limit query int false "Page size (max 100)"
// @Param page query int false "Page number"
// @Success 200 {object} PaginatedResponse
// @Failure 400 {object} ErrorResponse
// @Router /analyses [get]
func (h *AnalysisHandler) ListAnalyses(c *gin.Context) {
	limit, page, err := validatePaginationParams(c)
	if err != nil {
		sendError(c, http.StatusBadRequest, err.Error(), err)
		return
	}
	offset := (page - 1) * limit

	analyses, total, err := h.analysisService.ListAnalyses(c.Request.Context(), params.ListAnalysesParams{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		sendError(c, http.StatusInternalServerError, "Failed to list analyses", err)
		return
	}

	data := make([]responses.AnalysisResponse, 0, len(analyses))
	for _, analysis := range analyses {
		data = append(data, analysisResponse(analysis))
	}

	sendSuccess(c, http.StatusOK, buildPaginatedResponse(data, int(page), int(limit), int(total)))
}

// GetAnalysis godoc
// @Summary Get analysis by ID
// @Description Returns one analysis with its lifecycle status
// @Tags analyses
// @Accept json
// @Produce json
// @Param analysis_id path string true "Analysis ID"
// @Success 200 {object} responses.AnalysisResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /analyses/{analysis_id} [get]
func (h *AnalysisHandler) GetAnalysis(c *gin.Context) {
	analysisID, err := uuid.Parse(c.Param("analysis_id"))
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid analysis ID format", err)
		return
	}

	analysis, err := h.analysisService.GetAnalysis(c.Request.Context(), analysisID)
	if err != nil {
		handleServiceError(c, err, "Analysis not found")
		return
	}

	sendSuccess(c, http.StatusOK, analysisResponse(*analysis))
}

// DeleteAnalysis godoc
// @Summary Delete analysis
// @Description Removes an analysis and all imported transactions, presence records, and results
// @Tags analyses
// @Accept json
// @Produce json
// @Param analysis_id path string true "Analysis ID"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /analyses/{analysis_id} [delete]
func (h *AnalysisHandler) DeleteAnalysis(c *gin.Context) {
	analysisID, err := uuid.Parse(c.Param("analysis_id"))
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid analysis ID format", err)
		return
	}

	if err := h.analysisService.DeleteAnalysis(c.Request.Context(), analysisID); err != nil {
		handleServiceError(c, err, "Analysis not found")
		return
	}

	sendSuccessMessage(c, http.StatusOK, "Analysis deleted successfully")
}

// ImportTransactions godoc
// @Summary Import transactions
// @Description Imports a batch of ledger rows. Malformed rows are rejected
// @Description individually and reported as findings; valid rows are stored.
// @Tags analyses
// @Accept json
// @Produce json
// @Param analysis_id path string true "Analysis ID"
// @Param request body requests.ImportTransactionsRequest true "Transaction batch"
// @Success 200 {object} responses.ImportTransactionsResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /analyses/{analysis_id}/transactions [post]
func (h *AnalysisHandler) ImportTransactions(c *gin.Context) {
	analysisID, err := uuid.Parse(c.Param("analysis_id"))
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid analysis ID format", err)
		return
	}

	var req requests.ImportTransactionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rows := make([]params.ImportTransactionRow, 0, len(req.Transactions))
	for _, txn := range req.Transactions {
		// Unparseable dates stay zero so the row is rejected as a
		// finding rather than failing the whole batch.
		date, _ := time.Parse(constants.DateLayout, txn.Date)
		rows = append(rows, params.ImportTransactionRow{
			SourceRef:        txn.SourceRef,
			JurisdictionCode: txn.JurisdictionCode,
			Date:             date,
			AmountCents:      txn.AmountCents,
			Channel:          txn.Channel,
		})
	}

	result, err := h.analysisService.ImportTransactions(c.Request.Context(), params.ImportTransactionsParams{
		AnalysisID: analysisID,
		Rows:       rows,
	})
	if err != nil {
		handleServiceError(c, err, "Analysis not found")
		return
	}

	sendSuccess(c, http.StatusOK, importResultResponse(result))
}

// ListTransactions godoc
// @Summary List imported transactions
// @Description Returns a paginated list of the analysis ledger
// @Tags analyses
// @Accept json
// @Produce json
// @Param analysis_id path string true "Analysis ID"
// @Param limit query int false "Page size (max 100)"
// @Param page query int false "Page number"
// @Success 200 {object} PaginatedResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /analyses/{analysis_id}/transactions [get]
func (h *AnalysisHandler) ListTransactions(c *gin.Context) {
	analysisID, err := uuid.Parse(c.Param("analysis_id"))
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid analysis ID format", err)
		return
	}

	limit, page, err := validatePaginationParams(c)
	if err != nil {
		sendError(c, http.StatusBadRequest, err.Error(), err)
		return
	}
	offset := (page - 1) * limit

	transactions, total, err := h.analysisService.ListTransactions(c.Request.Context(), params.ListTransactionsParams{
		AnalysisID: analysisID,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		handleServiceError(c, err, "Analysis not found")
		return
	}

	data := make([]responses.TransactionResponse, 0, len(transactions))
	for _, txn := range transactions {
		data = append(data, transactionResponse(txn))
	}

	sendSuccess(c, http.StatusOK, buildPaginatedResponse(data, int(page), int(limit), int(total)))
}

// AddPhysicalPresence godoc
// @Summary Declare physical presence
// @Description Records physical presence in a jurisdiction for the analysis
// @Tags analyses
// @Accept json
// @Produce json
// @Param analysis_id path string true "Analysis ID"
// @Param request body requests.CreatePhysicalPresenceRequest true "Presence details"
// @Success 201 {object} responses.PhysicalPresenceResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /analyses/{analysis_id}/physical-presence [post]
func (h *AnalysisHandler) AddPhysicalPresence(c *gin.Context) {
	analysisID, err := uuid.Parse(c.Param("analysis_id"))
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid analysis ID format", err)
		return
	}

	var req requests.CreatePhysicalPresenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	startDate, err := time.Parse(constants.DateLayout, req.StartDate)
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid start_date date format", err)
		return
	}

	var endDate *time.Time
	if req.EndDate != "" {
		parsed, err := time.Parse(constants.DateLayout, req.EndDate)
		if err != nil {
			sendError(c, http.StatusBadRequest, "Invalid end_date date format", err)
			return
		}
		if parsed.Before(startDate) {
			sendError(c, http.StatusBadRequest, "end_date precedes start_date", nil)
			return
		}
		endDate = &parsed
	}

	presence, err := h.analysisService.AddPhysicalPresence(c.Request.Context(), params.CreatePresenceParams{
		AnalysisID:       analysisID,
		JurisdictionCode: req.JurisdictionCode,
		StartDate:        startDate,
		EndDate:          endDate,
		Description:      req.Description,
	})
	if err != nil {
		handleServiceError(c, err, "Analysis not found")
		return
	}

	sendSuccess(c, http.StatusCreated, presenceResponse(*presence))
}

// ListPhysicalPresence godoc
// @Summary List physical presence records
// @Description Returns the declared presence records for the analysis
// @Tags analyses
// @Accept json
// @Produce json
// @Param analysis_id path string true "Analysis ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /analyses/{analysis_id}/physical-presence [get]
func (h *AnalysisHandler) ListPhysicalPresence(c *gin.Context) {
	analysisID, err := uuid.Parse(c.Param("analysis_id"))
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid analysis ID format", err)
		return
	}

	records, err := h.analysisService.ListPhysicalPresence(c.Request.Context(), analysisID)
	if err != nil {
		handleServiceError(c, err, "Analysis not found")
		return
	}

	data := make([]responses.PhysicalPresenceResponse, 0, len(records))
	for _, record := range records {
		data = append(data, presenceResponse(record))
	}

	sendList(c, data)
}

// RunAnalysis godoc
// @Summary Run analysis
// @Description Runs the nexus determination engine. With async=true the run
// @Description is enqueued and a 202 is returned; otherwise the run executes
// @Description synchronously.
// @Tags analyses
// @Accept json
// @Produce json
// @Param analysis_id path string true "Analysis ID"
// @Param async query bool false "Enqueue instead of running synchronously"
// @Param notify_email query string false "Email to notify when the run finishes"
// @Success 200 {object} responses.RunCompletedResponse
// @Success 202 {object} responses.RunAcceptedResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /analyses/{analysis_id}/run [post]
func (h *AnalysisHandler) RunAnalysis(c *gin.Context) {
	analysisID, err := uuid.Parse(c.Param("analysis_id"))
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid analysis ID format", err)
		return
	}

	if c.Query("async") == "true" {
		h.enqueueRun(c, analysisID)
		return
	}

	result, err := h.analysisService.RunAnalysis(c.Request.Context(), analysisID)
	if err != nil {
		handleServiceError(c, err, "Analysis not found")
		return
	}

	sendSuccess(c, http.StatusOK, responses.RunCompletedResponse{
		Analysis:     analysisResponse(result.Analysis),
		Summary:      summaryResponse(result.Summary),
		ResultCount:  result.ResultCount,
		FailureCount: result.FailureCount,
		WarningCount: result.WarningCount,
	})

	// The response already carries the outcome; the email is best-effort.
	if email := c.Query("notify_email"); email != "" {
		h.notifyRunCompleted(c.Request.Context(), email, result)
	}
}

// notifyRunCompleted emails the run outcome for a synchronous run. Queued
// runs are notified by the analysis processor instead.
func (h *AnalysisHandler) notifyRunCompleted(ctx context.Context, email string, result *services.AnalysisRunResult) {
	if h.common.NotificationService == nil {
		return
	}

	if err := h.common.NotificationService.SendAnalysisCompleted(ctx, email, result.Analysis, result.Summary, result.WarningCount); err != nil {
		h.logger.Warn("Failed to send completion notification",
			zap.String("analysis_id", result.Analysis.ID.String()),
			zap.Error(err))
	}
}

// enqueueRun hands the run request to SQS for the analysis processor
func (h *AnalysisHandler) enqueueRun(c *gin.Context, analysisID uuid.UUID) {
	if h.common.RunQueue == nil {
		sendError(c, http.StatusServiceUnavailable, "Async runs are not configured", nil)
		return
	}

	// Resolve the analysis first so a missing ID is a 404 rather than a
	// dead-letter message.
	analysis, err := h.analysisService.GetAnalysis(c.Request.Context(), analysisID)
	if err != nil {
		handleServiceError(c, err, "Analysis not found")
		return
	}
	if analysis.Status == business.AnalysisStatusProcessing {
		sendError(c, http.StatusConflict, "Analysis is already running", nil)
		return
	}

	request := awsclient.RunRequest{
		AnalysisID:  analysisID,
		VDAMode:     analysis.VDAMode,
		NotifyEmail: c.Query("notify_email"),
	}
	if !analysis.EvaluationDate.IsZero() {
		evaluationDate := analysis.EvaluationDate
		request.EvaluationDate = &evaluationDate
	}

	if err := h.common.RunQueue.EnqueueRun(c.Request.Context(), request); err != nil {
		sendError(c, http.StatusInternalServerError, "Failed to enqueue analysis run", err)
		return
	}

	h.logger.Info("Enqueued analysis run",
		zap.String("analysis_id", analysisID.String()),
	)

	sendSuccess(c, http.StatusAccepted, responses.RunAcceptedResponse{
		AnalysisID: analysisID.String(),
		Status:     "queued",
		Message:    "Analysis run enqueued",
	})
}

// GetResults godoc
// @Summary Get analysis results
// @Description Returns the full jurisdiction-year result set with any scoped failures
// @Tags analyses
// @Accept json
// @Produce json
// @Param analysis_id path string true "Analysis ID"
// @Success 200 {object} responses.AnalysisResultsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /analyses/{analysis_id}/results [get]
func (h *AnalysisHandler) GetResults(c *gin.Context) {
	analysisID, err := uuid.Parse(c.Param("analysis_id"))
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid analysis ID format", err)
		return
	}

	results, err := h.analysisService.GetResults(c.Request.Context(), analysisID)
	if err != nil {
		handleServiceError(c, err, "Analysis not found")
		return
	}

	diagnostics, err := h.analysisService.GetDiagnostics(c.Request.Context(), analysisID)
	if err != nil {
		handleServiceError(c, err, "Analysis not found")
		return
	}

	response := responses.AnalysisResultsResponse{
		AnalysisID: analysisID.String(),
		Results:    make([]responses.JurisdictionYearResultResponse, 0, len(results)),
		Failures:   failureResponses(diagnostics.Failures),
	}
	for _, result := range results {
		response.Results = append(response.Results, resultResponse(result))
	}

	sendSuccess(c, http.StatusOK, response)
}

// GetSummary godoc
// @Summary Get analysis summary
// @Description Returns the per-run liability and jurisdiction-count rollup
// @Tags analyses
// @Accept json
// @Produce json
// @Param analysis_id path string true "Analysis ID"
// @Success 200 {object} responses.AnalysisSummaryResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /analyses/{analysis_id}/summary [get]
func (h *AnalysisHandler) GetSummary(c *gin.Context) {
	analysisID, err := uuid.Parse(c.Param("analysis_id"))
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid analysis ID format", err)
		return
	}

	summary, err := h.analysisService.GetSummary(c.Request.Context(), analysisID)
	if err != nil {
		handleServiceError(c, err, "Analysis not found")
		return
	}

	sendSuccess(c, http.StatusOK, summaryResponse(*summary))
}

// GetDiagnostics godoc
// @Summary Get analysis diagnostics
// @Description Returns the run's advisory findings and scoped failures
// @Tags analyses
// @Accept json
// @Produce json
// @Param analysis_id path string true "Analysis ID"
// @Success 200 {object} responses.AnalysisDiagnosticsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /analyses/{analysis_id}/diagnostics [get]
func (h *AnalysisHandler) GetDiagnostics(c *gin.Context) {
	analysisID, err := uuid.Parse(c.Param("analysis_id"))
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid analysis ID format", err)
		return
	}

	diagnostics, err := h.analysisService.GetDiagnostics(c.Request.Context(), analysisID)
	if err != nil {
		handleServiceError(c, err, "Analysis not found")
		return
	}

	sendSuccess(c, http.StatusOK, responses.AnalysisDiagnosticsResponse{
		AnalysisID:  analysisID.String(),
		Diagnostics: diagnosticResponses(diagnostics.Diagnostics),
		Failures:    failureResponses(diagnostics.Failures),
	})
}

func analysisResponse(analysis business.Analysis) responses.AnalysisResponse {
	response := responses.AnalysisResponse{
		ID:             analysis.ID.String(),
		Object:         "analysis",
		Name:           analysis.Name,
		Status:         string(analysis.Status),
		PeriodStart:    analysis.PeriodStart.Format(constants.DateLayout),
		PeriodEnd:      analysis.PeriodEnd.Format(constants.DateLayout),
		VDAMode:        analysis.VDAMode,
		BaseTaxOnly:    analysis.BaseTaxOnly,
		StrictLookback: analysis.StrictLookback,
		FailureReason:  analysis.FailureReason,
		CreatedAt:      analysis.CreatedAt.Unix(),
		UpdatedAt:      analysis.UpdatedAt.Unix(),
	}
	if !analysis.EvaluationDate.IsZero() {
		response.EvaluationDate = analysis.EvaluationDate.Format(constants.DateLayout)
	}
	return response
}

func transactionResponse(txn business.Transaction) responses.TransactionResponse {
	return responses.TransactionResponse{
		ID:               txn.ID.String(),
		Object:           "transaction",
		AnalysisID:       txn.AnalysisID.String(),
		SourceRef:        txn.SourceRef,
		JurisdictionCode: txn.JurisdictionCode,
		Date:             txn.Date.Format(constants.DateLayout),
		AmountCents:      txn.AmountCents,
		Channel:          string(txn.Channel),
	}
}

func presenceResponse(record business.PhysicalPresenceRecord) responses.PhysicalPresenceResponse {
	response := responses.PhysicalPresenceResponse{
		ID:               record.ID.String(),
		Object:           "physical_presence",
		AnalysisID:       record.AnalysisID.String(),
		JurisdictionCode: record.JurisdictionCode,
		StartDate:        record.StartDate.Format(constants.DateLayout),
		Description:      record.Description,
	}
	if record.EndDate != nil {
		response.EndDate = record.EndDate.Format(constants.DateLayout)
	}
	return response
}

func resultResponse(result business.JurisdictionYearResult) responses.JurisdictionYearResultResponse {
	response := responses.JurisdictionYearResultResponse{
		ID:                        result.ID.String(),
		Object:                    "nexus_result",
		AnalysisID:                result.AnalysisID.String(),
		JurisdictionCode:          result.JurisdictionCode,
		Year:                      result.Year,
		NexusStatus:               string(result.NexusStatus),
		NexusType:                 string(result.NexusType),
		NexusFirstEstablishedYear: result.NexusFirstEstablishedYear,
		NexusIsSticky:             result.NexusIsSticky,
		TotalSalesCents:           result.TotalSalesCents,
		DirectSalesCents:          result.DirectSalesCents,
		MarketplaceSalesCents:     result.MarketplaceSalesCents,
		TaxableSalesCents:         result.TaxableSalesCents,
		TransactionCount:          result.TransactionCount,
		BaseTaxCents:              result.BaseTaxCents,
		InterestCents:             result.InterestCents,
		PenaltiesCents:            result.PenaltiesCents,
		EstimatedLiabilityCents:   result.EstimatedLiabilityCents,
	}
	if result.ThresholdCrossingDate != nil {
		response.ThresholdCrossingDate = result.ThresholdCrossingDate.Format(constants.DateLayout)
	}
	if result.ObligationStartDate != nil {
		response.ObligationStartDate = result.ObligationStartDate.Format(constants.DateLayout)
	}
	return response
}

func summaryResponse(summary business.AnalysisSummary) responses.AnalysisSummaryResponse {
	return responses.AnalysisSummaryResponse{
		ID:                       summary.ID.String(),
		Object:                   "analysis_summary",
		AnalysisID:               summary.AnalysisID.String(),
		TotalLiabilityCents:      summary.TotalLiabilityCents,
		TotalBaseTaxCents:        summary.TotalBaseTaxCents,
		TotalInterestCents:       summary.TotalInterestCents,
		TotalPenaltiesCents:      summary.TotalPenaltiesCents,
		TotalJurisdictions:       summary.TotalJurisdictions,
		JurisdictionsWithNexus:   summary.JurisdictionsWithNexus,
		JurisdictionsApproaching: summary.JurisdictionsApproaching,
		JurisdictionsWithout:     summary.JurisdictionsWithout,
		JurisdictionsUnknown:     summary.JurisdictionsUnknown,
		ResultCount:              summary.ResultCount,
		CreatedAt:                summary.CreatedAt.Unix(),
	}
}

func importResultResponse(result *services.TransactionImportResult) responses.ImportTransactionsResult {
	return responses.ImportTransactionsResult{
		Imported: result.Imported,
		Rejected: result.Rejected,
		Findings: diagnosticResponses(result.Findings),
	}
}

func diagnosticResponses(diagnostics []business.Diagnostic) []responses.DiagnosticResponse {
	out := make([]responses.DiagnosticResponse, 0, len(diagnostics))
	for _, diagnostic := range diagnostics {
		out = append(out, responses.DiagnosticResponse{
			Kind:             string(diagnostic.Kind),
			JurisdictionCode: diagnostic.JurisdictionCode,
			Year:             diagnostic.Year,
			SourceRef:        diagnostic.SourceRef,
			Message:          diagnostic.Message,
		})
	}
	return out
}

func failureResponses(failures []business.JurisdictionFailure) []responses.FailureResponse {
	out := make([]responses.FailureResponse, 0, len(failures))
	for _, failure := range failures {
		out = append(out, responses.FailureResponse{
			JurisdictionCode: failure.JurisdictionCode,
			Year:             failure.Year,
			Reason:           failure.Reason,
		})
	}
	return out
}
