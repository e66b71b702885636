package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nexfield/nexfield-api/libs/go/constants"
	"github.com/nexfield/nexfield-api/libs/go/db"
	"github.com/nexfield/nexfield-api/libs/go/helpers"
	"github.com/nexfield/nexfield-api/libs/go/logger"
	"github.com/nexfield/nexfield-api/libs/go/types/api/params"
	"github.com/nexfield/nexfield-api/libs/go/types/business"
)

// persistRetryLimit bounds serialization retries when replacing a run's
// result set. Concurrent re-runs of the same analysis contend on the same
// rows, so one retry round usually settles it.
const persistRetryLimit = 2

// AnalysisService owns the analysis lifecycle: creation, ledger import,
// physical presence declarations, engine runs and result retrieval. The
// pool is optional; without it result persistence runs unbatched on the
// plain store, which tests rely on.
type AnalysisService struct {
	queries db.Querier
	pool    *pgxpool.Pool
	rules   *RulesService
	engine  *NexusEngine
	logger  *zap.Logger
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(queries db.Querier, pool *pgxpool.Pool, rules *RulesService) *AnalysisService {
	return &AnalysisService{
		queries: queries,
		pool:    pool,
		rules:   rules,
		engine:  NewNexusEngine(),
		logger:  logger.Log,
	}
}

// TransactionImportResult reports one batch import: how many rows were
// loaded, how many were rejected, and a finding per rejected row.
type TransactionImportResult struct {
	Imported int
	Rejected int
	Findings []business.Diagnostic
}

// AnalysisRunResult is the terminal state of one completed run.
type AnalysisRunResult struct {
	Analysis     business.Analysis
	Summary      business.AnalysisSummary
	ResultCount  int
	FailureCount int
	WarningCount int
}

// AnalysisDiagnostics bundles a run's persisted findings split by severity:
// advisory diagnostics and scoped fatal failures.
type AnalysisDiagnostics struct {
	Diagnostics []business.Diagnostic
	Failures    []business.JurisdictionFailure
}

// CreateAnalysis creates a draft analysis covering the given period
func (s *AnalysisService) CreateAnalysis(ctx context.Context, createParams params.CreateAnalysisParams) (*business.Analysis, error) {
	name := strings.TrimSpace(createParams.Name)
	if name == "" {
		return nil, fmt.Errorf("analysis name is required")
	}

	periodStart := helpers.DateOnly(createParams.PeriodStart)
	periodEnd := helpers.DateOnly(createParams.PeriodEnd)
	if periodStart.IsZero() || periodEnd.IsZero() {
		return nil, fmt.Errorf("analysis period start and end are required")
	}
	if periodEnd.Before(periodStart) {
		return nil, fmt.Errorf("period_end %s precedes period_start %s",
			periodEnd.Format(constants.DateLayout), periodStart.Format(constants.DateLayout))
	}

	var evaluationDate *time.Time
	if createParams.EvaluationDate != nil {
		normalized := helpers.DateOnly(*createParams.EvaluationDate)
		evaluationDate = &normalized
	}

	row, err := s.queries.CreateAnalysis(ctx, db.CreateAnalysisParams{
		ID:             uuid.New(),
		Name:           name,
		Status:         constants.AnalysisStatusDraft,
		PeriodStart:    periodStart,
		PeriodEnd:      periodEnd,
		EvaluationDate: helpers.TimePtrToNullableDate(evaluationDate),
		VdaMode:        createParams.VDAMode,
		BaseTaxOnly:    createParams.BaseTaxOnly,
		StrictLookback: createParams.StrictLookback,
	})
	if err != nil {
		s.logger.Error("Failed to create analysis",
			zap.String("name", name),
			zap.Error(err))
		return nil, fmt.Errorf("failed to create analysis: %w", err)
	}

	analysis := analysisFromDB(row)
	return &analysis, nil
}

// GetAnalysis returns one analysis by id
func (s *AnalysisService) GetAnalysis(ctx context.Context, analysisID uuid.UUID) (*business.Analysis, error) {
	row, err := s.getAnalysisRow(ctx, analysisID)
	if err != nil {
		return nil, err
	}
	analysis := analysisFromDB(row)
	return &analysis, nil
}

// ListAnalyses returns one page of analyses plus the total count
func (s *AnalysisService) ListAnalyses(ctx context.Context, listParams params.ListAnalysesParams) ([]business.Analysis, int64, error) {
	rows, err := s.queries.ListAnalyses(ctx, db.ListAnalysesParams{
		Limit:  listParams.Limit,
		Offset: listParams.Offset,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list analyses: %w", err)
	}

	total, err := s.queries.CountAnalyses(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count analyses: %w", err)
	}

	analyses := make([]business.Analysis, 0, len(rows))
	for _, row := range rows {
		analyses = append(analyses, analysisFromDB(row))
	}
	return analyses, total, nil
}

// DeleteAnalysis removes an analysis and everything attached to it. A
// mid-run analysis cannot be deleted.
func (s *AnalysisService) DeleteAnalysis(ctx context.Context, analysisID uuid.UUID) error {
	row, err := s.getAnalysisRow(ctx, analysisID)
	if err != nil {
		return err
	}
	if row.Status == constants.AnalysisStatusProcessing {
		return fmt.Errorf("%w: analysis %s cannot be deleted mid-run", ErrAnalysisLocked, analysisID)
	}

	err = s.runInTransaction(ctx, func(qtx db.Querier) error {
		if err := qtx.DeleteAnalysisDiagnosticsByAnalysis(ctx, analysisID); err != nil {
			return err
		}
		if err := qtx.DeleteAnalysisSummaryByAnalysis(ctx, analysisID); err != nil {
			return err
		}
		if err := qtx.DeleteNexusResultsByAnalysis(ctx, analysisID); err != nil {
			return err
		}
		if err := qtx.DeleteTransactionsByAnalysis(ctx, analysisID); err != nil {
			return err
		}
		if err := qtx.DeletePhysicalPresenceByAnalysis(ctx, analysisID); err != nil {
			return err
		}
		return qtx.DeleteAnalysis(ctx, analysisID)
	})
	if err != nil {
		s.logger.Error("Failed to delete analysis",
			zap.String("analysis_id", analysisID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to delete analysis: %w", err)
	}

	s.logger.Info("Analysis deleted", zap.String("analysis_id", analysisID.String()))
	return nil
}

// ImportTransactions validates and bulk-loads a ledger batch. Malformed rows
// are rejected with a finding each; the valid remainder is imported.
func (s *AnalysisService) ImportTransactions(ctx context.Context, importParams params.ImportTransactionsParams) (*TransactionImportResult, error) {
	if len(importParams.Rows) == 0 {
		return nil, fmt.Errorf("no transactions provided")
	}

	row, err := s.getAnalysisRow(ctx, importParams.AnalysisID)
	if err != nil {
		return nil, err
	}
	if row.Status == constants.AnalysisStatusProcessing {
		return nil, fmt.Errorf("%w: transactions cannot be imported mid-run", ErrAnalysisLocked)
	}

	result := &TransactionImportResult{}
	batch := make([]db.InsertTransactionBatchParams, 0, len(importParams.Rows))
	for _, importRow := range importParams.Rows {
		if finding, ok := validateImportRow(importRow); !ok {
			result.Rejected++
			result.Findings = append(result.Findings, finding)
			continue
		}
		batch = append(batch, db.InsertTransactionBatchParams{
			ID:               uuid.New(),
			AnalysisID:       importParams.AnalysisID,
			SourceRef:        helpers.StringToNullableText(importRow.SourceRef),
			JurisdictionCode: helpers.NormalizeJurisdictionCode(importRow.JurisdictionCode),
			Date:             helpers.DateOnly(importRow.Date),
			AmountCents:      importRow.AmountCents,
			Channel:          importRow.Channel,
		})
	}

	if len(batch) > 0 {
		inserted, err := s.queries.InsertTransactionBatch(ctx, batch)
		if err != nil {
			s.logger.Error("Failed to import transaction batch",
				zap.String("analysis_id", importParams.AnalysisID.String()),
				zap.Int("rows", len(batch)),
				zap.Error(err))
			return nil, fmt.Errorf("failed to import transactions: %w", err)
		}
		result.Imported = int(inserted)
	}

	s.logger.Info("Transaction batch imported",
		zap.String("analysis_id", importParams.AnalysisID.String()),
		zap.Int("imported", result.Imported),
		zap.Int("rejected", result.Rejected))
	return result, nil
}

// ListTransactions returns one page of an analysis's imported ledger plus
// the total count
func (s *AnalysisService) ListTransactions(ctx context.Context, listParams params.ListTransactionsParams) ([]business.Transaction, int64, error) {
	if _, err := s.getAnalysisRow(ctx, listParams.AnalysisID); err != nil {
		return nil, 0, err
	}

	rows, err := s.queries.ListTransactionsByAnalysis(ctx, db.ListTransactionsByAnalysisParams{
		AnalysisID: listParams.AnalysisID,
		Limit:      listParams.Limit,
		Offset:     listParams.Offset,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}

	total, err := s.queries.CountTransactionsByAnalysis(ctx, listParams.AnalysisID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	transactions := make([]business.Transaction, 0, len(rows))
	for _, row := range rows {
		transactions = append(transactions, transactionFromDB(row))
	}
	return transactions, total, nil
}

// AddPhysicalPresence declares physical presence in a jurisdiction for the
// analysis. Presence is an input to the next run, never inferred.
func (s *AnalysisService) AddPhysicalPresence(ctx context.Context, createParams params.CreatePresenceParams) (*business.PhysicalPresenceRecord, error) {
	code, err := validRuleJurisdiction(createParams.JurisdictionCode)
	if err != nil {
		return nil, err
	}
	startDate := helpers.DateOnly(createParams.StartDate)
	if startDate.IsZero() {
		return nil, fmt.Errorf("presence start_date is required")
	}
	var endDate *time.Time
	if createParams.EndDate != nil {
		normalized := helpers.DateOnly(*createParams.EndDate)
		if normalized.Before(startDate) {
			return nil, fmt.Errorf("presence end_date %s precedes start_date %s",
				normalized.Format(constants.DateLayout), startDate.Format(constants.DateLayout))
		}
		endDate = &normalized
	}

	row, err := s.getAnalysisRow(ctx, createParams.AnalysisID)
	if err != nil {
		return nil, err
	}
	if row.Status == constants.AnalysisStatusProcessing {
		return nil, fmt.Errorf("%w: presence cannot be declared mid-run", ErrAnalysisLocked)
	}

	created, err := s.queries.CreatePhysicalPresence(ctx, db.CreatePhysicalPresenceParams{
		ID:               uuid.New(),
		AnalysisID:       createParams.AnalysisID,
		JurisdictionCode: code,
		StartDate:        startDate,
		EndDate:          helpers.TimePtrToNullableDate(endDate),
		Description:      helpers.StringToNullableText(createParams.Description),
	})
	if err != nil {
		s.logger.Error("Failed to create physical presence record",
			zap.String("analysis_id", createParams.AnalysisID.String()),
			zap.String("jurisdiction_code", code),
			zap.Error(err))
		return nil, fmt.Errorf("failed to create physical presence record: %w", err)
	}

	record := presenceFromDB(created)
	return &record, nil
}

// ListPhysicalPresence returns all declared presence records for an analysis
func (s *AnalysisService) ListPhysicalPresence(ctx context.Context, analysisID uuid.UUID) ([]business.PhysicalPresenceRecord, error) {
	rows, err := s.queries.ListPhysicalPresenceByAnalysis(ctx, analysisID)
	if err != nil {
		return nil, fmt.Errorf("failed to list physical presence records: %w", err)
	}
	records := make([]business.PhysicalPresenceRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, presenceFromDB(row))
	}
	return records, nil
}

// RunAnalysis executes the engine for one analysis and atomically replaces
// its stored results. The analysis moves draft/completed/failed ->
// processing -> completed, or -> failed with the cause recorded.
func (s *AnalysisService) RunAnalysis(ctx context.Context, analysisID uuid.UUID) (*AnalysisRunResult, error) {
	row, err := s.getAnalysisRow(ctx, analysisID)
	if err != nil {
		return nil, err
	}
	if row.Status == constants.AnalysisStatusProcessing {
		return nil, fmt.Errorf("%w: analysis %s is already processing", ErrAnalysisNotRunnable, analysisID)
	}

	if _, err := s.queries.UpdateAnalysisStatus(ctx, db.UpdateAnalysisStatusParams{
		ID:     analysisID,
		Status: constants.AnalysisStatusProcessing,
	}); err != nil {
		return nil, fmt.Errorf("failed to mark analysis processing: %w", err)
	}

	start := time.Now()
	s.logger.Info("Analysis run started",
		zap.String("analysis_id", analysisID.String()),
		zap.String("period_start", row.PeriodStart.Format(constants.DateLayout)),
		zap.String("period_end", row.PeriodEnd.Format(constants.DateLayout)))

	input, err := s.loadEngineInput(ctx, row)
	if err != nil {
		s.markRunFailed(ctx, analysisID, err)
		return nil, err
	}

	output, err := s.engine.Run(ctx, *input)
	if err != nil {
		s.markRunFailed(ctx, analysisID, err)
		return nil, fmt.Errorf("analysis run failed: %w", err)
	}

	completed, summaryRow, err := s.replaceAnalysisResults(ctx, analysisID, output)
	if err != nil {
		s.markRunFailed(ctx, analysisID, err)
		return nil, fmt.Errorf("failed to persist analysis results: %w", err)
	}

	s.logger.Info("Analysis run completed",
		zap.String("analysis_id", analysisID.String()),
		zap.Int("results", len(output.Results)),
		zap.Int("failures", len(output.Failures)),
		zap.Int64("total_liability_cents", summaryRow.TotalLiabilityCents),
		zap.Duration("duration", time.Since(start)))

	return &AnalysisRunResult{
		Analysis:     analysisFromDB(completed),
		Summary:      summaryFromDB(summaryRow),
		ResultCount:  len(output.Results),
		FailureCount: len(output.Failures),
		WarningCount: len(output.Diagnostics),
	}, nil
}

// loadEngineInput gathers the run inputs. The three loads are independent,
// so they run concurrently.
func (s *AnalysisService) loadEngineInput(ctx context.Context, row db.Analysis) (*EngineInput, error) {
	var (
		transactions []business.Transaction
		presence     []business.PhysicalPresenceRecord
		ruleSet      business.RuleSet
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		rows, err := s.queries.ListAllTransactionsByAnalysis(groupCtx, row.ID)
		if err != nil {
			return fmt.Errorf("failed to load transactions: %w", err)
		}
		transactions = make([]business.Transaction, 0, len(rows))
		for _, txn := range rows {
			transactions = append(transactions, transactionFromDB(txn))
		}
		return nil
	})
	group.Go(func() error {
		records, err := s.ListPhysicalPresence(groupCtx, row.ID)
		if err != nil {
			return err
		}
		presence = records
		return nil
	})
	group.Go(func() error {
		set, err := s.rules.LoadRuleSet(groupCtx)
		if err != nil {
			return err
		}
		ruleSet = set
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	input := &EngineInput{
		AnalysisID:     row.ID,
		PeriodStart:    row.PeriodStart,
		PeriodEnd:      row.PeriodEnd,
		VDAMode:        row.VdaMode,
		BaseTaxOnly:    row.BaseTaxOnly,
		StrictLookback: row.StrictLookback,
		Transactions:   transactions,
		Presence:       presence,
		Rules:          ruleSet,
	}
	if evaluationDate := helpers.NullableDateToTimePtr(row.EvaluationDate); evaluationDate != nil {
		input.EvaluationDate = *evaluationDate
	}
	return input, nil
}

// replaceAnalysisResults swaps the stored result set for the run's output in
// one transaction: old results, summary and diagnostics go, the new batch
// lands, and the analysis flips to completed. Readers never observe a
// half-written run.
func (s *AnalysisService) replaceAnalysisResults(ctx context.Context, analysisID uuid.UUID, output *EngineOutput) (db.Analysis, db.AnalysisSummary, error) {
	var (
		completed  db.Analysis
		summaryRow db.AnalysisSummary
	)

	err := s.runInTransaction(ctx, func(qtx db.Querier) error {
		if err := qtx.DeleteAnalysisDiagnosticsByAnalysis(ctx, analysisID); err != nil {
			return err
		}
		if err := qtx.DeleteAnalysisSummaryByAnalysis(ctx, analysisID); err != nil {
			return err
		}
		if err := qtx.DeleteNexusResultsByAnalysis(ctx, analysisID); err != nil {
			return err
		}

		for _, result := range output.Results {
			if _, err := qtx.InsertNexusResult(ctx, insertNexusResultParams(result)); err != nil {
				return err
			}
		}

		summary, err := qtx.CreateAnalysisSummary(ctx, db.CreateAnalysisSummaryParams{
			ID:                       uuid.New(),
			AnalysisID:               analysisID,
			TotalLiabilityCents:      output.Summary.TotalLiabilityCents,
			TotalBaseTaxCents:        output.Summary.TotalBaseTaxCents,
			TotalInterestCents:       output.Summary.TotalInterestCents,
			TotalPenaltiesCents:      output.Summary.TotalPenaltiesCents,
			TotalJurisdictions:       int32(output.Summary.TotalJurisdictions),
			JurisdictionsWithNexus:   int32(output.Summary.JurisdictionsWithNexus),
			JurisdictionsApproaching: int32(output.Summary.JurisdictionsApproaching),
			JurisdictionsWithout:     int32(output.Summary.JurisdictionsWithout),
			JurisdictionsUnknown:     int32(output.Summary.JurisdictionsUnknown),
			ResultCount:              int32(output.Summary.ResultCount),
		})
		if err != nil {
			return err
		}
		summaryRow = summary

		for _, diag := range output.Diagnostics {
			if _, err := qtx.InsertAnalysisDiagnostic(ctx, db.InsertAnalysisDiagnosticParams{
				ID:               uuid.New(),
				AnalysisID:       analysisID,
				Severity:         constants.DiagnosticSeverityWarning,
				Kind:             helpers.StringToNullableText(string(diag.Kind)),
				JurisdictionCode: helpers.StringToNullableText(diag.JurisdictionCode),
				Year:             yearToNullableInt4(diag.Year),
				SourceRef:        helpers.StringToNullableText(diag.SourceRef),
				Message:          diag.Message,
			}); err != nil {
				return err
			}
		}
		for _, failure := range output.Failures {
			if _, err := qtx.InsertAnalysisDiagnostic(ctx, db.InsertAnalysisDiagnosticParams{
				ID:               uuid.New(),
				AnalysisID:       analysisID,
				Severity:         constants.DiagnosticSeverityFatal,
				JurisdictionCode: helpers.StringToNullableText(failure.JurisdictionCode),
				Year:             yearToNullableInt4(failure.Year),
				Message:          failure.Reason,
			}); err != nil {
				return err
			}
		}

		updated, err := qtx.UpdateAnalysisStatus(ctx, db.UpdateAnalysisStatusParams{
			ID:     analysisID,
			Status: constants.AnalysisStatusCompleted,
		})
		if err != nil {
			return err
		}
		completed = updated
		return nil
	})
	return completed, summaryRow, err
}

// GetResults returns the stored result set for an analysis. An analysis
// that has never completed a run has nothing to return.
func (s *AnalysisService) GetResults(ctx context.Context, analysisID uuid.UUID) ([]business.JurisdictionYearResult, error) {
	row, err := s.getAnalysisRow(ctx, analysisID)
	if err != nil {
		return nil, err
	}

	rows, err := s.queries.ListNexusResultsByAnalysis(ctx, analysisID)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	if len(rows) == 0 && row.Status != constants.AnalysisStatusCompleted {
		return nil, fmt.Errorf("%w: analysis %s has status %s", ErrResultsNotAvailable, analysisID, row.Status)
	}

	results := make([]business.JurisdictionYearResult, 0, len(rows))
	for _, result := range rows {
		results = append(results, resultFromDB(result))
	}
	return results, nil
}

// GetSummary returns the stored rollup for an analysis's latest run
func (s *AnalysisService) GetSummary(ctx context.Context, analysisID uuid.UUID) (*business.AnalysisSummary, error) {
	if _, err := s.getAnalysisRow(ctx, analysisID); err != nil {
		return nil, err
	}

	row, err := s.queries.GetAnalysisSummary(ctx, analysisID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: analysis %s", ErrResultsNotAvailable, analysisID)
		}
		return nil, fmt.Errorf("failed to get analysis summary: %w", err)
	}

	summary := summaryFromDB(row)
	return &summary, nil
}

// GetDiagnostics returns the persisted findings for an analysis's latest
// run, split into advisory diagnostics and fatal failures
func (s *AnalysisService) GetDiagnostics(ctx context.Context, analysisID uuid.UUID) (*AnalysisDiagnostics, error) {
	if _, err := s.getAnalysisRow(ctx, analysisID); err != nil {
		return nil, err
	}

	rows, err := s.queries.ListAnalysisDiagnosticsByAnalysis(ctx, analysisID)
	if err != nil {
		return nil, fmt.Errorf("failed to list diagnostics: %w", err)
	}

	out := &AnalysisDiagnostics{}
	for _, row := range rows {
		if row.Severity == constants.DiagnosticSeverityFatal {
			out.Failures = append(out.Failures, business.JurisdictionFailure{
				JurisdictionCode: helpers.NullableTextToString(row.JurisdictionCode),
				Year:             nullableInt4ToYear(row.Year),
				Reason:           row.Message,
			})
			continue
		}
		out.Diagnostics = append(out.Diagnostics, business.Diagnostic{
			Kind:             business.DiagnosticKind(helpers.NullableTextToString(row.Kind)),
			JurisdictionCode: helpers.NullableTextToString(row.JurisdictionCode),
			Year:             nullableInt4ToYear(row.Year),
			SourceRef:        helpers.NullableTextToString(row.SourceRef),
			Message:          row.Message,
		})
	}
	return out, nil
}

// getAnalysisRow loads the raw analysis row, mapping a miss to
// ErrAnalysisNotFound so callers never see pgx internals.
func (s *AnalysisService) getAnalysisRow(ctx context.Context, analysisID uuid.UUID) (db.Analysis, error) {
	row, err := s.queries.GetAnalysis(ctx, analysisID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return db.Analysis{}, fmt.Errorf("%w: %s", ErrAnalysisNotFound, analysisID)
		}
		return db.Analysis{}, fmt.Errorf("failed to get analysis: %w", err)
	}
	return row, nil
}

// runInTransaction runs fn against a transactional store when the pool is
// available, and directly against the plain store otherwise.
func (s *AnalysisService) runInTransaction(ctx context.Context, fn func(qtx db.Querier) error) error {
	if s.pool == nil {
		return fn(s.queries)
	}
	return helpers.WithTransactionRetry(ctx, s.pool, persistRetryLimit, func(tx pgx.Tx) error {
		return fn(db.New(tx))
	})
}

// markRunFailed records a failed run; the previous completed result set, if
// any, stays in place.
func (s *AnalysisService) markRunFailed(ctx context.Context, analysisID uuid.UUID, cause error) {
	if _, err := s.queries.UpdateAnalysisStatus(ctx, db.UpdateAnalysisStatusParams{
		ID:            analysisID,
		Status:        constants.AnalysisStatusFailed,
		FailureReason: helpers.StringToNullableText(cause.Error()),
	}); err != nil {
		s.logger.Error("Failed to mark analysis failed",
			zap.String("analysis_id", analysisID.String()),
			zap.NamedError("run_error", cause),
			zap.Error(err))
		return
	}
	s.logger.Warn("Analysis run failed",
		zap.String("analysis_id", analysisID.String()),
		zap.Error(cause))
}

// validateImportRow applies the ledger admission rules: a well-formed
// jurisdiction code, a parseable date, a non-negative amount and a known
// channel. Anything else is rejected with a finding, never coerced.
func validateImportRow(row params.ImportTransactionRow) (business.Diagnostic, bool) {
	code := helpers.NormalizeJurisdictionCode(row.JurisdictionCode)
	switch {
	case !helpers.IsJurisdictionCodeValid(code):
		return business.Diagnostic{
			Kind:      business.DiagnosticMalformedTransaction,
			SourceRef: row.SourceRef,
			Message:   fmt.Sprintf("transaction rejected: invalid jurisdiction code %q", row.JurisdictionCode),
		}, false
	case row.Date.IsZero():
		return business.Diagnostic{
			Kind:             business.DiagnosticMalformedTransaction,
			JurisdictionCode: code,
			SourceRef:        row.SourceRef,
			Message:          "transaction rejected: missing or unparseable date",
		}, false
	case row.AmountCents < 0:
		return business.Diagnostic{
			Kind:             business.DiagnosticMalformedTransaction,
			JurisdictionCode: code,
			SourceRef:        row.SourceRef,
			Message:          fmt.Sprintf("transaction rejected: negative amount %d cents", row.AmountCents),
		}, false
	case row.Channel != string(business.ChannelDirect) && row.Channel != string(business.ChannelMarketplace):
		return business.Diagnostic{
			Kind:             business.DiagnosticMalformedTransaction,
			JurisdictionCode: code,
			SourceRef:        row.SourceRef,
			Message:          fmt.Sprintf("transaction rejected: unknown channel %q", row.Channel),
		}, false
	}
	return business.Diagnostic{}, true
}

func insertNexusResultParams(result business.JurisdictionYearResult) db.InsertNexusResultParams {
	return db.InsertNexusResultParams{
		ID:                        uuid.New(),
		AnalysisID:                result.AnalysisID,
		JurisdictionCode:          result.JurisdictionCode,
		Year:                      int32(result.Year),
		NexusStatus:               string(result.NexusStatus),
		NexusType:                 string(result.NexusType),
		NexusFirstEstablishedYear: helpers.IntPtrToNullableInt4(result.NexusFirstEstablishedYear),
		NexusIsSticky:             result.NexusIsSticky,
		TotalSalesCents:           result.TotalSalesCents,
		DirectSalesCents:          result.DirectSalesCents,
		MarketplaceSalesCents:     result.MarketplaceSalesCents,
		TaxableSalesCents:         result.TaxableSalesCents,
		TransactionCount:          int32(result.TransactionCount),
		ThresholdCrossingDate:     helpers.TimePtrToNullableDate(result.ThresholdCrossingDate),
		ObligationStartDate:       helpers.TimePtrToNullableDate(result.ObligationStartDate),
		BaseTaxCents:              result.BaseTaxCents,
		InterestCents:             result.InterestCents,
		PenaltiesCents:            result.PenaltiesCents,
		EstimatedLiabilityCents:   result.EstimatedLiabilityCents,
	}
}

func analysisFromDB(row db.Analysis) business.Analysis {
	analysis := business.Analysis{
		ID:             row.ID,
		Name:           row.Name,
		Status:         business.AnalysisStatus(row.Status),
		PeriodStart:    row.PeriodStart,
		PeriodEnd:      row.PeriodEnd,
		VDAMode:        row.VdaMode,
		BaseTaxOnly:    row.BaseTaxOnly,
		StrictLookback: row.StrictLookback,
		FailureReason:  helpers.NullableTextToString(row.FailureReason),
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
	if evaluationDate := helpers.NullableDateToTimePtr(row.EvaluationDate); evaluationDate != nil {
		analysis.EvaluationDate = *evaluationDate
	}
	return analysis
}

func transactionFromDB(row db.AnalysisTransaction) business.Transaction {
	return business.Transaction{
		ID:               row.ID,
		AnalysisID:       row.AnalysisID,
		SourceRef:        helpers.NullableTextToString(row.SourceRef),
		JurisdictionCode: row.JurisdictionCode,
		Date:             row.Date,
		AmountCents:      row.AmountCents,
		Channel:          business.SalesChannel(row.Channel),
	}
}

func presenceFromDB(row db.PhysicalPresenceRecord) business.PhysicalPresenceRecord {
	return business.PhysicalPresenceRecord{
		ID:               row.ID,
		AnalysisID:       row.AnalysisID,
		JurisdictionCode: row.JurisdictionCode,
		StartDate:        row.StartDate,
		EndDate:          helpers.NullableDateToTimePtr(row.EndDate),
		Description:      helpers.NullableTextToString(row.Description),
	}
}

func resultFromDB(row db.NexusResult) business.JurisdictionYearResult {
	return business.JurisdictionYearResult{
		ID:                        row.ID,
		AnalysisID:                row.AnalysisID,
		JurisdictionCode:          row.JurisdictionCode,
		Year:                      int(row.Year),
		NexusStatus:               business.NexusStatus(row.NexusStatus),
		NexusType:                 business.NexusType(row.NexusType),
		NexusFirstEstablishedYear: helpers.NullableInt4ToIntPtr(row.NexusFirstEstablishedYear),
		NexusIsSticky:             row.NexusIsSticky,
		TotalSalesCents:           row.TotalSalesCents,
		DirectSalesCents:          row.DirectSalesCents,
		MarketplaceSalesCents:     row.MarketplaceSalesCents,
		TaxableSalesCents:         row.TaxableSalesCents,
		TransactionCount:          int(row.TransactionCount),
		ThresholdCrossingDate:     helpers.NullableDateToTimePtr(row.ThresholdCrossingDate),
		ObligationStartDate:       helpers.NullableDateToTimePtr(row.ObligationStartDate),
		BaseTaxCents:              row.BaseTaxCents,
		InterestCents:             row.InterestCents,
		PenaltiesCents:            row.PenaltiesCents,
		EstimatedLiabilityCents:   row.EstimatedLiabilityCents,
	}
}

func summaryFromDB(row db.AnalysisSummary) business.AnalysisSummary {
	return business.AnalysisSummary{
		ID:                       row.ID,
		AnalysisID:               row.AnalysisID,
		TotalLiabilityCents:      row.TotalLiabilityCents,
		TotalBaseTaxCents:        row.TotalBaseTaxCents,
		TotalInterestCents:       row.TotalInterestCents,
		TotalPenaltiesCents:      row.TotalPenaltiesCents,
		TotalJurisdictions:       int(row.TotalJurisdictions),
		JurisdictionsWithNexus:   int(row.JurisdictionsWithNexus),
		JurisdictionsApproaching: int(row.JurisdictionsApproaching),
		JurisdictionsWithout:     int(row.JurisdictionsWithout),
		JurisdictionsUnknown:     int(row.JurisdictionsUnknown),
		ResultCount:              int(row.ResultCount),
		CreatedAt:                row.CreatedAt,
	}
}

// yearToNullableInt4 treats year zero as "no year context".
func yearToNullableInt4(year int) pgtype.Int4 {
	if year == 0 {
		return pgtype.Int4{}
	}
	return pgtype.Int4{Int32: int32(year), Valid: true}
}

func nullableInt4ToYear(year pgtype.Int4) int {
	if !year.Valid {
		return 0
	}
	return int(year.Int32)
}
