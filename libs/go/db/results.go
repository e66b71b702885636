package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const insertNexusResult = `
INSERT INTO nexus_results (
    id, analysis_id, jurisdiction_code, year, nexus_status, nexus_type,
    nexus_first_established_year, nexus_is_sticky, total_sales_cents,
    direct_sales_cents, marketplace_sales_cents, taxable_sales_cents,
    transaction_count, threshold_crossing_date, obligation_start_date,
    base_tax_cents, interest_cents, penalties_cents, estimated_liability_cents
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
RETURNING id, analysis_id, jurisdiction_code, year, nexus_status, nexus_type,
    nexus_first_established_year, nexus_is_sticky, total_sales_cents,
    direct_sales_cents, marketplace_sales_cents, taxable_sales_cents,
    transaction_count, threshold_crossing_date, obligation_start_date,
    base_tax_cents, interest_cents, penalties_cents, estimated_liability_cents,
    created_at
`

type InsertNexusResultParams struct {
	ID                        uuid.UUID
	AnalysisID                uuid.UUID
	JurisdictionCode          string
	Year                      int32
	NexusStatus               string
	NexusType                 string
	NexusFirstEstablishedYear pgtype.Int4
	NexusIsSticky             bool
	TotalSalesCents           int64
	DirectSalesCents          int64
	MarketplaceSalesCents     int64
	TaxableSalesCents         int64
	TransactionCount          int32
	ThresholdCrossingDate     pgtype.Date
	ObligationStartDate       pgtype.Date
	BaseTaxCents              int64
	InterestCents             int64
	PenaltiesCents            int64
	EstimatedLiabilityCents   int64
}

func (q *Queries) InsertNexusResult(ctx context.Context, arg InsertNexusResultParams) (NexusResult, error) {
	row := q.db.QueryRow(ctx, insertNexusResult,
		arg.ID,
		arg.AnalysisID,
		arg.JurisdictionCode,
		arg.Year,
		arg.NexusStatus,
		arg.NexusType,
		arg.NexusFirstEstablishedYear,
		arg.NexusIsSticky,
		arg.TotalSalesCents,
		arg.DirectSalesCents,
		arg.MarketplaceSalesCents,
		arg.TaxableSalesCents,
		arg.TransactionCount,
		arg.ThresholdCrossingDate,
		arg.ObligationStartDate,
		arg.BaseTaxCents,
		arg.InterestCents,
		arg.PenaltiesCents,
		arg.EstimatedLiabilityCents,
	)
	var i NexusResult
	err := row.Scan(
		&i.ID,
		&i.AnalysisID,
		&i.JurisdictionCode,
		&i.Year,
		&i.NexusStatus,
		&i.NexusType,
		&i.NexusFirstEstablishedYear,
		&i.NexusIsSticky,
		&i.TotalSalesCents,
		&i.DirectSalesCents,
		&i.MarketplaceSalesCents,
		&i.TaxableSalesCents,
		&i.TransactionCount,
		&i.ThresholdCrossingDate,
		&i.ObligationStartDate,
		&i.BaseTaxCents,
		&i.InterestCents,
		&i.PenaltiesCents,
		&i.EstimatedLiabilityCents,
		&i.CreatedAt,
	)
	return i, err
}

const listNexusResultsByAnalysis = `
SELECT id, analysis_id, jurisdiction_code, year, nexus_status, nexus_type,
    nexus_first_established_year, nexus_is_sticky, total_sales_cents,
    direct_sales_cents, marketplace_sales_cents, taxable_sales_cents,
    transaction_count, threshold_crossing_date, obligation_start_date,
    base_tax_cents, interest_cents, penalties_cents, estimated_liability_cents,
    created_at
FROM nexus_results
WHERE analysis_id = $1
ORDER BY jurisdiction_code, year
`

func (q *Queries) ListNexusResultsByAnalysis(ctx context.Context, analysisID uuid.UUID) ([]NexusResult, error) {
	rows, err := q.db.Query(ctx, listNexusResultsByAnalysis, analysisID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []NexusResult
	for rows.Next() {
		var i NexusResult
		if err := rows.Scan(
			&i.ID,
			&i.AnalysisID,
			&i.JurisdictionCode,
			&i.Year,
			&i.NexusStatus,
			&i.NexusType,
			&i.NexusFirstEstablishedYear,
			&i.NexusIsSticky,
			&i.TotalSalesCents,
			&i.DirectSalesCents,
			&i.MarketplaceSalesCents,
			&i.TaxableSalesCents,
			&i.TransactionCount,
			&i.ThresholdCrossingDate,
			&i.ObligationStartDate,
			&i.BaseTaxCents,
			&i.InterestCents,
			&i.PenaltiesCents,
			&i.EstimatedLiabilityCents,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteNexusResultsByAnalysis = `
DELETE FROM nexus_results WHERE analysis_id = $1
`

func (q *Queries) DeleteNexusResultsByAnalysis(ctx context.Context, analysisID uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteNexusResultsByAnalysis, analysisID)
	return err
}

const createAnalysisSummary = `
INSERT INTO analysis_summaries (
    id, analysis_id, total_liability_cents, total_base_tax_cents,
    total_interest_cents, total_penalties_cents, total_jurisdictions,
    jurisdictions_with_nexus, jurisdictions_approaching, jurisdictions_without,
    jurisdictions_unknown, result_count
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id, analysis_id, total_liability_cents, total_base_tax_cents,
    total_interest_cents, total_penalties_cents, total_jurisdictions,
    jurisdictions_with_nexus, jurisdictions_approaching, jurisdictions_without,
    jurisdictions_unknown, result_count, created_at
`

type CreateAnalysisSummaryParams struct {
	ID                       uuid.UUID
	AnalysisID               uuid.UUID
	TotalLiabilityCents      int64
	TotalBaseTaxCents        int64
	TotalInterestCents       int64
	TotalPenaltiesCents      int64
	TotalJurisdictions       int32
	JurisdictionsWithNexus   int32
	JurisdictionsApproaching int32
	JurisdictionsWithout     int32
	JurisdictionsUnknown     int32
	ResultCount              int32
}

func (q *Queries) CreateAnalysisSummary(ctx context.Context, arg CreateAnalysisSummaryParams) (AnalysisSummary, error) {
	row := q.db.QueryRow(ctx, createAnalysisSummary,
		arg.ID,
		arg.AnalysisID,
		arg.TotalLiabilityCents,
		arg.TotalBaseTaxCents,
		arg.TotalInterestCents,
		arg.TotalPenaltiesCents,
		arg.TotalJurisdictions,
		arg.JurisdictionsWithNexus,
		arg.JurisdictionsApproaching,
		arg.JurisdictionsWithout,
		arg.JurisdictionsUnknown,
		arg.ResultCount,
	)
	var i AnalysisSummary
	err := row.Scan(
		&i.ID,
		&i.AnalysisID,
		&i.TotalLiabilityCents,
		&i.TotalBaseTaxCents,
		&i.TotalInterestCents,
		&i.TotalPenaltiesCents,
		&i.TotalJurisdictions,
		&i.JurisdictionsWithNexus,
		&i.JurisdictionsApproaching,
		&i.JurisdictionsWithout,
		&i.JurisdictionsUnknown,
		&i.ResultCount,
		&i.CreatedAt,
	)
	return i, err
}

const getAnalysisSummary = `
SELECT id, analysis_id, total_liability_cents, total_base_tax_cents,
    total_interest_cents, total_penalties_cents, total_jurisdictions,
    jurisdictions_with_nexus, jurisdictions_approaching, jurisdictions_without,
    jurisdictions_unknown, result_count, created_at
FROM analysis_summaries
WHERE analysis_id = $1
`

func (q *Queries) GetAnalysisSummary(ctx context.Context, analysisID uuid.UUID) (AnalysisSummary, error) {
	row := q.db.QueryRow(ctx, getAnalysisSummary, analysisID)
	var i AnalysisSummary
	err := row.Scan(
		&i.ID,
		&i.AnalysisID,
		&i.TotalLiabilityCents,
		&i.TotalBaseTaxCents,
		&i.TotalInterestCents,
		&i.TotalPenaltiesCents,
		&i.TotalJurisdictions,
		&i.JurisdictionsWithNexus,
		&i.JurisdictionsApproaching,
		&i.JurisdictionsWithout,
		&i.JurisdictionsUnknown,
		&i.ResultCount,
		&i.CreatedAt,
	)
	return i, err
}

const deleteAnalysisSummaryByAnalysis = `
DELETE FROM analysis_summaries WHERE analysis_id = $1
`

func (q *Queries) DeleteAnalysisSummaryByAnalysis(ctx context.Context, analysisID uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteAnalysisSummaryByAnalysis, analysisID)
	return err
}

const insertAnalysisDiagnostic = `
INSERT INTO analysis_diagnostics (
    id, analysis_id, severity, kind, jurisdiction_code, year, source_ref, message
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, analysis_id, severity, kind, jurisdiction_code, year, source_ref,
    message, created_at
`

type InsertAnalysisDiagnosticParams struct {
	ID               uuid.UUID
	AnalysisID       uuid.UUID
	Severity         string
	Kind             pgtype.Text
	JurisdictionCode pgtype.Text
	Year             pgtype.Int4
	SourceRef        pgtype.Text
	Message          string
}

func (q *Queries) InsertAnalysisDiagnostic(ctx context.Context, arg InsertAnalysisDiagnosticParams) (AnalysisDiagnostic, error) {
	row := q.db.QueryRow(ctx, insertAnalysisDiagnostic,
		arg.ID,
		arg.AnalysisID,
		arg.Severity,
		arg.Kind,
		arg.JurisdictionCode,
		arg.Year,
		arg.SourceRef,
		arg.Message,
	)
	var i AnalysisDiagnostic
	err := row.Scan(
		&i.ID,
		&i.AnalysisID,
		&i.Severity,
		&i.Kind,
		&i.JurisdictionCode,
		&i.Year,
		&i.SourceRef,
		&i.Message,
		&i.CreatedAt,
	)
	return i, err
}

const listAnalysisDiagnosticsByAnalysis = `
SELECT id, analysis_id, severity, kind, jurisdiction_code, year, source_ref,
    message, created_at
FROM analysis_diagnostics
WHERE analysis_id = $1
ORDER BY created_at, jurisdiction_code, year
`

func (q *Queries) ListAnalysisDiagnosticsByAnalysis(ctx context.Context, analysisID uuid.UUID) ([]AnalysisDiagnostic, error) {
	rows, err := q.db.Query(ctx, listAnalysisDiagnosticsByAnalysis, analysisID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AnalysisDiagnostic
	for rows.Next() {
		var i AnalysisDiagnostic
		if err := rows.Scan(
			&i.ID,
			&i.AnalysisID,
			&i.Severity,
			&i.Kind,
			&i.JurisdictionCode,
			&i.Year,
			&i.SourceRef,
			&i.Message,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteAnalysisDiagnosticsByAnalysis = `
DELETE FROM analysis_diagnostics WHERE analysis_id = $1
`

func (q *Queries) DeleteAnalysisDiagnosticsByAnalysis(ctx context.Context, analysisID uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteAnalysisDiagnosticsByAnalysis, analysisID)
	return err
}
