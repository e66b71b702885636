package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createAnalysis = `
INSERT INTO analyses (
    id, name, status, period_start, period_end, evaluation_date,
    vda_mode, base_tax_only, strict_lookback
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, name, status, period_start, period_end, evaluation_date,
    vda_mode, base_tax_only, strict_lookback, failure_reason, created_at, updated_at
`

type CreateAnalysisParams struct {
	ID             uuid.UUID
	Name           string
	Status         string
	PeriodStart    time.Time
	PeriodEnd      time.Time
	EvaluationDate pgtype.Date
	VdaMode        bool
	BaseTaxOnly    bool
	StrictLookback bool
}

func (q *Queries) CreateAnalysis(ctx context.Context, arg CreateAnalysisParams) (Analysis, error) {
	row := q.db.QueryRow(ctx, createAnalysis,
		arg.ID,
		arg.Name,
		arg.Status,
		arg.PeriodStart,
		arg.PeriodEnd,
		arg.EvaluationDate,
		arg.VdaMode,
		arg.BaseTaxOnly,
		arg.StrictLookback,
	)
	var i Analysis
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Status,
		&i.PeriodStart,
		&i.PeriodEnd,
		&i.EvaluationDate,
		&i.VdaMode,
		&i.BaseTaxOnly,
		&i.StrictLookback,
		&i.FailureReason,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getAnalysis = `
SELECT id, name, status, period_start, period_end, evaluation_date,
    vda_mode, base_tax_only, strict_lookback, failure_reason, created_at, updated_at
FROM analyses
WHERE id = $1
`

func (q *Queries) GetAnalysis(ctx context.Context, id uuid.UUID) (Analysis, error) {
	row := q.db.QueryRow(ctx, getAnalysis, id)
	var i Analysis
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Status,
		&i.PeriodStart,
		&i.PeriodEnd,
		&i.EvaluationDate,
		&i.VdaMode,
		&i.BaseTaxOnly,
		&i.StrictLookback,
		&i.FailureReason,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listAnalyses = `
SELECT id, name, status, period_start, period_end, evaluation_date,
    vda_mode, base_tax_only, strict_lookback, failure_reason, created_at, updated_at
FROM analyses
ORDER BY created_at DESC
LIMIT $1 OFFSET $2
`

type ListAnalysesParams struct {
	Limit  int32
	Offset int32
}

func (q *Queries) ListAnalyses(ctx context.Context, arg ListAnalysesParams) ([]Analysis, error) {
	rows, err := q.db.Query(ctx, listAnalyses, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Analysis
	for rows.Next() {
		var i Analysis
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Status,
			&i.PeriodStart,
			&i.PeriodEnd,
			&i.EvaluationDate,
			&i.VdaMode,
			&i.BaseTaxOnly,
			&i.StrictLookback,
			&i.FailureReason,
			&i.CreatedAt,
			&i.UpdatedAt,
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

const countAnalyses = `
SELECT count(*) FROM analyses
`

func (q *Queries) CountAnalyses(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, countAnalyses)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const updateAnalysisStatus = `
UPDATE analyses
SET status = $2, failure_reason = $3, updated_at = now()
WHERE id = $1
RETURNING id, name, status, period_start, period_end, evaluation_date,
    vda_mode, base_tax_only, strict_lookback, failure_reason, created_at, updated_at
`

type UpdateAnalysisStatusParams struct {
	ID            uuid.UUID
	Status        string
	FailureReason pgtype.Text
}

func (q *Queries) UpdateAnalysisStatus(ctx context.Context, arg UpdateAnalysisStatusParams) (Analysis, error) {
	row := q.db.QueryRow(ctx, updateAnalysisStatus, arg.ID, arg.Status, arg.FailureReason)
	var i Analysis
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Status,
		&i.PeriodStart,
		&i.PeriodEnd,
		&i.EvaluationDate,
		&i.VdaMode,
		&i.BaseTaxOnly,
		&i.StrictLookback,
		&i.FailureReason,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const deleteAnalysis = `
DELETE FROM analyses WHERE id = $1
`

func (q *Queries) DeleteAnalysis(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteAnalysis, id)
	return err
}
