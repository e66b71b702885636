package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type InsertTransactionBatchParams struct {
	ID               uuid.UUID
	AnalysisID       uuid.UUID
	SourceRef        pgtype.Text
	JurisdictionCode string
	Date             time.Time
	AmountCents      int64
	Channel          string
}

// InsertTransactionBatch bulk-loads ledger rows via the postgres COPY
// protocol. Imports run to six figures of rows, so per-row INSERTs are not
// an option here.
func (q *Queries) InsertTransactionBatch(ctx context.Context, arg []InsertTransactionBatchParams) (int64, error) {
	return q.db.CopyFrom(
		ctx,
		pgx.Identifier{"analysis_transactions"},
		[]string{"id", "analysis_id", "source_ref", "jurisdiction_code", "date", "amount_cents", "channel"},
		pgx.CopyFromSlice(len(arg), func(i int) ([]interface{}, error) {
			return []interface{}{
				arg[i].ID,
				arg[i].AnalysisID,
				arg[i].SourceRef,
				arg[i].JurisdictionCode,
				arg[i].Date,
				arg[i].AmountCents,
				arg[i].Channel,
			}, nil
		}),
	)
}

const listTransactionsByAnalysis = `
SELECT id, analysis_id, source_ref, jurisdiction_code, date, amount_cents, channel, created_at
FROM analysis_transactions
WHERE analysis_id = $1
ORDER BY date, source_ref
LIMIT $2 OFFSET $3
`

type ListTransactionsByAnalysisParams struct {
	AnalysisID uuid.UUID
	Limit      int32
	Offset     int32
}

func (q *Queries) ListTransactionsByAnalysis(ctx context.Context, arg ListTransactionsByAnalysisParams) ([]AnalysisTransaction, error) {
	rows, err := q.db.Query(ctx, listTransactionsByAnalysis, arg.AnalysisID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AnalysisTransaction
	for rows.Next() {
		var i AnalysisTransaction
		if err := rows.Scan(
			&i.ID,
			&i.AnalysisID,
			&i.SourceRef,
			&i.JurisdictionCode,
			&i.Date,
			&i.AmountCents,
			&i.Channel,
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

const listAllTransactionsByAnalysis = `
SELECT id, analysis_id, source_ref, jurisdiction_code, date, amount_cents, channel, created_at
FROM analysis_transactions
WHERE analysis_id = $1
ORDER BY date, source_ref
`

// ListAllTransactionsByAnalysis streams the full ledger for an engine run,
// unpaginated.
func (q *Queries) ListAllTransactionsByAnalysis(ctx context.Context, analysisID uuid.UUID) ([]AnalysisTransaction, error) {
	rows, err := q.db.Query(ctx, listAllTransactionsByAnalysis, analysisID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AnalysisTransaction
	for rows.Next() {
		var i AnalysisTransaction
		if err := rows.Scan(
			&i.ID,
			&i.AnalysisID,
			&i.SourceRef,
			&i.JurisdictionCode,
			&i.Date,
			&i.AmountCents,
			&i.Channel,
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

const countTransactionsByAnalysis = `
SELECT count(*) FROM analysis_transactions WHERE analysis_id = $1
`

func (q *Queries) CountTransactionsByAnalysis(ctx context.Context, analysisID uuid.UUID) (int64, error) {
	row := q.db.QueryRow(ctx, countTransactionsByAnalysis, analysisID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const deleteTransactionsByAnalysis = `
DELETE FROM analysis_transactions WHERE analysis_id = $1
`

func (q *Queries) DeleteTransactionsByAnalysis(ctx context.Context, analysisID uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteTransactionsByAnalysis, analysisID)
	return err
}

const createPhysicalPresence = `
INSERT INTO physical_presence_records (
    id, analysis_id, jurisdiction_code, start_date, end_date, description
) VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, analysis_id, jurisdiction_code, start_date, end_date, description, created_at
`

type CreatePhysicalPresenceParams struct {
	ID               uuid.UUID
	AnalysisID       uuid.UUID
	JurisdictionCode string
	StartDate        time.Time
	EndDate          pgtype.Date
	Description      pgtype.Text
}

func (q *Queries) CreatePhysicalPresence(ctx context.Context, arg CreatePhysicalPresenceParams) (PhysicalPresenceRecord, error) {
	row := q.db.QueryRow(ctx, createPhysicalPresence,
		arg.ID,
		arg.AnalysisID,
		arg.JurisdictionCode,
		arg.StartDate,
		arg.EndDate,
		arg.Description,
	)
	var i PhysicalPresenceRecord
	err := row.Scan(
		&i.ID,
		&i.AnalysisID,
		&i.JurisdictionCode,
		&i.StartDate,
		&i.EndDate,
		&i.Description,
		&i.CreatedAt,
	)
	return i, err
}

const deletePhysicalPresenceByAnalysis = `
DELETE FROM physical_presence_records WHERE analysis_id = $1
`

func (q *Queries) DeletePhysicalPresenceByAnalysis(ctx context.Context, analysisID uuid.UUID) error {
	_, err := q.db.Exec(ctx, deletePhysicalPresenceByAnalysis, analysisID)
	return err
}

const listPhysicalPresenceByAnalysis = `
SELECT id, analysis_id, jurisdiction_code, start_date, end_date, description, created_at
FROM physical_presence_records
WHERE analysis_id = $1
ORDER BY jurisdiction_code, start_date
`

func (q *Queries) ListPhysicalPresenceByAnalysis(ctx context.Context, analysisID uuid.UUID) ([]PhysicalPresenceRecord, error) {
	rows, err := q.db.Query(ctx, listPhysicalPresenceByAnalysis, analysisID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PhysicalPresenceRecord
	for rows.Next() {
		var i PhysicalPresenceRecord
		if err := rows.Scan(
			&i.ID,
			&i.AnalysisID,
			&i.JurisdictionCode,
			&i.StartDate,
			&i.EndDate,
			&i.Description,
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
