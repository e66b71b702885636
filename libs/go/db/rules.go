package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const createThresholdRule = `
INSERT INTO threshold_rules (
    id, jurisdiction_code, revenue_threshold_cents, transaction_threshold,
    operator, lookback_kind, custom_window_end_month, custom_window_end_day,
    effective_from, effective_to
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id, jurisdiction_code, revenue_threshold_cents, transaction_threshold,
    operator, lookback_kind, custom_window_end_month, custom_window_end_day,
    effective_from, effective_to, created_at, updated_at
`

type CreateThresholdRuleParams struct {
	ID                    uuid.UUID
	JurisdictionCode      string
	RevenueThresholdCents pgtype.Int8
	TransactionThreshold  pgtype.Int4
	Operator              string
	LookbackKind          string
	CustomWindowEndMonth  pgtype.Int4
	CustomWindowEndDay    pgtype.Int4
	EffectiveFrom         time.Time
	EffectiveTo           pgtype.Date
}

func (q *Queries) CreateThresholdRule(ctx context.Context, arg CreateThresholdRuleParams) (ThresholdRule, error) {
	row := q.db.QueryRow(ctx, createThresholdRule,
		arg.ID,
		arg.JurisdictionCode,
		arg.RevenueThresholdCents,
		arg.TransactionThreshold,
		arg.Operator,
		arg.LookbackKind,
		arg.CustomWindowEndMonth,
		arg.CustomWindowEndDay,
		arg.EffectiveFrom,
		arg.EffectiveTo,
	)
	var i ThresholdRule
	err := row.Scan(
		&i.ID,
		&i.JurisdictionCode,
		&i.RevenueThresholdCents,
		&i.TransactionThreshold,
		&i.Operator,
		&i.LookbackKind,
		&i.CustomWindowEndMonth,
		&i.CustomWindowEndDay,
		&i.EffectiveFrom,
		&i.EffectiveTo,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listThresholdRulesByJurisdiction = `
SELECT id, jurisdiction_code, revenue_threshold_cents, transaction_threshold,
    operator, lookback_kind, custom_window_end_month, custom_window_end_day,
    effective_from, effective_to, created_at, updated_at
FROM threshold_rules
WHERE jurisdiction_code = $1
ORDER BY effective_from
`

func (q *Queries) ListThresholdRulesByJurisdiction(ctx context.Context, jurisdictionCode string) ([]ThresholdRule, error) {
	rows, err := q.db.Query(ctx, listThresholdRulesByJurisdiction, jurisdictionCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanThresholdRules(rows)
}

const listThresholdRules = `
SELECT id, jurisdiction_code, revenue_threshold_cents, transaction_threshold,
    operator, lookback_kind, custom_window_end_month, custom_window_end_day,
    effective_from, effective_to, created_at, updated_at
FROM threshold_rules
ORDER BY jurisdiction_code, effective_from
`

func (q *Queries) ListThresholdRules(ctx context.Context) ([]ThresholdRule, error) {
	rows, err := q.db.Query(ctx, listThresholdRules)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanThresholdRules(rows)
}

func scanThresholdRules(rows pgx.Rows) ([]ThresholdRule, error) {
	var items []ThresholdRule
	for rows.Next() {
		var i ThresholdRule
		if err := rows.Scan(
			&i.ID,
			&i.JurisdictionCode,
			&i.RevenueThresholdCents,
			&i.TransactionThreshold,
			&i.Operator,
			&i.LookbackKind,
			&i.CustomWindowEndMonth,
			&i.CustomWindowEndDay,
			&i.EffectiveFrom,
			&i.EffectiveTo,
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

const deleteThresholdRule = `
DELETE FROM threshold_rules WHERE id = $1
`

func (q *Queries) DeleteThresholdRule(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteThresholdRule, id)
	return err
}

const createTaxRate = `
INSERT INTO tax_rates (
    id, jurisdiction_code, state_rate, avg_local_rate, combined_rate,
    effective_from, effective_to
) VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, jurisdiction_code, state_rate, avg_local_rate, combined_rate,
    effective_from, effective_to, created_at, updated_at
`

type CreateTaxRateParams struct {
	ID               uuid.UUID
	JurisdictionCode string
	StateRate        float64
	AvgLocalRate     float64
	CombinedRate     float64
	EffectiveFrom    time.Time
	EffectiveTo      pgtype.Date
}

func (q *Queries) CreateTaxRate(ctx context.Context, arg CreateTaxRateParams) (TaxRate, error) {
	row := q.db.QueryRow(ctx, createTaxRate,
		arg.ID,
		arg.JurisdictionCode,
		arg.StateRate,
		arg.AvgLocalRate,
		arg.CombinedRate,
		arg.EffectiveFrom,
		arg.EffectiveTo,
	)
	var i TaxRate
	err := row.Scan(
		&i.ID,
		&i.JurisdictionCode,
		&i.StateRate,
		&i.AvgLocalRate,
		&i.CombinedRate,
		&i.EffectiveFrom,
		&i.EffectiveTo,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listTaxRatesByJurisdiction = `
SELECT id, jurisdiction_code, state_rate, avg_local_rate, combined_rate,
    effective_from, effective_to, created_at, updated_at
FROM tax_rates
WHERE jurisdiction_code = $1
ORDER BY effective_from
`

func (q *Queries) ListTaxRatesByJurisdiction(ctx context.Context, jurisdictionCode string) ([]TaxRate, error) {
	rows, err := q.db.Query(ctx, listTaxRatesByJurisdiction, jurisdictionCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTaxRates(rows)
}

const listTaxRates = `
SELECT id, jurisdiction_code, state_rate, avg_local_rate, combined_rate,
    effective_from, effective_to, created_at, updated_at
FROM tax_rates
ORDER BY jurisdiction_code, effective_from
`

func (q *Queries) ListTaxRates(ctx context.Context) ([]TaxRate, error) {
	rows, err := q.db.Query(ctx, listTaxRates)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTaxRates(rows)
}

func scanTaxRates(rows pgx.Rows) ([]TaxRate, error) {
	var items []TaxRate
	for rows.Next() {
		var i TaxRate
		if err := rows.Scan(
			&i.ID,
			&i.JurisdictionCode,
			&i.StateRate,
			&i.AvgLocalRate,
			&i.CombinedRate,
			&i.EffectiveFrom,
			&i.EffectiveTo,
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

const deleteTaxRate = `
DELETE FROM tax_rates WHERE id = $1
`

func (q *Queries) DeleteTaxRate(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteTaxRate, id)
	return err
}

const createMarketplaceRule = `
INSERT INTO marketplace_facilitator_rules (
    id, jurisdiction_code, count_toward_threshold, exclude_from_liability,
    effective_from, effective_to
) VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, jurisdiction_code, count_toward_threshold, exclude_from_liability,
    effective_from, effective_to, created_at, updated_at
`

type CreateMarketplaceRuleParams struct {
	ID                   uuid.UUID
	JurisdictionCode     string
	CountTowardThreshold bool
	ExcludeFromLiability bool
	EffectiveFrom        time.Time
	EffectiveTo          pgtype.Date
}

func (q *Queries) CreateMarketplaceRule(ctx context.Context, arg CreateMarketplaceRuleParams) (MarketplaceFacilitatorRule, error) {
	row := q.db.QueryRow(ctx, createMarketplaceRule,
		arg.ID,
		arg.JurisdictionCode,
		arg.CountTowardThreshold,
		arg.ExcludeFromLiability,
		arg.EffectiveFrom,
		arg.EffectiveTo,
	)
	var i MarketplaceFacilitatorRule
	err := row.Scan(
		&i.ID,
		&i.JurisdictionCode,
		&i.CountTowardThreshold,
		&i.ExcludeFromLiability,
		&i.EffectiveFrom,
		&i.EffectiveTo,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listMarketplaceRulesByJurisdiction = `
SELECT id, jurisdiction_code, count_toward_threshold, exclude_from_liability,
    effective_from, effective_to, created_at, updated_at
FROM marketplace_facilitator_rules
WHERE jurisdiction_code = $1
ORDER BY effective_from
`

func (q *Queries) ListMarketplaceRulesByJurisdiction(ctx context.Context, jurisdictionCode string) ([]MarketplaceFacilitatorRule, error) {
	rows, err := q.db.Query(ctx, listMarketplaceRulesByJurisdiction, jurisdictionCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMarketplaceRules(rows)
}

const listMarketplaceRules = `
SELECT id, jurisdiction_code, count_toward_threshold, exclude_from_liability,
    effective_from, effective_to, created_at, updated_at
FROM marketplace_facilitator_rules
ORDER BY jurisdiction_code, effective_from
`

func (q *Queries) ListMarketplaceRules(ctx context.Context) ([]MarketplaceFacilitatorRule, error) {
	rows, err := q.db.Query(ctx, listMarketplaceRules)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMarketplaceRules(rows)
}

func scanMarketplaceRules(rows pgx.Rows) ([]MarketplaceFacilitatorRule, error) {
	var items []MarketplaceFacilitatorRule
	for rows.Next() {
		var i MarketplaceFacilitatorRule
		if err := rows.Scan(
			&i.ID,
			&i.JurisdictionCode,
			&i.CountTowardThreshold,
			&i.ExcludeFromLiability,
			&i.EffectiveFrom,
			&i.EffectiveTo,
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

const deleteMarketplaceRule = `
DELETE FROM marketplace_facilitator_rules WHERE id = $1
`

func (q *Queries) DeleteMarketplaceRule(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteMarketplaceRule, id)
	return err
}

const createInterestPenaltyRule = `
INSERT INTO interest_penalty_rules (
    id, jurisdiction_code, annual_interest_rate, interest_method,
    late_penalty_rate, penalty_min_cents, penalty_max_cents,
    vda_interest_waived, vda_penalties_waived, effective_from, effective_to
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING id, jurisdiction_code, annual_interest_rate, interest_method,
    late_penalty_rate, penalty_min_cents, penalty_max_cents,
    vda_interest_waived, vda_penalties_waived, effective_from, effective_to,
    created_at, updated_at
`

type CreateInterestPenaltyRuleParams struct {
	ID                 uuid.UUID
	JurisdictionCode   string
	AnnualInterestRate float64
	InterestMethod     string
	LatePenaltyRate    float64
	PenaltyMinCents    pgtype.Int8
	PenaltyMaxCents    pgtype.Int8
	VdaInterestWaived  bool
	VdaPenaltiesWaived bool
	EffectiveFrom      time.Time
	EffectiveTo        pgtype.Date
}

func (q *Queries) CreateInterestPenaltyRule(ctx context.Context, arg CreateInterestPenaltyRuleParams) (InterestPenaltyRule, error) {
	row := q.db.QueryRow(ctx, createInterestPenaltyRule,
		arg.ID,
		arg.JurisdictionCode,
		arg.AnnualInterestRate,
		arg.InterestMethod,
		arg.LatePenaltyRate,
		arg.PenaltyMinCents,
		arg.PenaltyMaxCents,
		arg.VdaInterestWaived,
		arg.VdaPenaltiesWaived,
		arg.EffectiveFrom,
		arg.EffectiveTo,
	)
	var i InterestPenaltyRule
	err := row.Scan(
		&i.ID,
		&i.JurisdictionCode,
		&i.AnnualInterestRate,
		&i.InterestMethod,
		&i.LatePenaltyRate,
		&i.PenaltyMinCents,
		&i.PenaltyMaxCents,
		&i.VdaInterestWaived,
		&i.VdaPenaltiesWaived,
		&i.EffectiveFrom,
		&i.EffectiveTo,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listInterestPenaltyRulesByJurisdiction = `
SELECT id, jurisdiction_code, annual_interest_rate, interest_method,
    late_penalty_rate, penalty_min_cents, penalty_max_cents,
    vda_interest_waived, vda_penalties_waived, effective_from, effective_to,
    created_at, updated_at
FROM interest_penalty_rules
WHERE jurisdiction_code = $1
ORDER BY effective_from
`

func (q *Queries) ListInterestPenaltyRulesByJurisdiction(ctx context.Context, jurisdictionCode string) ([]InterestPenaltyRule, error) {
	rows, err := q.db.Query(ctx, listInterestPenaltyRulesByJurisdiction, jurisdictionCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInterestPenaltyRules(rows)
}

const listInterestPenaltyRules = `
SELECT id, jurisdiction_code, annual_interest_rate, interest_method,
    late_penalty_rate, penalty_min_cents, penalty_max_cents,
    vda_interest_waived, vda_penalties_waived, effective_from, effective_to,
    created_at, updated_at
FROM interest_penalty_rules
ORDER BY jurisdiction_code, effective_from
`

func (q *Queries) ListInterestPenaltyRules(ctx context.Context) ([]InterestPenaltyRule, error) {
	rows, err := q.db.Query(ctx, listInterestPenaltyRules)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInterestPenaltyRules(rows)
}

func scanInterestPenaltyRules(rows pgx.Rows) ([]InterestPenaltyRule, error) {
	var items []InterestPenaltyRule
	for rows.Next() {
		var i InterestPenaltyRule
		if err := rows.Scan(
			&i.ID,
			&i.JurisdictionCode,
			&i.AnnualInterestRate,
			&i.InterestMethod,
			&i.LatePenaltyRate,
			&i.PenaltyMinCents,
			&i.PenaltyMaxCents,
			&i.VdaInterestWaived,
			&i.VdaPenaltiesWaived,
			&i.EffectiveFrom,
			&i.EffectiveTo,
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

const deleteInterestPenaltyRule = `
DELETE FROM interest_penalty_rules WHERE id = $1
`

func (q *Queries) DeleteInterestPenaltyRule(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteInterestPenaltyRule, id)
	return err
}
