package business

import (
	"time"

	"github.com/google/uuid"
)

// ThresholdOperator combines the revenue and transaction-count tests of a
// threshold rule.
type ThresholdOperator string

const (
	OperatorAnd ThresholdOperator = "AND"
	OperatorOr  ThresholdOperator = "OR"
)

// LookbackKind names the window definition a jurisdiction uses to measure
// sales against its economic nexus threshold.
type LookbackKind string

const (
	LookbackPreviousCalendarYear          LookbackKind = "previous_calendar_year"
	LookbackCurrentOrPreviousCalendarYear LookbackKind = "current_or_previous_calendar_year"
	LookbackRolling12Month                LookbackKind = "rolling_12_month"
	LookbackQuarterBased                  LookbackKind = "quarter_based"
	LookbackCustomFixedWindow             LookbackKind = "custom_fixed_window"
)

// ThresholdRule is one jurisdiction's economic nexus threshold over an
// effective-date range. Revenue is whole cents. A nil threshold component
// means the jurisdiction does not test that dimension. For
// custom_fixed_window rules, CustomWindowEndMonth/Day pin the month-day the
// twelve-month window ends each year.
type ThresholdRule struct {
	ID                    uuid.UUID         `json:"id"`
	JurisdictionCode      string            `json:"jurisdiction_code"`
	RevenueThresholdCents *int64            `json:"revenue_threshold_cents,omitempty"`
	TransactionThreshold  *int              `json:"transaction_threshold,omitempty"`
	Operator              ThresholdOperator `json:"operator"`
	LookbackKind          LookbackKind      `json:"lookback_kind"`
	CustomWindowEndMonth  *int              `json:"custom_window_end_month,omitempty"`
	CustomWindowEndDay    *int              `json:"custom_window_end_day,omitempty"`
	EffectiveFrom         time.Time         `json:"effective_from"`
	EffectiveTo           *time.Time        `json:"effective_to,omitempty"`
}

// TaxRate is one jurisdiction's rate set over an effective-date range. Rates
// are normalized fractions (0.065 for 6.5%) and are applied exactly as
// stored.
type TaxRate struct {
	ID               uuid.UUID  `json:"id"`
	JurisdictionCode string     `json:"jurisdiction_code"`
	StateRate        float64    `json:"state_rate"`
	AvgLocalRate     float64    `json:"avg_local_rate"`
	CombinedRate     float64    `json:"combined_rate"`
	EffectiveFrom    time.Time  `json:"effective_from"`
	EffectiveTo      *time.Time `json:"effective_to,omitempty"`
}

// MarketplaceFacilitatorRule controls the two marketplace carve-outs, which
// vary independently by jurisdiction: whether facilitated sales count toward
// the nexus threshold, and whether they are excluded from the seller's own
// liability once nexus exists.
type MarketplaceFacilitatorRule struct {
	ID                   uuid.UUID  `json:"id"`
	JurisdictionCode     string     `json:"jurisdiction_code"`
	CountTowardThreshold bool       `json:"count_toward_threshold"`
	ExcludeFromLiability bool       `json:"exclude_from_liability"`
	EffectiveFrom        time.Time  `json:"effective_from"`
	EffectiveTo          *time.Time `json:"effective_to,omitempty"`
}

// InterestMethod selects how interest accrues on unremitted tax.
type InterestMethod string

const (
	InterestSimple          InterestMethod = "simple"
	InterestCompoundAnnual  InterestMethod = "compound_annual"
	InterestCompoundMonthly InterestMethod = "compound_monthly"
)

// InterestPenaltyRule is one jurisdiction's interest and penalty schedule.
// Penalty bounds are whole cents; nil means unbounded on that side. The VDA
// flags describe what the jurisdiction waives under a voluntary disclosure
// agreement.
type InterestPenaltyRule struct {
	ID                 uuid.UUID      `json:"id"`
	JurisdictionCode   string         `json:"jurisdiction_code"`
	AnnualInterestRate float64        `json:"annual_interest_rate"` // fraction, e.g. 0.06
	InterestMethod     InterestMethod `json:"interest_method"`
	LatePenaltyRate    float64        `json:"late_penalty_rate"` // fraction of base tax
	PenaltyMinCents    *int64         `json:"penalty_min_cents,omitempty"`
	PenaltyMaxCents    *int64         `json:"penalty_max_cents,omitempty"`
	VDAInterestWaived  bool           `json:"vda_interest_waived"`
	VDAPenaltiesWaived bool           `json:"vda_penalties_waived"`
	EffectiveFrom      time.Time      `json:"effective_from"`
	EffectiveTo        *time.Time     `json:"effective_to,omitempty"`
}

// RuleSet is the full rule catalog handed to one engine run. Slices may hold
// multiple effective-dated versions per jurisdiction; the resolver picks the
// one covering a given date.
type RuleSet struct {
	ThresholdRules   []ThresholdRule              `json:"threshold_rules"`
	TaxRates         []TaxRate                    `json:"tax_rates"`
	MarketplaceRules []MarketplaceFacilitatorRule `json:"marketplace_rules"`
	InterestRules    []InterestPenaltyRule        `json:"interest_rules"`
}
