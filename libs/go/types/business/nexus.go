package business

import (
	"time"

	"github.com/google/uuid"
)

// NexusStatus is the per-jurisdiction-year determination outcome. Unknown
// marks jurisdiction-years whose determination failed (missing rules, failed
// arithmetic); liability is withheld for those.
type NexusStatus string

const (
	NexusStatusNone        NexusStatus = "none"
	NexusStatusApproaching NexusStatus = "approaching"
	NexusStatusHasNexus    NexusStatus = "has_nexus"
	NexusStatusUnknown     NexusStatus = "unknown"
)

// NexusType records what established the obligation.
type NexusType string

const (
	NexusTypeNone     NexusType = "none"
	NexusTypePhysical NexusType = "physical"
	NexusTypeEconomic NexusType = "economic"
	NexusTypeBoth     NexusType = "both"
)

// JurisdictionYearResult is the primary engine output: one jurisdiction's
// determination and liability for one calendar year. Results are immutable
// once computed; a re-run replaces the full set.
type JurisdictionYearResult struct {
	ID                        uuid.UUID   `json:"id"`
	AnalysisID                uuid.UUID   `json:"analysis_id"`
	JurisdictionCode          string      `json:"jurisdiction_code"`
	Year                      int         `json:"year"`
	NexusStatus               NexusStatus `json:"nexus_status"`
	NexusType                 NexusType   `json:"nexus_type"`
	NexusFirstEstablishedYear *int        `json:"nexus_first_established_year,omitempty"`
	NexusIsSticky             bool        `json:"nexus_is_sticky"`
	TotalSalesCents           int64       `json:"total_sales_cents"`
	DirectSalesCents          int64       `json:"direct_sales_cents"`
	MarketplaceSalesCents     int64       `json:"marketplace_sales_cents"`
	TaxableSalesCents         int64       `json:"taxable_sales_cents"`
	TransactionCount          int         `json:"transaction_count"`
	ThresholdCrossingDate     *time.Time  `json:"threshold_crossing_date,omitempty"`
	ObligationStartDate       *time.Time  `json:"obligation_start_date,omitempty"`
	BaseTaxCents              int64       `json:"base_tax_cents"`
	InterestCents             int64       `json:"interest_cents"`
	PenaltiesCents            int64       `json:"penalties_cents"`
	EstimatedLiabilityCents   int64       `json:"estimated_liability_cents"`
}

// AnalysisSummary aggregates one run's results. Jurisdictions are counted by
// their final-year status.
type AnalysisSummary struct {
	ID                       uuid.UUID `json:"id"`
	AnalysisID               uuid.UUID `json:"analysis_id"`
	TotalLiabilityCents      int64     `json:"total_liability_cents"`
	TotalBaseTaxCents        int64     `json:"total_base_tax_cents"`
	TotalInterestCents       int64     `json:"total_interest_cents"`
	TotalPenaltiesCents      int64     `json:"total_penalties_cents"`
	TotalJurisdictions       int       `json:"total_jurisdictions"`
	JurisdictionsWithNexus   int       `json:"jurisdictions_with_nexus"`
	JurisdictionsApproaching int       `json:"jurisdictions_approaching"`
	JurisdictionsWithout     int       `json:"jurisdictions_without_nexus"`
	JurisdictionsUnknown     int       `json:"jurisdictions_unknown"`
	ResultCount              int       `json:"result_count"`
	CreatedAt                time.Time `json:"created_at"`
}

// DiagnosticKind classifies non-fatal findings surfaced alongside results.
type DiagnosticKind string

const (
	DiagnosticMalformedTransaction DiagnosticKind = "malformed_transaction"
	DiagnosticUnsupportedLookback  DiagnosticKind = "unsupported_lookback"
	DiagnosticMissingRule          DiagnosticKind = "missing_rule"
)

// Diagnostic is one audit finding: a malformed transaction exclusion, an
// unsupported-lookback fallback, or a missing-rule warning, tagged with
// whatever jurisdiction/year context applies.
type Diagnostic struct {
	Kind             DiagnosticKind `json:"kind"`
	JurisdictionCode string         `json:"jurisdiction_code,omitempty"`
	Year             int            `json:"year,omitempty"`
	SourceRef        string         `json:"source_ref,omitempty"` // offending transaction, when applicable
	Message          string         `json:"message"`
}

// JurisdictionFailure records a fatal, scoped determination failure. Year is
// zero when the whole jurisdiction failed. Affected jurisdiction-years carry
// NexusStatusUnknown in the result set; the rest of the analysis is
// unaffected.
type JurisdictionFailure struct {
	JurisdictionCode string `json:"jurisdiction_code"`
	Year             int    `json:"year,omitempty"`
	Reason           string `json:"reason"`
}
