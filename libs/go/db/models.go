package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Row types mirror the nexfield schema one to one. Non-null columns scan
// into native Go types; nullable columns use pgtype wrappers.

type Analysis struct {
	ID             uuid.UUID
	Name           string
	Status         string
	PeriodStart    time.Time
	PeriodEnd      time.Time
	EvaluationDate pgtype.Date
	VdaMode        bool
	BaseTaxOnly    bool
	StrictLookback bool
	FailureReason  pgtype.Text
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type AnalysisTransaction struct {
	ID               uuid.UUID
	AnalysisID       uuid.UUID
	SourceRef        pgtype.Text
	JurisdictionCode string
	Date             time.Time
	AmountCents      int64
	Channel          string
	CreatedAt        time.Time
}

type PhysicalPresenceRecord struct {
	ID               uuid.UUID
	AnalysisID       uuid.UUID
	JurisdictionCode string
	StartDate        time.Time
	EndDate          pgtype.Date
	Description      pgtype.Text
	CreatedAt        time.Time
}

type ThresholdRule struct {
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
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

type TaxRate struct {
	ID               uuid.UUID
	JurisdictionCode string
	StateRate        float64
	AvgLocalRate     float64
	CombinedRate     float64
	EffectiveFrom    time.Time
	EffectiveTo      pgtype.Date
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type MarketplaceFacilitatorRule struct {
	ID                   uuid.UUID
	JurisdictionCode     string
	CountTowardThreshold bool
	ExcludeFromLiability bool
	EffectiveFrom        time.Time
	EffectiveTo          pgtype.Date
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type InterestPenaltyRule struct {
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
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type NexusResult struct {
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
	CreatedAt                 time.Time
}

type AnalysisSummary struct {
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
	CreatedAt                time.Time
}

// AnalysisDiagnostic persists both advisory findings (severity "warning")
// and scoped fatal failures (severity "fatal") from a run.
type AnalysisDiagnostic struct {
	ID               uuid.UUID
	AnalysisID       uuid.UUID
	Severity         string
	Kind             pgtype.Text
	JurisdictionCode pgtype.Text
	Year             pgtype.Int4
	SourceRef        pgtype.Text
	Message          string
	CreatedAt        time.Time
}
