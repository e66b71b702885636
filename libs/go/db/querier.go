package db

import (
	"context"

	"github.com/google/uuid"
)

// Querier is the store surface services depend on. Production code uses
// *Queries; tests substitute the testutil mock.
type Querier interface {
	CreateAnalysis(ctx context.Context, arg CreateAnalysisParams) (Analysis, error)
	GetAnalysis(ctx context.Context, id uuid.UUID) (Analysis, error)
	ListAnalyses(ctx context.Context, arg ListAnalysesParams) ([]Analysis, error)
	CountAnalyses(ctx context.Context) (int64, error)
	UpdateAnalysisStatus(ctx context.Context, arg UpdateAnalysisStatusParams) (Analysis, error)
	DeleteAnalysis(ctx context.Context, id uuid.UUID) error

	InsertTransactionBatch(ctx context.Context, arg []InsertTransactionBatchParams) (int64, error)
	ListTransactionsByAnalysis(ctx context.Context, arg ListTransactionsByAnalysisParams) ([]AnalysisTransaction, error)
	ListAllTransactionsByAnalysis(ctx context.Context, analysisID uuid.UUID) ([]AnalysisTransaction, error)
	CountTransactionsByAnalysis(ctx context.Context, analysisID uuid.UUID) (int64, error)
	DeleteTransactionsByAnalysis(ctx context.Context, analysisID uuid.UUID) error
	CreatePhysicalPresence(ctx context.Context, arg CreatePhysicalPresenceParams) (PhysicalPresenceRecord, error)
	ListPhysicalPresenceByAnalysis(ctx context.Context, analysisID uuid.UUID) ([]PhysicalPresenceRecord, error)
	DeletePhysicalPresenceByAnalysis(ctx context.Context, analysisID uuid.UUID) error

	CreateThresholdRule(ctx context.Context, arg CreateThresholdRuleParams) (ThresholdRule, error)
	ListThresholdRulesByJurisdiction(ctx context.Context, jurisdictionCode string) ([]ThresholdRule, error)
	ListThresholdRules(ctx context.Context) ([]ThresholdRule, error)
	DeleteThresholdRule(ctx context.Context, id uuid.UUID) error
	CreateTaxRate(ctx context.Context, arg CreateTaxRateParams) (TaxRate, error)
	ListTaxRatesByJurisdiction(ctx context.Context, jurisdictionCode string) ([]TaxRate, error)
	ListTaxRates(ctx context.Context) ([]TaxRate, error)
	DeleteTaxRate(ctx context.Context, id uuid.UUID) error
	CreateMarketplaceRule(ctx context.Context, arg CreateMarketplaceRuleParams) (MarketplaceFacilitatorRule, error)
	ListMarketplaceRulesByJurisdiction(ctx context.Context, jurisdictionCode string) ([]MarketplaceFacilitatorRule, error)
	ListMarketplaceRules(ctx context.Context) ([]MarketplaceFacilitatorRule, error)
	DeleteMarketplaceRule(ctx context.Context, id uuid.UUID) error
	CreateInterestPenaltyRule(ctx context.Context, arg CreateInterestPenaltyRuleParams) (InterestPenaltyRule, error)
	ListInterestPenaltyRulesByJurisdiction(ctx context.Context, jurisdictionCode string) ([]InterestPenaltyRule, error)
	ListInterestPenaltyRules(ctx context.Context) ([]InterestPenaltyRule, error)
	DeleteInterestPenaltyRule(ctx context.Context, id uuid.UUID) error

	InsertNexusResult(ctx context.Context, arg InsertNexusResultParams) (NexusResult, error)
	ListNexusResultsByAnalysis(ctx context.Context, analysisID uuid.UUID) ([]NexusResult, error)
	DeleteNexusResultsByAnalysis(ctx context.Context, analysisID uuid.UUID) error
	CreateAnalysisSummary(ctx context.Context, arg CreateAnalysisSummaryParams) (AnalysisSummary, error)
	GetAnalysisSummary(ctx context.Context, analysisID uuid.UUID) (AnalysisSummary, error)
	DeleteAnalysisSummaryByAnalysis(ctx context.Context, analysisID uuid.UUID) error
	InsertAnalysisDiagnostic(ctx context.Context, arg InsertAnalysisDiagnosticParams) (AnalysisDiagnostic, error)
	ListAnalysisDiagnosticsByAnalysis(ctx context.Context, analysisID uuid.UUID) ([]AnalysisDiagnostic, error)
	DeleteAnalysisDiagnosticsByAnalysis(ctx context.Context, analysisID uuid.UUID) error
}

var _ Querier = (*Queries)(nil)
