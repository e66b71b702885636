package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nexfield/nexfield-api/libs/go/constants"
	"github.com/nexfield/nexfield-api/libs/go/db"
	"github.com/nexfield/nexfield-api/libs/go/helpers"
	"github.com/nexfield/nexfield-api/libs/go/logger"
	"github.com/nexfield/nexfield-api/libs/go/types/api/params"
	"github.com/nexfield/nexfield-api/libs/go/types/business"
)

// RulesService manages the effective-dated rule catalog behind the engine:
// threshold rules, tax rates, marketplace facilitator rules and interest or
// penalty schedules, each carrying multiple versions per jurisdiction.
type RulesService struct {
	queries  db.Querier
	resolver *RuleResolver
	logger   *zap.Logger
}

// NewRulesService creates a new rules service
func NewRulesService(queries db.Querier) *RulesService {
	return &RulesService{
		queries:  queries,
		resolver: NewRuleResolver(),
		logger:   logger.Log,
	}
}

// ResolvedRules holds the rule versions in force for one jurisdiction on one
// date. Nil members mean no version covers the date.
type ResolvedRules struct {
	JurisdictionCode string
	AsOf             time.Time
	Threshold        *business.ThresholdRule
	TaxRate          *business.TaxRate
	Marketplace      *business.MarketplaceFacilitatorRule
	InterestPenalty  *business.InterestPenaltyRule
}

// CreateThresholdRule stores a new threshold rule version
func (s *RulesService) CreateThresholdRule(ctx context.Context, createParams params.CreateThresholdRuleParams) (*business.ThresholdRule, error) {
	code, err := validRuleJurisdiction(createParams.JurisdictionCode)
	if err != nil {
		return nil, err
	}
	if err := validateEffectiveWindow(createParams.EffectiveFrom, createParams.EffectiveTo); err != nil {
		return nil, err
	}
	if !SupportedLookbackKind(business.LookbackKind(createParams.LookbackKind)) {
		s.logger.Warn("Threshold rule uses an unsupported lookback kind; runs will fall back",
			zap.String("jurisdiction_code", code),
			zap.String("lookback_kind", createParams.LookbackKind))
	}

	row, err := s.queries.CreateThresholdRule(ctx, db.CreateThresholdRuleParams{
		ID:                    uuid.New(),
		JurisdictionCode:      code,
		RevenueThresholdCents: helpers.Int64PtrToNullableInt8(createParams.RevenueThresholdCents),
		TransactionThreshold:  helpers.IntPtrToNullableInt4(createParams.TransactionThreshold),
		Operator:              createParams.Operator,
		LookbackKind:          createParams.LookbackKind,
		CustomWindowEndMonth:  helpers.IntPtrToNullableInt4(createParams.CustomWindowEndMonth),
		CustomWindowEndDay:    helpers.IntPtrToNullableInt4(createParams.CustomWindowEndDay),
		EffectiveFrom:         helpers.DateOnly(createParams.EffectiveFrom),
		EffectiveTo:           helpers.TimePtrToNullableDate(createParams.EffectiveTo),
	})
	if err != nil {
		s.logger.Error("Failed to create threshold rule",
			zap.String("jurisdiction_code", code),
			zap.Error(err))
		return nil, fmt.Errorf("failed to create threshold rule: %w", err)
	}

	rule := thresholdRuleFromDB(row)
	return &rule, nil
}

// ListThresholdRules returns all threshold rule versions for a jurisdiction
// in effective-date order
func (s *RulesService) ListThresholdRules(ctx context.Context, jurisdictionCode string) ([]business.ThresholdRule, error) {
	code, err := validRuleJurisdiction(jurisdictionCode)
	if err != nil {
		return nil, err
	}

	rows, err := s.queries.ListThresholdRulesByJurisdiction(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to list threshold rules: %w", err)
	}

	rules := make([]business.ThresholdRule, 0, len(rows))
	for _, row := range rows {
		rules = append(rules, thresholdRuleFromDB(row))
	}
	return rules, nil
}

// DeleteThresholdRule removes one threshold rule version
func (s *RulesService) DeleteThresholdRule(ctx context.Context, id uuid.UUID) error {
	if err := s.queries.DeleteThresholdRule(ctx, id); err != nil {
		return fmt.Errorf("failed to delete threshold rule: %w", err)
	}
	return nil
}

// CreateTaxRate stores a new tax rate version
func (s *RulesService) CreateTaxRate(ctx context.Context, createParams params.CreateTaxRateParams) (*business.TaxRate, error) {
	code, err := validRuleJurisdiction(createParams.JurisdictionCode)
	if err != nil {
		return nil, err
	}
	if err := validateEffectiveWindow(createParams.EffectiveFrom, createParams.EffectiveTo); err != nil {
		return nil, err
	}

	row, err := s.queries.CreateTaxRate(ctx, db.CreateTaxRateParams{
		ID:               uuid.New(),
		JurisdictionCode: code,
		StateRate:        createParams.StateRate,
		AvgLocalRate:     createParams.AvgLocalRate,
		CombinedRate:     createParams.CombinedRate,
		EffectiveFrom:    helpers.DateOnly(createParams.EffectiveFrom),
		EffectiveTo:      helpers.TimePtrToNullableDate(createParams.EffectiveTo),
	})
	if err != nil {
		s.logger.Error("Failed to create tax rate",
			zap.String("jurisdiction_code", code),
			zap.Error(err))
		return nil, fmt.Errorf("failed to create tax rate: %w", err)
	}

	rate := taxRateFromDB(row)
	return &rate, nil
}

// ListTaxRates returns all tax rate versions for a jurisdiction in
// effective-date order
func (s *RulesService) ListTaxRates(ctx context.Context, jurisdictionCode string) ([]business.TaxRate, error) {
	code, err := validRuleJurisdiction(jurisdictionCode)
	if err != nil {
		return nil, err
	}

	rows, err := s.queries.ListTaxRatesByJurisdiction(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to list tax rates: %w", err)
	}

	rates := make([]business.TaxRate, 0, len(rows))
	for _, row := range rows {
		rates = append(rates, taxRateFromDB(row))
	}
	return rates, nil
}

// DeleteTaxRate removes one tax rate version
func (s *RulesService) DeleteTaxRate(ctx context.Context, id uuid.UUID) error {
	if err := s.queries.DeleteTaxRate(ctx, id); err != nil {
		return fmt.Errorf("failed to delete tax rate: %w", err)
	}
	return nil
}

// CreateMarketplaceRule stores a new marketplace facilitator rule version
func (s *RulesService) CreateMarketplaceRule(ctx context.Context, createParams params.CreateMarketplaceRuleParams) (*business.MarketplaceFacilitatorRule, error) {
	code, err := validRuleJurisdiction(createParams.JurisdictionCode)
	if err != nil {
		return nil, err
	}
	if err := validateEffectiveWindow(createParams.EffectiveFrom, createParams.EffectiveTo); err != nil {
		return nil, err
	}

	row, err := s.queries.CreateMarketplaceRule(ctx, db.CreateMarketplaceRuleParams{
		ID:                   uuid.New(),
		JurisdictionCode:     code,
		CountTowardThreshold: createParams.CountTowardThreshold,
		ExcludeFromLiability: createParams.ExcludeFromLiability,
		EffectiveFrom:        helpers.DateOnly(createParams.EffectiveFrom),
		EffectiveTo:          helpers.TimePtrToNullableDate(createParams.EffectiveTo),
	})
	if err != nil {
		s.logger.Error("Failed to create marketplace rule",
			zap.String("jurisdiction_code", code),
			zap.Error(err))
		return nil, fmt.Errorf("failed to create marketplace rule: %w", err)
	}

	rule := marketplaceRuleFromDB(row)
	return &rule, nil
}

// ListMarketplaceRules returns all marketplace facilitator rule versions for
// a jurisdiction in effective-date order
func (s *RulesService) ListMarketplaceRules(ctx context.Context, jurisdictionCode string) ([]business.MarketplaceFacilitatorRule, error) {
	code, err := validRuleJurisdiction(jurisdictionCode)
	if err != nil {
		return nil, err
	}

	rows, err := s.queries.ListMarketplaceRulesByJurisdiction(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to list marketplace rules: %w", err)
	}

	rules := make([]business.MarketplaceFacilitatorRule, 0, len(rows))
	for _, row := range rows {
		rules = append(rules, marketplaceRuleFromDB(row))
	}
	return rules, nil
}

// DeleteMarketplaceRule removes one marketplace facilitator rule version
func (s *RulesService) DeleteMarketplaceRule(ctx context.Context, id uuid.UUID) error {
	if err := s.queries.DeleteMarketplaceRule(ctx, id); err != nil {
		return fmt.Errorf("failed to delete marketplace rule: %w", err)
	}
	return nil
}

// CreateInterestPenaltyRule stores a new interest and penalty rule version
func (s *RulesService) CreateInterestPenaltyRule(ctx context.Context, createParams params.CreateInterestPenaltyRuleParams) (*business.InterestPenaltyRule, error) {
	code, err := validRuleJurisdiction(createParams.JurisdictionCode)
	if err != nil {
		return nil, err
	}
	if err := validateEffectiveWindow(createParams.EffectiveFrom, createParams.EffectiveTo); err != nil {
		return nil, err
	}
	if createParams.PenaltyMinCents != nil && createParams.PenaltyMaxCents != nil &&
		*createParams.PenaltyMaxCents < *createParams.PenaltyMinCents {
		return nil, fmt.Errorf("penalty_max_cents %d below penalty_min_cents %d",
			*createParams.PenaltyMaxCents, *createParams.PenaltyMinCents)
	}

	row, err := s.queries.CreateInterestPenaltyRule(ctx, db.CreateInterestPenaltyRuleParams{
		ID:                 uuid.New(),
		JurisdictionCode:   code,
		AnnualInterestRate: createParams.AnnualInterestRate,
		InterestMethod:     createParams.InterestMethod,
		LatePenaltyRate:    createParams.LatePenaltyRate,
		PenaltyMinCents:    helpers.Int64PtrToNullableInt8(createParams.PenaltyMinCents),
		PenaltyMaxCents:    helpers.Int64PtrToNullableInt8(createParams.PenaltyMaxCents),
		VdaInterestWaived:  createParams.VDAInterestWaived,
		VdaPenaltiesWaived: createParams.VDAPenaltiesWaived,
		EffectiveFrom:      helpers.DateOnly(createParams.EffectiveFrom),
		EffectiveTo:        helpers.TimePtrToNullableDate(createParams.EffectiveTo),
	})
	if err != nil {
		s.logger.Error("Failed to create interest penalty rule",
			zap.String("jurisdiction_code", code),
			zap.Error(err))
		return nil, fmt.Errorf("failed to create interest penalty rule: %w", err)
	}

	rule := interestRuleFromDB(row)
	return &rule, nil
}

// ListInterestPenaltyRules returns all interest and penalty rule versions for
// a jurisdiction in effective-date order
func (s *RulesService) ListInterestPenaltyRules(ctx context.Context, jurisdictionCode string) ([]business.InterestPenaltyRule, error) {
	code, err := validRuleJurisdiction(jurisdictionCode)
	if err != nil {
		return nil, err
	}

	rows, err := s.queries.ListInterestPenaltyRulesByJurisdiction(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to list interest penalty rules: %w", err)
	}

	rules := make([]business.InterestPenaltyRule, 0, len(rows))
	for _, row := range rows {
		rules = append(rules, interestRuleFromDB(row))
	}
	return rules, nil
}

// DeleteInterestPenaltyRule removes one interest and penalty rule version
func (s *RulesService) DeleteInterestPenaltyRule(ctx context.Context, id uuid.UUID) error {
	if err := s.queries.DeleteInterestPenaltyRule(ctx, id); err != nil {
		return fmt.Errorf("failed to delete interest penalty rule: %w", err)
	}
	return nil
}

// LoadRuleSet loads the full catalog for an engine run
func (s *RulesService) LoadRuleSet(ctx context.Context) (business.RuleSet, error) {
	var set business.RuleSet

	thresholds, err := s.queries.ListThresholdRules(ctx)
	if err != nil {
		return set, fmt.Errorf("failed to load threshold rules: %w", err)
	}
	for _, row := range thresholds {
		set.ThresholdRules = append(set.ThresholdRules, thresholdRuleFromDB(row))
	}

	rates, err := s.queries.ListTaxRates(ctx)
	if err != nil {
		return set, fmt.Errorf("failed to load tax rates: %w", err)
	}
	for _, row := range rates {
		set.TaxRates = append(set.TaxRates, taxRateFromDB(row))
	}

	marketplace, err := s.queries.ListMarketplaceRules(ctx)
	if err != nil {
		return set, fmt.Errorf("failed to load marketplace rules: %w", err)
	}
	for _, row := range marketplace {
		set.MarketplaceRules = append(set.MarketplaceRules, marketplaceRuleFromDB(row))
	}

	interest, err := s.queries.ListInterestPenaltyRules(ctx)
	if err != nil {
		return set, fmt.Errorf("failed to load interest penalty rules: %w", err)
	}
	for _, row := range interest {
		set.InterestRules = append(set.InterestRules, interestRuleFromDB(row))
	}

	return set, nil
}

// ResolveJurisdictionRules returns the rule versions in force for one
// jurisdiction on the given date. A rule type with no covering version is
// simply absent; only storage errors fail the call.
func (s *RulesService) ResolveJurisdictionRules(ctx context.Context, jurisdictionCode string, asOf time.Time) (*ResolvedRules, error) {
	code, err := validRuleJurisdiction(jurisdictionCode)
	if err != nil {
		return nil, err
	}
	asOf = helpers.DateOnly(asOf)

	thresholds, err := s.ListThresholdRules(ctx, code)
	if err != nil {
		return nil, err
	}
	rates, err := s.ListTaxRates(ctx, code)
	if err != nil {
		return nil, err
	}
	marketplace, err := s.ListMarketplaceRules(ctx, code)
	if err != nil {
		return nil, err
	}
	interest, err := s.ListInterestPenaltyRules(ctx, code)
	if err != nil {
		return nil, err
	}

	resolved := &ResolvedRules{JurisdictionCode: code, AsOf: asOf}
	if rule, err := s.resolver.ResolveThresholdRule(thresholds, code, asOf); err == nil {
		resolved.Threshold = rule
	} else if !IsRuleNotFound(err) {
		return nil, err
	}
	if rate, err := s.resolver.ResolveTaxRate(rates, code, asOf); err == nil {
		resolved.TaxRate = rate
	} else if !IsRuleNotFound(err) {
		return nil, err
	}
	if rule, err := s.resolver.ResolveMarketplaceRule(marketplace, code, asOf); err == nil {
		resolved.Marketplace = rule
	} else if !IsRuleNotFound(err) {
		return nil, err
	}
	if rule, err := s.resolver.ResolveInterestRule(interest, code, asOf); err == nil {
		resolved.InterestPenalty = rule
	} else if !IsRuleNotFound(err) {
		return nil, err
	}

	return resolved, nil
}

func validRuleJurisdiction(code string) (string, error) {
	normalized := helpers.NormalizeJurisdictionCode(code)
	if !helpers.IsJurisdictionCodeValid(normalized) {
		return "", fmt.Errorf("invalid jurisdiction code %q", code)
	}
	return normalized, nil
}

func validateEffectiveWindow(from time.Time, to *time.Time) error {
	if to != nil && to.Before(from) {
		return fmt.Errorf("effective_to %s precedes effective_from %s",
			to.Format(constants.DateLayout), from.Format(constants.DateLayout))
	}
	return nil
}

func thresholdRuleFromDB(row db.ThresholdRule) business.ThresholdRule {
	return business.ThresholdRule{
		ID:                    row.ID,
		JurisdictionCode:      row.JurisdictionCode,
		RevenueThresholdCents: helpers.NullableInt8ToInt64Ptr(row.RevenueThresholdCents),
		TransactionThreshold:  helpers.NullableInt4ToIntPtr(row.TransactionThreshold),
		Operator:              business.ThresholdOperator(row.Operator),
		LookbackKind:          business.LookbackKind(row.LookbackKind),
		CustomWindowEndMonth:  helpers.NullableInt4ToIntPtr(row.CustomWindowEndMonth),
		CustomWindowEndDay:    helpers.NullableInt4ToIntPtr(row.CustomWindowEndDay),
		EffectiveFrom:         row.EffectiveFrom,
		EffectiveTo:           helpers.NullableDateToTimePtr(row.EffectiveTo),
	}
}

func taxRateFromDB(row db.TaxRate) business.TaxRate {
	return business.TaxRate{
		ID:               row.ID,
		JurisdictionCode: row.JurisdictionCode,
		StateRate:        row.StateRate,
		AvgLocalRate:     row.AvgLocalRate,
		CombinedRate:     row.CombinedRate,
		EffectiveFrom:    row.EffectiveFrom,
		EffectiveTo:      helpers.NullableDateToTimePtr(row.EffectiveTo),
	}
}

func marketplaceRuleFromDB(row db.MarketplaceFacilitatorRule) business.MarketplaceFacilitatorRule {
	return business.MarketplaceFacilitatorRule{
		ID:                   row.ID,
		JurisdictionCode:     row.JurisdictionCode,
		CountTowardThreshold: row.CountTowardThreshold,
		ExcludeFromLiability: row.ExcludeFromLiability,
		EffectiveFrom:        row.EffectiveFrom,
		EffectiveTo:          helpers.NullableDateToTimePtr(row.EffectiveTo),
	}
}

func interestRuleFromDB(row db.InterestPenaltyRule) business.InterestPenaltyRule {
	return business.InterestPenaltyRule{
		ID:                 row.ID,
		JurisdictionCode:   row.JurisdictionCode,
		AnnualInterestRate: row.AnnualInterestRate,
		InterestMethod:     business.InterestMethod(row.InterestMethod),
		LatePenaltyRate:    row.LatePenaltyRate,
		PenaltyMinCents:    helpers.NullableInt8ToInt64Ptr(row.PenaltyMinCents),
		PenaltyMaxCents:    helpers.NullableInt8ToInt64Ptr(row.PenaltyMaxCents),
		VDAInterestWaived:  row.VdaInterestWaived,
		VDAPenaltiesWaived: row.VdaPenaltiesWaived,
		EffectiveFrom:      row.EffectiveFrom,
		EffectiveTo:        helpers.NullableDateToTimePtr(row.EffectiveTo),
	}
}
