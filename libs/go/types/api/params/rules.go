package params

import "time"

// CreateThresholdRuleParams contains parameters for creating a threshold rule version
type CreateThresholdRuleParams struct {
	JurisdictionCode      string
	RevenueThresholdCents *int64
	TransactionThreshold  *int
	Operator              string
	LookbackKind          string
	CustomWindowEndMonth  *int
	CustomWindowEndDay    *int
	EffectiveFrom         time.Time
	EffectiveTo           *time.Time
}

// CreateTaxRateParams contains parameters for creating a tax rate version
type CreateTaxRateParams struct {
	JurisdictionCode string
	StateRate        float64
	AvgLocalRate     float64
	CombinedRate     float64
	EffectiveFrom    time.Time
	EffectiveTo      *time.Time
}

// CreateMarketplaceRuleParams contains parameters for creating a marketplace facilitator rule version
type CreateMarketplaceRuleParams struct {
	JurisdictionCode     string
	CountTowardThreshold bool
	ExcludeFromLiability bool
	EffectiveFrom        time.Time
	EffectiveTo          *time.Time
}

// CreateInterestPenaltyRuleParams contains parameters for creating an interest and penalty rule version
type CreateInterestPenaltyRuleParams struct {
	JurisdictionCode   string
	AnnualInterestRate float64
	InterestMethod     string
	LatePenaltyRate    float64
	PenaltyMinCents    *int64
	PenaltyMaxCents    *int64
	VDAInterestWaived  bool
	VDAPenaltiesWaived bool
	EffectiveFrom      time.Time
	EffectiveTo        *time.Time
}
