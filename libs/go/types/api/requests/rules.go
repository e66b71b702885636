package requests

// CreateThresholdRuleRequest represents the request body for creating a threshold rule version
type CreateThresholdRuleRequest struct {
	RevenueThresholdCents *int64 `json:"revenue_threshold_cents,omitempty" binding:"omitempty,min=0"`
	TransactionThreshold  *int   `json:"transaction_threshold,omitempty" binding:"omitempty,min=0"`
	Operator              string `json:"operator" binding:"required,oneof=AND OR"`
	LookbackKind          string `json:"lookback_kind" binding:"required"`
	CustomWindowEndMonth  *int   `json:"custom_window_end_month,omitempty" binding:"omitempty,min=1,max=12"`
	CustomWindowEndDay    *int   `json:"custom_window_end_day,omitempty" binding:"omitempty,min=1,max=31"`
	EffectiveFrom         string `json:"effective_from" binding:"required"`
	EffectiveTo           string `json:"effective_to,omitempty"`
}

// CreateTaxRateRequest represents the request body for creating a tax rate version
type CreateTaxRateRequest struct {
	StateRate     float64 `json:"state_rate" binding:"min=0"`
	AvgLocalRate  float64 `json:"avg_local_rate" binding:"min=0"`
	CombinedRate  float64 `json:"combined_rate" binding:"min=0"`
	EffectiveFrom string  `json:"effective_from" binding:"required"`
	EffectiveTo   string  `json:"effective_to,omitempty"`
}

// CreateMarketplaceRuleRequest represents the request body for creating a marketplace facilitator rule version
type CreateMarketplaceRuleRequest struct {
	CountTowardThreshold bool   `json:"count_toward_threshold"`
	ExcludeFromLiability bool   `json:"exclude_from_liability"`
	EffectiveFrom        string `json:"effective_from" binding:"required"`
	EffectiveTo          string `json:"effective_to,omitempty"`
}

// CreateInterestPenaltyRuleRequest represents the request body for creating an interest and penalty rule version
type CreateInterestPenaltyRuleRequest struct {
	AnnualInterestRate float64 `json:"annual_interest_rate" binding:"min=0"`
	InterestMethod     string  `json:"interest_method" binding:"required,oneof=simple compound_annual compound_monthly"`
	LatePenaltyRate    float64 `json:"late_penalty_rate" binding:"min=0"`
	PenaltyMinCents    *int64  `json:"penalty_min_cents,omitempty" binding:"omitempty,min=0"`
	PenaltyMaxCents    *int64  `json:"penalty_max_cents,omitempty" binding:"omitempty,min=0"`
	VDAInterestWaived  bool    `json:"vda_interest_waived"`
	VDAPenaltiesWaived bool    `json:"vda_penalties_waived"`
	EffectiveFrom      string  `json:"effective_from" binding:"required"`
	EffectiveTo        string  `json:"effective_to,omitempty"`
}
