package responses

// ThresholdRuleResponse represents one effective-dated threshold rule version
type ThresholdRuleResponse struct {
	ID                    string `json:"id"`
	Object                string `json:"object"`
	JurisdictionCode      string `json:"jurisdiction_code"`
	RevenueThresholdCents *int64 `json:"revenue_threshold_cents,omitempty"`
	TransactionThreshold  *int   `json:"transaction_threshold,omitempty"`
	Operator              string `json:"operator"`
	LookbackKind          string `json:"lookback_kind"`
	CustomWindowEndMonth  *int   `json:"custom_window_end_month,omitempty"`
	CustomWindowEndDay    *int   `json:"custom_window_end_day,omitempty"`
	EffectiveFrom         string `json:"effective_from"`
	EffectiveTo           string `json:"effective_to,omitempty"`
}

// TaxRateResponse represents one effective-dated tax rate version
type TaxRateResponse struct {
	ID               string  `json:"id"`
	Object           string  `json:"object"`
	JurisdictionCode string  `json:"jurisdiction_code"`
	StateRate        float64 `json:"state_rate"`
	AvgLocalRate     float64 `json:"avg_local_rate"`
	CombinedRate     float64 `json:"combined_rate"`
	EffectiveFrom    string  `json:"effective_from"`
	EffectiveTo      string  `json:"effective_to,omitempty"`
}

// MarketplaceRuleResponse represents one effective-dated marketplace facilitator rule version
type MarketplaceRuleResponse struct {
	ID                   string `json:"id"`
	Object               string `json:"object"`
	JurisdictionCode     string `json:"jurisdiction_code"`
	CountTowardThreshold bool   `json:"count_toward_threshold"`
	ExcludeFromLiability bool   `json:"exclude_from_liability"`
	EffectiveFrom        string `json:"effective_from"`
	EffectiveTo          string `json:"effective_to,omitempty"`
}

// InterestPenaltyRuleResponse represents one effective-dated interest and penalty rule version
type InterestPenaltyRuleResponse struct {
	ID                 string  `json:"id"`
	Object             string  `json:"object"`
	JurisdictionCode   string  `json:"jurisdiction_code"`
	AnnualInterestRate float64 `json:"annual_interest_rate"`
	InterestMethod     string  `json:"interest_method"`
	LatePenaltyRate    float64 `json:"late_penalty_rate"`
	PenaltyMinCents    *int64  `json:"penalty_min_cents,omitempty"`
	PenaltyMaxCents    *int64  `json:"penalty_max_cents,omitempty"`
	VDAInterestWaived  bool    `json:"vda_interest_waived"`
	VDAPenaltiesWaived bool    `json:"vda_penalties_waived"`
	EffectiveFrom      string  `json:"effective_from"`
	EffectiveTo        string  `json:"effective_to,omitempty"`
}

// ResolvedRulesResponse represents the rule versions in force for a
// jurisdiction on a given date. Absent members mean no version covers the
// date.
type ResolvedRulesResponse struct {
	JurisdictionCode string                       `json:"jurisdiction_code"`
	AsOf             string                       `json:"as_of"`
	Threshold        *ThresholdRuleResponse       `json:"threshold,omitempty"`
	TaxRate          *TaxRateResponse             `json:"tax_rate,omitempty"`
	Marketplace      *MarketplaceRuleResponse     `json:"marketplace,omitempty"`
	InterestPenalty  *InterestPenaltyRuleResponse `json:"interest_penalty,omitempty"`
}
