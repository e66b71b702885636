package responses

// JurisdictionYearResultResponse represents one jurisdiction-year determination
type JurisdictionYearResultResponse struct {
	ID                        string `json:"id"`
	Object                    string `json:"object"`
	AnalysisID                string `json:"analysis_id"`
	JurisdictionCode          string `json:"jurisdiction_code"`
	Year                      int    `json:"year"`
	NexusStatus               string `json:"nexus_status"`
	NexusType                 string `json:"nexus_type"`
	NexusFirstEstablishedYear *int   `json:"nexus_first_established_year,omitempty"`
	NexusIsSticky             bool   `json:"nexus_is_sticky"`
	TotalSalesCents           int64  `json:"total_sales_cents"`
	DirectSalesCents          int64  `json:"direct_sales_cents"`
	MarketplaceSalesCents     int64  `json:"marketplace_sales_cents"`
	TaxableSalesCents         int64  `json:"taxable_sales_cents"`
	TransactionCount          int    `json:"transaction_count"`
	ThresholdCrossingDate     string `json:"threshold_crossing_date,omitempty"`
	ObligationStartDate       string `json:"obligation_start_date,omitempty"`
	BaseTaxCents              int64  `json:"base_tax_cents"`
	InterestCents             int64  `json:"interest_cents"`
	PenaltiesCents            int64  `json:"penalties_cents"`
	EstimatedLiabilityCents   int64  `json:"estimated_liability_cents"`
}

// AnalysisResultsResponse bundles the full result set with its failures
type AnalysisResultsResponse struct {
	AnalysisID string                           `json:"analysis_id"`
	Results    []JurisdictionYearResultResponse `json:"results"`
	Failures   []FailureResponse                `json:"failures,omitempty"`
}

// AnalysisSummaryResponse represents the per-run rollup
type AnalysisSummaryResponse struct {
	ID                       string `json:"id"`
	Object                   string `json:"object"`
	AnalysisID               string `json:"analysis_id"`
	TotalLiabilityCents      int64  `json:"total_liability_cents"`
	TotalBaseTaxCents        int64  `json:"total_base_tax_cents"`
	TotalInterestCents       int64  `json:"total_interest_cents"`
	TotalPenaltiesCents      int64  `json:"total_penalties_cents"`
	TotalJurisdictions       int    `json:"total_jurisdictions"`
	JurisdictionsWithNexus   int    `json:"jurisdictions_with_nexus"`
	JurisdictionsApproaching int    `json:"jurisdictions_approaching"`
	JurisdictionsWithout     int    `json:"jurisdictions_without_nexus"`
	JurisdictionsUnknown     int    `json:"jurisdictions_unknown"`
	ResultCount              int    `json:"result_count"`
	CreatedAt                int64  `json:"created_at"`
}

// DiagnosticResponse represents one advisory finding from a run or import
type DiagnosticResponse struct {
	Kind             string `json:"kind"`
	JurisdictionCode string `json:"jurisdiction_code,omitempty"`
	Year             int    `json:"year,omitempty"`
	SourceRef        string `json:"source_ref,omitempty"`
	Message          string `json:"message"`
}

// FailureResponse represents one scoped fatal determination failure
type FailureResponse struct {
	JurisdictionCode string `json:"jurisdiction_code"`
	Year             int    `json:"year,omitempty"`
	Reason           string `json:"reason"`
}

// AnalysisDiagnosticsResponse bundles diagnostics and failures for one analysis
type AnalysisDiagnosticsResponse struct {
	AnalysisID  string               `json:"analysis_id"`
	Diagnostics []DiagnosticResponse `json:"diagnostics"`
	Failures    []FailureResponse    `json:"failures"`
}
