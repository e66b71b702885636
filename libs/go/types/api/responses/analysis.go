package responses

// AnalysisResponse represents the standardized API response for analysis operations.
// Date-only fields use the 2006-01-02 layout; created/updated are unix seconds.
type AnalysisResponse struct {
	ID             string `json:"id"`
	Object         string `json:"object"`
	Name           string `json:"name"`
	Status         string `json:"status"`
	PeriodStart    string `json:"period_start"`
	PeriodEnd      string `json:"period_end"`
	EvaluationDate string `json:"evaluation_date,omitempty"`
	VDAMode        bool   `json:"vda_mode"`
	BaseTaxOnly    bool   `json:"base_tax_only"`
	StrictLookback bool   `json:"strict_lookback"`
	FailureReason  string `json:"failure_reason,omitempty"`
	CreatedAt      int64  `json:"created_at"`
	UpdatedAt      int64  `json:"updated_at"`
}

// ListAnalysesResult represents the result of listing analyses
type ListAnalysesResult struct {
	Analyses []AnalysisResponse `json:"analyses"`
	Total    int64              `json:"total"`
}

// TransactionResponse represents one imported ledger row
type TransactionResponse struct {
	ID               string `json:"id"`
	Object           string `json:"object"`
	AnalysisID       string `json:"analysis_id"`
	SourceRef        string `json:"source_ref,omitempty"`
	JurisdictionCode string `json:"jurisdiction_code"`
	Date             string `json:"date"`
	AmountCents      int64  `json:"amount_cents"`
	Channel          string `json:"channel"`
}

// ImportTransactionsResult represents the outcome of a batch ledger import
type ImportTransactionsResult struct {
	Imported int                  `json:"imported"`
	Rejected int                  `json:"rejected"`
	Findings []DiagnosticResponse `json:"findings,omitempty"`
}

// ListTransactionsResult represents the result of listing imported transactions
type ListTransactionsResult struct {
	Transactions []TransactionResponse `json:"transactions"`
	Total        int64                 `json:"total"`
}

// PhysicalPresenceResponse represents a declared physical presence record
type PhysicalPresenceResponse struct {
	ID               string `json:"id"`
	Object           string `json:"object"`
	AnalysisID       string `json:"analysis_id"`
	JurisdictionCode string `json:"jurisdiction_code"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date,omitempty"`
	Description      string `json:"description,omitempty"`
}

// RunAcceptedResponse represents the 202 reply for an async run request
type RunAcceptedResponse struct {
	AnalysisID string `json:"analysis_id"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

// RunCompletedResponse represents the reply for a synchronous run
type RunCompletedResponse struct {
	Analysis     AnalysisResponse        `json:"analysis"`
	Summary      AnalysisSummaryResponse `json:"summary"`
	ResultCount  int                     `json:"result_count"`
	FailureCount int                     `json:"failure_count"`
	WarningCount int                     `json:"warning_count"`
}
