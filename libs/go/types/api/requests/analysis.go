package requests

// CreateAnalysisRequest represents the request body for creating an analysis.
// Dates are date-only strings (2006-01-02).
type CreateAnalysisRequest struct {
	Name           string `json:"name" binding:"required"`
	PeriodStart    string `json:"period_start" binding:"required"`
	PeriodEnd      string `json:"period_end" binding:"required"`
	EvaluationDate string `json:"evaluation_date,omitempty"`
	VDAMode        bool   `json:"vda_mode"`
	BaseTaxOnly    bool   `json:"base_tax_only"`
	StrictLookback bool   `json:"strict_lookback"`
}

// ImportTransactionsRequest represents the request body for a batch ledger import
type ImportTransactionsRequest struct {
	Transactions []ImportTransactionRequest `json:"transactions" binding:"required,min=1,dive"`
}

// ImportTransactionRequest represents one ledger row in a batch import
type ImportTransactionRequest struct {
	SourceRef        string `json:"source_ref,omitempty"`
	JurisdictionCode string `json:"jurisdiction_code" binding:"required"`
	Date             string `json:"date" binding:"required"`
	AmountCents      int64  `json:"amount_cents"`
	Channel          string `json:"channel" binding:"required,oneof=direct marketplace"`
}

// CreatePhysicalPresenceRequest represents the request body for declaring physical presence
type CreatePhysicalPresenceRequest struct {
	JurisdictionCode string `json:"jurisdiction_code" binding:"required"`
	StartDate        string `json:"start_date" binding:"required"`
	EndDate          string `json:"end_date,omitempty"`
	Description      string `json:"description,omitempty"`
}
