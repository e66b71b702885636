package params

import (
	"time"

	"github.com/google/uuid"
)

// CreateAnalysisParams contains parameters for creating an analysis
type CreateAnalysisParams struct {
	Name           string
	PeriodStart    time.Time
	PeriodEnd      time.Time
	EvaluationDate *time.Time
	VDAMode        bool
	BaseTaxOnly    bool
	StrictLookback bool
}

// ListAnalysesParams contains parameters for listing analyses
type ListAnalysesParams struct {
	Limit  int32
	Offset int32
}

// ImportTransactionRow is one ledger row in a batch import
type ImportTransactionRow struct {
	SourceRef        string
	JurisdictionCode string
	Date             time.Time
	AmountCents      int64
	Channel          string
}

// ImportTransactionsParams contains parameters for a batch ledger import
type ImportTransactionsParams struct {
	AnalysisID uuid.UUID
	Rows       []ImportTransactionRow
}

// ListTransactionsParams contains parameters for listing imported transactions
type ListTransactionsParams struct {
	AnalysisID uuid.UUID
	Limit      int32
	Offset     int32
}

// CreatePresenceParams contains parameters for declaring physical presence
type CreatePresenceParams struct {
	AnalysisID       uuid.UUID
	JurisdictionCode string
	StartDate        time.Time
	EndDate          *time.Time
	Description      string
}
