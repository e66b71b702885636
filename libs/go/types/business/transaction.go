package business

import (
	"time"

	"github.com/google/uuid"
)

// SalesChannel distinguishes how a sale reached the customer. Marketplace
// sales are treated differently for threshold counting and taxability
// depending on each jurisdiction's facilitator rules.
type SalesChannel string

const (
	ChannelDirect      SalesChannel = "direct"
	ChannelMarketplace SalesChannel = "marketplace"
)

// Transaction is one sale from the ledger under analysis. The engine only
// reads transactions; the ingestion layer owns them. Amounts are whole cents
// and dates are normalized to midnight UTC.
type Transaction struct {
	ID               uuid.UUID    `json:"id"`
	AnalysisID       uuid.UUID    `json:"analysis_id"`
	SourceRef        string       `json:"source_ref,omitempty"` // identifier from the source ledger
	JurisdictionCode string       `json:"jurisdiction_code"`
	Date             time.Time    `json:"date"`
	AmountCents      int64        `json:"amount_cents"`
	Channel          SalesChannel `json:"channel"`
}

// IsMarketplace reports whether the sale went through a marketplace
// facilitator.
func (t Transaction) IsMarketplace() bool {
	return t.Channel == ChannelMarketplace
}
