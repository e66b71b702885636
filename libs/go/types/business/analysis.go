package business

import (
	"time"

	"github.com/google/uuid"
)

// AnalysisStatus tracks an analysis through its lifecycle
type AnalysisStatus string

const (
	AnalysisStatusDraft      AnalysisStatus = "draft"
	AnalysisStatusProcessing AnalysisStatus = "processing"
	AnalysisStatusCompleted  AnalysisStatus = "completed"
	AnalysisStatusFailed     AnalysisStatus = "failed"
)

// Analysis is one nexus study: a transaction ledger evaluated over a period
// against the rule catalog. Results belong to exactly one analysis and are
// fully replaced on each run.
type Analysis struct {
	ID             uuid.UUID      `json:"id"`
	Name           string         `json:"name"`
	Status         AnalysisStatus `json:"status"`
	PeriodStart    time.Time      `json:"period_start"`
	PeriodEnd      time.Time      `json:"period_end"`
	EvaluationDate time.Time      `json:"evaluation_date"` // interest accrues through this date
	VDAMode        bool           `json:"vda_mode"`        // voluntary disclosure: rule-level waivers apply
	BaseTaxOnly    bool           `json:"base_tax_only"`   // skip interest and penalty accrual
	StrictLookback bool           `json:"strict_lookback"` // unsupported lookback kinds fail instead of falling back
	FailureReason  string         `json:"failure_reason,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// PhysicalPresenceRecord declares physical presence in a jurisdiction
// (offices, employees, inventory). Presence is an external input; the engine
// does not infer it. An open-ended record has a nil EndDate.
type PhysicalPresenceRecord struct {
	ID               uuid.UUID  `json:"id"`
	AnalysisID       uuid.UUID  `json:"analysis_id"`
	JurisdictionCode string     `json:"jurisdiction_code"`
	StartDate        time.Time  `json:"start_date"`
	EndDate          *time.Time `json:"end_date,omitempty"`
	Description      string     `json:"description,omitempty"`
}

// ActiveInYear reports whether the presence overlaps any part of the year.
func (p PhysicalPresenceRecord) ActiveInYear(year int) bool {
	yearStart := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	if p.StartDate.After(yearEnd) {
		return false
	}
	if p.EndDate != nil && p.EndDate.Before(yearStart) {
		return false
	}
	return true
}
