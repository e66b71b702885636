package handlers

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/nexfield/nexfield-api/libs/go/db"
)

// Test helpers and fixtures

var (
	testAnalysisID = uuid.MustParse("01234567-89ab-cdef-0123-456789abcdef")
	testPresenceID = uuid.MustParse("21234567-89ab-cdef-0123-456789abcdef")
	testRuleID     = uuid.MustParse("31234567-89ab-cdef-0123-456789abcdef")
	testResultID   = uuid.MustParse("41234567-89ab-cdef-0123-456789abcdef")
	testSummaryID  = uuid.MustParse("51234567-89ab-cdef-0123-456789abcdef")
)

// createTestAnalysisRow builds an analysis row in the given lifecycle status
func createTestAnalysisRow(status string) db.Analysis {
	now := time.Now()
	return db.Analysis{
		ID:          testAnalysisID,
		Name:        "FY22-24 lookback",
		Status:      status,
		PeriodStart: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// createTestSummaryRow builds a summary row attached to the test analysis
func createTestSummaryRow() db.AnalysisSummary {
	return db.AnalysisSummary{
		ID:                     testSummaryID,
		AnalysisID:             testAnalysisID,
		TotalLiabilityCents:    185000,
		TotalBaseTaxCents:      160000,
		TotalInterestCents:     15000,
		TotalPenaltiesCents:    10000,
		TotalJurisdictions:     3,
		JurisdictionsWithNexus: 1,
		JurisdictionsWithout:   2,
		ResultCount:            9,
		CreatedAt:              time.Now(),
	}
}

// pgDate wraps a date-only time for nullable date columns
func pgDate(t time.Time) pgtype.Date {
	return pgtype.Date{Time: t, Valid: true}
}

// pgText wraps a string for nullable text columns
func pgText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: true}
}
