package services

import (
	"fmt"
	"math"
	"time"

	"github.com/nexfield/nexfield-api/libs/go/helpers"
	"github.com/nexfield/nexfield-api/libs/go/types/business"
)

// LiabilityCalculator turns a year's obligated sales into base tax owed.
// Only transactions dated on or after the obligation start count toward
// taxable sales; sales earlier in the crossing year are not taxed.
type LiabilityCalculator struct{}

// NewLiabilityCalculator creates a new liability calculator
func NewLiabilityCalculator() *LiabilityCalculator {
	return &LiabilityCalculator{}
}

// LiabilityInput is the resolved context for one jurisdiction-year.
type LiabilityInput struct {
	Stream          *JurisdictionStream
	Year            int
	ObligationStart *time.Time
	PeriodStart     time.Time
	PeriodEnd       time.Time
	Rate            business.TaxRate
	// Marketplace may be nil, in which case marketplace sales are taxed
	// like direct sales.
	Marketplace *business.MarketplaceFacilitatorRule
}

// LiabilityResult holds the taxable figure and the tax computed from it.
type LiabilityResult struct {
	TaxableSalesCents int64
	BaseTaxCents      int64
}

// Calculate computes taxable sales and base tax for one jurisdiction-year.
// When the marketplace rule excludes facilitator-collected sales, only the
// direct channel is taxed. A computed negative figure is an arithmetic
// fault and is returned as an error, never clamped to zero.
func (c *LiabilityCalculator) Calculate(in LiabilityInput) (LiabilityResult, error) {
	if in.ObligationStart == nil {
		return LiabilityResult{}, nil
	}

	windowStart := helpers.StartOfYear(in.Year)
	if obligation := helpers.DateOnly(*in.ObligationStart); obligation.After(windowStart) {
		windowStart = obligation
	}
	if periodStart := helpers.DateOnly(in.PeriodStart); periodStart.After(windowStart) {
		windowStart = periodStart
	}

	windowEnd := helpers.EndOfYear(in.Year)
	if periodEnd := helpers.DateOnly(in.PeriodEnd); periodEnd.Before(windowEnd) {
		windowEnd = periodEnd
	}

	// A December crossing rolls the obligation into the next year and
	// leaves nothing taxable in this one.
	if windowEnd.Before(windowStart) {
		return LiabilityResult{}, nil
	}

	totals := in.Stream.TotalsBetween(windowStart, windowEnd)
	taxable := totals.RevenueCents
	if in.Marketplace != nil && in.Marketplace.ExcludeFromLiability {
		taxable = totals.DirectRevenueCents
	}
	if taxable < 0 {
		return LiabilityResult{}, fmt.Errorf("%w: %s year %d taxable sales computed as %d cents",
			ErrNegativeLiability, in.Stream.Code, in.Year, taxable)
	}

	baseTax := int64(math.Round(float64(taxable) * in.Rate.CombinedRate))
	if baseTax < 0 {
		return LiabilityResult{}, fmt.Errorf("%w: %s year %d base tax computed as %d cents",
			ErrNegativeLiability, in.Stream.Code, in.Year, baseTax)
	}

	return LiabilityResult{TaxableSalesCents: taxable, BaseTaxCents: baseTax}, nil
}
