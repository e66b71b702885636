package services

import (
	"math"
	"time"

	"github.com/nexfield/nexfield-api/libs/go/helpers"
	"github.com/nexfield/nexfield-api/libs/go/types/business"
)

// InterestPenaltyCalculator accrues interest and late penalties on base tax
// from the obligation start to the evaluation date. Simple interest uses
// fractional years; the compound methods use whole elapsed periods.
type InterestPenaltyCalculator struct{}

// NewInterestPenaltyCalculator creates a new interest and penalty calculator
func NewInterestPenaltyCalculator() *InterestPenaltyCalculator {
	return &InterestPenaltyCalculator{}
}

// InterestPenaltyInput is the accrual context for one jurisdiction-year.
type InterestPenaltyInput struct {
	BaseTaxCents    int64
	ObligationStart time.Time
	EvaluationDate  time.Time
	// Rule may be nil, in which case nothing accrues.
	Rule    *business.InterestPenaltyRule
	VDAMode bool
}

// InterestPenaltyResult holds the accrued amounts after any waivers.
type InterestPenaltyResult struct {
	InterestCents int64
	PenaltyCents  int64
}

// Calculate applies the jurisdiction's interest method and penalty rate,
// clamps the penalty to any configured floor and cap, and zeroes whatever
// the rule waives under a voluntary disclosure agreement. Zero base tax
// accrues nothing, even when a penalty floor is configured.
func (c *InterestPenaltyCalculator) Calculate(in InterestPenaltyInput) InterestPenaltyResult {
	if in.Rule == nil || in.BaseTaxCents == 0 {
		return InterestPenaltyResult{}
	}

	result := InterestPenaltyResult{
		InterestCents: c.interest(in),
		PenaltyCents:  c.penalty(in),
	}
	if in.VDAMode {
		if in.Rule.VDAInterestWaived {
			result.InterestCents = 0
		}
		if in.Rule.VDAPenaltiesWaived {
			result.PenaltyCents = 0
		}
	}
	return result
}

func (c *InterestPenaltyCalculator) interest(in InterestPenaltyInput) int64 {
	base := float64(in.BaseTaxCents)
	rate := in.Rule.AnnualInterestRate

	var interest float64
	switch in.Rule.InterestMethod {
	case business.InterestCompoundAnnual:
		years := helpers.WholeMonthsBetween(in.ObligationStart, in.EvaluationDate) / 12
		interest = base * (math.Pow(1+rate, float64(years)) - 1)
	case business.InterestCompoundMonthly:
		months := helpers.WholeMonthsBetween(in.ObligationStart, in.EvaluationDate)
		interest = base * (math.Pow(1+rate/12, float64(months)) - 1)
	default:
		interest = base * rate * helpers.YearsBetween(in.ObligationStart, in.EvaluationDate)
	}
	return int64(math.Round(interest))
}

func (c *InterestPenaltyCalculator) penalty(in InterestPenaltyInput) int64 {
	penalty := int64(math.Round(float64(in.BaseTaxCents) * in.Rule.LatePenaltyRate))
	if in.Rule.PenaltyMinCents != nil && penalty < *in.Rule.PenaltyMinCents {
		penalty = *in.Rule.PenaltyMinCents
	}
	if in.Rule.PenaltyMaxCents != nil && penalty > *in.Rule.PenaltyMaxCents {
		penalty = *in.Rule.PenaltyMaxCents
	}
	return penalty
}
