package services

import (
	"time"

	"github.com/nexfield/nexfield-api/libs/go/helpers"
	"github.com/nexfield/nexfield-api/libs/go/types/business"
)

// approachingShare is the fraction of the revenue threshold at which a
// jurisdiction-year without a crossing is classified as approaching.
const approachingShare = 0.9

// ThresholdEvaluator decides, for one jurisdiction-year, whether and when
// the economic nexus threshold was crossed. The jurisdiction's lookback kind
// selects the window construction; the crossing is always pinned to the
// specific transaction whose running total first satisfies the rule, not to
// a period boundary.
type ThresholdEvaluator struct {
}

// NewThresholdEvaluator creates a new threshold evaluator
func NewThresholdEvaluator() *ThresholdEvaluator {
	return &ThresholdEvaluator{}
}

// ThresholdEvaluation is the outcome of the threshold test for one
// jurisdiction-year. CrossingDate is set only for has_nexus and may fall in
// the prior calendar year for lookback kinds that examine it. UsedFallback
// marks evaluations where an unrecognized lookback kind fell back to
// current-or-previous-calendar-year.
type ThresholdEvaluation struct {
	JurisdictionCode string
	Year             int
	Status           business.NexusStatus
	CrossingDate     *time.Time
	UsedFallback     bool
}

// SupportedLookbackKind reports whether the evaluator implements the kind
// natively. Unrecognized kinds are evaluated as
// current-or-previous-calendar-year and flagged on the evaluation.
func SupportedLookbackKind(kind business.LookbackKind) bool {
	switch kind {
	case business.LookbackPreviousCalendarYear,
		business.LookbackCurrentOrPreviousCalendarYear,
		business.LookbackRolling12Month,
		business.LookbackQuarterBased,
		business.LookbackCustomFixedWindow:
		return true
	}
	return false
}

// EvaluateYear runs the threshold test for the given year.
// countMarketplace mirrors the jurisdiction's facilitator rule: when false,
// marketplace transactions neither add to running totals nor qualify as
// crossing candidates.
func (e *ThresholdEvaluator) EvaluateYear(
	stream *JurisdictionStream,
	year int,
	rule business.ThresholdRule,
	countMarketplace bool,
) *ThresholdEvaluation {
	eval := &ThresholdEvaluation{
		JurisdictionCode: stream.Code,
		Year:             year,
		Status:           business.NexusStatusNone,
	}

	kind := rule.LookbackKind
	if !SupportedLookbackKind(kind) {
		kind = business.LookbackCurrentOrPreviousCalendarYear
		eval.UsedFallback = true
	}

	crossed, crossingDate := e.findCrossing(stream, year, rule, kind, countMarketplace)
	if crossed {
		eval.Status = business.NexusStatusHasNexus
		eval.CrossingDate = &crossingDate
		return eval
	}

	if e.isApproaching(stream, year, rule, kind, countMarketplace) {
		eval.Status = business.NexusStatusApproaching
	}
	return eval
}

func (e *ThresholdEvaluator) findCrossing(
	stream *JurisdictionStream,
	year int,
	rule business.ThresholdRule,
	kind business.LookbackKind,
	countMarketplace bool,
) (bool, time.Time) {
	switch kind {
	case business.LookbackPreviousCalendarYear:
		return e.walkFixedWindow(stream, helpers.StartOfYear(year-1), helpers.EndOfYear(year-1), rule, countMarketplace)

	case business.LookbackCurrentOrPreviousCalendarYear:
		if crossed, date := e.walkFixedWindow(stream, helpers.StartOfYear(year-1), helpers.EndOfYear(year-1), rule, countMarketplace); crossed {
			return true, date
		}
		return e.walkFixedWindow(stream, helpers.StartOfYear(year), helpers.EndOfYear(year), rule, countMarketplace)

	case business.LookbackRolling12Month:
		return e.walkSlidingWindow(stream, year, rule, countMarketplace, func(d time.Time) (time.Time, time.Time) {
			start := helpers.AddMonthsClamped(d, -12).AddDate(0, 0, 1)
			return start, d
		})

	case business.LookbackQuarterBased:
		return e.walkSlidingWindow(stream, year, rule, countMarketplace, func(d time.Time) (time.Time, time.Time) {
			quarterStart := helpers.QuarterStart(d)
			return helpers.AddMonthsClamped(quarterStart, -12), quarterStart.AddDate(0, 0, -1)
		})

	case business.LookbackCustomFixedWindow:
		start, end := customWindow(rule, year)
		return e.walkFixedWindow(stream, start, end, rule, countMarketplace)
	}
	return false, time.Time{}
}

// walkFixedWindow accumulates the window's counted transactions in date
// order and returns the first date at which the rule is satisfied.
func (e *ThresholdEvaluator) walkFixedWindow(
	stream *JurisdictionStream,
	windowStart, windowEnd time.Time,
	rule business.ThresholdRule,
	countMarketplace bool,
) (bool, time.Time) {
	var revenueCents int64
	var count int
	for _, txn := range stream.TransactionsBetween(windowStart, windowEnd) {
		if !countMarketplace && txn.IsMarketplace() {
			continue
		}
		revenueCents += txn.AmountCents
		count++
		if thresholdMet(rule, revenueCents, count) {
			return true, txn.Date
		}
	}
	return false, time.Time{}
}

// walkSlidingWindow evaluates each counted in-year transaction against the
// window ending at (or preceding) its date.
func (e *ThresholdEvaluator) walkSlidingWindow(
	stream *JurisdictionStream,
	year int,
	rule business.ThresholdRule,
	countMarketplace bool,
	windowFor func(time.Time) (time.Time, time.Time),
) (bool, time.Time) {
	for _, txn := range stream.TransactionsBetween(helpers.StartOfYear(year), helpers.EndOfYear(year)) {
		if !countMarketplace && txn.IsMarketplace() {
			continue
		}
		windowStart, windowEnd := windowFor(txn.Date)
		totals := stream.TotalsBetween(windowStart, windowEnd)
		revenueCents, count := countedTotals(totals, countMarketplace)
		if thresholdMet(rule, revenueCents, count) {
			return true, txn.Date
		}
	}
	return false, time.Time{}
}

// isApproaching tests the kind's terminal window against 90% of the revenue
// threshold. Only the revenue dimension feeds the approaching signal.
func (e *ThresholdEvaluator) isApproaching(
	stream *JurisdictionStream,
	year int,
	rule business.ThresholdRule,
	kind business.LookbackKind,
	countMarketplace bool,
) bool {
	if rule.RevenueThresholdCents == nil || *rule.RevenueThresholdCents <= 0 {
		return false
	}

	var revenueCents int64
	switch kind {
	case business.LookbackPreviousCalendarYear:
		revenueCents, _ = countedTotals(stream.TotalsBetween(helpers.StartOfYear(year-1), helpers.EndOfYear(year-1)), countMarketplace)

	case business.LookbackCurrentOrPreviousCalendarYear:
		previous, _ := countedTotals(stream.TotalsBetween(helpers.StartOfYear(year-1), helpers.EndOfYear(year-1)), countMarketplace)
		current, _ := countedTotals(stream.TotalsBetween(helpers.StartOfYear(year), helpers.EndOfYear(year)), countMarketplace)
		revenueCents = previous
		if current > revenueCents {
			revenueCents = current
		}

	case business.LookbackRolling12Month:
		end := helpers.EndOfYear(year)
		start := helpers.AddMonthsClamped(end, -12).AddDate(0, 0, 1)
		revenueCents, _ = countedTotals(stream.TotalsBetween(start, end), countMarketplace)

	case business.LookbackQuarterBased:
		// The four quarters preceding the first quarter of year+1 are the
		// four quarters of this year.
		revenueCents, _ = countedTotals(stream.TotalsBetween(helpers.StartOfYear(year), helpers.EndOfYear(year)), countMarketplace)

	case business.LookbackCustomFixedWindow:
		start, end := customWindow(rule, year)
		revenueCents, _ = countedTotals(stream.TotalsBetween(start, end), countMarketplace)
	}

	return float64(revenueCents) >= approachingShare*float64(*rule.RevenueThresholdCents)
}

// customWindow derives the rule's fixed twelve-month window for a year. A
// rule without an explicit end month-day degrades to the calendar year.
func customWindow(rule business.ThresholdRule, year int) (time.Time, time.Time) {
	month := int(time.December)
	day := 31
	if rule.CustomWindowEndMonth != nil && *rule.CustomWindowEndMonth >= 1 && *rule.CustomWindowEndMonth <= 12 {
		month = *rule.CustomWindowEndMonth
	}
	if rule.CustomWindowEndDay != nil && *rule.CustomWindowEndDay >= 1 && *rule.CustomWindowEndDay <= 31 {
		day = *rule.CustomWindowEndDay
	}
	end := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	if last := end.AddDate(0, 1, -1).Day(); day > last {
		day = last
	}
	end = time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	start := helpers.AddMonthsClamped(end, -12).AddDate(0, 0, 1)
	return start, end
}

// countedTotals picks the channel view a jurisdiction's facilitator rule
// prescribes for threshold math.
func countedTotals(totals WindowTotals, countMarketplace bool) (int64, int) {
	if countMarketplace {
		return totals.RevenueCents, totals.Count
	}
	return totals.DirectRevenueCents, totals.DirectCount
}

// thresholdMet applies the rule's operator over its configured dimensions.
// A rule with neither dimension never crosses.
func thresholdMet(rule business.ThresholdRule, revenueCents int64, count int) bool {
	hasRevenue := rule.RevenueThresholdCents != nil
	hasCount := rule.TransactionThreshold != nil
	if !hasRevenue && !hasCount {
		return false
	}

	revenueMeets := hasRevenue && revenueCents >= *rule.RevenueThresholdCents
	countMeets := hasCount && count >= *rule.TransactionThreshold

	if rule.Operator == business.OperatorAnd {
		if hasRevenue && !revenueMeets {
			return false
		}
		if hasCount && !countMeets {
			return false
		}
		return true
	}
	return revenueMeets || countMeets
}
