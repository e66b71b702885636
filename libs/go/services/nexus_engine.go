package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/nexfield/nexfield-api/libs/go/constants"
	"github.com/nexfield/nexfield-api/libs/go/helpers"
	"github.com/nexfield/nexfield-api/libs/go/logger"
	"github.com/nexfield/nexfield-api/libs/go/types/business"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// NexusEngine runs one analysis end to end: aggregation, per-jurisdiction
// nexus determination, liability and accrual math, and summary assembly.
// The engine performs no I/O; callers load the inputs and persist the
// output. Jurisdictions are independent and computed in parallel, years
// within a jurisdiction strictly in order.
type NexusEngine struct {
	aggregator *TransactionAggregator
	resolver   *RuleResolver
	tracker    *NexusTracker
	liability  *LiabilityCalculator
	accrual    *InterestPenaltyCalculator
	logger     *zap.Logger
	workers    int
}

// NewNexusEngine creates a new nexus engine
func NewNexusEngine() *NexusEngine {
	return &NexusEngine{
		aggregator: NewTransactionAggregator(),
		resolver:   NewRuleResolver(),
		tracker:    NewNexusTracker(NewThresholdEvaluator()),
		liability:  NewLiabilityCalculator(),
		accrual:    NewInterestPenaltyCalculator(),
		logger:     logger.Log,
		workers:    constants.DefaultEngineWorkerCount,
	}
}

// EngineInput is everything one run reads. Identical inputs always produce
// identical results.
type EngineInput struct {
	AnalysisID     uuid.UUID
	PeriodStart    time.Time
	PeriodEnd      time.Time
	EvaluationDate time.Time
	VDAMode        bool
	BaseTaxOnly    bool
	StrictLookback bool
	Transactions   []business.Transaction
	Presence       []business.PhysicalPresenceRecord
	Rules          business.RuleSet
}

// EngineOutput is the complete result batch for one run. Results are ordered
// by jurisdiction code then year and fully replace any prior set for the
// analysis; partially failed jurisdiction-years appear in Failures instead.
type EngineOutput struct {
	Results     []business.JurisdictionYearResult
	Summary     business.AnalysisSummary
	Diagnostics []business.Diagnostic
	Failures    []business.JurisdictionFailure
}

// Run computes the full analysis. The returned error covers cancellation
// and invalid input only; per-jurisdiction problems are scoped to
// diagnostics and failures so one bad jurisdiction never blocks the rest.
func (e *NexusEngine) Run(ctx context.Context, in EngineInput) (*EngineOutput, error) {
	periodStart := helpers.DateOnly(in.PeriodStart)
	periodEnd := helpers.DateOnly(in.PeriodEnd)
	if periodStart.IsZero() || periodEnd.Before(periodStart) {
		return nil, fmt.Errorf("invalid analysis period %s to %s",
			in.PeriodStart.Format(constants.DateLayout), in.PeriodEnd.Format(constants.DateLayout))
	}
	evaluationDate := in.EvaluationDate
	if evaluationDate.IsZero() {
		evaluationDate = time.Now()
	}
	evaluationDate = helpers.DateOnly(evaluationDate)

	aggregated := e.aggregator.Aggregate(in.Transactions, periodStart, periodEnd)

	years := make([]int, 0, periodEnd.Year()-periodStart.Year()+1)
	for year := periodStart.Year(); year <= periodEnd.Year(); year++ {
		years = append(years, year)
	}

	presenceByCode := groupPresenceByCode(in.Presence)
	codes := unionJurisdictionCodes(aggregated.JurisdictionCodes, presenceByCode)

	outcomes := make([]jurisdictionOutcome, len(codes))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.workers)
	for i, code := range codes {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			stream := aggregated.Streams[code]
			if stream == nil {
				stream = &JurisdictionStream{Code: code}
			}
			outcomes[i] = e.computeJurisdiction(stream, years, presenceByCode[code], in, evaluationDate, periodStart, periodEnd)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	out := &EngineOutput{Diagnostics: aggregated.Diagnostics}
	for _, outcome := range outcomes {
		out.Results = append(out.Results, outcome.results...)
		out.Diagnostics = append(out.Diagnostics, outcome.diagnostics...)
		out.Failures = append(out.Failures, outcome.failures...)
	}
	out.Summary = e.summarize(in.AnalysisID, codes, out.Results)

	e.logger.Info("Nexus analysis computed",
		zap.String("analysis_id", in.AnalysisID.String()),
		zap.Int("jurisdictions", len(codes)),
		zap.Int("results", len(out.Results)),
		zap.Int("diagnostics", len(out.Diagnostics)),
		zap.Int("failures", len(out.Failures)),
		zap.Int64("total_liability_cents", out.Summary.TotalLiabilityCents))
	return out, nil
}

type jurisdictionOutcome struct {
	results     []business.JurisdictionYearResult
	diagnostics []business.Diagnostic
	failures    []business.JurisdictionFailure
}

// computeJurisdiction resolves the year rule bindings, walks the years
// through the tracker, and prices every has_nexus year. Config gaps mark
// the affected scope unknown and withhold liability; arithmetic faults
// withhold the single affected year entirely.
func (e *NexusEngine) computeJurisdiction(
	stream *JurisdictionStream,
	years []int,
	presence []business.PhysicalPresenceRecord,
	in EngineInput,
	evaluationDate time.Time,
	periodStart, periodEnd time.Time,
) jurisdictionOutcome {
	var outcome jurisdictionOutcome
	code := stream.Code
	hasSales := len(stream.Transactions) > 0

	bindings := make([]YearRuleBinding, 0, len(years))
	marketplaceByYear := make(map[int]*business.MarketplaceFacilitatorRule, len(years))
	for _, year := range years {
		asOf := helpers.EndOfYear(year)

		marketplaceRule, err := e.resolver.ResolveMarketplaceRule(in.Rules.MarketplaceRules, code, asOf)
		if err != nil {
			marketplaceRule = nil
			if yearHasMarketplaceSales(stream, year) {
				outcome.diagnostics = append(outcome.diagnostics, business.Diagnostic{
					Kind:             business.DiagnosticMissingRule,
					JurisdictionCode: code,
					Year:             year,
					Message:          "no marketplace facilitator rule in effect; marketplace sales counted toward threshold and taxed",
				})
			}
		}
		marketplaceByYear[year] = marketplaceRule

		threshold, err := e.resolver.ResolveThresholdRule(in.Rules.ThresholdRules, code, asOf)
		if err != nil {
			if !hasSales {
				// Presence-only jurisdiction: physical nexus needs no
				// threshold test, walk on with a rule that is never met.
				bindings = append(bindings, YearRuleBinding{Year: year, CountMarketplace: true})
				continue
			}
			return e.jurisdictionUnknown(in.AnalysisID, stream, years, business.DiagnosticMissingRule, err)
		}
		if in.StrictLookback && !SupportedLookbackKind(threshold.LookbackKind) {
			err := fmt.Errorf("unsupported lookback window kind %q for %s year %d", threshold.LookbackKind, code, year)
			return e.jurisdictionUnknown(in.AnalysisID, stream, years, business.DiagnosticUnsupportedLookback, err)
		}

		countMarketplace := true
		if marketplaceRule != nil {
			countMarketplace = marketplaceRule.CountTowardThreshold
		}
		bindings = append(bindings, YearRuleBinding{Year: year, Threshold: *threshold, CountMarketplace: countMarketplace})
	}

	for _, det := range e.tracker.TrackJurisdiction(stream, bindings, presence) {
		if det.UsedFallback {
			outcome.diagnostics = append(outcome.diagnostics, business.Diagnostic{
				Kind:             business.DiagnosticUnsupportedLookback,
				JurisdictionCode: code,
				Year:             det.Year,
				Message:          "unsupported lookback window kind; evaluated as current-or-previous-calendar-year",
			})
		}

		row := newYearResult(in.AnalysisID, stream, det)
		if det.Status != business.NexusStatusHasNexus {
			outcome.results = append(outcome.results, row)
			continue
		}

		// Presence-only jurisdictions owe nothing; skip the rate lookup so
		// a bare rule catalog is not a config gap here.
		if !hasSales {
			outcome.results = append(outcome.results, row)
			continue
		}

		rateAsOf := helpers.EndOfYear(det.Year)
		if det.ObligationStart != nil {
			rateAsOf = *det.ObligationStart
		}
		rate, err := e.resolver.ResolveTaxRate(in.Rules.TaxRates, code, rateAsOf)
		if err != nil {
			row.NexusStatus = business.NexusStatusUnknown
			outcome.failures = append(outcome.failures, business.JurisdictionFailure{
				JurisdictionCode: code,
				Year:             det.Year,
				Reason:           err.Error(),
			})
			outcome.diagnostics = append(outcome.diagnostics, business.Diagnostic{
				Kind:             business.DiagnosticMissingRule,
				JurisdictionCode: code,
				Year:             det.Year,
				Message:          err.Error(),
			})
			outcome.results = append(outcome.results, row)
			continue
		}

		liability, err := e.liability.Calculate(LiabilityInput{
			Stream:          stream,
			Year:            det.Year,
			ObligationStart: det.ObligationStart,
			PeriodStart:     periodStart,
			PeriodEnd:       periodEnd,
			Rate:            *rate,
			Marketplace:     marketplaceByYear[det.Year],
		})
		if err != nil {
			e.logger.Error("Liability computation failed",
				zap.String("jurisdiction_code", code),
				zap.Int("year", det.Year),
				zap.Error(err))
			outcome.failures = append(outcome.failures, business.JurisdictionFailure{
				JurisdictionCode: code,
				Year:             det.Year,
				Reason:           err.Error(),
			})
			continue
		}
		row.TaxableSalesCents = liability.TaxableSalesCents
		row.BaseTaxCents = liability.BaseTaxCents

		if !in.BaseTaxOnly && det.ObligationStart != nil {
			interestRule, err := e.resolver.ResolveInterestRule(in.Rules.InterestRules, code, helpers.EndOfYear(det.Year))
			if err != nil {
				interestRule = nil
				if liability.BaseTaxCents > 0 {
					outcome.diagnostics = append(outcome.diagnostics, business.Diagnostic{
						Kind:             business.DiagnosticMissingRule,
						JurisdictionCode: code,
						Year:             det.Year,
						Message:          "no interest and penalty rule in effect; accruals omitted",
					})
				}
			}
			accrued := e.accrual.Calculate(InterestPenaltyInput{
				BaseTaxCents:    liability.BaseTaxCents,
				ObligationStart: *det.ObligationStart,
				EvaluationDate:  evaluationDate,
				Rule:            interestRule,
				VDAMode:         in.VDAMode,
			})
			row.InterestCents = accrued.InterestCents
			row.PenaltiesCents = accrued.PenaltyCents
		}

		row.EstimatedLiabilityCents = row.BaseTaxCents + row.InterestCents + row.PenaltiesCents
		outcome.results = append(outcome.results, row)
	}

	return outcome
}

// jurisdictionUnknown marks every year of the jurisdiction unknown with
// liability withheld. Sales figures stay populated so reports can still
// show activity next to the "could not determine" marker.
func (e *NexusEngine) jurisdictionUnknown(
	analysisID uuid.UUID,
	stream *JurisdictionStream,
	years []int,
	kind business.DiagnosticKind,
	cause error,
) jurisdictionOutcome {
	e.logger.Warn("Jurisdiction determination failed",
		zap.String("jurisdiction_code", stream.Code),
		zap.Error(cause))

	outcome := jurisdictionOutcome{
		failures: []business.JurisdictionFailure{{
			JurisdictionCode: stream.Code,
			Reason:           cause.Error(),
		}},
		diagnostics: []business.Diagnostic{{
			Kind:             kind,
			JurisdictionCode: stream.Code,
			Message:          cause.Error(),
		}},
	}
	for _, year := range years {
		totals := stream.Years[year]
		outcome.results = append(outcome.results, business.JurisdictionYearResult{
			AnalysisID:            analysisID,
			JurisdictionCode:      stream.Code,
			Year:                  year,
			NexusStatus:           business.NexusStatusUnknown,
			NexusType:             business.NexusTypeNone,
			TotalSalesCents:       totals.TotalCents,
			DirectSalesCents:      totals.DirectCents,
			MarketplaceSalesCents: totals.MarketplaceCents,
			TransactionCount:      totals.Count,
		})
	}
	return outcome
}

// newYearResult seeds a result row with the determination and the year's
// gross sales figures. Result IDs are assigned at persistence time.
func newYearResult(analysisID uuid.UUID, stream *JurisdictionStream, det YearDetermination) business.JurisdictionYearResult {
	totals := stream.Years[det.Year]
	return business.JurisdictionYearResult{
		AnalysisID:                analysisID,
		JurisdictionCode:          stream.Code,
		Year:                      det.Year,
		NexusStatus:               det.Status,
		NexusType:                 det.Type,
		NexusFirstEstablishedYear: det.FirstEstablishedYear,
		NexusIsSticky:             det.Sticky,
		TotalSalesCents:           totals.TotalCents,
		DirectSalesCents:          totals.DirectCents,
		MarketplaceSalesCents:     totals.MarketplaceCents,
		TransactionCount:          totals.Count,
		ThresholdCrossingDate:     det.CrossingDate,
		ObligationStartDate:       det.ObligationStart,
	}
}

// summarize rolls the result set up into one AnalysisSummary. Jurisdictions
// are bucketed by their final-year status; a jurisdiction whose every row
// was withheld counts as unknown.
func (e *NexusEngine) summarize(analysisID uuid.UUID, codes []string, results []business.JurisdictionYearResult) business.AnalysisSummary {
	summary := business.AnalysisSummary{
		AnalysisID:         analysisID,
		TotalJurisdictions: len(codes),
		ResultCount:        len(results),
	}

	finalStatus := make(map[string]business.NexusStatus, len(codes))
	finalYear := make(map[string]int, len(codes))
	for _, result := range results {
		summary.TotalBaseTaxCents += result.BaseTaxCents
		summary.TotalInterestCents += result.InterestCents
		summary.TotalPenaltiesCents += result.PenaltiesCents
		summary.TotalLiabilityCents += result.EstimatedLiabilityCents

		if last, ok := finalYear[result.JurisdictionCode]; !ok || result.Year > last {
			finalYear[result.JurisdictionCode] = result.Year
			finalStatus[result.JurisdictionCode] = result.NexusStatus
		}
	}

	for _, code := range codes {
		status, ok := finalStatus[code]
		if !ok {
			summary.JurisdictionsUnknown++
			continue
		}
		switch status {
		case business.NexusStatusHasNexus:
			summary.JurisdictionsWithNexus++
		case business.NexusStatusApproaching:
			summary.JurisdictionsApproaching++
		case business.NexusStatusUnknown:
			summary.JurisdictionsUnknown++
		default:
			summary.JurisdictionsWithout++
		}
	}
	return summary
}

// yearHasMarketplaceSales reports whether any of the year's bucketed
// transactions came through a marketplace facilitator.
func yearHasMarketplaceSales(stream *JurisdictionStream, year int) bool {
	totals := stream.Years[year]
	return totals.MarketplaceCents != 0 || totals.Count != totals.DirectCount
}

func groupPresenceByCode(records []business.PhysicalPresenceRecord) map[string][]business.PhysicalPresenceRecord {
	grouped := make(map[string][]business.PhysicalPresenceRecord)
	for _, record := range records {
		code := helpers.NormalizeJurisdictionCode(record.JurisdictionCode)
		if code == "" {
			continue
		}
		record.JurisdictionCode = code
		grouped[code] = append(grouped[code], record)
	}
	return grouped
}

// unionJurisdictionCodes merges transaction and presence jurisdictions into
// one sorted list so iteration order, and with it output order, is stable.
func unionJurisdictionCodes(streamCodes []string, presence map[string][]business.PhysicalPresenceRecord) []string {
	seen := make(map[string]bool, len(streamCodes)+len(presence))
	codes := make([]string, 0, len(streamCodes)+len(presence))
	for _, code := range streamCodes {
		if !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}
	for code := range presence {
		if !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes
}
