package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nexfield/nexfield-api/libs/go/services"
	"github.com/nexfield/nexfield-api/libs/go/types/business"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func thresholdFor(code string, revenueCents int64) business.ThresholdRule {
	return business.ThresholdRule{
		ID:                    uuid.New(),
		JurisdictionCode:      code,
		RevenueThresholdCents: int64Ptr(revenueCents),
		Operator:              business.OperatorOr,
		LookbackKind:          business.LookbackCurrentOrPreviousCalendarYear,
		EffectiveFrom:         date(2019, time.January, 1),
	}
}

func rateFor(code string, combined float64) business.TaxRate {
	return business.TaxRate{
		ID:               uuid.New(),
		JurisdictionCode: code,
		CombinedRate:     combined,
		EffectiveFrom:    date(2019, time.January, 1),
	}
}

func resultFor(t *testing.T, results []business.JurisdictionYearResult, code string, year int) business.JurisdictionYearResult {
	t.Helper()
	for _, result := range results {
		if result.JurisdictionCode == code && result.Year == year {
			return result
		}
	}
	t.Fatalf("no result for %s year %d", code, year)
	return business.JurisdictionYearResult{}
}

func TestNexusEngine_CrossingYearTaxesPostObligationSales(t *testing.T) {
	engine := services.NewNexusEngine()

	// $100,000 accumulates through September 14; $335,000 follows the
	// October 1 obligation start at a 6.5% combined rate.
	input := services.EngineInput{
		AnalysisID:  uuid.New(),
		PeriodStart: date(2022, time.January, 1),
		PeriodEnd:   date(2022, time.December, 31),
		BaseTaxOnly: true,
		Transactions: []business.Transaction{
			directSale("GA", date(2022, time.March, 10), 4000000),
			directSale("GA", date(2022, time.June, 5), 3500000),
			directSale("GA", date(2022, time.September, 14), 2500000),
			directSale("GA", date(2022, time.October, 12), 15000000),
			directSale("GA", date(2022, time.November, 20), 10000000),
			directSale("GA", date(2022, time.December, 15), 8500000),
		},
		Rules: business.RuleSet{
			ThresholdRules: []business.ThresholdRule{thresholdFor("GA", 10000000)},
			TaxRates:       []business.TaxRate{rateFor("GA", 0.065)},
		},
	}

	out, err := engine.Run(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.Empty(t, out.Failures)
	assert.Empty(t, out.Diagnostics)

	row := out.Results[0]
	assert.Equal(t, business.NexusStatusHasNexus, row.NexusStatus)
	assert.Equal(t, business.NexusTypeEconomic, row.NexusType)
	require.NotNil(t, row.ThresholdCrossingDate)
	assert.Equal(t, date(2022, time.September, 14), *row.ThresholdCrossingDate)
	require.NotNil(t, row.ObligationStartDate)
	assert.Equal(t, date(2022, time.October, 1), *row.ObligationStartDate)

	assert.Equal(t, int64(43500000), row.TotalSalesCents)
	assert.Equal(t, int64(33500000), row.TaxableSalesCents)
	assert.Equal(t, int64(2177500), row.BaseTaxCents) // $21,775.00
	assert.Equal(t, row.BaseTaxCents, row.EstimatedLiabilityCents)
	assert.Equal(t, row.TotalSalesCents, row.DirectSalesCents+row.MarketplaceSalesCents)

	assert.Equal(t, int64(2177500), out.Summary.TotalLiabilityCents)
	assert.Equal(t, 1, out.Summary.JurisdictionsWithNexus)
}

func TestNexusEngine_FullyExemptMarketplaceSalesStillEstablishNexus(t *testing.T) {
	engine := services.NewNexusEngine()

	// $295,000, all through a facilitator that counts toward the threshold
	// but collects the tax itself.
	input := services.EngineInput{
		AnalysisID:  uuid.New(),
		PeriodStart: date(2022, time.January, 1),
		PeriodEnd:   date(2022, time.December, 31),
		Transactions: []business.Transaction{
			marketplaceSale("WA", date(2022, time.February, 1), 12000000),
			marketplaceSale("WA", date(2022, time.May, 1), 10000000),
			marketplaceSale("WA", date(2022, time.September, 1), 7500000),
		},
		Rules: business.RuleSet{
			ThresholdRules: []business.ThresholdRule{thresholdFor("WA", 10000000)},
			TaxRates:       []business.TaxRate{rateFor("WA", 0.065)},
			MarketplaceRules: []business.MarketplaceFacilitatorRule{{
				JurisdictionCode:     "WA",
				CountTowardThreshold: true,
				ExcludeFromLiability: true,
				EffectiveFrom:        date(2019, time.January, 1),
			}},
		},
	}

	out, err := engine.Run(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, out.Results, 1)

	row := out.Results[0]
	assert.Equal(t, business.NexusStatusHasNexus, row.NexusStatus)
	assert.Equal(t, int64(29500000), row.MarketplaceSalesCents)
	assert.Zero(t, row.DirectSalesCents)
	assert.Zero(t, row.TaxableSalesCents)
	assert.Zero(t, row.BaseTaxCents)
	assert.Zero(t, row.EstimatedLiabilityCents)
	assert.Equal(t, 1, out.Summary.JurisdictionsWithNexus)
	assert.Zero(t, out.Summary.TotalLiabilityCents)
}

func TestNexusEngine_YearsEvaluateIndependently(t *testing.T) {
	engine := services.NewNexusEngine()

	// $145,000 then $184,500 against a $350,000 threshold: each year stays
	// below on its own, and the two years never aggregate ($329,500 would
	// read as approaching if they did).
	input := services.EngineInput{
		AnalysisID:  uuid.New(),
		PeriodStart: date(2022, time.January, 1),
		PeriodEnd:   date(2023, time.December, 31),
		Transactions: []business.Transaction{
			directSale("CO", date(2022, time.April, 5), 7000000),
			directSale("CO", date(2022, time.September, 9), 7500000),
			directSale("CO", date(2023, time.March, 12), 9000000),
			directSale("CO", date(2023, time.October, 2), 9450000),
		},
		Rules: business.RuleSet{
			ThresholdRules: []business.ThresholdRule{thresholdFor("CO", 35000000)},
			TaxRates:       []business.TaxRate{rateFor("CO", 0.029)},
		},
	}

	out, err := engine.Run(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, out.Results, 2)

	first := resultFor(t, out.Results, "CO", 2022)
	assert.Equal(t, business.NexusStatusNone, first.NexusStatus)
	assert.Equal(t, int64(14500000), first.TotalSalesCents)

	second := resultFor(t, out.Results, "CO", 2023)
	assert.Equal(t, business.NexusStatusNone, second.NexusStatus)
	assert.Equal(t, int64(18450000), second.TotalSalesCents)

	assert.Zero(t, out.Summary.TotalLiabilityCents)
	assert.Equal(t, 1, out.Summary.JurisdictionsWithout)
}

func TestNexusEngine_StickyNexusTaxesFullFollowingYear(t *testing.T) {
	engine := services.NewNexusEngine()

	// Nexus established on $120,000 in 2022; 2023 drops to $80,000 but the
	// obligation persists from January 1.
	input := services.EngineInput{
		AnalysisID:     uuid.New(),
		PeriodStart:    date(2022, time.January, 1),
		PeriodEnd:      date(2023, time.December, 31),
		EvaluationDate: date(2025, time.January, 1),
		Transactions: []business.Transaction{
			directSale("IL", date(2022, time.February, 15), 5000000),
			directSale("IL", date(2022, time.May, 20), 7000000),
			directSale("IL", date(2023, time.February, 10), 2000000),
			directSale("IL", date(2023, time.May, 10), 2000000),
			directSale("IL", date(2023, time.August, 10), 2000000),
			directSale("IL", date(2023, time.November, 10), 2000000),
		},
		Rules: business.RuleSet{
			ThresholdRules: []business.ThresholdRule{thresholdFor("IL", 10000000)},
			TaxRates:       []business.TaxRate{rateFor("IL", 0.05)},
			InterestRules: []business.InterestPenaltyRule{{
				JurisdictionCode:   "IL",
				AnnualInterestRate: 0.10,
				InterestMethod:     business.InterestSimple,
				LatePenaltyRate:    0.10,
				EffectiveFrom:      date(2019, time.January, 1),
			}},
		},
	}

	out, err := engine.Run(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, out.Results, 2)

	first := resultFor(t, out.Results, "IL", 2022)
	assert.Equal(t, business.NexusStatusHasNexus, first.NexusStatus)
	assert.False(t, first.NexusIsSticky)
	require.NotNil(t, first.ObligationStartDate)
	assert.Equal(t, date(2022, time.June, 1), *first.ObligationStartDate)
	assert.Zero(t, first.TaxableSalesCents) // all 2022 sales predate the obligation
	assert.Zero(t, first.EstimatedLiabilityCents)

	second := resultFor(t, out.Results, "IL", 2023)
	assert.Equal(t, business.NexusStatusHasNexus, second.NexusStatus)
	assert.True(t, second.NexusIsSticky)
	require.NotNil(t, second.NexusFirstEstablishedYear)
	assert.Equal(t, 2022, *second.NexusFirstEstablishedYear)
	require.NotNil(t, second.ObligationStartDate)
	assert.Equal(t, date(2023, time.January, 1), *second.ObligationStartDate)
	assert.Equal(t, int64(8000000), second.TaxableSalesCents)
	assert.Equal(t, int64(400000), second.BaseTaxCents) // $4,000 at 5%
	assert.Equal(t, int64(80055), second.InterestCents) // 731 days of simple 10%
	assert.Equal(t, int64(40000), second.PenaltiesCents)
	assert.Equal(t, int64(520055), second.EstimatedLiabilityCents)
}

func TestNexusEngine_UncountedMarketplaceSalesDoNotCross(t *testing.T) {
	engine := services.NewNexusEngine()

	// 250 facilitator sales ($280,000) against a $500,000-or-200-sales
	// threshold: with the facilitator channel excluded from counting, only
	// the 10 direct sales ($65,000) are visible and nothing crosses.
	txns := make([]business.Transaction, 0, 260)
	for i := 0; i < 250; i++ {
		txns = append(txns, marketplaceSale("NY", date(2022, time.January, 1).AddDate(0, 0, i), 112000))
	}
	for i := 0; i < 10; i++ {
		txns = append(txns, directSale("NY", date(2022, time.January, 15).AddDate(0, i, 0), 650000))
	}

	threshold := thresholdFor("NY", 50000000)
	threshold.TransactionThreshold = intPtr(200)

	input := services.EngineInput{
		AnalysisID:   uuid.New(),
		PeriodStart:  date(2022, time.January, 1),
		PeriodEnd:    date(2022, time.December, 31),
		Transactions: txns,
		Rules: business.RuleSet{
			ThresholdRules: []business.ThresholdRule{threshold},
			TaxRates:       []business.TaxRate{rateFor("NY", 0.08)},
			MarketplaceRules: []business.MarketplaceFacilitatorRule{{
				JurisdictionCode:     "NY",
				CountTowardThreshold: false,
				ExcludeFromLiability: true,
				EffectiveFrom:        date(2019, time.January, 1),
			}},
		},
	}

	out, err := engine.Run(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, out.Results, 1)

	row := out.Results[0]
	assert.Equal(t, business.NexusStatusNone, row.NexusStatus)
	assert.Nil(t, row.ThresholdCrossingDate)
	assert.Equal(t, int64(28000000), row.MarketplaceSalesCents)
	assert.Equal(t, int64(6500000), row.DirectSalesCents)
	assert.Equal(t, 260, row.TransactionCount)
	assert.Zero(t, row.EstimatedLiabilityCents)
}

func TestNexusEngine_PhysicalPresenceWithoutSales(t *testing.T) {
	engine := services.NewNexusEngine()

	input := services.EngineInput{
		AnalysisID:  uuid.New(),
		PeriodStart: date(2022, time.January, 1),
		PeriodEnd:   date(2023, time.December, 31),
		Presence: []business.PhysicalPresenceRecord{
			{JurisdictionCode: "nv", StartDate: date(2022, time.May, 20), Description: "fulfillment center"},
		},
	}

	out, err := engine.Run(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, out.Results, 2)
	assert.Empty(t, out.Failures)

	first := resultFor(t, out.Results, "NV", 2022)
	assert.Equal(t, business.NexusStatusHasNexus, first.NexusStatus)
	assert.Equal(t, business.NexusTypePhysical, first.NexusType)
	require.NotNil(t, first.ObligationStartDate)
	assert.Equal(t, date(2022, time.May, 20), *first.ObligationStartDate)
	assert.Zero(t, first.EstimatedLiabilityCents)

	second := resultFor(t, out.Results, "NV", 2023)
	assert.True(t, second.NexusIsSticky)
	assert.Equal(t, business.NexusTypePhysical, second.NexusType)
}

func TestNexusEngine_MissingThresholdRuleFailsJurisdictionOnly(t *testing.T) {
	engine := services.NewNexusEngine()

	input := services.EngineInput{
		AnalysisID:  uuid.New(),
		PeriodStart: date(2022, time.January, 1),
		PeriodEnd:   date(2022, time.December, 31),
		Transactions: []business.Transaction{
			directSale("CA", date(2022, time.April, 1), 20000000), // crosses normally
			directSale("ZZ", date(2022, time.April, 1), 5000000),  // no rules configured
		},
		Rules: business.RuleSet{
			ThresholdRules: []business.ThresholdRule{thresholdFor("CA", 10000000)},
			TaxRates:       []business.TaxRate{rateFor("CA", 0.0725)},
		},
		BaseTaxOnly: true,
	}

	out, err := engine.Run(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, out.Results, 2)

	healthy := resultFor(t, out.Results, "CA", 2022)
	assert.Equal(t, business.NexusStatusHasNexus, healthy.NexusStatus)
	assert.Positive(t, healthy.EstimatedLiabilityCents)

	unknown := resultFor(t, out.Results, "ZZ", 2022)
	assert.Equal(t, business.NexusStatusUnknown, unknown.NexusStatus)
	assert.Equal(t, int64(5000000), unknown.TotalSalesCents) // activity stays visible
	assert.Zero(t, unknown.EstimatedLiabilityCents)

	require.Len(t, out.Failures, 1)
	assert.Equal(t, "ZZ", out.Failures[0].JurisdictionCode)
	assert.Zero(t, out.Failures[0].Year)

	require.NotEmpty(t, out.Diagnostics)
	assert.Equal(t, business.DiagnosticMissingRule, out.Diagnostics[0].Kind)

	assert.Equal(t, 1, out.Summary.JurisdictionsWithNexus)
	assert.Equal(t, 1, out.Summary.JurisdictionsUnknown)
}

func TestNexusEngine_MissingTaxRateWithholdsLiability(t *testing.T) {
	engine := services.NewNexusEngine()

	input := services.EngineInput{
		AnalysisID:  uuid.New(),
		PeriodStart: date(2022, time.January, 1),
		PeriodEnd:   date(2022, time.December, 31),
		Transactions: []business.Transaction{
			directSale("TX", date(2022, time.March, 1), 20000000),
		},
		Rules: business.RuleSet{
			ThresholdRules: []business.ThresholdRule{thresholdFor("TX", 10000000)},
		},
	}

	out, err := engine.Run(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, out.Results, 1)

	row := out.Results[0]
	assert.Equal(t, business.NexusStatusUnknown, row.NexusStatus)
	require.NotNil(t, row.ThresholdCrossingDate) // the determination itself succeeded
	assert.Zero(t, row.BaseTaxCents)
	assert.Zero(t, row.EstimatedLiabilityCents)

	require.Len(t, out.Failures, 1)
	assert.Equal(t, "TX", out.Failures[0].JurisdictionCode)
	assert.Equal(t, 2022, out.Failures[0].Year)
}

func TestNexusEngine_UnsupportedLookback(t *testing.T) {
	threshold := thresholdFor("GA", 10000000)
	threshold.LookbackKind = "fiscal_biennium"

	input := services.EngineInput{
		AnalysisID:  uuid.New(),
		PeriodStart: date(2022, time.January, 1),
		PeriodEnd:   date(2022, time.December, 31),
		Transactions: []business.Transaction{
			directSale("GA", date(2022, time.March, 3), 12000000),
		},
		Rules: business.RuleSet{
			ThresholdRules: []business.ThresholdRule{threshold},
			TaxRates:       []business.TaxRate{rateFor("GA", 0.04)},
		},
		BaseTaxOnly: true,
	}

	t.Run("falls back with a diagnostic by default", func(t *testing.T) {
		out, err := services.NewNexusEngine().Run(context.Background(), input)
		require.NoError(t, err)
		require.Len(t, out.Results, 1)
		assert.Equal(t, business.NexusStatusHasNexus, out.Results[0].NexusStatus)
		assert.Empty(t, out.Failures)

		require.Len(t, out.Diagnostics, 1)
		assert.Equal(t, business.DiagnosticUnsupportedLookback, out.Diagnostics[0].Kind)
		assert.Equal(t, "GA", out.Diagnostics[0].JurisdictionCode)
	})

	t.Run("strict mode fails the jurisdiction instead", func(t *testing.T) {
		strict := input
		strict.StrictLookback = true

		out, err := services.NewNexusEngine().Run(context.Background(), strict)
		require.NoError(t, err)
		require.Len(t, out.Results, 1)
		assert.Equal(t, business.NexusStatusUnknown, out.Results[0].NexusStatus)
		require.Len(t, out.Failures, 1)
		assert.Equal(t, "GA", out.Failures[0].JurisdictionCode)
	})
}

func TestNexusEngine_DeterministicAcrossRuns(t *testing.T) {
	engine := services.NewNexusEngine()

	analysisID := uuid.New()
	input := services.EngineInput{
		AnalysisID:     analysisID,
		PeriodStart:    date(2021, time.January, 1),
		PeriodEnd:      date(2023, time.December, 31),
		EvaluationDate: date(2024, time.June, 30),
		Transactions: []business.Transaction{
			directSale("CA", date(2021, time.June, 1), 60000000),
			directSale("CA", date(2022, time.June, 1), 1000000),
			marketplaceSale("CA", date(2023, time.June, 1), 2500000),
			directSale("TX", date(2022, time.March, 9), 55000000),
			directSale("TX", date(2022, time.March, 9), 1500000), // same-day pair
			directSale("FL", date(2023, time.August, 21), 4000000),
			marketplaceSale("WA", date(2021, time.November, 2), 30000000),
		},
		Rules: business.RuleSet{
			ThresholdRules: []business.ThresholdRule{
				thresholdFor("CA", 50000000),
				thresholdFor("TX", 50000000),
				thresholdFor("FL", 10000000),
				thresholdFor("WA", 10000000),
			},
			TaxRates: []business.TaxRate{
				rateFor("CA", 0.0725),
				rateFor("TX", 0.0625),
				rateFor("FL", 0.06),
				rateFor("WA", 0.065),
			},
			InterestRules: []business.InterestPenaltyRule{{
				JurisdictionCode:   "CA",
				AnnualInterestRate: 0.07,
				InterestMethod:     business.InterestCompoundMonthly,
				LatePenaltyRate:    0.05,
				EffectiveFrom:      date(2019, time.January, 1),
			}},
		},
	}

	first, err := engine.Run(context.Background(), input)
	require.NoError(t, err)
	second, err := engine.Run(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, first.Results, second.Results)
	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, first.Diagnostics, second.Diagnostics)
	assert.Equal(t, first.Failures, second.Failures)

	// Output order is jurisdiction code then year regardless of worker
	// scheduling.
	var order []string
	lastYear := map[string]int{}
	for _, result := range first.Results {
		if len(order) == 0 || order[len(order)-1] != result.JurisdictionCode {
			order = append(order, result.JurisdictionCode)
		} else {
			assert.Greater(t, result.Year, lastYear[result.JurisdictionCode])
		}
		lastYear[result.JurisdictionCode] = result.Year
	}
	assert.Equal(t, []string{"CA", "FL", "TX", "WA"}, order)
}

func TestNexusEngine_StickyStatusNeverReverts(t *testing.T) {
	engine := services.NewNexusEngine()

	input := services.EngineInput{
		AnalysisID:  uuid.New(),
		PeriodStart: date(2020, time.January, 1),
		PeriodEnd:   date(2023, time.December, 31),
		Transactions: []business.Transaction{
			directSale("CA", date(2020, time.July, 4), 15000000), // crosses in 2020
			directSale("CA", date(2021, time.July, 4), 100000),
			// no 2022 sales at all
			directSale("CA", date(2023, time.July, 4), 50000),
		},
		Rules: business.RuleSet{
			ThresholdRules: []business.ThresholdRule{thresholdFor("CA", 10000000)},
			TaxRates:       []business.TaxRate{rateFor("CA", 0.0725)},
		},
		BaseTaxOnly: true,
	}

	out, err := engine.Run(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, out.Results, 4)

	sawNexus := false
	for _, result := range out.Results {
		if result.NexusStatus == business.NexusStatusHasNexus {
			sawNexus = true
		} else {
			require.False(t, sawNexus, "status reverted after nexus was established in year %d", result.Year)
		}
	}
	assert.True(t, sawNexus)

	last := resultFor(t, out.Results, "CA", 2023)
	assert.True(t, last.NexusIsSticky)
	require.NotNil(t, last.NexusFirstEstablishedYear)
	assert.Equal(t, 2020, *last.NexusFirstEstablishedYear)
}

func TestNexusEngine_InvalidPeriod(t *testing.T) {
	engine := services.NewNexusEngine()

	_, err := engine.Run(context.Background(), services.EngineInput{
		AnalysisID:  uuid.New(),
		PeriodStart: date(2023, time.January, 1),
		PeriodEnd:   date(2022, time.December, 31),
	})
	assert.Error(t, err)
}
