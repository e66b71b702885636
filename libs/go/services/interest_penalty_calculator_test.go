package services_test

import (
	"testing"
	"time"

	"github.com/nexfield/nexfield-api/libs/go/services"
	"github.com/nexfield/nexfield-api/libs/go/types/business"
	"github.com/stretchr/testify/assert"
)

func TestInterestPenaltyCalculator_InterestMethods(t *testing.T) {
	calculator := services.NewInterestPenaltyCalculator()

	tests := []struct {
		name            string
		rule            business.InterestPenaltyRule
		baseTaxCents    int64
		obligationStart time.Time
		evaluationDate  time.Time
		wantInterest    int64
	}{
		{
			name: "simple interest over fractional years",
			rule: business.InterestPenaltyRule{
				AnnualInterestRate: 0.06,
				InterestMethod:     business.InterestSimple,
			},
			baseTaxCents:    1000000, // $10,000
			obligationStart: date(2022, time.January, 1),
			evaluationDate:  date(2024, time.January, 1),
			wantInterest:    119918, // 730 days at 6% per annum
		},
		{
			name: "compound annual uses whole elapsed years",
			rule: business.InterestPenaltyRule{
				AnnualInterestRate: 0.06,
				InterestMethod:     business.InterestCompoundAnnual,
			},
			baseTaxCents:    1000000,
			obligationStart: date(2022, time.January, 1),
			evaluationDate:  date(2024, time.July, 15), // 30 whole months -> 2 whole years
			wantInterest:    123600,                    // (1.06^2 - 1) * $10,000
		},
		{
			name: "compound monthly uses whole elapsed months",
			rule: business.InterestPenaltyRule{
				AnnualInterestRate: 0.12,
				InterestMethod:     business.InterestCompoundMonthly,
			},
			baseTaxCents:    1000000,
			obligationStart: date(2022, time.January, 1),
			evaluationDate:  date(2022, time.July, 1), // 6 whole months
			wantInterest:    61520,                    // (1.01^6 - 1) * $10,000
		},
		{
			name: "evaluation before obligation accrues nothing",
			rule: business.InterestPenaltyRule{
				AnnualInterestRate: 0.06,
				InterestMethod:     business.InterestSimple,
			},
			baseTaxCents:    1000000,
			obligationStart: date(2023, time.June, 1),
			evaluationDate:  date(2023, time.January, 1),
			wantInterest:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := calculator.Calculate(services.InterestPenaltyInput{
				BaseTaxCents:    tt.baseTaxCents,
				ObligationStart: tt.obligationStart,
				EvaluationDate:  tt.evaluationDate,
				Rule:            &tt.rule,
			})
			assert.Equal(t, tt.wantInterest, result.InterestCents)
		})
	}
}

func TestInterestPenaltyCalculator_PenaltyClamping(t *testing.T) {
	calculator := services.NewInterestPenaltyCalculator()
	obligation := date(2022, time.January, 1)
	evaluation := date(2023, time.January, 1)

	tests := []struct {
		name         string
		rule         business.InterestPenaltyRule
		baseTaxCents int64
		wantPenalty  int64
	}{
		{
			name: "unclamped penalty is a straight rate",
			rule: business.InterestPenaltyRule{
				InterestMethod:  business.InterestSimple,
				LatePenaltyRate: 0.10,
			},
			baseTaxCents: 1000000,
			wantPenalty:  100000,
		},
		{
			name: "floor raises a small penalty",
			rule: business.InterestPenaltyRule{
				InterestMethod:  business.InterestSimple,
				LatePenaltyRate: 0.05,
				PenaltyMinCents: int64Ptr(200000), // $2,000 floor
			},
			baseTaxCents: 100000, // 5% would be $50
			wantPenalty:  200000,
		},
		{
			name: "cap limits a large penalty",
			rule: business.InterestPenaltyRule{
				InterestMethod:  business.InterestSimple,
				LatePenaltyRate: 0.25,
				PenaltyMaxCents: int64Ptr(1000000), // $10,000 cap
			},
			baseTaxCents: 10000000, // 25% would be $25,000
			wantPenalty:  1000000,
		},
		{
			name: "zero base tax ignores the floor",
			rule: business.InterestPenaltyRule{
				InterestMethod:  business.InterestSimple,
				LatePenaltyRate: 0.05,
				PenaltyMinCents: int64Ptr(200000),
			},
			baseTaxCents: 0,
			wantPenalty:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := calculator.Calculate(services.InterestPenaltyInput{
				BaseTaxCents:    tt.baseTaxCents,
				ObligationStart: obligation,
				EvaluationDate:  evaluation,
				Rule:            &tt.rule,
			})
			assert.Equal(t, tt.wantPenalty, result.PenaltyCents)
		})
	}
}

func TestInterestPenaltyCalculator_VDAWaivers(t *testing.T) {
	calculator := services.NewInterestPenaltyCalculator()

	rule := business.InterestPenaltyRule{
		AnnualInterestRate: 0.06,
		InterestMethod:     business.InterestSimple,
		LatePenaltyRate:    0.10,
		VDAInterestWaived:  true,
		VDAPenaltiesWaived: false,
	}
	input := services.InterestPenaltyInput{
		BaseTaxCents:    1000000,
		ObligationStart: date(2022, time.January, 1),
		EvaluationDate:  date(2023, time.January, 1),
		Rule:            &rule,
	}

	t.Run("waivers apply only in VDA mode", func(t *testing.T) {
		normal := calculator.Calculate(input)
		assert.Positive(t, normal.InterestCents)
		assert.Positive(t, normal.PenaltyCents)
	})

	t.Run("VDA mode zeroes what the rule waives", func(t *testing.T) {
		input.VDAMode = true
		waived := calculator.Calculate(input)
		assert.Zero(t, waived.InterestCents)
		assert.Equal(t, int64(100000), waived.PenaltyCents) // penalties not waived by this rule
	})
}

func TestInterestPenaltyCalculator_NoRule(t *testing.T) {
	calculator := services.NewInterestPenaltyCalculator()

	result := calculator.Calculate(services.InterestPenaltyInput{
		BaseTaxCents:    1000000,
		ObligationStart: date(2022, time.January, 1),
		EvaluationDate:  date(2024, time.January, 1),
	})

	assert.Zero(t, result.InterestCents)
	assert.Zero(t, result.PenaltyCents)
}
