package services

import (
	"fmt"
	"time"

	"github.com/nexfield/nexfield-api/libs/go/types/business"
)

// RuleResolver answers "which rule version governs this jurisdiction on this
// date". Rule catalogs are effective-dated; at most one version of each rule
// type should cover any date. When versions overlap anyway, the latest
// effective_from wins so resolution stays deterministic. The resolver never
// substitutes defaults; missing coverage is the caller's policy decision.
type RuleResolver struct {
}

// NewRuleResolver creates a new rule resolver
func NewRuleResolver() *RuleResolver {
	return &RuleResolver{}
}

// ResolveThresholdRule returns the threshold rule effective for the
// jurisdiction at asOf, or ErrRuleNotFound.
func (r *RuleResolver) ResolveThresholdRule(rules []business.ThresholdRule, code string, asOf time.Time) (*business.ThresholdRule, error) {
	var match *business.ThresholdRule
	for i := range rules {
		rule := &rules[i]
		if rule.JurisdictionCode != code {
			continue
		}
		if !covers(rule.EffectiveFrom, rule.EffectiveTo, asOf) {
			continue
		}
		if match == nil || rule.EffectiveFrom.After(match.EffectiveFrom) {
			match = rule
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: threshold rule for %s as of %s", ErrRuleNotFound, code, asOf.Format("2006-01-02"))
	}
	return match, nil
}

// ResolveTaxRate returns the tax rate effective for the jurisdiction at
// asOf, or ErrRuleNotFound.
func (r *RuleResolver) ResolveTaxRate(rates []business.TaxRate, code string, asOf time.Time) (*business.TaxRate, error) {
	var match *business.TaxRate
	for i := range rates {
		rate := &rates[i]
		if rate.JurisdictionCode != code {
			continue
		}
		if !covers(rate.EffectiveFrom, rate.EffectiveTo, asOf) {
			continue
		}
		if match == nil || rate.EffectiveFrom.After(match.EffectiveFrom) {
			match = rate
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: tax rate for %s as of %s", ErrRuleNotFound, code, asOf.Format("2006-01-02"))
	}
	return match, nil
}

// ResolveMarketplaceRule returns the marketplace facilitator rule effective
// for the jurisdiction at asOf, or ErrRuleNotFound.
func (r *RuleResolver) ResolveMarketplaceRule(rules []business.MarketplaceFacilitatorRule, code string, asOf time.Time) (*business.MarketplaceFacilitatorRule, error) {
	var match *business.MarketplaceFacilitatorRule
	for i := range rules {
		rule := &rules[i]
		if rule.JurisdictionCode != code {
			continue
		}
		if !covers(rule.EffectiveFrom, rule.EffectiveTo, asOf) {
			continue
		}
		if match == nil || rule.EffectiveFrom.After(match.EffectiveFrom) {
			match = rule
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: marketplace facilitator rule for %s as of %s", ErrRuleNotFound, code, asOf.Format("2006-01-02"))
	}
	return match, nil
}

// ResolveInterestRule returns the interest/penalty rule effective for the
// jurisdiction at asOf, or ErrRuleNotFound.
func (r *RuleResolver) ResolveInterestRule(rules []business.InterestPenaltyRule, code string, asOf time.Time) (*business.InterestPenaltyRule, error) {
	var match *business.InterestPenaltyRule
	for i := range rules {
		rule := &rules[i]
		if rule.JurisdictionCode != code {
			continue
		}
		if !covers(rule.EffectiveFrom, rule.EffectiveTo, asOf) {
			continue
		}
		if match == nil || rule.EffectiveFrom.After(match.EffectiveFrom) {
			match = rule
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: interest/penalty rule for %s as of %s", ErrRuleNotFound, code, asOf.Format("2006-01-02"))
	}
	return match, nil
}

// covers reports whether [from, to] contains asOf; a nil to means the rule
// is open-ended.
func covers(from time.Time, to *time.Time, asOf time.Time) bool {
	if asOf.Before(from) {
		return false
	}
	if to != nil && asOf.After(*to) {
		return false
	}
	return true
}
