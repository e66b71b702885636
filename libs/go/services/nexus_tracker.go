package services

import (
	"sort"
	"time"

	"github.com/nexfield/nexfield-api/libs/go/helpers"
	"github.com/nexfield/nexfield-api/libs/go/types/business"
)

// NexusTracker walks one jurisdiction's years in increasing order and
// carries the single piece of cross-year state: the year nexus was first
// established. Once established, nexus sticks; later years report
// has_nexus with a full-year obligation regardless of their own sales.
type NexusTracker struct {
	evaluator *ThresholdEvaluator
}

// NewNexusTracker creates a new nexus tracker
func NewNexusTracker(evaluator *ThresholdEvaluator) *NexusTracker {
	return &NexusTracker{evaluator: evaluator}
}

// YearRuleBinding is the resolved rule context for one year of the walk.
type YearRuleBinding struct {
	Year             int
	Threshold        business.ThresholdRule
	CountMarketplace bool
}

// YearDetermination is one year's nexus decision, before liability math.
type YearDetermination struct {
	Year                 int
	Status               business.NexusStatus
	Type                 business.NexusType
	FirstEstablishedYear *int
	Sticky               bool
	CrossingDate         *time.Time
	ObligationStart      *time.Time
	UsedFallback         bool
}

// TrackJurisdiction produces a determination per binding year, ascending.
// Physical presence records are external inputs: presence in a year
// establishes nexus without a threshold test, and both sources can apply at
// once. Obligation starts the first day of the month after an economic
// crossing (clamped to Jan 1 for crossings inherited from a prior-year
// window), at presence start for physical nexus, and on Jan 1 for sticky
// years.
func (t *NexusTracker) TrackJurisdiction(
	stream *JurisdictionStream,
	bindings []YearRuleBinding,
	presence []business.PhysicalPresenceRecord,
) []YearDetermination {
	sort.Slice(bindings, func(i, j int) bool { return bindings[i].Year < bindings[j].Year })

	var firstEstablished *int
	establishedType := business.NexusTypeNone

	determinations := make([]YearDetermination, 0, len(bindings))
	for _, binding := range bindings {
		year := binding.Year
		physicalActive, physicalStart := physicalObligationStart(presence, year)

		if firstEstablished != nil && *firstEstablished < year {
			obligation := helpers.StartOfYear(year)
			determinations = append(determinations, YearDetermination{
				Year:                 year,
				Status:               business.NexusStatusHasNexus,
				Type:                 mergeNexusType(establishedType, physicalActive),
				FirstEstablishedYear: firstEstablished,
				Sticky:               true,
				ObligationStart:      &obligation,
			})
			continue
		}

		eval := t.evaluator.EvaluateYear(stream, year, binding.Threshold, binding.CountMarketplace)
		crossed := eval.Status == business.NexusStatusHasNexus

		if !crossed && !physicalActive {
			determinations = append(determinations, YearDetermination{
				Year:         year,
				Status:       eval.Status,
				Type:         business.NexusTypeNone,
				UsedFallback: eval.UsedFallback,
			})
			continue
		}

		established := year
		firstEstablished = &established
		switch {
		case crossed && physicalActive:
			establishedType = business.NexusTypeBoth
		case crossed:
			establishedType = business.NexusTypeEconomic
		default:
			establishedType = business.NexusTypePhysical
		}

		obligation := establishmentObligation(year, crossed, eval.CrossingDate, physicalActive, physicalStart)
		determinations = append(determinations, YearDetermination{
			Year:                 year,
			Status:               business.NexusStatusHasNexus,
			Type:                 establishedType,
			FirstEstablishedYear: firstEstablished,
			Sticky:               false,
			CrossingDate:         eval.CrossingDate,
			ObligationStart:      &obligation,
			UsedFallback:         eval.UsedFallback,
		})
	}

	return determinations
}

// establishmentObligation picks the earliest obligation start among the
// sources that established nexus this year.
func establishmentObligation(
	year int,
	crossed bool,
	crossingDate *time.Time,
	physicalActive bool,
	physicalStart time.Time,
) time.Time {
	yearStart := helpers.StartOfYear(year)

	var obligation time.Time
	haveObligation := false

	if crossed && crossingDate != nil {
		economic := helpers.FirstOfMonthAfter(*crossingDate)
		if economic.Before(yearStart) {
			// Crossing detected inside a prior-year lookback window;
			// the obligation covers this year from its start.
			economic = yearStart
		}
		obligation = economic
		haveObligation = true
	}

	if physicalActive {
		if !haveObligation || physicalStart.Before(obligation) {
			obligation = physicalStart
		}
		haveObligation = true
	}

	if !haveObligation {
		obligation = yearStart
	}
	return obligation
}

// physicalObligationStart reports whether any presence record overlaps the
// year and the earliest in-year date presence was active.
func physicalObligationStart(presence []business.PhysicalPresenceRecord, year int) (bool, time.Time) {
	yearStart := helpers.StartOfYear(year)

	active := false
	var earliest time.Time
	for _, record := range presence {
		if !record.ActiveInYear(year) {
			continue
		}
		start := helpers.DateOnly(record.StartDate)
		if start.Before(yearStart) {
			start = yearStart
		}
		if !active || start.Before(earliest) {
			earliest = start
		}
		active = true
	}
	return active, earliest
}

// mergeNexusType folds this year's physical presence into the type carried
// from the establishment year.
func mergeNexusType(established business.NexusType, physicalActive bool) business.NexusType {
	if !physicalActive {
		return established
	}
	switch established {
	case business.NexusTypePhysical, business.NexusTypeBoth:
		return established
	case business.NexusTypeEconomic:
		return business.NexusTypeBoth
	default:
		return business.NexusTypePhysical
	}
}
