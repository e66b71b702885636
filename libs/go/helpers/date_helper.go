package helpers

import "time"

// DateOnly normalizes a timestamp to midnight UTC. All engine date math is
// date-granular; transactions, rule effective ranges and obligation dates are
// stored normalized.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// StartOfYear returns January 1 of the given year, UTC.
func StartOfYear(year int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
}

// EndOfYear returns December 31 of the given year, UTC.
func EndOfYear(year int) time.Time {
	return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
}

// FirstOfMonthAfter returns the first day of the month following t. A
// December date rolls into January of the next year.
func FirstOfMonthAfter(t time.Time) time.Time {
	year, month := t.Year(), t.Month()
	if month == time.December {
		return time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
}

// QuarterStart returns the first day of the calendar quarter containing t.
func QuarterStart(t time.Time) time.Time {
	quarterMonth := time.Month(((int(t.Month())-1)/3)*3 + 1)
	return time.Date(t.Year(), quarterMonth, 1, 0, 0, 0, 0, time.UTC)
}

// AddMonthsClamped shifts t by the given number of months, clamping the day
// to the target month's last day instead of letting it spill over
// (Jan 31 - 1 month is Dec 31; Mar 31 - 1 month is Feb 28/29). time.AddDate
// normalizes overflow into the next month, which is wrong for lookback
// window arithmetic.
func AddMonthsClamped(t time.Time, months int) time.Time {
	year := t.Year()
	month := int(t.Month()) + months
	for month < 1 {
		month += 12
		year--
	}
	for month > 12 {
		month -= 12
		year++
	}
	day := t.Day()
	if last := daysInMonth(year, time.Month(month)); day > last {
		day = last
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func daysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// WholeMonthsBetween returns the number of complete months elapsed from
// start to end, zero when end precedes start.
func WholeMonthsBetween(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if end.Day() < start.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// YearsBetween returns fractional years elapsed from start to end, zero when
// end precedes start. Uses the mean year length so leap years do not skew
// multi-year accruals.
func YearsBetween(start, end time.Time) float64 {
	if end.Before(start) {
		return 0
	}
	return end.Sub(start).Hours() / 24 / 365.25
}
