package helpers_test

import (
	"testing"
	"time"

	"github.com/nexfield/nexfield-api/libs/go/helpers"
	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFirstOfMonthAfter(t *testing.T) {
	tests := []struct {
		name     string
		in       time.Time
		expected time.Time
	}{
		{name: "mid month", in: date(2022, time.September, 14), expected: date(2022, time.October, 1)},
		{name: "first of month", in: date(2022, time.March, 1), expected: date(2022, time.April, 1)},
		{name: "last of month", in: date(2022, time.June, 30), expected: date(2022, time.July, 1)},
		{name: "december rolls into next year", in: date(2022, time.December, 5), expected: date(2023, time.January, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, helpers.FirstOfMonthAfter(tt.in))
		})
	}
}

func TestAddMonthsClamped(t *testing.T) {
	tests := []struct {
		name     string
		in       time.Time
		months   int
		expected time.Time
	}{
		{name: "plain shift back", in: date(2022, time.September, 14), months: -12, expected: date(2021, time.September, 14)},
		{name: "clamps to short month", in: date(2022, time.March, 31), months: -1, expected: date(2022, time.February, 28)},
		{name: "clamps to leap february", in: date(2024, time.March, 31), months: -1, expected: date(2024, time.February, 29)},
		{name: "forward across year boundary", in: date(2022, time.November, 30), months: 3, expected: date(2023, time.February, 28)},
		{name: "zero months", in: date(2022, time.July, 4), months: 0, expected: date(2022, time.July, 4)},
		{name: "more than a year back", in: date(2022, time.January, 31), months: -13, expected: date(2020, time.December, 31)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, helpers.AddMonthsClamped(tt.in, tt.months))
		})
	}
}

func TestWholeMonthsBetween(t *testing.T) {
	tests := []struct {
		name     string
		start    time.Time
		end      time.Time
		expected int
	}{
		{name: "exact year", start: date(2021, time.October, 1), end: date(2022, time.October, 1), expected: 12},
		{name: "partial month rounds down", start: date(2021, time.October, 1), end: date(2022, time.October, 15), expected: 12},
		{name: "day short of a month", start: date(2022, time.January, 15), end: date(2022, time.February, 14), expected: 0},
		{name: "end before start", start: date(2022, time.June, 1), end: date(2022, time.May, 1), expected: 0},
		{name: "several years", start: date(2019, time.January, 1), end: date(2022, time.July, 1), expected: 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, helpers.WholeMonthsBetween(tt.start, tt.end))
		})
	}
}

func TestYearsBetween(t *testing.T) {
	start := date(2021, time.October, 1)

	assert.InDelta(t, 1.0, helpers.YearsBetween(start, date(2022, time.October, 1)), 0.005)
	assert.InDelta(t, 2.5, helpers.YearsBetween(start, date(2024, time.April, 1)), 0.01)
	assert.Zero(t, helpers.YearsBetween(start, date(2020, time.January, 1)))
}

func TestQuarterStart(t *testing.T) {
	assert.Equal(t, date(2022, time.January, 1), helpers.QuarterStart(date(2022, time.February, 20)))
	assert.Equal(t, date(2022, time.April, 1), helpers.QuarterStart(date(2022, time.June, 30)))
	assert.Equal(t, date(2022, time.July, 1), helpers.QuarterStart(date(2022, time.July, 1)))
	assert.Equal(t, date(2022, time.October, 1), helpers.QuarterStart(date(2022, time.December, 31)))
}
