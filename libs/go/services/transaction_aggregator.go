package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/nexfield/nexfield-api/libs/go/helpers"
	"github.com/nexfield/nexfield-api/libs/go/types/business"
)

// TransactionAggregator turns a flat transaction list into per-jurisdiction
// chronological streams and per-(jurisdiction, year) totals. It is a pure
// transform: malformed records are excluded and reported, never silently
// dropped or coerced.
type TransactionAggregator struct {
}

// NewTransactionAggregator creates a new transaction aggregator
func NewTransactionAggregator() *TransactionAggregator {
	return &TransactionAggregator{}
}

// YearTotals holds one jurisdiction-year's sales sums. Direct and
// marketplace always add up to the total.
type YearTotals struct {
	TotalCents       int64 `json:"total_cents"`
	DirectCents      int64 `json:"direct_cents"`
	MarketplaceCents int64 `json:"marketplace_cents"`
	Count            int   `json:"count"`
	DirectCount      int   `json:"direct_count"`
}

// WindowTotals holds sums over an arbitrary date window of a stream, split
// so threshold walks can count direct-only when a jurisdiction excludes
// marketplace sales.
type WindowTotals struct {
	RevenueCents       int64
	Count              int
	DirectRevenueCents int64
	DirectCount        int
}

// JurisdictionStream is one jurisdiction's chronologically ordered
// transactions with prefix sums for O(log n) window queries. Ordering is
// stable: by date, then by input order, so replays are deterministic when
// timestamps tie.
type JurisdictionStream struct {
	Code         string
	Transactions []business.Transaction
	Years        map[int]YearTotals

	cumRevenue       []int64
	cumDirectRevenue []int64
	cumCount         []int
	cumDirectCount   []int
}

// TotalsBetween sums the stream over the inclusive date window [start, end].
func (s *JurisdictionStream) TotalsBetween(start, end time.Time) WindowTotals {
	if end.Before(start) || len(s.Transactions) == 0 {
		return WindowTotals{}
	}
	lo := sort.Search(len(s.Transactions), func(i int) bool {
		return !s.Transactions[i].Date.Before(start)
	})
	hi := sort.Search(len(s.Transactions), func(i int) bool {
		return s.Transactions[i].Date.After(end)
	})
	if lo >= hi {
		return WindowTotals{}
	}
	return WindowTotals{
		RevenueCents:       s.cumRevenue[hi] - s.cumRevenue[lo],
		Count:              s.cumCount[hi] - s.cumCount[lo],
		DirectRevenueCents: s.cumDirectRevenue[hi] - s.cumDirectRevenue[lo],
		DirectCount:        s.cumDirectCount[hi] - s.cumDirectCount[lo],
	}
}

// TransactionsBetween returns the stream slice covering the inclusive date
// window [start, end], preserving order.
func (s *JurisdictionStream) TransactionsBetween(start, end time.Time) []business.Transaction {
	if end.Before(start) || len(s.Transactions) == 0 {
		return nil
	}
	lo := sort.Search(len(s.Transactions), func(i int) bool {
		return !s.Transactions[i].Date.Before(start)
	})
	hi := sort.Search(len(s.Transactions), func(i int) bool {
		return s.Transactions[i].Date.After(end)
	})
	if lo >= hi {
		return nil
	}
	return s.Transactions[lo:hi]
}

// AggregationResult is the aggregator's output: streams keyed by
// jurisdiction code, the sorted code list for deterministic iteration, and
// the diagnostics for every excluded record.
type AggregationResult struct {
	Streams           map[string]*JurisdictionStream
	JurisdictionCodes []string
	Diagnostics       []business.Diagnostic
}

// Aggregate validates, normalizes and groups transactions. Every valid
// transaction joins its jurisdiction's stream regardless of the analysis
// period, because lookback windows may reach before the period start; year
// totals are only accumulated for years inside [periodStart, periodEnd].
func (a *TransactionAggregator) Aggregate(
	transactions []business.Transaction,
	periodStart, periodEnd time.Time,
) *AggregationResult {
	result := &AggregationResult{
		Streams: make(map[string]*JurisdictionStream),
	}

	periodStart = helpers.DateOnly(periodStart)
	periodEnd = helpers.DateOnly(periodEnd)

	for _, txn := range transactions {
		if diag, ok := validateTransaction(txn); !ok {
			result.Diagnostics = append(result.Diagnostics, diag)
			continue
		}

		code := helpers.NormalizeJurisdictionCode(txn.JurisdictionCode)
		stream, exists := result.Streams[code]
		if !exists {
			stream = &JurisdictionStream{
				Code:  code,
				Years: make(map[int]YearTotals),
			}
			result.Streams[code] = stream
		}

		txn.JurisdictionCode = code
		txn.Date = helpers.DateOnly(txn.Date)
		stream.Transactions = append(stream.Transactions, txn)
	}

	for code, stream := range result.Streams {
		result.JurisdictionCodes = append(result.JurisdictionCodes, code)

		// Stable keeps input order for same-date transactions.
		sort.SliceStable(stream.Transactions, func(i, j int) bool {
			return stream.Transactions[i].Date.Before(stream.Transactions[j].Date)
		})

		stream.buildPrefixSums()
		stream.bucketYears(periodStart, periodEnd)
	}
	sort.Strings(result.JurisdictionCodes)

	return result
}

func validateTransaction(txn business.Transaction) (business.Diagnostic, bool) {
	switch {
	case helpers.NormalizeJurisdictionCode(txn.JurisdictionCode) == "":
		return business.Diagnostic{
			Kind:      business.DiagnosticMalformedTransaction,
			SourceRef: txn.SourceRef,
			Message:   "transaction excluded: missing jurisdiction code",
		}, false
	case txn.AmountCents < 0:
		return business.Diagnostic{
			Kind:             business.DiagnosticMalformedTransaction,
			JurisdictionCode: helpers.NormalizeJurisdictionCode(txn.JurisdictionCode),
			SourceRef:        txn.SourceRef,
			Message:          fmt.Sprintf("transaction excluded: negative amount %d cents", txn.AmountCents),
		}, false
	case txn.Date.IsZero():
		return business.Diagnostic{
			Kind:             business.DiagnosticMalformedTransaction,
			JurisdictionCode: helpers.NormalizeJurisdictionCode(txn.JurisdictionCode),
			SourceRef:        txn.SourceRef,
			Message:          "transaction excluded: missing or unparseable date",
		}, false
	case txn.Channel != business.ChannelDirect && txn.Channel != business.ChannelMarketplace:
		return business.Diagnostic{
			Kind:             business.DiagnosticMalformedTransaction,
			JurisdictionCode: helpers.NormalizeJurisdictionCode(txn.JurisdictionCode),
			SourceRef:        txn.SourceRef,
			Message:          fmt.Sprintf("transaction excluded: unknown channel %q", txn.Channel),
		}, false
	}
	return business.Diagnostic{}, true
}

func (s *JurisdictionStream) buildPrefixSums() {
	n := len(s.Transactions)
	s.cumRevenue = make([]int64, n+1)
	s.cumDirectRevenue = make([]int64, n+1)
	s.cumCount = make([]int, n+1)
	s.cumDirectCount = make([]int, n+1)

	for i, txn := range s.Transactions {
		s.cumRevenue[i+1] = s.cumRevenue[i] + txn.AmountCents
		s.cumCount[i+1] = s.cumCount[i] + 1
		s.cumDirectRevenue[i+1] = s.cumDirectRevenue[i]
		s.cumDirectCount[i+1] = s.cumDirectCount[i]
		if !txn.IsMarketplace() {
			s.cumDirectRevenue[i+1] += txn.AmountCents
			s.cumDirectCount[i+1]++
		}
	}
}

func (s *JurisdictionStream) bucketYears(periodStart, periodEnd time.Time) {
	for _, txn := range s.Transactions {
		if txn.Date.Before(periodStart) || txn.Date.After(periodEnd) {
			continue
		}
		year := txn.Date.Year()
		totals := s.Years[year]
		totals.TotalCents += txn.AmountCents
		totals.Count++
		if txn.IsMarketplace() {
			totals.MarketplaceCents += txn.AmountCents
		} else {
			totals.DirectCents += txn.AmountCents
			totals.DirectCount++
		}
		s.Years[year] = totals
	}
}
