// Package aggregate merges normalized, classified records into a unified
// snapshot with totals, breakdowns and spending trend buckets.
package aggregate

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/unifin/unifin/internal/engine/record"
)

// Aggregate builds a snapshot from a batch. Empty input is a valid state
// and yields a zero-valued snapshot. Records with invalid values are
// excluded and reported in the returned error list.
func Aggregate(batch record.Batch, opts Options) (*Snapshot, []InputError) {
	asOf := opts.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	granularity := opts.Granularity
	if granularity == "" {
		granularity = Monthly
	}

	snap := &Snapshot{
		AsOf:          asOf,
		TotalNetWorth: decimal.Zero,
		BySource:      make(map[record.Source]decimal.Decimal),
		ByCategory:    make(map[record.AssetCategory]decimal.Decimal),
		Spending: SpendingSummary{
			BySubcategory: make(map[string]decimal.Decimal),
		},
		Trend: []TrendBucket{},
	}

	var invalid []InputError

	for _, a := range batch.Assets {
		if err := validateAsset(a); err != nil {
			invalid = append(invalid, InputError{Kind: "asset", Reason: err.Error(), Ref: a.Symbol})
			continue
		}
		// Value is always derived, never taken from the provider
		value := a.Quantity.Mul(a.UnitPrice)
		snap.TotalNetWorth = snap.TotalNetWorth.Add(value)
		snap.BySource[a.Source] = snap.BySource[a.Source].Add(value)
		snap.ByCategory[a.Category] = snap.ByCategory[a.Category].Add(value)
	}

	for _, p := range batch.Positions {
		if err := validatePosition(p); err != nil {
			invalid = append(invalid, InputError{Kind: "position", Reason: err.Error(), Ref: p.Symbol})
			continue
		}
		snap.TotalNetWorth = snap.TotalNetWorth.Add(p.MarketValue)
		snap.BySource[p.Broker] = snap.BySource[p.Broker].Add(p.MarketValue)
		snap.ByCategory[record.AssetEquity] = snap.ByCategory[record.AssetEquity].Add(p.MarketValue)
	}

	buckets := make(map[time.Time]*TrendBucket)

	for _, tx := range batch.Transactions {
		if tx.Category == "" {
			invalid = append(invalid, InputError{Kind: "transaction", Reason: "not classified", Ref: tx.ID})
			continue
		}

		if !tx.IsDebit() {
			snap.Spending.IncomeTotal = snap.Spending.IncomeTotal.Add(tx.Amount)
			continue
		}

		spend := tx.Amount.Abs()
		switch tx.Category {
		case record.SpendEssential:
			snap.Spending.EssentialTotal = snap.Spending.EssentialTotal.Add(spend)
		case record.SpendNonEssential:
			snap.Spending.NonEssentialTotal = snap.Spending.NonEssentialTotal.Add(spend)
		default:
			// Uncategorized stands apart so the split never misrepresents spend
			snap.Spending.UncategorizedTotal = snap.Spending.UncategorizedTotal.Add(spend)
		}

		if tx.Subcategory != "" {
			snap.Spending.BySubcategory[tx.Subcategory] = snap.Spending.BySubcategory[tx.Subcategory].Add(spend)
		}

		start := bucketStart(tx.Timestamp.In(loc), granularity)
		b, ok := buckets[start]
		if !ok {
			b = &TrendBucket{Start: start, Label: bucketLabel(start, granularity)}
			buckets[start] = b
		}
		switch tx.Category {
		case record.SpendEssential:
			b.Essential = b.Essential.Add(spend)
		case record.SpendNonEssential:
			b.NonEssential = b.NonEssential.Add(spend)
		default:
			b.Uncategorized = b.Uncategorized.Add(spend)
		}
		b.Total = b.Total.Add(spend)
	}

	snap.Trend = sortBuckets(buckets)

	return snap, invalid
}

func validateAsset(a record.Asset) error {
	// Negative balances are legitimate only for cash accounts (overdraft,
	// margin). A negative token or share quantity is provider garbage.
	if a.Quantity.IsNegative() && a.Category != record.AssetCash {
		return fmt.Errorf("negative quantity %s for %s asset", a.Quantity, a.Category)
	}
	if a.Symbol == "" {
		return fmt.Errorf("missing symbol")
	}
	return nil
}

func validatePosition(p record.Position) error {
	if p.Quantity.IsNegative() {
		return fmt.Errorf("negative quantity %s", p.Quantity)
	}
	if p.Symbol == "" {
		return fmt.Errorf("missing symbol")
	}
	return nil
}

// bucketStart truncates a timestamp to the start of its calendar period
// in the timestamp's location
func bucketStart(t time.Time, g Granularity) time.Time {
	year, month, day := t.Date()
	switch g {
	case Daily:
		return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
	case Weekly:
		// ISO weeks start on Monday
		midnight := time.Date(year, month, day, 0, 0, 0, 0, t.Location())
		offset := (int(midnight.Weekday()) + 6) % 7
		return midnight.AddDate(0, 0, -offset)
	default:
		return time.Date(year, month, 1, 0, 0, 0, 0, t.Location())
	}
}

func bucketLabel(start time.Time, g Granularity) string {
	switch g {
	case Daily:
		return start.Format("2006-01-02")
	case Weekly:
		year, week := start.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	default:
		return start.Format("2006-01")
	}
}

func sortBuckets(buckets map[time.Time]*TrendBucket) []TrendBucket {
	out := make([]TrendBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out
}
