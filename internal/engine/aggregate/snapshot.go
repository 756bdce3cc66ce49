package aggregate

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/unifin/unifin/internal/engine/record"
)

// Granularity selects the calendar period for spending trend buckets
type Granularity string

const (
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
)

// ParseGranularity validates a caller-supplied granularity string.
// An empty string defaults to monthly.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case Daily, Weekly, Monthly:
		return Granularity(s), nil
	case "":
		return Monthly, nil
	}
	return "", fmt.Errorf("invalid granularity %q (want daily, weekly or monthly)", s)
}

// Options configures one aggregation call
type Options struct {
	Granularity Granularity
	Location    *time.Location // account-local timezone for bucketing; nil = UTC
	AsOf        time.Time      // zero value = now
}

// SpendingSummary breaks spending down by assigned category. Uncategorized
// spend is reported on its own line, never folded into either split.
type SpendingSummary struct {
	EssentialTotal     decimal.Decimal            `json:"essential_total"`
	NonEssentialTotal  decimal.Decimal            `json:"non_essential_total"`
	UncategorizedTotal decimal.Decimal            `json:"uncategorized_total"`
	IncomeTotal        decimal.Decimal            `json:"income_total"`
	BySubcategory      map[string]decimal.Decimal `json:"by_subcategory"`
}

// TrendBucket is spending totals for one calendar period
type TrendBucket struct {
	Start         time.Time       `json:"start"`
	Label         string          `json:"label"`
	Essential     decimal.Decimal `json:"essential"`
	NonEssential  decimal.Decimal `json:"non_essential"`
	Uncategorized decimal.Decimal `json:"uncategorized"`
	Total         decimal.Decimal `json:"total"`
}

// Snapshot is the unified point-in-time view across all sources. It is
// derived data, rebuilt from raw records on every call, and never the
// source of truth.
type Snapshot struct {
	AsOf          time.Time                                `json:"as_of"`
	TotalNetWorth decimal.Decimal                          `json:"total_net_worth"`
	BySource      map[record.Source]decimal.Decimal        `json:"breakdown_by_source"`
	ByCategory    map[record.AssetCategory]decimal.Decimal `json:"breakdown_by_category"`
	Spending      SpendingSummary                          `json:"spending_summary"`
	Trend         []TrendBucket                            `json:"trend"`
}

// InputError reports a record excluded from aggregation because its values
// were invalid. Excluded records are surfaced, never silently zeroed.
type InputError struct {
	Kind   string `json:"kind"` // "asset", "transaction", "position"
	Reason string `json:"reason"`
	Ref    string `json:"ref,omitempty"` // symbol or transaction id
}

// Error implements the error interface
func (e InputError) Error() string {
	return fmt.Sprintf("aggregate: invalid %s %s: %s", e.Kind, e.Ref, e.Reason)
}
