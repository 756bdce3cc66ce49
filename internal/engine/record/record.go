package record

import (
	"time"

	"github.com/shopspring/decimal"
)

// Source identifies where a record came from (chain, bank aggregator, broker)
type Source string

const (
	SourceEthereum Source = "ethereum"
	SourcePolygon  Source = "polygon"
	SourcePlaid    Source = "plaid"
	SourceBroker   Source = "broker"
)

// AssetCategory classifies what kind of holding an asset is
type AssetCategory string

const (
	AssetToken        AssetCategory = "token"
	AssetCrypto       AssetCategory = "crypto"
	AssetDefiPosition AssetCategory = "defi_position"
	AssetEquity       AssetCategory = "equity"
	AssetCash         AssetCategory = "cash"
)

// SpendCategory is the spending classification assigned to a transaction
type SpendCategory string

const (
	SpendEssential     SpendCategory = "essential"
	SpendNonEssential  SpendCategory = "non_essential"
	SpendUncategorized SpendCategory = "uncategorized"
	SpendIncome        SpendCategory = "income"
)

// Asset represents a single holding (wallet balance, token, cash balance).
// Value is always derived from Quantity and UnitPrice; provider-reported
// totals are never trusted verbatim.
type Asset struct {
	Source     Source          `json:"source"`
	AccountID  string          `json:"account_id"` // wallet address or account id
	Symbol     string          `json:"symbol"`
	Name       string          `json:"name,omitempty"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Value      decimal.Decimal `json:"value"`
	Category   AssetCategory   `json:"category"`
	ObservedAt time.Time       `json:"observed_at"`
}

// NewAsset builds an asset with Value computed from quantity and price
func NewAsset(source Source, accountID, symbol string, quantity, unitPrice decimal.Decimal, category AssetCategory, observedAt time.Time) Asset {
	return Asset{
		Source:     source,
		AccountID:  accountID,
		Symbol:     symbol,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		Value:      quantity.Mul(unitPrice),
		Category:   category,
		ObservedAt: observedAt,
	}
}

// Revalue recomputes Value from Quantity and UnitPrice
func (a *Asset) Revalue() {
	a.Value = a.Quantity.Mul(a.UnitPrice)
}

// Transaction represents one banking transaction.
// Amount is signed: negative means money left the account (debit).
type Transaction struct {
	ID          string          `json:"id"` // source-qualified, e.g. "plaid:tx_abc"
	Source      Source          `json:"source"`
	AccountID   string          `json:"account_id"`
	Timestamp   time.Time       `json:"timestamp"`
	ObservedAt  time.Time       `json:"observed_at"` // when this sync pass saw the record
	Amount      decimal.Decimal `json:"amount"`
	Merchant    string          `json:"merchant,omitempty"`
	RawCategory string          `json:"raw_category,omitempty"`
	Category    SpendCategory   `json:"category"`
	Subcategory string          `json:"subcategory,omitempty"`
}

// IsDebit reports whether the transaction is a spend candidate
func (t Transaction) IsDebit() bool {
	return t.Amount.IsNegative()
}

// Position represents a brokerage holding
type Position struct {
	Broker      Source          `json:"broker"`
	AccountID   string          `json:"account_id"`
	Symbol      string          `json:"symbol"`
	Name        string          `json:"name,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	CostBasis   decimal.Decimal `json:"cost_basis"`
	MarketValue decimal.Decimal `json:"market_value"`
	ObservedAt  time.Time       `json:"observed_at"`
}

// UnrealizedPnL returns market value minus cost basis
func (p Position) UnrealizedPnL() decimal.Decimal {
	return p.MarketValue.Sub(p.CostBasis)
}

// Batch is a set of canonical records from one or more sources
type Batch struct {
	Assets       []Asset       `json:"assets"`
	Transactions []Transaction `json:"transactions"`
	Positions    []Position    `json:"positions"`
}

// Merge appends all records from other into b
func (b *Batch) Merge(other Batch) {
	b.Assets = append(b.Assets, other.Assets...)
	b.Transactions = append(b.Transactions, other.Transactions...)
	b.Positions = append(b.Positions, other.Positions...)
}

// Len returns the total number of records in the batch
func (b Batch) Len() int {
	return len(b.Assets) + len(b.Transactions) + len(b.Positions)
}

// IsEmpty reports whether the batch contains no records
func (b Batch) IsEmpty() bool {
	return b.Len() == 0
}
