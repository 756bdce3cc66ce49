package snaptrade

import (
	"github.com/shopspring/decimal"
)

const defaultBaseURL = "https://api.snaptrade.com/api/v1"

// HoldingsResponse is the per-connection holdings document the client
// fetches and the adapter normalizes
type HoldingsResponse struct {
	Account  BrokerAccount `json:"account"`
	Holdings []Holding     `json:"positions"`
}

// BrokerAccount identifies the brokerage account the holdings belong to
type BrokerAccount struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Institution string `json:"institution_name"`
}

// Holding is one brokerage position. Pointers distinguish missing numeric
// fields from zero.
type Holding struct {
	Symbol          SymbolInfo       `json:"symbol"`
	Units           *decimal.Decimal `json:"units"`
	AveragePurchase *decimal.Decimal `json:"average_purchase_price"`
	LastPrice       *decimal.Decimal `json:"price"`
	FractionalUnits *decimal.Decimal `json:"fractional_units"`
}

// SymbolInfo carries the instrument identity
type SymbolInfo struct {
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
	Type        string `json:"type"` // cs (common stock), et (ETF), ...
}

// errorResponse is the provider's error envelope
type errorResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code"`
}
