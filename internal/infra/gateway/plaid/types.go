package plaid

import (
	"github.com/shopspring/decimal"
)

// environments maps the Plaid environment name to its API host
var environments = map[string]string{
	"sandbox":     "https://sandbox.plaid.com",
	"development": "https://development.plaid.com",
	"production":  "https://production.plaid.com",
}

// transactionsRequest is the body for POST /transactions/get
type transactionsRequest struct {
	ClientID    string              `json:"client_id"`
	Secret      string              `json:"secret"`
	AccessToken string              `json:"access_token"`
	StartDate   string              `json:"start_date"` // YYYY-MM-DD
	EndDate     string              `json:"end_date"`
	Options     transactionsOptions `json:"options"`
}

type transactionsOptions struct {
	Count  int `json:"count"`
	Offset int `json:"offset"`
}

// TransactionsResponse is the /transactions/get payload. The engine's
// plaid adapter consumes this document as raw JSON.
type TransactionsResponse struct {
	Accounts          []Account     `json:"accounts"`
	Transactions      []Transaction `json:"transactions"`
	TotalTransactions int           `json:"total_transactions"`
	RequestID         string        `json:"request_id"`
}

// Account is a linked bank account with its current balances
type Account struct {
	AccountID    string   `json:"account_id"`
	Name         string   `json:"name"`
	OfficialName string   `json:"official_name"`
	Type         string   `json:"type"`    // depository, credit, loan
	Subtype      string   `json:"subtype"` // checking, savings
	Balances     Balances `json:"balances"`
}

// Balances carries an account's balance fields. Pointers distinguish
// missing values from zero.
type Balances struct {
	Available       *decimal.Decimal `json:"available"`
	Current         *decimal.Decimal `json:"current"`
	ISOCurrencyCode string           `json:"iso_currency_code"`
}

// Transaction is one bank transaction as Plaid reports it. Plaid's sign
// convention is inverted from ours: positive means money moved out.
type Transaction struct {
	TransactionID string           `json:"transaction_id"`
	AccountID     string           `json:"account_id"`
	Amount        *decimal.Decimal `json:"amount"`
	Date          string           `json:"date"` // YYYY-MM-DD
	Name          string           `json:"name"`
	MerchantName  string           `json:"merchant_name"`
	Category      []string         `json:"category"` // hierarchy, general to specific
	Pending       bool             `json:"pending"`
}

// errorResponse is Plaid's error envelope
type errorResponse struct {
	ErrorType    string `json:"error_type"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}
