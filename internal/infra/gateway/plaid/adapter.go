package plaid

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/unifin/unifin/internal/engine/normalize"
	"github.com/unifin/unifin/internal/engine/record"
)

// Adapter normalizes Plaid /transactions/get documents into canonical cash
// assets and transactions
type Adapter struct{}

// Compile-time check that Adapter implements ProviderAdapter
var _ normalize.ProviderAdapter = (*Adapter)(nil)

// NewAdapter creates the Plaid adapter
func NewAdapter() *Adapter {
	return &Adapter{}
}

// Source returns the banking source type
func (a *Adapter) Source() record.Source {
	return record.SourcePlaid
}

// ToCanonical converts a raw Plaid document: each account becomes a cash
// asset, each transaction a canonical transaction with the sign flipped
// (Plaid reports outflows as positive). Malformed records are skipped and
// reported; missing accounts and transactions arrays mean the payload is
// structurally unusable.
func (a *Adapter) ToCanonical(raw json.RawMessage) (record.Batch, []*normalize.RecordError, error) {
	var doc TransactionsResponse
	if err := json.Unmarshal(raw, &doc); err != nil {
		return record.Batch{}, nil, fmt.Errorf("%w: %v", normalize.ErrInvalidPayload, err)
	}
	if doc.Accounts == nil && doc.Transactions == nil {
		return record.Batch{}, nil, fmt.Errorf("%w: no accounts or transactions array", normalize.ErrInvalidPayload)
	}

	observedAt := time.Now().UTC()

	var batch record.Batch
	var errs []*normalize.RecordError

	for _, acct := range doc.Accounts {
		asset, err := cashAsset(acct, observedAt)
		if err != nil {
			errs = append(errs, normalize.NewRecordError(record.SourcePlaid, err.Error(), acct))
			continue
		}
		batch.Assets = append(batch.Assets, asset)
	}

	for _, tx := range doc.Transactions {
		canonical, err := canonicalTransaction(tx, observedAt)
		if err != nil {
			errs = append(errs, normalize.NewRecordError(record.SourcePlaid, err.Error(), tx))
			continue
		}
		batch.Transactions = append(batch.Transactions, canonical)
	}

	return batch, errs, nil
}

// cashAsset maps an account balance to a cash asset. Credit accounts carry
// their balance as a liability (negative quantity).
func cashAsset(acct Account, observedAt time.Time) (record.Asset, error) {
	if acct.AccountID == "" {
		return record.Asset{}, fmt.Errorf("account missing account_id")
	}
	if acct.Balances.Current == nil {
		return record.Asset{}, fmt.Errorf("account %s missing current balance", acct.AccountID)
	}

	quantity := *acct.Balances.Current
	if acct.Type == "credit" || acct.Type == "loan" {
		quantity = quantity.Neg()
	}

	symbol := acct.Balances.ISOCurrencyCode
	if symbol == "" {
		symbol = "USD"
	}

	asset := record.NewAsset(record.SourcePlaid, acct.AccountID, symbol, quantity, decimal.NewFromInt(1), record.AssetCash, observedAt)
	asset.Name = acct.Name
	return asset, nil
}

// canonicalTransaction maps one Plaid transaction, negating the amount so
// that a debit is negative
func canonicalTransaction(tx Transaction, observedAt time.Time) (record.Transaction, error) {
	if tx.TransactionID == "" {
		return record.Transaction{}, fmt.Errorf("transaction missing transaction_id")
	}
	if tx.Amount == nil {
		return record.Transaction{}, fmt.Errorf("transaction %s missing amount", tx.TransactionID)
	}

	timestamp, err := time.Parse("2006-01-02", tx.Date)
	if err != nil {
		return record.Transaction{}, fmt.Errorf("transaction %s has invalid date %q", tx.TransactionID, tx.Date)
	}

	merchant := tx.MerchantName
	if merchant == "" {
		merchant = tx.Name
	}

	// Most specific entry of the category hierarchy
	var rawCategory string
	if len(tx.Category) > 0 {
		rawCategory = tx.Category[len(tx.Category)-1]
	}

	return record.Transaction{
		ID:          "plaid:" + tx.TransactionID,
		Source:      record.SourcePlaid,
		AccountID:   tx.AccountID,
		Timestamp:   timestamp,
		ObservedAt:  observedAt,
		Amount:      tx.Amount.Neg(),
		Merchant:    merchant,
		RawCategory: rawCategory,
	}, nil
}
