package plaid_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unifin/unifin/internal/engine/record"
	"github.com/unifin/unifin/internal/infra/gateway/plaid"
)

const transactionsDoc = `{
	"accounts": [
		{
			"account_id": "acc-checking",
			"name": "Plaid Checking",
			"type": "depository",
			"subtype": "checking",
			"balances": {"available": 1200.50, "current": 1250.75, "iso_currency_code": "USD"}
		},
		{
			"account_id": "acc-credit",
			"name": "Plaid Credit Card",
			"type": "credit",
			"balances": {"current": 410.25, "iso_currency_code": "USD"}
		},
		{
			"account_id": "acc-broken",
			"name": "No Balance",
			"type": "depository",
			"balances": {}
		}
	],
	"transactions": [
		{
			"transaction_id": "tx-coffee",
			"account_id": "acc-checking",
			"amount": 4.50,
			"date": "2026-03-10",
			"name": "STARBUCKS STORE 0113",
			"merchant_name": "Starbucks",
			"category": ["Food and Drink", "Coffee Shop"]
		},
		{
			"transaction_id": "tx-payroll",
			"account_id": "acc-checking",
			"amount": -2500,
			"date": "2026-03-01",
			"name": "ACME PAYROLL"
		},
		{
			"transaction_id": "",
			"account_id": "acc-checking",
			"amount": 10,
			"date": "2026-03-02",
			"name": "missing id"
		}
	],
	"total_transactions": 3
}`

func TestAdapter_ToCanonical(t *testing.T) {
	adapter := plaid.NewAdapter()
	require.Equal(t, record.SourcePlaid, adapter.Source())

	batch, recordErrs, err := adapter.ToCanonical(json.RawMessage(transactionsDoc))
	require.NoError(t, err)

	// Broken account and ID-less transaction are reported, not fatal
	require.Len(t, recordErrs, 2)

	require.Len(t, batch.Assets, 2)

	checking := batch.Assets[0]
	assert.Equal(t, "acc-checking", checking.AccountID)
	assert.Equal(t, "USD", checking.Symbol)
	assert.Equal(t, record.AssetCash, checking.Category)
	assert.True(t, checking.Quantity.Equal(decimal.RequireFromString("1250.75")))
	assert.True(t, checking.Value.Equal(decimal.RequireFromString("1250.75")))

	// Credit balances count against net worth
	credit := batch.Assets[1]
	assert.True(t, credit.Quantity.Equal(decimal.RequireFromString("-410.25")))

	require.Len(t, batch.Transactions, 2)

	coffee := batch.Transactions[0]
	assert.Equal(t, "plaid:tx-coffee", coffee.ID)
	// Plaid's positive outflow becomes our negative debit
	assert.True(t, coffee.Amount.Equal(decimal.RequireFromString("-4.50")))
	assert.True(t, coffee.IsDebit())
	assert.Equal(t, "Starbucks", coffee.Merchant)
	// Most specific hierarchy entry wins
	assert.Equal(t, "Coffee Shop", coffee.RawCategory)
	assert.Equal(t, 2026, coffee.Timestamp.Year())

	payroll := batch.Transactions[1]
	assert.True(t, payroll.Amount.Equal(decimal.RequireFromString("2500")))
	assert.False(t, payroll.IsDebit())
	assert.Equal(t, "ACME PAYROLL", payroll.Merchant)
}

func TestAdapter_ToCanonical_InvalidPayload(t *testing.T) {
	adapter := plaid.NewAdapter()

	t.Run("not JSON", func(t *testing.T) {
		_, _, err := adapter.ToCanonical(json.RawMessage(`[broken`))
		assert.Error(t, err)
	})

	t.Run("no accounts or transactions", func(t *testing.T) {
		_, _, err := adapter.ToCanonical(json.RawMessage(`{"request_id":"x"}`))
		assert.Error(t, err)
	})

	t.Run("empty arrays are a valid empty batch", func(t *testing.T) {
		batch, recordErrs, err := adapter.ToCanonical(json.RawMessage(`{"accounts":[],"transactions":[]}`))
		require.NoError(t, err)
		assert.Empty(t, recordErrs)
		assert.True(t, batch.IsEmpty())
	})
}

func TestAdapter_ToCanonical_BadDate(t *testing.T) {
	adapter := plaid.NewAdapter()

	doc := `{
		"accounts": [],
		"transactions": [
			{"transaction_id": "tx-1", "account_id": "a", "amount": 5, "date": "03/10/2026", "name": "x"}
		]
	}`

	batch, recordErrs, err := adapter.ToCanonical(json.RawMessage(doc))
	require.NoError(t, err)
	assert.Empty(t, batch.Transactions)
	require.Len(t, recordErrs, 1)
	assert.Contains(t, recordErrs[0].Reason, "invalid date")
}
