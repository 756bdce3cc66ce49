package etherscan_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unifin/unifin/internal/engine/record"
	"github.com/unifin/unifin/internal/infra/gateway/etherscan"
)

func mustScan(t *testing.T, scan etherscan.WalletScan) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(scan)
	require.NoError(t, err)
	return data
}

func TestNewAdapter_UnsupportedChain(t *testing.T) {
	_, err := etherscan.NewAdapter(record.SourcePlaid)
	assert.ErrorIs(t, err, etherscan.ErrUnsupportedChain)
}

func TestAdapter_ToCanonical(t *testing.T) {
	adapter, err := etherscan.NewAdapter(record.SourceEthereum)
	require.NoError(t, err)
	require.Equal(t, record.SourceEthereum, adapter.Source())

	fetched := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	scan := etherscan.WalletScan{
		Address:   "0xAbCd000000000000000000000000000000001234",
		Chain:     record.SourceEthereum,
		FetchedAt: fetched,
		Native: etherscan.NativeBalance{
			Symbol:     "ETH",
			BalanceWei: "2000000000000000000", // 2 ETH
			USDPrice:   "3000.50",
		},
		Tokens: []etherscan.TokenHolding{
			{Symbol: "USDC", Name: "USD Coin", Contract: "0xa0b8", Decimals: 6, BalanceRaw: "150000000", USDPrice: "1"},
			{Symbol: "DAI", Name: "Dai", Contract: "0x6b17", Decimals: 18, BalanceRaw: "not-a-number"},
		},
		Defi: []etherscan.DefiPosition{
			{Protocol: "Lido", Symbol: "stETH", Quantity: "0.5", USDPrice: "2990"},
		},
	}

	batch, recordErrs, err := adapter.ToCanonical(mustScan(t, scan))
	require.NoError(t, err)

	// Native + USDC + stETH; the malformed DAI row is reported, not fatal
	require.Len(t, batch.Assets, 3)
	require.Len(t, recordErrs, 1)
	assert.Contains(t, recordErrs[0].Reason, "DAI")

	native := batch.Assets[0]
	assert.Equal(t, "ETH", native.Symbol)
	assert.Equal(t, record.AssetCrypto, native.Category)
	// Address is normalized to lowercase for stable dedupe keys
	assert.Equal(t, "0xabcd000000000000000000000000000000001234", native.AccountID)
	assert.True(t, native.Quantity.Equal(decimal.RequireFromString("2")))
	assert.True(t, native.Value.Equal(decimal.RequireFromString("6001")))
	assert.Equal(t, fetched, native.ObservedAt)

	usdc := batch.Assets[1]
	assert.Equal(t, record.AssetToken, usdc.Category)
	assert.True(t, usdc.Quantity.Equal(decimal.RequireFromString("150")))

	steth := batch.Assets[2]
	assert.Equal(t, record.AssetDefiPosition, steth.Category)
	assert.Equal(t, "Lido", steth.Name)
	assert.True(t, steth.Value.Equal(decimal.RequireFromString("1495")))
}

func TestAdapter_ToCanonical_MissingPriceDegradesValue(t *testing.T) {
	adapter, err := etherscan.NewAdapter(record.SourcePolygon)
	require.NoError(t, err)

	scan := etherscan.WalletScan{
		Address: "0x1111111111111111111111111111111111111111",
		Chain:   record.SourcePolygon,
		Native: etherscan.NativeBalance{
			Symbol:     "MATIC",
			BalanceWei: "5000000000000000000",
		},
	}

	batch, recordErrs, err := adapter.ToCanonical(mustScan(t, scan))
	require.NoError(t, err)
	require.Empty(t, recordErrs)
	require.Len(t, batch.Assets, 1)

	// Unpriced holdings keep their quantity but carry zero value
	assert.True(t, batch.Assets[0].Quantity.Equal(decimal.RequireFromString("5")))
	assert.True(t, batch.Assets[0].Value.IsZero())
}

func TestAdapter_ToCanonical_InvalidPayload(t *testing.T) {
	adapter, err := etherscan.NewAdapter(record.SourceEthereum)
	require.NoError(t, err)

	t.Run("not JSON", func(t *testing.T) {
		_, _, err := adapter.ToCanonical(json.RawMessage(`{broken`))
		assert.Error(t, err)
	})

	t.Run("missing address", func(t *testing.T) {
		_, _, err := adapter.ToCanonical(json.RawMessage(`{"chain":"ethereum"}`))
		assert.Error(t, err)
	})
}
