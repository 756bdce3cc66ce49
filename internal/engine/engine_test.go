package engine_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unifin/unifin/internal/engine"
	"github.com/unifin/unifin/internal/engine/aggregate"
	"github.com/unifin/unifin/internal/engine/classify"
	"github.com/unifin/unifin/internal/engine/normalize"
	"github.com/unifin/unifin/internal/engine/record"
)

// stubAdapter unmarshals the payload straight into a batch. A payload of
// "fail" simulates a structurally broken response.
type stubAdapter struct {
	source record.Source
}

func (a *stubAdapter) Source() record.Source { return a.source }

func (a *stubAdapter) ToCanonical(raw json.RawMessage) (record.Batch, []*normalize.RecordError, error) {
	if string(raw) == `"fail"` {
		return record.Batch{}, nil, normalize.ErrInvalidPayload
	}
	var batch record.Batch
	if err := json.Unmarshal(raw, &batch); err != nil {
		return record.Batch{}, nil, err
	}
	return batch, nil, nil
}

func mustPayload(t *testing.T, batch record.Batch) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(batch)
	require.NoError(t, err)
	return data
}

func newEngine() *engine.Engine {
	normalizer := normalize.NewNormalizer(
		&stubAdapter{source: record.SourceEthereum},
		&stubAdapter{source: record.SourcePlaid},
		&stubAdapter{source: record.SourceBroker},
	)
	return engine.New(normalizer, classify.NewClassifier(nil))
}

func TestEngine_BuildSnapshot_FullPipeline(t *testing.T) {
	eng := newEngine()
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	day := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	walletBatch := record.Batch{
		Assets: []record.Asset{
			record.NewAsset(record.SourceEthereum, "0xabc", "ETH",
				decimal.RequireFromString("2"), decimal.RequireFromString("3000"), record.AssetCrypto, now),
		},
	}
	bankBatch := record.Batch{
		Transactions: []record.Transaction{
			{ID: "plaid:a", Source: record.SourcePlaid, AccountID: "acc-1", Timestamp: day, ObservedAt: now,
				Amount: decimal.RequireFromString("-15.99"), Merchant: "Netflix", RawCategory: "streaming"},
			// Same underlying transaction seen by a second sync pass
			{ID: "plaid:b", Source: record.SourcePlaid, AccountID: "acc-1", Timestamp: day, ObservedAt: now.Add(time.Hour),
				Amount: decimal.RequireFromString("-15.99"), Merchant: "NETFLIX", RawCategory: "streaming"},
			{ID: "plaid:c", Source: record.SourcePlaid, AccountID: "acc-1", Timestamp: day, ObservedAt: now,
				Amount: decimal.RequireFromString("-54.12"), Merchant: "Trader Joe's #42"},
		},
	}
	brokerBatch := record.Batch{
		Positions: []record.Position{
			{Broker: record.SourceBroker, AccountID: "acct-9", Symbol: "AAPL",
				Quantity: decimal.RequireFromString("5"), CostBasis: decimal.RequireFromString("800"),
				MarketValue: decimal.RequireFromString("1000"), ObservedAt: now},
		},
	}

	result := eng.BuildSnapshot([]engine.SourceInput{
		{Source: record.SourceEthereum, Payload: mustPayload(t, walletBatch)},
		{Source: record.SourcePlaid, Payload: mustPayload(t, bankBatch)},
		{Source: record.SourceBroker, Payload: mustPayload(t, brokerBatch)},
	}, aggregate.Options{AsOf: now})

	require.NotNil(t, result.Snapshot)
	assert.Empty(t, result.FailedSources)
	assert.Empty(t, result.Excluded)
	assert.Equal(t, 1, result.Duplicates)

	snap := result.Snapshot
	assert.True(t, snap.TotalNetWorth.Equal(decimal.RequireFromString("7000")), "got %s", snap.TotalNetWorth)
	assert.True(t, snap.Spending.NonEssentialTotal.Equal(decimal.RequireFromString("15.99")))
	assert.True(t, snap.Spending.EssentialTotal.Equal(decimal.RequireFromString("54.12")))
}

func TestEngine_BuildSnapshot_FailedSourceDegradesGracefully(t *testing.T) {
	eng := newEngine()
	now := time.Now().UTC()

	walletBatch := record.Batch{
		Assets: []record.Asset{
			record.NewAsset(record.SourceEthereum, "0xabc", "ETH",
				decimal.RequireFromString("1"), decimal.RequireFromString("3000"), record.AssetCrypto, now),
		},
	}

	result := eng.BuildSnapshot([]engine.SourceInput{
		{Source: record.SourceEthereum, Payload: mustPayload(t, walletBatch)},
		{Source: record.SourcePlaid, Payload: json.RawMessage(`"fail"`)},
	}, aggregate.Options{AsOf: now})

	// The broken source is reported, the healthy one still counts
	require.Contains(t, result.FailedSources, record.SourcePlaid)
	assert.True(t, result.Snapshot.TotalNetWorth.Equal(decimal.RequireFromString("3000")))
}

func TestEngine_BuildSnapshot_UnknownSource(t *testing.T) {
	eng := newEngine()

	result := eng.BuildSnapshot([]engine.SourceInput{
		{Source: record.Source("carrier-pigeon"), Payload: json.RawMessage(`{}`)},
	}, aggregate.Options{})

	require.Contains(t, result.FailedSources, record.Source("carrier-pigeon"))
	assert.True(t, result.Snapshot.TotalNetWorth.IsZero())
}

func TestEngine_BuildSnapshot_EmptyInput(t *testing.T) {
	eng := newEngine()

	result := eng.BuildSnapshot(nil, aggregate.Options{})

	require.NotNil(t, result.Snapshot)
	assert.Empty(t, result.FailedSources)
	assert.Equal(t, 0, result.Duplicates)
	assert.True(t, result.Snapshot.TotalNetWorth.IsZero())
}
