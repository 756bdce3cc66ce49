package snapshot

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/unifin/unifin/internal/engine/record"
	"github.com/unifin/unifin/internal/platform/link"
)

// LinkProvider lists the financial sources a user has connected
type LinkProvider interface {
	List(ctx context.Context, userID uuid.UUID) ([]*link.Link, error)
}

// WalletScanner fetches on-chain holdings for a wallet address
type WalletScanner interface {
	Scan(ctx context.Context, source record.Source, address string) (json.RawMessage, error)
}

// BankFetcher fetches account balances and transactions for a bank connection
type BankFetcher interface {
	FetchTransactions(ctx context.Context, accessToken string, windowDays int) (json.RawMessage, error)
}

// BrokerFetcher fetches brokerage positions for an account
type BrokerFetcher interface {
	FetchHoldings(ctx context.Context, accountID string) (json.RawMessage, error)
}

// Cache stores computed overviews keyed by user and granularity
type Cache interface {
	Get(ctx context.Context, userID uuid.UUID, granularity string) (*Overview, error)
	Set(ctx context.Context, userID uuid.UUID, granularity string, o *Overview) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
}
