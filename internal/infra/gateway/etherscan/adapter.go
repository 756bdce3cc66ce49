package etherscan

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/unifin/unifin/internal/engine/normalize"
	"github.com/unifin/unifin/internal/engine/record"
)

// Adapter normalizes WalletScan payloads into canonical assets.
// One adapter instance serves one chain, so the normalizer registry stays
// a flat source -> adapter lookup.
type Adapter struct {
	source record.Source
}

// Compile-time check that Adapter implements ProviderAdapter
var _ normalize.ProviderAdapter = (*Adapter)(nil)

// NewAdapter creates an adapter for one supported chain
func NewAdapter(source record.Source) (*Adapter, error) {
	if _, ok := chains[source]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedChain, source)
	}
	return &Adapter{source: source}, nil
}

// Source returns the chain this adapter handles
func (a *Adapter) Source() record.Source {
	return a.source
}

// ToCanonical converts a raw WalletScan into canonical assets. Individual
// malformed tokens or positions are skipped and reported; only an
// unparseable top-level document is fatal.
func (a *Adapter) ToCanonical(raw json.RawMessage) (record.Batch, []*normalize.RecordError, error) {
	var scan WalletScan
	if err := json.Unmarshal(raw, &scan); err != nil {
		return record.Batch{}, nil, fmt.Errorf("%w: %v", normalize.ErrInvalidPayload, err)
	}
	if scan.Address == "" {
		return record.Batch{}, nil, fmt.Errorf("%w: missing wallet address", normalize.ErrInvalidPayload)
	}

	observedAt := scan.FetchedAt
	if observedAt.IsZero() {
		observedAt = time.Now().UTC()
	}
	address := strings.ToLower(scan.Address)

	var batch record.Batch
	var errs []*normalize.RecordError

	if asset, err := a.nativeAsset(scan.Native, address, observedAt); err != nil {
		errs = append(errs, normalize.NewRecordError(a.source, err.Error(), scan.Native))
	} else {
		batch.Assets = append(batch.Assets, asset)
	}

	for _, token := range scan.Tokens {
		asset, err := a.tokenAsset(token, address, observedAt)
		if err != nil {
			errs = append(errs, normalize.NewRecordError(a.source, err.Error(), token))
			continue
		}
		batch.Assets = append(batch.Assets, asset)
	}

	for _, pos := range scan.Defi {
		asset, err := a.defiAsset(pos, address, observedAt)
		if err != nil {
			errs = append(errs, normalize.NewRecordError(a.source, err.Error(), pos))
			continue
		}
		batch.Assets = append(batch.Assets, asset)
	}

	return batch, errs, nil
}

func (a *Adapter) nativeAsset(native NativeBalance, address string, observedAt time.Time) (record.Asset, error) {
	if native.Symbol == "" {
		return record.Asset{}, fmt.Errorf("native balance missing symbol")
	}
	wei, err := decimal.NewFromString(native.BalanceWei)
	if err != nil {
		return record.Asset{}, fmt.Errorf("invalid native balance %q", native.BalanceWei)
	}

	quantity := wei.Shift(-18)
	price := parsePrice(native.USDPrice)

	return record.NewAsset(a.source, address, native.Symbol, quantity, price, record.AssetCrypto, observedAt), nil
}

func (a *Adapter) tokenAsset(token TokenHolding, address string, observedAt time.Time) (record.Asset, error) {
	if token.Symbol == "" {
		return record.Asset{}, fmt.Errorf("token missing symbol")
	}
	raw, err := decimal.NewFromString(token.BalanceRaw)
	if err != nil {
		return record.Asset{}, fmt.Errorf("invalid token balance %q for %s", token.BalanceRaw, token.Symbol)
	}

	decimals := token.Decimals
	if decimals <= 0 || decimals > 36 {
		decimals = 18
	}

	quantity := raw.Shift(int32(-decimals))
	price := parsePrice(token.USDPrice)

	asset := record.NewAsset(a.source, address, token.Symbol, quantity, price, record.AssetToken, observedAt)
	asset.Name = token.Name
	return asset, nil
}

func (a *Adapter) defiAsset(pos DefiPosition, address string, observedAt time.Time) (record.Asset, error) {
	if pos.Symbol == "" {
		return record.Asset{}, fmt.Errorf("defi position missing symbol")
	}
	quantity, err := decimal.NewFromString(pos.Quantity)
	if err != nil {
		return record.Asset{}, fmt.Errorf("invalid defi quantity %q for %s", pos.Quantity, pos.Symbol)
	}

	price := parsePrice(pos.USDPrice)

	asset := record.NewAsset(a.source, address, pos.Symbol, quantity, price, record.AssetDefiPosition, observedAt)
	asset.Name = pos.Protocol
	return asset, nil
}

// parsePrice returns zero for empty or malformed prices; a missing price
// degrades a holding's value, it does not reject the holding
func parsePrice(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	price, err := decimal.NewFromString(s)
	if err != nil || price.IsNegative() {
		return decimal.Zero
	}
	return price
}
