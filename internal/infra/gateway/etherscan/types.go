package etherscan

import (
	"errors"
	"time"

	"github.com/unifin/unifin/internal/engine/record"
)

// ErrUnsupportedChain is returned when a source has no explorer mapping
var ErrUnsupportedChain = errors.New("unsupported chain for explorer API")

// chainInfo holds the per-chain explorer endpoint and native asset
type chainInfo struct {
	BaseURL      string
	NativeSymbol string
	PriceAction  string // stats-module action returning the native USD price
	PriceField   string // field in the price result carrying the USD value
}

// chains maps a source to its etherscan-family explorer
var chains = map[record.Source]chainInfo{
	record.SourceEthereum: {
		BaseURL:      "https://api.etherscan.io/api",
		NativeSymbol: "ETH",
		PriceAction:  "ethprice",
		PriceField:   "ethusd",
	},
	record.SourcePolygon: {
		BaseURL:      "https://api.polygonscan.com/api",
		NativeSymbol: "MATIC",
		PriceAction:  "maticprice",
		PriceField:   "maticusd",
	},
}

// apiResponse is the etherscan envelope for string results
type apiResponse struct {
	Status  string `json:"status"` // "1" = ok
	Message string `json:"message"`
	Result  string `json:"result"`
}

// tokenTxResponse is the envelope for the tokentx action
type tokenTxResponse struct {
	Status  string    `json:"status"`
	Message string    `json:"message"`
	Result  []tokenTx `json:"result"`
}

// tokenTx is one ERC-20 transfer event row
type tokenTx struct {
	ContractAddress string `json:"contractAddress"`
	TokenName       string `json:"tokenName"`
	TokenSymbol     string `json:"tokenSymbol"`
	TokenDecimal    string `json:"tokenDecimal"`
}

// priceResponse is the envelope for the ethprice/maticprice actions
type priceResponse struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Result  map[string]string `json:"result"`
}

// WalletScan is the assembled per-wallet payload the client produces and
// the adapter normalizes. It is the "raw provider payload" boundary: the
// engine never sees explorer wire shapes directly.
type WalletScan struct {
	Address   string         `json:"address"`
	Chain     record.Source  `json:"chain"`
	FetchedAt time.Time      `json:"fetched_at"`
	Native    NativeBalance  `json:"native"`
	Tokens    []TokenHolding `json:"tokens"`
	Defi      []DefiPosition `json:"defi_positions"`
}

// NativeBalance is the chain's native coin balance in base units
type NativeBalance struct {
	Symbol     string `json:"symbol"`
	BalanceWei string `json:"balance_wei"`
	USDPrice   string `json:"usd_price"`
}

// TokenHolding is one ERC-20 balance in token base units
type TokenHolding struct {
	Symbol     string `json:"symbol"`
	Name       string `json:"name"`
	Contract   string `json:"contract"`
	Decimals   int    `json:"decimals"`
	BalanceRaw string `json:"balance_raw"`
	USDPrice   string `json:"usd_price,omitempty"`
}

// DefiPosition is a staked or lent holding reported by a protocol
// integration. Quantity is already in display units.
type DefiPosition struct {
	Protocol string `json:"protocol"`
	Symbol   string `json:"symbol"`
	Quantity string `json:"quantity"`
	USDPrice string `json:"usd_price,omitempty"`
}
