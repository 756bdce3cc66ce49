package etherscan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/unifin/unifin/internal/engine/record"
	apperrors "github.com/unifin/unifin/internal/shared/errors"
	"github.com/unifin/unifin/pkg/logger"
)

const (
	requestTimeout = 10 * time.Second
	maxRetries     = 3
	maxTokens      = 25 // distinct tokens resolved per wallet scan
)

// Client talks to the etherscan-family explorer APIs (Etherscan,
// Polygonscan) and assembles per-wallet scan payloads.
type Client struct {
	apiKeys    map[record.Source]string
	httpClient *http.Client
	baseURLs   map[record.Source]string
	logger     *logger.Logger
}

// NewClient creates an explorer client. apiKeys maps chain source to the
// explorer API key for that chain.
func NewClient(apiKeys map[record.Source]string, log *logger.Logger) *Client {
	baseURLs := make(map[record.Source]string, len(chains))
	for source, info := range chains {
		baseURLs[source] = info.BaseURL
	}
	return &Client{
		apiKeys:    apiKeys,
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURLs:   baseURLs,
		logger:     log.WithField("component", "etherscan"),
	}
}

// SetBaseURL overrides the explorer URL for a chain (useful for testing)
func (c *Client) SetBaseURL(source record.Source, baseURL string) {
	c.baseURLs[source] = baseURL
}

// Scan fetches the native balance, token holdings and native USD price for
// a wallet and returns the assembled WalletScan as raw JSON, ready for
// normalization.
func (c *Client) Scan(ctx context.Context, source record.Source, address string) (json.RawMessage, error) {
	info, ok := chains[source]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedChain, source)
	}

	scan := WalletScan{
		Address:   address,
		Chain:     source,
		FetchedAt: time.Now().UTC(),
		Tokens:    []TokenHolding{},
		Defi:      []DefiPosition{},
	}

	balance, err := c.getBalance(ctx, source, address)
	if err != nil {
		return nil, apperrors.SourceUnavailable(string(source), err)
	}

	price, err := c.getNativePrice(ctx, source, info)
	if err != nil {
		// Price is enrichment; a scan without it still has balances
		c.logger.Warn("native price unavailable", "chain", source, "error", err)
		price = "0"
	}

	scan.Native = NativeBalance{
		Symbol:     info.NativeSymbol,
		BalanceWei: balance,
		USDPrice:   price,
	}

	tokens, err := c.getTokenHoldings(ctx, source, address)
	if err != nil {
		c.logger.Warn("token holdings unavailable", "chain", source, "error", err)
	} else {
		scan.Tokens = tokens
	}

	return json.Marshal(scan)
}

// getBalance returns the native balance in wei as a decimal string
func (c *Client) getBalance(ctx context.Context, source record.Source, address string) (string, error) {
	params := url.Values{
		"module":  {"account"},
		"action":  {"balance"},
		"address": {address},
		"tag":     {"latest"},
	}

	body, err := c.doRequest(ctx, source, params)
	if err != nil {
		return "", err
	}

	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode balance response: %w", err)
	}
	if resp.Status != "1" {
		return "", fmt.Errorf("explorer error: %s", resp.Message)
	}

	return resp.Result, nil
}

// getNativePrice returns the native coin USD price as a decimal string
func (c *Client) getNativePrice(ctx context.Context, source record.Source, info chainInfo) (string, error) {
	params := url.Values{
		"module": {"stats"},
		"action": {info.PriceAction},
	}

	body, err := c.doRequest(ctx, source, params)
	if err != nil {
		return "", err
	}

	var resp priceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode price response: %w", err)
	}
	if resp.Status != "1" {
		return "", fmt.Errorf("explorer error: %s", resp.Message)
	}

	price, ok := resp.Result[info.PriceField]
	if !ok || price == "" {
		return "", fmt.Errorf("price field %s missing from response", info.PriceField)
	}

	return price, nil
}

// getTokenHoldings discovers tokens from recent transfer history, then
// resolves the current balance for each
func (c *Client) getTokenHoldings(ctx context.Context, source record.Source, address string) ([]TokenHolding, error) {
	params := url.Values{
		"module":  {"account"},
		"action":  {"tokentx"},
		"address": {address},
		"sort":    {"desc"},
	}

	body, err := c.doRequest(ctx, source, params)
	if err != nil {
		return nil, err
	}

	var resp tokenTxResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode tokentx response: %w", err)
	}
	// Status "0" with "No transactions found" is an empty wallet, not an error
	if resp.Status != "1" && len(resp.Result) == 0 {
		return []TokenHolding{}, nil
	}

	seen := make(map[string]tokenTx)
	order := make([]string, 0)
	for _, tx := range resp.Result {
		if tx.ContractAddress == "" || tx.TokenSymbol == "" {
			continue
		}
		if _, ok := seen[tx.ContractAddress]; !ok {
			seen[tx.ContractAddress] = tx
			order = append(order, tx.ContractAddress)
		}
		if len(order) >= maxTokens {
			break
		}
	}

	holdings := make([]TokenHolding, 0, len(order))
	for _, contract := range order {
		tx := seen[contract]
		balance, err := c.getTokenBalance(ctx, source, address, contract)
		if err != nil {
			c.logger.Debug("token balance unavailable", "contract", contract, "error", err)
			continue
		}
		decimals := 18
		if d, err := parseDecimals(tx.TokenDecimal); err == nil {
			decimals = d
		}
		holdings = append(holdings, TokenHolding{
			Symbol:     tx.TokenSymbol,
			Name:       tx.TokenName,
			Contract:   contract,
			Decimals:   decimals,
			BalanceRaw: balance,
		})
	}

	return holdings, nil
}

// getTokenBalance returns one ERC-20 balance in token base units
func (c *Client) getTokenBalance(ctx context.Context, source record.Source, address, contract string) (string, error) {
	params := url.Values{
		"module":          {"account"},
		"action":          {"tokenbalance"},
		"address":         {address},
		"contractaddress": {contract},
		"tag":             {"latest"},
	}

	body, err := c.doRequest(ctx, source, params)
	if err != nil {
		return "", err
	}

	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode token balance response: %w", err)
	}
	if resp.Status != "1" {
		return "", fmt.Errorf("explorer error: %s", resp.Message)
	}

	return resp.Result, nil
}

// doRequest performs a GET with the chain's API key, retrying on 429 with
// exponential backoff (1s, 2s, 4s)
func (c *Client) doRequest(ctx context.Context, source record.Source, params url.Values) ([]byte, error) {
	baseURL, ok := c.baseURLs[source]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedChain, source)
	}

	if key := c.apiKeys[source]; key != "" {
		params.Set("apikey", key)
	}
	reqURL := baseURL + "?" + params.Encode()

	backoff := time.Second
	for attempt := 0; attempt <= maxRetries; attempt++ {
		c.logger.Debug("API request", "chain", source, "action", params.Get("action"), "attempt", attempt)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to execute request: %w", err)
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("failed to read response body: %w", readErr)
		}

		if resp.StatusCode == http.StatusOK {
			return body, nil
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < maxRetries {
			c.logger.Warn("rate limited, retrying", "attempt", attempt, "backoff_ms", backoff.Milliseconds())
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
				continue
			}
		}

		return nil, fmt.Errorf("explorer API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	return nil, fmt.Errorf("explorer API retries exhausted")
}

func parseDecimals(s string) (int, error) {
	var d int
	if _, err := fmt.Sscanf(s, "%d", &d); err != nil {
		return 0, err
	}
	if d < 0 || d > 36 {
		return 0, fmt.Errorf("decimals out of range: %d", d)
	}
	return d, nil
}
