package plaid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/unifin/unifin/internal/shared/errors"
	"github.com/unifin/unifin/pkg/logger"
)

const (
	requestTimeout = 30 * time.Second
	maxRetries     = 3
	pageSize       = 500
)

// Client is an HTTP client for the Plaid API
type Client struct {
	clientID   string
	secret     string
	httpClient *http.Client
	baseURL    string
	logger     *logger.Logger
}

// NewClient creates a Plaid client for the given environment
// (sandbox, development, production)
func NewClient(clientID, secret, env string, log *logger.Logger) *Client {
	baseURL, ok := environments[env]
	if !ok {
		baseURL = environments["sandbox"]
	}
	return &Client{
		clientID:   clientID,
		secret:     secret,
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    baseURL,
		logger:     log.WithField("component", "plaid"),
	}
}

// SetBaseURL overrides the API host (useful for testing)
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// FetchTransactions retrieves accounts and transactions for an access token
// over the trailing window and returns the raw response document, paging
// until all transactions are collected.
func (c *Client) FetchTransactions(ctx context.Context, accessToken string, windowDays int) (json.RawMessage, error) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -windowDays)

	var merged TransactionsResponse
	offset := 0

	for {
		req := transactionsRequest{
			ClientID:    c.clientID,
			Secret:      c.secret,
			AccessToken: accessToken,
			StartDate:   start.Format("2006-01-02"),
			EndDate:     end.Format("2006-01-02"),
			Options:     transactionsOptions{Count: pageSize, Offset: offset},
		}

		body, err := c.doRequest(ctx, "/transactions/get", req)
		if err != nil {
			return nil, apperrors.SourceUnavailable("plaid", err)
		}

		var page TransactionsResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("failed to decode transactions response: %w", err)
		}

		if offset == 0 {
			merged = page
		} else {
			merged.Transactions = append(merged.Transactions, page.Transactions...)
		}

		offset += len(page.Transactions)
		if offset >= page.TotalTransactions || len(page.Transactions) == 0 {
			break
		}
	}

	return json.Marshal(merged)
}

// doRequest posts a JSON body and retries on 429 with exponential backoff
func (c *Client) doRequest(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	backoff := time.Second
	for attempt := 0; attempt <= maxRetries; attempt++ {
		c.logger.Debug("API request", "path", path, "attempt", attempt)

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

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

		var apiErr errorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.ErrorCode != "" {
			return nil, fmt.Errorf("plaid API error %s: %s", apiErr.ErrorCode, apiErr.ErrorMessage)
		}
		return nil, fmt.Errorf("plaid API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	return nil, fmt.Errorf("plaid API retries exhausted")
}
