package snaptrade

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	apperrors "github.com/unifin/unifin/internal/shared/errors"
	"github.com/unifin/unifin/pkg/logger"
)

const (
	requestTimeout = 30 * time.Second
	maxRetries     = 3
)

// Client is an HTTP client for the brokerage aggregation API
type Client struct {
	clientID    string
	consumerKey string
	httpClient  *http.Client
	baseURL     string
	logger      *logger.Logger
}

// NewClient creates a brokerage API client
func NewClient(clientID, consumerKey string, log *logger.Logger) *Client {
	return &Client{
		clientID:    clientID,
		consumerKey: consumerKey,
		httpClient:  &http.Client{Timeout: requestTimeout},
		baseURL:     defaultBaseURL,
		logger:      log.WithField("component", "snaptrade"),
	}
}

// SetBaseURL overrides the API host (useful for testing)
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// FetchHoldings retrieves the holdings document for a connected brokerage
// account and returns it as raw JSON for normalization
func (c *Client) FetchHoldings(ctx context.Context, accountID string) (json.RawMessage, error) {
	reqURL := fmt.Sprintf("%s/accounts/%s/holdings?%s", c.baseURL, url.PathEscape(accountID), url.Values{
		"clientId": {c.clientID},
	}.Encode())

	backoff := time.Second
	for attempt := 0; attempt <= maxRetries; attempt++ {
		c.logger.Debug("API request", "account_id", accountID, "attempt", attempt)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.consumerKey)

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
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Detail != "" {
			return nil, apperrors.SourceUnavailable("broker", fmt.Errorf("%s: %s", apiErr.Code, apiErr.Detail))
		}
		return nil, apperrors.SourceUnavailable("broker", fmt.Errorf("status %d", resp.StatusCode))
	}

	return nil, fmt.Errorf("broker API retries exhausted")
}
