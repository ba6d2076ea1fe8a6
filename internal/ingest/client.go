// Package ingest pulls daily bars from the market-data provider into the
// price tables and keeps each symbol's series gap-free.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"asset-performance-lab/internal/domain"
	"asset-performance-lab/internal/observability"
)

const (
	defaultBaseURL = "https://financialmodelingprep.com/stable"

	// Rate-limit policy: a bounded retry loop with a fixed delay, never
	// unbounded recursion.
	maxRetries = 3
	retryDelay = 2 * time.Second
)

// Bar is one provider EOD record from the light endpoint.
type Bar struct {
	Symbol string  `json:"symbol"`
	Date   string  `json:"date"` // YYYY-MM-DD
	Price  float64 `json:"price"`
	Volume float64 `json:"volume"`
}

// listItem is one row of a symbol-list endpoint.
type listItem struct {
	Symbol string `json:"symbol"`
}

// Client is the market-data provider HTTP client.
type Client struct {
	baseURL    string
	apiKey     string
	client     *http.Client
	retryDelay time.Duration
	log        zerolog.Logger
}

// NewClient creates a provider client. An empty baseURL selects the real
// provider; tests point it at a local server.
func NewClient(baseURL, apiKey string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		retryDelay: retryDelay,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.With().Str("client", "provider").Logger(),
	}
}

// listPath maps an asset class to its symbol-list endpoint.
func listPath(class domain.AssetClass) string {
	switch class {
	case domain.ClassCrypto:
		return "cryptocurrency-list"
	case domain.ClassCommodity:
		return "commodities-list"
	case domain.ClassIndex:
		return "index-list"
	default:
		return ""
	}
}

// ListSymbols fetches the provider's symbol universe for a class.
func (c *Client) ListSymbols(ctx context.Context, class domain.AssetClass) ([]string, error) {
	path := listPath(class)
	if path == "" {
		return nil, fmt.Errorf("no list endpoint for class %q", class)
	}

	params := url.Values{}
	params.Set("apikey", c.apiKey)

	body, err := c.get(ctx, path, params)
	if err != nil {
		return nil, err
	}

	var items []listItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", path, err)
	}

	var symbols []string
	for _, item := range items {
		if item.Symbol != "" {
			symbols = append(symbols, item.Symbol)
		}
	}

	c.log.Info().Str("class", string(class)).Int("symbols", len(symbols)).Msg("listed symbols")
	return symbols, nil
}

// HistoricalDaily fetches EOD bars for a symbol from the given date onward.
func (c *Client) HistoricalDaily(ctx context.Context, symbol string, from time.Time) ([]Bar, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("from", from.Format("2006-01-02"))
	params.Set("apikey", c.apiKey)

	body, err := c.get(ctx, "historical-price-eod/light", params)
	if err != nil {
		return nil, err
	}

	// The light endpoint returns a bare array on success and an object
	// carrying "Error Message" otherwise.
	var bars []Bar
	if err := json.Unmarshal(body, &bars); err != nil {
		var apiErr struct {
			Message string `json:"Error Message"`
		}
		if jsonErr := json.Unmarshal(body, &apiErr); jsonErr == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("provider error for %s: %s", symbol, apiErr.Message)
		}
		return nil, fmt.Errorf("decode bars for %s: %w", symbol, err)
	}

	return bars, nil
}

// get performs one GET with the bounded rate-limit retry loop.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/%s?%s", c.baseURL, path, params.Encode())

	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			observability.DefaultMetrics.ProviderCalls.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("provider request: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			observability.DefaultMetrics.ProviderCalls.WithLabelValues("rate_limited").Inc()
			if attempt >= maxRetries {
				return nil, fmt.Errorf("rate limited after %d retries", maxRetries)
			}
			c.log.Warn().Int("attempt", attempt+1).Msg("rate limited, backing off")
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			observability.DefaultMetrics.ProviderCalls.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("provider returned %d: %s", resp.StatusCode, body)
		}

		observability.DefaultMetrics.ProviderCalls.WithLabelValues("ok").Inc()
		return body, nil
	}
}
