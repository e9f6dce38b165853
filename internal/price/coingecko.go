// Package price provides SOL/USD exchange rates for USD mirror columns.
package price

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Source yields the current SOL/USD exchange rate. There is no default
// rate: callers must treat a failed lookup as a failed sync rather than
// writing zeroed USD columns.
type Source interface {
	SOLUSD(ctx context.Context) (float64, error)
}

const (
	defaultCoinGeckoURL = "https://api.coingecko.com/api/v3"
	defaultPriceTimeout = 10 * time.Second
)

// CoinGeckoClient fetches spot prices from the CoinGecko simple-price API.
type CoinGeckoClient struct {
	baseURL    string
	httpClient *http.Client
}

// CoinGeckoOption configures a CoinGeckoClient.
type CoinGeckoOption func(*CoinGeckoClient)

// WithBaseURL overrides the CoinGecko API base URL.
func WithBaseURL(url string) CoinGeckoOption {
	return func(c *CoinGeckoClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(client *http.Client) CoinGeckoOption {
	return func(c *CoinGeckoClient) {
		c.httpClient = client
	}
}

// NewCoinGeckoClient creates a CoinGecko price source.
func NewCoinGeckoClient(opts ...CoinGeckoOption) *CoinGeckoClient {
	c := &CoinGeckoClient{
		baseURL:    defaultCoinGeckoURL,
		httpClient: &http.Client{Timeout: defaultPriceTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ Source = (*CoinGeckoClient)(nil)

// SOLUSD returns the current SOL price in USD.
func (c *CoinGeckoClient) SOLUSD(ctx context.Context) (float64, error) {
	url := c.baseURL + "/simple/price?ids=solana&vs_currencies=usd"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("creating price request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetching SOL price: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("price API returned status %d", resp.StatusCode)
	}

	var body map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decoding price response: %w", err)
	}

	rate, ok := body["solana"]["usd"]
	if !ok {
		return 0, fmt.Errorf("price response missing solana/usd entry")
	}
	if rate <= 0 {
		return 0, fmt.Errorf("price API returned non-positive rate %f", rate)
	}
	return rate, nil
}
