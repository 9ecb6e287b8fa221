package alpaca

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultRateLimit = 3.0 // requests per second (free-tier budget)
	defaultBurst     = 5
)

// Client is a read-only Alpaca Market Data client.
type Client struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithRateLimit sets custom rate limiting.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewClient creates a new Alpaca Market Data client.
func NewClient(apiKey, apiSecret string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GetLatestQuote fetches the latest NBBO quote for a stock symbol.
func (c *Client) GetLatestQuote(ctx context.Context, symbol string) (*Quote, error) {
	var resp latestQuoteResponse
	if err := c.get(ctx, "/v2/stocks/"+symbol+"/quotes/latest", nil, &resp); err != nil {
		return nil, fmt.Errorf("get latest quote: %w", err)
	}
	return &resp.Quote, nil
}

// GetSnapshot fetches the full latest-state snapshot for a stock symbol.
func (c *Client) GetSnapshot(ctx context.Context, symbol string) (*Snapshot, error) {
	var snap Snapshot
	if err := c.get(ctx, "/v2/stocks/"+symbol+"/snapshot", nil, &snap); err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return &snap, nil
}

// GetOptionChain fetches option contract snapshots for an underlying symbol,
// keyed by contract symbol.
func (c *Client) GetOptionChain(ctx context.Context, underlying string, filter *OptionChainFilter) (map[string]OptionSnapshot, error) {
	params := url.Values{}
	if filter != nil {
		if filter.Type != "" {
			params.Set("type", filter.Type)
		}
		if filter.StrikePriceGte > 0 {
			params.Set("strike_price_gte", strconv.FormatFloat(filter.StrikePriceGte, 'f', -1, 64))
		}
		if filter.StrikePriceLte > 0 {
			params.Set("strike_price_lte", strconv.FormatFloat(filter.StrikePriceLte, 'f', -1, 64))
		}
		if filter.ExpirationDate != "" {
			params.Set("expiration_date", filter.ExpirationDate)
		}
		if filter.Limit > 0 {
			params.Set("limit", strconv.Itoa(filter.Limit))
		}
	}

	var resp optionChainResponse
	if err := c.get(ctx, "/v1beta1/options/snapshots/"+underlying, params, &resp); err != nil {
		return nil, fmt.Errorf("get option chain: %w", err)
	}
	return resp.Snapshots, nil
}

// get performs an authenticated GET request with rate limiting.
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("APCA-API-KEY-ID", c.apiKey)
	req.Header.Set("APCA-API-SECRET-KEY", c.apiSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("api error %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
