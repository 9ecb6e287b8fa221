package clob

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
	defaultRateLimit = 10.0 // requests per second
	defaultBurst     = 5
)

// Client is a read-only CLOB API client. Market-data endpoints are public
// and need no credentials.
type Client struct {
	baseURL    string
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

// NewClient creates a new CLOB client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
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

// GetOrderBook fetches the order book for a token.
func (c *Client) GetOrderBook(ctx context.Context, tokenID string) (*OrderBookSummary, error) {
	params := url.Values{"token_id": {tokenID}}

	var book OrderBookSummary
	if err := c.get(ctx, "/book", params, &book); err != nil {
		return nil, fmt.Errorf("get orderbook: %w", err)
	}
	return &book, nil
}

// GetPrice fetches the current price for a token on the given side
// ("BUY" or "SELL").
func (c *Client) GetPrice(ctx context.Context, tokenID, side string) (float64, error) {
	params := url.Values{"token_id": {tokenID}, "side": {side}}

	var resp PriceResponse
	if err := c.get(ctx, "/price", params, &resp); err != nil {
		return 0, fmt.Errorf("get price: %w", err)
	}
	return strconv.ParseFloat(resp.Price, 64)
}

// GetMidpoint fetches the midpoint price for a token.
func (c *Client) GetMidpoint(ctx context.Context, tokenID string) (float64, error) {
	params := url.Values{"token_id": {tokenID}}

	var resp MidpointResponse
	if err := c.get(ctx, "/midpoint", params, &resp); err != nil {
		return 0, fmt.Errorf("get midpoint: %w", err)
	}
	return strconv.ParseFloat(resp.Mid, 64)
}

// GetSpread fetches the bid-ask spread for a token.
func (c *Client) GetSpread(ctx context.Context, tokenID string) (float64, error) {
	params := url.Values{"token_id": {tokenID}}

	var resp SpreadResponse
	if err := c.get(ctx, "/spread", params, &resp); err != nil {
		return 0, fmt.Errorf("get spread: %w", err)
	}
	return strconv.ParseFloat(resp.Spread, 64)
}

// GetLastTradePrice fetches the most recent trade for a token.
func (c *Client) GetLastTradePrice(ctx context.Context, tokenID string) (*LastTradePrice, error) {
	params := url.Values{"token_id": {tokenID}}

	var resp LastTradePrice
	if err := c.get(ctx, "/last-trade-price", params, &resp); err != nil {
		return nil, fmt.Errorf("get last trade price: %w", err)
	}
	return &resp, nil
}

// GetPriceHistory fetches historical prices for a token between two epoch
// timestamps at the given fidelity in minutes.
func (c *Client) GetPriceHistory(ctx context.Context, tokenID string, startTs, endTs int64, fidelity int) ([]PriceHistoryPoint, error) {
	params := url.Values{"market": {tokenID}}
	if startTs > 0 {
		params.Set("startTs", strconv.FormatInt(startTs, 10))
	}
	if endTs > 0 {
		params.Set("endTs", strconv.FormatInt(endTs, 10))
	}
	if fidelity > 0 {
		params.Set("fidelity", strconv.Itoa(fidelity))
	}

	var resp priceHistoryResponse
	if err := c.get(ctx, "/prices-history", params, &resp); err != nil {
		return nil, fmt.Errorf("get price history: %w", err)
	}
	return resp.History, nil
}

// get performs a GET request with rate limiting.
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
