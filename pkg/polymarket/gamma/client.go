package gamma

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the Gamma API base URL.
	DefaultBaseURL = "https://gamma-api.polymarket.com"

	defaultRateLimit = 10.0 // requests per second
	defaultBurst     = 5
)

// ErrMalformedResponse is returned when a listing endpoint serves something
// other than the expected JSON array. It is distinct from an empty result so
// callers never mistake upstream garbage for "no markets".
var ErrMalformedResponse = errors.New("gamma: malformed response payload")

// Client is a Gamma API client.
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

// NewClient creates a new Gamma API client.
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

// ListMarkets fetches markets matching the filter.
func (c *Client) ListMarkets(ctx context.Context, filter *MarketsFilter) ([]Market, error) {
	params := url.Values{}
	if filter != nil {
		if filter.Active != nil {
			params.Set("active", strconv.FormatBool(*filter.Active))
		}
		if filter.Closed != nil {
			params.Set("closed", strconv.FormatBool(*filter.Closed))
		}
		if filter.EventID != "" {
			params.Set("event_id", filter.EventID)
		}
		if filter.Slug != "" {
			params.Set("slug", filter.Slug)
		}
		if filter.ClobTokenIDs != "" {
			params.Set("clob_token_ids", filter.ClobTokenIDs)
		}
		if filter.Limit > 0 {
			params.Set("limit", strconv.Itoa(filter.Limit))
		}
		if filter.Offset > 0 {
			params.Set("offset", strconv.Itoa(filter.Offset))
		}
		if filter.Order != "" {
			params.Set("order", filter.Order)
		}
		if filter.Ascending != nil {
			params.Set("ascending", strconv.FormatBool(*filter.Ascending))
		}
	}

	var markets []Market
	if err := c.getArray(ctx, "/markets", params, &markets); err != nil {
		return nil, err
	}
	return markets, nil
}

// ListEvents fetches events matching the filter.
func (c *Client) ListEvents(ctx context.Context, filter *EventsFilter) ([]Event, error) {
	params := url.Values{}
	if filter != nil {
		if filter.Active != nil {
			params.Set("active", strconv.FormatBool(*filter.Active))
		}
		if filter.Closed != nil {
			params.Set("closed", strconv.FormatBool(*filter.Closed))
		}
		if filter.Slug != "" {
			params.Set("slug", filter.Slug)
		}
		if filter.Limit > 0 {
			params.Set("limit", strconv.Itoa(filter.Limit))
		}
		if filter.Offset > 0 {
			params.Set("offset", strconv.Itoa(filter.Offset))
		}
	}

	var events []Event
	if err := c.getArray(ctx, "/events", params, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// GetMarket fetches a single market by ID.
func (c *Client) GetMarket(ctx context.Context, id string) (*Market, error) {
	var market Market
	if err := c.get(ctx, "/markets/"+id, nil, &market); err != nil {
		return nil, err
	}
	return &market, nil
}

// GetMarketBySlug fetches a market by its slug.
func (c *Client) GetMarketBySlug(ctx context.Context, slug string) (*Market, error) {
	markets, err := c.ListMarkets(ctx, &MarketsFilter{Slug: slug, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(markets) == 0 {
		return nil, fmt.Errorf("market not found: %s", slug)
	}
	return &markets[0], nil
}

// GetEvent fetches a single event by ID, including its markets.
func (c *Client) GetEvent(ctx context.Context, id string) (*Event, error) {
	var event Event
	if err := c.get(ctx, "/events/"+id, nil, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// ListTradeableMarkets fetches active, order-accepting markets with
// pagination, up to maxMarkets (0 means no cap).
func (c *Client) ListTradeableMarkets(ctx context.Context, maxMarkets int) ([]Market, error) {
	var all []Market
	limit := 100
	offset := 0

	for {
		markets, err := c.ListMarkets(ctx, &MarketsFilter{
			Active: BoolPtr(true),
			Closed: BoolPtr(false),
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			return nil, err
		}

		for _, m := range markets {
			if m.IsTradeable() && len(m.ClobTokenIDs()) > 0 {
				all = append(all, m)
			}
		}

		if maxMarkets > 0 && len(all) >= maxMarkets {
			return all[:maxMarkets], nil
		}
		if len(markets) < limit {
			break
		}
		offset += limit
	}

	return all, nil
}

// getArray performs a GET request whose response must be a JSON array.
func (c *Client) getArray(ctx context.Context, path string, params url.Values, result interface{}) error {
	var raw json.RawMessage
	if err := c.get(ctx, path, params, &raw); err != nil {
		return err
	}
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return fmt.Errorf("%w: expected array at %s", ErrMalformedResponse, path)
	}
	return json.Unmarshal(raw, result)
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
