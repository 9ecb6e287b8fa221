package ibkr

import (
	"context"
	"crypto/tls"
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
	defaultRateLimit = 5.0 // requests per second (gateway-wide budget)
	defaultBurst     = 5
)

// Client is a read-only Client Portal Web API client. It relies on an
// existing authenticated gateway session; it never logs in or places orders.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL sets a custom gateway address.
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

// WithInsecureSkipVerify disables TLS certificate verification. The local
// gateway serves a self-signed certificate, so this is on for the default
// localhost address.
func WithInsecureSkipVerify() ClientOption {
	return func(c *Client) {
		transport, ok := c.httpClient.Transport.(*http.Transport)
		if !ok {
			transport = &http.Transport{}
		}
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		c.httpClient.Transport = transport
	}
}

// WithRateLimit sets custom rate limiting.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewClient creates a new Client Portal client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
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

// GetAuthStatus checks whether the gateway session is authenticated.
func (c *Client) GetAuthStatus(ctx context.Context) (*AuthStatus, error) {
	var status AuthStatus
	if err := c.post(ctx, "/v1/api/iserver/auth/status", &status); err != nil {
		return nil, fmt.Errorf("get auth status: %w", err)
	}
	return &status, nil
}

// GetAccounts lists account IDs visible to the session.
func (c *Client) GetAccounts(ctx context.Context) ([]string, error) {
	var resp accountsResponse
	if err := c.get(ctx, "/v1/api/iserver/accounts", nil, &resp); err != nil {
		return nil, fmt.Errorf("get accounts: %w", err)
	}
	return resp.Accounts, nil
}

// GetPositions fetches one page of portfolio positions for an account.
// Pages hold up to 100 positions; page numbering starts at 0.
func (c *Client) GetPositions(ctx context.Context, accountID string, page int) ([]Position, error) {
	path := "/v1/api/portfolio/" + accountID + "/positions/" + strconv.Itoa(page)

	var positions []Position
	if err := c.get(ctx, path, nil, &positions); err != nil {
		return nil, fmt.Errorf("get positions: %w", err)
	}
	return positions, nil
}

// GetAllPositions fetches every position page for an account.
func (c *Client) GetAllPositions(ctx context.Context, accountID string) ([]Position, error) {
	var all []Position
	for page := 0; ; page++ {
		positions, err := c.GetPositions(ctx, accountID, page)
		if err != nil {
			return nil, err
		}
		all = append(all, positions...)
		if len(positions) < 100 {
			break
		}
	}
	return all, nil
}

// GetLedger fetches the cash ledger for an account, keyed by currency
// ("BASE" is the consolidated view).
func (c *Client) GetLedger(ctx context.Context, accountID string) (map[string]LedgerEntry, error) {
	var ledger map[string]LedgerEntry
	if err := c.get(ctx, "/v1/api/portfolio/"+accountID+"/ledger", nil, &ledger); err != nil {
		return nil, fmt.Errorf("get ledger: %w", err)
	}
	return ledger, nil
}

// get performs a GET request with rate limiting.
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	return c.do(ctx, "GET", path, params, result)
}

// post performs an empty-body POST; some Client Portal status endpoints are
// POST-only.
func (c *Client) post(ctx context.Context, path string, result interface{}) error {
	return c.do(ctx, "POST", path, nil, result)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
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
