// Package config defines the top-level configuration for finny and provides
// validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by FINNY_* environment variables.
type Config struct {
	Polymarket PolymarketConfig `toml:"polymarket"`
	Alpaca     AlpacaConfig     `toml:"alpaca"`
	IBKR       IBKRConfig       `toml:"ibkr"`
	LLM        LLMConfig        `toml:"llm"`
	Scan       ScanConfig       `toml:"scan"`
	Watch      WatchConfig      `toml:"watch"`
	LogLevel   string           `toml:"log_level"`
}

// PolymarketConfig holds Polymarket API endpoints. All endpoints this project
// calls are public market-data reads, so no credentials are needed.
type PolymarketConfig struct {
	GammaHost string `toml:"gamma_host"`
	ClobHost  string `toml:"clob_host"`
}

// AlpacaConfig holds Alpaca Market Data API parameters.
type AlpacaConfig struct {
	DataHost  string `toml:"data_host"`
	APIKey    string `toml:"api_key"`
	APISecret string `toml:"api_secret"`
}

// IBKRConfig holds Interactive Brokers Client Portal gateway parameters. The
// gateway serves a self-signed certificate on localhost, hence the TLS toggle.
type IBKRConfig struct {
	GatewayHost        string `toml:"gateway_host"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify"`
}

// LLMConfig holds parameters for the OpenAI-compatible chat backend used by
// the chat REPL.
type LLMConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
}

// ScanConfig holds default mispricing-scan parameters. Zero values mean "use
// the engine default" except where noted.
type ScanConfig struct {
	MaxMarkets       int     `toml:"max_markets"`
	Concurrency      int     `toml:"concurrency"`
	Limit            int     `toml:"limit"`
	TimeHorizonHours float64 `toml:"time_horizon_hours"`
	MinVolume        float64 `toml:"min_volume"`
	MaxSpreadBps     float64 `toml:"max_spread_bps"`
	MinEdgePct       float64 `toml:"min_edge_pct"`
}

// WatchConfig holds parameters for the periodic scan loop.
type WatchConfig struct {
	Interval    duration `toml:"interval"`
	MetricsAddr string   `toml:"metrics_addr"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Polymarket: PolymarketConfig{
			GammaHost: "https://gamma-api.polymarket.com",
			ClobHost:  "https://clob.polymarket.com",
		},
		Alpaca: AlpacaConfig{
			DataHost: "https://data.alpaca.markets",
		},
		IBKR: IBKRConfig{
			GatewayHost:        "https://localhost:5000",
			InsecureSkipVerify: true,
		},
		LLM: LLMConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
		},
		Scan: ScanConfig{
			MaxMarkets:       200,
			Concurrency:      6,
			Limit:            20,
			TimeHorizonHours: 24,
		},
		Watch: WatchConfig{
			Interval:    duration{5 * time.Minute},
			MetricsAddr: ":9090",
		},
		LogLevel: "info",
	}
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid values and returns a combined
// error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Polymarket.GammaHost == "" {
		errs = append(errs, "polymarket: gamma_host must not be empty")
	}
	if c.Polymarket.ClobHost == "" {
		errs = append(errs, "polymarket: clob_host must not be empty")
	}

	// Alpaca credentials must be set together or not at all.
	ak := c.Alpaca.APIKey != ""
	as := c.Alpaca.APISecret != ""
	if ak != as {
		errs = append(errs, "alpaca: api_key and api_secret must be set together")
	}

	if c.Scan.MaxMarkets < 0 {
		errs = append(errs, "scan: max_markets must not be negative")
	}
	if c.Scan.Concurrency < 0 {
		errs = append(errs, "scan: concurrency must not be negative")
	}
	if c.Scan.Limit < 0 {
		errs = append(errs, "scan: limit must not be negative")
	}
	if c.Scan.TimeHorizonHours < 0 {
		errs = append(errs, "scan: time_horizon_hours must not be negative")
	}
	if c.Scan.MinVolume < 0 {
		errs = append(errs, "scan: min_volume must not be negative")
	}
	if c.Scan.MaxSpreadBps < 0 {
		errs = append(errs, "scan: max_spread_bps must not be negative")
	}
	if c.Scan.MinEdgePct < 0 {
		errs = append(errs, "scan: min_edge_pct must not be negative")
	}

	if c.Watch.Interval.Duration < time.Second {
		errs = append(errs, "watch: interval must be at least 1s")
	}
	if c.Watch.MetricsAddr == "" {
		errs = append(errs, "watch: metrics_addr must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
