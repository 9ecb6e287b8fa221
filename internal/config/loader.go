package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path (skipped when path is empty or
// the file does not exist), merges it on top of the built-in defaults, applies
// FINNY_* environment variable overrides, and returns the final Config. The
// returned Config has NOT been validated; the caller should invoke
// Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("decode config %s: %w", path, err)
			}
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known FINNY_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets without touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Polymarket.GammaHost, "FINNY_POLYMARKET_GAMMA_HOST")
	setStr(&cfg.Polymarket.ClobHost, "FINNY_POLYMARKET_CLOB_HOST")

	setStr(&cfg.Alpaca.DataHost, "FINNY_ALPACA_DATA_HOST")
	setStr(&cfg.Alpaca.APIKey, "FINNY_ALPACA_API_KEY")
	setStr(&cfg.Alpaca.APIKey, "APCA_API_KEY_ID") // Alpaca's own convention
	setStr(&cfg.Alpaca.APISecret, "FINNY_ALPACA_API_SECRET")
	setStr(&cfg.Alpaca.APISecret, "APCA_API_SECRET_KEY")

	setStr(&cfg.IBKR.GatewayHost, "FINNY_IBKR_GATEWAY_HOST")
	setBool(&cfg.IBKR.InsecureSkipVerify, "FINNY_IBKR_INSECURE_SKIP_VERIFY")

	setStr(&cfg.LLM.BaseURL, "FINNY_LLM_BASE_URL")
	setStr(&cfg.LLM.APIKey, "FINNY_LLM_API_KEY")
	setStr(&cfg.LLM.APIKey, "OPENAI_API_KEY") // compatibility alias
	setStr(&cfg.LLM.Model, "FINNY_LLM_MODEL")

	setInt(&cfg.Scan.MaxMarkets, "FINNY_SCAN_MAX_MARKETS")
	setInt(&cfg.Scan.Concurrency, "FINNY_SCAN_CONCURRENCY")
	setInt(&cfg.Scan.Limit, "FINNY_SCAN_LIMIT")
	setFloat64(&cfg.Scan.TimeHorizonHours, "FINNY_SCAN_TIME_HORIZON_HOURS")
	setFloat64(&cfg.Scan.MinVolume, "FINNY_SCAN_MIN_VOLUME")
	setFloat64(&cfg.Scan.MaxSpreadBps, "FINNY_SCAN_MAX_SPREAD_BPS")
	setFloat64(&cfg.Scan.MinEdgePct, "FINNY_SCAN_MIN_EDGE_PCT")

	setDuration(&cfg.Watch.Interval, "FINNY_WATCH_INTERVAL")
	setStr(&cfg.Watch.MetricsAddr, "FINNY_WATCH_METRICS_ADDR")

	setStr(&cfg.LogLevel, "FINNY_LOG_LEVEL")
}

// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}
