// finny is a read-only market research CLI: it scans Polymarket prediction
// markets for potential mispricings and fetches market data from Polymarket,
// Alpaca, and Interactive Brokers.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/k-dang/finny/internal/config"
)

const usage = `finny - prediction market research CLI

Usage:
  finny <command> [flags]

Commands:
  scan        run a mispricing scan and print ranked signals
  watch       run periodic scans and serve Prometheus metrics
  markets     search Polymarket markets
  book        show the order book for an outcome token
  quote       show the latest quote for a stock symbol
  options     show an option chain for an underlying
  portfolio   show IBKR account positions and cash
  chat        interactive research REPL with market-data tools

Common flags (every command):
  -config string   path to TOML config file (default "finny.toml")

Run "finny <command> -h" for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cmd, args := os.Args[1], os.Args[2:]

	var err error
	switch cmd {
	case "scan":
		err = runScan(args)
	case "watch":
		err = runWatch(args)
	case "markets":
		err = runMarkets(args)
	case "book":
		err = runBook(args)
	case "quote":
		err = runQuote(args)
	case "options":
		err = runOptions(args)
	case "portfolio":
		err = runPortfolio(args)
	case "chat":
		err = runChat(args)
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n%s", cmd, usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "finny %s: %v\n", cmd, err)
		os.Exit(1)
	}
}

// loadConfig loads the TOML config, validates it, and builds the logger.
func loadConfig(path string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	return cfg, logger, nil
}
