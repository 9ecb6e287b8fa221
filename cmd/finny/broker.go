package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/k-dang/finny/pkg/alpaca"
	"github.com/k-dang/finny/pkg/ibkr"
)

func runQuote(args []string) error {
	fs := flag.NewFlagSet("quote", flag.ExitOnError)
	configPath := fs.String("config", "finny.toml", "path to config file")
	fs.Parse(args)

	if fs.NArg() == 0 {
		return fmt.Errorf("usage: finny quote [flags] <symbol> [symbol...]")
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if cfg.Alpaca.APIKey == "" {
		return fmt.Errorf("alpaca credentials not configured (set FINNY_ALPACA_API_KEY / FINNY_ALPACA_API_SECRET)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := alpaca.NewClient(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, alpaca.WithBaseURL(cfg.Alpaca.DataHost))
	p := message.NewPrinter(language.English)

	for _, arg := range fs.Args() {
		symbol := strings.ToUpper(arg)
		snap, err := client.GetSnapshot(ctx, symbol)
		if err != nil {
			return fmt.Errorf("%s: %w", symbol, err)
		}

		p.Printf("%s:", symbol)
		if snap.LatestQuote != nil {
			p.Printf("  bid %.2f / ask %.2f", snap.LatestQuote.BidPrice, snap.LatestQuote.AskPrice)
		}
		if snap.LatestTrade != nil {
			p.Printf("  last %.2f", snap.LatestTrade.Price)
		}
		if snap.DailyBar != nil && snap.PrevDailyBar != nil && snap.PrevDailyBar.Close > 0 {
			change := (snap.DailyBar.Close - snap.PrevDailyBar.Close) / snap.PrevDailyBar.Close * 100
			p.Printf("  %+.2f%%", change)
		}
		p.Println()
	}
	return nil
}

func runOptions(args []string) error {
	fs := flag.NewFlagSet("options", flag.ExitOnError)
	configPath := fs.String("config", "finny.toml", "path to config file")
	optType := fs.String("type", "", "contract type: call or put")
	strikeGte := fs.Float64("strike-gte", 0, "minimum strike")
	strikeLte := fs.Float64("strike-lte", 0, "maximum strike")
	expiry := fs.String("expiry", "", "expiration date (YYYY-MM-DD)")
	limit := fs.Int("limit", 25, "maximum contracts")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: finny options [flags] <underlying>")
	}
	underlying := strings.ToUpper(fs.Arg(0))

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if cfg.Alpaca.APIKey == "" {
		return fmt.Errorf("alpaca credentials not configured (set FINNY_ALPACA_API_KEY / FINNY_ALPACA_API_SECRET)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := alpaca.NewClient(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, alpaca.WithBaseURL(cfg.Alpaca.DataHost))
	chain, err := client.GetOptionChain(ctx, underlying, &alpaca.OptionChainFilter{
		Type:           *optType,
		StrikePriceGte: *strikeGte,
		StrikePriceLte: *strikeLte,
		ExpirationDate: *expiry,
		Limit:          *limit,
	})
	if err != nil {
		return err
	}

	symbols := make([]string, 0, len(chain))
	for symbol := range chain {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	p := message.NewPrinter(language.English)
	for _, symbol := range symbols {
		snap := chain[symbol]
		bid, ask := "-", "-"
		if snap.LatestQuote != nil {
			bid = fmt.Sprintf("%.2f", snap.LatestQuote.BidPrice)
			ask = fmt.Sprintf("%.2f", snap.LatestQuote.AskPrice)
		}
		delta := "-"
		if snap.Greeks != nil {
			delta = fmt.Sprintf("%+.2f", snap.Greeks.Delta)
		}
		p.Printf("%-22s bid %-6s ask %-6s iv %.3f  delta %s\n",
			symbol, bid, ask, snap.ImpliedVolatility, delta)
	}
	p.Printf("\n%d contracts\n", len(symbols))
	return nil
}

func runPortfolio(args []string) error {
	fs := flag.NewFlagSet("portfolio", flag.ExitOnError)
	configPath := fs.String("config", "finny.toml", "path to config file")
	accountID := fs.String("account", "", "account ID (defaults to first visible)")
	fs.Parse(args)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := []ibkr.ClientOption{ibkr.WithBaseURL(cfg.IBKR.GatewayHost)}
	if cfg.IBKR.InsecureSkipVerify {
		opts = append(opts, ibkr.WithInsecureSkipVerify())
	}
	client := ibkr.NewClient(opts...)

	account := *accountID
	if account == "" {
		accounts, err := client.GetAccounts(ctx)
		if err != nil {
			return fmt.Errorf("list accounts: %w", err)
		}
		if len(accounts) == 0 {
			return fmt.Errorf("no accounts visible (is the gateway session authenticated?)")
		}
		account = accounts[0]
	}

	positions, err := client.GetAllPositions(ctx, account)
	if err != nil {
		return err
	}

	p := message.NewPrinter(language.English)
	p.Printf("account %s: %d positions\n\n", account, len(positions))
	for _, pos := range positions {
		p.Printf("%-10s %10.2f @ %-10.2f value %12.2f  pnl %+12.2f %s\n",
			pos.Ticker, pos.Position, pos.MktPrice, pos.MktValue, pos.UnrealizedPnl, pos.Currency)
	}

	if ledger, err := client.GetLedger(ctx, account); err == nil {
		if base, ok := ledger["BASE"]; ok {
			p.Printf("\ncash %.2f, net liquidation %.2f\n", base.CashBalance, base.NetLiquidation)
		}
	}
	return nil
}
