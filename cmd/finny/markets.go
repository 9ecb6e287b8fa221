package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/k-dang/finny/pkg/polymarket/book"
	"github.com/k-dang/finny/pkg/polymarket/clob"
	"github.com/k-dang/finny/pkg/polymarket/gamma"
)

func runMarkets(args []string) error {
	fs := flag.NewFlagSet("markets", flag.ExitOnError)
	configPath := fs.String("config", "finny.toml", "path to config file")
	query := fs.String("q", "", "filter by question text")
	limit := fs.Int("limit", 20, "maximum results")
	activeOnly := fs.Bool("active", true, "only active markets")
	fs.Parse(args)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := gamma.NewClient(gamma.WithBaseURL(cfg.Polymarket.GammaHost))
	filter := &gamma.MarketsFilter{Limit: *limit * 3}
	if *activeOnly {
		filter.Active = gamma.BoolPtr(true)
		filter.Closed = gamma.BoolPtr(false)
	}

	markets, err := client.ListMarkets(ctx, filter)
	if err != nil {
		return err
	}

	p := message.NewPrinter(language.English)
	q := strings.ToLower(*query)
	shown := 0
	for _, m := range markets {
		if q != "" && !strings.Contains(strings.ToLower(m.Question), q) {
			continue
		}

		yes := "?"
		if prices := m.OutcomePrices(); len(prices) > 0 && prices[0] != nil {
			yes = fmt.Sprintf("%.2f", *prices[0])
		}
		vol := 0.0
		if m.Volume24hr != nil {
			vol = m.Volume24hr.Float64()
		}
		p.Printf("%-10s yes=%-5s vol24h=%-12.0f %s\n", m.ID, yes, vol, m.Question)

		shown++
		if shown >= *limit {
			break
		}
	}
	p.Printf("\n%d markets shown\n", shown)
	return nil
}

func runBook(args []string) error {
	fs := flag.NewFlagSet("book", flag.ExitOnError)
	configPath := fs.String("config", "finny.toml", "path to config file")
	depth := fs.Int("depth", 5, "levels per side")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: finny book [flags] <token-id>")
	}
	tokenID := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := clob.NewClient(clob.WithBaseURL(cfg.Polymarket.ClobHost))
	summary, err := client.GetOrderBook(ctx, tokenID)
	if err != nil {
		return err
	}

	fmt.Print(book.FromSummary(summary).Render(*depth))
	return nil
}
