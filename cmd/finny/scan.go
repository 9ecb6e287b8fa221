package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/k-dang/finny/internal/config"
	"github.com/k-dang/finny/pkg/metrics"
	"github.com/k-dang/finny/pkg/polymarket/clob"
	"github.com/k-dang/finny/pkg/polymarket/gamma"
	"github.com/k-dang/finny/pkg/scan"
)

const disclaimer = "Heuristic research signals, not investment advice."

func newScanner(cfg *config.Config, stats *metrics.ScannerMetrics) *scan.Scanner {
	gammaClient := gamma.NewClient(gamma.WithBaseURL(cfg.Polymarket.GammaHost))
	clobClient := clob.NewClient(clob.WithBaseURL(cfg.Polymarket.ClobHost))
	return scan.NewScanner(
		&scan.GammaSource{Client: gammaClient},
		&scan.ClobSource{Client: clobClient},
		nil,
		stats,
	)
}

func scanParams(cfg *config.Config, minEdge float64, limit, maxMarkets int, trace bool) scan.ScanParams {
	p := scan.ScanParams{
		Concurrency: cfg.Scan.Concurrency,
		MaxMarkets:  maxMarkets,
	}
	p.MinEdgePct = minEdge
	p.IncludeTrace = trace
	if limit >= 0 {
		l := limit
		p.Limit = &l
	}
	if cfg.Scan.TimeHorizonHours > 0 {
		h := cfg.Scan.TimeHorizonHours
		p.TimeHorizonHours = &h
	}
	if cfg.Scan.MinVolume > 0 {
		v := cfg.Scan.MinVolume
		p.MinVolume = &v
	}
	if cfg.Scan.MaxSpreadBps > 0 {
		v := cfg.Scan.MaxSpreadBps
		p.MaxSpreadBps = &v
	}
	return p
}

func runScan(args []string) error {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	configPath := fs.String("config", "finny.toml", "path to config file")
	minEdge := fs.Float64("min-edge", 0, "minimum edge percent")
	limit := fs.Int("limit", -1, "maximum signals (config default when negative)")
	maxMarkets := fs.Int("max-markets", 0, "candidate market cap (config default when 0)")
	asJSON := fs.Bool("json", false, "emit the full report as JSON")
	trace := fs.Bool("trace", false, "include score component traces (JSON output only)")
	fs.Parse(args)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *limit < 0 {
		*limit = cfg.Scan.Limit
	}
	if *maxMarkets == 0 {
		*maxMarkets = cfg.Scan.MaxMarkets
	}
	if *minEdge == 0 {
		*minEdge = cfg.Scan.MinEdgePct
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scanner := newScanner(cfg, nil)
	report, err := scanner.Scan(ctx, scanParams(cfg, *minEdge, *limit, *maxMarkets, *trace))
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	printReport(report)
	return nil
}

func printReport(report *scan.ScanReport) {
	p := message.NewPrinter(language.English)

	p.Printf("scanned %d markets, %d signals (run %s)\n\n", report.MarketsScanned, len(report.Signals), report.RunID)

	for i, s := range report.Signals {
		p.Printf("%2d. [%5.1f] %s %s  edge %+.2f%%  (%s)\n",
			i+1, s.MispricingScore, s.Side, s.MarketSlug, s.EdgePct, s.Confidence)
		p.Printf("     market %.4f vs fair %.4f\n", s.MarketProb, s.FairProbProxy)
		for _, line := range s.Rationale {
			p.Printf("     - %s\n", line)
		}
		if len(s.RiskFlags) > 0 {
			p.Printf("     flags: %s\n", strings.Join(s.RiskFlags, ", "))
		}
	}

	if len(report.Warnings) > 0 {
		p.Printf("\n%d warnings (degraded data):\n", len(report.Warnings))
		for _, w := range report.Warnings {
			p.Printf("  ! %s\n", w)
		}
	}

	fmt.Println("\n" + disclaimer)
}

func runWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", "finny.toml", "path to config file")
	interval := fs.Duration("interval", 0, "scan interval (config default when 0)")
	fs.Parse(args)

	cfg, logger, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *interval == 0 {
		*interval = cfg.Watch.Interval.Duration
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stats := metrics.New()
	scanner := newScanner(cfg, stats)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(stats.Registry(), promhttp.HandlerOpts{}))
	server := &http.Server{Addr: cfg.Watch.MetricsAddr, Handler: mux}

	go func() {
		logger.Info("serving metrics", "addr", cfg.Watch.MetricsAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("watch loop started", "interval", *interval)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	params := scanParams(cfg, cfg.Scan.MinEdgePct, cfg.Scan.Limit, cfg.Scan.MaxMarkets, false)
	for {
		report, err := scanner.Scan(ctx, params)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Error("scan failed", "error", err)
		} else {
			logger.Info("scan finished",
				"markets", report.MarketsScanned,
				"signals", len(report.Signals),
				"warnings", len(report.Warnings))
			for _, s := range report.Signals {
				logger.Info("signal",
					"slug", s.MarketSlug,
					"side", s.Side,
					"score", s.MispricingScore,
					"edge_pct", s.EdgePct,
					"confidence", s.Confidence)
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
