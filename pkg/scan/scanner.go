package scan

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/k-dang/finny/pkg/metrics"
)

const (
	defaultConcurrency = 6
	maxConcurrency     = 12
)

// MarketLister supplies candidate markets for a scan.
type MarketLister interface {
	ListScannable(ctx context.Context, maxMarkets int) ([]Market, error)
}

// BookFetcher fetches the raw order book for one outcome token.
type BookFetcher interface {
	FetchBook(ctx context.Context, tokenID string) (RawOrderbook, error)
}

// Scanner feeds the scoring engine: it lists candidate markets, fetches
// order books with a bounded worker pool, groups event siblings, and ranks.
type Scanner struct {
	lister MarketLister
	books  BookFetcher
	log    *slog.Logger
	stats  *metrics.ScannerMetrics
	cfg    ScoreConfig
}

// NewScanner creates a scanner. logger and stats may be nil.
func NewScanner(lister MarketLister, books BookFetcher, logger *slog.Logger, stats *metrics.ScannerMetrics) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		lister: lister,
		books:  books,
		log:    logger,
		stats:  stats,
		cfg:    DefaultScoreConfig(),
	}
}

// ScanParams controls a full scan. Zero values take defaults.
type ScanParams struct {
	RankParams

	// Concurrency bounds the order-book fetch pool; 0 means the default
	// of 6, values above 12 are clamped, negative values are rejected.
	Concurrency int

	// MaxMarkets caps how many candidate markets are listed; 0 means the
	// lister's natural page-out.
	MaxMarkets int
}

// ScanReport is the output of one scan run.
type ScanReport struct {
	RunID          string             `json:"run_id"`
	GeneratedAt    string             `json:"generated_at"`
	MarketsScanned int                `json:"markets_scanned"`
	Signals        []MispricingSignal `json:"signals"`
	Traces         []MispricingTrace  `json:"traces,omitempty"`
	Warnings       []string           `json:"warnings,omitempty"`
}

// Scan runs a full mispricing scan. Parameter validation fails the whole
// call eagerly; per-market data problems degrade individual signals instead.
func (s *Scanner) Scan(ctx context.Context, p ScanParams) (*ScanReport, error) {
	start := time.Now()
	report, err := s.scan(ctx, p, start)
	if s.stats != nil {
		scanned, failures := 0, 0
		if report != nil {
			scanned = report.MarketsScanned
			failures = len(report.Warnings)
		}
		s.stats.ObserveScan(time.Since(start), scanned, failures, err)
		if report != nil {
			for _, sig := range report.Signals {
				s.stats.ObserveSignal(string(sig.Confidence), sig.MispricingScore)
			}
		}
	}
	return report, err
}

func (s *Scanner) scan(ctx context.Context, p ScanParams, start time.Time) (*ScanReport, error) {
	if p.Concurrency < 0 {
		return nil, ErrInvalidConcurrency
	}
	if err := p.RankParams.validate(); err != nil {
		return nil, err
	}

	concurrency := p.Concurrency
	if concurrency == 0 {
		concurrency = defaultConcurrency
	}
	if concurrency > maxConcurrency {
		concurrency = maxConcurrency
	}

	nowISO := p.NowISO
	if nowISO == "" {
		nowISO = start.UTC().Format(time.RFC3339Nano)
	}

	runID := uuid.NewString()
	log := s.log.With("run_id", runID)

	markets, err := s.lister.ListScannable(ctx, p.MaxMarkets)
	if err != nil {
		return nil, fmt.Errorf("list markets: %w", err)
	}
	log.Info("listed candidate markets", "count", len(markets))

	books, warnings := s.fetchBooks(ctx, markets, concurrency)

	siblings := groupSiblings(markets)
	candidates := make([]Candidate, 0, len(markets))
	for i, m := range markets {
		candidates = append(candidates, Candidate{
			Market:    m,
			Orderbook: books[i],
			Related:   siblingsOf(siblings[m.EventID], m.ID),
		})
	}

	rp := p.RankParams
	rp.NowISO = nowISO
	result, err := RankWith(s.cfg, candidates, rp)
	if err != nil {
		return nil, err
	}

	log.Info("scan complete",
		"markets", len(markets),
		"signals", len(result.Signals),
		"warnings", len(warnings),
		"elapsed", time.Since(start).Round(time.Millisecond))

	return &ScanReport{
		RunID:          runID,
		GeneratedAt:    nowISO,
		MarketsScanned: len(markets),
		Signals:        result.Signals,
		Traces:         result.Traces,
		Warnings:       warnings,
	}, nil
}

// fetchBooks fetches order books with a fixed pool of workers pulling from a
// shared index cursor. A failed or missing fetch yields a nil snapshot and a
// warning; it never aborts the batch.
func (s *Scanner) fetchBooks(ctx context.Context, markets []Market, concurrency int) ([]*OrderbookSnapshot, []string) {
	books := make([]*OrderbookSnapshot, len(markets))

	var (
		cursor   atomic.Int64
		mu       sync.Mutex
		warnings []string
	)

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < concurrency; w++ {
		g.Go(func() error {
			for {
				i := int(cursor.Add(1)) - 1
				if i >= len(markets) {
					return nil
				}
				if err := ctx.Err(); err != nil {
					return err
				}

				m := markets[i]
				tokenID := scoreTokenID(m)
				if tokenID == "" {
					mu.Lock()
					warnings = append(warnings, fmt.Sprintf("market %s: no tradable token, scoring without orderbook", m.ID))
					mu.Unlock()
					continue
				}

				raw, err := s.books.FetchBook(ctx, tokenID)
				if err != nil {
					mu.Lock()
					warnings = append(warnings, fmt.Sprintf("market %s: orderbook fetch failed: %v", m.ID, err))
					mu.Unlock()
					s.log.Warn("orderbook fetch failed", "market_id", m.ID, "token_id", tokenID, "error", err)
					continue
				}

				snap := NormalizeOrderbook(raw)
				books[i] = &snap
			}
		})
	}

	// Worker errors are only context cancellation; degraded markets are
	// already recorded as warnings.
	_ = g.Wait()

	return books, warnings
}

// groupSiblings indexes markets by event so each candidate can see the other
// contracts in its partition. Markets without an event ID get no siblings.
func groupSiblings(markets []Market) map[string][]Market {
	byEvent := make(map[string][]Market)
	for _, m := range markets {
		if m.EventID == "" {
			continue
		}
		byEvent[m.EventID] = append(byEvent[m.EventID], m)
	}
	return byEvent
}

// siblingsOf returns the event group without the subject market itself.
func siblingsOf(group []Market, selfID string) []Market {
	if len(group) == 0 {
		return nil
	}
	out := make([]Market, 0, len(group)-1)
	for _, m := range group {
		if m.ID != selfID {
			out = append(out, m)
		}
	}
	return out
}
