package scan

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeLister struct {
	markets []Market
	err     error
}

func (f *fakeLister) ListScannable(ctx context.Context, maxMarkets int) ([]Market, error) {
	if f.err != nil {
		return nil, f.err
	}
	if maxMarkets > 0 && len(f.markets) > maxMarkets {
		return f.markets[:maxMarkets], nil
	}
	return f.markets, nil
}

type fakeFetcher struct {
	books  map[string]RawOrderbook
	failOn map[string]bool
}

func (f *fakeFetcher) FetchBook(ctx context.Context, tokenID string) (RawOrderbook, error) {
	if f.failOn[tokenID] {
		return RawOrderbook{}, errors.New("backend unavailable")
	}
	if raw, ok := f.books[tokenID]; ok {
		return raw, nil
	}
	return RawOrderbook{}, errors.New("unknown token")
}

func scannableMarket(id, token string) Market {
	m := healthyMarket()
	m.ID = id
	m.Slug = id
	m.ClobTokenIDs = []string{token, token + "-no"}
	return m
}

func rawBook(ts string) RawOrderbook {
	return RawOrderbook{
		Bids:      []PriceLevel{{Price: 0.44, Size: 100}},
		Asks:      []PriceLevel{{Price: 0.46, Size: 100}},
		Timestamp: ts,
	}
}

func TestScannerScan(t *testing.T) {
	lister := &fakeLister{markets: []Market{
		scannableMarket("m1", "t1"),
		scannableMarket("m2", "t2"),
	}}
	fetcher := &fakeFetcher{books: map[string]RawOrderbook{
		"t1": rawBook(testNow),
		"t2": rawBook(testNow),
	}}

	s := NewScanner(lister, fetcher, nil, nil)
	report, err := s.Scan(context.Background(), ScanParams{
		RankParams: RankParams{NowISO: testNow},
	})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if report.MarketsScanned != 2 {
		t.Errorf("Wrong scan count: %d", report.MarketsScanned)
	}
	if len(report.Signals) != 2 {
		t.Errorf("Expected 2 signals, got %d", len(report.Signals))
	}
	if report.RunID == "" {
		t.Error("Run ID should be set")
	}
	if report.GeneratedAt != testNow {
		t.Errorf("GeneratedAt should echo NowISO, got %s", report.GeneratedAt)
	}
	if len(report.Warnings) != 0 {
		t.Errorf("Healthy scan should have no warnings, got %v", report.Warnings)
	}
}

func TestScannerDegradesOnFetchFailure(t *testing.T) {
	lister := &fakeLister{markets: []Market{
		scannableMarket("m1", "t1"),
		scannableMarket("m2", "t2"),
	}}
	fetcher := &fakeFetcher{
		books:  map[string]RawOrderbook{"t1": rawBook(testNow)},
		failOn: map[string]bool{"t2": true},
	}

	s := NewScanner(lister, fetcher, nil, nil)
	report, err := s.Scan(context.Background(), ScanParams{
		RankParams: RankParams{NowISO: testNow, IncludeTrace: true},
	})
	if err != nil {
		t.Fatalf("Fetch failures should not abort the scan: %v", err)
	}

	if len(report.Signals) != 2 {
		t.Fatalf("Degraded market should still score, got %d signals", len(report.Signals))
	}
	if len(report.Warnings) != 1 {
		t.Fatalf("Expected 1 warning, got %v", report.Warnings)
	}
	if !strings.Contains(report.Warnings[0], "m2") {
		t.Errorf("Warning should name the failed market: %s", report.Warnings[0])
	}

	for _, tr := range report.Traces {
		if tr.MarketID == "m2" && tr.StalenessMinutes != nil {
			t.Error("Degraded market should score without an orderbook")
		}
	}
}

func TestScannerWarnsOnMissingToken(t *testing.T) {
	noToken := healthyMarket()
	noToken.ID = "m1"
	noToken.Slug = "m1"

	lister := &fakeLister{markets: []Market{noToken}}
	s := NewScanner(lister, &fakeFetcher{}, nil, nil)

	report, err := s.Scan(context.Background(), ScanParams{
		RankParams: RankParams{NowISO: testNow},
	})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(report.Warnings) != 1 || !strings.Contains(report.Warnings[0], "no tradable token") {
		t.Errorf("Tokenless market should warn, got %v", report.Warnings)
	}
	if len(report.Signals) != 1 {
		t.Errorf("Tokenless market should still score, got %d signals", len(report.Signals))
	}
}

func TestScannerRejectsNegativeConcurrency(t *testing.T) {
	s := NewScanner(&fakeLister{}, &fakeFetcher{}, nil, nil)

	_, err := s.Scan(context.Background(), ScanParams{Concurrency: -1})
	if !errors.Is(err, ErrInvalidConcurrency) {
		t.Errorf("Got error %v, want ErrInvalidConcurrency", err)
	}
}

func TestScannerPropagatesListError(t *testing.T) {
	s := NewScanner(&fakeLister{err: errors.New("gamma down")}, &fakeFetcher{}, nil, nil)

	_, err := s.Scan(context.Background(), ScanParams{})
	if err == nil || !strings.Contains(err.Error(), "gamma down") {
		t.Errorf("List errors should abort the scan, got %v", err)
	}
}

func TestScannerGroupsEventSiblings(t *testing.T) {
	m1 := scannableMarket("m1", "t1")
	m2 := scannableMarket("m2", "t2")
	m3 := scannableMarket("m3", "t3")
	m1.EventID, m2.EventID, m3.EventID = "e1", "e1", "e2"

	// Markets priced so the e1 partition is visibly underpriced.
	for _, m := range []*Market{&m1, &m2} {
		m.OutcomePrices = []*float64{ptr(0.30), ptr(0.70)}
	}

	lister := &fakeLister{markets: []Market{m1, m2, m3}}
	fetcher := &fakeFetcher{books: map[string]RawOrderbook{
		"t1": rawBook(testNow), "t2": rawBook(testNow), "t3": rawBook(testNow),
	}}

	s := NewScanner(lister, fetcher, nil, nil)
	report, err := s.Scan(context.Background(), ScanParams{
		RankParams: RankParams{NowISO: testNow, IncludeTrace: true},
	})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	for _, tr := range report.Traces {
		switch tr.MarketID {
		case "m1", "m2":
			if tr.PeerCount != 1 {
				t.Errorf("Market %s should see 1 peer, got %d", tr.MarketID, tr.PeerCount)
			}
		case "m3":
			if tr.PeerCount != 0 {
				t.Errorf("Lone market should see 0 peers, got %d", tr.PeerCount)
			}
		}
	}
}

func TestScannerDeterministicOrdering(t *testing.T) {
	lister := &fakeLister{markets: []Market{
		scannableMarket("mb", "t1"),
		scannableMarket("ma", "t2"),
		scannableMarket("mc", "t3"),
	}}
	fetcher := &fakeFetcher{books: map[string]RawOrderbook{
		"t1": rawBook(testNow), "t2": rawBook(testNow), "t3": rawBook(testNow),
	}}

	s := NewScanner(lister, fetcher, nil, nil)
	params := ScanParams{RankParams: RankParams{NowISO: testNow}, Concurrency: 4}

	first, err := s.Scan(context.Background(), params)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := s.Scan(context.Background(), params)
		if err != nil {
			t.Fatalf("Scan failed: %v", err)
		}
		for j := range first.Signals {
			if first.Signals[j].MarketSlug != again.Signals[j].MarketSlug {
				t.Fatalf("Ordering should be deterministic: run %d differs at %d", i, j)
			}
		}
	}
}
