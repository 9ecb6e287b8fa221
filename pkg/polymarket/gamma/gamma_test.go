package gamma

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListMarkets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/markets" {
			t.Errorf("Wrong path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("active") != "true" {
			t.Errorf("Wrong active param: %s", r.URL.Query().Get("active"))
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			{
				"id": "512",
				"question": "Will it rain tomorrow?",
				"slug": "will-it-rain",
				"active": true,
				"acceptingOrders": true,
				"outcomes": "[\"Yes\", \"No\"]",
				"outcomePrices": "[\"0.42\", \"0.58\"]",
				"clobTokenIds": "[\"token1\", \"token2\"]",
				"volume24hr": "12345.67",
				"liquidity": 50000,
				"bestBid": "0.41",
				"bestAsk": 0.43,
				"events": [{"id": "ev9", "slug": "weather", "title": "Weather"}]
			}
		]`)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	markets, err := client.ListMarkets(context.Background(), &MarketsFilter{Active: BoolPtr(true)})
	if err != nil {
		t.Fatalf("ListMarkets failed: %v", err)
	}
	if len(markets) != 1 {
		t.Fatalf("Expected 1 market, got %d", len(markets))
	}

	m := markets[0]
	if m.ID != "512" {
		t.Errorf("Wrong ID: %s", m.ID)
	}
	if got := m.Outcomes(); len(got) != 2 || got[0] != "Yes" {
		t.Errorf("Wrong outcomes: %v", got)
	}
	if got := m.ClobTokenIDs(); len(got) != 2 || got[1] != "token2" {
		t.Errorf("Wrong token IDs: %v", got)
	}
	prices := m.OutcomePrices()
	if len(prices) != 2 || prices[0] == nil || *prices[0] != 0.42 {
		t.Errorf("Wrong outcome prices: %v", prices)
	}

	// String and number forms both land as floats.
	if m.Volume24hr == nil || m.Volume24hr.Float64() != 12345.67 {
		t.Errorf("Wrong volume24hr: %v", m.Volume24hr)
	}
	if m.Liquidity == nil || m.Liquidity.Float64() != 50000 {
		t.Errorf("Wrong liquidity: %v", m.Liquidity)
	}
	if m.BestBid == nil || m.BestBid.Float64() != 0.41 {
		t.Errorf("Wrong bestBid: %v", m.BestBid)
	}
	if m.BestAsk == nil || m.BestAsk.Float64() != 0.43 {
		t.Errorf("Wrong bestAsk: %v", m.BestAsk)
	}

	// Absent fields stay nil.
	if m.Spread != nil {
		t.Errorf("Spread should be nil when omitted, got %v", m.Spread)
	}
	if m.OneHourPriceChange != nil {
		t.Errorf("OneHourPriceChange should be nil when omitted")
	}

	if m.EventGroupID() != "ev9" {
		t.Errorf("Wrong event group: %s", m.EventGroupID())
	}
}

func TestListMarketsMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"error": "upstream hiccup"}`)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	_, err := client.ListMarkets(context.Background(), nil)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("Non-array body should give ErrMalformedResponse, got %v", err)
	}
}

func TestGetMarket(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/markets/512" {
			t.Errorf("Wrong path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id": "512", "question": "Will it rain tomorrow?"}`)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	market, err := client.GetMarket(context.Background(), "512")
	if err != nil {
		t.Fatalf("GetMarket failed: %v", err)
	}
	if market.Question != "Will it rain tomorrow?" {
		t.Errorf("Wrong question: %s", market.Question)
	}
}

func TestGetMarketBySlugNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	_, err := client.GetMarketBySlug(context.Background(), "nope")
	if err == nil {
		t.Error("Missing slug should be an error")
	}
}

func TestGetEvent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/events/ev9" {
			t.Errorf("Wrong path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id": "ev9",
			"title": "Weather",
			"markets": [{"id": "512"}, {"id": "513"}]
		}`)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	event, err := client.GetEvent(context.Background(), "ev9")
	if err != nil {
		t.Fatalf("GetEvent failed: %v", err)
	}
	if len(event.Markets) != 2 {
		t.Errorf("Expected 2 markets, got %d", len(event.Markets))
	}
}

func TestListTradeableMarketsPagination(t *testing.T) {
	var offsets []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offsets = append(offsets, r.URL.Query().Get("offset"))
		w.Header().Set("Content-Type", "application/json")
		if len(offsets) == 1 {
			// Full page: one tradeable, rest filtered out.
			fmt.Fprint(w, `[`)
			for i := 0; i < 100; i++ {
				if i > 0 {
					fmt.Fprint(w, ",")
				}
				tradeable := "false"
				if i == 0 {
					tradeable = "true"
				}
				fmt.Fprintf(w, `{"id": "m%d", "active": %s, "acceptingOrders": %s, "clobTokenIds": "[\"t%d\"]"}`,
					i, tradeable, tradeable, i)
			}
			fmt.Fprint(w, `]`)
			return
		}
		// Short second page ends pagination.
		fmt.Fprint(w, `[{"id": "m100", "active": true, "acceptingOrders": true, "clobTokenIds": "[\"t100\"]"}]`)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	markets, err := client.ListTradeableMarkets(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListTradeableMarkets failed: %v", err)
	}

	if len(offsets) != 2 {
		t.Fatalf("Expected 2 pages, got %d", len(offsets))
	}
	if len(markets) != 2 {
		t.Errorf("Expected 2 tradeable markets, got %d", len(markets))
	}
}

func TestListTradeableMarketsMaxCap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[`)
		for i := 0; i < 100; i++ {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"id": "m%d", "active": true, "acceptingOrders": true, "clobTokenIds": "[\"t%d\"]"}`, i, i)
		}
		fmt.Fprint(w, `]`)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	markets, err := client.ListTradeableMarkets(context.Background(), 5)
	if err != nil {
		t.Fatalf("ListTradeableMarkets failed: %v", err)
	}
	if len(markets) != 5 {
		t.Errorf("Cap of 5 should truncate, got %d", len(markets))
	}
}

func TestGetAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	_, err := client.GetMarket(context.Background(), "512")
	if err == nil {
		t.Error("Non-200 status should be an error")
	}
}
