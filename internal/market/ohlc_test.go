package market

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

const ohlcBody = `{
	"error": [],
	"result": {
		"XXBTZUSD": [
			[1688671200, "30306.1", "30306.2", "30305.7", "30305.7", "30306.1", "3.39243896", 23],
			[1688674800, "30305.7", "30310.0", "30300.1", "30308.4", "30306.0", "1.12000000", 11],
			[1688678400, "30308.4", "30320.5", "30308.0", "30315.2", "30312.7", "2.50000000", 17]
		],
		"last": 1688674800
	}
}`

func TestFetchParsesCandles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("pair"); got != "XBTUSD" {
			t.Errorf("pair = %q", got)
		}
		if got := r.URL.Query().Get("interval"); got != "60" {
			t.Errorf("interval = %q", got)
		}
		_, _ = w.Write([]byte(ohlcBody))
	}))
	defer server.Close()

	client := NewOHLCClient(zerolog.Nop(), WithOHLCBaseURL(server.URL))
	candles, err := client.Fetch(context.Background(), "XBTUSD")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(candles) != 3 {
		t.Fatalf("expected 3 candles, got %d", len(candles))
	}
	first := candles[0]
	if first.Time != 1688671200 || first.Open != 30306.1 || first.Close != 30305.7 {
		t.Fatalf("unexpected first candle %+v", first)
	}
	if first.Volume != 3.39243896 || first.Count != 23 {
		t.Fatalf("unexpected volume/count %+v", first)
	}
	last := candles[len(candles)-1]
	if last.Time != 1688678400 {
		t.Fatal("candles not ascending with latest last")
	}
}

func TestFetchDepthTruncation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(ohlcBody))
	}))
	defer server.Close()

	client := NewOHLCClient(zerolog.Nop(), WithOHLCBaseURL(server.URL), WithDepth(2))
	candles, err := client.Fetch(context.Background(), "XBTUSD")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("expected truncation to 2, got %d", len(candles))
	}
	if candles[1].Time != 1688678400 {
		t.Fatal("truncation must keep the most recent candles")
	}
}

func TestFetchExchangeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":["EQuery:Unknown asset pair"],"result":{}}`))
	}))
	defer server.Close()

	client := NewOHLCClient(zerolog.Nop(), WithOHLCBaseURL(server.URL))
	if _, err := client.Fetch(context.Background(), "NOPE"); !errors.Is(err, ErrMarketData) {
		t.Fatalf("expected ErrMarketData, got %v", err)
	}
}

func TestFetchMalformedPayload(t *testing.T) {
	cases := []string{
		`not json`,
		`{"error":[],"result":{}}`,
		`{"error":[],"result":{"XXBTZUSD":[[1688671200,"30306.1"]],"last":1}}`,
		`{"error":[],"result":{"XXBTZUSD":[[1688671200,"-1","2","1","2","2","1",3]],"last":1}}`,
	}
	for i, body := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))
		client := NewOHLCClient(zerolog.Nop(), WithOHLCBaseURL(server.URL))
		_, err := client.Fetch(context.Background(), "XBTUSD")
		server.Close()
		if !errors.Is(err, ErrMarketData) {
			t.Fatalf("case %d: expected ErrMarketData, got %v", i, err)
		}
	}
}

func TestFetchHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewOHLCClient(zerolog.Nop(), WithOHLCBaseURL(server.URL))
	if _, err := client.Fetch(context.Background(), "XBTUSD"); !errors.Is(err, ErrMarketData) {
		t.Fatalf("expected ErrMarketData, got %v", err)
	}
}
