package market

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"signalbot-go/internal/signal"
)

func TestFeedRunStubEmitsTicks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := NewFeed(ProviderStub, []string{"pi_xbtusd"}, zerolog.Nop())
	ticks := make(chan signal.Tick, 1)

	go func() {
		_ = feed.Run(ctx, ticks)
	}()

	select {
	case tk := <-ticks:
		if tk.Symbol != "pi_xbtusd" {
			t.Fatalf("unexpected symbol %s", tk.Symbol)
		}
		cancel()
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tick")
	}
}

func TestFeedRunPollEmitsTick(t *testing.T) {
	const body = `{"result":"success","tickers":[
		{"symbol":"PI_XBTUSD","last":64250.5,"lastSize":0.2},
		{"symbol":"PI_ETHUSD","last":3120.0,"lastSize":1.0}
	]}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/derivatives/api/v3/tickers" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := NewFeed(
		ProviderPoll,
		[]string{"pi_xbtusd"},
		zerolog.Nop(),
		WithFeedURLs(server.URL, ""),
		WithPollInterval(50*time.Millisecond),
	)

	ticks := make(chan signal.Tick, 1)
	errCh := make(chan error, 1)
	go func() {
		if err := feed.Run(ctx, ticks); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case tk := <-ticks:
		if tk.Symbol != "pi_xbtusd" {
			t.Fatalf("unexpected symbol %s", tk.Symbol)
		}
		if tk.Price != 64250.5 {
			t.Fatalf("price = %v", tk.Price)
		}
		cancel()
	case <-time.After(2 * time.Second):
		cancel()
		t.Fatal("timed out waiting for tick")
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("feed returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("feed did not stop after cancel")
	}
}

func TestParseTickerMessage(t *testing.T) {
	tick, ok := parseTickerMessage([]byte(`{"feed":"ticker","product_id":"PI_XBTUSD","last":64000,"time":1700000000000}`))
	if !ok {
		t.Fatal("expected ticker message to parse")
	}
	if tick.Symbol != "PI_XBTUSD" || tick.Price != 64000 {
		t.Fatalf("unexpected tick %+v", tick)
	}

	if _, ok := parseTickerMessage([]byte(`{"event":"subscribed","feed":"ticker"}`)); ok {
		t.Fatal("subscription ack must be skipped")
	}
	if _, ok := parseTickerMessage([]byte(`{"feed":"heartbeat"}`)); ok {
		t.Fatal("heartbeat must be skipped")
	}
	if _, ok := parseTickerMessage([]byte(`garbage`)); ok {
		t.Fatal("garbage must be skipped")
	}
}
