package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"signalbot-go/internal/metrics"
	"signalbot-go/internal/signal"
)

const (
	// ProviderStub emits deterministic synthetic ticks (useful for tests/offline work).
	ProviderStub = "stub"
	// ProviderPoll polls the futures tickers REST endpoint.
	ProviderPoll = "poll"
	// ProviderWebsocket streams the futures ticker websocket feed.
	ProviderWebsocket = "websocket"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultTickerURL    = "https://futures.kraken.com"
	defaultWebsocketURL = "wss://futures.kraken.com/ws/v1"
)

// Feed represents a pluggable live price stream implementation.
type Feed struct {
	provider     string
	symbols      []string
	log          zerolog.Logger
	pollInterval time.Duration
	tickerURL    string
	websocketURL string
	lastPrices   map[string]float64
	mu           sync.RWMutex
}

// FeedOption configures Feed construction parameters.
type FeedOption func(*Feed)

// WithPollInterval overrides the default polling cadence for the REST provider.
func WithPollInterval(d time.Duration) FeedOption {
	return func(f *Feed) {
		if d > 0 {
			f.pollInterval = d
		}
	}
}

// WithFeedURLs injects REST and websocket endpoints (demo env, tests).
func WithFeedURLs(tickerURL, websocketURL string) FeedOption {
	return func(f *Feed) {
		if tickerURL != "" {
			f.tickerURL = strings.TrimSuffix(tickerURL, "/")
		}
		if websocketURL != "" {
			f.websocketURL = websocketURL
		}
	}
}

// NewFeed constructs a feed backed by the requested provider.
func NewFeed(provider string, symbols []string, log zerolog.Logger, opts ...FeedOption) *Feed {
	if provider == "" {
		provider = ProviderStub
	}
	f := &Feed{
		provider:     strings.ToLower(provider),
		log:          log,
		pollInterval: defaultPollInterval,
		tickerURL:    defaultTickerURL,
		websocketURL: defaultWebsocketURL,
		lastPrices:   make(map[string]float64),
	}
	f.setSymbols(symbols)
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Feed) setSymbols(symbols []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	unique := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		sym = strings.TrimSpace(strings.ToLower(sym))
		if sym == "" {
			continue
		}
		unique[sym] = struct{}{}
	}
	f.symbols = f.symbols[:0]
	for sym := range unique {
		f.symbols = append(f.symbols, sym)
	}
	sort.Strings(f.symbols)
}

func (f *Feed) snapshotSymbols() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, len(f.symbols))
	copy(out, f.symbols)
	return out
}

// Run pushes ticks onto the provided channel until the context is canceled.
func (f *Feed) Run(ctx context.Context, out chan<- signal.Tick) error {
	switch f.provider {
	case ProviderPoll:
		return f.runPoll(ctx, out)
	case ProviderWebsocket:
		return f.runWebsocket(ctx, out)
	default:
		return f.runStub(ctx, out)
	}
}

func (f *Feed) runStub(ctx context.Context, out chan<- signal.Tick) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	px := 100.0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ts := <-ticker.C:
			px += 0.1
			for _, s := range f.snapshotSymbols() {
				tick := signal.Tick{Symbol: s, Price: px, Size: 1, Side: 1, Ts: ts}
				select {
				case out <- tick:
					metrics.TicksTotal.WithLabelValues(s).Inc()
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}

type tickersResponse struct {
	Result  string         `json:"result"`
	Tickers []tickerRecord `json:"tickers"`
}

type tickerRecord struct {
	Symbol   string  `json:"symbol"`
	Last     float64 `json:"last"`
	LastSize float64 `json:"lastSize"`
}

func (f *Feed) runPoll(ctx context.Context, out chan<- signal.Tick) error {
	client := &http.Client{Timeout: 10 * time.Second}
	if err := f.pollTickers(ctx, client, out); err != nil && !errors.Is(err, context.Canceled) {
		f.log.Warn().Err(err).Msg("initial ticker poll failed")
	}

	ticker := time.NewTicker(f.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := f.pollTickers(ctx, client, out); err != nil && !errors.Is(err, context.Canceled) {
				f.log.Warn().Err(err).Msg("ticker poll failed")
			}
		}
	}
}

func (f *Feed) pollTickers(ctx context.Context, client *http.Client, out chan<- signal.Tick) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.tickerURL+"/derivatives/api/v3/tickers", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload tickersResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	wanted := make(map[string]struct{})
	for _, s := range f.snapshotSymbols() {
		wanted[s] = struct{}{}
	}
	now := time.Now().UTC()
	for _, rec := range payload.Tickers {
		sym := strings.ToLower(rec.Symbol)
		if _, ok := wanted[sym]; !ok || rec.Last <= 0 {
			continue
		}
		tick := signal.Tick{
			Symbol: sym,
			Price:  rec.Last,
			Size:   math.Max(rec.LastSize, 0),
			Side:   f.sideFromLast(sym, rec.Last),
			Ts:     now,
		}
		select {
		case out <- tick:
			metrics.TicksTotal.WithLabelValues(sym).Inc()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (f *Feed) sideFromLast(symbol string, price float64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	last := f.lastPrices[symbol]
	f.lastPrices[symbol] = price
	if last > 0 && price < last {
		return -1
	}
	return 1
}
