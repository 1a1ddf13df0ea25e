// Package market acquires market data: historical OHLC windows for the
// signal pipeline and live ticker streams for monitoring.
package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"signalbot-go/internal/signal"
)

// DefaultOHLCBaseURL targets Kraken's public spot market-data API.
const DefaultOHLCBaseURL = "https://api.kraken.com"

// ErrMarketData marks a rejected or malformed candle response. Terminal for a
// pipeline run; there is no candle to fall back on.
var ErrMarketData = errors.New("market: market data error")

// OHLCClient fetches recent candle windows from the public OHLC endpoint.
type OHLCClient struct {
	baseURL  string
	http     *http.Client
	log      zerolog.Logger
	interval int // minutes per candle
	depth    int // candles returned, most recent last
}

// OHLCOption configures OHLCClient construction parameters.
type OHLCOption func(*OHLCClient)

// WithOHLCBaseURL points the client at a different host (tests).
func WithOHLCBaseURL(u string) OHLCOption {
	return func(c *OHLCClient) {
		if u != "" {
			c.baseURL = strings.TrimSuffix(u, "/")
		}
	}
}

// WithOHLCHTTPClient overrides the default HTTP transport.
func WithOHLCHTTPClient(h *http.Client) OHLCOption {
	return func(c *OHLCClient) {
		if h != nil {
			c.http = h
		}
	}
}

// WithInterval sets the candle interval in minutes.
func WithInterval(minutes int) OHLCOption {
	return func(c *OHLCClient) {
		if minutes > 0 {
			c.interval = minutes
		}
	}
}

// WithDepth sets how many of the most recent candles Fetch returns.
func WithDepth(n int) OHLCOption {
	return func(c *OHLCClient) {
		if n > 0 {
			c.depth = n
		}
	}
}

// NewOHLCClient builds a client with hourly candles and a 50-candle window by
// default.
func NewOHLCClient(log zerolog.Logger, opts ...OHLCOption) *OHLCClient {
	c := &OHLCClient{
		baseURL:  DefaultOHLCBaseURL,
		http:     &http.Client{Timeout: 15 * time.Second},
		log:      log,
		interval: 60,
		depth:    50,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type ohlcResponse struct {
	Error  []string                   `json:"error"`
	Result map[string]json.RawMessage `json:"result"`
}

// Fetch returns up to depth candles for pair, chronologically ascending with
// the most recent candle last. Exchange-reported errors and malformed
// payloads surface as ErrMarketData.
func (c *OHLCClient) Fetch(ctx context.Context, pair string) ([]signal.Candle, error) {
	q := url.Values{}
	q.Set("pair", pair)
	q.Set("interval", strconv.Itoa(c.interval))
	reqURL := c.baseURL + "/0/public/OHLC?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: http do: %v", ErrMarketData, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrMarketData, resp.StatusCode)
	}

	var payload ohlcResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrMarketData, err)
	}
	if len(payload.Error) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMarketData, strings.Join(payload.Error, "; "))
	}

	candles, err := extractSeries(payload.Result)
	if err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("%w: empty candle series for %s", ErrMarketData, pair)
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].Time < candles[j].Time })
	if len(candles) > c.depth {
		candles = candles[len(candles)-c.depth:]
	}
	c.log.Debug().Str("pair", pair).Int("candles", len(candles)).Msg("fetched ohlc window")
	return candles, nil
}

// extractSeries pulls the single keyed candle series out of the result,
// skipping the pagination cursor.
func extractSeries(result map[string]json.RawMessage) ([]signal.Candle, error) {
	for key, raw := range result {
		if key == "last" {
			continue
		}
		var rows [][]json.RawMessage
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("%w: decode series %s: %v", ErrMarketData, key, err)
		}
		candles := make([]signal.Candle, 0, len(rows))
		for _, row := range rows {
			candle, err := parseRow(row)
			if err != nil {
				return nil, err
			}
			candles = append(candles, candle)
		}
		return candles, nil
	}
	return nil, fmt.Errorf("%w: response has no candle series", ErrMarketData)
}

// parseRow maps [time, open, high, low, close, vwap, volume, count] onto a
// Candle. Price and volume fields arrive as strings or numbers.
func parseRow(row []json.RawMessage) (signal.Candle, error) {
	if len(row) < 8 {
		return signal.Candle{}, fmt.Errorf("%w: candle row has %d fields, want 8", ErrMarketData, len(row))
	}
	fields := make([]float64, 8)
	for i, raw := range row[:8] {
		f, err := rawFloat(raw)
		if err != nil {
			return signal.Candle{}, fmt.Errorf("%w: candle field %d: %v", ErrMarketData, i, err)
		}
		fields[i] = f
	}
	candle := signal.Candle{
		Time:   int64(fields[0]),
		Open:   fields[1],
		High:   fields[2],
		Low:    fields[3],
		Close:  fields[4],
		VWAP:   fields[5],
		Volume: fields[6],
		Count:  int64(fields[7]),
	}
	if candle.Open < 0 || candle.High < 0 || candle.Low < 0 || candle.Close < 0 || candle.Volume < 0 || candle.Count < 0 {
		return signal.Candle{}, fmt.Errorf("%w: negative candle values at t=%d", ErrMarketData, candle.Time)
	}
	return candle, nil
}

// rawFloat decodes a JSON number or a numeric string.
func rawFloat(raw json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strconv.ParseFloat(s, 64)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, err
	}
	return f, nil
}
