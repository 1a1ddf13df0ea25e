package market

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/gorilla/websocket"

	"signalbot-go/internal/metrics"
	"signalbot-go/internal/signal"
)

type wsSubscribe struct {
	Event      string   `json:"event"`
	Feed       string   `json:"feed"`
	ProductIDs []string `json:"product_ids"`
}

type wsTicker struct {
	Feed      string  `json:"feed"`
	ProductID string  `json:"product_id"`
	Last      float64 `json:"last"`
	Time      int64   `json:"time"` // milliseconds
}

func (f *Feed) runWebsocket(ctx context.Context, out chan<- signal.Tick) error {
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := f.consumeWebsocket(ctx, out); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.log.Warn().Err(err).Msg("ticker feed disconnected, retrying")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
			continue
		}
		return nil
	}
}

func (f *Feed) consumeWebsocket(ctx context.Context, out chan<- signal.Tick) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, f.websocketURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	symbols := f.snapshotSymbols()
	sub := wsSubscribe{Event: "subscribe", Feed: "ticker", ProductIDs: symbols}
	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteJSON(sub); err != nil {
		return err
	}
	f.log.Info().Strs("symbols", symbols).Msg("connected ticker feed")

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		return nil
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					f.log.Warn().Err(err).Msg("ticker ping failed")
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		tick, ok := parseTickerMessage(message)
		if !ok {
			continue
		}
		tick.Side = f.sideFromLast(tick.Symbol, tick.Price)

		select {
		case out <- tick:
			metrics.TicksTotal.WithLabelValues(tick.Symbol).Inc()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// parseTickerMessage extracts a tick from a ticker feed message; other feed
// events (subscription acks, heartbeats) are skipped.
func parseTickerMessage(message []byte) (signal.Tick, bool) {
	var rec wsTicker
	if err := json.Unmarshal(message, &rec); err != nil {
		return signal.Tick{}, false
	}
	if rec.Feed != "ticker" || rec.ProductID == "" || rec.Last <= 0 {
		return signal.Tick{}, false
	}
	ts := time.Now().UTC()
	if rec.Time > 0 {
		ts = time.UnixMilli(rec.Time)
	}
	return signal.Tick{Symbol: rec.ProductID, Price: rec.Last, Size: 0, Ts: ts}, true
}
