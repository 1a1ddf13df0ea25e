// Package execution turns actionable signals into exchange orders.
package execution

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"signalbot-go/internal/kraken"
	"signalbot-go/internal/metrics"
	"signalbot-go/internal/signal"
)

// OrderAPI is the slice of the exchange client the executor needs.
type OrderAPI interface {
	SendOrder(ctx context.Context, params kraken.OrderParams) (*kraken.OrderResult, error)
}

// Executor submits a market entry plus protective stop and target orders for
// each directional signal.
type Executor struct {
	api  OrderAPI
	log  zerolog.Logger
	size float64
}

// NewExecutor builds an executor placing orders of the given contract size.
func NewExecutor(api OrderAPI, log zerolog.Logger, size float64) *Executor {
	return &Executor{api: api, log: log, size: size}
}

// Submit places the order bracket for a BUY or SELL signal. HOLD and
// fallback-gated signals should be filtered by the caller before this point.
func (e *Executor) Submit(ctx context.Context, symbol string, s signal.Signal) error {
	var entrySide, exitSide kraken.OrderSide
	switch s.Type {
	case signal.Buy:
		entrySide, exitSide = kraken.SideBuy, kraken.SideSell
	case signal.Sell:
		entrySide, exitSide = kraken.SideSell, kraken.SideBuy
	default:
		return fmt.Errorf("execution: signal %s is not actionable", s.Type)
	}

	entry := kraken.MarketOrder(symbol, entrySide, e.size)
	entry.CliOrdID = uuid.NewString()
	res, err := e.api.SendOrder(ctx, entry)
	if err != nil {
		return fmt.Errorf("entry order: %w", err)
	}
	metrics.OrdersTotal.WithLabelValues(symbol, string(entrySide)).Inc()
	e.log.Info().Str("symbol", symbol).Str("side", string(entrySide)).
		Str("order_id", res.SendStatus.OrderID).Float64("size", e.size).Msg("entry order placed")

	if s.StopPrice > 0 {
		stop := kraken.StopOrder(symbol, exitSide, e.size, s.StopPrice, 0)
		stop.ReduceOnly = true
		stop.CliOrdID = uuid.NewString()
		if _, err := e.api.SendOrder(ctx, stop); err != nil {
			return fmt.Errorf("stop order: %w", err)
		}
		metrics.OrdersTotal.WithLabelValues(symbol, string(exitSide)).Inc()
	}

	if s.TargetPrice > 0 {
		target := kraken.LimitOrder(symbol, exitSide, e.size, s.TargetPrice)
		target.ReduceOnly = true
		target.CliOrdID = uuid.NewString()
		if _, err := e.api.SendOrder(ctx, target); err != nil {
			return fmt.Errorf("target order: %w", err)
		}
		metrics.OrdersTotal.WithLabelValues(symbol, string(exitSide)).Inc()
	}

	return nil
}
