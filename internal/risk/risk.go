// Package risk encodes guard-rails for when and how large the bot may trade.
package risk

import "signalbot-go/internal/signal"

// Limits gates order submission. The zero value trades nothing.
type Limits struct {
	MaxNotionalPerTrade float64
	MinConfidence       float64
	TradeFallback       bool
}

// Allow reports whether a trade of the given notional fits the per-trade cap.
func (l Limits) Allow(notional float64) bool {
	return notional > 0 && notional <= l.MaxNotionalPerTrade
}

// AllowSignal reports whether a signal is actionable: directional, confident
// enough, and not a low-trust fallback unless those are explicitly enabled.
func (l Limits) AllowSignal(s signal.Signal) bool {
	if s.Type != signal.Buy && s.Type != signal.Sell {
		return false
	}
	if s.Source == signal.SourceFallback && !l.TradeFallback {
		return false
	}
	return s.Confidence >= l.MinConfidence
}
