package generator

import (
	"fmt"
	"strings"

	"signalbot-go/internal/signal"
)

const systemPrompt = "You are a disciplined futures trading analyst. " +
	"You respond with a single JSON object and nothing else."

// buildPrompt embeds a bounded recent candle window plus summary statistics
// computed over the whole fetched window, and pins down the reply schema.
func buildPrompt(symbol string, candles []signal.Candle, stats signal.Stats, window int, timeframe string) string {
	recent := candles
	if len(recent) > window {
		recent = recent[len(recent)-window:]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the following %s market data for %s and provide a trading signal.\n\n", timeframe, symbol)
	fmt.Fprintf(&b, "Current Price: %.2f\n", stats.CurrentPrice)
	fmt.Fprintf(&b, "Period High: %.2f\n", stats.PeriodHigh)
	fmt.Fprintf(&b, "Period Low: %.2f\n", stats.PeriodLow)
	fmt.Fprintf(&b, "Period Volume: %.4f\n", stats.PeriodVolume)
	fmt.Fprintf(&b, "Price Change: %.2f%%\n\n", stats.PercentChange)

	fmt.Fprintf(&b, "Last %d candles (time, open, high, low, close, volume):\n", len(recent))
	for _, c := range recent {
		fmt.Fprintf(&b, "%d, %.2f, %.2f, %.2f, %.2f, %.4f\n", c.Time, c.Open, c.High, c.Low, c.Close, c.Volume)
	}

	b.WriteString("\nRespond with a single JSON object containing exactly these fields:\n")
	b.WriteString(`{"signal": "BUY/SELL/HOLD", "stop_price": number, "target_price": number, ` +
		`"confidence": 0.0-1.0, "timeframe": "string", "reasoning": "brief explanation"}` + "\n")
	b.WriteString("Be precise with price levels and provide realistic risk-reward ratios.\n")
	return b.String()
}
