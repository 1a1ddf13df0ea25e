// Package generator runs the signal acquisition pipeline: fetch a candle
// window, ask the inference endpoint to classify it, validate the structured
// reply, and fall back to a deterministic rule when the model is unavailable.
package generator

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"signalbot-go/internal/deepseek"
	"signalbot-go/internal/metrics"
	"signalbot-go/internal/signal"
)

// MarketSource fetches the recent candle window for a symbol.
type MarketSource interface {
	Fetch(ctx context.Context, symbol string) ([]signal.Candle, error)
}

// ModelClient calls the inference endpoint and returns the raw completion
// content.
type ModelClient interface {
	ChatJSON(ctx context.Context, system, user string) (string, error)
}

const (
	defaultAttempts     = 3
	defaultBaseDelay    = 2 * time.Second
	defaultPromptWindow = 10
	defaultTimeframe    = "1h"

	fallbackConfidence = 0.5
	fallbackReasoning  = "model unavailable; direction taken from the latest candle"
)

// Generator orchestrates one pipeline run per symbol per call. Runs share no
// mutable state and are safe to execute concurrently across symbols.
type Generator struct {
	market       MarketSource
	model        ModelClient
	log          zerolog.Logger
	attempts     int
	baseDelay    time.Duration
	promptWindow int
	timeframe    string
	sleep        func(ctx context.Context, d time.Duration) error
}

// GenOption configures Generator construction parameters.
type GenOption func(*Generator)

// WithAttempts bounds the number of model call attempts per run.
func WithAttempts(n int) GenOption {
	return func(g *Generator) {
		if n > 0 {
			g.attempts = n
		}
	}
}

// WithBaseDelay sets the base backoff delay between attempts.
func WithBaseDelay(d time.Duration) GenOption {
	return func(g *Generator) {
		if d > 0 {
			g.baseDelay = d
		}
	}
}

// WithPromptWindow bounds how many recent candles are embedded in the prompt.
func WithPromptWindow(n int) GenOption {
	return func(g *Generator) {
		if n > 0 {
			g.promptWindow = n
		}
	}
}

// WithTimeframe sets the timeframe description attached to signals when the
// model omits one.
func WithTimeframe(tf string) GenOption {
	return func(g *Generator) {
		if tf != "" {
			g.timeframe = tf
		}
	}
}

// withSleeper replaces the backoff wait so tests run without real delays.
func withSleeper(fn func(ctx context.Context, d time.Duration) error) GenOption {
	return func(g *Generator) { g.sleep = fn }
}

// New builds a generator with the default retry budget (3 attempts, 2s base
// delay).
func New(market MarketSource, model ModelClient, log zerolog.Logger, opts ...GenOption) *Generator {
	g := &Generator{
		market:       market,
		model:        model,
		log:          log,
		attempts:     defaultAttempts,
		baseDelay:    defaultBaseDelay,
		promptWindow: defaultPromptWindow,
		timeframe:    defaultTimeframe,
		sleep:        sleepContext,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Generate runs the pipeline for one symbol. Market data failure is terminal
// and surfaces as an error; model failures are absorbed into a
// fallback-tagged signal; context cancellation surfaces as ctx.Err() and
// never as a fallback.
func (g *Generator) Generate(ctx context.Context, symbol string) (*signal.Signal, error) {
	candles, err := g.market.Fetch(ctx, symbol)
	if err != nil {
		return nil, err
	}
	stats := signal.ComputeStats(candles)
	prompt := buildPrompt(symbol, candles, stats, g.promptWindow, g.timeframe)

	result, err := g.callWithRetry(ctx, symbol, prompt)
	if err != nil {
		return nil, err
	}
	if result == nil {
		fb := fallbackSignal(symbol, candles, g.timeframe)
		metrics.SignalsTotal.WithLabelValues(symbol, string(signal.SourceFallback)).Inc()
		g.log.Info().Str("symbol", symbol).Str("type", string(fb.Type)).Msg("fallback signal")
		return fb, nil
	}

	out := g.buildAISignal(symbol, stats, result)
	metrics.SignalsTotal.WithLabelValues(symbol, string(signal.SourceAI)).Inc()
	g.log.Info().
		Str("symbol", symbol).
		Str("type", string(out.Type)).
		Float64("stop", out.StopPrice).
		Float64("target", out.TargetPrice).
		Float64("confidence", out.Confidence).
		Msg("ai signal")
	return out, nil
}

// callWithRetry drives the bounded attempt loop. A nil result with nil error
// means the budget is exhausted (or an auth failure aborted early) and the
// caller should fall back.
func (g *Generator) callWithRetry(ctx context.Context, symbol, prompt string) (*modelSignal, error) {
	for attempt := 1; attempt <= g.attempts; attempt++ {
		content, err := g.model.ChatJSON(ctx, systemPrompt, prompt)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, deepseek.ErrAuth) {
				metrics.ModelCallsTotal.WithLabelValues("auth_error").Inc()
				g.log.Warn().Err(err).Str("symbol", symbol).Msg("model auth failure, not retrying")
				return nil, nil
			}
			delay := g.baseDelay
			outcome := "transport_error"
			if errors.Is(err, deepseek.ErrRateLimited) {
				delay = g.baseDelay * time.Duration(attempt)
				outcome = "rate_limited"
			}
			metrics.ModelCallsTotal.WithLabelValues(outcome).Inc()
			g.log.Warn().Err(err).Str("symbol", symbol).Int("attempt", attempt).Msg("model call failed")
			if attempt < g.attempts {
				if err := g.sleep(ctx, delay); err != nil {
					return nil, err
				}
			}
			continue
		}

		result, err := parseModelSignal(content)
		if err != nil {
			metrics.ModelCallsTotal.WithLabelValues("invalid_response").Inc()
			g.log.Warn().Err(err).Str("symbol", symbol).Int("attempt", attempt).Msg("model response invalid")
			if attempt < g.attempts {
				if err := g.sleep(ctx, g.baseDelay); err != nil {
					return nil, err
				}
			}
			continue
		}
		metrics.ModelCallsTotal.WithLabelValues("ok").Inc()
		return result, nil
	}
	return nil, nil
}

func (g *Generator) buildAISignal(symbol string, stats signal.Stats, m *modelSignal) *signal.Signal {
	timeframe := m.timeframe
	if timeframe == "" {
		timeframe = g.timeframe
	}
	out := signal.Signal{
		Type:         signal.ParseType(m.signal),
		Symbol:       symbol,
		CurrentPrice: stats.CurrentPrice,
		StopPrice:    m.stopPrice,
		TargetPrice:  m.targetPrice,
		Confidence:   signal.NormalizeConfidence(m.confidence),
		Timeframe:    timeframe,
		Ts:           time.Now().UTC(),
		Reasoning:    m.reasoning,
		Source:       signal.SourceAI,
	}.WithRiskReward()
	return &out
}

// fallbackSignal synthesizes a deterministic signal from the latest candle:
// green candle buys with a 2% stop and 4% target, red candle sells with the
// mirror levels, doji holds.
func fallbackSignal(symbol string, candles []signal.Candle, timeframe string) *signal.Signal {
	last := candles[len(candles)-1]
	out := signal.Signal{
		Type:         signal.Hold,
		Symbol:       symbol,
		CurrentPrice: last.Close,
		Confidence:   fallbackConfidence,
		Timeframe:    timeframe,
		Ts:           time.Now().UTC(),
		Reasoning:    fallbackReasoning,
		Source:       signal.SourceFallback,
	}
	switch {
	case last.Close > last.Open:
		out.Type = signal.Buy
		out.StopPrice = last.Close * 0.98
		out.TargetPrice = last.Close * 1.04
	case last.Close < last.Open:
		out.Type = signal.Sell
		out.StopPrice = last.Close * 1.02
		out.TargetPrice = last.Close * 0.96
	}
	return &out
}
