// Binary signalbot polls market data on a timer, generates a trading signal
// per configured pair, and optionally places the resulting order bracket.
package main

import (
	"context"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"signalbot-go/internal/config"
	"signalbot-go/internal/deepseek"
	"signalbot-go/internal/execution"
	"signalbot-go/internal/generator"
	"signalbot-go/internal/kraken"
	"signalbot-go/internal/market"
	"signalbot-go/internal/metrics"
	"signalbot-go/internal/risk"
	sig "signalbot-go/internal/signal"
	"signalbot-go/internal/util"
)

const defaultConfigPath = "internal/config/config.yaml"

func main() {
	path := defaultConfigPath
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	cfg, err := config.Load(path)
	if err != nil {
		log := util.NewLogger("signalbot", "info")
		log.Fatal().Err(err).Msg("load config")
	}
	log := util.NewLogger(cfg.App.Name, cfg.App.LogLevel)

	_ = metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ohlc := market.NewOHLCClient(log,
		market.WithOHLCBaseURL(cfg.Market.OHLCBaseURL),
		market.WithInterval(cfg.Market.IntervalMinutes),
		market.WithDepth(cfg.Market.Depth),
	)
	model := deepseek.NewClient(cfg.Model.APIKey, log,
		deepseek.WithBaseURL(cfg.Model.BaseURL),
		deepseek.WithModel(cfg.Model.Name),
		deepseek.WithSampling(cfg.Model.Temperature, cfg.Model.MaxTokens),
	)
	gen := generator.New(ohlc, model, log,
		generator.WithAttempts(cfg.Model.Attempts),
		generator.WithBaseDelay(time.Duration(cfg.Model.BaseDelaySecs)*time.Second),
		generator.WithPromptWindow(cfg.Model.PromptWindow),
		generator.WithTimeframe(cfg.Model.Timeframe),
	)

	var exec *execution.Executor
	if cfg.Trading.Enabled {
		encoding, err := kraken.ParseSecretEncoding(cfg.Exchange.SecretEncoding)
		if err != nil {
			log.Fatal().Err(err).Msg("secret encoding")
		}
		signer, err := kraken.NewSigner(cfg.Exchange.APIKey, cfg.Exchange.APISecret, encoding)
		if err != nil {
			log.Fatal().Err(err).Msg("credentials")
		}
		client := kraken.NewClient(signer, log,
			kraken.WithBaseURL(cfg.Exchange.BaseURL),
			kraken.WithRateLimit(cfg.Exchange.RateLimit, cfg.Exchange.RateBurst),
		)
		exec = execution.NewExecutor(client, log, cfg.Trading.OrderSize)
		log.Warn().Msg("live trading enabled")
	}
	limits := risk.Limits{
		MaxNotionalPerTrade: cfg.Risk.MaxNotionalPerTrade,
		MinConfidence:       cfg.Risk.MinConfidence,
		TradeFallback:       cfg.Risk.TradeFallback,
	}

	feed := market.NewFeed(cfg.Market.FeedProvider, cfg.Market.FeedSymbols, log,
		market.WithPollInterval(time.Duration(cfg.Market.PollIntervalMs)*time.Millisecond),
	)
	ticks := make(chan sig.Tick, 1024)
	go func() {
		if err := feed.Run(ctx, ticks); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("feed stopped")
			cancel()
		}
	}()
	go func() {
		for tk := range ticks {
			log.Debug().Str("symbol", tk.Symbol).Float64("px", tk.Price).Msg("tick")
		}
	}()

	interval := time.Duration(cfg.Trading.PollIntervalSecs) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Strs("pairs", cfg.Market.Pairs).Dur("interval", interval).Msg("signalbot started")
	runCycle(ctx, cfg, log, gen, exec, limits)
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("shutting down")
			return
		case <-ticker.C:
			runCycle(ctx, cfg, log, gen, exec, limits)
		}
	}
}

// runCycle generates one signal per configured pair and trades the actionable
// ones when live trading is on. A failed pair logs and yields no signal for
// this cycle; other pairs still run.
func runCycle(ctx context.Context, cfg *config.Config, log zerolog.Logger, gen *generator.Generator, exec *execution.Executor, limits risk.Limits) {
	for _, pair := range cfg.Market.Pairs {
		if ctx.Err() != nil {
			return
		}
		s, err := gen.Generate(ctx, pair)
		if err != nil {
			log.Error().Err(err).Str("pair", pair).Msg("signal generation failed")
			continue
		}
		log.Info().
			Str("pair", pair).
			Str("type", string(s.Type)).
			Str("source", string(s.Source)).
			Float64("price", s.CurrentPrice).
			Float64("stop", s.StopPrice).
			Float64("target", s.TargetPrice).
			Float64("rr", s.RiskReward).
			Str("reasoning", s.Reasoning).
			Msg("signal")

		if exec == nil || !limits.AllowSignal(*s) {
			continue
		}
		notional := cfg.Trading.OrderSize * s.CurrentPrice
		if !limits.Allow(notional) {
			log.Warn().Str("pair", pair).Float64("notional", notional).Msg("trade blocked by notional cap")
			continue
		}
		if err := exec.Submit(ctx, futuresSymbol(pair), *s); err != nil {
			log.Error().Err(err).Str("pair", pair).Msg("order submission failed")
		}
	}
}

// futuresSymbol maps a spot OHLC pair like XBTUSD onto the perpetual contract
// symbol the futures API expects.
func futuresSymbol(pair string) string {
	return "pi_" + strings.ToLower(pair)
}
