// Package config exposes strongly typed application configuration structs
// loaded from YAML, with credentials overridable from the environment.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, environment,
// metrics, and logging levels.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Exchange describes Kraken Futures connectivity. SecretEncoding is explicit
// (base64 or hex); the encoding is never guessed from the secret itself.
type Exchange struct {
	BaseURL        string  `yaml:"base_url"`
	APIKey         string  `yaml:"api_key"`
	APISecret      string  `yaml:"api_secret"`
	SecretEncoding string  `yaml:"secret_encoding"`
	RateLimit      float64 `yaml:"rate_limit_per_sec"`
	RateBurst      int     `yaml:"rate_burst"`
}

// Market configures OHLC acquisition and the live price feed.
type Market struct {
	OHLCBaseURL     string   `yaml:"ohlc_base_url"`
	Pairs           []string `yaml:"pairs"`
	IntervalMinutes int      `yaml:"interval_minutes"`
	Depth           int      `yaml:"depth"`
	FeedProvider    string   `yaml:"feed_provider"`
	FeedSymbols     []string `yaml:"feed_symbols"`
	PollIntervalMs  int      `yaml:"poll_interval_ms"`
}

// Model configures the inference endpoint and retry budget.
type Model struct {
	BaseURL       string  `yaml:"base_url"`
	APIKey        string  `yaml:"api_key"`
	Name          string  `yaml:"name"`
	Temperature   float64 `yaml:"temperature"`
	MaxTokens     int     `yaml:"max_tokens"`
	Attempts      int     `yaml:"attempts"`
	BaseDelaySecs int     `yaml:"base_delay_secs"`
	PromptWindow  int     `yaml:"prompt_window"`
	Timeframe     string  `yaml:"timeframe"`
}

// Risk encodes guard-rails for signal actionability and trade size.
type Risk struct {
	MaxNotionalPerTrade float64 `yaml:"max_notional_per_trade"`
	MinConfidence       float64 `yaml:"min_confidence"`
	TradeFallback       bool    `yaml:"trade_fallback"`
}

// Trading toggles live order placement and the polling cadence.
type Trading struct {
	Enabled          bool    `yaml:"enabled"`
	OrderSize        float64 `yaml:"order_size"`
	PollIntervalSecs int     `yaml:"poll_interval_secs"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App      App      `yaml:"app"`
	Exchange Exchange `yaml:"exchange"`
	Market   Market   `yaml:"market"`
	Model    Model    `yaml:"model"`
	Risk     Risk     `yaml:"risk"`
	Trading  Trading  `yaml:"trading"`
}

// Load reads a YAML file from disk, hydrates a Config struct, then overlays
// credentials from the environment (a .env file is loaded best-effort first).
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	config.applyEnv()
	return &config, nil
}

// applyEnv overlays secrets so they never need to live in the YAML file.
func (c *Config) applyEnv() {
	_ = godotenv.Load() // best-effort
	if v := os.Getenv("KRAKEN_API_KEY"); v != "" {
		c.Exchange.APIKey = v
	}
	if v := os.Getenv("KRAKEN_API_SECRET"); v != "" {
		c.Exchange.APISecret = v
	}
	if v := os.Getenv("KRAKEN_SECRET_ENCODING"); v != "" {
		c.Exchange.SecretEncoding = v
	}
	if v := os.Getenv("DEEPSEEK_API_KEY"); v != "" {
		c.Model.APIKey = v
	}
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
