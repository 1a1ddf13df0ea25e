package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
app:
  name: signalbot
  metrics_addr: ":9100"
  log_level: debug
exchange:
  base_url: https://demo-futures.kraken.com
  api_key: file-key
  api_secret: file-secret
  secret_encoding: base64
market:
  pairs: [XBTUSD]
  interval_minutes: 60
  depth: 50
model:
  name: deepseek-chat
  attempts: 3
  base_delay_secs: 2
  timeframe: 1h
risk:
  max_notional_per_trade: 100
  min_confidence: 0.6
trading:
  enabled: false
  poll_interval_secs: 300
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.Name != "signalbot" || cfg.App.LogLevel != "debug" {
		t.Fatalf("unexpected app config %+v", cfg.App)
	}
	if cfg.Exchange.APIKey != "file-key" || cfg.Exchange.SecretEncoding != "base64" {
		t.Fatalf("unexpected exchange config %+v", cfg.Exchange)
	}
	if len(cfg.Market.Pairs) != 1 || cfg.Market.Pairs[0] != "XBTUSD" {
		t.Fatalf("unexpected market config %+v", cfg.Market)
	}
	if cfg.Model.Attempts != 3 || cfg.Model.BaseDelaySecs != 2 {
		t.Fatalf("unexpected model config %+v", cfg.Model)
	}
	if cfg.Risk.MaxNotionalPerTrade != 100 || cfg.Risk.TradeFallback {
		t.Fatalf("unexpected risk config %+v", cfg.Risk)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("KRAKEN_API_KEY", "env-key")
	t.Setenv("KRAKEN_API_SECRET", "env-secret")
	t.Setenv("DEEPSEEK_API_KEY", "sk-env")

	cfg, err := Load(writeConfig(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Exchange.APIKey != "env-key" || cfg.Exchange.APISecret != "env-secret" {
		t.Fatalf("env override not applied: %+v", cfg.Exchange)
	}
	if cfg.Model.APIKey != "sk-env" {
		t.Fatalf("model key override not applied: %+v", cfg.Model)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := &Config{App: App{Name: "signalbot"}, Risk: Risk{MaxNotionalPerTrade: 42}}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.App.Name != "signalbot" || loaded.Risk.MaxNotionalPerTrade != 42 {
		t.Fatalf("round trip mismatch %+v", loaded)
	}
}
