package risk

import (
	"testing"

	"signalbot-go/internal/signal"
)

func TestAllowNotional(t *testing.T) {
	limits := Limits{MaxNotionalPerTrade: 100}
	if !limits.Allow(100) {
		t.Fatal("notional at the cap should be allowed")
	}
	if limits.Allow(100.01) {
		t.Fatal("notional above the cap should be rejected")
	}
	if limits.Allow(0) {
		t.Fatal("zero notional should be rejected")
	}
}

func TestAllowSignal(t *testing.T) {
	limits := Limits{MaxNotionalPerTrade: 100, MinConfidence: 0.6}

	ai := signal.Signal{Type: signal.Buy, Source: signal.SourceAI, Confidence: 0.8}
	if !limits.AllowSignal(ai) {
		t.Fatal("confident ai signal should be tradable")
	}

	hold := ai
	hold.Type = signal.Hold
	if limits.AllowSignal(hold) {
		t.Fatal("HOLD is never tradable")
	}

	timid := ai
	timid.Confidence = 0.5
	if limits.AllowSignal(timid) {
		t.Fatal("confidence below the floor should be rejected")
	}

	fb := ai
	fb.Source = signal.SourceFallback
	if limits.AllowSignal(fb) {
		t.Fatal("fallback signals are rejected by default")
	}
	limits.TradeFallback = true
	if !limits.AllowSignal(fb) {
		t.Fatal("fallback signals allowed when explicitly enabled")
	}
}
