package signal

import (
	"strings"
	"time"
)

// Type enumerates the trading biases a pipeline run can produce.
type Type string

const (
	// Buy indicates a long bias.
	Buy Type = "BUY"
	// Sell indicates a short bias.
	Sell Type = "SELL"
	// Hold indicates no action.
	Hold Type = "HOLD"
)

// Source tags how a signal was produced.
type Source string

const (
	// SourceAI marks signals produced by the remote model.
	SourceAI Source = "ai"
	// SourceFallback marks signals produced by the deterministic rule.
	SourceFallback Source = "fallback"
)

// ParseType maps free-form model output onto a Type. Unrecognized values
// resolve to Hold rather than erroring.
func ParseType(s string) Type {
	switch Type(strings.ToUpper(strings.TrimSpace(s))) {
	case Buy:
		return Buy
	case Sell:
		return Sell
	default:
		return Hold
	}
}

// Signal is the immutable value object a pipeline run yields. Confidence is
// normalized to 0..1. RiskReward is zero when no ratio was attached.
type Signal struct {
	Type         Type
	Symbol       string
	CurrentPrice float64
	StopPrice    float64
	TargetPrice  float64
	Confidence   float64
	Timeframe    string
	Ts           time.Time
	Reasoning    string
	Source       Source
	RiskReward   float64
}

// WithRiskReward returns a copy enriched with reward/risk when the signal is
// directional, stop and target are set, and risk is strictly positive. A
// non-positive risk leaves the ratio unset instead of dividing by zero.
func (s Signal) WithRiskReward() Signal {
	if s.Type != Buy && s.Type != Sell {
		return s
	}
	if s.StopPrice == 0 || s.TargetPrice == 0 {
		return s
	}
	var risk, reward float64
	switch s.Type {
	case Buy:
		risk = s.CurrentPrice - s.StopPrice
		reward = s.TargetPrice - s.CurrentPrice
	case Sell:
		risk = s.StopPrice - s.CurrentPrice
		reward = s.CurrentPrice - s.TargetPrice
	}
	if risk <= 0 {
		return s
	}
	s.RiskReward = reward / risk
	return s
}

// NormalizeConfidence maps model confidence values onto 0..1. Values above 1
// are treated as a 0-100 scale; everything is clamped into range.
func NormalizeConfidence(v float64) float64 {
	if v > 1 {
		v = v / 100
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
