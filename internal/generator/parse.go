package generator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// errInvalidResponse marks a reply that parsed but misses required fields; it
// consumes retry budget exactly like a transport failure.
var errInvalidResponse = errors.New("generator: invalid model response")

// modelSignal is the validated shape of a model reply.
type modelSignal struct {
	signal      string
	stopPrice   float64
	targetPrice float64
	confidence  float64
	timeframe   string
	reasoning   string
}

type rawModelSignal struct {
	Signal      *string  `json:"signal"`
	StopPrice   *float64 `json:"stop_price"`
	TargetPrice *float64 `json:"target_price"`
	Confidence  *float64 `json:"confidence"`
	Timeframe   string   `json:"timeframe"`
	Reasoning   *string  `json:"reasoning"`
}

// parseModelSignal extracts the JSON object from the completion content
// (models occasionally wrap it in prose) and enforces the required fields:
// signal, stop_price, target_price, reasoning.
func parseModelSignal(content string) (*modelSignal, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: no JSON object in content", errInvalidResponse)
	}

	var raw rawModelSignal
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidResponse, err)
	}

	var missing []string
	if raw.Signal == nil {
		missing = append(missing, "signal")
	}
	if raw.StopPrice == nil {
		missing = append(missing, "stop_price")
	}
	if raw.TargetPrice == nil {
		missing = append(missing, "target_price")
	}
	if raw.Reasoning == nil {
		missing = append(missing, "reasoning")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing fields %s", errInvalidResponse, strings.Join(missing, ", "))
	}

	out := &modelSignal{
		signal:      *raw.Signal,
		stopPrice:   *raw.StopPrice,
		targetPrice: *raw.TargetPrice,
		confidence:  fallbackConfidence,
		timeframe:   raw.Timeframe,
		reasoning:   *raw.Reasoning,
	}
	if raw.Confidence != nil {
		out.confidence = *raw.Confidence
	}
	return out, nil
}
