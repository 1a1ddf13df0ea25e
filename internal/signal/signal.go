// Package signal standardizes payloads shared between market data and the signal pipeline.
package signal

import "time"

// Tick models the essential pieces of live market data pushed by feeds.
type Tick struct {
	Symbol string
	Price  float64
	Size   float64
	Side   int // +1 buy, -1 sell (aggressor)
	Ts     time.Time
}

// Candle is one OHLC period in exchange-native epoch seconds; series are
// ordered chronologically ascending with the most recent candle last.
type Candle struct {
	Time   int64
	Open   float64
	High   float64
	Low    float64
	Close  float64
	VWAP   float64
	Volume float64
	Count  int64
}

// Stats summarizes a fetched candle window for prompt construction.
type Stats struct {
	CurrentPrice  float64
	PeriodHigh    float64
	PeriodLow     float64
	PeriodVolume  float64
	PercentChange float64
}

// ComputeStats derives summary statistics over the entire candle window.
// Current price is the close of the last candle; high/low/volume span every
// fetched candle; percent change compares last close against first open.
func ComputeStats(candles []Candle) Stats {
	if len(candles) == 0 {
		return Stats{}
	}
	first := candles[0]
	last := candles[len(candles)-1]
	stats := Stats{
		CurrentPrice: last.Close,
		PeriodHigh:   first.High,
		PeriodLow:    first.Low,
	}
	for _, c := range candles {
		if c.High > stats.PeriodHigh {
			stats.PeriodHigh = c.High
		}
		if c.Low < stats.PeriodLow {
			stats.PeriodLow = c.Low
		}
		stats.PeriodVolume += c.Volume
	}
	if first.Open != 0 {
		stats.PercentChange = (last.Close - first.Open) / first.Open * 100
	}
	return stats
}
