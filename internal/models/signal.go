package models

import (
	"time"
)

// Direction represents the direction of a trade signal or position.
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
	DirectionNone  Direction = "NONE"
)

// ScoredCandidate pairs an instrument with its potential sub-scores and the
// weighted composite. All scores are in [0, 1].
type ScoredCandidate struct {
	Instrument     Instrument
	VolumeSurge    float64
	Volatility     float64
	Momentum       float64
	TradingRange   float64
	CompositeScore float64
}

// TechnicalSnapshot holds the indicator values computed for a candidate in a
// single cycle, together with the series they were computed from. It is
// never mutated after creation.
type TechnicalSnapshot struct {
	Symbol        string
	Candles       []Candle
	RSI           float64 // period 14
	EMAFast       float64 // period 12
	EMASlow       float64 // period 26
	PrevEMAFast   float64
	PrevEMASlow   float64
	MACD          float64
	MACDSignal    float64
	MACDHistogram float64
	BollingerUp   float64
	BollingerMid  float64
	BollingerLow  float64
	ATR           float64
	ComputedAt    time.Time
}

// TradeSignal is an immutable directional signal emitted for one instrument
// in one cycle. Price and ATR are captured at generation time so the risk
// engine can size the position without re-fetching data.
type TradeSignal struct {
	Symbol      string
	Direction   Direction
	Strength    float64 // [0, 1]
	Reasons     []string
	Price       float64
	ATR         float64
	AvgVolume   int64 // carried for deterministic ordering into the risk engine
	GeneratedAt time.Time
}
