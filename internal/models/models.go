// Package models provides domain models for the screening and trading engine.
package models

import (
	"time"
)

// Exchange represents a stock exchange.
type Exchange string

const (
	NSE Exchange = "NSE"
	BSE Exchange = "BSE"
)

// InstrumentType represents the kind of tradeable instrument.
type InstrumentType string

const (
	InstrumentEquity     InstrumentType = "EQ"
	InstrumentDerivative InstrumentType = "DERIVATIVE"
)

// Candle represents OHLCV data for a time period.
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// Quote represents a market quote.
type Quote struct {
	Symbol        string
	LTP           float64
	Open          float64
	High          float64
	Low           float64
	Volume        int64
	Change        float64
	ChangePercent float64
	Timestamp     time.Time
}

// Instrument is an immutable per-cycle snapshot of a tradeable instrument.
// It is refreshed each screening cycle from the universe provider and never
// mutated during the cycle.
type Instrument struct {
	Symbol    string
	Exchange  Exchange
	Type      InstrumentType
	LotSize   int
	LastPrice float64
	AvgVolume int64 // average daily volume
	DayVolume int64 // volume traded so far today
	DayOpen   float64
	DayHigh   float64
	DayLow    float64
	Sector    string
}

// MarketStatus represents the current market status.
type MarketStatus string

const (
	MarketOpen            MarketStatus = "OPEN"
	MarketPreOpen         MarketStatus = "PRE_OPEN"
	MarketClosed          MarketStatus = "CLOSED"
	MarketSquareOffWindow MarketStatus = "SQUARE_OFF_WINDOW"
)
