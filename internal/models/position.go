package models

import (
	"time"
)

// PositionState is a position's lifecycle state. The legal transitions are
// Pending -> Open -> {StopLossHit | TakeProfitHit | TimeSquaredOff |
// ManualClosed} -> Closed; every state after Open is terminal.
type PositionState string

const (
	PositionPending        PositionState = "PENDING"
	PositionOpen           PositionState = "OPEN"
	PositionStopLossHit    PositionState = "STOP_LOSS_HIT"
	PositionTakeProfitHit  PositionState = "TAKE_PROFIT_HIT"
	PositionTimeSquaredOff PositionState = "TIME_SQUARED_OFF"
	PositionManualClosed   PositionState = "MANUAL_CLOSED"
	PositionClosed         PositionState = "CLOSED"
)

// Terminal reports whether the state permits no further transitions.
func (s PositionState) Terminal() bool {
	switch s {
	case PositionStopLossHit, PositionTakeProfitHit, PositionTimeSquaredOff,
		PositionManualClosed, PositionClosed:
		return true
	}
	return false
}

// Position is a risk-managed open trade. It is owned exclusively by the risk
// engine and mutated only through defined state transitions.
type Position struct {
	Symbol        string
	Direction     Direction
	EntryPrice    float64
	Quantity      int
	StopLoss      float64
	TakeProfit    float64
	OpenedAt      time.Time
	ClosedAt      time.Time
	State         PositionState
	ExitPrice     float64
	RealizedPnL   float64
	UnrealizedPnL float64
	LastPrice     float64
	LastPriceAt   time.Time
}

// Committed returns the capital the position holds against the daily budget.
func (p Position) Committed() float64 {
	return p.EntryPrice * float64(p.Quantity)
}

// PositionEvent is emitted on every lifecycle transition for downstream
// consumers (broker integration, dashboards). The core only produces these.
type PositionEvent struct {
	Symbol    string
	From      PositionState
	To        PositionState
	Price     float64
	PnL       float64
	Reason    string
	Timestamp time.Time
}
