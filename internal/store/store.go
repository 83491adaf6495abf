// Package store persists session state, signals and position history so a
// trading session can resume after a restart.
package store

import (
	"time"

	"intraday-trader/internal/models"
)

// SessionState is the per-day snapshot the engine needs to resume.
type SessionState struct {
	Date        string // "2006-01-02" in IST
	RealizedPnL float64
	UpdatedAt   time.Time
}

// SignalRecord is one journaled trade signal.
type SignalRecord struct {
	Date        string
	Symbol      string
	Direction   models.Direction
	Strength    float64
	Price       float64
	ATR         float64
	GeneratedAt time.Time
}

// DataStore is the persistence contract used by the session runner and the
// CLI.
type DataStore interface {
	SaveSessionState(state SessionState) error
	LoadSessionState(date string) (SessionState, bool, error)

	SaveSignal(rec SignalRecord) error
	LoadSignals(date string) ([]SignalRecord, error)

	SavePosition(date string, pos models.Position) error
	LoadPositions(date string) ([]models.Position, error)

	Close() error
}
