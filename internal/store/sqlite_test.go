package store

import (
	"path/filepath"
	"testing"
	"time"

	"intraday-trader/internal/models"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "trader.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionStateRoundTrip(t *testing.T) {
	s := openTestStore(t)

	if _, found, err := s.LoadSessionState("2025-03-10"); err != nil || found {
		t.Fatalf("fresh store: found=%v err=%v", found, err)
	}

	if err := s.SaveSessionState(SessionState{Date: "2025-03-10", RealizedPnL: -1165.5}); err != nil {
		t.Fatalf("save: %v", err)
	}

	state, found, err := s.LoadSessionState("2025-03-10")
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if state.RealizedPnL != -1165.5 {
		t.Errorf("pnl = %v, want -1165.5", state.RealizedPnL)
	}

	// Saving again for the same day overwrites, not duplicates.
	if err := s.SaveSessionState(SessionState{Date: "2025-03-10", RealizedPnL: 200}); err != nil {
		t.Fatalf("resave: %v", err)
	}
	state, _, _ = s.LoadSessionState("2025-03-10")
	if state.RealizedPnL != 200 {
		t.Errorf("pnl after update = %v, want 200", state.RealizedPnL)
	}
}

func TestPositionJournal(t *testing.T) {
	s := openTestStore(t)
	date := "2025-03-10"

	pos := models.Position{
		Symbol:     "MOVER",
		Direction:  models.DirectionLong,
		EntryPrice: 100,
		Quantity:   333,
		StopLoss:   97,
		TakeProfit: 106,
		State:      models.PositionOpen,
		LastPrice:  100,
		OpenedAt:   time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC),
	}
	if err := s.SavePosition(date, pos); err != nil {
		t.Fatalf("save open: %v", err)
	}

	pos.State = models.PositionStopLossHit
	pos.ExitPrice = 96.5
	pos.RealizedPnL = -1165.5
	pos.ClosedAt = time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC)
	if err := s.SavePosition(date, pos); err != nil {
		t.Fatalf("save closed: %v", err)
	}

	loaded, err := s.LoadPositions(date)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("got %d positions, want 1 after upsert", len(loaded))
	}
	got := loaded[0]
	if got.State != models.PositionStopLossHit {
		t.Errorf("state = %s, want STOP_LOSS_HIT", got.State)
	}
	if got.Quantity != 333 || got.EntryPrice != 100 {
		t.Errorf("sizing fields lost: qty %d entry %v", got.Quantity, got.EntryPrice)
	}
	if got.ClosedAt.IsZero() {
		t.Error("closed_at not persisted")
	}

	// Other days stay isolated.
	other, err := s.LoadPositions("2025-03-11")
	if err != nil {
		t.Fatalf("load other day: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("got %d positions for other day, want 0", len(other))
	}
}

func TestSignalJournalOrder(t *testing.T) {
	s := openTestStore(t)
	date := "2025-03-10"

	for i, symbol := range []string{"AAA", "BBB", "CCC"} {
		err := s.SaveSignal(SignalRecord{
			Date:        date,
			Symbol:      symbol,
			Direction:   models.DirectionLong,
			Strength:    0.5 + float64(i)/10,
			Price:       100,
			ATR:         1.5,
			GeneratedAt: time.Now(),
		})
		if err != nil {
			t.Fatalf("save %s: %v", symbol, err)
		}
	}

	signals, err := s.LoadSignals(date)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(signals) != 3 {
		t.Fatalf("got %d signals, want 3", len(signals))
	}
	for i, symbol := range []string{"AAA", "BBB", "CCC"} {
		if signals[i].Symbol != symbol {
			t.Errorf("position %d = %s, want insertion order preserved", i, signals[i].Symbol)
		}
	}
}
