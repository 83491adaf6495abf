package trading

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"intraday-trader/internal/config"
	"intraday-trader/internal/errors"
	"intraday-trader/internal/models"
	"intraday-trader/internal/store"
)

type memStore struct {
	states    map[string]store.SessionState
	signals   map[string][]store.SignalRecord
	positions map[string]map[string]models.Position
}

func newMemStore() *memStore {
	return &memStore{
		states:    make(map[string]store.SessionState),
		signals:   make(map[string][]store.SignalRecord),
		positions: make(map[string]map[string]models.Position),
	}
}

func (m *memStore) SaveSessionState(state store.SessionState) error {
	m.states[state.Date] = state
	return nil
}

func (m *memStore) LoadSessionState(date string) (store.SessionState, bool, error) {
	state, ok := m.states[date]
	return state, ok, nil
}

func (m *memStore) SaveSignal(rec store.SignalRecord) error {
	m.signals[rec.Date] = append(m.signals[rec.Date], rec)
	return nil
}

func (m *memStore) LoadSignals(date string) ([]store.SignalRecord, error) {
	return m.signals[date], nil
}

func (m *memStore) SavePosition(date string, pos models.Position) error {
	if m.positions[date] == nil {
		m.positions[date] = make(map[string]models.Position)
	}
	m.positions[date][pos.Symbol] = pos
	return nil
}

func (m *memStore) LoadPositions(date string) ([]models.Position, error) {
	var out []models.Position
	for _, pos := range m.positions[date] {
		out = append(out, pos)
	}
	return out, nil
}

func (m *memStore) Close() error { return nil }

type fakeUniverse struct {
	instruments []models.Instrument
}

func (f *fakeUniverse) Universe(context.Context) ([]models.Instrument, error) {
	return f.instruments, nil
}

type fakeHistory struct{}

func (fakeHistory) History(context.Context, string) ([]models.Candle, error) {
	return nil, errors.ErrDataUnavailable
}

type fakeQuotes struct {
	prices map[string]float64
}

func (f *fakeQuotes) Quote(_ context.Context, symbol string) (models.Quote, error) {
	price, ok := f.prices[symbol]
	if !ok {
		return models.Quote{}, errors.ErrDataUnavailable
	}
	return models.Quote{Symbol: symbol, LTP: price, Timestamp: time.Now()}, nil
}

func testSession(t *testing.T, engine *RiskEngine, st store.DataStore, quotes QuoteProvider) *Session {
	t.Helper()
	cfg := config.Default()
	session, err := NewSession(cfg, engine, st,
		&fakeUniverse{}, fakeHistory{}, quotes, zerolog.Nop())
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	session.now = func() time.Time { return tradingTime(11, 0) }
	return session
}

func TestSessionResume(t *testing.T) {
	st := newMemStore()
	date := "2025-03-10" // matches tradingTime's IST day

	st.SaveSessionState(store.SessionState{Date: date, RealizedPnL: -500})
	st.SavePosition(date, models.Position{
		Symbol:     "HELD",
		Direction:  models.DirectionLong,
		EntryPrice: 100,
		Quantity:   100,
		StopLoss:   97,
		TakeProfit: 106,
		State:      models.PositionOpen,
		LastPrice:  101,
	})
	st.SavePosition(date, models.Position{
		Symbol:     "DONE",
		Direction:  models.DirectionLong,
		EntryPrice: 50,
		Quantity:   10,
		State:      models.PositionStopLossHit,
	})

	engine := testEngine()
	session := testSession(t, engine, st, &fakeQuotes{})

	if err := session.Resume(); err != nil {
		t.Fatalf("resume: %v", err)
	}

	snap := engine.Budget()
	if snap.RealizedPnL != -500 {
		t.Errorf("realized pnl = %v, want -500", snap.RealizedPnL)
	}
	if snap.OpenCount != 1 {
		t.Errorf("open count = %d, want only the open position recommitted", snap.OpenCount)
	}
	if snap.Committed != 10000 {
		t.Errorf("committed = %v, want 10000", snap.Committed)
	}
}

func TestSessionResumeFreshDay(t *testing.T) {
	engine := testEngine()
	session := testSession(t, engine, newMemStore(), &fakeQuotes{})

	if err := session.Resume(); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if snap := engine.Budget(); snap.RealizedPnL != 0 || snap.OpenCount != 0 {
		t.Errorf("fresh day should start clean: %+v", snap)
	}
}

func TestMonitoringTickTransitionsAndPersists(t *testing.T) {
	engine := testEngine()
	st := newMemStore()
	quotes := &fakeQuotes{prices: map[string]float64{"MOVER": 96.5}}
	session := testSession(t, engine, st, quotes)

	if _, err := engine.EvaluateSignal(longSignal("MOVER")); err != nil {
		t.Fatalf("open: %v", err)
	}

	session.RunMonitoringTick(context.Background())

	pos, err := engine.Position("MOVER")
	if err != nil {
		t.Fatalf("position: %v", err)
	}
	if pos.State != models.PositionStopLossHit {
		t.Fatalf("state = %s, want STOP_LOSS_HIT", pos.State)
	}

	persisted := st.positions["2025-03-10"]["MOVER"]
	if persisted.State != models.PositionStopLossHit {
		t.Errorf("persisted state = %s, want STOP_LOSS_HIT", persisted.State)
	}
	if st.states["2025-03-10"].RealizedPnL != pos.RealizedPnL {
		t.Errorf("session state pnl not updated")
	}
}

func TestMonitoringTickHoldsOnQuoteFailure(t *testing.T) {
	engine := testEngine()
	session := testSession(t, engine, newMemStore(), &fakeQuotes{})

	if _, err := engine.EvaluateSignal(longSignal("MOVER")); err != nil {
		t.Fatalf("open: %v", err)
	}

	session.RunMonitoringTick(context.Background())

	pos, _ := engine.Position("MOVER")
	if pos.State != models.PositionOpen {
		t.Errorf("state = %s, want OPEN held through quote failure", pos.State)
	}
}

func TestSquareOffAll(t *testing.T) {
	engine := testEngine()
	st := newMemStore()
	quotes := &fakeQuotes{prices: map[string]float64{"MOVER": 101}}
	session := testSession(t, engine, st, quotes)

	if _, err := engine.EvaluateSignal(longSignal("MOVER")); err != nil {
		t.Fatalf("open: %v", err)
	}

	closed := session.SquareOffAll(context.Background())
	if len(closed) != 1 {
		t.Fatalf("closed %d, want 1", len(closed))
	}
	if closed[0].State != models.PositionTimeSquaredOff {
		t.Errorf("state = %s, want TIME_SQUARED_OFF", closed[0].State)
	}
	if closed[0].ExitPrice != 101 {
		t.Errorf("exit = %v, want fresh quote 101", closed[0].ExitPrice)
	}
	if engine.Budget().Committed != 0 {
		t.Error("committed capital not released")
	}
}

func TestScreeningCycleJournalsAndOpens(t *testing.T) {
	engine := testEngine()
	st := newMemStore()

	cfg := config.Default()
	cfg.Screening.FallbackSymbols = nil // keep the failing-history path short
	universe := &fakeUniverse{instruments: []models.Instrument{
		{
			Symbol: "MOVER", Exchange: models.NSE, Type: models.InstrumentEquity,
			LotSize: 1, LastPrice: 103, AvgVolume: 200000, DayVolume: 400000,
			DayOpen: 100, DayHigh: 104, DayLow: 99,
		},
	}}
	session, err := NewSession(cfg, engine, st, universe, fakeHistory{}, &fakeQuotes{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	session.now = func() time.Time { return tradingTime(11, 0) }

	// History always fails, so the cycle completes with zero signals and
	// zero positions but must not error.
	if err := session.RunScreeningCycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if len(st.signals["2025-03-10"]) != 0 {
		t.Errorf("journaled %d signals, want 0", len(st.signals["2025-03-10"]))
	}
	if _, ok := st.states["2025-03-10"]; !ok {
		t.Error("session state not persisted after cycle")
	}
	if snap := engine.Budget(); snap.OpenCount != 0 {
		t.Errorf("open count = %d, want 0", snap.OpenCount)
	}
}
