package trading

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"intraday-trader/internal/config"
	"intraday-trader/internal/errors"
	"intraday-trader/internal/models"
	"intraday-trader/pkg/utils"
)

// RiskEngine owns every position for the session. All entry and exit
// decisions are serialized through its mutex so a limit check and the
// action it guards are one atomic step.
type RiskEngine struct {
	mu        sync.Mutex
	cfg       config.RiskConfig
	budget    *DailyBudget
	positions map[string]*models.Position
	events    []models.PositionEvent
	logger    zerolog.Logger
	now       func() time.Time
}

func NewRiskEngine(cfg config.RiskConfig, logger zerolog.Logger) *RiskEngine {
	maxLoss := cfg.DailyBudget * cfg.MaxDailyLossPct
	return &RiskEngine{
		cfg:       cfg,
		budget:    NewDailyBudget(cfg.DailyBudget, maxLoss),
		positions: make(map[string]*models.Position),
		logger:    logger.With().Str("component", "risk").Logger(),
		now:       time.Now,
	}
}

// EvaluateSignal sizes and opens a position for the signal if every risk
// gate passes. The returned position is a copy; the engine keeps the only
// mutable instance.
func (e *RiskEngine) EvaluateSignal(signal models.TradeSignal) (models.Position, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if signal.Direction != models.DirectionLong && signal.Direction != models.DirectionShort {
		return models.Position{}, errors.NewRejection(signal.Symbol, errors.StageRisk,
			"signal has no direction", nil)
	}
	if signal.Strength < e.cfg.MinStrength {
		return models.Position{}, errors.NewRiskError("min_strength",
			signal.Strength, e.cfg.MinStrength, errors.ErrSignalTooWeak)
	}
	if e.budget.LossLimitReached() {
		snap := e.budget.Snapshot()
		return models.Position{}, errors.NewRiskError("daily_loss",
			-snap.RealizedPnL, snap.MaxLoss, errors.ErrDailyLossLimit)
	}
	if existing, ok := e.positions[signal.Symbol]; ok && !existing.State.Terminal() {
		return models.Position{}, errors.Wrapf(errors.ErrPositionLimitReached,
			"position already open for %s", signal.Symbol)
	}
	if signal.Price <= 0 || signal.ATR <= 0 {
		return models.Position{}, errors.NewRejection(signal.Symbol, errors.StageRisk,
			"signal missing price or ATR", errors.ErrDataUnavailable)
	}

	entry := signal.Price
	riskPerShare := e.cfg.ATRMultiplier * signal.ATR

	var stop, target float64
	if signal.Direction == models.DirectionLong {
		stop = entry - riskPerShare
		target = entry + e.cfg.RewardRisk*riskPerShare
	} else {
		stop = entry + riskPerShare
		target = entry - e.cfg.RewardRisk*riskPerShare
	}
	if stop <= 0 && signal.Direction == models.DirectionLong {
		return models.Position{}, errors.NewRejection(signal.Symbol, errors.StageRisk,
			"stop below zero, ATR too wide for price", nil)
	}
	if target <= 0 && signal.Direction == models.DirectionShort {
		return models.Position{}, errors.NewRejection(signal.Symbol, errors.StageRisk,
			"target below zero, ATR too wide for price", nil)
	}

	snap := e.budget.Snapshot()
	qty := int(math.Floor(snap.Allocated * e.cfg.RiskPerTrade / riskPerShare))
	if qty <= 0 {
		return models.Position{}, errors.NewRiskError("position_size",
			0, 1, errors.ErrBudgetExceeded)
	}

	committed := entry * float64(qty)
	if snap.OpenCount >= e.cfg.MaxPositions {
		return models.Position{}, errors.NewRiskError("max_positions",
			float64(snap.OpenCount), float64(e.cfg.MaxPositions), errors.ErrPositionLimitReached)
	}
	if !e.budget.TryCommit(committed, e.cfg.MaxPositions) {
		return models.Position{}, errors.NewRiskError("capital",
			snap.Committed+committed, snap.Allocated, errors.ErrBudgetExceeded)
	}

	now := e.now()
	pos := &models.Position{
		Symbol:      signal.Symbol,
		Direction:   signal.Direction,
		EntryPrice:  entry,
		Quantity:    qty,
		StopLoss:    stop,
		TakeProfit:  target,
		OpenedAt:    now,
		State:       models.PositionOpen,
		LastPrice:   entry,
		LastPriceAt: now,
	}
	e.positions[signal.Symbol] = pos
	e.recordEvent(pos, models.PositionPending, models.PositionOpen, entry, 0, "entry")

	e.logger.Info().
		Str("symbol", pos.Symbol).
		Str("direction", string(pos.Direction)).
		Float64("entry", entry).
		Int("qty", qty).
		Float64("stop", stop).
		Float64("target", target).
		Msg("position opened")

	return *pos, nil
}

// AdvancePosition applies the latest price to a position and performs any
// due transition. A non-positive latestPrice means the feed is stale; the
// position holds its state unless the square-off cutoff has passed, in
// which case it is force-closed at the last known price.
func (e *RiskEngine) AdvancePosition(symbol string, latestPrice float64, now time.Time) (models.Position, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pos, ok := e.positions[symbol]
	if !ok {
		return models.Position{}, errors.Wrapf(errors.ErrPositionNotFound, "%s", symbol)
	}
	if pos.State.Terminal() {
		return *pos, errors.Wrapf(errors.ErrPositionTerminal, "%s is %s", symbol, pos.State)
	}

	cutoff := utils.SquareOffCutoff(e.cfg.SquareOffTime, now)
	atCutoff := !now.Before(cutoff)

	if latestPrice <= 0 {
		if atCutoff {
			e.close(pos, pos.LastPrice, now, models.PositionTimeSquaredOff, "square-off cutoff, stale feed")
			return *pos, nil
		}
		return *pos, errors.Wrapf(errors.ErrStaleData, "%s holding state", symbol)
	}

	pos.LastPrice = latestPrice
	pos.LastPriceAt = now
	pos.UnrealizedPnL = unrealized(pos, latestPrice)

	switch {
	case atCutoff:
		e.close(pos, latestPrice, now, models.PositionTimeSquaredOff, "square-off cutoff")
	case pos.Direction == models.DirectionLong && latestPrice <= pos.StopLoss:
		e.close(pos, latestPrice, now, models.PositionStopLossHit, "stop loss")
	case pos.Direction == models.DirectionLong && latestPrice >= pos.TakeProfit:
		e.close(pos, latestPrice, now, models.PositionTakeProfitHit, "take profit")
	case pos.Direction == models.DirectionShort && latestPrice >= pos.StopLoss:
		e.close(pos, latestPrice, now, models.PositionStopLossHit, "stop loss")
	case pos.Direction == models.DirectionShort && latestPrice <= pos.TakeProfit:
		e.close(pos, latestPrice, now, models.PositionTakeProfitHit, "take profit")
	}

	return *pos, nil
}

// ClosePosition closes one open position at the given price on manual
// instruction.
func (e *RiskEngine) ClosePosition(symbol string, price float64, now time.Time) (models.Position, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pos, ok := e.positions[symbol]
	if !ok {
		return models.Position{}, errors.Wrapf(errors.ErrPositionNotFound, "%s", symbol)
	}
	if pos.State.Terminal() {
		return *pos, errors.Wrapf(errors.ErrPositionTerminal, "%s is %s", symbol, pos.State)
	}
	if price <= 0 {
		price = pos.LastPrice
	}
	e.close(pos, price, now, models.PositionManualClosed, "manual close")
	return *pos, nil
}

// CloseAll squares off every open position, using the provided prices or
// each position's last known price when absent. It returns the positions
// it closed.
func (e *RiskEngine) CloseAll(prices map[string]float64, now time.Time) []models.Position {
	e.mu.Lock()
	defer e.mu.Unlock()

	var closed []models.Position
	for _, pos := range e.sortedLocked() {
		if pos.State.Terminal() {
			continue
		}
		price := prices[pos.Symbol]
		if price <= 0 {
			price = pos.LastPrice
		}
		e.close(pos, price, now, models.PositionTimeSquaredOff, "emergency square-off")
		closed = append(closed, *pos)
	}
	return closed
}

// Position returns a copy of the tracked position for symbol.
func (e *RiskEngine) Position(symbol string) (models.Position, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pos, ok := e.positions[symbol]
	if !ok {
		return models.Position{}, errors.Wrapf(errors.ErrPositionNotFound, "%s", symbol)
	}
	return *pos, nil
}

// Positions returns copies of every tracked position, sorted by symbol.
func (e *RiskEngine) Positions() []models.Position {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.Position, 0, len(e.positions))
	for _, pos := range e.sortedLocked() {
		out = append(out, *pos)
	}
	return out
}

// Budget returns the current budget counters.
func (e *RiskEngine) Budget() BudgetSnapshot {
	return e.budget.Snapshot()
}

// Events returns a copy of the transition log for this session.
func (e *RiskEngine) Events() []models.PositionEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.PositionEvent, len(e.events))
	copy(out, e.events)
	return out
}

// RestorePosition re-registers a persisted position when resuming a
// session. Open positions recommit their capital.
func (e *RiskEngine) RestorePosition(pos models.Position) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !pos.State.Terminal() {
		if !e.budget.TryCommit(pos.Committed(), e.cfg.MaxPositions) {
			return errors.Wrapf(errors.ErrBudgetExceeded,
				"cannot recommit %s on resume", pos.Symbol)
		}
	}
	copied := pos
	e.positions[pos.Symbol] = &copied
	return nil
}

// RestoreRealizedPnL seeds the budget's realized result on resume.
func (e *RiskEngine) RestoreRealizedPnL(pnl float64) {
	e.budget.RestoreRealizedPnL(pnl)
}

// close finalizes the position and releases its capital. Callers hold the
// engine mutex.
func (e *RiskEngine) close(pos *models.Position, price float64, now time.Time, state models.PositionState, reason string) {
	from := pos.State
	pnl := realized(pos, price)

	pos.State = state
	pos.ExitPrice = price
	pos.ClosedAt = now
	pos.RealizedPnL = pnl
	pos.UnrealizedPnL = 0
	pos.LastPrice = price
	pos.LastPriceAt = now

	e.budget.Release(pos.Committed(), pnl)
	e.recordEvent(pos, from, state, price, pnl, reason)

	e.logger.Info().
		Str("symbol", pos.Symbol).
		Str("from", string(from)).
		Str("to", string(state)).
		Float64("exit", price).
		Float64("pnl", pnl).
		Str("reason", reason).
		Msg("position closed")
}

func (e *RiskEngine) recordEvent(pos *models.Position, from, to models.PositionState, price, pnl float64, reason string) {
	e.events = append(e.events, models.PositionEvent{
		Symbol:    pos.Symbol,
		From:      from,
		To:        to,
		Price:     price,
		PnL:       pnl,
		Reason:    reason,
		Timestamp: e.now(),
	})
}

func (e *RiskEngine) sortedLocked() []*models.Position {
	out := make([]*models.Position, 0, len(e.positions))
	for _, pos := range e.positions {
		out = append(out, pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func unrealized(pos *models.Position, price float64) float64 {
	if pos.Direction == models.DirectionShort {
		return (pos.EntryPrice - price) * float64(pos.Quantity)
	}
	return (price - pos.EntryPrice) * float64(pos.Quantity)
}

func realized(pos *models.Position, exit float64) float64 {
	if pos.Direction == models.DirectionShort {
		return (pos.EntryPrice - exit) * float64(pos.Quantity)
	}
	return (exit - pos.EntryPrice) * float64(pos.Quantity)
}
