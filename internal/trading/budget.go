// Package trading implements the risk-managed position engine: signal
// evaluation, position sizing, lifecycle transitions and the daily budget.
package trading

import (
	"sync"
)

// DailyBudget tracks the capital allocated for one trading session. All
// accesses are serialized so commit checks and the commits themselves are
// one atomic step.
type DailyBudget struct {
	mu sync.Mutex

	allocated   float64
	committed   float64
	openCount   int
	realizedPnL float64
	maxLoss     float64
}

// BudgetSnapshot is a point-in-time copy of the budget counters.
type BudgetSnapshot struct {
	Allocated   float64
	Committed   float64
	Available   float64
	OpenCount   int
	RealizedPnL float64
	MaxLoss     float64
}

func NewDailyBudget(allocated, maxLoss float64) *DailyBudget {
	return &DailyBudget{allocated: allocated, maxLoss: maxLoss}
}

// Reset clears the counters for a new session day.
func (b *DailyBudget) Reset(allocated, maxLoss float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.allocated = allocated
	b.maxLoss = maxLoss
	b.committed = 0
	b.openCount = 0
	b.realizedPnL = 0
}

// TryCommit atomically reserves amount against the budget if both the
// capital and the open-position limits allow it. It returns false without
// reserving anything otherwise.
func (b *DailyBudget) TryCommit(amount float64, maxPositions int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.openCount >= maxPositions {
		return false
	}
	if b.committed+amount > b.allocated {
		return false
	}
	b.committed += amount
	b.openCount++
	return true
}

// Release returns a closed position's capital to the pool and records its
// realized result.
func (b *DailyBudget) Release(amount, pnl float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.committed -= amount
	if b.committed < 0 {
		b.committed = 0
	}
	if b.openCount > 0 {
		b.openCount--
	}
	b.realizedPnL += pnl
}

// LossLimitReached reports whether realized losses have consumed the
// configured share of the budget. New entries must be refused once true.
func (b *DailyBudget) LossLimitReached() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.maxLoss > 0 && -b.realizedPnL >= b.maxLoss
}

// Snapshot returns a consistent copy of the counters.
func (b *DailyBudget) Snapshot() BudgetSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BudgetSnapshot{
		Allocated:   b.allocated,
		Committed:   b.committed,
		Available:   b.allocated - b.committed,
		OpenCount:   b.openCount,
		RealizedPnL: b.realizedPnL,
		MaxLoss:     b.maxLoss,
	}
}

// RestoreRealizedPnL seeds the realized result when resuming a session
// from persisted state.
func (b *DailyBudget) RestoreRealizedPnL(pnl float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.realizedPnL = pnl
}
