// Package signals turns ranked screening candidates into directional trade
// signals using EMA crossover, RSI and volume confirmation.
package signals

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"intraday-trader/internal/analysis/indicators"
	"intraday-trader/internal/config"
	"intraday-trader/internal/errors"
	"intraday-trader/internal/models"
)

// HistoryProvider fetches intraday candles for one symbol, ordered oldest
// to newest.
type HistoryProvider interface {
	History(ctx context.Context, symbol string) ([]models.Candle, error)
}

// GenerationResult carries the signals of one cycle together with the
// per-candidate rejections and whether the fallback list was used.
type GenerationResult struct {
	Signals      []models.TradeSignal
	Rejections   []errors.RejectionError
	UsedFallback bool
}

// Generator evaluates candidates against the signal rules.
type Generator struct {
	cfg    config.ScreeningConfig
	logger zerolog.Logger

	emaFast *indicators.EMA
	emaSlow *indicators.EMA
	rsi     *indicators.RSI
	macd    *indicators.MACD
	atr     *indicators.ATR
	bb      *indicators.BollingerBands
	volume  *indicators.VolumeAnalyzer
	now     func() time.Time
}

func NewGenerator(cfg config.ScreeningConfig, logger zerolog.Logger) *Generator {
	return &Generator{
		cfg:     cfg,
		logger:  logger.With().Str("component", "signals").Logger(),
		emaFast: indicators.NewEMA(12),
		emaSlow: indicators.NewEMA(26),
		rsi:     indicators.NewRSI(14),
		macd:    indicators.NewMACD(),
		atr:     indicators.NewATR(14),
		bb:      indicators.NewBollingerBands(),
		volume:  indicators.NewVolumeAnalyzer(20),
		now:     time.Now,
	}
}

// evalTask is one symbol queued for signal evaluation.
type evalTask struct {
	symbol    string
	avgVolume int64
}

type evalResult struct {
	signal    models.TradeSignal
	rejection *errors.RejectionError
}

// GenerateSignals evaluates candidates concurrently. Candidates whose
// history cannot be fetched or whose indicators cannot be computed are
// rejected, not fatal. When fewer usable signals than the configured
// minimum emerge, the fallback instrument list is evaluated as well.
// The strongest signals are kept, capped at the final selection count.
func (g *Generator) GenerateSignals(ctx context.Context, candidates []models.ScoredCandidate, provider HistoryProvider) GenerationResult {
	var result GenerationResult

	tasks := make([]evalTask, 0, len(candidates))
	for _, cand := range candidates {
		tasks = append(tasks, evalTask{
			symbol:    cand.Instrument.Symbol,
			avgVolume: cand.Instrument.AvgVolume,
		})
	}
	result.Signals, result.Rejections = g.evaluateAll(ctx, tasks, provider)

	if len(result.Signals) < g.cfg.MinUsableSignals && len(g.cfg.FallbackSymbols) > 0 {
		g.logger.Warn().
			Int("usable", len(result.Signals)).
			Int("minimum", g.cfg.MinUsableSignals).
			Msg("falling back to static instrument list")
		result.UsedFallback = true

		seen := make(map[string]bool, len(result.Signals))
		for _, sig := range result.Signals {
			seen[sig.Symbol] = true
		}
		var fallback []evalTask
		for _, symbol := range g.cfg.FallbackSymbols {
			if seen[symbol] {
				continue
			}
			fallback = append(fallback, evalTask{symbol: symbol})
		}
		signals, rejections := g.evaluateAll(ctx, fallback, provider)
		result.Signals = append(result.Signals, signals...)
		result.Rejections = append(result.Rejections, rejections...)
	}

	sortSignals(result.Signals)
	if n := g.cfg.FinalSelection; n > 0 && len(result.Signals) > n {
		result.Signals = result.Signals[:n]
	}
	return result
}

// evaluateAll fans the tasks out over a bounded worker pool. Rejections
// are re-sorted by symbol since workers drain in arbitrary order.
func (g *Generator) evaluateAll(ctx context.Context, tasks []evalTask, provider HistoryProvider) ([]models.TradeSignal, []errors.RejectionError) {
	if len(tasks) == 0 {
		return nil, nil
	}

	concurrency := g.cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	if concurrency > len(tasks) {
		concurrency = len(tasks)
	}

	workChan := make(chan evalTask, len(tasks))
	resultChan := make(chan evalResult, len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range workChan {
				select {
				case <-ctx.Done():
					return
				default:
				}
				signal, rej := g.evaluate(ctx, task.symbol, task.avgVolume, provider)
				resultChan <- evalResult{signal: signal, rejection: rej}
			}
		}()
	}

	for _, task := range tasks {
		workChan <- task
	}
	close(workChan)
	wg.Wait()
	close(resultChan)

	var signals []models.TradeSignal
	var rejections []errors.RejectionError
	for res := range resultChan {
		if res.rejection != nil {
			rejections = append(rejections, *res.rejection)
			continue
		}
		signals = append(signals, res.signal)
	}

	sort.Slice(rejections, func(i, j int) bool {
		return rejections[i].Symbol < rejections[j].Symbol
	})
	return signals, rejections
}

// sortSignals orders signals strongest first, breaking ties on higher
// average volume and then symbol so downstream sizing is deterministic.
func sortSignals(signals []models.TradeSignal) {
	sort.SliceStable(signals, func(i, j int) bool {
		if signals[i].Strength != signals[j].Strength {
			return signals[i].Strength > signals[j].Strength
		}
		if signals[i].AvgVolume != signals[j].AvgVolume {
			return signals[i].AvgVolume > signals[j].AvgVolume
		}
		return signals[i].Symbol < signals[j].Symbol
	})
}

func (g *Generator) evaluate(ctx context.Context, symbol string, avgVolume int64, provider HistoryProvider) (models.TradeSignal, *errors.RejectionError) {
	candles, err := provider.History(ctx, symbol)
	if err != nil {
		return models.TradeSignal{}, errors.NewRejection(symbol, errors.StageSignals,
			"history fetch failed", err)
	}

	snapshot, err := g.Snapshot(symbol, candles)
	if err != nil {
		return models.TradeSignal{}, errors.NewRejection(symbol, errors.StageSignals,
			"indicator computation failed", err)
	}

	signal, rej := g.decide(snapshot, candles, avgVolume)
	if rej != nil {
		return models.TradeSignal{}, rej
	}
	return signal, nil
}

// Snapshot computes the full indicator set for one symbol.
func (g *Generator) Snapshot(symbol string, candles []models.Candle) (models.TechnicalSnapshot, error) {
	prevFast, fast, err := g.emaFast.CalculatePair(candles)
	if err != nil {
		return models.TechnicalSnapshot{}, err
	}
	prevSlow, slow, err := g.emaSlow.CalculatePair(candles)
	if err != nil {
		return models.TechnicalSnapshot{}, err
	}
	rsi, err := g.rsi.Calculate(candles)
	if err != nil {
		return models.TechnicalSnapshot{}, err
	}
	macdLine, macdSignal, histogram, err := g.macd.CalculateFull(candles)
	if err != nil {
		return models.TechnicalSnapshot{}, err
	}
	atr, err := g.atr.Calculate(candles)
	if err != nil {
		return models.TechnicalSnapshot{}, err
	}
	up, mid, low, err := g.bb.CalculateBands(candles)
	if err != nil {
		return models.TechnicalSnapshot{}, err
	}

	return models.TechnicalSnapshot{
		Symbol:        symbol,
		Candles:       candles,
		RSI:           rsi,
		EMAFast:       fast,
		EMASlow:       slow,
		PrevEMAFast:   prevFast,
		PrevEMASlow:   prevSlow,
		MACD:          macdLine,
		MACDSignal:    macdSignal,
		MACDHistogram: histogram,
		BollingerUp:   up,
		BollingerMid:  mid,
		BollingerLow:  low,
		ATR:           atr,
		ComputedAt:    g.now(),
	}, nil
}

// decide applies the crossover, RSI and volume rules and blends the signal
// strength.
func (g *Generator) decide(snap models.TechnicalSnapshot, candles []models.Candle, avgVolume int64) (models.TradeSignal, *errors.RejectionError) {
	volStats, err := g.volume.CalculateStats(candles)
	if err != nil {
		return models.TradeSignal{}, errors.NewRejection(snap.Symbol, errors.StageSignals,
			"volume stats failed", err)
	}

	bullishCross := snap.PrevEMAFast <= snap.PrevEMASlow && snap.EMAFast > snap.EMASlow
	bearishCross := snap.PrevEMAFast >= snap.PrevEMASlow && snap.EMAFast < snap.EMASlow

	var direction models.Direction
	var reasons []string
	switch {
	case bullishCross && snap.RSI < 70:
		direction = models.DirectionLong
		reasons = append(reasons, "bullish EMA(12/26) crossover", "RSI below overbought")
	case bearishCross && snap.RSI > 30:
		direction = models.DirectionShort
		reasons = append(reasons, "bearish EMA(12/26) crossover", "RSI above oversold")
	default:
		return models.TradeSignal{}, errors.NewRejection(snap.Symbol, errors.StageSignals,
			"no crossover with RSI confirmation", nil)
	}

	if volStats.Current < volStats.Average {
		return models.TradeSignal{}, errors.NewRejection(snap.Symbol, errors.StageSignals,
			"volume below average, no confirmation", nil)
	}
	reasons = append(reasons, "volume above average")

	lastClose := candles[len(candles)-1].Close
	strength := g.strength(snap, direction, lastClose)

	if avgVolume == 0 {
		avgVolume = int64(volStats.Average)
	}

	return models.TradeSignal{
		Symbol:      snap.Symbol,
		Direction:   direction,
		Strength:    strength,
		Reasons:     reasons,
		Price:       lastClose,
		ATR:         snap.ATR,
		AvgVolume:   avgVolume,
		GeneratedAt: g.now(),
	}, nil
}

// strength blends the crossover separation, the RSI distance from the
// midline in the signal's favor, and MACD histogram agreement into [0, 1].
func (g *Generator) strength(snap models.TechnicalSnapshot, direction models.Direction, price float64) float64 {
	// Crossover separation relative to price, saturating at 1% of price.
	var cross float64
	if price > 0 {
		cross = math.Abs(snap.EMAFast-snap.EMASlow) / price / 0.01
		if cross > 1 {
			cross = 1
		}
	}

	// RSI contribution grows as the index moves past 50 in the trade
	// direction.
	var rsiScore float64
	if direction == models.DirectionLong {
		rsiScore = (snap.RSI - 50) / 20
	} else {
		rsiScore = (50 - snap.RSI) / 20
	}
	if rsiScore < 0 {
		rsiScore = 0
	}
	if rsiScore > 1 {
		rsiScore = 1
	}

	// MACD histogram sign agreement.
	var macdScore float64
	if (direction == models.DirectionLong && snap.MACDHistogram > 0) ||
		(direction == models.DirectionShort && snap.MACDHistogram < 0) {
		macdScore = 1
	}

	strength := 0.4*cross + 0.3*rsiScore + 0.3*macdScore
	if strength < 0 {
		strength = 0
	}
	if strength > 1 {
		strength = 1
	}
	return strength
}
