package screening

import (
	"math"
	"sort"

	"intraday-trader/internal/config"
	"intraday-trader/internal/models"
)

// rawMetrics holds the unscaled per-instrument measurements that feed the
// potential score.
type rawMetrics struct {
	volumeSurge  float64 // day volume over average volume
	volatility   float64 // intraday range over day open
	momentum     float64 // absolute move over day open
	tradingRange float64 // intraday range over last price
}

func computeRaw(inst models.Instrument) rawMetrics {
	var m rawMetrics
	if inst.AvgVolume > 0 {
		m.volumeSurge = float64(inst.DayVolume) / float64(inst.AvgVolume)
	}
	if inst.DayOpen > 0 {
		m.volatility = (inst.DayHigh - inst.DayLow) / inst.DayOpen
		m.momentum = math.Abs(inst.LastPrice-inst.DayOpen) / inst.DayOpen
	}
	if inst.LastPrice > 0 {
		m.tradingRange = (inst.DayHigh - inst.DayLow) / inst.LastPrice
	}
	return m
}

// normalize min-max scales values into [0, 1]. A degenerate population
// where every value is equal maps to 0.5 so no dimension dominates.
func normalize(values []float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	out := make([]float64, len(values))
	span := hi - lo
	if span == 0 {
		for i := range out {
			out[i] = 0.5
		}
		return out
	}
	for i, v := range values {
		out[i] = (v - lo) / span
	}
	return out
}

// composite blends normalized sub-scores with the configured weights.
// With non-negative weights it is monotonically non-decreasing in every
// sub-score.
func composite(surge, vol, mom, rng float64, cfg config.ScreeningConfig) float64 {
	return cfg.WeightVolumeSurge*surge +
		cfg.WeightVolatility*vol +
		cfg.WeightMomentum*mom +
		cfg.WeightRange*rng
}

// scoreAndRank normalizes the sub-scores across the filtered population,
// blends them with the configured weights and returns candidates sorted by
// composite score descending, truncated to the configured maximum. Ties
// break on higher average volume, then symbol ascending, so the ranking is
// deterministic for identical inputs.
func scoreAndRank(instruments []models.Instrument, cfg config.ScreeningConfig) []models.ScoredCandidate {
	if len(instruments) == 0 {
		return nil
	}

	raw := make([]rawMetrics, len(instruments))
	surge := make([]float64, len(instruments))
	vol := make([]float64, len(instruments))
	mom := make([]float64, len(instruments))
	rng := make([]float64, len(instruments))
	for i, inst := range instruments {
		raw[i] = computeRaw(inst)
		surge[i] = raw[i].volumeSurge
		vol[i] = raw[i].volatility
		mom[i] = raw[i].momentum
		rng[i] = raw[i].tradingRange
	}

	surge = normalize(surge)
	vol = normalize(vol)
	mom = normalize(mom)
	rng = normalize(rng)

	candidates := make([]models.ScoredCandidate, len(instruments))
	for i, inst := range instruments {
		candidates[i] = models.ScoredCandidate{
			Instrument:     inst,
			VolumeSurge:    surge[i],
			Volatility:     vol[i],
			Momentum:       mom[i],
			TradingRange:   rng[i],
			CompositeScore: composite(surge[i], vol[i], mom[i], rng[i], cfg),
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.CompositeScore != b.CompositeScore {
			return a.CompositeScore > b.CompositeScore
		}
		if a.Instrument.AvgVolume != b.Instrument.AvgVolume {
			return a.Instrument.AvgVolume > b.Instrument.AvgVolume
		}
		return a.Instrument.Symbol < b.Instrument.Symbol
	})

	if cfg.MaxCandidates > 0 && len(candidates) > cfg.MaxCandidates {
		candidates = candidates[:cfg.MaxCandidates]
	}
	return candidates
}
