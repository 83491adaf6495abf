package indicators

import (
	"math"

	"intraday-trader/internal/errors"
	"intraday-trader/internal/models"
)

// Indicator is the common contract for all technical indicators.
type Indicator interface {
	// Name returns the indicator identifier, e.g. "RSI(14)".
	Name() string
	// Calculate computes the latest indicator value from candles
	// ordered oldest to newest.
	Calculate(candles []models.Candle) (float64, error)
	// Period returns the minimum number of candles required.
	Period() int
}

func closePrices(candles []models.Candle) []float64 {
	prices := make([]float64, len(candles))
	for i, c := range candles {
		prices[i] = c.Close
	}
	return prices
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

// trueRange returns max(high-low, |high-prevClose|, |low-prevClose|).
func trueRange(curr, prev models.Candle) float64 {
	tr := curr.High - curr.Low
	if hc := math.Abs(curr.High - prev.Close); hc > tr {
		tr = hc
	}
	if lc := math.Abs(curr.Low - prev.Close); lc > tr {
		tr = lc
	}
	return tr
}

func requireCandles(candles []models.Candle, n int) error {
	if len(candles) < n {
		return errors.Wrapf(errors.ErrInsufficientHistory,
			"need %d candles, have %d", n, len(candles))
	}
	return nil
}

// emaSeries computes the full EMA series over prices using the standard
// smoothing factor 2/(period+1). The series is seeded with the SMA of
// the first period values.
func emaSeries(prices []float64, period int) []float64 {
	if len(prices) < period || period <= 0 {
		return nil
	}
	k := 2.0 / float64(period+1)
	out := make([]float64, 0, len(prices)-period+1)
	ema := mean(prices[:period])
	out = append(out, ema)
	for i := period; i < len(prices); i++ {
		ema = (prices[i]-ema)*k + ema
		out = append(out, ema)
	}
	return out
}
