package indicators

import (
	"fmt"

	"intraday-trader/internal/errors"
	"intraday-trader/internal/models"
)

// SMA is a simple moving average over closing prices.
type SMA struct {
	period int
}

func NewSMA(period int) *SMA {
	return &SMA{period: period}
}

func (s *SMA) Name() string { return fmt.Sprintf("SMA(%d)", s.period) }
func (s *SMA) Period() int  { return s.period }

func (s *SMA) Calculate(candles []models.Candle) (float64, error) {
	if err := requireCandles(candles, s.period); err != nil {
		return 0, err
	}
	prices := closePrices(candles)
	return mean(prices[len(prices)-s.period:]), nil
}

// EMA is an exponential moving average over closing prices.
type EMA struct {
	period int
}

func NewEMA(period int) *EMA {
	return &EMA{period: period}
}

func (e *EMA) Name() string { return fmt.Sprintf("EMA(%d)", e.period) }
func (e *EMA) Period() int  { return e.period }

func (e *EMA) Calculate(candles []models.Candle) (float64, error) {
	if err := requireCandles(candles, e.period); err != nil {
		return 0, err
	}
	series := emaSeries(closePrices(candles), e.period)
	return series[len(series)-1], nil
}

// CalculatePair returns the previous and current EMA values, used by
// crossover detection. Requires period+1 candles.
func (e *EMA) CalculatePair(candles []models.Candle) (prev, curr float64, err error) {
	if err := requireCandles(candles, e.period+1); err != nil {
		return 0, 0, err
	}
	series := emaSeries(closePrices(candles), e.period)
	if len(series) < 2 {
		return 0, 0, errors.Wrap(errors.ErrInsufficientHistory, "ema series too short")
	}
	return series[len(series)-2], series[len(series)-1], nil
}

// MACD computes the moving average convergence divergence line, its
// signal line and histogram.
type MACD struct {
	fast   int
	slow   int
	signal int
}

// NewMACD returns the standard MACD(12, 26, 9).
func NewMACD() *MACD {
	return &MACD{fast: 12, slow: 26, signal: 9}
}

func (m *MACD) Name() string { return fmt.Sprintf("MACD(%d,%d,%d)", m.fast, m.slow, m.signal) }
func (m *MACD) Period() int  { return m.slow + m.signal }

// Calculate returns the latest MACD line value.
func (m *MACD) Calculate(candles []models.Candle) (float64, error) {
	line, _, _, err := m.CalculateFull(candles)
	return line, err
}

// CalculateFull returns the MACD line, signal line and histogram.
func (m *MACD) CalculateFull(candles []models.Candle) (line, signal, histogram float64, err error) {
	if err := requireCandles(candles, m.Period()); err != nil {
		return 0, 0, 0, err
	}
	prices := closePrices(candles)
	fast := emaSeries(prices, m.fast)
	slow := emaSeries(prices, m.slow)

	// Align the fast series to the slow series tail.
	offset := len(fast) - len(slow)
	macdLine := make([]float64, len(slow))
	for i := range slow {
		macdLine[i] = fast[i+offset] - slow[i]
	}

	signalSeries := emaSeries(macdLine, m.signal)
	if len(signalSeries) == 0 {
		return 0, 0, 0, errors.Wrap(errors.ErrInsufficientHistory, "macd signal series empty")
	}

	line = macdLine[len(macdLine)-1]
	signal = signalSeries[len(signalSeries)-1]
	return line, signal, line - signal, nil
}
