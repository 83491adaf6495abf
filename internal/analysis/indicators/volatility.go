package indicators

import (
	"fmt"

	"intraday-trader/internal/models"
)

// ATR is the average true range with Wilder smoothing.
type ATR struct {
	period int
}

func NewATR(period int) *ATR {
	return &ATR{period: period}
}

func (a *ATR) Name() string { return fmt.Sprintf("ATR(%d)", a.period) }
func (a *ATR) Period() int  { return a.period + 1 }

func (a *ATR) Calculate(candles []models.Candle) (float64, error) {
	if err := requireCandles(candles, a.period+1); err != nil {
		return 0, err
	}

	var atr float64
	for i := 1; i <= a.period; i++ {
		atr += trueRange(candles[i], candles[i-1])
	}
	atr /= float64(a.period)

	for i := a.period + 1; i < len(candles); i++ {
		tr := trueRange(candles[i], candles[i-1])
		atr = (atr*float64(a.period-1) + tr) / float64(a.period)
	}
	return atr, nil
}

// BollingerBands computes the upper, middle and lower bands over
// closing prices.
type BollingerBands struct {
	period  int
	stdMult float64
}

// NewBollingerBands returns the standard 20-period, 2-sigma bands.
func NewBollingerBands() *BollingerBands {
	return &BollingerBands{period: 20, stdMult: 2.0}
}

func (b *BollingerBands) Name() string {
	return fmt.Sprintf("BB(%d,%.1f)", b.period, b.stdMult)
}
func (b *BollingerBands) Period() int { return b.period }

// Calculate returns the middle band (the SMA).
func (b *BollingerBands) Calculate(candles []models.Candle) (float64, error) {
	_, mid, _, err := b.CalculateBands(candles)
	return mid, err
}

// CalculateBands returns upper, middle and lower band values.
func (b *BollingerBands) CalculateBands(candles []models.Candle) (upper, middle, lower float64, err error) {
	if err := requireCandles(candles, b.period); err != nil {
		return 0, 0, 0, err
	}
	prices := closePrices(candles)
	window := prices[len(prices)-b.period:]

	middle = mean(window)
	sd := stdDev(window)
	upper = middle + b.stdMult*sd
	lower = middle - b.stdMult*sd
	return upper, middle, lower, nil
}
