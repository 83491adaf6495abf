package indicators

import (
	"fmt"

	"intraday-trader/internal/models"
)

// RSI is the relative strength index with Wilder smoothing.
type RSI struct {
	period int
}

func NewRSI(period int) *RSI {
	return &RSI{period: period}
}

func (r *RSI) Name() string { return fmt.Sprintf("RSI(%d)", r.period) }
func (r *RSI) Period() int  { return r.period + 1 }

func (r *RSI) Calculate(candles []models.Candle) (float64, error) {
	if err := requireCandles(candles, r.period+1); err != nil {
		return 0, err
	}
	prices := closePrices(candles)

	var avgGain, avgLoss float64
	for i := 1; i <= r.period; i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(r.period)
	avgLoss /= float64(r.period)

	// Wilder smoothing over the remaining closes.
	for i := r.period + 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(r.period-1) + gain) / float64(r.period)
		avgLoss = (avgLoss*float64(r.period-1) + loss) / float64(r.period)
	}

	if avgLoss == 0 {
		if avgGain == 0 {
			return 50, nil
		}
		return 100, nil
	}

	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), nil
}
