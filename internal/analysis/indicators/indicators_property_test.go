package indicators

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"intraday-trader/internal/errors"
	"intraday-trader/internal/models"
)

// candleGen generates a single valid OHLC candle.
func candleGen() gopter.Gen {
	return gopter.CombineGens(
		gen.Float64Range(10, 5000),   // open
		gen.Float64Range(0, 50),      // up range
		gen.Float64Range(0, 50),      // down range
		gen.Float64Range(-25, 25),    // close offset
		gen.Int64Range(100, 5000000), // volume
	).Map(func(vals []interface{}) models.Candle {
		open := vals[0].(float64)
		up := vals[1].(float64)
		down := vals[2].(float64)
		offset := vals[3].(float64)

		closePrice := open + offset
		if closePrice < 1 {
			closePrice = 1
		}
		high := open + up
		if closePrice > high {
			high = closePrice
		}
		low := open - down
		if low < 0.5 {
			low = 0.5
		}
		if closePrice < low {
			low = closePrice
		}

		return models.Candle{
			Timestamp: time.Now(),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    vals[4].(int64),
		}
	})
}

func candleSliceGen(n int) gopter.Gen {
	return gen.SliceOfN(n, candleGen())
}

func TestRSIBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("RSI is always within [0, 100]", prop.ForAll(
		func(candles []models.Candle) bool {
			rsi := NewRSI(14)
			value, err := rsi.Calculate(candles)
			if err != nil {
				return false
			}
			return value >= 0 && value <= 100
		},
		candleSliceGen(40),
	))

	properties.TestingRun(t)
}

func TestRSIFlatSeries(t *testing.T) {
	candles := make([]models.Candle, 20)
	for i := range candles {
		candles[i] = models.Candle{Open: 100, High: 100, Low: 100, Close: 100, Volume: 1000}
	}
	rsi := NewRSI(14)
	value, err := rsi.Calculate(candles)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != 50 {
		t.Errorf("flat series RSI = %v, want 50", value)
	}
}

func TestBollingerBandOrdering(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("upper >= middle >= lower", prop.ForAll(
		func(candles []models.Candle) bool {
			bb := NewBollingerBands()
			upper, middle, lower, err := bb.CalculateBands(candles)
			if err != nil {
				return false
			}
			return upper >= middle && middle >= lower
		},
		candleSliceGen(40),
	))

	properties.TestingRun(t)
}

func TestATRNonNegative(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("ATR is never negative", prop.ForAll(
		func(candles []models.Candle) bool {
			atr := NewATR(14)
			value, err := atr.Calculate(candles)
			if err != nil {
				return false
			}
			return value >= 0
		},
		candleSliceGen(40),
	))

	properties.TestingRun(t)
}

func TestEMAWithinPriceRange(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("EMA stays within observed close range", prop.ForAll(
		func(candles []models.Candle) bool {
			ema := NewEMA(12)
			value, err := ema.Calculate(candles)
			if err != nil {
				return false
			}
			lo, hi := candles[0].Close, candles[0].Close
			for _, c := range candles {
				if c.Close < lo {
					lo = c.Close
				}
				if c.Close > hi {
					hi = c.Close
				}
			}
			return value >= lo && value <= hi
		},
		candleSliceGen(40),
	))

	properties.TestingRun(t)
}

func TestMACDHistogramConsistency(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("histogram equals line minus signal", prop.ForAll(
		func(candles []models.Candle) bool {
			macd := NewMACD()
			line, signal, histogram, err := macd.CalculateFull(candles)
			if err != nil {
				return false
			}
			diff := line - signal - histogram
			return diff < 1e-9 && diff > -1e-9
		},
		candleSliceGen(60),
	))

	properties.TestingRun(t)
}

func TestInsufficientHistory(t *testing.T) {
	candles := make([]models.Candle, 5)
	for i := range candles {
		candles[i] = models.Candle{Open: 100, High: 101, Low: 99, Close: 100, Volume: 1000}
	}

	cases := []Indicator{
		NewRSI(14),
		NewEMA(12),
		NewSMA(20),
		NewATR(14),
		NewMACD(),
		NewBollingerBands(),
		NewVolumeAnalyzer(20),
	}

	for _, ind := range cases {
		if _, err := ind.Calculate(candles); !errors.Is(err, errors.ErrInsufficientHistory) {
			t.Errorf("%s: expected ErrInsufficientHistory, got %v", ind.Name(), err)
		}
	}
}

func TestVolumeStatsRatio(t *testing.T) {
	candles := make([]models.Candle, 21)
	for i := 0; i < 20; i++ {
		candles[i] = models.Candle{Open: 100, High: 101, Low: 99, Close: 100, Volume: 1000}
	}
	candles[20] = models.Candle{Open: 100, High: 101, Low: 99, Close: 100, Volume: 3000}

	analyzer := NewVolumeAnalyzer(20)
	stats, err := analyzer.CalculateStats(candles)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Average != 1000 {
		t.Errorf("average = %v, want 1000", stats.Average)
	}
	if stats.Ratio != 3 {
		t.Errorf("ratio = %v, want 3", stats.Ratio)
	}
}
