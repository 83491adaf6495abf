package screening

import (
	"context"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"

	"intraday-trader/internal/models"
)

// instrumentGen generates a plausible equity snapshot with consistent
// intraday fields.
func instrumentGen() gopter.Gen {
	return gopter.CombineGens(
		gen.AlphaUpperChar(),
		gen.AlphaUpperChar(),
		gen.AlphaUpperChar(),
		gen.Float64Range(5, 12000),     // day open
		gen.Float64Range(-0.12, 0.12),  // move fraction
		gen.Float64Range(0, 0.15),      // extra high fraction
		gen.Float64Range(0, 0.15),      // extra low fraction
		gen.Int64Range(1000, 10000000), // avg volume
		gen.Float64Range(0.1, 5),       // day-to-avg volume ratio
	).Map(func(vals []interface{}) models.Instrument {
		symbol := string([]rune{vals[0].(rune), vals[1].(rune), vals[2].(rune)})
		open := vals[3].(float64)
		last := open * (1 + vals[4].(float64))
		high := open * (1 + vals[5].(float64))
		low := open * (1 - vals[6].(float64))
		if last > high {
			high = last
		}
		if last < low {
			low = last
		}
		avgVol := vals[7].(int64)

		return models.Instrument{
			Symbol:    symbol,
			Exchange:  models.NSE,
			Type:      models.InstrumentEquity,
			LotSize:   1,
			LastPrice: last,
			AvgVolume: avgVol,
			DayVolume: int64(float64(avgVol) * vals[8].(float64)),
			DayOpen:   open,
			DayHigh:   high,
			DayLow:    low,
		}
	})
}

// compositeSample is a point in normalized sub-score space plus a bump
// applied to one dimension at a time.
type compositeSample struct {
	surge, vol, mom, rng float64
	delta                float64
}

func compositeSampleGen() gopter.Gen {
	return gopter.CombineGens(
		gen.Float64Range(0, 1),   // volume surge
		gen.Float64Range(0, 1),   // volatility
		gen.Float64Range(0, 1),   // momentum
		gen.Float64Range(0, 1),   // trading range
		gen.Float64Range(0, 0.5), // bump
	).Map(func(vals []interface{}) compositeSample {
		return compositeSample{
			surge: vals[0].(float64),
			vol:   vals[1].(float64),
			mom:   vals[2].(float64),
			rng:   vals[3].(float64),
			delta: vals[4].(float64),
		}
	})
}

func TestScoringProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)
	cfg := testConfig()

	properties.Property("composite and sub-scores stay within [0, 1]", prop.ForAll(
		func(instruments []models.Instrument) bool {
			for _, c := range scoreAndRank(instruments, cfg) {
				for _, v := range []float64{c.VolumeSurge, c.Volatility, c.Momentum, c.TradingRange, c.CompositeScore} {
					if v < 0 || v > 1 {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOfN(12, instrumentGen()),
	))

	properties.Property("composite is non-decreasing in each sub-score", prop.ForAll(
		func(s compositeSample) bool {
			base := composite(s.surge, s.vol, s.mom, s.rng, cfg)
			bumped := []float64{
				composite(s.surge+s.delta, s.vol, s.mom, s.rng, cfg),
				composite(s.surge, s.vol+s.delta, s.mom, s.rng, cfg),
				composite(s.surge, s.vol, s.mom+s.delta, s.rng, cfg),
				composite(s.surge, s.vol, s.mom, s.rng+s.delta, cfg),
			}
			for _, b := range bumped {
				if b < base {
					return false
				}
			}
			return true
		},
		compositeSampleGen(),
	))

	properties.Property("ranking is sorted by composite score descending", prop.ForAll(
		func(instruments []models.Instrument) bool {
			ranked := scoreAndRank(instruments, cfg)
			for i := 1; i < len(ranked); i++ {
				if ranked[i-1].CompositeScore < ranked[i].CompositeScore {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(12, instrumentGen()),
	))

	properties.TestingRun(t)
}

func TestFilterProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)
	cfg := testConfig()
	screener := NewScreener(cfg, zerolog.Nop())

	properties.Property("price outside the band never survives screening", prop.ForAll(
		func(inst models.Instrument) bool {
			if inst.LastPrice >= cfg.MinPrice && inst.LastPrice <= cfg.MaxPrice {
				return true // in band, not this property's concern
			}
			candidates, _, err := screener.ScreenUniverse(context.Background(), []models.Instrument{inst})
			return err == nil && len(candidates) == 0
		},
		instrumentGen(),
	))

	properties.Property("survivors always meet the volume floor", prop.ForAll(
		func(instruments []models.Instrument) bool {
			candidates, _, err := screener.ScreenUniverse(context.Background(), instruments)
			if err != nil {
				return false
			}
			for _, c := range candidates {
				if c.Instrument.AvgVolume < cfg.MinAvgVolume {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(15, instrumentGen()),
	))

	properties.TestingRun(t)
}
