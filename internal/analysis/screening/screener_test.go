package screening

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"intraday-trader/internal/config"
	"intraday-trader/internal/errors"
	"intraday-trader/internal/models"
)

func testConfig() config.ScreeningConfig {
	return config.Default().Screening
}

func equity(symbol string, price, open, high, low float64, avgVol, dayVol int64) models.Instrument {
	return models.Instrument{
		Symbol:    symbol,
		Exchange:  models.NSE,
		Type:      models.InstrumentEquity,
		LotSize:   1,
		LastPrice: price,
		AvgVolume: avgVol,
		DayVolume: dayVol,
		DayOpen:   open,
		DayHigh:   high,
		DayLow:    low,
	}
}

func TestScreenUniverseFunnel(t *testing.T) {
	screener := NewScreener(testConfig(), zerolog.Nop())

	universe := []models.Instrument{
		// Below the price floor, rejected at eligibility.
		equity("PENNY", 5, 4.9, 5.1, 4.8, 500000, 900000),
		// Thin book, rejected at liquidity.
		equity("THIN", 120, 118, 121, 117, 10000, 25000),
		// Clean intraday mover, should be the only candidate.
		equity("MOVER", 103, 100, 104, 99, 200000, 400000),
	}

	candidates, rejections, err := screener.ScreenUniverse(context.Background(), universe)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(candidates) != 1 || candidates[0].Instrument.Symbol != "MOVER" {
		t.Fatalf("candidates = %v, want exactly MOVER", candidates)
	}
	if len(rejections) != 2 {
		t.Fatalf("got %d rejections, want 2", len(rejections))
	}

	stages := map[string]errors.Stage{}
	for _, rej := range rejections {
		stages[rej.Symbol] = rej.Stage
	}
	if stages["PENNY"] != errors.StageEligibility {
		t.Errorf("PENNY rejected at %s, want eligibility", stages["PENNY"])
	}
	if stages["THIN"] != errors.StageLiquidity {
		t.Errorf("THIN rejected at %s, want liquidity", stages["THIN"])
	}
}

func TestScreenUniverseInclusiveBounds(t *testing.T) {
	cfg := testConfig()
	screener := NewScreener(cfg, zerolog.Nop())

	// Exactly on the minimum move and minimum spike, both inclusive.
	open := 1000.0
	price := open * (1 + cfg.MinMovePct)
	inst := equity("EDGE", price, open, price, open, cfg.MinAvgVolume,
		int64(float64(cfg.MinAvgVolume)*cfg.MinVolumeSpike))

	candidates, rejections, err := screener.ScreenUniverse(context.Background(), []models.Instrument{inst})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("boundary instrument rejected: %v", rejections)
	}
}

func TestScreenUniverseRejectsNonEquity(t *testing.T) {
	screener := NewScreener(testConfig(), zerolog.Nop())

	inst := equity("NIFTYFUT", 103, 100, 104, 99, 200000, 400000)
	inst.Type = models.InstrumentDerivative

	candidates, rejections, err := screener.ScreenUniverse(context.Background(), []models.Instrument{inst})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("derivative passed eligibility")
	}
	if len(rejections) != 1 || rejections[0].Stage != errors.StageEligibility {
		t.Fatalf("rejections = %v, want one eligibility rejection", rejections)
	}
}

func TestScreenUniverseDeterministic(t *testing.T) {
	screener := NewScreener(testConfig(), zerolog.Nop())

	universe := []models.Instrument{
		equity("AAA", 103, 100, 104, 99, 200000, 400000),
		equity("BBB", 206, 200, 208, 198, 300000, 600000),
		equity("CCC", 515, 500, 520, 495, 400000, 900000),
		equity("DDD", 52.8, 51, 53, 50.5, 150000, 310000),
	}

	first, _, err := screener.ScreenUniverse(context.Background(), universe)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for run := 0; run < 5; run++ {
		again, _, err := screener.ScreenUniverse(context.Background(), universe)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(again) != len(first) {
			t.Fatalf("run %d: %d candidates, want %d", run, len(again), len(first))
		}
		for i := range first {
			if again[i].Instrument.Symbol != first[i].Instrument.Symbol {
				t.Fatalf("run %d: order differs at %d: %s vs %s",
					run, i, again[i].Instrument.Symbol, first[i].Instrument.Symbol)
			}
			if again[i].CompositeScore != first[i].CompositeScore {
				t.Fatalf("run %d: score differs for %s", run, first[i].Instrument.Symbol)
			}
		}
	}
}

func TestScoreAndRankTieBreak(t *testing.T) {
	// Identical raw metrics degenerate every normalized sub-score to 0.5,
	// so all composites are equal and only the tie-break orders them.
	universe := []models.Instrument{
		equity("BBB", 103, 100, 104, 99, 200000, 400000),
		equity("CCC", 103, 100, 104, 99, 300000, 600000),
		equity("AAA", 103, 100, 104, 99, 200000, 400000),
	}

	ranked := scoreAndRank(universe, testConfig())
	if len(ranked) != 3 {
		t.Fatalf("got %d candidates, want 3", len(ranked))
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].CompositeScore != ranked[0].CompositeScore {
			t.Fatalf("composite scores differ, tie-break not exercised")
		}
	}

	// Higher average volume first, then symbol ascending.
	want := []string{"CCC", "AAA", "BBB"}
	for i, symbol := range want {
		if ranked[i].Instrument.Symbol != symbol {
			t.Errorf("position %d = %s, want %s", i, ranked[i].Instrument.Symbol, symbol)
		}
	}
}

func TestScreenUniverseTruncation(t *testing.T) {
	cfg := testConfig()
	cfg.MaxCandidates = 2
	screener := NewScreener(cfg, zerolog.Nop())

	universe := []models.Instrument{
		equity("AAA", 103, 100, 104, 99, 200000, 400000),
		equity("BBB", 206, 200, 208, 198, 300000, 600000),
		equity("CCC", 515, 500, 520, 495, 400000, 900000),
	}

	candidates, _, err := screener.ScreenUniverse(context.Background(), universe)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2 after truncation", len(candidates))
	}
	if candidates[0].CompositeScore < candidates[1].CompositeScore {
		t.Errorf("candidates not sorted by composite score descending")
	}
}

func TestScreenUniverseEmpty(t *testing.T) {
	screener := NewScreener(testConfig(), zerolog.Nop())
	candidates, rejections, err := screener.ScreenUniverse(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if candidates != nil || rejections != nil {
		t.Errorf("empty universe should produce no output")
	}
}
