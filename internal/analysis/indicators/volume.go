package indicators

import (
	"fmt"

	"intraday-trader/internal/models"
)

// VolumeStats summarizes recent volume relative to its average.
type VolumeStats struct {
	Current float64
	Average float64
	Ratio   float64
}

// VolumeAnalyzer computes volume statistics over a lookback window.
type VolumeAnalyzer struct {
	period int
}

func NewVolumeAnalyzer(period int) *VolumeAnalyzer {
	return &VolumeAnalyzer{period: period}
}

func (v *VolumeAnalyzer) Name() string { return fmt.Sprintf("VOL(%d)", v.period) }
func (v *VolumeAnalyzer) Period() int  { return v.period }

// Calculate returns the current-to-average volume ratio.
func (v *VolumeAnalyzer) Calculate(candles []models.Candle) (float64, error) {
	stats, err := v.CalculateStats(candles)
	if err != nil {
		return 0, err
	}
	return stats.Ratio, nil
}

// CalculateStats returns the full volume summary. The average excludes
// the current (latest) candle so an in-progress bar does not dilute it.
func (v *VolumeAnalyzer) CalculateStats(candles []models.Candle) (VolumeStats, error) {
	if err := requireCandles(candles, v.period+1); err != nil {
		return VolumeStats{}, err
	}

	current := float64(candles[len(candles)-1].Volume)
	window := candles[len(candles)-1-v.period : len(candles)-1]

	var sum float64
	for _, c := range window {
		sum += float64(c.Volume)
	}
	avg := sum / float64(v.period)

	stats := VolumeStats{Current: current, Average: avg}
	if avg > 0 {
		stats.Ratio = current / avg
	}
	return stats, nil
}
