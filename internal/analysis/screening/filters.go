// Package screening implements the intraday candidate funnel: eligibility,
// liquidity and movement filters followed by potential scoring and ranking.
package screening

import (
	"fmt"

	"intraday-trader/internal/config"
	"intraday-trader/internal/errors"
	"intraday-trader/internal/models"
)

// checkEligibility verifies the instrument is a cash-segment equity with
// unit lot size trading inside the configured price band. All bounds are
// inclusive.
func checkEligibility(inst models.Instrument, cfg config.ScreeningConfig) *errors.RejectionError {
	if inst.Type != models.InstrumentEquity {
		return errors.NewRejection(inst.Symbol, errors.StageEligibility,
			fmt.Sprintf("instrument type %s is not equity", inst.Type), nil)
	}
	if inst.LotSize != 1 {
		return errors.NewRejection(inst.Symbol, errors.StageEligibility,
			fmt.Sprintf("lot size %d, want 1", inst.LotSize), nil)
	}
	if inst.LastPrice < cfg.MinPrice || inst.LastPrice > cfg.MaxPrice {
		return errors.NewRejection(inst.Symbol, errors.StageEligibility,
			fmt.Sprintf("price %.2f outside [%.2f, %.2f]", inst.LastPrice, cfg.MinPrice, cfg.MaxPrice), nil)
	}
	if len(cfg.Sectors) > 0 && !sectorAllowed(inst.Sector, cfg.Sectors) {
		return errors.NewRejection(inst.Symbol, errors.StageEligibility,
			fmt.Sprintf("sector %q not in allow-list", inst.Sector), nil)
	}
	return nil
}

func sectorAllowed(sector string, allowed []string) bool {
	for _, s := range allowed {
		if s == sector {
			return true
		}
	}
	return false
}

// checkLiquidity verifies the average volume floor and the intraday volume
// spike ratio. Bounds are inclusive.
func checkLiquidity(inst models.Instrument, cfg config.ScreeningConfig) *errors.RejectionError {
	if inst.AvgVolume < cfg.MinAvgVolume {
		return errors.NewRejection(inst.Symbol, errors.StageLiquidity,
			fmt.Sprintf("avg volume %d below floor %d", inst.AvgVolume, cfg.MinAvgVolume), nil)
	}
	if inst.AvgVolume <= 0 {
		return errors.NewRejection(inst.Symbol, errors.StageLiquidity,
			"zero average volume", errors.ErrDataUnavailable)
	}
	ratio := float64(inst.DayVolume) / float64(inst.AvgVolume)
	if ratio < cfg.MinVolumeSpike {
		return errors.NewRejection(inst.Symbol, errors.StageLiquidity,
			fmt.Sprintf("volume spike %.2fx below %.2fx", ratio, cfg.MinVolumeSpike), nil)
	}
	return nil
}

// checkMovement verifies the price has moved enough to be interesting but
// not so much that the move is exhausted, and that the intraday range sits
// inside the volatility band. Bounds are inclusive.
func checkMovement(inst models.Instrument, cfg config.ScreeningConfig) *errors.RejectionError {
	if inst.DayOpen <= 0 {
		return errors.NewRejection(inst.Symbol, errors.StageMovement,
			"missing day open", errors.ErrDataUnavailable)
	}

	move := inst.LastPrice - inst.DayOpen
	if move < 0 {
		move = -move
	}
	movePct := move / inst.DayOpen
	if movePct < cfg.MinMovePct || movePct > cfg.MaxMovePct {
		return errors.NewRejection(inst.Symbol, errors.StageMovement,
			fmt.Sprintf("move %.2f%% outside [%.2f%%, %.2f%%]",
				movePct*100, cfg.MinMovePct*100, cfg.MaxMovePct*100), nil)
	}

	volPct := (inst.DayHigh - inst.DayLow) / inst.DayOpen
	if volPct < cfg.MinVolatilityPct || volPct > cfg.MaxVolatilityPct {
		return errors.NewRejection(inst.Symbol, errors.StageMovement,
			fmt.Sprintf("intraday range %.2f%% outside [%.2f%%, %.2f%%]",
				volPct*100, cfg.MinVolatilityPct*100, cfg.MaxVolatilityPct*100), nil)
	}
	return nil
}
