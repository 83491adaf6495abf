package screening

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"intraday-trader/internal/config"
	"intraday-trader/internal/errors"
	"intraday-trader/internal/models"
)

// Screener runs the three-stage filter funnel over an instrument universe
// and ranks the survivors by potential score.
type Screener struct {
	cfg    config.ScreeningConfig
	logger zerolog.Logger
}

func NewScreener(cfg config.ScreeningConfig, logger zerolog.Logger) *Screener {
	return &Screener{
		cfg:    cfg,
		logger: logger.With().Str("component", "screener").Logger(),
	}
}

type filterResult struct {
	instrument models.Instrument
	rejection  *errors.RejectionError
}

// ScreenUniverse filters the universe through eligibility, liquidity and
// movement checks, then scores and ranks the survivors. Rejections are
// returned alongside the candidates so callers can report funnel
// attrition. The result is deterministic for identical inputs.
func (s *Screener) ScreenUniverse(ctx context.Context, instruments []models.Instrument) ([]models.ScoredCandidate, []errors.RejectionError, error) {
	if len(instruments) == 0 {
		return nil, nil, nil
	}

	concurrency := s.cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	workChan := make(chan models.Instrument, len(instruments))
	resultChan := make(chan filterResult, len(instruments))

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for inst := range workChan {
				select {
				case <-ctx.Done():
					return
				default:
				}
				resultChan <- filterResult{
					instrument: inst,
					rejection:  s.runFilters(inst),
				}
			}
		}()
	}

	for _, inst := range instruments {
		workChan <- inst
	}
	close(workChan)
	wg.Wait()
	close(resultChan)

	if err := ctx.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "screening cancelled")
	}

	var survivors []models.Instrument
	var rejections []errors.RejectionError
	for res := range resultChan {
		if res.rejection != nil {
			rejections = append(rejections, *res.rejection)
			continue
		}
		survivors = append(survivors, res.instrument)
	}

	// Workers drain in arbitrary order; restore stable input order before
	// scoring so truncation is reproducible.
	sort.Slice(survivors, func(i, j int) bool {
		return survivors[i].Symbol < survivors[j].Symbol
	})
	sort.Slice(rejections, func(i, j int) bool {
		return rejections[i].Symbol < rejections[j].Symbol
	})

	candidates := scoreAndRank(survivors, s.cfg)

	s.logger.Info().
		Int("universe", len(instruments)).
		Int("survivors", len(survivors)).
		Int("candidates", len(candidates)).
		Int("rejections", len(rejections)).
		Msg("screening cycle complete")

	return candidates, rejections, nil
}

// runFilters applies the funnel stages in order and returns the first
// rejection, or nil if the instrument passes all stages.
func (s *Screener) runFilters(inst models.Instrument) *errors.RejectionError {
	if rej := checkEligibility(inst, s.cfg); rej != nil {
		return rej
	}
	if rej := checkLiquidity(inst, s.cfg); rej != nil {
		return rej
	}
	return checkMovement(inst, s.cfg)
}
