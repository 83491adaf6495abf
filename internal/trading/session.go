package trading

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"intraday-trader/internal/analysis/screening"
	"intraday-trader/internal/analysis/signals"
	"intraday-trader/internal/config"
	"intraday-trader/internal/errors"
	"intraday-trader/internal/logging"
	"intraday-trader/internal/models"
	"intraday-trader/internal/resilience"
	"intraday-trader/internal/store"
	"intraday-trader/pkg/utils"
)

// UniverseProvider supplies the instrument universe snapshot for a cycle.
type UniverseProvider interface {
	Universe(ctx context.Context) ([]models.Instrument, error)
}

// QuoteProvider supplies the latest quote for one symbol during
// monitoring ticks.
type QuoteProvider interface {
	Quote(ctx context.Context, symbol string) (models.Quote, error)
}

// Session drives the screening and monitoring schedule for one trading
// day. It owns nothing the engine and store do not already own; it only
// sequences them.
type Session struct {
	cfg       *config.Config
	logger    zerolog.Logger
	screener  *screening.Screener
	generator *signals.Generator
	engine    *RiskEngine
	store     store.DataStore
	universe  UniverseProvider
	history   signals.HistoryProvider
	quotes    QuoteProvider

	historyBreaker *resilience.Breaker
	quoteBreaker   *resilience.Breaker

	cron         *cron.Cron
	fetchTimeout time.Duration
	now          func() time.Time
}

func NewSession(
	cfg *config.Config,
	engine *RiskEngine,
	dataStore store.DataStore,
	universe UniverseProvider,
	history signals.HistoryProvider,
	quotes QuoteProvider,
	logger zerolog.Logger,
) (*Session, error) {
	timeout, err := time.ParseDuration(cfg.Session.FetchTimeout)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrConfigInvalid, "fetch_timeout %q: %v", cfg.Session.FetchTimeout, err)
	}

	return &Session{
		cfg:            cfg,
		logger:         logger.With().Str("component", "session").Logger(),
		screener:       screening.NewScreener(cfg.Screening, logger),
		generator:      signals.NewGenerator(cfg.Screening, logger),
		engine:         engine,
		store:          dataStore,
		universe:       universe,
		history:        history,
		quotes:         quotes,
		historyBreaker: resilience.NewBreaker("history", resilience.DefaultBreakerConfig()),
		quoteBreaker:   resilience.NewBreaker("quote", resilience.DefaultBreakerConfig()),
		fetchTimeout:   timeout,
		now:            time.Now,
	}, nil
}

// Resume reloads today's persisted state so a restarted process carries on
// where it stopped instead of re-entering closed trades.
func (s *Session) Resume() error {
	date := utils.SessionDate(s.now())

	state, found, err := s.store.LoadSessionState(date)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	s.engine.RestoreRealizedPnL(state.RealizedPnL)

	positions, err := s.store.LoadPositions(date)
	if err != nil {
		return err
	}
	for _, pos := range positions {
		if err := s.engine.RestorePosition(pos); err != nil {
			return err
		}
	}

	s.logger.Info().
		Str("date", date).
		Int("positions", len(positions)).
		Float64("realized_pnl", state.RealizedPnL).
		Msg("session resumed")
	return nil
}

// Start registers the screening and monitoring schedules and begins
// running them. It returns immediately; Stop halts the schedule.
func (s *Session) Start(ctx context.Context) error {
	c := cron.New(cron.WithSeconds())

	if _, err := c.AddFunc(s.cfg.Session.ScreenCron, func() {
		if err := s.RunScreeningCycle(ctx); err != nil {
			s.logger.Error().Err(err).Msg("screening cycle failed")
		}
	}); err != nil {
		return errors.Wrapf(errors.ErrConfigInvalid, "screen_cron %q: %v", s.cfg.Session.ScreenCron, err)
	}

	if _, err := c.AddFunc(s.cfg.Session.MonitorCron, func() {
		s.RunMonitoringTick(ctx)
	}); err != nil {
		return errors.Wrapf(errors.ErrConfigInvalid, "monitor_cron %q: %v", s.cfg.Session.MonitorCron, err)
	}

	s.cron = c
	c.Start()
	s.logger.Info().
		Str("screen_cron", s.cfg.Session.ScreenCron).
		Str("monitor_cron", s.cfg.Session.MonitorCron).
		Msg("session schedule started")
	return nil
}

// Stop halts the schedule and waits for any in-flight job to finish.
func (s *Session) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// RunScreeningCycle executes one full funnel pass: universe snapshot,
// screening, signal generation, risk evaluation, persistence.
func (s *Session) RunScreeningCycle(ctx context.Context) error {
	now := s.now()
	if status := utils.MarketStatusAt(now); status != models.MarketOpen &&
		status != models.MarketSquareOffWindow {
		s.logger.Debug().Str("status", string(status)).Msg("market not open, skipping cycle")
		return nil
	}

	instruments, err := s.universe.Universe(ctx)
	if err != nil {
		return errors.Wrap(err, "fetching universe")
	}

	candidates, rejections, err := s.screener.ScreenUniverse(ctx, instruments)
	if err != nil {
		return err
	}
	for _, rej := range rejections {
		logging.LogRejection(s.logger, rej.Symbol, string(rej.Stage), rej.Reason)
	}

	provider := &fetchingProvider{
		inner:   s.history,
		breaker: s.historyBreaker,
		timeout: s.fetchTimeout,
		retry:   utils.DefaultRetryConfig(),
	}
	result := s.generator.GenerateSignals(ctx, candidates, provider)

	date := utils.SessionDate(now)
	for _, sig := range result.Signals {
		logging.LogSignal(s.logger, sig.Symbol, string(sig.Direction), sig.Strength, sig.Reasons)
		if err := s.store.SaveSignal(store.SignalRecord{
			Date:        date,
			Symbol:      sig.Symbol,
			Direction:   sig.Direction,
			Strength:    sig.Strength,
			Price:       sig.Price,
			ATR:         sig.ATR,
			GeneratedAt: sig.GeneratedAt,
		}); err != nil {
			s.logger.Error().Err(err).Str("symbol", sig.Symbol).Msg("journaling signal failed")
		}
	}

	opened := 0
	for _, sig := range result.Signals {
		pos, err := s.engine.EvaluateSignal(sig)
		if err != nil {
			s.logger.Debug().Err(err).Str("symbol", sig.Symbol).Msg("signal dropped")
			continue
		}
		opened++
		if err := s.store.SavePosition(date, pos); err != nil {
			s.logger.Error().Err(err).Str("symbol", pos.Symbol).Msg("persisting position failed")
		}
	}

	s.persistSessionState(date)

	s.logger.Info().
		Int("universe", len(instruments)).
		Int("candidates", len(candidates)).
		Int("signals", len(result.Signals)).
		Bool("fallback", result.UsedFallback).
		Int("opened", opened).
		Msg("screening cycle complete")
	return nil
}

// RunMonitoringTick advances every open position against its latest quote.
// A failed quote fetch is passed through as a stale read so the engine
// holds state, except at the square-off cutoff.
func (s *Session) RunMonitoringTick(ctx context.Context) {
	now := s.now()
	date := utils.SessionDate(now)

	for _, pos := range s.engine.Positions() {
		if pos.State.Terminal() {
			continue
		}

		price, err := s.fetchQuote(ctx, pos.Symbol)
		if err != nil {
			s.logger.Warn().Err(err).Str("symbol", pos.Symbol).Msg("quote fetch failed")
			price = 0
		}

		updated, err := s.engine.AdvancePosition(pos.Symbol, price, now)
		if err != nil {
			if !errors.Is(err, errors.ErrStaleData) {
				s.logger.Error().Err(err).Str("symbol", pos.Symbol).Msg("advancing position failed")
			}
			continue
		}

		if err := s.store.SavePosition(date, updated); err != nil {
			s.logger.Error().Err(err).Str("symbol", updated.Symbol).Msg("persisting position failed")
		}
	}

	s.persistSessionState(date)
}

// SquareOffAll force-closes every open position, fetching a final quote
// where possible, and persists the results.
func (s *Session) SquareOffAll(ctx context.Context) []models.Position {
	now := s.now()
	prices := make(map[string]float64)
	for _, pos := range s.engine.Positions() {
		if pos.State.Terminal() {
			continue
		}
		if price, err := s.fetchQuote(ctx, pos.Symbol); err == nil {
			prices[pos.Symbol] = price
		}
	}

	closed := s.engine.CloseAll(prices, now)

	date := utils.SessionDate(now)
	for _, pos := range closed {
		if err := s.store.SavePosition(date, pos); err != nil {
			s.logger.Error().Err(err).Str("symbol", pos.Symbol).Msg("persisting position failed")
		}
	}
	s.persistSessionState(date)
	return closed
}

// fetchQuote pulls one quote through the quote-feed breaker with the
// session fetch timeout applied.
func (s *Session) fetchQuote(ctx context.Context, symbol string) (float64, error) {
	var price float64
	err := s.quoteBreaker.Do(func() error {
		fctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
		quote, err := s.quotes.Quote(fctx, symbol)
		if err != nil {
			return err
		}
		price = quote.LTP
		return nil
	})
	return price, err
}

func (s *Session) persistSessionState(date string) {
	snap := s.engine.Budget()
	if err := s.store.SaveSessionState(store.SessionState{
		Date:        date,
		RealizedPnL: snap.RealizedPnL,
	}); err != nil {
		s.logger.Error().Err(err).Msg("persisting session state failed")
	}
}

// fetchingProvider wraps a history provider with a per-instrument timeout,
// retry, and the history-feed breaker, so one slow symbol drops out of the
// cycle instead of stalling it and a dead feed is not hammered.
type fetchingProvider struct {
	inner   signals.HistoryProvider
	breaker *resilience.Breaker
	timeout time.Duration
	retry   utils.RetryConfig
}

func (p *fetchingProvider) History(ctx context.Context, symbol string) ([]models.Candle, error) {
	var candles []models.Candle
	err := p.breaker.Do(func() error {
		return utils.Retry(ctx, p.retry, func() error {
			fctx, cancel := context.WithTimeout(ctx, p.timeout)
			defer cancel()
			var err error
			candles, err = p.inner.History(fctx, symbol)
			return err
		})
	})
	return candles, err
}
