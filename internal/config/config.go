// Package config provides configuration management for the trading engine.
package config

import (
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"

	"intraday-trader/internal/errors"
)

// Config holds all application configuration. It is loaded once per cycle
// and immutable during the cycle.
type Config struct {
	Screening ScreeningConfig `mapstructure:"screening"`
	Risk      RiskConfig      `mapstructure:"risk"`
	Session   SessionConfig   `mapstructure:"session"`
	UI        UIConfig        `mapstructure:"ui"`
}

// ScreeningConfig holds the funnel thresholds and scoring weights.
// All thresholds are inclusive bounds.
type ScreeningConfig struct {
	MinPrice          float64  `mapstructure:"min_price"`
	MaxPrice          float64  `mapstructure:"max_price"`
	MinAvgVolume      int64    `mapstructure:"min_avg_volume"`
	MinVolumeSpike    float64  `mapstructure:"min_volume_spike"`
	MinMovePct        float64  `mapstructure:"min_move_pct"`
	MaxMovePct        float64  `mapstructure:"max_move_pct"`
	MinVolatilityPct  float64  `mapstructure:"min_volatility_pct"`
	MaxVolatilityPct  float64  `mapstructure:"max_volatility_pct"`
	MaxCandidates     int      `mapstructure:"max_candidates"`
	FinalSelection    int      `mapstructure:"final_selection"`
	Sectors           []string `mapstructure:"sectors"` // optional allow-list; empty means all
	WeightVolumeSurge float64  `mapstructure:"weight_volume_surge"`
	WeightVolatility  float64  `mapstructure:"weight_volatility"`
	WeightMomentum    float64  `mapstructure:"weight_momentum"`
	WeightRange       float64  `mapstructure:"weight_range"`
	Concurrency       int      `mapstructure:"concurrency"`
	FallbackSymbols   []string `mapstructure:"fallback_symbols"`
	MinUsableSignals  int      `mapstructure:"min_usable_signals"`
}

// RiskConfig holds risk management configuration.
type RiskConfig struct {
	DailyBudget     float64 `mapstructure:"daily_budget"`
	RiskPerTrade    float64 `mapstructure:"risk_per_trade"`
	MaxPositions    int     `mapstructure:"max_positions"`
	ATRMultiplier   float64 `mapstructure:"atr_multiplier"`
	RewardRisk      float64 `mapstructure:"reward_risk"`
	MaxDailyLossPct float64 `mapstructure:"max_daily_loss_pct"`
	MinStrength     float64 `mapstructure:"min_strength"`
	SquareOffTime   string  `mapstructure:"square_off_time"` // "15:20"
}

// SessionConfig holds the session runner schedule.
type SessionConfig struct {
	ScreenCron   string `mapstructure:"screen_cron"`
	MonitorCron  string `mapstructure:"monitor_cron"`
	FetchTimeout string `mapstructure:"fetch_timeout"` // per-instrument history fetch timeout
	DatabasePath string `mapstructure:"database_path"`
}

// UIConfig holds CLI output configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	TimeFormat   string `mapstructure:"time_format"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/intraday-trader"
	}
	return filepath.Join(home, ".config", "intraday-trader")
}

// Default returns the built-in configuration, matching the documented
// funnel and risk defaults.
func Default() *Config {
	return &Config{
		Screening: ScreeningConfig{
			MinPrice:          10,
			MaxPrice:          10000,
			MinAvgVolume:      100000,
			MinVolumeSpike:    1.5,
			MinMovePct:        0.005,
			MaxMovePct:        0.08,
			MinVolatilityPct:  0.001,
			MaxVolatilityPct:  0.10,
			MaxCandidates:     150,
			FinalSelection:    50,
			WeightVolumeSurge: 0.30,
			WeightVolatility:  0.25,
			WeightMomentum:    0.25,
			WeightRange:       0.20,
			Concurrency:       8,
			FallbackSymbols: []string{
				"RELIANCE", "TCS", "HDFCBANK", "INFY", "ICICIBANK",
				"KOTAKBANK", "SBIN", "BHARTIARTL", "ITC", "LT",
			},
			MinUsableSignals: 3,
		},
		Risk: RiskConfig{
			DailyBudget:     50000,
			RiskPerTrade:    0.02,
			MaxPositions:    5,
			ATRMultiplier:   2.0,
			RewardRisk:      2.0,
			MaxDailyLossPct: 0.05,
			MinStrength:     0.5,
			SquareOffTime:   "15:20",
		},
		Session: SessionConfig{
			ScreenCron:   "0 */5 9-15 * * MON-FRI",
			MonitorCron:  "*/30 * 9-15 * * MON-FRI",
			FetchTimeout: "5s",
			DatabasePath: filepath.Join(DefaultConfigDir(), "trader.db"),
		},
		UI: UIConfig{
			ColorEnabled: true,
			TimeFormat:   "15:04:05",
		},
	}
}

// Load loads configuration from the specified directory. If configDir is
// empty, the default config directory is used. A template is written on
// first run so the defaults are discoverable.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if werr := writeTemplateConfig(configDir); werr != nil {
				return nil, errors.Wrap(werr, "writing config template")
			}
		} else {
			return nil, errors.Wrap(err, "reading config.toml")
		}
	} else if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshalling config.toml")
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TRADER_DAILY_BUDGET"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Risk.DailyBudget = f
		}
	}
	if v := os.Getenv("TRADER_MAX_POSITIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Risk.MaxPositions = n
		}
	}
	if v := os.Getenv("TRADER_RISK_PER_TRADE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Risk.RiskPerTrade = f
		}
	}
	if v := os.Getenv("TRADER_DB_PATH"); v != "" {
		cfg.Session.DatabasePath = v
	}
}

// Validate checks the configuration, failing fast with ErrConfigInvalid on
// malformed weights or bounds. Executed once at cycle start.
func (c *Config) Validate() error {
	s := c.Screening

	if s.MinPrice < 0 || s.MaxPrice <= 0 || s.MinPrice > s.MaxPrice {
		return errors.Wrapf(errors.ErrConfigInvalid,
			"price bounds [%.2f, %.2f]", s.MinPrice, s.MaxPrice)
	}
	if s.MinAvgVolume < 0 {
		return errors.Wrap(errors.ErrConfigInvalid, "min_avg_volume must be non-negative")
	}
	if s.MinVolumeSpike < 0 {
		return errors.Wrap(errors.ErrConfigInvalid, "min_volume_spike must be non-negative")
	}
	if s.MinMovePct < 0 || s.MinMovePct > s.MaxMovePct {
		return errors.Wrapf(errors.ErrConfigInvalid,
			"movement band [%.4f, %.4f]", s.MinMovePct, s.MaxMovePct)
	}
	if s.MinVolatilityPct < 0 || s.MinVolatilityPct > s.MaxVolatilityPct {
		return errors.Wrapf(errors.ErrConfigInvalid,
			"volatility band [%.4f, %.4f]", s.MinVolatilityPct, s.MaxVolatilityPct)
	}
	if s.MaxCandidates <= 0 || s.FinalSelection <= 0 {
		return errors.Wrap(errors.ErrConfigInvalid, "candidate counts must be positive")
	}

	weightSum := s.WeightVolumeSurge + s.WeightVolatility + s.WeightMomentum + s.WeightRange
	if math.Abs(weightSum-1.0) > 1e-9 {
		return errors.Wrapf(errors.ErrConfigInvalid,
			"score weights sum to %.6f, must sum to 1.0", weightSum)
	}
	if s.WeightVolumeSurge < 0 || s.WeightVolatility < 0 || s.WeightMomentum < 0 || s.WeightRange < 0 {
		return errors.Wrap(errors.ErrConfigInvalid, "score weights must be non-negative")
	}

	r := c.Risk
	if r.DailyBudget <= 0 {
		return errors.Wrap(errors.ErrConfigInvalid, "daily_budget must be positive")
	}
	if r.RiskPerTrade <= 0 || r.RiskPerTrade > 1 {
		return errors.Wrapf(errors.ErrConfigInvalid,
			"risk_per_trade %.4f must be in (0, 1]", r.RiskPerTrade)
	}
	if r.MaxPositions <= 0 {
		return errors.Wrap(errors.ErrConfigInvalid, "max_positions must be positive")
	}
	if r.ATRMultiplier <= 0 {
		return errors.Wrap(errors.ErrConfigInvalid, "atr_multiplier must be positive")
	}
	if r.RewardRisk <= 0 {
		return errors.Wrap(errors.ErrConfigInvalid, "reward_risk must be positive")
	}
	if r.MaxDailyLossPct < 0 || r.MaxDailyLossPct > 1 {
		return errors.Wrap(errors.ErrConfigInvalid, "max_daily_loss_pct must be in [0, 1]")
	}
	if r.MinStrength < 0 || r.MinStrength > 1 {
		return errors.Wrap(errors.ErrConfigInvalid, "min_strength must be in [0, 1]")
	}

	return nil
}

// MaxDailyLoss returns the absolute daily loss limit in rupees.
func (c *Config) MaxDailyLoss() float64 {
	return c.Risk.DailyBudget * c.Risk.MaxDailyLossPct
}
