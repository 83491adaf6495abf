package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Intraday Trader Configuration

[screening]
# Price bounds for eligible equities (inclusive)
min_price = 10.0
max_price = 10000.0
# Minimum average daily volume
min_avg_volume = 100000
# Today's volume must be at least this multiple of average volume
min_volume_spike = 1.5
# Intraday move band as fractions (0.005 = 0.5%)
min_move_pct = 0.005
max_move_pct = 0.08
# Intraday true-range volatility band as fractions
min_volatility_pct = 0.001
max_volatility_pct = 0.10
# Candidates kept after ranking for deep technical analysis
max_candidates = 150
# Final signals retained per cycle
final_selection = 50
# Optional sector allow-list; empty means all sectors
sectors = []
# Potential score weights, must sum to 1.0
weight_volume_surge = 0.30
weight_volatility = 0.25
weight_momentum = 0.25
weight_range = 0.20
# Worker pool size for screening and signal generation
concurrency = 8
# Static fallback list used when a cycle produces too few signals
fallback_symbols = ["RELIANCE", "TCS", "HDFCBANK", "INFY", "ICICIBANK", "KOTAKBANK", "SBIN", "BHARTIARTL", "ITC", "LT"]
min_usable_signals = 3

[risk]
# Capital allocated per trading day in INR
daily_budget = 50000.0
# Fraction of the daily budget risked per trade
risk_per_trade = 0.02
# Maximum concurrent open positions
max_positions = 5
# Stop-loss distance = atr_multiplier x ATR
atr_multiplier = 2.0
# Minimum reward:risk for the take-profit level
reward_risk = 2.0
# Session halts once realized loss reaches this fraction of the budget
max_daily_loss_pct = 0.05
# Signals weaker than this are rejected before sizing
min_strength = 0.5
# Forced square-off cutoff (IST)
square_off_time = "15:20"

[session]
# Cron expressions (with seconds field) for the screening and monitor loops
screen_cron = "0 */5 9-15 * * MON-FRI"
monitor_cron = "*/30 * 9-15 * * MON-FRI"
# Per-instrument history fetch timeout
fetch_timeout = "5s"

[ui]
color_enabled = true
time_format = "15:04:05"
`

// writeTemplateConfig writes the default config.toml on first run.
func writeTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
