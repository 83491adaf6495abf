// Package cli provides the command-line interface for the screening and
// trading engine.
package cli

import (
	"path/filepath"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"intraday-trader/internal/config"
	"intraday-trader/internal/logging"
	"intraday-trader/internal/store"
	"intraday-trader/internal/trading"
	"intraday-trader/pkg/utils"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2025-03-01"
)

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Store  store.DataStore
	Engine *trading.RiskEngine
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
		Engine: trading.NewRiskEngine(cfg.Risk, logger),
	}

	if !cfg.UI.ColorEnabled {
		color.NoColor = true
	}

	dbPath := cfg.Session.DatabasePath
	if dbPath == "" {
		dbPath = filepath.Join(config.DefaultConfigDir(), "trader.db")
	}
	dataStore, err := store.Open(dbPath)
	if err != nil {
		logger.Warn().Err(err).Msg("store unavailable, history commands disabled")
	} else {
		app.Store = dataStore
	}

	rootCmd := &cobra.Command{
		Use:   "trader",
		Short: "Intraday screener and risk-managed paper trading for NSE equities",
		Long: `Intraday Trader screens the NSE equity universe through a staged funnel
(eligibility, liquidity, movement, potential score), generates EMA-crossover
signals on the ranked candidates and drives risk-managed positions through
their lifecycle with stop-loss, take-profit and time-based square-off.

Use 'trader help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/intraday-trader)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newScreenCmd(app))
	rootCmd.AddCommand(newSignalsCmd(app))
	rootCmd.AddCommand(newRunCmd(app))
	rootCmd.AddCommand(newPositionsCmd(app))
	rootCmd.AddCommand(newBudgetCmd(app))
	rootCmd.AddCommand(newStatusCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("Intraday Trader v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("✓ Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Screening Configuration")
	output.Printf("  Price Band:      %s - %s\n",
		utils.FormatIndianCurrency(cfg.Screening.MinPrice),
		utils.FormatIndianCurrency(cfg.Screening.MaxPrice))
	output.Printf("  Min Avg Volume:  %d\n", cfg.Screening.MinAvgVolume)
	output.Printf("  Volume Spike:    %.2fx\n", cfg.Screening.MinVolumeSpike)
	output.Printf("  Move Band:       %s - %s\n",
		utils.FormatPercent(cfg.Screening.MinMovePct),
		utils.FormatPercent(cfg.Screening.MaxMovePct))
	output.Printf("  Max Candidates:  %d\n", cfg.Screening.MaxCandidates)
	output.Printf("  Final Selection: %d\n", cfg.Screening.FinalSelection)
	output.Printf("  Weights:         surge %.2f, volatility %.2f, momentum %.2f, range %.2f\n",
		cfg.Screening.WeightVolumeSurge, cfg.Screening.WeightVolatility,
		cfg.Screening.WeightMomentum, cfg.Screening.WeightRange)
	output.Println()

	output.Bold("Risk Configuration")
	output.Printf("  Daily Budget:    %s\n", utils.FormatIndianCurrency(cfg.Risk.DailyBudget))
	output.Printf("  Risk Per Trade:  %s\n", utils.FormatPercent(cfg.Risk.RiskPerTrade))
	output.Printf("  Max Positions:   %d\n", cfg.Risk.MaxPositions)
	output.Printf("  ATR Multiplier:  %.1f\n", cfg.Risk.ATRMultiplier)
	output.Printf("  Reward:Risk:     %.1f\n", cfg.Risk.RewardRisk)
	output.Printf("  Max Daily Loss:  %s\n", utils.FormatIndianCurrency(cfg.MaxDailyLoss()))
	output.Printf("  Min Strength:    %.2f\n", cfg.Risk.MinStrength)
	output.Printf("  Square-off:      %s IST\n", cfg.Risk.SquareOffTime)
	output.Println()

	output.Bold("Session")
	output.Printf("  Screen Cron:     %s\n", cfg.Session.ScreenCron)
	output.Printf("  Monitor Cron:    %s\n", cfg.Session.MonitorCron)
	output.Printf("  Fetch Timeout:   %s\n", cfg.Session.FetchTimeout)
}
