package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"intraday-trader/internal/errors"
	"intraday-trader/internal/trading"
	"intraday-trader/pkg/utils"
)

func newRunCmd(app *App) *cobra.Command {
	var universePath string
	var historyDir string
	var squareOffOnExit bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the scheduled trading session",
		Long: `Starts the session runner: screening cycles and position monitoring on
their configured cron schedules. Today's persisted state is resumed first,
so a restart mid-session carries open positions and realized P&L forward.

The runner blocks until interrupted (Ctrl-C).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return errors.Wrap(errors.ErrDatabaseError, "session runner requires the store")
			}

			universe := &fileUniverse{path: universePath}
			session, err := trading.NewSession(
				app.Config,
				app.Engine,
				app.Store,
				universe,
				&fileHistory{dir: historyDir},
				&fileQuotes{universe: universe},
				app.Logger,
			)
			if err != nil {
				return err
			}

			if err := session.Resume(); err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			if err := session.Start(ctx); err != nil {
				return err
			}

			color.Cyan("📈 Session running")
			output.Printf("  Screen:  %s\n", app.Config.Session.ScreenCron)
			output.Printf("  Monitor: %s\n", app.Config.Session.MonitorCron)
			if !utils.IsMarketOpen() {
				output.Warning("Market is closed, cycles will idle until it opens")
			}
			output.Dim("Press Ctrl-C to stop.")

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			<-sigCh

			output.Println()
			output.Warning("Shutting down...")
			cancel()
			session.Stop()

			if squareOffOnExit {
				closed := session.SquareOffAll(context.Background())
				for _, pos := range closed {
					output.Printf("  %s closed at %s (%s)\n",
						pos.Symbol, output.FormatPnL(pos.RealizedPnL), pos.State)
				}
			}

			snap := app.Engine.Budget()
			output.Printf("Realized P&L: %s\n", output.FormatPnL(snap.RealizedPnL))
			return nil
		},
	}

	cmd.Flags().StringVarP(&universePath, "universe", "u", "universe.json", "universe snapshot file")
	cmd.Flags().StringVarP(&historyDir, "history", "H", "history", "directory of per-symbol candle files")
	cmd.Flags().BoolVar(&squareOffOnExit, "square-off", false, "square off all open positions on shutdown")
	return cmd
}
