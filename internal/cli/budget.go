package cli

import (
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"intraday-trader/internal/errors"
	"intraday-trader/pkg/utils"
)

func newBudgetCmd(app *App) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Show the day's capital usage and risk limits",
		Long: `Reconstructs the day's risk summary from the position journal: capital
committed to open positions, remaining budget, realized P&L and how much
loss capacity is left before new entries halt.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return errors.Wrap(errors.ErrDatabaseError, "store unavailable")
			}
			if date == "" {
				date = utils.SessionDate(time.Now())
			}

			var realized float64
			state, found, err := app.Store.LoadSessionState(date)
			if err != nil {
				return err
			}
			if found {
				realized = state.RealizedPnL
			}

			positions, err := app.Store.LoadPositions(date)
			if err != nil {
				return err
			}

			var committed float64
			openCount := 0
			for _, pos := range positions {
				if pos.State.Terminal() {
					continue
				}
				committed += pos.Committed()
				openCount++
			}

			allocated := app.Config.Risk.DailyBudget
			maxLoss := app.Config.MaxDailyLoss()
			lossCapacity := maxLoss + realized
			if lossCapacity < 0 {
				lossCapacity = 0
			}
			halted := maxLoss > 0 && -realized >= maxLoss

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"date":           date,
					"allocated":      allocated,
					"committed":      committed,
					"remaining":      allocated - committed,
					"open_positions": openCount,
					"realized_pnl":   realized,
					"loss_capacity":  lossCapacity,
					"halted":         halted,
				})
			}

			color.Cyan("💰 Daily Budget (%s)", date)
			output.Printf("  Allocated:      %s\n", utils.FormatIndianCurrency(allocated))
			output.Printf("  Committed:      %s\n", utils.FormatIndianCurrency(committed))
			output.Printf("  Remaining:      %s\n", utils.FormatIndianCurrency(allocated-committed))
			output.Printf("  Open Positions: %d / %d\n", openCount, app.Config.Risk.MaxPositions)
			output.Printf("  Realized P&L:   %s\n", output.FormatPnL(realized))
			output.Printf("  Loss Capacity:  %s\n", utils.FormatIndianCurrency(lossCapacity))
			if halted {
				output.Error("⛔ Daily loss limit reached, new entries halted")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "session date (default: today, IST)")
	return cmd
}
