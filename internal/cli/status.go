package cli

import (
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"intraday-trader/internal/models"
	"intraday-trader/pkg/utils"
)

func newStatusCmd(app *App) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show market status and the day's session summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if date == "" {
				date = utils.SessionDate(time.Now())
			}

			marketStatus := utils.GetMarketStatus()

			var realized float64
			var signalCount int
			if app.Store != nil {
				state, found, err := app.Store.LoadSessionState(date)
				if err != nil {
					return err
				}
				if found {
					realized = state.RealizedPnL
				}
				sigs, err := app.Store.LoadSignals(date)
				if err != nil {
					return err
				}
				signalCount = len(sigs)
			} else if !output.IsJSON() {
				output.Warning("store unavailable, showing market status only")
			}

			maxLoss := app.Config.MaxDailyLoss()
			halted := maxLoss > 0 && -realized >= maxLoss

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"date":           date,
					"market_status":  marketStatus,
					"realized_pnl":   realized,
					"signals":        signalCount,
					"max_daily_loss": maxLoss,
					"halted":         halted,
				})
			}

			color.Cyan("📊 Session Status (%s)", date)
			output.Printf("  Market:        %s\n", output.MarketStatus(string(marketStatus)))
			if marketStatus == models.MarketOpen || marketStatus == models.MarketSquareOffWindow {
				output.Printf("  Closes In:     %s\n", time.Until(utils.GetMarketClose()).Round(time.Minute))
			}
			output.Printf("  Signals:       %d\n", signalCount)
			output.Printf("  Realized P&L:  %s\n", output.FormatPnL(realized))
			output.Printf("  Loss Limit:    %s\n", utils.FormatIndianCurrency(maxLoss))
			if halted {
				output.Error("⛔ Daily loss limit reached, new entries halted")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "session date (default: today, IST)")
	return cmd
}
