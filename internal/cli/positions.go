package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"intraday-trader/internal/errors"
	"intraday-trader/internal/models"
	"intraday-trader/pkg/utils"
)

func newPositionsCmd(app *App) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "positions",
		Short: "Show the day's positions from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return errors.Wrap(errors.ErrDatabaseError, "store unavailable")
			}
			if date == "" {
				date = utils.SessionDate(time.Now())
			}

			positions, err := app.Store.LoadPositions(date)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(positions)
			}

			color.Cyan("📋 Positions (%s)", date)
			if len(positions) == 0 {
				output.Dim("No positions recorded.")
				return nil
			}

			table := NewTable(output, "SYMBOL", "SIDE", "QTY", "ENTRY", "STOP", "TARGET", "STATE", "P&L")
			var total float64
			for _, pos := range positions {
				pnl := pos.RealizedPnL
				if !pos.State.Terminal() {
					pnl = pos.UnrealizedPnL
				}
				total += pnl
				table.AddRow(
					pos.Symbol,
					string(pos.Direction),
					fmt.Sprintf("%d", pos.Quantity),
					utils.FormatIndianCurrency(pos.EntryPrice),
					utils.FormatIndianCurrency(pos.StopLoss),
					utils.FormatIndianCurrency(pos.TakeProfit),
					stateCell(output, pos.State),
					output.FormatPnL(pnl),
				)
			}
			table.Render()
			output.Println()
			output.Printf("Total P&L: %s\n", output.FormatPnL(total))
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "session date (default: today, IST)")
	return cmd
}

func stateCell(output *Output, state models.PositionState) string {
	switch state {
	case models.PositionOpen:
		return output.Green(string(state))
	case models.PositionStopLossHit:
		return output.Red(string(state))
	case models.PositionTakeProfitHit:
		return output.Green(string(state))
	case models.PositionTimeSquaredOff, models.PositionManualClosed:
		return output.Yellow(string(state))
	default:
		return string(state)
	}
}
