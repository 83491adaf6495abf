package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"intraday-trader/internal/analysis/screening"
	"intraday-trader/internal/errors"
	"intraday-trader/pkg/utils"
)

func newScreenCmd(app *App) *cobra.Command {
	var universePath string
	var showRejections bool

	cmd := &cobra.Command{
		Use:   "screen",
		Short: "Run the screening funnel over a universe snapshot",
		Long: `Runs the four-stage funnel (eligibility, liquidity, movement, potential
score) over the instrument universe in the snapshot file and prints the
ranked candidates.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			universe := &fileUniverse{path: universePath}
			instruments, err := universe.Universe(cmd.Context())
			if err != nil {
				return err
			}

			screener := screening.NewScreener(app.Config.Screening, app.Logger)
			candidates, rejections, err := screener.ScreenUniverse(cmd.Context(), instruments)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"candidates": candidates,
					"rejections": rejections,
				})
			}

			color.Cyan("🔍 Screening Results")
			output.Printf("Universe: %d  Candidates: %d  Rejected: %d\n\n",
				len(instruments), len(candidates), len(rejections))

			if len(candidates) > 0 {
				table := NewTable(output, "RANK", "SYMBOL", "PRICE", "SCORE", "SURGE", "VOLAT", "MOMENT", "RANGE")
				for i, c := range candidates {
					table.AddRow(
						fmt.Sprintf("%d", i+1),
						c.Instrument.Symbol,
						utils.FormatIndianCurrency(c.Instrument.LastPrice),
						fmt.Sprintf("%.3f", c.CompositeScore),
						fmt.Sprintf("%.2f", c.VolumeSurge),
						fmt.Sprintf("%.2f", c.Volatility),
						fmt.Sprintf("%.2f", c.Momentum),
						fmt.Sprintf("%.2f", c.TradingRange),
					)
				}
				table.Render()
			}

			if showRejections && len(rejections) > 0 {
				output.Println()
				color.Yellow("Rejections by stage:")
				byStage := map[errors.Stage]int{}
				for _, rej := range rejections {
					byStage[rej.Stage]++
				}
				for _, stage := range []errors.Stage{errors.StageEligibility, errors.StageLiquidity, errors.StageMovement} {
					if n := byStage[stage]; n > 0 {
						output.Printf("  %-12s %d\n", stage, n)
					}
				}
				output.Println()
				for _, rej := range rejections {
					output.Dim("  %s [%s] %s", rej.Symbol, rej.Stage, rej.Reason)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&universePath, "universe", "u", "universe.json", "universe snapshot file")
	cmd.Flags().BoolVar(&showRejections, "rejections", false, "show per-instrument rejection reasons")
	cmd.MarkFlagRequired("universe")
	return cmd
}
