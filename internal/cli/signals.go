package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"intraday-trader/internal/analysis/screening"
	"intraday-trader/internal/analysis/signals"
	"intraday-trader/internal/models"
	"intraday-trader/pkg/utils"
)

func newSignalsCmd(app *App) *cobra.Command {
	var universePath string
	var historyDir string

	cmd := &cobra.Command{
		Use:   "signals",
		Short: "Screen a universe and generate trade signals",
		Long: `Runs the full screening funnel and then evaluates the ranked candidates
against the signal rules (EMA crossover, RSI, volume confirmation).
Candidate histories are read from <history-dir>/<SYMBOL>.json.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			universe := &fileUniverse{path: universePath}
			instruments, err := universe.Universe(cmd.Context())
			if err != nil {
				return err
			}

			screener := screening.NewScreener(app.Config.Screening, app.Logger)
			candidates, _, err := screener.ScreenUniverse(cmd.Context(), instruments)
			if err != nil {
				return err
			}
			generator := signals.NewGenerator(app.Config.Screening, app.Logger)
			result := generator.GenerateSignals(cmd.Context(), candidates, &fileHistory{dir: historyDir})

			if output.IsJSON() {
				return output.JSON(result)
			}

			color.Cyan("⚡ Trade Signals")
			output.Printf("Candidates: %d  Signals: %d\n", len(candidates), len(result.Signals))
			if result.UsedFallback {
				output.Warning("Fewer usable signals than configured minimum, fallback list evaluated")
			}
			output.Println()

			if len(result.Signals) == 0 {
				output.Dim("No actionable signals this cycle.")
				return nil
			}

			table := NewTable(output, "SYMBOL", "SIDE", "STRENGTH", "PRICE", "ATR", "REASONS")
			for _, sig := range result.Signals {
				side := output.Green(string(sig.Direction))
				if sig.Direction == models.DirectionShort {
					side = output.Red(string(sig.Direction))
				}
				table.AddRow(
					sig.Symbol,
					side,
					fmt.Sprintf("%.2f", sig.Strength),
					utils.FormatIndianCurrency(sig.Price),
					fmt.Sprintf("%.2f", sig.ATR),
					strings.Join(sig.Reasons, "; "),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVarP(&universePath, "universe", "u", "universe.json", "universe snapshot file")
	cmd.Flags().StringVarP(&historyDir, "history", "H", "history", "directory of per-symbol candle files")
	cmd.MarkFlagRequired("universe")
	return cmd
}
