package cmd

import (
	"github.com/huangsam/capguard/core"
	"github.com/huangsam/capguard/internal/contract"
	"github.com/spf13/cobra"
)

// backtestCmd backtests a resource change.
var backtestCmd = &cobra.Command{
	Use:   "backtest [input-path]",
	Short: "Count the risk days a resource change would have avoided.",
	Long: `Compare the HIGH and CRITICAL days that actually happened with the days a
simulation flags after adding --backtest-delta resources to every day.

Examples:
  # What would three more people have bought us?
  capguard backtest data/ops.csv --backtest-delta 3

  # Backtest the second half of the year only
  capguard backtest data/ops.csv --from 2023-07-01`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteBacktest(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot run backtest", err)
		}
	},
}
