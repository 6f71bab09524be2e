package cmd

import (
	"github.com/huangsam/capguard/core"
	"github.com/huangsam/capguard/internal/contract"
	"github.com/spf13/cobra"
)

// optimizeCmd searches for the cheapest buffer ratio.
var optimizeCmd = &cobra.Command{
	Use:   "optimize [input-path]",
	Short: "Pick the buffer ratio with the lowest expected cost.",
	Long: `Evaluate every buffer candidate against the SLA penalty of uncovered worst-case
demand and the cost of idle capacity, then report the cheapest one.

Examples:
  # Evaluate the default candidates
  capguard optimize data/ops.csv

  # Evaluate a finer grid with a higher SLA penalty
  capguard optimize data/ops.csv --buffer-candidates 1.0,1.02,1.04,1.06,1.08 --sla-penalty-cost 900`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteOptimize(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot optimize buffer", err)
		}
	},
}
