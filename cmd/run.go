package cmd

import (
	"github.com/huangsam/capguard/core"
	"github.com/huangsam/capguard/internal/contract"
	"github.com/spf13/cobra"
)

// runCmd runs the full decision pipeline.
var runCmd = &cobra.Command{
	Use:   "run [input-path]",
	Short: "Classify capacity risk for every day of a demand series.",
	Long: `Run the decision pipeline over a daily demand series.

For every day the pipeline:
- Estimates capacity from active resources
- Classifies the capacity gap into LOW, MEDIUM, HIGH or CRITICAL
- Classifies the worst case using the forecast upper bound
- Suppresses repeated alerts inside the cooldown window
- Attributes the root cause of elevated days
- Prices the SLA risk and the idle capacity

Inputs without rolling features or a forecast band get them derived first.

Examples:
  # Show the most recent risky days
  capguard run data/ops.csv

  # Show every day of January with all severities
  capguard run data/ops.csv --from 2024-01-01 --to 2024-01-31 --severity all

  # Apply the aggressive preset on top of a 5% demand increase
  capguard run data/ops.csv --preset aggressive --demand-change 0.05

  # Export the full pipeline output
  capguard run data/ops.csv --severity all --limit 0 --output parquet --output-file out.parquet`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteRun(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot run pipeline", err)
		}
	},
}
