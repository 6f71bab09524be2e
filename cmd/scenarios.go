package cmd

import (
	"github.com/huangsam/capguard/core"
	"github.com/huangsam/capguard/internal/contract"
	"github.com/spf13/cobra"
)

// scenariosCmd compares what-if scenarios.
var scenariosCmd = &cobra.Command{
	Use:   "scenarios [input-path]",
	Short: "Compare simulated risk days across what-if scenarios.",
	Long: `Simulate the demand series under several scenarios and count the days each
one puts at risk.

Without --scenarios-file the three presets are compared, each resolved against
--demand-change and --resource-change. A scenarios file looks like:

  scenarios:
    - name: hire
      resource_change: 4
    - name: launch
      demand_change: 0.25

Examples:
  # Compare the presets
  capguard scenarios data/ops.csv

  # Compare your own scenarios
  capguard scenarios data/ops.csv --scenarios-file plans.yaml --output json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteScenarios(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot compare scenarios", err)
		}
	},
}
