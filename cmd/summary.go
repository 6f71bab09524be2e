package cmd

import (
	"github.com/huangsam/capguard/core"
	"github.com/huangsam/capguard/internal/contract"
	"github.com/spf13/cobra"
)

// summaryCmd prints the headline KPIs of the pipeline output.
var summaryCmd = &cobra.Command{
	Use:   "summary [input-path]",
	Short: "Summarize risk days, alerts and expected cost.",
	Long: `Summarize the pipeline output over the selected date range and severities.

Reports the number of critical and risky days, how many alerts fired or were
suppressed, the expected cost split by severity and the root cause breakdown.

The prom output renders the same numbers as Prometheus gauges, ready for a
node_exporter textfile collector.

Examples:
  # Summarize every day
  capguard summary data/ops.csv --severity all

  # Publish the KPIs for Prometheus
  capguard summary data/ops.csv --severity all --output prom --output-file capguard.prom`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteSummary(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot summarize pipeline", err)
		}
	},
}
