package cmd

import (
	"github.com/huangsam/capguard/core"
	"github.com/huangsam/capguard/internal/contract"
	"github.com/spf13/cobra"
)

// generateCmd writes a synthetic demand series.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a reproducible synthetic demand series.",
	Long: `Generate a daily demand series with yearly seasonality, an upward trend and
noise. The same seed always yields the same series, which makes it handy for
demos and for trying thresholds before real data is available.

Examples:
  # Two years of data as CSV on stdout
  capguard generate

  # One year as Parquet, then run the pipeline on it
  capguard generate --days 365 --output parquet --output-file ops.parquet
  capguard run ops.parquet --naive-forecast`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteGenerate(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot generate dataset", err)
		}
	},
}
