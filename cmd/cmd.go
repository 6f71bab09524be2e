// Package cmd defines the command-line interface for capguard.
package cmd

import (
	"github.com/huangsam/capguard/internal/contract"
	"github.com/huangsam/capguard/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(scenariosCmd)
	rootCmd.AddCommand(backtestCmd)
	rootCmd.AddCommand(optimizeCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(runsCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the runs subcommands to the parent runs command
	runsCmd.AddCommand(runsClearCmd)
	runsCmd.AddCommand(runsStatusCmd)
	runsCmd.AddCommand(runsExportCmd)
	runsCmd.AddCommand(runsMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("input", "", "Path to the CSV or Parquet input series (a positional path takes precedence)")
	rootCmd.PersistentFlags().Float64("tickets-per-resource", schema.DefaultTicketsPerResource, "Tickets one resource resolves per day")
	rootCmd.PersistentFlags().Float64("buffer-ratio", schema.DefaultBufferRatio, "Safety margin applied to estimated capacity")
	rootCmd.PersistentFlags().Int("cooldown-days", schema.DefaultCooldownDays, "Days an alert stays suppressed after firing")
	rootCmd.PersistentFlags().Float64("sla-penalty-cost", schema.DefaultSLAPenaltyCost, "Cost of one unit of uncovered demand")
	rootCmd.PersistentFlags().Float64("idle-resource-cost", schema.DefaultIdleResourceCost, "Cost of one unit of idle capacity")
	rootCmd.PersistentFlags().String("thresholds-override", "", "Capacity gap thresholds (format: 'medium:10,high:25')")
	rootCmd.PersistentFlags().Float64("confidence", contract.DefaultConfidence, "Confidence level of a derived forecast band")
	rootCmd.PersistentFlags().Bool("naive-forecast", false, "Fill a missing forecast with the previous day's 7-day mean")
	rootCmd.PersistentFlags().Float64("demand-change", 0, "Relative demand change applied to the inputs (0.1 = +10%)")
	rootCmd.PersistentFlags().Int("resource-change", 0, "Absolute change in active resources applied to the inputs")
	rootCmd.PersistentFlags().String("preset", string(schema.BaselinePreset), "Scenario preset: baseline or conservative or aggressive")
	rootCmd.PersistentFlags().String("from", "", "First date to include (YYYY-MM-DD)")
	rootCmd.PersistentFlags().String("to", "", "Last date to include (YYYY-MM-DD)")
	rootCmd.PersistentFlags().StringP("severity", "s", defaultSeverityFilter(), "Comma-separated severities to show, or 'all'")
	rootCmd.PersistentFlags().IntP("limit", "l", contract.DefaultResultLimit, "Number of most recent records to display (0 = all)")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet or prom")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("runs-backend", "", "Run tracking backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("runs-db-connect", "", "Database connection string for run tracking (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("emoji", "no", "Enable emojis in headers and labels (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of scenariosCmd to Viper
	scenariosCmd.Flags().String("scenarios-file", "", "YAML file listing the scenarios to compare (defaults to the presets)")
	if err := viper.BindPFlags(scenariosCmd.Flags()); err != nil {
		contract.LogFatal("Error binding scenarios flags", err)
	}

	// Bind all flags of backtestCmd to Viper
	backtestCmd.Flags().Int("backtest-delta", schema.DefaultBacktestDelta, "Resources added to every day of the backtest")
	if err := viper.BindPFlags(backtestCmd.Flags()); err != nil {
		contract.LogFatal("Error binding backtest flags", err)
	}

	// Bind all flags of optimizeCmd to Viper
	optimizeCmd.Flags().String("buffer-candidates", "", "Comma-separated buffer ratios to evaluate (e.g., '1.0,1.1,1.2')")
	if err := viper.BindPFlags(optimizeCmd.Flags()); err != nil {
		contract.LogFatal("Error binding optimize flags", err)
	}

	// Bind all flags of generateCmd to Viper
	generateCmd.Flags().Int("days", contract.DefaultGenerateDays, "Number of days to generate")
	generateCmd.Flags().String("start-date", contract.DefaultGenerateStart, "First generated date (YYYY-MM-DD)")
	generateCmd.Flags().Uint64("seed", contract.DefaultSeed, "Random seed; the same seed always yields the same series")
	if err := viper.BindPFlags(generateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding generate flags", err)
	}

	// Bind all flags of runsMigrateCmd to Viper
	runsMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(runsMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding runs migrate flags", err)
	}
}
