package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/huangsam/capguard/core"
	"github.com/huangsam/capguard/internal/contract"
	"github.com/huangsam/capguard/internal/iocache"
	"github.com/huangsam/capguard/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Build metadata, overridden through -ldflags on release builds.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	rootCtx      = context.Background()
	cfg          = &contract.Config{}           // validated settings used by every command
	input        = &contract.ConfigRawInput{}   // merged flags, env and config file
	profile      = &contract.ProfileConfig{}
	cacheManager contract.CacheManager
)

// profilePaths returns the CPU and heap profile file names for the configured prefix.
func profilePaths() (cpuPath, heapPath string) {
	return profile.Prefix + ".cpu.prof", profile.Prefix + ".mem.prof"
}

// startProfiling begins CPU sampling. The heap snapshot is taken in stopProfiling.
func startProfiling() error {
	if !profile.Enabled {
		return nil
	}
	cpuPath, heapPath := profilePaths()

	f, err := os.Create(cpuPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", cpuPath, err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("start cpu profile: %w", err)
	}
	_, err = fmt.Fprintf(os.Stderr, "Profiling to %s and %s\n", cpuPath, heapPath)
	return err
}

// stopProfiling ends CPU sampling and writes the heap snapshot.
func stopProfiling() error {
	if !profile.Enabled {
		return nil
	}
	pprof.StopCPUProfile()
	cpuPath, heapPath := profilePaths()

	f, err := os.Create(heapPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", heapPath, err)
	}
	defer func() { _ = f.Close() }()
	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("write heap profile: %w", err)
	}

	_, err = fmt.Fprintf(os.Stderr, "Profiles written. Inspect with 'go tool pprof %s'\n", cpuPath)
	return err
}

// rootCmd only prints help; the work happens in subcommands.
var rootCmd = &cobra.Command{
	Use:                "capguard",
	Short:              "Turn a daily demand series into capacity risk decisions.",
	Long:               `Capguard estimates capacity, classifies risk, throttles alerts and prices every day of a demand series.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// setConfigSource points viper at the explicit config file or the default search paths.
func setConfigSource() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		return
	}
	viper.SetConfigName(".capguard")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME")
}

// initConfig registers the config sources and the default of every key.
// CAPGUARD_CACHE_BACKEND maps to cache-backend, and so on.
func initConfig() {
	setConfigSource()

	viper.SetEnvPrefix("CAPGUARD")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("tickets-per-resource", schema.DefaultTicketsPerResource)
	viper.SetDefault("buffer-ratio", schema.DefaultBufferRatio)
	viper.SetDefault("cooldown-days", schema.DefaultCooldownDays)
	viper.SetDefault("sla-penalty-cost", schema.DefaultSLAPenaltyCost)
	viper.SetDefault("idle-resource-cost", schema.DefaultIdleResourceCost)
	viper.SetDefault("confidence", contract.DefaultConfidence)
	viper.SetDefault("severity", defaultSeverityFilter())
	viper.SetDefault("limit", contract.DefaultResultLimit)
	viper.SetDefault("precision", contract.DefaultPrecision)
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("cache-backend", schema.SQLiteBackend)
	viper.SetDefault("cache-db-connect", "")
	viper.SetDefault("runs-backend", "")
	viper.SetDefault("runs-db-connect", "")
	viper.SetDefault("emoji", "no")
	viper.SetDefault("color", "yes")
	viper.SetDefault("preset", schema.BaselinePreset)
	viper.SetDefault("backtest-delta", schema.DefaultBacktestDelta)
	viper.SetDefault("days", contract.DefaultGenerateDays)
	viper.SetDefault("start-date", contract.DefaultGenerateStart)
	viper.SetDefault("seed", contract.DefaultSeed)
}

// defaultSeverityFilter renders the default record view filter as a flag value.
func defaultSeverityFilter() string {
	parts := make([]string, len(core.DefaultViewSeverities))
	for i, s := range core.DefaultViewSeverities {
		parts[i] = string(s)
	}
	return strings.Join(parts, ",")
}

// loadConfigFile reads the config file if there is one. A missing file is not an error.
func loadConfigFile() error {
	setConfigSource()

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return fmt.Errorf("read config file: %w", err)
	}
	return nil
}

// sharedSetup resolves and validates the configuration of a pipeline command,
// then opens the cache and run stores it asks for.
func sharedSetup(_ context.Context, _ *cobra.Command, args []string) error {
	if err := contract.ProcessProfilingConfig(profile, viper.GetString("profile")); err != nil {
		return fmt.Errorf("profiling config: %w", err)
	}
	if err := startProfiling(); err != nil {
		return err
	}

	if err := loadConfigFile(); err != nil {
		return err
	}
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}

	// The dataset path is positional, so viper never sees it.
	input.InputPathStr = ""
	if len(args) == 1 {
		input.InputPathStr = args[0]
	}

	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}
	if err := iocache.InitStores(cfg.CacheBackend, cfg.CacheDBConnect, cfg.RunsBackend, cfg.RunsDBConnect); err != nil {
		return fmt.Errorf("open stores: %w", err)
	}
	return nil
}

// sharedSetupWrapper adapts sharedSetup to cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetCacheManager injects the store manager handed to every executor.
func SetCacheManager(mgr contract.CacheManager) {
	cacheManager = mgr
}

// StopProfiling flushes the profiles started by --profile.
func StopProfiling() error {
	return stopProfiling()
}
