// Package core has the decision pipeline stages and the orchestration behind every command.
package core

import (
	"context"
	"os"
	"time"

	"github.com/huangsam/capguard/internal/contract"
	"github.com/huangsam/capguard/internal/dataset"
	"github.com/huangsam/capguard/internal/outwriter"
	"github.com/huangsam/capguard/schema"
)

// ExecutorFunc defines the function signature for executing the different commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// printRunHeader prints the run header for table output on stdout.
func printRunHeader(ctx context.Context, cfg *contract.Config, kind schema.RunKind, ds schema.Dataset) {
	if shouldSuppressHeader(ctx) || cfg.Output != schema.TextOut || cfg.OutputFile != "" {
		return
	}
	outwriter.WriteRunHeader(os.Stdout, cfg, kind, ds)
}

// pipelineView runs the (cached) pipeline and applies the date range and severity filter.
func pipelineView(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (schema.Dataset, error) {
	full, err := cachedPipeline(ctx, cfg, mgr)
	if err != nil {
		return nil, err
	}
	return FilterView(full, cfg.From, cfg.To, cfg.Severities), nil
}

// GetPipelineResults runs the decision pipeline and returns the filtered record view.
// The records are tracked in the run store when one is configured.
func GetPipelineResults(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (schema.Dataset, time.Duration, error) {
	start := time.Now()
	tracker := beginRun(mgr, schema.PipelineRun, cfg)

	view, err := pipelineView(ctx, cfg, mgr)
	if err != nil {
		tracker.end(0)
		return nil, 0, err
	}
	printRunHeader(ctx, cfg, schema.PipelineRun, view)

	tracker.recordDays(view)
	tracker.end(len(view))
	return view, time.Since(start), nil
}

// GetSummaryResults computes the headline KPIs over the filtered record view.
func GetSummaryResults(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (schema.Summary, time.Duration, error) {
	start := time.Now()
	tracker := beginRun(mgr, schema.SummaryRun, cfg)

	view, err := pipelineView(ctx, cfg, mgr)
	if err != nil {
		tracker.end(0)
		return schema.Summary{}, 0, err
	}
	printRunHeader(ctx, cfg, schema.SummaryRun, view)

	summary := Summarize(view)
	tracker.end(len(view))
	return summary, time.Since(start), nil
}

// GetScenarioResults compares what-if scenarios over the date-filtered input. The
// scenarios come from the scenarios file, or else from the presets resolved against
// the configured deltas.
func GetScenarioResults(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) ([]schema.ScenarioOutcome, time.Duration, error) {
	start := time.Now()
	tracker := beginRun(mgr, schema.ScenariosRun, cfg)

	scenarios, err := scenarioSet(cfg)
	if err != nil {
		tracker.end(0)
		return nil, 0, err
	}

	ds, err := loadInput(cfg)
	if err != nil {
		tracker.end(0)
		return nil, 0, err
	}
	if err := ctx.Err(); err != nil {
		tracker.end(0)
		return nil, 0, err
	}
	ds = FilterView(ds, cfg.From, cfg.To, nil)
	if len(ds) == 0 {
		tracker.end(0)
		return nil, 0, ErrEmptyDataset
	}
	printRunHeader(ctx, cfg, schema.ScenariosRun, ds)

	outcomes := CompareScenarios(ds, scenarios, cfg.Settings.TicketsPerResource)
	tracker.end(len(ds))
	return outcomes, time.Since(start), nil
}

// scenarioSet returns the scenarios to compare.
func scenarioSet(cfg *contract.Config) ([]schema.ScenarioParams, error) {
	if cfg.ScenariosFile != "" {
		return dataset.LoadScenarios(cfg.ScenariosFile)
	}
	base := cfg.Scenario()
	base.Name = ""
	return PresetScenariosFrom(base), nil
}

// GetBacktestResults compares realized risk days in the filtered view against a
// simulated resource change.
func GetBacktestResults(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (schema.BacktestResult, time.Duration, error) {
	start := time.Now()
	tracker := beginRun(mgr, schema.BacktestRun, cfg)

	view, err := pipelineView(ctx, cfg, mgr)
	if err != nil {
		tracker.end(0)
		return schema.BacktestResult{}, 0, err
	}
	printRunHeader(ctx, cfg, schema.BacktestRun, view)

	result, err := Backtest(view, cfg.BacktestDelta, cfg.Settings.TicketsPerResource)
	if err != nil {
		tracker.end(0)
		return schema.BacktestResult{}, 0, err
	}
	tracker.end(len(view))
	return result, time.Since(start), nil
}

// GetOptimizeResults evaluates every buffer candidate over the date-filtered pipeline output.
func GetOptimizeResults(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (schema.BufferOptimization, time.Duration, error) {
	start := time.Now()
	tracker := beginRun(mgr, schema.OptimizeRun, cfg)

	full, err := cachedPipeline(ctx, cfg, mgr)
	if err != nil {
		tracker.end(0)
		return schema.BufferOptimization{}, 0, err
	}
	ds := FilterView(full, cfg.From, cfg.To, nil)
	if len(ds) == 0 {
		tracker.end(0)
		return schema.BufferOptimization{}, 0, ErrEmptyDataset
	}
	printRunHeader(ctx, cfg, schema.OptimizeRun, ds)

	opt, err := OptimizeBuffer(ds, cfg.BufferCandidates, cfg.Settings.SLAPenaltyCost, cfg.Settings.IdleResourceCost)
	if err != nil {
		tracker.end(0)
		return schema.BufferOptimization{}, 0, err
	}
	tracker.end(len(ds))
	return opt, time.Since(start), nil
}

// ExecuteRun runs the decision pipeline and prints the record view.
// It serves as the main entry point for the 'run' command.
func ExecuteRun(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	view, duration, err := GetPipelineResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.PrintRecordResults(view, cfg, duration)
}

// ExecuteSummary prints the headline KPIs of the record view.
func ExecuteSummary(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	summary, duration, err := GetSummaryResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.PrintSummaryResults(summary, cfg, duration)
}

// ExecuteScenarios prints a what-if scenario comparison.
func ExecuteScenarios(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	outcomes, duration, err := GetScenarioResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.PrintScenarioResults(outcomes, cfg, duration)
}

// ExecuteBacktest prints the backtest of a resource change.
func ExecuteBacktest(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	result, duration, err := GetBacktestResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.PrintBacktestResults(result, cfg, duration)
}

// ExecuteOptimize prints the buffer optimization.
func ExecuteOptimize(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	opt, duration, err := GetOptimizeResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.PrintOptimizeResults(opt, cfg, duration)
}

// ExecuteGenerate writes a reproducible synthetic input series. It needs no stores.
func ExecuteGenerate(ctx context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ds := dataset.Generate(dataset.GenerateOptions{
		Days:  cfg.GenerateDays,
		Start: cfg.GenerateStart,
		Seed:  cfg.Seed,
	})
	return outwriter.PrintGeneratedDataset(ds, cfg)
}
