// Package outwriter has output and writer logic.
package outwriter

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/huangsam/capguard/internal/contract"
	"github.com/huangsam/capguard/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteRecords prints decision records using the configured output format.
func (ow *OutWriter) WriteRecords(ds schema.Dataset, cfg *contract.Config, duration time.Duration) error {
	return PrintRecordResults(ds, cfg, duration)
}

// WriteScenarios prints a scenario comparison using the configured output format.
func (ow *OutWriter) WriteScenarios(outcomes []schema.ScenarioOutcome, cfg *contract.Config, duration time.Duration) error {
	return PrintScenarioResults(outcomes, cfg, duration)
}

// WriteBacktest prints a backtest result using the configured output format.
func (ow *OutWriter) WriteBacktest(result schema.BacktestResult, cfg *contract.Config, duration time.Duration) error {
	return PrintBacktestResults(result, cfg, duration)
}

// WriteOptimization prints the buffer optimization using the configured output format.
func (ow *OutWriter) WriteOptimization(opt schema.BufferOptimization, cfg *contract.Config, duration time.Duration) error {
	return PrintOptimizeResults(opt, cfg, duration)
}

// WriteSummary prints the headline KPIs using the configured output format.
func (ow *OutWriter) WriteSummary(s schema.Summary, cfg *contract.Config, duration time.Duration) error {
	return PrintSummaryResults(s, cfg, duration)
}

// WriteGenerated prints a synthetic series using the configured output format.
func (ow *OutWriter) WriteGenerated(ds schema.Dataset, cfg *contract.Config) error {
	return PrintGeneratedDataset(ds, cfg)
}

// WriteRunHeader prints a concise, 2-line header for a run: the input and command,
// then the date range the run covers.
func WriteRunHeader(w io.Writer, cfg *contract.Config, kind schema.RunKind, ds schema.Dataset) {
	inputName := filepath.Base(cfg.InputPath)
	if cfg.InputPath == "" || inputName == "." {
		inputName = "none"
	}

	inputIcon, rangeIcon := "", ""
	if cfg.UseEmojis {
		inputIcon, rangeIcon = "🔎 ", "📅 "
	}
	fmt.Fprintf(w, "%sInput: %s (Mode: %s)\n", inputIcon, inputName, kind)

	if len(ds) == 0 {
		fmt.Fprintf(w, "%sRange: empty\n", rangeIcon)
		return
	}
	fmt.Fprintf(w, "%sRange: %s → %s (%d days)\n", rangeIcon,
		ds[0].Date.Format(schema.DateFormat), ds[len(ds)-1].Date.Format(schema.DateFormat), len(ds))
}
