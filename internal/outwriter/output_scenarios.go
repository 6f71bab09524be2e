package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/huangsam/capguard/internal/contract"
	"github.com/huangsam/capguard/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// deltaColors returns the colorizers for worse, better and unchanged values.
func deltaColors(useColors bool) (worse, better, same func(...any) string) {
	if !useColors {
		return fmt.Sprint, fmt.Sprint, fmt.Sprint
	}
	return color.New(color.FgRed).SprintFunc(),
		color.New(color.FgGreen).SprintFunc(),
		color.New(color.FgYellow).SprintFunc()
}

// formatPercent renders a relative change such as 0.1 as "+10%".
func formatPercent(v float64) string {
	return fmt.Sprintf("%+.0f%%", v*100)
}

// PrintScenarioResults writes a scenario comparison in the configured output format.
func PrintScenarioResults(outcomes []schema.ScenarioOutcome, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, outcomes)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeScenarioCSV(w, outcomes, cfg.Precision)
		}, "Wrote CSV")
	case schema.ParquetOut, schema.PromOut:
		return unsupportedOutput(cfg.Output, "scenario comparisons")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeScenarioTable(w, outcomes, cfg, duration)
		}, "Wrote table")
	}
}

func writeScenarioCSV(w io.Writer, outcomes []schema.ScenarioOutcome, precision int) error {
	fmtFloat, _ := createFormatters(precision)
	header := []string{"scenario", "demand_change", "resource_change", "critical_days", "total_days"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, o := range outcomes {
			rec := []string{
				o.Scenario,
				fmtFloat(o.DemandChange),
				strconv.Itoa(o.ResourceChange),
				strconv.Itoa(o.CriticalDays),
				strconv.Itoa(o.TotalDays),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeScenarioTable(w io.Writer, outcomes []schema.ScenarioOutcome, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Scenario", "Demand Δ", "Resource Δ", "Risk Days", "Days", "Share %"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, o := range outcomes {
		share := 0.0
		if o.TotalDays > 0 {
			share = float64(o.CriticalDays) / float64(o.TotalDays) * 100
		}
		data = append(data, []string{
			o.Scenario,
			formatPercent(o.DemandChange),
			fmt.Sprintf("%+d", o.ResourceChange),
			strconv.Itoa(o.CriticalDays),
			strconv.Itoa(o.TotalDays),
			fmtFloat(share),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Compared %d scenarios in %v\n", len(outcomes), duration)
	return err
}

// PrintBacktestResults writes a backtest result in the configured output format.
func PrintBacktestResults(result schema.BacktestResult, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			header := []string{"resource_change", "actual_risk_days", "simulated_risk_days", "risk_days_avoided"}
			return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
				return cw.Write([]string{
					strconv.Itoa(result.ResourceChange),
					strconv.Itoa(result.ActualRiskDays),
					strconv.Itoa(result.SimulatedRiskDays),
					strconv.Itoa(result.RiskDaysAvoided),
				})
			})
		}, "Wrote CSV")
	case schema.ParquetOut, schema.PromOut:
		return unsupportedOutput(cfg.Output, "backtests")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeBacktestTable(w, result, cfg, duration)
		}, "Wrote table")
	}
}

func writeBacktestTable(w io.Writer, result schema.BacktestResult, cfg *contract.Config, duration time.Duration) error {
	worse, better, same := deltaColors(cfg.UseColors)

	var avoided string
	switch {
	case result.RiskDaysAvoided > 0:
		avoided = better(fmt.Sprintf("%d ▼", result.RiskDaysAvoided))
	case result.RiskDaysAvoided < 0:
		avoided = worse(fmt.Sprintf("%d ▲", result.RiskDaysAvoided))
	default:
		avoided = same("0")
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Resource Δ", "Actual Risk Days", "Simulated Risk Days", "Avoided"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	if err := table.Bulk([][]string{{
		fmt.Sprintf("%+d", result.ResourceChange),
		strconv.Itoa(result.ActualRiskDays),
		strconv.Itoa(result.SimulatedRiskDays),
		avoided,
	}}); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Backtest completed in %v\n", duration)
	return err
}

// PrintOptimizeResults writes the buffer optimization in the configured output format.
func PrintOptimizeResults(opt schema.BufferOptimization, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, opt)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeOptimizeCSV(w, opt, cfg.Precision)
		}, "Wrote CSV")
	case schema.ParquetOut, schema.PromOut:
		return unsupportedOutput(cfg.Output, "buffer optimization")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeOptimizeTable(w, opt, cfg, duration)
		}, "Wrote table")
	}
}

func writeOptimizeCSV(w io.Writer, opt schema.BufferOptimization, precision int) error {
	fmtFloat, _ := createFormatters(precision)
	header := []string{"buffer", "at_risk_days", "sla_cost", "idle_cost", "total_cost", "best"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, e := range opt.Evaluations {
			rec := []string{
				strconv.FormatFloat(e.Buffer, 'f', -1, 64),
				strconv.Itoa(e.AtRiskDays),
				fmtFloat(e.SLACost),
				fmtFloat(e.IdleCost),
				fmtFloat(e.TotalCost),
				strconv.FormatBool(e.Buffer == opt.Best.Buffer),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeOptimizeTable(w io.Writer, opt schema.BufferOptimization, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, _ := createFormatters(cfg.Precision)
	_, better, _ := deltaColors(cfg.UseColors)
	marker := "*"
	if cfg.UseEmojis {
		marker = "⭐"
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Buffer", "At-Risk Days", "SLA Cost", "Idle Cost", "Total Cost", "Best"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, e := range opt.Evaluations {
		best := ""
		total := fmtFloat(e.TotalCost)
		if e.Buffer == opt.Best.Buffer {
			best = marker
			total = better(total)
		}
		data = append(data, []string{
			strconv.FormatFloat(e.Buffer, 'f', 2, 64),
			strconv.Itoa(e.AtRiskDays),
			fmtFloat(e.SLACost),
			fmtFloat(e.IdleCost),
			total,
			best,
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Best buffer: %s (total cost %s)\n", strconv.FormatFloat(opt.Best.Buffer, 'f', 2, 64), fmtFloat(opt.Best.TotalCost)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Evaluated %d candidates in %v\n", len(opt.Evaluations), duration)
	return err
}
