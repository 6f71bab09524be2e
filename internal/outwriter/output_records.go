package outwriter

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/huangsam/capguard/internal/contract"
	"github.com/huangsam/capguard/internal/dataset"
	"github.com/huangsam/capguard/internal/parquet"
	"github.com/huangsam/capguard/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// cellFormat carries the formatting options shared by every table cell.
type cellFormat struct {
	fmtFloat  func(float64) string
	fmtOpt    func(*float64) string
	useColors bool
	useEmojis bool
}

// recordColumn is one column of the record table. Lower priorities are kept first
// when the terminal is too narrow for every column.
type recordColumn struct {
	header   string
	size     int
	priority int
	value    func(r *schema.TimeSeriesRecord, f cellFormat) string
}

var recordColumns = []recordColumn{
	{"Date", 10, 0, func(r *schema.TimeSeriesRecord, _ cellFormat) string { return r.Date.Format(schema.DateFormat) }},
	{"Demand", 8, 0, func(r *schema.TimeSeriesRecord, f cellFormat) string { return f.fmtFloat(r.Demand) }},
	{"Upper", 8, 2, func(r *schema.TimeSeriesRecord, f cellFormat) string { return f.fmtOpt(r.ForecastUpper) }},
	{"Resources", 9, 2, func(r *schema.TimeSeriesRecord, _ cellFormat) string { return strconv.Itoa(r.ActiveResources) }},
	{"Backlog", 7, 3, func(r *schema.TimeSeriesRecord, f cellFormat) string { return f.fmtFloat(r.Backlog) }},
	{"Capacity", 8, 1, func(r *schema.TimeSeriesRecord, f cellFormat) string { return f.fmtOpt(r.EstimatedCapacity) }},
	{"Gap", 8, 1, func(r *schema.TimeSeriesRecord, f cellFormat) string { return f.fmtOpt(r.CapacityGap) }},
	{"Severity", 8, 0, func(r *schema.TimeSeriesRecord, f cellFormat) string { return severityLabel(r.RiskSeverity, f.useColors) }},
	{"Uncertainty", 11, 2, func(r *schema.TimeSeriesRecord, f cellFormat) string {
		return severityLabel(r.UncertaintyAwareRisk, f.useColors)
	}},
	{"Alert", 6, 1, func(r *schema.TimeSeriesRecord, f cellFormat) string { return alertLabel(r.AlertAllowed, f.useEmojis) }},
	{"Root Cause", 20, 1, func(r *schema.TimeSeriesRecord, _ cellFormat) string {
		if r.RootCause == "" {
			return "-"
		}
		return string(r.RootCause)
	}},
	{"Cost", 9, 0, func(r *schema.TimeSeriesRecord, f cellFormat) string { return f.fmtOpt(r.TotalExpectedCost) }},
}

// selectRecordColumns returns the record columns that fit in width.
func selectRecordColumns(width int) []recordColumn {
	return fitColumns(recordColumns, width,
		func(c recordColumn) int { return max(c.size, len(c.header)) },
		func(c recordColumn) int { return c.priority })
}

// PrintRecordResults writes the most recent cfg.ResultLimit decision records,
// dispatching on the configured output format.
func PrintRecordResults(ds schema.Dataset, cfg *contract.Config, duration time.Duration) error {
	if ds == nil {
		ds = schema.Dataset{}
	}
	shown := tailRecords(ds, cfg.ResultLimit)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, shown)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return dataset.WriteCSV(w, shown)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := writeRecordsParquet(shown, cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	case schema.PromOut:
		return unsupportedOutput(cfg.Output, "records (use the summary command)")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRecordTable(w, ds, cfg, duration)
		}, "Wrote table")
	}
	return nil
}

// PrintGeneratedDataset writes a synthetic series. Table output is not meaningful for
// raw input data, so text falls back to CSV.
func PrintGeneratedDataset(ds schema.Dataset, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, ds)
		}, fmt.Sprintf("Generated %d records as JSON", len(ds)))
	case schema.ParquetOut:
		return writeRecordsParquet(ds, cfg.OutputFile)
	case schema.PromOut:
		return unsupportedOutput(cfg.Output, "generated data")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return dataset.WriteCSV(w, ds)
		}, fmt.Sprintf("Generated %d records as CSV", len(ds)))
	}
}

// writeRecordsParquet writes records to a Parquet file, which cannot be streamed to stdout.
func writeRecordsParquet(ds schema.Dataset, outputFile string) error {
	if outputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}
	if err := parquet.WriteRecordsParquet(ds, outputFile); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "💾 Wrote Parquet to %s\n", outputFile)
	return nil
}

// tailRecords returns the last limit records. A limit of 0 keeps all of them.
func tailRecords(ds schema.Dataset, limit int) schema.Dataset {
	if limit <= 0 || limit >= len(ds) {
		return ds
	}
	return ds[len(ds)-limit:]
}

// writeRecordTable renders the most recent records as a table.
func writeRecordTable(w io.Writer, ds schema.Dataset, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, fmtOpt := createFormatters(cfg.Precision)
	format := cellFormat{fmtFloat: fmtFloat, fmtOpt: fmtOpt, useColors: cfg.UseColors, useEmojis: cfg.UseEmojis}
	columns := selectRecordColumns(GetTableWidth(cfg))
	shown := tailRecords(ds, cfg.ResultLimit)

	table := tablewriter.NewWriter(w)
	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = c.header
	}
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, len(shown))
	totalCost := 0.0
	for i := range shown {
		r := &shown[i]
		row := make([]string, len(columns))
		for j, c := range columns {
			row[j] = c.value(r, format)
		}
		data = append(data, row)
		totalCost += schema.Deref(r.TotalExpectedCost)
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Showing last %d of %d records (expected cost: %s)\n", len(shown), len(ds), fmtFloat(totalCost)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Run completed in %v. Cache backend: %s\n", duration, cfg.CacheBackend)
	return err
}
