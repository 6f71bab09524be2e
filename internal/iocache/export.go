package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/capguard/internal/contract"
	"github.com/huangsam/capguard/internal/parquet"
)

// ErrNoRuns is returned when there is nothing to export.
var ErrNoRuns = errors.New("no tracked runs found to export")

// ExportRuns writes every tracked run and its records to two Parquet files
// named after outputFile, reporting progress to w.
func ExportRuns(store contract.RunStore, outputFile string, w io.Writer) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("run store is not initialized")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get run status: %w", err)
	}
	if status.TotalRuns == 0 {
		return ErrNoRuns
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(w, "Total run records: %d\n", status.TableSizes[runRecordsTable])

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	days, err := store.GetAllRunDays()
	if err != nil {
		return fmt.Errorf("failed to retrieve run records: %w", err)
	}

	runsFile := outputFile + ".runs.parquet"
	if err := parquet.WriteRunsParquet(parquet.ConvertRunRecords(runs), runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d runs to: %s\n", len(runs), runsFile)

	daysFile := outputFile + ".run_records.parquet"
	if err := parquet.WriteRunDaysParquet(parquet.ConvertRunDayRecords(days), daysFile); err != nil {
		return fmt.Errorf("failed to write run records: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d run records to: %s\n", len(days), daysFile)

	return nil
}
