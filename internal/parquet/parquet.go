// Package parquet provides data structures and functions for reading and writing
// capguard record sets and tracked runs as Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/huangsam/capguard/schema"
	"github.com/parquet-go/parquet-go"
)

// Record is one day of the time series, with every optional column nullable.
type Record struct {
	Date              time.Time `parquet:"date,snappy"`
	Demand            float64   `parquet:"demand,snappy"`
	ActiveResources   int64     `parquet:"active_resources,snappy"`
	Backlog           float64   `parquet:"backlog,snappy"`
	AvgResolutionTime float64   `parquet:"avg_resolution_time,snappy"`
	DayOfWeek         int32     `parquet:"day_of_week,snappy"`
	IsWeekend         bool      `parquet:"is_weekend,snappy"`
	DemandGrowthRate  float64   `parquet:"demand_growth_rate,snappy"`

	DemandLag1    *float64 `parquet:"demand_lag_1,optional,snappy"`
	DemandLag7    *float64 `parquet:"demand_lag_7,optional,snappy"`
	DemandLag14   *float64 `parquet:"demand_lag_14,optional,snappy"`
	RollingMean7  *float64 `parquet:"rolling_mean_7,optional,snappy"`
	RollingMean14 *float64 `parquet:"rolling_mean_14,optional,snappy"`
	RollingStd7   *float64 `parquet:"rolling_std_7,optional,snappy"`

	Forecast      *float64 `parquet:"forecast,optional,snappy"`
	ForecastLower *float64 `parquet:"forecast_lower,optional,snappy"`
	ForecastUpper *float64 `parquet:"forecast_upper,optional,snappy"`

	EstimatedCapacity    *float64 `parquet:"estimated_capacity,optional,snappy"`
	CapacityGap          *float64 `parquet:"capacity_gap,optional,snappy"`
	RiskSeverity         *string  `parquet:"risk_severity,optional,snappy"`
	WorstCaseGap         *float64 `parquet:"worst_case_gap,optional,snappy"`
	UncertaintyAwareRisk *string  `parquet:"uncertainty_aware_risk,optional,snappy"`
	AlertAllowed         *bool    `parquet:"alert_allowed,optional,snappy"`
	RootCause            *string  `parquet:"root_cause,optional,snappy"`
	SLARiskCost          *float64 `parquet:"sla_risk_cost,optional,snappy"`
	IdleCapacity         *float64 `parquet:"idle_capacity,optional,snappy"`
	IdleCost             *float64 `parquet:"idle_cost,optional,snappy"`
	TotalExpectedCost    *float64 `parquet:"total_expected_cost,optional,snappy"`
}

// Run represents a single tracked capguard run with metadata.
// This struct maps to the capguard_runs database table.
type Run struct {
	// RunID is the unique identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// RunUUID is the globally unique identifier for this run
	RunUUID string `parquet:"run_uuid,snappy"`

	// Kind is the command that produced the run
	Kind string `parquet:"kind,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// DurationMs is the duration of the run in milliseconds (nullable)
	DurationMs *int64 `parquet:"duration_ms,optional,snappy"`

	// TotalRecords is the number of records the run produced (nullable)
	TotalRecords *int64 `parquet:"total_records,optional,snappy"`

	// Settings contains the JSON-encoded run settings (nullable)
	Settings *string `parquet:"settings,optional,snappy"`
}

// RunDay represents the decision columns of one record produced by a run.
// This struct maps to the capguard_run_records database table.
type RunDay struct {
	RunID                int64     `parquet:"run_id,snappy"`
	Date                 time.Time `parquet:"date,snappy"`
	Demand               float64   `parquet:"demand,snappy"`
	ActiveResources      int64     `parquet:"active_resources,snappy"`
	EstimatedCapacity    float64   `parquet:"estimated_capacity,snappy"`
	CapacityGap          float64   `parquet:"capacity_gap,snappy"`
	RiskSeverity         string    `parquet:"risk_severity,snappy"`
	UncertaintyAwareRisk string    `parquet:"uncertainty_aware_risk,snappy"`
	AlertAllowed         bool      `parquet:"alert_allowed,snappy"`
	RootCause            string    `parquet:"root_cause,snappy"`
	TotalExpectedCost    float64   `parquet:"total_expected_cost,snappy"`
}

// writeParquet writes rows to a new Parquet file whose schema is derived from T's struct tags.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// readParquet reads every row of a Parquet file into T.
func readParquet[T any](inputPath string) ([]T, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[T](file)
	defer func() { _ = reader.Close() }()

	rows := make([]T, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read parquet file: %w", err)
	}
	return rows[:n], nil
}

// WriteRecordsParquet writes a record set to a Parquet file.
func WriteRecordsParquet(ds schema.Dataset, outputPath string) error {
	return writeParquet(ConvertDataset(ds), outputPath)
}

// ReadRecordsParquet reads a record set from a Parquet file in file order.
func ReadRecordsParquet(inputPath string) (schema.Dataset, error) {
	rows, err := readParquet[Record](inputPath)
	if err != nil {
		return nil, err
	}
	ds := make(schema.Dataset, len(rows))
	for i := range rows {
		ds[i] = rows[i].ToSchema()
	}
	return ds, nil
}

// WriteRunsParquet writes a slice of Run structs to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteRunDaysParquet writes a slice of RunDay structs to a Parquet file.
func WriteRunDaysParquet(data []RunDay, outputPath string) error {
	return writeParquet(data, outputPath)
}

// ConvertDataset converts a record set to Parquet rows.
func ConvertDataset(ds schema.Dataset) []Record {
	result := make([]Record, len(ds))
	for i := range ds {
		r := &ds[i]
		result[i] = Record{
			Date:                 r.Date.UTC(),
			Demand:               r.Demand,
			ActiveResources:      int64(r.ActiveResources),
			Backlog:              r.Backlog,
			AvgResolutionTime:    r.AvgResolutionTime,
			DayOfWeek:            int32(r.DayOfWeek),
			IsWeekend:            r.IsWeekend,
			DemandGrowthRate:     r.DemandGrowthRate,
			DemandLag1:           r.DemandLag1,
			DemandLag7:           r.DemandLag7,
			DemandLag14:          r.DemandLag14,
			RollingMean7:         r.RollingMean7,
			RollingMean14:        r.RollingMean14,
			RollingStd7:          r.RollingStd7,
			Forecast:             r.Forecast,
			ForecastLower:        r.ForecastLower,
			ForecastUpper:        r.ForecastUpper,
			EstimatedCapacity:    r.EstimatedCapacity,
			CapacityGap:          r.CapacityGap,
			RiskSeverity:         optionalString(string(r.RiskSeverity)),
			WorstCaseGap:         r.WorstCaseGap,
			UncertaintyAwareRisk: optionalString(string(r.UncertaintyAwareRisk)),
			AlertAllowed:         r.AlertAllowed,
			RootCause:            optionalString(string(r.RootCause)),
			SLARiskCost:          r.SLARiskCost,
			IdleCapacity:         r.IdleCapacity,
			IdleCost:             r.IdleCost,
			TotalExpectedCost:    r.TotalExpectedCost,
		}
	}
	return result
}

// ToSchema converts a Parquet row back into a time series record.
func (r *Record) ToSchema() schema.TimeSeriesRecord {
	return schema.TimeSeriesRecord{
		Date:                 r.Date.UTC(),
		Demand:               r.Demand,
		ActiveResources:      int(r.ActiveResources),
		Backlog:              r.Backlog,
		AvgResolutionTime:    r.AvgResolutionTime,
		DayOfWeek:            int(r.DayOfWeek),
		IsWeekend:            r.IsWeekend,
		DemandGrowthRate:     r.DemandGrowthRate,
		DemandLag1:           r.DemandLag1,
		DemandLag7:           r.DemandLag7,
		DemandLag14:          r.DemandLag14,
		RollingMean7:         r.RollingMean7,
		RollingMean14:        r.RollingMean14,
		RollingStd7:          r.RollingStd7,
		Forecast:             r.Forecast,
		ForecastLower:        r.ForecastLower,
		ForecastUpper:        r.ForecastUpper,
		EstimatedCapacity:    r.EstimatedCapacity,
		CapacityGap:          r.CapacityGap,
		RiskSeverity:         schema.Severity(derefString(r.RiskSeverity)),
		WorstCaseGap:         r.WorstCaseGap,
		UncertaintyAwareRisk: schema.Severity(derefString(r.UncertaintyAwareRisk)),
		AlertAllowed:         r.AlertAllowed,
		RootCause:            schema.RootCause(derefString(r.RootCause)),
		SLARiskCost:          r.SLARiskCost,
		IdleCapacity:         r.IdleCapacity,
		IdleCost:             r.IdleCost,
		TotalExpectedCost:    r.TotalExpectedCost,
	}
}

// ConvertRunRecords converts schema.RunRecord to Run for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, record := range records {
		result[i] = Run{
			RunID:        record.RunID,
			RunUUID:      record.RunUUID,
			Kind:         record.Kind,
			StartTime:    record.StartTime,
			EndTime:      record.EndTime,
			DurationMs:   record.DurationMs,
			TotalRecords: record.TotalRecords,
			Settings:     record.Settings,
		}
	}
	return result
}

// ConvertRunDayRecords converts schema.RunDayRecord to RunDay for Parquet export.
func ConvertRunDayRecords(records []schema.RunDayRecord) []RunDay {
	result := make([]RunDay, len(records))
	for i, record := range records {
		result[i] = RunDay{
			RunID:                record.RunID,
			Date:                 record.Date,
			Demand:               record.Demand,
			ActiveResources:      record.ActiveResources,
			EstimatedCapacity:    record.EstimatedCapacity,
			CapacityGap:          record.CapacityGap,
			RiskSeverity:         record.RiskSeverity,
			UncertaintyAwareRisk: record.UncertaintyAwareRisk,
			AlertAllowed:         record.AlertAllowed,
			RootCause:            record.RootCause,
			TotalExpectedCost:    record.TotalExpectedCost,
		}
	}
	return result
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
