package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/capguard/schema"
)

var (
	// ErrNotChronological is returned when a fold over the series sees a date that is not after the previous one.
	ErrNotChronological = errors.New("records are not in strictly ascending date order")

	// ErrEmptyDataset is returned by commands that need at least one record.
	ErrEmptyDataset = errors.New("dataset has no records")

	// ErrNoCandidates is returned when the buffer optimizer gets nothing to evaluate.
	ErrNoCandidates = errors.New("no buffer candidates to evaluate")
)

// MissingInputError reports a required column that is absent on a record.
type MissingInputError struct {
	Column string
	Date   time.Time
}

func (e *MissingInputError) Error() string {
	if e.Date.IsZero() {
		return fmt.Sprintf("missing required column %q", e.Column)
	}
	return fmt.Sprintf("missing required column %q on %s", e.Column, e.Date.Format(schema.DateFormat))
}

// requireColumn returns a MissingInputError for the first record lacking the column.
func requireColumn(ds schema.Dataset, column string, get func(*schema.TimeSeriesRecord) *float64) error {
	for i := range ds {
		if get(&ds[i]) == nil {
			return &MissingInputError{Column: column, Date: ds[i].Date}
		}
	}
	return nil
}

func requireSeverity(ds schema.Dataset) error {
	for i := range ds {
		if _, ok := schema.ValidSeverities[ds[i].RiskSeverity]; !ok {
			return &MissingInputError{Column: "risk_severity", Date: ds[i].Date}
		}
	}
	return nil
}

func estimatedCapacity(r *schema.TimeSeriesRecord) *float64 { return r.EstimatedCapacity }
func forecastUpper(r *schema.TimeSeriesRecord) *float64     { return r.ForecastUpper }
func forecastPoint(r *schema.TimeSeriesRecord) *float64     { return r.Forecast }
