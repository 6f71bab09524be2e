// Package schema holds the data types shared by the decision pipeline, its stores and its writers.
package schema

import (
	"slices"
	"time"
)

// DateFormat is the calendar date layout used by datasets and writers.
const DateFormat = "2006-01-02"

// TimeSeriesRecord is one day of the operational time series.
//
// Observed columns are plain values. Optional inputs and stage outputs that may be
// absent are pointers, so a missing column is distinguishable from zero. Stages never
// mutate a pointee; they assign fresh pointers on their own copy of the record.
type TimeSeriesRecord struct {
	Date              time.Time `json:"date"`
	Demand            float64   `json:"demand"`
	ActiveResources   int       `json:"active_resources"`
	Backlog           float64   `json:"backlog"`
	AvgResolutionTime float64   `json:"avg_resolution_time"`
	DayOfWeek         int       `json:"day_of_week"`
	IsWeekend         bool      `json:"is_weekend"`
	DemandGrowthRate  float64   `json:"demand_growth_rate"`

	// Feature columns
	DemandLag1    *float64 `json:"demand_lag_1,omitempty"`
	DemandLag7    *float64 `json:"demand_lag_7,omitempty"`
	DemandLag14   *float64 `json:"demand_lag_14,omitempty"`
	RollingMean7  *float64 `json:"rolling_mean_7,omitempty"`
	RollingMean14 *float64 `json:"rolling_mean_14,omitempty"`
	RollingStd7   *float64 `json:"rolling_std_7,omitempty"`

	// Forecast columns
	Forecast      *float64 `json:"forecast,omitempty"`
	ForecastLower *float64 `json:"forecast_lower,omitempty"`
	ForecastUpper *float64 `json:"forecast_upper,omitempty"`

	// Decision columns
	EstimatedCapacity    *float64  `json:"estimated_capacity,omitempty"`
	CapacityGap          *float64  `json:"capacity_gap,omitempty"`
	RiskSeverity         Severity  `json:"risk_severity,omitempty"`
	WorstCaseGap         *float64  `json:"worst_case_gap,omitempty"`
	UncertaintyAwareRisk Severity  `json:"uncertainty_aware_risk,omitempty"`
	AlertAllowed         *bool     `json:"alert_allowed,omitempty"`
	RootCause            RootCause `json:"root_cause,omitempty"`
	SLARiskCost          *float64  `json:"sla_risk_cost,omitempty"`
	IdleCapacity         *float64  `json:"idle_capacity,omitempty"`
	IdleCost             *float64  `json:"idle_cost,omitempty"`
	TotalExpectedCost    *float64  `json:"total_expected_cost,omitempty"`
}

// Dataset is an ordered set of records. Pipeline stages treat it as immutable and
// always return a new Dataset.
type Dataset []TimeSeriesRecord

// Clone returns a shallow copy of the dataset. Records are copied by value.
func (d Dataset) Clone() Dataset {
	if d == nil {
		return nil
	}
	return slices.Clone(d)
}

// Sorted returns a copy of the dataset ordered by ascending date.
func (d Dataset) Sorted() Dataset {
	out := d.Clone()
	slices.SortStableFunc(out, func(a, b TimeSeriesRecord) int {
		return a.Date.Compare(b.Date)
	})
	return out
}

// IsChronological reports whether dates are strictly ascending.
func (d Dataset) IsChronological() bool {
	for i := 1; i < len(d); i++ {
		if !d[i].Date.After(d[i-1].Date) {
			return false
		}
	}
	return true
}

// HasColumn reports whether every record carries the optional column selected by get.
func (d Dataset) HasColumn(get func(*TimeSeriesRecord) *float64) bool {
	for i := range d {
		if get(&d[i]) == nil {
			return false
		}
	}
	return len(d) > 0
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// Bool returns a pointer to v.
func Bool(v bool) *bool {
	return &v
}

// Deref returns the value behind p, or 0 when p is nil.
func Deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
