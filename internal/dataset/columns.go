package dataset

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/capguard/schema"
)

// column describes how one CSV column maps onto a record.
// encode returns false when the value is absent on the record.
type column struct {
	name     string
	required bool
	decode   func(r *schema.TimeSeriesRecord, s string) error
	encode   func(r *schema.TimeSeriesRecord) (string, bool)
}

var (
	errUnknownValue = errors.New("unknown value")
	errNotFinite    = errors.New("not a finite number")
	errNegative     = errors.New("must not be negative")
)

// dateLayouts are tried in order when parsing the date column.
var dateLayouts = []string{schema.DateFormat, "2006-01-02 15:04:05", time.RFC3339}

// columns lists every known column in output order.
var columns = []column{
	{
		name:     "date",
		required: true,
		decode: func(r *schema.TimeSeriesRecord, s string) error {
			t, err := parseDate(s)
			r.Date = t
			return err
		},
		encode: func(r *schema.TimeSeriesRecord) (string, bool) { return r.Date.Format(schema.DateFormat), true },
	},
	valueFloat("demand", true, true, func(r *schema.TimeSeriesRecord) *float64 { return &r.Demand }),
	{
		name:     "active_resources",
		required: true,
		decode: func(r *schema.TimeSeriesRecord, s string) error {
			v, err := parseInt(s)
			if err != nil {
				return err
			}
			if v < 0 {
				return errNegative
			}
			r.ActiveResources = v
			return nil
		},
		encode: func(r *schema.TimeSeriesRecord) (string, bool) { return strconv.Itoa(r.ActiveResources), true },
	},
	valueFloat("backlog", false, true, func(r *schema.TimeSeriesRecord) *float64 { return &r.Backlog }),
	valueFloat("avg_resolution_time", false, true, func(r *schema.TimeSeriesRecord) *float64 { return &r.AvgResolutionTime }),
	{
		name: "day_of_week",
		decode: func(r *schema.TimeSeriesRecord, s string) error {
			v, err := parseInt(s)
			r.DayOfWeek = v
			return err
		},
		encode: func(r *schema.TimeSeriesRecord) (string, bool) { return strconv.Itoa(r.DayOfWeek), true },
	},
	{
		name: "is_weekend",
		decode: func(r *schema.TimeSeriesRecord, s string) error {
			v, err := strconv.ParseBool(s)
			r.IsWeekend = v
			return err
		},
		encode: func(r *schema.TimeSeriesRecord) (string, bool) { return strconv.FormatBool(r.IsWeekend), true },
	},
	valueFloat("demand_growth_rate", false, false, func(r *schema.TimeSeriesRecord) *float64 { return &r.DemandGrowthRate }),

	optFloat("demand_lag_1", func(r *schema.TimeSeriesRecord) **float64 { return &r.DemandLag1 }),
	optFloat("demand_lag_7", func(r *schema.TimeSeriesRecord) **float64 { return &r.DemandLag7 }),
	optFloat("demand_lag_14", func(r *schema.TimeSeriesRecord) **float64 { return &r.DemandLag14 }),
	optFloat("rolling_mean_7", func(r *schema.TimeSeriesRecord) **float64 { return &r.RollingMean7 }),
	optFloat("rolling_mean_14", func(r *schema.TimeSeriesRecord) **float64 { return &r.RollingMean14 }),
	optFloat("rolling_std_7", func(r *schema.TimeSeriesRecord) **float64 { return &r.RollingStd7 }),

	optFloat("forecast", func(r *schema.TimeSeriesRecord) **float64 { return &r.Forecast }),
	optFloat("forecast_lower", func(r *schema.TimeSeriesRecord) **float64 { return &r.ForecastLower }),
	optFloat("forecast_upper", func(r *schema.TimeSeriesRecord) **float64 { return &r.ForecastUpper }),

	optFloat("estimated_capacity", func(r *schema.TimeSeriesRecord) **float64 { return &r.EstimatedCapacity }),
	optFloat("capacity_gap", func(r *schema.TimeSeriesRecord) **float64 { return &r.CapacityGap }),
	severityCol("risk_severity", func(r *schema.TimeSeriesRecord) *schema.Severity { return &r.RiskSeverity }),
	optFloat("worst_case_gap", func(r *schema.TimeSeriesRecord) **float64 { return &r.WorstCaseGap }),
	severityCol("uncertainty_aware_risk", func(r *schema.TimeSeriesRecord) *schema.Severity { return &r.UncertaintyAwareRisk }),
	{
		name: "alert_allowed",
		decode: func(r *schema.TimeSeriesRecord, s string) error {
			v, err := strconv.ParseBool(s)
			r.AlertAllowed = schema.Bool(v)
			return err
		},
		encode: func(r *schema.TimeSeriesRecord) (string, bool) {
			if r.AlertAllowed == nil {
				return "", false
			}
			return strconv.FormatBool(*r.AlertAllowed), true
		},
	},
	{
		name: "root_cause",
		decode: func(r *schema.TimeSeriesRecord, s string) error {
			cause := schema.RootCause(s)
			if !slices.Contains(schema.AllRootCauses, cause) {
				return errUnknownValue
			}
			r.RootCause = cause
			return nil
		},
		encode: func(r *schema.TimeSeriesRecord) (string, bool) { return string(r.RootCause), r.RootCause != "" },
	},
	optFloat("sla_risk_cost", func(r *schema.TimeSeriesRecord) **float64 { return &r.SLARiskCost }),
	optFloat("idle_capacity", func(r *schema.TimeSeriesRecord) **float64 { return &r.IdleCapacity }),
	optFloat("idle_cost", func(r *schema.TimeSeriesRecord) **float64 { return &r.IdleCost }),
	optFloat("total_expected_cost", func(r *schema.TimeSeriesRecord) **float64 { return &r.TotalExpectedCost }),
}

func valueFloat(name string, required, nonNegative bool, field func(*schema.TimeSeriesRecord) *float64) column {
	return column{
		name:     name,
		required: required,
		decode: func(r *schema.TimeSeriesRecord, s string) error {
			v, err := parseFinite(s)
			if err != nil {
				return err
			}
			if nonNegative && v < 0 {
				return errNegative
			}
			*field(r) = v
			return nil
		},
		encode: func(r *schema.TimeSeriesRecord) (string, bool) { return formatFloat(*field(r)), true },
	}
}

func optFloat(name string, field func(*schema.TimeSeriesRecord) **float64) column {
	return column{
		name: name,
		decode: func(r *schema.TimeSeriesRecord, s string) error {
			v, err := parseFinite(s)
			if err != nil {
				return err
			}
			*field(r) = schema.Float(v)
			return nil
		},
		encode: func(r *schema.TimeSeriesRecord) (string, bool) {
			p := *field(r)
			if p == nil {
				return "", false
			}
			return formatFloat(*p), true
		},
	}
}

func severityCol(name string, field func(*schema.TimeSeriesRecord) *schema.Severity) column {
	return column{
		name: name,
		decode: func(r *schema.TimeSeriesRecord, s string) error {
			sev := schema.Severity(strings.ToUpper(s))
			if _, ok := schema.ValidSeverities[sev]; !ok {
				return errUnknownValue
			}
			*field(r) = sev
			return nil
		},
		encode: func(r *schema.TimeSeriesRecord) (string, bool) {
			sev := *field(r)
			return string(sev), sev != ""
		},
	}
}

// parseDate accepts plain dates and timestamps, keeping only the calendar day.
func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("expected YYYY-MM-DD")
}

// parseFinite rejects NaN and the infinities, which strconv accepts.
func parseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errNotFinite
	}
	return v, nil
}

// checkRecord applies the value rules of the CSV decoder to a record read from Parquet.
func checkRecord(r *schema.TimeSeriesRecord) (string, error) {
	nonNegative := []struct {
		name  string
		value float64
	}{
		{"demand", r.Demand},
		{"backlog", r.Backlog},
		{"avg_resolution_time", r.AvgResolutionTime},
	}
	for _, c := range nonNegative {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return c.name, errNotFinite
		}
		if c.value < 0 {
			return c.name, errNegative
		}
	}
	if r.ActiveResources < 0 {
		return "active_resources", errNegative
	}
	return "", nil
}

// parseInt accepts integral floats such as "20.0", which pandas writes for int columns with gaps.
func parseInt(s string) (int, error) {
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("not an integer")
	}
	return int(f), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
