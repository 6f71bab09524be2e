package core

import (
	"time"

	"github.com/huangsam/capguard/schema"
)

// day returns midnight UTC n days after 2024-01-01.
func day(n int) time.Time {
	return time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

// classified builds a chronological dataset with the given base severities.
func classified(severities ...schema.Severity) schema.Dataset {
	ds := make(schema.Dataset, len(severities))
	for i, s := range severities {
		ds[i] = schema.TimeSeriesRecord{Date: day(i), RiskSeverity: s}
	}
	return ds
}

// fullRecord returns a record carrying every input the pipeline needs.
func fullRecord(n int, demand float64, resources int, upper float64) schema.TimeSeriesRecord {
	return schema.TimeSeriesRecord{
		Date:            day(n),
		Demand:          demand,
		ActiveResources: resources,
		Backlog:         float64(n),
		RollingMean7:    schema.Float(demand),
		Forecast:        schema.Float(demand),
		ForecastLower:   schema.Float(demand - 5),
		ForecastUpper:   schema.Float(upper),
	}
}

func allowedFlags(ds schema.Dataset) []bool {
	out := make([]bool, len(ds))
	for i := range ds {
		out[i] = ds[i].AlertAllowed != nil && *ds[i].AlertAllowed
	}
	return out
}
