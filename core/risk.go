package core

import (
	"math"

	"github.com/huangsam/capguard/schema"
)

// severityRule maps gaps up to and including upper onto a severity.
type severityRule struct {
	upper    float64
	severity schema.Severity
}

// SeverityTable is an ordered list of gap thresholds. The first rule whose upper
// bound is >= the gap wins; anything above every bound is CRITICAL.
type SeverityTable []severityRule

// NewSeverityTable builds the LOW / MEDIUM / HIGH / CRITICAL table.
// Gaps <= 0 are LOW, <= medium are MEDIUM, <= high are HIGH.
func NewSeverityTable(medium, high float64) SeverityTable {
	return SeverityTable{
		{upper: 0, severity: schema.LowSeverity},
		{upper: medium, severity: schema.MediumSeverity},
		{upper: high, severity: schema.HighSeverity},
		{upper: math.Inf(1), severity: schema.CriticalSeverity},
	}
}

// Classify returns the severity for a capacity gap. NaN gaps fall through to CRITICAL.
func (t SeverityTable) Classify(gap float64) schema.Severity {
	for _, rule := range t {
		if gap <= rule.upper {
			return rule.severity
		}
	}
	return schema.CriticalSeverity
}

// ClassifyRisk sets capacity_gap = demand - capacity*buffer and risk_severity on a copy of the dataset.
func ClassifyRisk(ds schema.Dataset, buffer float64, table SeverityTable) (schema.Dataset, error) {
	if err := requireColumn(ds, "estimated_capacity", estimatedCapacity); err != nil {
		return nil, err
	}
	out := ds.Clone()
	for i := range out {
		gap := out[i].Demand - *out[i].EstimatedCapacity*buffer
		out[i].CapacityGap = schema.Float(gap)
		out[i].RiskSeverity = table.Classify(gap)
	}
	return out, nil
}

// ClassifyUncertainty sets worst_case_gap = forecast_upper - capacity*buffer and
// uncertainty_aware_risk on a copy of the dataset.
func ClassifyUncertainty(ds schema.Dataset, buffer float64, table SeverityTable) (schema.Dataset, error) {
	if err := requireColumn(ds, "estimated_capacity", estimatedCapacity); err != nil {
		return nil, err
	}
	if err := requireColumn(ds, "forecast_upper", forecastUpper); err != nil {
		return nil, err
	}
	out := ds.Clone()
	for i := range out {
		gap := *out[i].ForecastUpper - *out[i].EstimatedCapacity*buffer
		out[i].WorstCaseGap = schema.Float(gap)
		out[i].UncertaintyAwareRisk = table.Classify(gap)
	}
	return out, nil
}
