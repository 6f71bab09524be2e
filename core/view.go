package core

import (
	"slices"
	"time"

	"github.com/huangsam/capguard/schema"
)

// DefaultViewSeverities is the severity filter applied when none is given.
var DefaultViewSeverities = []schema.Severity{schema.HighSeverity, schema.CriticalSeverity}

// FilterView returns the records dated within [from, to] whose risk severity is
// in severities. A zero from or to leaves that side open; an empty severity list
// keeps every severity.
func FilterView(ds schema.Dataset, from, to time.Time, severities []schema.Severity) schema.Dataset {
	out := make(schema.Dataset, 0, len(ds))
	for _, r := range ds {
		if !from.IsZero() && r.Date.Before(from) {
			continue
		}
		if !to.IsZero() && r.Date.After(to) {
			continue
		}
		if len(severities) > 0 && !slices.Contains(severities, r.RiskSeverity) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Summarize computes headline KPIs. Averages of an empty set are zero, and so is
// utilization when the set carries no capacity.
func Summarize(ds schema.Dataset) schema.Summary {
	summary := schema.Summary{
		Records:         len(ds),
		CostBySeverity:  make(map[schema.Severity]float64, len(schema.AllSeverities)),
		DaysBySeverity:  make(map[schema.Severity]int, len(schema.AllSeverities)),
		DaysByRootCause: make(map[schema.RootCause]int, len(schema.AllRootCauses)),
	}
	for _, s := range schema.AllSeverities {
		summary.CostBySeverity[s] = 0
		summary.DaysBySeverity[s] = 0
	}
	for _, c := range schema.AllRootCauses {
		summary.DaysByRootCause[c] = 0
	}
	if len(ds) == 0 {
		return summary
	}

	summary.From = ds[0].Date
	summary.To = ds[0].Date
	demand := 0.0
	capacity := 0.0
	for i := range ds {
		r := &ds[i]
		demand += r.Demand
		capacity += schema.Deref(r.EstimatedCapacity)
		if r.Date.Before(summary.From) {
			summary.From = r.Date
		}
		if r.Date.After(summary.To) {
			summary.To = r.Date
		}
		if r.RiskSeverity == schema.CriticalSeverity {
			summary.CriticalDays++
		}
		if r.RiskSeverity.IsElevated() {
			summary.RiskDays++
			if r.AlertAllowed != nil {
				if *r.AlertAllowed {
					summary.AlertsFired++
				} else {
					summary.AlertsSuppressed++
				}
			}
		}
		if _, ok := schema.ValidSeverities[r.RiskSeverity]; ok {
			summary.DaysBySeverity[r.RiskSeverity]++
			summary.CostBySeverity[r.RiskSeverity] += schema.Deref(r.TotalExpectedCost)
		}
		if r.RootCause != "" {
			summary.DaysByRootCause[r.RootCause]++
		}
		summary.TotalExpectedCost += schema.Deref(r.TotalExpectedCost)
	}
	summary.AvgDemand = demand / float64(len(ds))
	summary.AvgDailyCost = summary.TotalExpectedCost / float64(len(ds))
	if capacity > 0 {
		summary.CapacityUtilization = demand / capacity
	}
	return summary
}
