package core

import (
	"math"
	"sync"

	"github.com/huangsam/capguard/schema"
)

// severityWeights is the share of the SLA penalty expected at each severity.
var severityWeights = map[schema.Severity]float64{
	schema.LowSeverity:      0.0,
	schema.MediumSeverity:   0.3,
	schema.HighSeverity:     0.7,
	schema.CriticalSeverity: 1.0,
}

// SeverityWeight returns the SLA penalty weight of a severity, 0 when unknown.
func SeverityWeight(s schema.Severity) float64 {
	return severityWeights[s]
}

// ComputeCost sets sla_risk_cost, idle_capacity, idle_cost and total_expected_cost
// on a copy of the dataset.
func ComputeCost(ds schema.Dataset, slaPenalty, idleCost float64) (schema.Dataset, error) {
	if err := requireColumn(ds, "estimated_capacity", estimatedCapacity); err != nil {
		return nil, err
	}
	if err := requireSeverity(ds); err != nil {
		return nil, err
	}
	out := ds.Clone()
	for i := range out {
		r := &out[i]
		sla := SeverityWeight(r.RiskSeverity) * slaPenalty
		idle := math.Max(*r.EstimatedCapacity-r.Demand, 0)
		idleTotal := idle * idleCost
		r.SLARiskCost = schema.Float(sla)
		r.IdleCapacity = schema.Float(idle)
		r.IdleCost = schema.Float(idleTotal)
		r.TotalExpectedCost = schema.Float(sla + idleTotal)
	}
	return out, nil
}

// OptimizeBuffer evaluates every candidate buffer ratio and returns the cheapest one.
//
// For a candidate b, SLA cost is slaPenalty per day where forecast_upper exceeds
// capacity*b, and idle cost is the sum of max(capacity - forecast, 0) * idleCost.
// Candidates are evaluated concurrently; ties resolve to the earliest candidate.
func OptimizeBuffer(ds schema.Dataset, candidates []float64, slaPenalty, idleCost float64) (schema.BufferOptimization, error) {
	if len(candidates) == 0 {
		return schema.BufferOptimization{}, ErrNoCandidates
	}
	if err := requireColumn(ds, "estimated_capacity", estimatedCapacity); err != nil {
		return schema.BufferOptimization{}, err
	}
	if err := requireColumn(ds, "forecast_upper", forecastUpper); err != nil {
		return schema.BufferOptimization{}, err
	}
	if err := requireColumn(ds, "forecast", forecastPoint); err != nil {
		return schema.BufferOptimization{}, err
	}

	evaluations := make([]schema.BufferEvaluation, len(candidates))
	var wg sync.WaitGroup
	for i, b := range candidates {
		// each goroutine owns evaluations[i]
		wg.Go(func() {
			evaluations[i] = evaluateBuffer(ds, b, slaPenalty, idleCost)
		})
	}
	wg.Wait()

	best := evaluations[0]
	for _, e := range evaluations[1:] {
		if e.TotalCost < best.TotalCost {
			best = e
		}
	}
	return schema.BufferOptimization{Best: best, Evaluations: evaluations}, nil
}

// evaluateBuffer computes the cost of a single buffer candidate.
func evaluateBuffer(ds schema.Dataset, buffer, slaPenalty, idleCost float64) schema.BufferEvaluation {
	atRisk := 0
	idle := 0.0
	for i := range ds {
		capacity := *ds[i].EstimatedCapacity
		if *ds[i].ForecastUpper-capacity*buffer > 0 {
			atRisk++
		}
		idle += math.Max(capacity-*ds[i].Forecast, 0)
	}
	sla := float64(atRisk) * slaPenalty
	idleTotal := idle * idleCost
	return schema.BufferEvaluation{
		Buffer:     buffer,
		AtRiskDays: atRisk,
		SLACost:    sla,
		IdleCost:   idleTotal,
		TotalCost:  sla + idleTotal,
	}
}
