package core

import (
	"math"
	"slices"

	"github.com/huangsam/capguard/schema"
)

// demandSpikeFactor is how far demand must exceed its 7-day mean to count as a spike.
const demandSpikeFactor = 1.15

// RootCauseBaseline holds the series-wide aggregates the rules compare against.
// It is computed once per dataset and only read afterwards.
type RootCauseBaseline struct {
	MeanResources float64 `json:"mean_resources"`
	BacklogP75    float64 `json:"backlog_p75"`
}

// NewRootCauseBaseline computes the aggregates over the whole dataset.
// Both are zero for an empty dataset.
func NewRootCauseBaseline(ds schema.Dataset) RootCauseBaseline {
	if len(ds) == 0 {
		return RootCauseBaseline{}
	}
	resources := 0.0
	backlog := make([]float64, len(ds))
	for i := range ds {
		resources += float64(ds[i].ActiveResources)
		backlog[i] = ds[i].Backlog
	}
	return RootCauseBaseline{
		MeanResources: resources / float64(len(ds)),
		BacklogP75:    quantile(backlog, 0.75),
	}
}

// causeRule is one entry of the attribution cascade.
type causeRule struct {
	cause schema.RootCause
	match func(r *schema.TimeSeriesRecord, b RootCauseBaseline) bool
}

// rootCauseRules are evaluated in order; the first match wins.
var rootCauseRules = []causeRule{
	{
		cause: schema.DemandSpikeCause,
		match: func(r *schema.TimeSeriesRecord, _ RootCauseBaseline) bool {
			return r.RollingMean7 != nil && r.Demand > *r.RollingMean7*demandSpikeFactor
		},
	},
	{
		cause: schema.ResourceDropCause,
		match: func(r *schema.TimeSeriesRecord, b RootCauseBaseline) bool {
			return float64(r.ActiveResources) < b.MeanResources
		},
	},
	{
		cause: schema.BacklogAccumulationCause,
		match: func(r *schema.TimeSeriesRecord, b RootCauseBaseline) bool {
			return r.Backlog > b.BacklogP75
		},
	},
}

// Attribute returns the root cause of a single record against the baseline.
func (b RootCauseBaseline) Attribute(r *schema.TimeSeriesRecord) schema.RootCause {
	for _, rule := range rootCauseRules {
		if rule.match(r, b) {
			return rule.cause
		}
	}
	return schema.MixedFactorsCause
}

// AttributeRootCause sets root_cause on a copy of the dataset.
func AttributeRootCause(ds schema.Dataset) schema.Dataset {
	baseline := NewRootCauseBaseline(ds)
	out := ds.Clone()
	for i := range out {
		out[i].RootCause = baseline.Attribute(&out[i])
	}
	return out
}

// quantile returns the q-th quantile of values with linear interpolation between
// the closest ranks. values is not modified.
func quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}
