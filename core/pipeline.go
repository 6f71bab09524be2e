package core

import (
	"fmt"

	"github.com/huangsam/capguard/schema"
)

// stage is one step of the decision pipeline.
type stage struct {
	name  string
	apply func(schema.Dataset) (schema.Dataset, error)
}

// pipelineStages returns the six stages in execution order for the given settings.
func pipelineStages(s schema.PipelineSettings) []stage {
	table := NewSeverityTable(s.MediumThreshold, s.HighThreshold)
	return []stage{
		{"capacity", func(ds schema.Dataset) (schema.Dataset, error) {
			return EstimateCapacity(ds, s.TicketsPerResource), nil
		}},
		{"risk", func(ds schema.Dataset) (schema.Dataset, error) {
			return ClassifyRisk(ds, s.BufferRatio, table)
		}},
		{"uncertainty", func(ds schema.Dataset) (schema.Dataset, error) {
			return ClassifyUncertainty(ds, s.BufferRatio, table)
		}},
		{"alerts", func(ds schema.Dataset) (schema.Dataset, error) {
			return SuppressAlerts(ds, s.CooldownDays)
		}},
		{"root cause", func(ds schema.Dataset) (schema.Dataset, error) {
			return AttributeRootCause(ds), nil
		}},
		{"cost", func(ds schema.Dataset) (schema.Dataset, error) {
			return ComputeCost(ds, s.SLAPenaltyCost, s.IdleResourceCost)
		}},
	}
}

// RunPipeline runs capacity, risk, uncertainty, alert, root cause and cost stages
// in order and returns the augmented dataset. The input is never modified.
func RunPipeline(ds schema.Dataset, s schema.PipelineSettings) (schema.Dataset, error) {
	out := ds
	for _, st := range pipelineStages(s) {
		next, err := st.apply(out)
		if err != nil {
			return nil, fmt.Errorf("%s stage: %w", st.name, err)
		}
		out = next
	}
	if out == nil {
		return schema.Dataset{}, nil
	}
	return out, nil
}

// RunScenarioPipeline perturbs the dataset with params and re-runs the full pipeline.
func RunScenarioPipeline(ds schema.Dataset, params schema.ScenarioParams, s schema.PipelineSettings) (schema.Dataset, error) {
	return RunPipeline(ApplyScenario(ds, params), s)
}
