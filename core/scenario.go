package core

import (
	"math"
	"sync"

	"github.com/huangsam/capguard/schema"
)

// whatIfBufferRatio is the fixed safety margin used by the simulator.
const whatIfBufferRatio = 1.1

// RunWhatIf simulates the series under a relative demand change and an absolute
// resource change. Simulated demand is rounded half to even and simulated resources
// never drop below one.
func RunWhatIf(ds schema.Dataset, demandChange float64, resourceChange int, rate float64) []schema.SimulatedDay {
	days := make([]schema.SimulatedDay, len(ds))
	for i := range ds {
		r := &ds[i]
		demand := math.RoundToEven(r.Demand * (1 + demandChange))
		resources := max(r.ActiveResources+resourceChange, 1)
		capacity := float64(resources) * rate
		flag := 0
		if demand > capacity*whatIfBufferRatio {
			flag = 1
		}
		days[i] = schema.SimulatedDay{
			Date:               r.Date,
			Demand:             r.Demand,
			SimulatedDemand:    demand,
			ActiveResources:    r.ActiveResources,
			SimulatedResources: resources,
			SimulatedCapacity:  capacity,
			SimulatedRiskFlag:  flag,
		}
	}
	return days
}

// countFlags sums the simulated risk flags.
func countFlags(days []schema.SimulatedDay) int {
	total := 0
	for _, d := range days {
		total += d.SimulatedRiskFlag
	}
	return total
}

// CompareScenarios runs every scenario concurrently and returns one outcome per
// scenario in the order given.
func CompareScenarios(ds schema.Dataset, scenarios []schema.ScenarioParams, rate float64) []schema.ScenarioOutcome {
	outcomes := make([]schema.ScenarioOutcome, len(scenarios))
	var wg sync.WaitGroup
	for i, sc := range scenarios {
		wg.Go(func() {
			days := RunWhatIf(ds, sc.DemandChange, sc.ResourceChange, rate)
			outcomes[i] = schema.ScenarioOutcome{
				Scenario:       sc.Name,
				DemandChange:   sc.DemandChange,
				ResourceChange: sc.ResourceChange,
				CriticalDays:   countFlags(days),
				TotalDays:      len(days),
			}
		})
	}
	wg.Wait()
	return outcomes
}

// Backtest compares realized HIGH/CRITICAL days against the simulated risk days
// under a resource change with unchanged demand.
func Backtest(ds schema.Dataset, resourceChange int, rate float64) (schema.BacktestResult, error) {
	if err := requireSeverity(ds); err != nil {
		return schema.BacktestResult{}, err
	}
	actual := 0
	for i := range ds {
		if ds[i].RiskSeverity.IsElevated() {
			actual++
		}
	}
	simulated := countFlags(RunWhatIf(ds, 0, resourceChange, rate))
	return schema.BacktestResult{
		ResourceChange:    resourceChange,
		ActualRiskDays:    actual,
		SimulatedRiskDays: simulated,
		RiskDaysAvoided:   actual - simulated,
	}, nil
}

// ApplyScenario perturbs the raw inputs of a copy of the dataset. Demand and the
// forecast band scale by (1 + demand change); active resources shift by the
// resource change and never go negative. Rolling features keep their baseline values.
func ApplyScenario(ds schema.Dataset, params schema.ScenarioParams) schema.Dataset {
	factor := 1 + params.DemandChange
	scale := func(p *float64) *float64 {
		if p == nil {
			return nil
		}
		return schema.Float(*p * factor)
	}
	out := ds.Clone()
	for i := range out {
		r := &out[i]
		r.Demand *= factor
		r.ActiveResources = max(r.ActiveResources+params.ResourceChange, 0)
		r.Forecast = scale(r.Forecast)
		r.ForecastLower = scale(r.ForecastLower)
		r.ForecastUpper = scale(r.ForecastUpper)
	}
	return out
}

// presetFloors are the minimum deltas a preset enforces.
var presetFloors = map[schema.Preset]schema.ScenarioParams{
	schema.ConservativePreset: {DemandChange: 0.1, ResourceChange: 2},
	schema.AggressivePreset:   {DemandChange: 0.3, ResourceChange: 5},
}

// ResolvePreset applies a preset to user-supplied deltas. Baseline leaves them as
// given; other presets raise each delta to at least the preset floor.
func ResolvePreset(preset schema.Preset, params schema.ScenarioParams) schema.ScenarioParams {
	floor, ok := presetFloors[preset]
	if !ok {
		return params
	}
	params.DemandChange = math.Max(params.DemandChange, floor.DemandChange)
	params.ResourceChange = max(params.ResourceChange, floor.ResourceChange)
	return params
}

// PresetScenariosFrom returns one scenario per preset, each resolved against base.
func PresetScenariosFrom(base schema.ScenarioParams) []schema.ScenarioParams {
	scenarios := make([]schema.ScenarioParams, 0, len(schema.AllPresets))
	for _, p := range schema.AllPresets {
		sc := ResolvePreset(p, base)
		sc.Name = string(p)
		scenarios = append(scenarios, sc)
	}
	return scenarios
}
