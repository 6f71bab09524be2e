package schema

import "time"

// ScenarioParams is a named what-if perturbation.
type ScenarioParams struct {
	Name           string  `json:"name" yaml:"name"`
	DemandChange   float64 `json:"demand_change" yaml:"demand_change"`
	ResourceChange int     `json:"resource_change" yaml:"resource_change"`
}

// ScenarioFile is the on-disk layout of a scenario set.
type ScenarioFile struct {
	Scenarios []ScenarioParams `yaml:"scenarios"`
}

// SimulatedDay is one day of a what-if simulation.
type SimulatedDay struct {
	Date               time.Time `json:"date"`
	Demand             float64   `json:"demand"`
	SimulatedDemand    float64   `json:"simulated_demand"`
	ActiveResources    int       `json:"active_resources"`
	SimulatedResources int       `json:"simulated_resources"`
	SimulatedCapacity  float64   `json:"simulated_capacity"`
	SimulatedRiskFlag  int       `json:"simulated_risk_flag"`
}

// ScenarioOutcome summarizes one scenario of a comparison.
type ScenarioOutcome struct {
	Scenario       string  `json:"scenario"`
	DemandChange   float64 `json:"demand_change"`
	ResourceChange int     `json:"resource_change"`
	CriticalDays   int     `json:"critical_days"`
	TotalDays      int     `json:"total_days"`
}

// BacktestResult compares realized risk days against a simulated resource change.
type BacktestResult struct {
	ResourceChange    int `json:"resource_change"`
	ActualRiskDays    int `json:"actual_risk_days"`
	SimulatedRiskDays int `json:"simulated_risk_days"`
	RiskDaysAvoided   int `json:"risk_days_avoided"`
}

// BufferEvaluation is the cost of a single buffer candidate.
type BufferEvaluation struct {
	Buffer     float64 `json:"buffer"`
	AtRiskDays int     `json:"at_risk_days"`
	SLACost    float64 `json:"sla_cost"`
	IdleCost   float64 `json:"idle_cost"`
	TotalCost  float64 `json:"total_cost"`
}

// BufferOptimization is the optimizer's choice plus every evaluated candidate.
type BufferOptimization struct {
	Best        BufferEvaluation   `json:"best"`
	Evaluations []BufferEvaluation `json:"evaluations"`
}

// Summary holds headline KPIs over a record set. Every field is zero for an empty set.
type Summary struct {
	Records             int                  `json:"records"`
	From                time.Time            `json:"from"`
	To                  time.Time            `json:"to"`
	AvgDemand           float64              `json:"avg_demand"`
	CriticalDays        int                  `json:"critical_days"`
	RiskDays            int                  `json:"risk_days"`
	AlertsFired         int                  `json:"alerts_fired"`
	AlertsSuppressed    int                  `json:"alerts_suppressed"`
	TotalExpectedCost   float64              `json:"total_expected_cost"`
	AvgDailyCost        float64              `json:"avg_daily_cost"`
	CapacityUtilization float64              `json:"capacity_utilization"`
	CostBySeverity      map[Severity]float64 `json:"cost_by_severity"`
	DaysBySeverity      map[Severity]int     `json:"days_by_severity"`
	DaysByRootCause     map[RootCause]int    `json:"days_by_root_cause"`
}
