package schema

import "time"

// CacheStatus represents the status of the result cache store.
type CacheStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// RunStatus represents the status of the run store.
type RunStatus struct {
	Backend       string           `json:"backend"`
	Connected     bool             `json:"connected"`
	TotalRuns     int              `json:"total_runs"`
	LastRunID     int64            `json:"last_run_id"`
	LastRunTime   time.Time        `json:"last_run_time"`
	OldestRunTime time.Time        `json:"oldest_run_time"`
	TotalRecords  int              `json:"total_records"`
	TableSizes    map[string]int64 `json:"table_sizes"`
}

// RunRecord represents a row from the capguard_runs table.
type RunRecord struct {
	RunID        int64
	RunUUID      string
	Kind         string
	StartTime    time.Time
	EndTime      *time.Time
	DurationMs   *int64
	TotalRecords *int64
	Settings     *string
}

// RunDayRecord represents a row from the capguard_run_records table.
type RunDayRecord struct {
	RunID                int64
	Date                 time.Time
	Demand               float64
	ActiveResources      int64
	EstimatedCapacity    float64
	CapacityGap          float64
	RiskSeverity         string
	UncertaintyAwareRisk string
	AlertAllowed         bool
	RootCause            string
	TotalExpectedCost    float64
}
