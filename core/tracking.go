package core

import (
	"time"

	"github.com/huangsam/capguard/internal/contract"
	"github.com/huangsam/capguard/schema"
)

// runTracker records one command invocation in the run store. A tracker without a
// store is inert, so callers never need to check whether tracking is configured.
type runTracker struct {
	store contract.RunStore
	id    int64
}

// beginRun opens a tracked run. Failures are logged and leave the tracker inert.
func beginRun(mgr contract.CacheManager, kind schema.RunKind, cfg *contract.Config) *runTracker {
	tracker := &runTracker{}
	if mgr == nil {
		return tracker
	}
	store := mgr.GetRunStore()
	if store == nil {
		return tracker
	}

	id, err := store.BeginRun(kind, time.Now(), cfg.SettingsMap())
	if err != nil {
		contract.LogWarn("Run tracking initialization failed", err)
		return tracker
	}
	if id > 0 {
		tracker.store, tracker.id = store, id
	}
	return tracker
}

// recordDays stores the decision columns of the produced records.
func (t *runTracker) recordDays(ds schema.Dataset) {
	if t.store == nil || len(ds) == 0 {
		return
	}
	if err := t.store.RecordRunDays(t.id, toRunDays(t.id, ds)); err != nil {
		contract.LogWarn("Run record tracking failed", err)
	}
}

// end finalizes the run with the number of records it produced.
func (t *runTracker) end(totalRecords int) {
	if t.store == nil {
		return
	}
	if err := t.store.EndRun(t.id, time.Now(), totalRecords); err != nil {
		contract.LogWarn("Failed to finalize run tracking", err)
	}
}

// toRunDays projects records onto the run store layout.
func toRunDays(runID int64, ds schema.Dataset) []schema.RunDayRecord {
	days := make([]schema.RunDayRecord, len(ds))
	for i := range ds {
		r := &ds[i]
		days[i] = schema.RunDayRecord{
			RunID:                runID,
			Date:                 r.Date,
			Demand:               r.Demand,
			ActiveResources:      int64(r.ActiveResources),
			EstimatedCapacity:    schema.Deref(r.EstimatedCapacity),
			CapacityGap:          schema.Deref(r.CapacityGap),
			RiskSeverity:         string(r.RiskSeverity),
			UncertaintyAwareRisk: string(r.UncertaintyAwareRisk),
			AlertAllowed:         r.AlertAllowed != nil && *r.AlertAllowed,
			RootCause:            string(r.RootCause),
			TotalExpectedCost:    schema.Deref(r.TotalExpectedCost),
		}
	}
	return days
}
