package iocache

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/huangsam/capguard/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRunDays(start time.Time) []schema.RunDayRecord {
	return []schema.RunDayRecord{
		{
			Date: start, Demand: 120, ActiveResources: 20, EstimatedCapacity: 108, CapacityGap: 12,
			RiskSeverity: "HIGH", UncertaintyAwareRisk: "CRITICAL", AlertAllowed: true,
			RootCause: "Demand Spike", TotalExpectedCost: 1200,
		},
		{
			Date: start.AddDate(0, 0, 1), Demand: 90, ActiveResources: 20, EstimatedCapacity: 108, CapacityGap: -18,
			RiskSeverity: "LOW", UncertaintyAwareRisk: "LOW", AlertAllowed: false,
			RootCause: "Mixed Factors", TotalExpectedCost: 900,
		},
	}
}

func TestRunStoreNoneBackend(t *testing.T) {
	store, err := NewRunStore(schema.NoneBackend, "")
	require.NoError(t, err)

	runID, err := store.BeginRun(schema.PipelineRun, time.Now(), map[string]any{"k": "v"})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), runID)

	assert.NoError(t, store.RecordRunDays(1, sampleRunDays(time.Now())))
	assert.NoError(t, store.EndRun(1, time.Now(), 2))

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NotNil(t, status.TableSizes)

	runs, err := store.GetAllRuns()
	assert.NoError(t, err)
	assert.Nil(t, runs)

	days, err := store.GetAllRunDays()
	assert.NoError(t, err)
	assert.Nil(t, days)

	assert.NoError(t, store.Close())
}

func TestRunStoreUnsupportedBackend(t *testing.T) {
	_, err := NewRunStore("oracle", "")
	assert.Error(t, err)
}

func TestRunStoreSQLite(t *testing.T) {
	store, err := NewRunStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	start := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	settings := map[string]any{"buffer_ratio": 1.1, "preset": "baseline"}

	runID, err := store.BeginRun(schema.PipelineRun, start, settings)
	require.NoError(t, err)
	assert.Greater(t, runID, int64(0))

	day := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.RecordRunDays(runID, sampleRunDays(day)))
	require.NoError(t, store.RecordRunDays(runID, nil), "empty batch is a no-op")
	require.NoError(t, store.EndRun(runID, start.Add(1500*time.Millisecond), 2))

	secondID, err := store.BeginRun(schema.BacktestRun, start.Add(time.Hour), nil)
	require.NoError(t, err)
	assert.Greater(t, secondID, runID)

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)

	first := runs[0]
	assert.Equal(t, runID, first.RunID)
	assert.Len(t, first.RunUUID, 36)
	assert.Equal(t, "pipeline", first.Kind)
	assert.True(t, first.StartTime.Equal(start))
	require.NotNil(t, first.EndTime)
	require.NotNil(t, first.DurationMs)
	assert.Equal(t, int64(1500), *first.DurationMs)
	require.NotNil(t, first.TotalRecords)
	assert.Equal(t, int64(2), *first.TotalRecords)
	require.NotNil(t, first.Settings)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(*first.Settings), &decoded))
	assert.Equal(t, "baseline", decoded["preset"])

	assert.Equal(t, "backtest", runs[1].Kind)
	assert.Nil(t, runs[1].EndTime, "unfinished run has no end time")
	assert.NotEqual(t, first.RunUUID, runs[1].RunUUID)

	days, err := store.GetAllRunDays()
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, day, days[0].Date)
	assert.Equal(t, "CRITICAL", days[0].UncertaintyAwareRisk)
	assert.True(t, days[0].AlertAllowed)
	assert.False(t, days[1].AlertAllowed)
	assert.Equal(t, -18.0, days[1].CapacityGap)
	assert.Equal(t, int64(20), days[1].ActiveResources)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, 2, status.TotalRuns)
	assert.Equal(t, secondID, status.LastRunID)
	assert.True(t, status.LastRunTime.Equal(start.Add(time.Hour)))
	assert.True(t, status.OldestRunTime.Equal(start))
	assert.Equal(t, 2, status.TotalRecords)
	assert.Equal(t, int64(2), status.TableSizes[runsTable])
	assert.Equal(t, int64(2), status.TableSizes[runRecordsTable])
}

func TestRunStoreRejectsDuplicateDays(t *testing.T) {
	store, err := NewRunStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	runID, err := store.BeginRun(schema.PipelineRun, time.Now(), nil)
	require.NoError(t, err)

	day := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	days := sampleRunDays(day)
	days[1].Date = day

	assert.Error(t, store.RecordRunDays(runID, days))

	stored, err := store.GetAllRunDays()
	require.NoError(t, err)
	assert.Empty(t, stored, "failed batch is rolled back")
}

func TestEndRunUnknownID(t *testing.T) {
	store, err := NewRunStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	assert.Error(t, store.EndRun(99, time.Now(), 1))
}

func TestFormatTime(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 6, time.UTC)
	assert.Equal(t, "2024-01-02T03:04:05.000000006Z", formatTime(ts, schema.SQLiteBackend))
	assert.Equal(t, ts, formatTime(ts, schema.PostgreSQLBackend))
}
