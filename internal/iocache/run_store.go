package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/capguard/internal/contract"
	"github.com/huangsam/capguard/schema"
)

// Table names for run tracking.
const (
	runsTable       = "capguard_runs"
	runRecordsTable = "capguard_run_records"
)

// recordDateFormat is how record dates are stored on every backend.
const recordDateFormat = schema.DateFormat

// RunStoreImpl implements the RunStore interface.
type RunStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.RunStore = &RunStoreImpl{} // Compile-time check

// NewRunStore creates a new RunStore with the specified backend.
func NewRunStore(backend schema.DatabaseBackend, connStr string) (contract.RunStore, error) {
	if backend == schema.NoneBackend {
		return &RunStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr, contract.GetRunsDBFilePath())
	if err != nil {
		return nil, err
	}

	if err := createRunTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create run tables: %w", err)
	}

	return &RunStoreImpl{db: db, backend: backend}, nil
}

// createRunTables creates the run tracking tables.
func createRunTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{runsTable, getCreateRunsQuery(backend)},
		{runRecordsTable, getCreateRunRecordsQuery(backend)},
	}
	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}

// getCreateRunsQuery returns the CREATE TABLE query for capguard_runs.
func getCreateRunsQuery(backend schema.DatabaseBackend) string {
	quoted := quoteTableName(runsTable, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				run_uuid CHAR(36) NOT NULL,
				kind VARCHAR(32) NOT NULL,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				duration_ms BIGINT,
				total_records INT,
				settings TEXT
			);
		`, quoted)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				run_uuid TEXT NOT NULL,
				kind TEXT NOT NULL,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				duration_ms BIGINT,
				total_records INT,
				settings TEXT
			);
		`, quoted)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_uuid TEXT NOT NULL,
				kind TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT,
				duration_ms INTEGER,
				total_records INTEGER,
				settings TEXT
			);
		`, quoted)
	}
}

// getCreateRunRecordsQuery returns the CREATE TABLE query for capguard_run_records.
func getCreateRunRecordsQuery(backend schema.DatabaseBackend) string {
	quoted := quoteTableName(runRecordsTable, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				record_date CHAR(10) NOT NULL,
				demand DOUBLE NOT NULL,
				active_resources INT NOT NULL,
				estimated_capacity DOUBLE NOT NULL,
				capacity_gap DOUBLE NOT NULL,
				risk_severity VARCHAR(16) NOT NULL,
				uncertainty_aware_risk VARCHAR(16) NOT NULL,
				alert_allowed BOOLEAN NOT NULL,
				root_cause VARCHAR(32) NOT NULL,
				total_expected_cost DOUBLE NOT NULL,
				PRIMARY KEY (run_id, record_date)
			);
		`, quoted)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				record_date TEXT NOT NULL,
				demand DOUBLE PRECISION NOT NULL,
				active_resources INT NOT NULL,
				estimated_capacity DOUBLE PRECISION NOT NULL,
				capacity_gap DOUBLE PRECISION NOT NULL,
				risk_severity TEXT NOT NULL,
				uncertainty_aware_risk TEXT NOT NULL,
				alert_allowed BOOLEAN NOT NULL,
				root_cause TEXT NOT NULL,
				total_expected_cost DOUBLE PRECISION NOT NULL,
				PRIMARY KEY (run_id, record_date)
			);
		`, quoted)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER NOT NULL,
				record_date TEXT NOT NULL,
				demand REAL NOT NULL,
				active_resources INTEGER NOT NULL,
				estimated_capacity REAL NOT NULL,
				capacity_gap REAL NOT NULL,
				risk_severity TEXT NOT NULL,
				uncertainty_aware_risk TEXT NOT NULL,
				alert_allowed INTEGER NOT NULL,
				root_cause TEXT NOT NULL,
				total_expected_cost REAL NOT NULL,
				PRIMARY KEY (run_id, record_date)
			);
		`, quoted)
	}
}

// BeginRun creates a new run and returns its ID. The no-op backend returns 0.
func (rs *RunStoreImpl) BeginRun(kind schema.RunKind, startTime time.Time, settings map[string]any) (int64, error) {
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return 0, nil
	}

	settingsJSON, err := json.Marshal(settings)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal run settings: %w", err)
	}

	quoted := quoteTableName(runsTable, rs.backend)
	args := []any{uuid.NewString(), string(kind), formatTime(startTime, rs.backend), string(settingsJSON)}

	var runID int64
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (run_uuid, kind, start_time, settings) VALUES ($1, $2, $3, $4) RETURNING run_id`, quoted)
		err = rs.db.QueryRow(query, args...).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (run_uuid, kind, start_time, settings) VALUES (?, ?, ?, ?)`, quoted)
		var result sql.Result
		result, err = rs.db.Exec(query, args...)
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// EndRun stamps the run with its end time, duration, and number of records produced.
func (rs *RunStoreImpl) EndRun(runID int64, endTime time.Time, totalRecords int) error {
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil
	}

	quoted := quoteTableName(runsTable, rs.backend)
	row := rs.db.QueryRow(fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, quoted, placeholder(rs.backend, 1)), runID)
	startTime, err := scanTime(row, rs.backend)
	if err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}

	durationMs := endTime.Sub(startTime).Milliseconds()
	query := fmt.Sprintf(`UPDATE %s SET end_time = %s, duration_ms = %s, total_records = %s WHERE run_id = %s`, quoted,
		placeholder(rs.backend, 1), placeholder(rs.backend, 2), placeholder(rs.backend, 3), placeholder(rs.backend, 4))
	if _, err := rs.db.Exec(query, formatTime(endTime, rs.backend), durationMs, totalRecords, runID); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// RecordRunDays stores the decision columns of every record in a single transaction.
func (rs *RunStoreImpl) RecordRunDays(runID int64, days []schema.RunDayRecord) error {
	if rs.backend == schema.NoneBackend || rs.db == nil || len(days) == 0 {
		return nil
	}

	marks := make([]string, 11)
	for i := range marks {
		marks[i] = placeholder(rs.backend, i+1)
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (run_id, record_date, demand, active_resources, estimated_capacity, capacity_gap,
		                risk_severity, uncertainty_aware_risk, alert_allowed, root_cause, total_expected_cost)
		VALUES (%s)
	`, quoteTableName(runRecordsTable, rs.backend), strings.Join(marks, ", "))

	tx, err := rs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare run record insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, d := range days {
		if _, err := stmt.Exec(
			runID, d.Date.Format(recordDateFormat), d.Demand, d.ActiveResources, d.EstimatedCapacity, d.CapacityGap,
			d.RiskSeverity, d.UncertaintyAwareRisk, d.AlertAllowed, d.RootCause, d.TotalExpectedCost,
		); err != nil {
			return fmt.Errorf("failed to insert run record for %s: %w", d.Date.Format(recordDateFormat), err)
		}
	}
	return tx.Commit()
}

// Close closes the underlying connection.
func (rs *RunStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the run store.
func (rs *RunStoreImpl) GetStatus() (schema.RunStatus, error) {
	status := schema.RunStatus{
		Backend:    string(rs.backend),
		Connected:  rs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return status, nil
	}

	quoted := quoteTableName(runsTable, rs.backend)
	if err := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoted)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		row := rs.db.QueryRow(fmt.Sprintf("SELECT run_id FROM %s ORDER BY run_id DESC LIMIT 1", quoted))
		if err := row.Scan(&status.LastRunID); err != nil {
			return status, fmt.Errorf("failed to get last run id: %w", err)
		}

		var err error
		row = rs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id DESC LIMIT 1", quoted))
		if status.LastRunTime, err = scanTime(row, rs.backend); err != nil {
			return status, fmt.Errorf("failed to get last run time: %w", err)
		}
		row = rs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", quoted))
		if status.OldestRunTime, err = scanTime(row, rs.backend); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}

		row = rs.db.QueryRow(fmt.Sprintf("SELECT COALESCE(SUM(total_records), 0) FROM %s", quoted))
		if err := row.Scan(&status.TotalRecords); err != nil {
			return status, fmt.Errorf("failed to get total records: %w", err)
		}
	}

	for _, table := range []string{runsTable, runRecordsTable} {
		var count int64
		row := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, rs.backend)))
		if err := row.Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}

	return status, nil
}

// GetAllRuns retrieves all runs ordered by ID.
func (rs *RunStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf("SELECT run_id, run_uuid, kind, start_time, end_time, duration_ms, total_records, settings FROM %s ORDER BY run_id",
		quoteTableName(runsTable, rs.backend))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var record schema.RunRecord

		switch rs.backend {
		case schema.SQLiteBackend:
			var startStr string
			var endStr *string
			if err := rows.Scan(&record.RunID, &record.RunUUID, &record.Kind, &startStr, &endStr,
				&record.DurationMs, &record.TotalRecords, &record.Settings); err != nil {
				return nil, fmt.Errorf("failed to scan run: %w", err)
			}
			if record.StartTime, err = time.Parse(time.RFC3339Nano, startStr); err != nil {
				return nil, fmt.Errorf("failed to parse start_time: %w", err)
			}
			if endStr != nil {
				endTime, err := time.Parse(time.RFC3339Nano, *endStr)
				if err != nil {
					return nil, fmt.Errorf("failed to parse end_time: %w", err)
				}
				record.EndTime = &endTime
			}
		default: // MySQL and PostgreSQL
			if err := rows.Scan(&record.RunID, &record.RunUUID, &record.Kind, &record.StartTime, &record.EndTime,
				&record.DurationMs, &record.TotalRecords, &record.Settings); err != nil {
				return nil, fmt.Errorf("failed to scan run: %w", err)
			}
		}

		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetAllRunDays retrieves all run records ordered by run and date.
func (rs *RunStoreImpl) GetAllRunDays() ([]schema.RunDayRecord, error) {
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, record_date, demand, active_resources, estimated_capacity, capacity_gap,
		risk_severity, uncertainty_aware_risk, alert_allowed, root_cause, total_expected_cost
		FROM %s ORDER BY run_id, record_date`, quoteTableName(runRecordsTable, rs.backend))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query run records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunDayRecord
	for rows.Next() {
		var (
			record  schema.RunDayRecord
			dateStr string
		)
		if err := rows.Scan(&record.RunID, &dateStr, &record.Demand, &record.ActiveResources, &record.EstimatedCapacity,
			&record.CapacityGap, &record.RiskSeverity, &record.UncertaintyAwareRisk, &record.AlertAllowed,
			&record.RootCause, &record.TotalExpectedCost); err != nil {
			return nil, fmt.Errorf("failed to scan run record: %w", err)
		}
		if record.Date, err = time.Parse(recordDateFormat, dateStr); err != nil {
			return nil, fmt.Errorf("failed to parse record_date: %w", err)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run records: %w", err)
	}
	return results, nil
}

// formatTime converts a time.Time to the appropriate format for the backend.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	if backend == schema.SQLiteBackend {
		return t.Format(time.RFC3339Nano)
	}
	return t
}

// scanTime reads a single time column written by formatTime.
func scanTime(row *sql.Row, backend schema.DatabaseBackend) (time.Time, error) {
	if backend != schema.SQLiteBackend {
		var t time.Time
		err := row.Scan(&t)
		return t, err
	}
	var s string
	if err := row.Scan(&s); err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, s)
}
