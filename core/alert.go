package core

import (
	"math"
	"time"

	"github.com/huangsam/capguard/schema"
)

// AlertCursor carries the last allowed elevated alert across the fold.
// The zero value is the empty cursor.
type AlertCursor struct {
	LastAlertDate time.Time
	LastSeverity  schema.Severity
}

// IsEmpty reports whether no elevated alert has been allowed yet.
func (c AlertCursor) IsEmpty() bool {
	return c.LastSeverity == ""
}

// StepAlert folds one day into the cursor and reports whether its alert is allowed.
//
// Non-elevated days are always allowed and leave the cursor alone. An elevated day
// repeating the last alerted severity within cooldownDays is suppressed. Every other
// elevated day is allowed and moves the cursor.
func StepAlert(cursor AlertCursor, date time.Time, severity schema.Severity, cooldownDays int) (AlertCursor, bool) {
	if !severity.IsElevated() {
		return cursor, true
	}
	if cursor.IsEmpty() {
		return AlertCursor{LastAlertDate: date, LastSeverity: severity}, true
	}
	if daysBetween(cursor.LastAlertDate, date) <= cooldownDays && severity == cursor.LastSeverity {
		return cursor, false
	}
	return AlertCursor{LastAlertDate: date, LastSeverity: severity}, true
}

// SuppressAlerts sets alert_allowed on a copy of the dataset, starting from an empty cursor.
// The series must be strictly ascending by date and classified.
func SuppressAlerts(ds schema.Dataset, cooldownDays int) (schema.Dataset, error) {
	if !ds.IsChronological() {
		return nil, ErrNotChronological
	}
	if err := requireSeverity(ds); err != nil {
		return nil, err
	}
	out := ds.Clone()
	var cursor AlertCursor
	for i := range out {
		var allowed bool
		cursor, allowed = StepAlert(cursor, out[i].Date, out[i].RiskSeverity, cooldownDays)
		out[i].AlertAllowed = schema.Bool(allowed)
	}
	return out, nil
}

// daysBetween returns the whole number of days from a to b, floored.
func daysBetween(a, b time.Time) int {
	return int(math.Floor(b.Sub(a).Hours() / 24))
}
