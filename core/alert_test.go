package core

import (
	"testing"

	"github.com/huangsam/capguard/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	low  = schema.LowSeverity
	med  = schema.MediumSeverity
	high = schema.HighSeverity
	crit = schema.CriticalSeverity
)

func TestSuppressAlerts(t *testing.T) {
	tests := []struct {
		name       string
		severities []schema.Severity
		cooldown   int
		expected   []bool
	}{
		{
			name:       "repeated critical within cooldown",
			severities: []schema.Severity{crit, crit, crit},
			cooldown:   3,
			expected:   []bool{true, false, false},
		},
		{
			name:       "severity change re-arms",
			severities: []schema.Severity{crit, high, crit},
			cooldown:   3,
			expected:   []bool{true, true, true},
		},
		{
			name:       "non elevated always allowed",
			severities: []schema.Severity{low, med, low, med},
			cooldown:   3,
			expected:   []bool{true, true, true, true},
		},
		{
			name:       "cooldown boundary is inclusive",
			severities: []schema.Severity{high, low, low, high, high},
			cooldown:   3,
			expected:   []bool{true, true, true, false, true},
		},
		{
			name:       "non elevated days do not move the cursor",
			severities: []schema.Severity{high, med, high},
			cooldown:   3,
			expected:   []bool{true, true, false},
		},
		{
			name:       "zero cooldown still suppresses same-day repeats only",
			severities: []schema.Severity{high, high},
			cooldown:   0,
			expected:   []bool{true, true},
		},
		{
			name:       "empty",
			severities: nil,
			cooldown:   3,
			expected:   []bool{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := SuppressAlerts(classified(tt.severities...), tt.cooldown)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, allowedFlags(out))
		})
	}
}

func TestSuppressAlertsCooldownWindow(t *testing.T) {
	// day 0 alert; day 3 within 3 days suppressed; day 4 after window allowed
	ds := schema.Dataset{
		{Date: day(0), RiskSeverity: crit},
		{Date: day(3), RiskSeverity: crit},
		{Date: day(4), RiskSeverity: crit},
		{Date: day(5), RiskSeverity: crit},
	}

	out, err := SuppressAlerts(ds, 3)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true, false}, allowedFlags(out))
}

func TestSuppressAlertsRejectsUnordered(t *testing.T) {
	ds := schema.Dataset{
		{Date: day(2), RiskSeverity: crit},
		{Date: day(1), RiskSeverity: crit},
	}

	_, err := SuppressAlerts(ds, 3)
	assert.ErrorIs(t, err, ErrNotChronological)

	_, err = SuppressAlerts(ds.Sorted(), 3)
	assert.NoError(t, err)
}

func TestSuppressAlertsRejectsDuplicateDates(t *testing.T) {
	ds := schema.Dataset{
		{Date: day(1), RiskSeverity: crit},
		{Date: day(1), RiskSeverity: crit},
	}

	_, err := SuppressAlerts(ds, 3)
	assert.ErrorIs(t, err, ErrNotChronological)
}

func TestSuppressAlertsRequiresSeverity(t *testing.T) {
	_, err := SuppressAlerts(schema.Dataset{{Date: day(0)}}, 3)

	var missing *MissingInputError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "risk_severity", missing.Column)
}

func TestStepAlert(t *testing.T) {
	var cursor AlertCursor
	assert.True(t, cursor.IsEmpty())

	cursor, allowed := StepAlert(cursor, day(0), med, 3)
	assert.True(t, allowed)
	assert.True(t, cursor.IsEmpty())

	cursor, allowed = StepAlert(cursor, day(1), high, 3)
	assert.True(t, allowed)
	assert.Equal(t, AlertCursor{LastAlertDate: day(1), LastSeverity: high}, cursor)

	next, allowed := StepAlert(cursor, day(2), high, 3)
	assert.False(t, allowed)
	assert.Equal(t, cursor, next)

	next, allowed = StepAlert(cursor, day(2), crit, 3)
	assert.True(t, allowed)
	assert.Equal(t, AlertCursor{LastAlertDate: day(2), LastSeverity: crit}, next)
}

func TestSuppressAlertsFreshCursorPerRun(t *testing.T) {
	ds := classified(crit, crit)

	first, err := SuppressAlerts(ds, 3)
	require.NoError(t, err)
	second, err := SuppressAlerts(ds, 3)
	require.NoError(t, err)

	assert.Equal(t, allowedFlags(first), allowedFlags(second))
	assert.Nil(t, ds[0].AlertAllowed)
}
