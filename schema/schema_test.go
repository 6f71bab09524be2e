package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(n int) time.Time {
	return time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestSeverityRank(t *testing.T) {
	tests := []struct {
		severity Severity
		rank     int
		elevated bool
	}{
		{LowSeverity, 0, false},
		{MediumSeverity, 1, false},
		{HighSeverity, 2, true},
		{CriticalSeverity, 3, true},
		{Severity("UNKNOWN"), -1, false},
		{Severity(""), -1, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			assert.Equal(t, tt.rank, tt.severity.Rank())
			assert.Equal(t, tt.elevated, tt.severity.IsElevated())
		})
	}
}

func TestAllSeveritiesOrdered(t *testing.T) {
	for i, s := range AllSeverities {
		assert.Equal(t, i, s.Rank())
		_, ok := ValidSeverities[s]
		assert.True(t, ok)
	}
}

func TestDatasetSorted(t *testing.T) {
	ds := Dataset{
		{Date: day(2), Demand: 3},
		{Date: day(0), Demand: 1},
		{Date: day(1), Demand: 2},
	}

	sorted := ds.Sorted()

	assert.Equal(t, []float64{1, 2, 3}, []float64{sorted[0].Demand, sorted[1].Demand, sorted[2].Demand})
	assert.Equal(t, 3.0, ds[0].Demand, "original must be untouched")
	assert.True(t, sorted.IsChronological())
	assert.False(t, ds.IsChronological())
}

func TestDatasetIsChronological(t *testing.T) {
	tests := []struct {
		name     string
		ds       Dataset
		expected bool
	}{
		{"empty", Dataset{}, true},
		{"single", Dataset{{Date: day(0)}}, true},
		{"ascending", Dataset{{Date: day(0)}, {Date: day(3)}}, true},
		{"duplicate", Dataset{{Date: day(0)}, {Date: day(0)}}, false},
		{"descending", Dataset{{Date: day(1)}, {Date: day(0)}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.ds.IsChronological())
		})
	}
}

func TestDatasetHasColumn(t *testing.T) {
	forecast := func(r *TimeSeriesRecord) *float64 { return r.Forecast }

	assert.False(t, Dataset{}.HasColumn(forecast))
	assert.False(t, Dataset{{Forecast: Float(1)}, {}}.HasColumn(forecast))
	assert.True(t, Dataset{{Forecast: Float(1)}, {Forecast: Float(2)}}.HasColumn(forecast))
}

func TestDatasetCloneIndependent(t *testing.T) {
	ds := Dataset{{Demand: 1}}
	clone := ds.Clone()
	clone[0].Demand = 5

	assert.Equal(t, 1.0, ds[0].Demand)
	assert.Nil(t, Dataset(nil).Clone())
}

func TestDeref(t *testing.T) {
	assert.Equal(t, 0.0, Deref(nil))
	assert.Equal(t, 2.5, Deref(Float(2.5)))
}
