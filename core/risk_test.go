package core

import (
	"math"
	"testing"

	"github.com/huangsam/capguard/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateCapacity(t *testing.T) {
	ds := schema.Dataset{
		{Date: day(0), ActiveResources: 20},
		{Date: day(1), ActiveResources: 0},
	}

	out := EstimateCapacity(ds, 6)

	assert.Equal(t, 120.0, *out[0].EstimatedCapacity)
	assert.Equal(t, 0.0, *out[1].EstimatedCapacity)
	assert.Nil(t, ds[0].EstimatedCapacity, "input must not be modified")
}

func defaultTable() SeverityTable {
	return NewSeverityTable(schema.DefaultMediumThreshold, schema.DefaultHighThreshold)
}

func TestSeverityTableClassify(t *testing.T) {
	table := defaultTable()
	tests := []struct {
		gap      float64
		expected schema.Severity
	}{
		{-50, schema.LowSeverity},
		{0, schema.LowSeverity},
		{0.0001, schema.MediumSeverity},
		{10, schema.MediumSeverity},
		{10.5, schema.HighSeverity},
		{25, schema.HighSeverity},
		{25.01, schema.CriticalSeverity},
		{1e9, schema.CriticalSeverity},
		{math.NaN(), schema.CriticalSeverity},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, table.Classify(tt.gap), "gap %v", tt.gap)
	}
}

func TestSeverityTableMonotonic(t *testing.T) {
	table := NewSeverityTable(7, 40)
	prev := -1
	for gap := -20.0; gap <= 60; gap += 0.5 {
		rank := table.Classify(gap).Rank()
		assert.GreaterOrEqual(t, rank, prev, "gap %v", gap)
		prev = rank
	}
}

func TestClassifyRisk(t *testing.T) {
	// capacity 100, buffer 1.1 -> threshold 110
	ds := schema.Dataset{
		{Date: day(0), Demand: 110, EstimatedCapacity: schema.Float(100)},
		{Date: day(1), Demand: 120, EstimatedCapacity: schema.Float(100)},
		{Date: day(2), Demand: 135, EstimatedCapacity: schema.Float(100)},
		{Date: day(3), Demand: 136, EstimatedCapacity: schema.Float(100)},
	}

	out, err := ClassifyRisk(ds, 1.1, defaultTable())
	require.NoError(t, err)

	assert.InDelta(t, 0, *out[0].CapacityGap, 1e-9)
	assert.Equal(t, schema.LowSeverity, out[0].RiskSeverity)
	assert.Equal(t, schema.MediumSeverity, out[1].RiskSeverity)
	assert.Equal(t, schema.HighSeverity, out[2].RiskSeverity)
	assert.Equal(t, schema.CriticalSeverity, out[3].RiskSeverity)
	assert.Empty(t, ds[0].RiskSeverity)
}

func TestClassifyRiskMissingCapacity(t *testing.T) {
	ds := schema.Dataset{{Date: day(4), Demand: 10}}

	_, err := ClassifyRisk(ds, 1.1, defaultTable())

	var missing *MissingInputError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "estimated_capacity", missing.Column)
	assert.Equal(t, day(4), missing.Date)
	assert.Contains(t, err.Error(), "estimated_capacity")
}

func TestClassifyUncertainty(t *testing.T) {
	ds := schema.Dataset{
		{Date: day(0), Demand: 50, EstimatedCapacity: schema.Float(100), ForecastUpper: schema.Float(140)},
		{Date: day(1), Demand: 50, EstimatedCapacity: schema.Float(100), ForecastUpper: schema.Float(100)},
	}

	out, err := ClassifyUncertainty(ds, 1.1, defaultTable())
	require.NoError(t, err)

	assert.InDelta(t, 30, *out[0].WorstCaseGap, 1e-9)
	assert.Equal(t, schema.CriticalSeverity, out[0].UncertaintyAwareRisk)
	assert.Equal(t, schema.LowSeverity, out[1].UncertaintyAwareRisk)
}

func TestClassifyUncertaintyMissingUpper(t *testing.T) {
	ds := schema.Dataset{{Date: day(0), EstimatedCapacity: schema.Float(1)}}

	_, err := ClassifyUncertainty(ds, 1.1, defaultTable())

	var missing *MissingInputError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "forecast_upper", missing.Column)
}

func TestUncertaintyNeverBelowBase(t *testing.T) {
	// forecast_upper >= demand implies uncertainty-aware risk >= base risk
	table := defaultTable()
	var ds schema.Dataset
	for i := range 60 {
		demand := float64(80 + i)
		ds = append(ds, schema.TimeSeriesRecord{
			Date:              day(i),
			Demand:            demand,
			EstimatedCapacity: schema.Float(90),
			ForecastUpper:     schema.Float(demand + float64(i%7)),
		})
	}

	base, err := ClassifyRisk(ds, 1.1, table)
	require.NoError(t, err)
	both, err := ClassifyUncertainty(base, 1.1, table)
	require.NoError(t, err)

	for _, r := range both {
		assert.GreaterOrEqual(t, r.UncertaintyAwareRisk.Rank(), r.RiskSeverity.Rank())
	}
}
