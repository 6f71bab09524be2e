package core

import (
	"testing"

	"github.com/huangsam/capguard/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityWeight(t *testing.T) {
	assert.Equal(t, 0.0, SeverityWeight(schema.LowSeverity))
	assert.Equal(t, 0.3, SeverityWeight(schema.MediumSeverity))
	assert.Equal(t, 0.7, SeverityWeight(schema.HighSeverity))
	assert.Equal(t, 1.0, SeverityWeight(schema.CriticalSeverity))
	assert.Equal(t, 0.0, SeverityWeight("UNKNOWN"))
}

func TestComputeCost(t *testing.T) {
	ds := schema.Dataset{
		{Date: day(0), Demand: 100, EstimatedCapacity: schema.Float(120), RiskSeverity: high},
		{Date: day(1), Demand: 200, EstimatedCapacity: schema.Float(120), RiskSeverity: crit},
	}

	out, err := ComputeCost(ds, 500, 100)
	require.NoError(t, err)

	assert.InDelta(t, 350, *out[0].SLARiskCost, 1e-9)
	assert.InDelta(t, 20, *out[0].IdleCapacity, 1e-9)
	assert.InDelta(t, 2000, *out[0].IdleCost, 1e-9)
	assert.InDelta(t, 2350, *out[0].TotalExpectedCost, 1e-9)

	assert.Equal(t, 0.0, *out[1].IdleCapacity, "idle capacity is clamped at zero")
	assert.InDelta(t, 500, *out[1].TotalExpectedCost, 1e-9)
	assert.Nil(t, ds[0].TotalExpectedCost)
}

func TestComputeCostMissingInputs(t *testing.T) {
	var missing *MissingInputError

	_, err := ComputeCost(schema.Dataset{{Date: day(0), RiskSeverity: low}}, 500, 100)
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "estimated_capacity", missing.Column)

	_, err = ComputeCost(schema.Dataset{{Date: day(0), EstimatedCapacity: schema.Float(1)}}, 500, 100)
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "risk_severity", missing.Column)
}

// optimizerInput returns n days with capacity 100 and the given forecast and upper bound.
func optimizerInput(n int, forecast, upper float64) schema.Dataset {
	ds := make(schema.Dataset, n)
	for i := range ds {
		ds[i] = schema.TimeSeriesRecord{
			Date:              day(i),
			EstimatedCapacity: schema.Float(100),
			Forecast:          schema.Float(forecast),
			ForecastUpper:     schema.Float(upper),
		}
	}
	return ds
}

func TestOptimizeBuffer(t *testing.T) {
	t.Run("low demand picks smallest buffer", func(t *testing.T) {
		res, err := OptimizeBuffer(optimizerInput(5, 50, 60), schema.DefaultBufferCandidates, 500, 100)
		require.NoError(t, err)
		assert.Equal(t, 1.0, res.Best.Buffer)
		assert.Len(t, res.Evaluations, len(schema.DefaultBufferCandidates))
		assert.Equal(t, 0, res.Best.AtRiskDays)
	})

	t.Run("upper above capacity penalizes small buffers", func(t *testing.T) {
		// upper 115: buffer 1.0/1.1 at risk, 1.2 and above safe
		res, err := OptimizeBuffer(optimizerInput(4, 100, 115), []float64{1.0, 1.1, 1.2, 1.3}, 500, 100)
		require.NoError(t, err)
		assert.Equal(t, 1.2, res.Best.Buffer)
		assert.Equal(t, 4, res.Evaluations[0].AtRiskDays)
		assert.InDelta(t, 2000, res.Evaluations[0].SLACost, 1e-9)
		assert.Equal(t, 0, res.Evaluations[2].AtRiskDays)
	})

	t.Run("ties resolve to earliest candidate", func(t *testing.T) {
		res, err := OptimizeBuffer(optimizerInput(3, 100, 100), []float64{1.3, 1.2, 1.1}, 500, 100)
		require.NoError(t, err)
		assert.Equal(t, 1.3, res.Best.Buffer)
	})

	t.Run("evaluations keep candidate order", func(t *testing.T) {
		candidates := []float64{1.5, 1.0, 1.25}
		res, err := OptimizeBuffer(optimizerInput(2, 90, 95), candidates, 500, 100)
		require.NoError(t, err)
		for i, e := range res.Evaluations {
			assert.Equal(t, candidates[i], e.Buffer)
		}
	})
}

func TestOptimizeBufferErrors(t *testing.T) {
	_, err := OptimizeBuffer(optimizerInput(2, 1, 1), nil, 500, 100)
	assert.ErrorIs(t, err, ErrNoCandidates)

	ds := optimizerInput(2, 1, 1)
	ds[1].ForecastUpper = nil
	_, err = OptimizeBuffer(ds, []float64{1}, 500, 100)
	var missing *MissingInputError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "forecast_upper", missing.Column)
	assert.Equal(t, day(1), missing.Date)
}
