// Package features derives the lag, rolling and forecast band columns the decision
// pipeline reads, for inputs that do not already carry them.
package features

import (
	"errors"
	"fmt"
	"math"

	"github.com/huangsam/capguard/schema"
)

// Window sizes of the derived features.
const (
	shortWindow = 7
	longWindow  = 14
)

// ErrNoForecast is returned by Band when a record has no point forecast.
var ErrNoForecast = errors.New("forecast column is required to build a forecast band")

// ZScore returns the two-sided z value for a confidence level.
// 0.9 maps to 1.65; every other level uses 1.96.
func ZScore(confidence float64) float64 {
	if confidence == 0.9 {
		return 1.65
	}
	return 1.96
}

// Derive computes lag-1/7/14 demand, rolling mean 7/14 and rolling sample std 7 over
// a date-sorted copy of the dataset. Rolling windows include the current day.
// Records without a full history are dropped, so the first 14 days never survive.
func Derive(ds schema.Dataset) schema.Dataset {
	sorted := ds.Sorted()
	if len(sorted) <= longWindow {
		return schema.Dataset{}
	}

	demand := make([]float64, len(sorted))
	for i := range sorted {
		demand[i] = sorted[i].Demand
	}

	out := make(schema.Dataset, 0, len(sorted)-longWindow)
	for i := longWindow; i < len(sorted); i++ {
		r := sorted[i]
		r.DemandLag1 = schema.Float(demand[i-1])
		r.DemandLag7 = schema.Float(demand[i-shortWindow])
		r.DemandLag14 = schema.Float(demand[i-longWindow])
		short := demand[i-shortWindow+1 : i+1]
		long := demand[i-longWindow+1 : i+1]
		r.RollingMean7 = schema.Float(mean(short))
		r.RollingMean14 = schema.Float(mean(long))
		r.RollingStd7 = schema.Float(sampleStd(short))
		out = append(out, r)
	}
	return out
}

// NaiveForecast fills a missing point forecast with the previous day's 7-day rolling
// mean. Records that already carry a forecast keep it. A first record without a
// forecast has no previous day and is dropped, since its own rolling mean already
// includes the demand being forecast.
func NaiveForecast(ds schema.Dataset) (schema.Dataset, error) {
	out := ds.Clone()
	for i := range out {
		if out[i].Forecast != nil || i == 0 {
			continue
		}
		prev := &ds[i-1]
		if prev.RollingMean7 == nil {
			return nil, fmt.Errorf("naive forecast for %s: rolling_mean_7 unavailable", out[i].Date.Format(schema.DateFormat))
		}
		out[i].Forecast = schema.Float(*prev.RollingMean7)
	}
	if len(out) > 0 && out[0].Forecast == nil {
		out = out[1:]
	}
	return out, nil
}

// Band sets forecast_lower and forecast_upper to forecast -/+ z * residual std,
// where the residual is demand - forecast and the std is the population std.
func Band(ds schema.Dataset, confidence float64) (schema.Dataset, error) {
	residuals := make([]float64, len(ds))
	for i := range ds {
		if ds[i].Forecast == nil {
			return nil, fmt.Errorf("%w (missing on %s)", ErrNoForecast, ds[i].Date.Format(schema.DateFormat))
		}
		residuals[i] = ds[i].Demand - *ds[i].Forecast
	}
	width := ZScore(confidence) * populationStd(residuals)

	out := ds.Clone()
	for i := range out {
		f := *out[i].Forecast
		out[i].ForecastLower = schema.Float(f - width)
		out[i].ForecastUpper = schema.Float(f + width)
	}
	return out, nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func sumSquares(values []float64) float64 {
	m := mean(values)
	ss := 0.0
	for _, v := range values {
		ss += (v - m) * (v - m)
	}
	return ss
}

// sampleStd is the standard deviation with n-1 degrees of freedom.
func sampleStd(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return math.Sqrt(sumSquares(values) / float64(len(values)-1))
}

// populationStd is the standard deviation with n degrees of freedom.
func populationStd(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return math.Sqrt(sumSquares(values) / float64(len(values)))
}
