package dataset

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/huangsam/capguard/schema"
)

// Shape of the synthetic series.
const (
	baseDemand      = 120.0
	seasonalAmp     = 20.0
	trendSpan       = 30.0
	noiseStd        = 10.0
	minDemand       = 20.0
	minResources    = 15
	resourceSpread  = 10
	resolutionMean  = 4.0
	resolutionStd   = 0.5
	ticketsPerStaff = 6
)

// GenerateOptions controls the synthetic series.
type GenerateOptions struct {
	Days  int
	Start time.Time
	Seed  uint64
}

// Generate builds a reproducible daily series with yearly seasonality, a linear
// upward trend and gaussian noise. The same options always yield the same records.
func Generate(opts GenerateOptions) schema.Dataset {
	if opts.Days <= 0 {
		return schema.Dataset{}
	}
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	start := time.Date(opts.Start.Year(), opts.Start.Month(), opts.Start.Day(), 0, 0, 0, 0, time.UTC)

	ds := make(schema.Dataset, opts.Days)
	for i := range ds {
		date := start.AddDate(0, 0, i)

		trend := 0.0
		if opts.Days > 1 {
			trend = trendSpan * float64(i) / float64(opts.Days-1)
		}
		seasonal := seasonalAmp * math.Sin(2*math.Pi*float64(date.YearDay())/365)
		demand := baseDemand + seasonal + trend + rng.NormFloat64()*noiseStd
		demand = math.Trunc(math.Max(demand, minDemand))

		resources := minResources + rng.IntN(resourceSpread)
		dow := (int(date.Weekday()) + 6) % 7

		ds[i] = schema.TimeSeriesRecord{
			Date:              date,
			Demand:            demand,
			ActiveResources:   resources,
			AvgResolutionTime: resolutionMean + rng.NormFloat64()*resolutionStd,
			Backlog:           math.Max(demand-float64(resources*ticketsPerStaff), 0),
			DayOfWeek:         dow,
			IsWeekend:         dow >= 5,
		}
		if i > 0 {
			ds[i].DemandGrowthRate = (demand - ds[i-1].Demand) / ds[i-1].Demand
		}
	}
	return ds
}
