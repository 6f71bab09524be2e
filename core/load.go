package core

import (
	"errors"
	"fmt"

	"github.com/huangsam/capguard/core/features"
	"github.com/huangsam/capguard/internal/contract"
	"github.com/huangsam/capguard/internal/dataset"
	"github.com/huangsam/capguard/schema"
)

// ErrNoInput is returned when a command needs a dataset but none was configured.
var ErrNoInput = errors.New("no input dataset given (pass a path or set --input)")

func rollingMean7(r *schema.TimeSeriesRecord) *float64 { return r.RollingMean7 }

// loadInput reads the configured dataset in ascending date order.
func loadInput(cfg *contract.Config) (schema.Dataset, error) {
	if cfg.InputPath == "" {
		return nil, ErrNoInput
	}
	ds, err := dataset.Load(cfg.InputPath)
	if err != nil {
		return nil, err
	}
	if len(ds) == 0 {
		return nil, ErrEmptyDataset
	}
	return ds, nil
}

// prepareDataset fills the columns the pipeline reads when the input lacks them:
// rolling features, the naive point forecast when enabled (which drops the first
// record), then the forecast band.
// Columns the input already carries are never recomputed.
func prepareDataset(ds schema.Dataset, confidence float64, naiveForecast bool) (schema.Dataset, error) {
	if len(ds) == 0 {
		return nil, ErrEmptyDataset
	}

	if !ds.HasColumn(rollingMean7) {
		ds = features.Derive(ds)
		if len(ds) == 0 {
			return nil, fmt.Errorf("%w: not enough history to derive rolling features", ErrEmptyDataset)
		}
	}

	if naiveForecast && !ds.HasColumn(forecastPoint) {
		var err error
		if ds, err = features.NaiveForecast(ds); err != nil {
			return nil, err
		}
		if len(ds) == 0 {
			return nil, fmt.Errorf("%w: not enough history for a naive forecast", ErrEmptyDataset)
		}
	}

	if !ds.HasColumn(forecastUpper) && ds.HasColumn(forecastPoint) {
		var err error
		if ds, err = features.Band(ds, confidence); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

// requestedScenario returns the scenario asked for by the configuration, with preset floors applied.
func requestedScenario(cfg *contract.Config) schema.ScenarioParams {
	return ResolvePreset(cfg.Preset, cfg.Scenario())
}

// isIdentity reports whether a scenario leaves the inputs unchanged.
func isIdentity(sc schema.ScenarioParams) bool {
	return sc.DemandChange == 0 && sc.ResourceChange == 0
}

// computePipeline loads and prepares the input, then runs the pipeline under the requested scenario.
func computePipeline(cfg *contract.Config) (schema.Dataset, error) {
	ds, err := loadInput(cfg)
	if err != nil {
		return nil, err
	}
	if ds, err = prepareDataset(ds, cfg.Confidence, cfg.NaiveForecast); err != nil {
		return nil, err
	}

	sc := requestedScenario(cfg)
	if isIdentity(sc) {
		return RunPipeline(ds, cfg.Settings)
	}
	return RunScenarioPipeline(ds, sc, cfg.Settings)
}
