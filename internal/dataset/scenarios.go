package dataset

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/huangsam/capguard/schema"
	"gopkg.in/yaml.v3"
)

// ErrNoScenarios is returned when a scenario file lists nothing to compare.
var ErrNoScenarios = errors.New("scenario file has no scenarios")

// LoadScenarios reads a YAML scenario set such as:
//
//	scenarios:
//	  - name: surge
//	    demand_change: 0.3
//	    resource_change: 0
func LoadScenarios(path string) ([]schema.ScenarioParams, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenarios: %w", err)
	}
	return ParseScenarios(data)
}

// ParseScenarios decodes and validates a YAML scenario set. Names must be unique and
// demand_change must stay above -1 so simulated demand is never negative.
func ParseScenarios(data []byte) ([]schema.ScenarioParams, error) {
	var file schema.ScenarioFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse scenarios: %w", err)
	}
	if len(file.Scenarios) == 0 {
		return nil, ErrNoScenarios
	}

	seen := make(map[string]struct{}, len(file.Scenarios))
	for i := range file.Scenarios {
		sc := &file.Scenarios[i]
		sc.Name = strings.TrimSpace(sc.Name)
		if sc.Name == "" {
			return nil, fmt.Errorf("scenario %d: name is required", i+1)
		}
		if _, dup := seen[sc.Name]; dup {
			return nil, fmt.Errorf("scenario %q is defined twice", sc.Name)
		}
		seen[sc.Name] = struct{}{}
		if sc.DemandChange <= -1 {
			return nil, fmt.Errorf("scenario %q: demand_change must be greater than -1", sc.Name)
		}
	}
	return file.Scenarios, nil
}
