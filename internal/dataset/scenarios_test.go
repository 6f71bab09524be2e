package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/capguard/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScenarios(t *testing.T) {
	data := []byte(`
scenarios:
  - name: surge
    demand_change: 0.3
  - name: " hire "
    resource_change: 4
  - name: quiet
    demand_change: -0.2
    resource_change: -2
`)

	got, err := ParseScenarios(data)
	require.NoError(t, err)
	assert.Equal(t, []schema.ScenarioParams{
		{Name: "surge", DemandChange: 0.3},
		{Name: "hire", ResourceChange: 4},
		{Name: "quiet", DemandChange: -0.2, ResourceChange: -2},
	}, got)
}

func TestParseScenariosErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not yaml", "scenarios: [unclosed"},
		{"empty set", "scenarios: []"},
		{"missing name", "scenarios:\n  - demand_change: 0.1\n"},
		{"duplicate name", "scenarios:\n  - name: a\n  - name: a\n"},
		{"demand wiped out", "scenarios:\n  - name: a\n    demand_change: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenarios([]byte(tt.data))
			assert.Error(t, err)
		})
	}

	_, err := ParseScenarios([]byte("scenarios: []"))
	assert.ErrorIs(t, err, ErrNoScenarios)
}

func TestLoadScenarios(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scenarios:\n  - name: only\n"), 0o644))

	got, err := LoadScenarios(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "only", got[0].Name)

	_, err = LoadScenarios(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
