package mcp_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/huangsam/capguard/internal/contract"
	"github.com/huangsam/capguard/internal/dataset"
	mcp_internal "github.com/huangsam/capguard/internal/mcp"
	"github.com/huangsam/capguard/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSeries stores ten days of complete input with two CRITICAL and two HIGH days.
func writeSeries(t *testing.T) string {
	t.Helper()
	demands := []float64{50, 60, 70, 80, 90, 100, 55, 65, 75, 95}
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	ds := make(schema.Dataset, len(demands))
	for i, d := range demands {
		ds[i] = schema.TimeSeriesRecord{
			Date:            start.AddDate(0, 0, i),
			Demand:          d,
			ActiveResources: 10,
			RollingMean7:    schema.Float(d),
			Forecast:        schema.Float(d),
			ForecastLower:   schema.Float(d - 5),
			ForecastUpper:   schema.Float(d + 5),
		}
	}

	path := filepath.Join(t.TempDir(), "series.csv")
	file, err := os.Create(path)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()
	require.NoError(t, dataset.WriteCSV(file, ds))
	return path
}

func newTestServer(t *testing.T, inputPath string) *server.MCPServer {
	t.Helper()
	baseCfg := &contract.Config{
		InputPath:        inputPath,
		Settings:         schema.DefaultPipelineSettings(),
		Confidence:       0.9,
		Preset:           schema.BaselinePreset,
		BacktestDelta:    3,
		BufferCandidates: slices.Clone(schema.DefaultBufferCandidates),
		Output:           schema.TextOut,
		CacheBackend:     schema.NoneBackend,
	}
	var mgr contract.CacheManager
	return mcp_internal.NewMCPServer(baseCfg, mgr)
}

func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
	res, err := tool.Handler(context.Background(), req)
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	require.NotEmpty(t, res.Content)
	return res
}

func resultText(res *mcp.CallToolResult) string {
	return res.Content[0].(mcp.TextContent).Text
}

func TestMCPServerTools(t *testing.T) {
	s := newTestServer(t, writeSeries(t))
	for _, name := range []string{"run_pipeline", "get_summary", "compare_scenarios", "backtest_resources", "optimize_buffer"} {
		assert.NotNil(t, s.GetTool(name), "Tool %s should exist", name)
	}
}

func TestMCPServerHandlers(t *testing.T) {
	s := newTestServer(t, writeSeries(t))

	t.Run("run_pipeline with severity and limit", func(t *testing.T) {
		res := callTool(t, s, "run_pipeline", map[string]any{"severity": "HIGH,CRITICAL"})
		require.False(t, res.IsError, resultText(res))
		var records []schema.TimeSeriesRecord
		require.NoError(t, json.Unmarshal([]byte(resultText(res)), &records))
		assert.Len(t, records, 4)

		res = callTool(t, s, "run_pipeline", map[string]any{"limit": 3.0})
		require.False(t, res.IsError, resultText(res))
		require.NoError(t, json.Unmarshal([]byte(resultText(res)), &records))
		assert.Len(t, records, 3)
	})

	t.Run("get_summary", func(t *testing.T) {
		res := callTool(t, s, "get_summary", map[string]any{"to": "2024-01-05"})
		require.False(t, res.IsError, resultText(res))
		var summary schema.Summary
		require.NoError(t, json.Unmarshal([]byte(resultText(res)), &summary))
		assert.Equal(t, 5, summary.Records)
		assert.Equal(t, 2, summary.RiskDays)
	})

	t.Run("compare_scenarios presets", func(t *testing.T) {
		res := callTool(t, s, "compare_scenarios", map[string]any{})
		require.False(t, res.IsError, resultText(res))
		var outcomes []schema.ScenarioOutcome
		require.NoError(t, json.Unmarshal([]byte(resultText(res)), &outcomes))
		require.Len(t, outcomes, 3)
		assert.Equal(t, "baseline", outcomes[0].Scenario)
	})

	t.Run("backtest_resources", func(t *testing.T) {
		res := callTool(t, s, "backtest_resources", map[string]any{"delta": 3.0})
		require.False(t, res.IsError, resultText(res))
		var result schema.BacktestResult
		require.NoError(t, json.Unmarshal([]byte(resultText(res)), &result))
		assert.Equal(t, 3, result.ResourceChange)
		assert.Equal(t, 1, result.RiskDaysAvoided)
	})

	t.Run("optimize_buffer", func(t *testing.T) {
		res := callTool(t, s, "optimize_buffer", map[string]any{"candidates": "1.0,1.2"})
		require.False(t, res.IsError, resultText(res))
		var opt schema.BufferOptimization
		require.NoError(t, json.Unmarshal([]byte(resultText(res)), &opt))
		assert.Len(t, opt.Evaluations, 2)
	})
}

func TestMCPServerHandlers_ValidationErrors(t *testing.T) {
	s := newTestServer(t, writeSeries(t))

	tests := []struct {
		name     string
		tool     string
		args     map[string]any
		expected string
	}{
		{"invalid preset", "run_pipeline", map[string]any{"preset": "reckless"}, "invalid preset"},
		{"invalid date", "get_summary", map[string]any{"from": "last week"}, "invalid from date"},
		{"reversed range", "run_pipeline", map[string]any{"from": "2024-02-01", "to": "2024-01-01"}, "cannot be after"},
		{"invalid severity", "backtest_resources", map[string]any{"severity": "SEVERE"}, "invalid severity"},
		{"demand collapse", "compare_scenarios", map[string]any{"demand_change": -1.5}, "demand-change must be greater than -1"},
		{"invalid candidates", "optimize_buffer", map[string]any{"candidates": "1.0,zero"}, "invalid buffer candidate"},
		{"missing scenarios file", "compare_scenarios", map[string]any{"scenarios_file": "does-not-exist.yaml"}, "scenario comparison failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := callTool(t, s, tt.tool, tt.args)
			assert.True(t, res.IsError, "The response should indicate an error state")
			assert.Contains(t, resultText(res), tt.expected)
		})
	}
}

func TestMCPServerHandlers_NoInput(t *testing.T) {
	s := newTestServer(t, "")
	res := callTool(t, s, "run_pipeline", map[string]any{})
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(res), "no input dataset")
}
