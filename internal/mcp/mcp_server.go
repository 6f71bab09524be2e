// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/capguard/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// viewOptions are the arguments shared by the tools that read the pipeline output.
func viewOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("input_path", mcp.Description("Path to the CSV or Parquet input series (defaults to the configured input).")),
		mcp.WithString("from", mcp.Description("First date to include (YYYY-MM-DD).")),
		mcp.WithString("to", mcp.Description("Last date to include (YYYY-MM-DD).")),
		mcp.WithString("preset", mcp.Description("Scenario preset applied to the inputs."), mcp.Enum("baseline", "conservative", "aggressive")),
		mcp.WithNumber("demand_change", mcp.Description("Relative demand change, e.g. 0.1 for +10%.")),
		mcp.WithNumber("resource_change", mcp.Description("Absolute change in active resources.")),
	}
}

// NewMCPServer initializes and configures the capguard MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Capacity Guardrail Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: run_pipeline ---
	s.AddTool(mcp.NewTool("run_pipeline", append(viewOptions(),
		mcp.WithDescription("Run the capacity decision pipeline and return the classified daily records."),
		mcp.WithString("severity", mcp.Description("Comma-separated severities to keep, or 'all'.")),
		mcp.WithNumber("limit", mcp.Description("Return only the most recent N records.")),
	)...), h.handleRunPipeline)

	// --- 2. Tool: get_summary ---
	s.AddTool(mcp.NewTool("get_summary", append(viewOptions(),
		mcp.WithDescription("Summarize risk days, alerts and expected cost over the pipeline output."),
		mcp.WithString("severity", mcp.Description("Comma-separated severities to keep, or 'all'.")),
	)...), h.handleGetSummary)

	// --- 3. Tool: compare_scenarios ---
	s.AddTool(mcp.NewTool("compare_scenarios", append(viewOptions(),
		mcp.WithDescription("Compare what-if scenarios and count the simulated risk days of each."),
		mcp.WithString("scenarios_file", mcp.Description("YAML file listing the scenarios (defaults to the presets).")),
	)...), h.handleCompareScenarios)

	// --- 4. Tool: backtest_resources ---
	s.AddTool(mcp.NewTool("backtest_resources", append(viewOptions(),
		mcp.WithDescription("Backtest how many historical risk days a resource change would have avoided."),
		mcp.WithNumber("delta", mcp.Description("Resources added to every day of the backtest.")),
		mcp.WithString("severity", mcp.Description("Comma-separated severities to keep, or 'all'.")),
	)...), h.handleBacktestResources)

	// --- 5. Tool: optimize_buffer ---
	s.AddTool(mcp.NewTool("optimize_buffer", append(viewOptions(),
		mcp.WithDescription("Pick the buffer ratio with the lowest SLA plus idle cost."),
		mcp.WithString("candidates", mcp.Description("Comma-separated buffer ratios, e.g. '1.0,1.1,1.2'.")),
	)...), h.handleOptimizeBuffer)

	return s
}

// StartMCPServer starts the capguard MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
