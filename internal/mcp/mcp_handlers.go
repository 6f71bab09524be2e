package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/huangsam/capguard/core"
	"github.com/huangsam/capguard/internal/contract"
	"github.com/huangsam/capguard/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
}

// toolConfig clones the base config and applies the arguments every tool accepts.
func (h *toolHandler) toolConfig(request mcp.CallToolRequest) (*contract.Config, error) {
	cfg := h.baseCfg.Clone()
	if p := request.GetString("input_path", ""); p != "" {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		cfg.InputPath = abs
	}

	from := request.GetString("from", "")
	to := request.GetString("to", "")
	severity := request.GetString("severity", "")
	if from != "" || to != "" || severity != "" {
		keep := cfg.Severities
		if err := contract.RevalidateView(cfg, from, to, severity); err != nil {
			return nil, err
		}
		if severity == "" {
			cfg.Severities = keep
		}
	}

	cfg.DemandChange = request.GetFloat("demand_change", cfg.DemandChange)
	cfg.ResourceChange = request.GetInt("resource_change", cfg.ResourceChange)
	if p := request.GetString("preset", ""); p != "" {
		cfg.Preset = schema.Preset(p)
	}
	if err := contract.RevalidateScenario(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// jsonResult wraps any payload as an indented JSON text result.
func jsonResult(v any) *mcp.CallToolResult {
	jsonData, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(jsonData))
}

func (h *toolHandler) handleRunPipeline(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.toolConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid pipeline parameters: %v", err)), nil
	}
	if l := request.GetInt("limit", 0); l > 0 {
		cfg.ResultLimit = l
	}

	view, _, err := core.GetPipelineResults(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("pipeline failed: %v", err)), nil
	}
	if cfg.ResultLimit > 0 && len(view) > cfg.ResultLimit {
		view = view[len(view)-cfg.ResultLimit:]
	}
	if view == nil {
		view = schema.Dataset{}
	}
	return jsonResult(view), nil
}

func (h *toolHandler) handleGetSummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.toolConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid summary parameters: %v", err)), nil
	}

	summary, _, err := core.GetSummaryResults(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("summary failed: %v", err)), nil
	}
	return jsonResult(summary), nil
}

func (h *toolHandler) handleCompareScenarios(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.toolConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid scenario parameters: %v", err)), nil
	}
	if f := request.GetString("scenarios_file", ""); f != "" {
		cfg.ScenariosFile = f
	}

	outcomes, _, err := core.GetScenarioResults(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scenario comparison failed: %v", err)), nil
	}
	return jsonResult(outcomes), nil
}

func (h *toolHandler) handleBacktestResources(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.toolConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid backtest parameters: %v", err)), nil
	}
	cfg.BacktestDelta = request.GetInt("delta", cfg.BacktestDelta)

	result, _, err := core.GetBacktestResults(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("backtest failed: %v", err)), nil
	}
	return jsonResult(result), nil
}

func (h *toolHandler) handleOptimizeBuffer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.toolConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid optimizer parameters: %v", err)), nil
	}
	if c := request.GetString("candidates", ""); c != "" {
		candidates, err := contract.ParseBufferCandidates(c)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid optimizer parameters: %v", err)), nil
		}
		cfg.BufferCandidates = candidates
	}

	opt, _, err := core.GetOptimizeResults(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("optimization failed: %v", err)), nil
	}
	return jsonResult(opt), nil
}
