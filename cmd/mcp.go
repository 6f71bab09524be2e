package cmd

import (
	"github.com/huangsam/capguard/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp [input-path]",
	Short: "Start the capguard MCP server",
	Long: `Launch an MCP server on stdio that lets AI agents run the pipeline, compare
scenarios, backtest resource changes and optimize the buffer via standard tools.

The positional path and every flag become the defaults of each tool call.`,
	Args: cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Headers are suppressed per tool call, since stdio carries the protocol.
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
