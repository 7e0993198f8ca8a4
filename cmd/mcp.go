package cmd

import (
	"github.com/spf13/cobra"

	"github.com/anicka-net/ossuary/internal/contract"
	"github.com/anicka-net/ossuary/internal/mcp"
)

// mcpCmd starts the MCP server on stdio.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Model Context Protocol server.",
	Long: `Serve the scoring pipeline over MCP on stdio so agent tooling can
query governance risk scores and movers directly.`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := mcp.StartMCPServer(rootCtx, scorer); err != nil {
			contract.LogFatal("MCP server failed", err, ExitUnresolved)
		}
	},
}
