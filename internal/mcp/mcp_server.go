// Package mcp provides the Model Context Protocol (MCP) server
// implementation for ossuary.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/anicka-net/ossuary/core"
)

// NewMCPServer initializes and configures the ossuary MCP server without
// starting it. Exposed for unit testing.
func NewMCPServer(scorer *core.Scorer) *server.MCPServer {
	s := server.NewMCPServer(
		"Ossuary Governance Risk Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{scorer: scorer}

	s.AddTool(mcp.NewTool("score_package",
		mcp.WithDescription("Compute the governance risk score (0-100) for an open-source package."),
		mcp.WithString("package", mcp.Description("Package name (owner/repo for the github ecosystem)."), mcp.Required()),
		mcp.WithString("ecosystem", mcp.Description("Package ecosystem."), mcp.Required(),
			mcp.Enum("npm", "pypi", "cargo", "rubygems", "packagist", "nuget", "go", "github")),
		mcp.WithString("cutoff", mcp.Description("Optional YYYY-MM-DD cutoff for historical (as-of) scoring.")),
	), h.handleScorePackage)

	s.AddTool(mcp.NewTool("get_movers",
		mcp.WithDescription("List packages whose risk score moved the most recently."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of movers to return.")),
		mcp.WithNumber("since_days", mcp.Description("Window size in days (default 30).")),
	), h.handleGetMovers)

	return s
}

// StartMCPServer starts the ossuary MCP server on stdio.
func StartMCPServer(_ context.Context, scorer *core.Scorer) error {
	return server.ServeStdio(NewMCPServer(scorer))
}
