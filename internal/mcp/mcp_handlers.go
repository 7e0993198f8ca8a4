package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/anicka-net/ossuary/core"
	"github.com/anicka-net/ossuary/internal/contract"
	"github.com/anicka-net/ossuary/schema"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	scorer *core.Scorer
}

func (h *toolHandler) handleScorePackage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.GetString("package", "")
	ecoRaw := request.GetString("ecosystem", "")
	eco, err := contract.ParseEcosystem(ecoRaw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid ecosystem: %v", err)), nil
	}

	var opts core.Options
	if cutoff := request.GetString("cutoff", ""); cutoff != "" {
		asOf, err := contract.ParseCutoff(cutoff, time.Now().UTC())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid cutoff: %v", err)), nil
		}
		opts.AsOf = asOf
	}

	score, err := h.scorer.Score(ctx, eco, name, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scoring failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(score, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetMovers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", contract.DefaultMoversLimit)
	sinceDays := request.GetInt("since_days", 30)

	movers, err := h.scorer.Movers(ctx, limit, time.Duration(sinceDays)*24*time.Hour)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("movers query failed: %v", err)), nil
	}
	if movers == nil {
		movers = []schema.MoverRow{}
	}

	jsonData, _ := json.MarshalIndent(movers, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
