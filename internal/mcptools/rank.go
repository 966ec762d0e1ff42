package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/novaev/expansion/internal/utils"
	"github.com/novaev/expansion/pkg/dataset"
	"github.com/novaev/expansion/pkg/market"
)

// RankTool handles the rank_markets MCP tool.
type RankTool struct {
	data dataset.Data
}

func NewRankTool(data dataset.Data) *RankTool {
	return &RankTool{data: data}
}

// Definition returns the MCP tool definition for rank_markets.
func (t *RankTool) Definition() mcp.Tool {
	slugs := make([]string, 0, len(market.AllPriorities))
	for _, p := range market.AllPriorities {
		slugs = append(slugs, p.Slug())
	}
	return mcp.NewTool("rank_markets",
		mcp.WithDescription(
			"Rank candidate countries for NovaEV expansion by a priority-weighted score. "+
				"Returns the top N markets with their attributes and scores.",
		),
		mcp.WithString("priorities",
			mcp.Description("Comma separated priorities: "+strings.Join(slugs, ", ")),
		),
		mcp.WithNumber("top",
			mcp.Description(fmt.Sprintf("Number of markets to return (default: %d, min: %d)", market.DefaultTopN, market.MinTopN)),
		),
	)
}

// Handle processes the rank_markets tool call.
func (t *RankTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sel, err := market.ParseSelection(utils.SplitList(req.GetString("priorities", "")))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	m := newModel(t.data)
	m.SetPriorities(sel)
	m.SetTopN(intArg(req, "top", 0))

	var b strings.Builder
	if len(sel) == 0 {
		b.WriteString("No priorities selected: every score is 0 and the table keeps its original order.\n\n")
	} else {
		fmt.Fprintf(&b, "Priorities: %s\n\n", strings.Join(sel.Slugs(), ", "))
	}
	b.WriteString("| # | Country | EV_Adoption | Tariffs | Charging_Stations | China_Sentiment | Market_Size | Score |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|\n")
	for i, r := range m.Top() {
		fmt.Fprintf(&b, "| %d | %s | %g | %g | %d | %g | %g | %.2f |\n",
			i+1, r.Country, r.EVAdoption, r.Tariffs, r.ChargingStations, r.ChinaSentiment, r.MarketSize, r.Score)
	}
	fmt.Fprintf(&b, "\n%s\n", m.Headline())

	return mcp.NewToolResultText(b.String()), nil
}
