package mcptools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/novaev/expansion/internal/utils"
	"github.com/novaev/expansion/pkg/ai"
	"github.com/novaev/expansion/pkg/dataset"
)

// PromptTool handles the draft_gtm_prompt MCP tool.
type PromptTool struct {
	data dataset.Data
}

func NewPromptTool(data dataset.Data) *PromptTool {
	return &PromptTool{data: data}
}

// Definition returns the MCP tool definition for draft_gtm_prompt.
func (t *PromptTool) Definition() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Build the go-to-market prompt for a country and product profile without calling the text-generation service."),
	}, productArgs()...)
	return mcp.NewTool("draft_gtm_prompt", opts...)
}

// Handle processes the draft_gtm_prompt tool call.
func (t *PromptTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, p, err := buildPrompt(t.data, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(p), nil
}

// StrategyTool handles the generate_strategy MCP tool.
type StrategyTool struct {
	data       dataset.Data
	strategist ai.Strategist
}

func NewStrategyTool(data dataset.Data, strategist ai.Strategist) *StrategyTool {
	return &StrategyTool{data: data, strategist: strategist}
}

// Definition returns the MCP tool definition for generate_strategy.
func (t *StrategyTool) Definition() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Generate a GTM launch plan for NovaEV in the given country: entry strategy, positioning, content themes and media recommendations."),
	}, productArgs()...)
	return mcp.NewTool("generate_strategy", opts...)
}

// Handle processes the generate_strategy tool call.
func (t *StrategyTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	m, p, err := buildPrompt(t.data, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	utils.Log.Debugf("[mcp] generating strategy for %s", m.Country())
	st, err := t.strategist.GenerateStrategy(ctx, p)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("strategy generation failed: %v", err)), nil
	}
	return mcp.NewToolResultText(st.Content), nil
}
