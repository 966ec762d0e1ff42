// Package mcptools exposes the ranking, telemetry and GTM operations as MCP
// tools.
//
// Each tool follows the same shape:
// - a struct holding the data (and strategist) it needs
// - Definition() returns the mcp.Tool schema
// - Handle() parses arguments, runs the operation and renders text
//
// Input errors come back as tool error results, never as protocol errors.
package mcptools

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/novaev/expansion/pkg/ai"
	"github.com/novaev/expansion/pkg/dashboard"
	"github.com/novaev/expansion/pkg/dataset"
	"github.com/novaev/expansion/pkg/prompt"
)

// NewServer registers every tool on a fresh MCP server. The caller builds
// strategist with ai.NewStrategist, so the credential is already checked.
func NewServer(data dataset.Data, strategist ai.Strategist, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"novaev-expansion",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	rank := NewRankTool(data)
	s.AddTool(rank.Definition(), rank.Handle)

	feedback := NewFeedbackTool(data)
	s.AddTool(feedback.Definition(), feedback.Handle)

	draft := NewPromptTool(data)
	s.AddTool(draft.Definition(), draft.Handle)

	strategy := NewStrategyTool(data, strategist)
	s.AddTool(strategy.Definition(), strategy.Handle)

	return s
}

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

func newModel(data dataset.Data) *dashboard.Model {
	return dashboard.New(data.Markets, data.Telemetry)
}

// productArgs are shared by draft_gtm_prompt and generate_strategy.
func productArgs() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("country",
			mcp.Required(),
			mcp.Description("Target market, e.g. Norway"),
		),
		mcp.WithString("product_type",
			mcp.Description("Product type (default: Compact urban electric car)"),
		),
		mcp.WithString("price_point",
			mcp.Description("Price point (default: ~$20,000 USD)"),
		),
		mcp.WithString("target",
			mcp.Description("Target demographic"),
		),
	}
}

func productFrom(req mcp.CallToolRequest) prompt.Product {
	return prompt.Product{
		Type:       req.GetString("product_type", ""),
		PricePoint: req.GetString("price_point", ""),
		Target:     req.GetString("target", ""),
	}
}

// buildPrompt resolves the country and product arguments into a GTM prompt.
func buildPrompt(data dataset.Data, req mcp.CallToolRequest) (*dashboard.Model, string, error) {
	m := newModel(data)
	if err := m.SetCountry(req.GetString("country", "")); err != nil {
		return nil, "", err
	}
	m.SetProduct(productFrom(req))
	p, err := m.Prompt()
	return m, p, err
}
