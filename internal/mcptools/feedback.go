package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/novaev/expansion/pkg/dataset"
	"github.com/novaev/expansion/pkg/telemetry"
)

// FeedbackTool handles the kpi_feedback MCP tool.
type FeedbackTool struct {
	data dataset.Data
}

func NewFeedbackTool(data dataset.Data) *FeedbackTool {
	return &FeedbackTool{data: data}
}

// Definition returns the MCP tool definition for kpi_feedback.
func (t *FeedbackTool) Definition() mcp.Tool {
	keys := make([]string, 0, len(telemetry.AllMetrics))
	for _, m := range telemetry.AllMetrics {
		keys = append(keys, m.Key())
	}
	return mcp.NewTool("kpi_feedback",
		mcp.WithDescription(
			"Evaluate the last weekly change of a campaign KPI for every launched region "+
				"and return momentum / stable / underwhelming feedback.",
		),
		mcp.WithString("kpi",
			mcp.Description("KPI to evaluate: "+strings.Join(keys, ", ")+" (default: CTR)"),
		),
	)
}

// Handle processes the kpi_feedback tool call.
func (t *FeedbackTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	m := newModel(t.data)
	if kpi := req.GetString("kpi", ""); kpi != "" {
		metric, err := telemetry.ParseMetric(kpi)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		m.SetMetric(metric)
	}

	feedback, err := m.Feedback()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("evaluating telemetry: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## %s by Region\n\n", m.Metric().Label())
	for _, fb := range feedback {
		fmt.Fprintf(&b, "- **%s** (trend %+.2f, %s): %s\n", fb.Region, fb.Trend, fb.Label, fb.Note)
	}
	return mcp.NewToolResultText(b.String()), nil
}
