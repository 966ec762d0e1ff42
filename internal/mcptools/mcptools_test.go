package mcptools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/novaev/expansion/pkg/ai"
	"github.com/novaev/expansion/pkg/dataset"
)

// makeReq builds a mcp.CallToolRequest with the given arguments.
func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// resultText extracts the text content from a tool result.
func resultText(r *mcp.CallToolResult) string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func mustSucceed(t *testing.T, r *mcp.CallToolResult, err error) string {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected protocol error: %v", err)
	}
	if r.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(r))
	}
	return resultText(r)
}

func mustFail(t *testing.T, r *mcp.CallToolResult, err error, want string) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected protocol error: %v", err)
	}
	if !r.IsError {
		t.Fatalf("expected tool error, got: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), want) {
		t.Fatalf("error %q does not mention %q", resultText(r), want)
	}
}

type stubStrategist struct {
	prompt string
	err    error
}

func (s *stubStrategist) GenerateStrategy(ctx context.Context, userPrompt string) (ai.Strategy, error) {
	s.prompt = userPrompt
	if s.err != nil {
		return ai.Strategy{}, s.err
	}
	return ai.Strategy{Content: "## Entry strategy\nLead with fleet sales.", Model: "gpt-4"}, nil
}

func TestNewServerTools(t *testing.T) {
	s := NewServer(dataset.Reference(), &stubStrategist{}, "test")
	tools := s.ListTools()
	for _, name := range []string{"rank_markets", "kpi_feedback", "draft_gtm_prompt", "generate_strategy"} {
		if _, ok := tools[name]; !ok {
			t.Errorf("missing tool %s", name)
		}
	}
	if len(tools) != 4 {
		t.Errorf("expected 4 tools, got %d", len(tools))
	}
}

func TestRankTool(t *testing.T) {
	tool := NewRankTool(dataset.Reference())
	res, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"priorities": "ev-adoption, Market Size",
		"top":        float64(3),
	}))
	text := mustSucceed(t, res, err)

	if !strings.Contains(text, "| 1 | Norway |") {
		t.Errorf("expected Norway ranked first:\n%s", text)
	}
	if strings.Contains(text, "| 4 |") {
		t.Errorf("expected only 3 rows:\n%s", text)
	}
	if !strings.Contains(text, "Top-ranked market: Norway with score 33.00") {
		t.Errorf("missing headline:\n%s", text)
	}
}

func TestRankToolNoPriorities(t *testing.T) {
	tool := NewRankTool(dataset.Reference())
	res, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{}))
	text := mustSucceed(t, res, err)
	if !strings.Contains(text, "| 5 | Mexico |") {
		t.Errorf("zero scores should keep table order and default top 5:\n%s", text)
	}
}

func TestRankToolUnknownPriority(t *testing.T) {
	tool := NewRankTool(dataset.Reference())
	res, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{"priorities": "weather"}))
	mustFail(t, res, err, "unknown priority")
}

func TestFeedbackTool(t *testing.T) {
	tool := NewFeedbackTool(dataset.Reference())

	res, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{"kpi": "CPI"}))
	text := mustSucceed(t, res, err)
	if !strings.Contains(text, "## CPI (Cost per Install) by Region") {
		t.Errorf("missing title:\n%s", text)
	}
	if !strings.Contains(text, "**Norway** (trend -3.00, momentum)") {
		t.Errorf("expected Norway momentum:\n%s", text)
	}
	if !strings.Contains(text, "**UK** (trend -1.00, stable)") {
		t.Errorf("expected UK stable:\n%s", text)
	}

	res, err = tool.Handle(context.Background(), makeReq(map[string]interface{}{"kpi": "ROAS"}))
	mustFail(t, res, err, "unknown metric")
}

func TestPromptTool(t *testing.T) {
	tool := NewPromptTool(dataset.Reference())
	res, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"country": "india",
		"target":  "Ride-hailing drivers",
	}))
	text := mustSucceed(t, res, err)
	for _, want := range []string{"the India market", "- Market Size Index: 10 / 10", "- Target: Ride-hailing drivers", "- Type: Compact urban electric car"} {
		if !strings.Contains(text, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	res, err = tool.Handle(context.Background(), makeReq(map[string]interface{}{"country": "Mars"}))
	mustFail(t, res, err, "unknown country")
}

func TestPromptToolDefinition(t *testing.T) {
	def := NewPromptTool(dataset.Reference()).Definition()
	if def.Name != "draft_gtm_prompt" {
		t.Fatalf("tool name = %q", def.Name)
	}
	found := false
	for _, r := range def.InputSchema.Required {
		if r == "country" {
			found = true
		}
	}
	if !found {
		t.Error("'country' should be required")
	}
}

func TestStrategyTool(t *testing.T) {
	st := &stubStrategist{}
	tool := NewStrategyTool(dataset.Reference(), st)

	res, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{"country": "Brazil"}))
	text := mustSucceed(t, res, err)
	if !strings.Contains(text, "Lead with fleet sales.") {
		t.Errorf("expected plan verbatim, got %s", text)
	}
	if !strings.Contains(st.prompt, "the Brazil market") {
		t.Errorf("strategist got wrong prompt:\n%s", st.prompt)
	}
}

func TestStrategyToolUpstreamError(t *testing.T) {
	tool := NewStrategyTool(dataset.Reference(), &stubStrategist{err: errors.New("HTTP 500")})
	res, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{"country": "UK"}))
	mustFail(t, res, err, "strategy generation failed: HTTP 500")
}
