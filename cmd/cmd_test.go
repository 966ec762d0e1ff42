package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/novaev/expansion/pkg/ai"
	"github.com/novaev/expansion/pkg/dashboard"
	"github.com/novaev/expansion/pkg/market"
	"github.com/novaev/expansion/pkg/telemetry"
)

// run executes the root command against a throwaway config file and returns
// what was written to stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cfg := filepath.Join(t.TempDir(), "expansion.yaml")
	if err := os.WriteFile(cfg, []byte("openai:\n  api_key: \"\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OPENAI_API_KEY", "")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", cfg, "--loglevel", "error"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRankTable(t *testing.T) {
	out, err := run(t, "rank", "--priority", "ev-adoption,Market Size", "--top", "3", "--output", "table")
	if err != nil {
		t.Fatalf("rank: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 6 {
		t.Fatalf("expected header, 3 rows, blank line and headline, got %d lines:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "COUNTRY") || !strings.Contains(lines[0], "SCORE") {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if !strings.Contains(lines[1], "Norway") {
		t.Errorf("expected Norway first, got %q", lines[1])
	}
	if lines[5] != "Top-ranked market: Norway with score 33.00" {
		t.Errorf("unexpected headline: %q", lines[5])
	}
}

func TestRankJSON(t *testing.T) {
	out, err := run(t, "rank", "--priority", "ev-adoption,market-size", "--top", "3", "--output", "json")
	if err != nil {
		t.Fatalf("rank: %v", err)
	}

	var summary dashboard.RankingSummary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decoding output: %v\n%s", err, out)
	}
	if summary.TopN != 3 {
		t.Errorf("top_n = %d, want 3", summary.TopN)
	}
	if len(summary.Markets) == 0 || summary.Markets[0].Country != "Norway" {
		t.Errorf("expected Norway first, got %+v", summary.Markets)
	}
	if summary.Weights.EVAdoption != 0.4 || summary.Weights.MarketSize != 0.2 {
		t.Errorf("unexpected weights: %+v", summary.Weights)
	}
}

func TestRankRejectsInput(t *testing.T) {
	_, err := run(t, "rank", "--priority", "weather", "--top", "5", "--output", "table")
	if !errors.Is(err, market.ErrUnknownPriority) {
		t.Errorf("expected ErrUnknownPriority, got %v", err)
	}

	_, err = run(t, "rank", "--priority", "", "--top", "5", "--output", "csv")
	if err == nil || !strings.Contains(err.Error(), "unknown output format") {
		t.Errorf("expected output format error, got %v", err)
	}
}

func TestMonitor(t *testing.T) {
	out, err := run(t, "monitor", "--kpi", "cpi", "--output", "table")
	if err != nil {
		t.Fatalf("monitor: %v", err)
	}
	if !strings.HasPrefix(out, "CPI (Cost per Install) by Region\n") {
		t.Errorf("missing title:\n%s", out)
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "Norway") && !strings.Contains(line, "-3.00") {
			t.Errorf("expected Norway trend -3.00: %q", line)
		}
	}

	_, err = run(t, "monitor", "--kpi", "roas", "--output", "table")
	if !errors.Is(err, telemetry.ErrUnknownMetric) {
		t.Errorf("expected ErrUnknownMetric, got %v", err)
	}

	_, err = run(t, "monitor", "--kpi", "ctr", "--output", "csv")
	if err == nil || !strings.Contains(err.Error(), "unknown output format") {
		t.Errorf("expected output format error, got %v", err)
	}
}

func TestPrompt(t *testing.T) {
	out, err := run(t, "prompt", "--country", "india", "--target", "Ride-hailing drivers")
	if err != nil {
		t.Fatalf("prompt: %v", err)
	}
	for _, want := range []string{"the India market", "- Target: Ride-hailing drivers"} {
		if !strings.Contains(out, want) {
			t.Errorf("prompt missing %q:\n%s", want, out)
		}
	}

	_, err = run(t, "prompt", "--country", "Mars")
	if !errors.Is(err, market.ErrUnknownCountry) {
		t.Errorf("expected ErrUnknownCountry, got %v", err)
	}
}

func TestStrategyRequiresKey(t *testing.T) {
	_, err := run(t, "strategy", "--country", "Norway")
	if !errors.Is(err, ai.ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}
