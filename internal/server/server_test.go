package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/novaev/expansion/pkg/ai"
	"github.com/novaev/expansion/pkg/dashboard"
	"github.com/novaev/expansion/pkg/dataset"
)

type fakeStrategist struct {
	mu      sync.Mutex
	content string
	err     error
	prompts []string
}

func (f *fakeStrategist) GenerateStrategy(ctx context.Context, userPrompt string) (ai.Strategy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, userPrompt)
	if f.err != nil {
		return ai.Strategy{}, f.err
	}
	return ai.Strategy{Content: f.content, Model: "gpt-4", ResponseID: "chatcmpl-1", TotalTokens: 42}, nil
}

func newTestServer(t *testing.T, st ai.Strategist) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(New(dataset.Reference(), st, "", "").Handler())
	t.Cleanup(ts.Close)
	return ts
}

func getDoc(t *testing.T, rawURL string, wantStatus int) *goquery.Document {
	t.Helper()
	resp, err := http.Get(rawURL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s: expected %d, got %d", rawURL, wantStatus, resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestDiscoveryPage(t *testing.T) {
	ts := newTestServer(t, nil)
	doc := getDoc(t, ts.URL+"/?priority=ev-adoption&priority=market-size&top=3", http.StatusOK)

	if got := doc.Find("#ranking tbody tr").Length(); got != 3 {
		t.Fatalf("expected 3 ranking rows, got %d", got)
	}
	if got := doc.Find("#ranking tbody tr").First().Find("td").First().Text(); got != "Norway" {
		t.Fatalf("expected Norway first, got %q", got)
	}
	if got := doc.Find("#headline").Text(); got != "Top-ranked market: Norway with score 33.00" {
		t.Fatalf("unexpected headline %q", got)
	}
	if _, ok := doc.Find("#priority-ev-adoption").Attr("checked"); !ok {
		t.Error("selected priority should stay checked")
	}
	if doc.Find("#barChart").Length() != 1 {
		t.Error("bar chart missing")
	}
	if doc.Find("#radarChart").Length() != 0 {
		t.Error("radar chart should be hidden below three priorities")
	}
}

func TestDiscoveryRadarWithThreePriorities(t *testing.T) {
	ts := newTestServer(t, nil)
	doc := getDoc(t, ts.URL+"/?priority=ev-adoption,strong-infrastructure,market-size", http.StatusOK)
	if doc.Find("#radarChart").Length() != 1 {
		t.Fatal("radar chart should be shown")
	}
}

func TestDiscoveryRejectsUnknownPriority(t *testing.T) {
	ts := newTestServer(t, nil)
	doc := getDoc(t, ts.URL+"/?priority=cheap-labour", http.StatusBadRequest)
	if !strings.Contains(doc.Find("[role=alert]").Text(), "unknown priority") {
		t.Fatalf("expected unknown priority error, got %q", doc.Find("[role=alert]").Text())
	}
	if doc.Find("#ranking").Length() != 1 {
		t.Fatal("page should still render with defaults")
	}
}

func TestMarketsAPI(t *testing.T) {
	ts := newTestServer(t, nil)
	resp, err := http.Get(ts.URL + "/api/markets?priority=EV%20Adoption,Low%20Import%20Tariffs,Strong%20Infrastructure,Positive%20China%20Sentiment,Market%20Size&top=8")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body dashboard.RankingSummary
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Markets) != 8 || body.TopN != 8 {
		t.Fatalf("expected 8 markets, got %d (top_n %d)", len(body.Markets), body.TopN)
	}
	if body.Markets[0].Country != "Norway" {
		t.Fatalf("expected Norway first, got %s", body.Markets[0].Country)
	}
	if body.Weights.Tariffs != -0.2 || body.Weights.EVAdoption != 0.4 {
		t.Fatalf("unexpected weights %+v", body.Weights)
	}
	if len(body.Priorities) != 5 {
		t.Fatalf("expected 5 priorities, got %v", body.Priorities)
	}
}

func TestMarketsAPIBadInput(t *testing.T) {
	ts := newTestServer(t, nil)
	for _, q := range []string{"priority=nope", "top=many"} {
		resp, err := http.Get(ts.URL + "/api/markets?" + q)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", q, resp.StatusCode)
		}
	}
}

func TestTelemetryAPI(t *testing.T) {
	ts := newTestServer(t, nil)
	resp, err := http.Get(ts.URL + "/api/telemetry?kpi=cpi")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body struct {
		Metric  string `json:"metric"`
		Regions []struct {
			Region string `json:"region"`
			Label  string `json:"label"`
		} `json:"regions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Metric != "CPI" || len(body.Regions) != 3 {
		t.Fatalf("unexpected body %+v", body)
	}
	want := map[string]string{"Norway": "momentum", "UK": "stable", "Germany": "stable"}
	for _, r := range body.Regions {
		if want[r.Region] != r.Label {
			t.Errorf("%s: expected %s, got %s", r.Region, want[r.Region], r.Label)
		}
	}
}

func TestMonitorPage(t *testing.T) {
	ts := newTestServer(t, nil)
	doc := getDoc(t, ts.URL+"/monitor?kpi=ctr", http.StatusOK)
	items := doc.Find("#feedback li")
	if items.Length() != 3 {
		t.Fatalf("expected 3 regions, got %d", items.Length())
	}
	if !strings.Contains(items.First().Text(), "Norway: Great momentum") {
		t.Fatalf("unexpected first item %q", items.First().Text())
	}
	if v, _ := doc.Find("#kpi option[selected]").Attr("value"); v != "ctr" {
		t.Fatalf("expected ctr selected, got %q", v)
	}

	getDoc(t, ts.URL+"/monitor?kpi=bounce-rate", http.StatusBadRequest)
}

func TestPagesRenderWithoutError(t *testing.T) {
	ts := newTestServer(t, nil)
	for _, path := range []string{"/", "/strategy", "/monitor"} {
		doc := getDoc(t, ts.URL+path, http.StatusOK)
		if n := doc.Find("[role=alert]").Length(); n != 0 {
			t.Errorf("GET %s: unexpected error box %q", path, doc.Find("[role=alert]").Text())
		}
	}
	if got := errString(nil); got != "" {
		t.Errorf("errString(nil) = %q, want empty", got)
	}
}

func TestStrategyPage(t *testing.T) {
	ts := newTestServer(t, nil)
	doc := getDoc(t, ts.URL+"/strategy?country=Germany", http.StatusOK)

	if v, _ := doc.Find("#country option[selected]").Attr("value"); v != "Germany" {
		t.Fatalf("expected Germany selected, got %q", v)
	}
	if got := doc.Find("#country option").Length(); got != 8 {
		t.Errorf("expected 8 countries, got %d", got)
	}
	if !strings.Contains(doc.Find("#prompt-preview").Text(), "the Germany market") {
		t.Errorf("prompt preview does not target Germany:\n%s", doc.Find("#prompt-preview").Text())
	}
	if _, ok := doc.Find("#strategy-form").Attr("hx-post"); !ok {
		t.Error("strategy form should post with htmx")
	}
}

func TestStrategyPageRejectsUnknownCountry(t *testing.T) {
	ts := newTestServer(t, nil)
	doc := getDoc(t, ts.URL+"/strategy?country=Atlantis", http.StatusBadRequest)
	if !strings.Contains(doc.Find("[role=alert]").Text(), "unknown country") {
		t.Fatalf("expected unknown country error, got %q", doc.Find("[role=alert]").Text())
	}
	if doc.Find("#strategy-form").Length() != 1 {
		t.Fatal("form should still render")
	}
}

func TestStrategyGenerateFragment(t *testing.T) {
	st := &fakeStrategist{content: "## Entry strategy\nPartner with <b>local</b> dealers."}
	ts := newTestServer(t, st)

	form := url.Values{"country": {"Germany"}, "product_type": {"Electric SUV"}}
	resp, err := http.PostForm(ts.URL+"/strategy/generate", form)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		t.Fatal(err)
	}

	if got := doc.Find("#strategy-plan h2").Text(); got != "Entry strategy" {
		t.Fatalf("expected rendered heading, got %q", got)
	}
	if doc.Find("#strategy-plan b").Length() != 0 {
		t.Fatal("raw HTML from the model must not be rendered")
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if len(st.prompts) != 1 {
		t.Fatalf("expected one call, got %d", len(st.prompts))
	}
	if !strings.Contains(st.prompts[0], "the Germany market") || !strings.Contains(st.prompts[0], "- Type: Electric SUV") {
		t.Fatalf("unexpected prompt:\n%s", st.prompts[0])
	}
}

func TestStrategyGenerateUpstreamFailure(t *testing.T) {
	ts := newTestServer(t, &fakeStrategist{err: errors.New("openai: rate limited")})

	resp, err := http.PostForm(ts.URL+"/strategy/generate", url.Values{"country": {"UK"}})
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("fragment should be swappable, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "Strategy generation failed: openai: rate limited") {
		t.Fatalf("expected error box, got %s", body)
	}
}

func TestStrategyAPI(t *testing.T) {
	ts := newTestServer(t, &fakeStrategist{content: "plan"})

	post := func(body string) (*http.Response, map[string]interface{}) {
		resp, err := http.Post(ts.URL+"/api/strategy", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		var out map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&out)
		return resp, out
	}

	resp, out := post(`{"country":"norway"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", resp.StatusCode, out)
	}
	if out["country"] != "Norway" || out["strategy"] != "plan" || out["model"] != "gpt-4" {
		t.Fatalf("unexpected body %v", out)
	}

	if resp, _ := post(`{"country":"Atlantis"}`); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown country: expected 400, got %d", resp.StatusCode)
	}
	if resp, _ := post(`{`); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad json: expected 400, got %d", resp.StatusCode)
	}
}

func TestStrategyAPIUpstreamError(t *testing.T) {
	ts := newTestServer(t, &fakeStrategist{err: errors.New("boom")})
	resp, err := http.Post(ts.URL+"/api/strategy", "application/json", strings.NewReader(`{"country":"UK"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
}

func TestBasicAuth(t *testing.T) {
	ts := httptest.NewServer(New(dataset.Reference(), nil, "admin", "secret").Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/", nil)
	req.SetBasicAuth("admin", "secret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with credentials, got %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz should not require auth, got %d", resp.StatusCode)
	}
}

func TestRequestIDAndMetrics(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("expected generated request id")
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("expected caller id to be kept, got %q", got)
	}

	resp, err = http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `http_requests_total{route="/healthz",status="200"} 2`) {
		t.Fatalf("expected healthz counter in metrics:\n%s", body)
	}
}
