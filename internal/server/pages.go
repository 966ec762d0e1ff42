package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/novaev/expansion/internal/utils"
	"github.com/novaev/expansion/pkg/dashboard"
	"github.com/novaev/expansion/pkg/market"
	"github.com/novaev/expansion/pkg/telemetry"
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

const (
	inputClass  = "w-full bg-slate-800 border border-slate-700 rounded-md px-3 py-2 text-slate-200 focus:outline-none focus:border-cyan-500"
	buttonClass = "px-4 py-2 rounded-md bg-cyan-600 hover:bg-cyan-500 text-white text-sm font-medium transition-colors"
)

// applyDiscovery reads the priority and top query parameters into m.
// priority may be repeated or comma separated.
func applyDiscovery(m *dashboard.Model, q url.Values) error {
	var names []string
	for _, v := range q["priority"] {
		names = append(names, utils.SplitList(v)...)
	}
	sel, err := market.ParseSelection(names)
	if err != nil {
		return err
	}
	m.SetPriorities(sel)

	if raw := strings.TrimSpace(q.Get("top")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid top %q: not a number", raw)
		}
		m.SetTopN(n)
	}
	return nil
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	m := s.model()
	status := http.StatusOK
	inputErr := applyDiscovery(m, r.URL.Query())
	if inputErr != nil {
		utils.Log.Warnf("[server] rejected discovery input: %v", inputErr)
		status = http.StatusBadRequest
		m = s.model()
	}

	render(w, status, PageLayout("Market Discovery - NovaEV", Navbar("/"), DiscoveryContent(m, inputErr)))
}

// DiscoveryContent is the ranking view: priority form, top N table, bar and radar charts.
func DiscoveryContent(m *dashboard.Model, inputErr error) g.Node {
	var checkboxes []g.Node
	for _, p := range market.AllPriorities {
		id := "priority-" + p.Slug()
		checkboxes = append(checkboxes,
			Label(For(id), Class("inline-flex items-center gap-2 mr-4 mb-2 text-sm"),
				Input(Type("checkbox"), ID(id), Name("priority"), Value(p.Slug()), g.If(m.Selection().Has(p), Checked())),
				g.Text(p.Label()),
			),
		)
	}

	var topOptions []g.Node
	for n := market.MinTopN; n <= len(m.Markets()); n++ {
		topOptions = append(topOptions, Option(Value(strconv.Itoa(n)), g.If(n == m.TopN(), Selected()), g.Text(strconv.Itoa(n))))
	}

	form := Form(Method("get"), Action("/"), Class("space-y-4"),
		Div(
			P(Class("text-sm text-slate-400 mb-2"), g.Text("Select key priorities:")),
			g.Group(checkboxes),
		),
		Div(Class("flex items-end gap-4"),
			Label(For("top"), Class("text-sm text-slate-400"), g.Text("Show top N markets:"),
				Select(ID("top"), Name("top"), Class(inputClass+" mt-1"), g.Group(topOptions)),
			),
			Button(Type("submit"), Class(buttonClass), g.Text("Update ranking")),
		),
	)

	bar := m.BarChart()
	radar, showRadar := m.RadarChart()

	return Main(Class("container mx-auto mt-8 mb-16 p-4 space-y-6"),
		H1(Class("text-2xl font-bold text-white"), g.Text("Market Discovery")),
		alert(inputErr),
		section("Priorities", form),
		Div(Class("grid grid-cols-1 lg:grid-cols-3 gap-6"),
			Div(Class("lg:col-span-1"),
				section("Ranking",
					rankingTable(m.Top()),
					P(ID("headline"), Class("mt-4 text-slate-200"), g.Text(m.Headline())),
				),
			),
			Div(Class("lg:col-span-2"),
				section(bar.Title, Canvas(ID("barChart"), g.Attr("height", "220"))),
			),
		),
		g.If(showRadar,
			section("Top Market Profiles", Div(Class("max-w-2xl mx-auto"), Canvas(ID("radarChart")))),
		),
		g.If(!showRadar,
			P(Class("text-sm text-slate-500"), g.Textf("Select at least %d priorities to compare market profiles.", dashboard.MinRadarPriorities)),
		),
		barChartScript(bar),
		g.If(showRadar, radarChartScript(radar)),
	)
}

func rankingTable(rows []market.Scored) g.Node {
	th := func(label string) g.Node {
		return Th(Class("px-2 py-2 text-left text-xs font-semibold uppercase text-slate-400"), g.Text(label))
	}
	headers := []g.Node{th("Country")}
	for _, a := range dashboard.Columns() {
		headers = append(headers, th(a.Column()))
	}
	headers = append(headers, th("Score"))

	var body []g.Node
	for _, row := range rows {
		cells := []g.Node{Td(Class("px-2 py-1 font-medium text-slate-200"), g.Text(row.Country))}
		for _, a := range dashboard.Columns() {
			cells = append(cells, Td(Class("px-2 py-1 tabular-nums"), g.Text(strconv.FormatFloat(row.Value(a), 'f', -1, 64))))
		}
		cells = append(cells, Td(Class("px-2 py-1 tabular-nums text-cyan-400"), g.Text(fmt.Sprintf("%.2f", row.Score))))
		body = append(body, Tr(Class("border-t border-slate-800"), g.Group(cells)))
	}

	return Div(Class("overflow-x-auto"),
		Table(ID("ranking"), Class("min-w-full text-sm"),
			THead(Tr(g.Group(headers))),
			TBody(g.Group(body)),
		),
	)
}

func barChartScript(c dashboard.BarChart) g.Node {
	return chartScript("barChart", map[string]any{
		"type": "bar",
		"data": map[string]any{
			"labels": c.Labels,
			"datasets": []map[string]any{{
				"label":           "Priority-Weighted Score",
				"data":            c.Values,
				"backgroundColor": palette[0],
				"borderRadius":    4,
			}},
		},
		"options": map[string]any{
			"responsive": true,
			"scales":     map[string]any{"x": axisStyle, "y": axisStyle},
			"plugins":    map[string]any{"legend": map[string]any{"display": false}},
		},
	})
}

func radarChartScript(c dashboard.RadarChart) g.Node {
	datasets := make([]map[string]any, 0, len(c.Series))
	for i, s := range c.Series {
		color := palette[i%len(palette)]
		datasets = append(datasets, map[string]any{
			"label":           s.Name,
			"data":            s.Values,
			"fill":            true,
			"borderColor":     color,
			"backgroundColor": color + "33",
		})
	}
	return chartScript("radarChart", map[string]any{
		"type": "radar",
		"data": map[string]any{"labels": c.Axes, "datasets": datasets},
		"options": map[string]any{
			"responsive": true,
			"scales": map[string]any{"r": map[string]any{
				"grid":        map[string]any{"color": "#27272a"},
				"angleLines":  map[string]any{"color": "#27272a"},
				"pointLabels": map[string]any{"color": "#a1a1aa"},
			}},
			"plugins": map[string]any{"legend": map[string]any{"labels": map[string]any{"color": "#a1a1aa"}}},
		},
	})
}

func (s *Server) handleStrategyPage(w http.ResponseWriter, r *http.Request) {
	m := s.model()
	status := http.StatusOK
	var inputErr error
	if c := r.URL.Query().Get("country"); c != "" {
		if inputErr = m.SetCountry(c); inputErr != nil {
			utils.Log.Warnf("[server] rejected strategy input: %v", inputErr)
			status = http.StatusBadRequest
		}
	}
	render(w, status, PageLayout("GTM Strategy - NovaEV", Navbar("/strategy"), StrategyContent(m, inputErr)))
}

// StrategyContent is the GTM form. Generation is posted with htmx and only the
// result box is replaced.
func StrategyContent(m *dashboard.Model, inputErr error) g.Node {
	var countries []g.Node
	for _, c := range market.Countries(m.Markets()) {
		countries = append(countries, Option(Value(c), g.If(c == m.Country(), Selected()), g.Text(c)))
	}
	product := m.Product()
	field := func(id, label, value string) g.Node {
		return Label(For(id), Class("block text-sm text-slate-400"), g.Text(label),
			Input(Type("text"), ID(id), Name(id), Value(value), Class(inputClass+" mt-1")),
		)
	}

	preview, err := m.Prompt()
	if err != nil {
		preview = err.Error()
	}

	return Main(Class("container mx-auto mt-8 mb-16 p-4 space-y-6"),
		H1(Class("text-2xl font-bold text-white"), g.Text("GTM Strategy")),
		alert(inputErr),
		section("Target market & product",
			Form(ID("strategy-form"), Class("space-y-4"),
				g.Attr("hx-post", "/strategy/generate"),
				g.Attr("hx-target", "#strategy-result"),
				g.Attr("hx-indicator", "#strategy-spinner"),
				Label(For("country"), Class("block text-sm text-slate-400"), g.Text("Choose a target market:"),
					Select(ID("country"), Name("country"), Class(inputClass+" mt-1"), g.Group(countries)),
				),
				field("product_type", "Product Type", product.Type),
				field("price_point", "Price Point", product.PricePoint),
				field("target", "Target Demographic", product.Target),
				Div(Class("flex items-center gap-4"),
					Button(Type("submit"), Class(buttonClass), g.Text("Generate Strategy")),
					Span(ID("strategy-spinner"), Class("htmx-indicator text-sm text-slate-400"), g.Text("Thinking like a strategist...")),
				),
			),
		),
		Div(ID("strategy-result")),
		g.El("details", Class("text-sm"),
			g.El("summary", Class("cursor-pointer text-slate-400"), g.Text("Prompt preview")),
			Pre(ID("prompt-preview"), Class("mt-2 whitespace-pre-wrap bg-slate-900 p-4 rounded-md text-slate-300"), g.Text(preview)),
		),
	)
}

func (s *Server) handleStrategyGenerate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		render(w, http.StatusBadRequest, errorBox(err.Error()))
		return
	}
	res, err := s.generate(r.Context(), strategyRequest{
		Country:     r.PostForm.Get("country"),
		ProductType: r.PostForm.Get("product_type"),
		PricePoint:  r.PostForm.Get("price_point"),
		Target:      r.PostForm.Get("target"),
	})
	if err != nil {
		// htmx only swaps 2xx responses; the failure stays inside the result box.
		render(w, http.StatusOK, errorBox(errString(err)))
		return
	}
	render(w, http.StatusOK, StrategyResult(res))
}

// StrategyResult renders the generated plan from markdown. Raw HTML in the
// model output is dropped.
func StrategyResult(res strategyResult) g.Node {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags | mdhtml.SkipHTML})
	htmlOutput := markdown.ToHTML([]byte(res.Strategy), p, renderer)

	return Div(Class("space-y-4"),
		Div(Class("p-4 rounded-lg border border-green-500/40 bg-green-500/10 text-green-300"), g.Text("Strategy ready!")),
		Section(ID("strategy-plan"), Class("bg-slate-900/50 border border-slate-800 rounded-lg p-6 prose prose-invert max-w-none"),
			g.Raw(string(htmlOutput)),
		),
		g.If(res.Model != "", P(Class("text-xs text-slate-500"), g.Textf("Generated by %s", res.Model))),
	)
}

func (s *Server) handleMonitor(w http.ResponseWriter, r *http.Request) {
	m := s.model()
	status := http.StatusOK
	var inputErr error
	if kpi := r.URL.Query().Get("kpi"); kpi != "" {
		metric, err := telemetry.ParseMetric(kpi)
		if err != nil {
			utils.Log.Warnf("[server] rejected monitor input: %v", err)
			inputErr = err
			status = http.StatusBadRequest
		} else {
			m.SetMetric(metric)
		}
	}
	render(w, status, PageLayout("Monitor & Adapt - NovaEV", Navbar("/monitor"), MonitorContent(m, inputErr)))
}

// MonitorContent shows the weekly KPI chart and the per-region feedback.
func MonitorContent(m *dashboard.Model, inputErr error) g.Node {
	var options []g.Node
	for _, metric := range telemetry.AllMetrics {
		options = append(options, Option(Value(metric.Slug()), g.If(metric == m.Metric(), Selected()), g.Text(metric.Label())))
	}

	var items []g.Node
	feedback, err := m.Feedback()
	for _, fb := range feedback {
		items = append(items, Li(Class("py-2 border-b border-slate-800"),
			Strong(Class("text-slate-200"), g.Text(fb.Region+": ")),
			Span(Class(labelClass(fb.Label)), g.Text(fb.Note)),
			Span(Class("ml-2 text-xs text-slate-500 tabular-nums"), g.Textf("(trend %+.2f)", fb.Trend)),
		))
	}

	line := m.LineChart()

	return Main(Class("container mx-auto mt-8 mb-16 p-4 space-y-6"),
		H1(Class("text-2xl font-bold text-white"), g.Text("Monitor & Adapt")),
		alert(inputErr),
		Form(Method("get"), Action("/monitor"),
			Label(For("kpi"), Class("text-sm text-slate-400"), g.Text("Select KPI to visualize:"),
				Select(ID("kpi"), Name("kpi"), Class(inputClass+" mt-1 max-w-xs"), g.Attr("onchange", "this.form.submit()"), g.Group(options)),
			),
			g.El("noscript", Button(Type("submit"), Class(buttonClass+" ml-2"), g.Text("Show"))),
		),
		Div(Class("grid grid-cols-1 lg:grid-cols-3 gap-6"),
			Div(Class("lg:col-span-2"),
				section(line.Title, Canvas(ID("kpiChart"), g.Attr("height", "240"))),
			),
			Div(Class("lg:col-span-1"),
				section("Strategy Feedback",
					alert(err),
					Ul(ID("feedback"), g.Group(items)),
				),
			),
		),
		lineChartScript(line),
	)
}

func labelClass(l telemetry.Label) string {
	switch l {
	case telemetry.Momentum:
		return "text-green-400"
	case telemetry.Underwhelming:
		return "text-amber-400"
	}
	return "text-slate-300"
}

func lineChartScript(c dashboard.LineChart) g.Node {
	datasets := make([]map[string]any, 0, len(c.Series))
	for i, s := range c.Series {
		datasets = append(datasets, map[string]any{
			"label":       s.Name,
			"data":        s.Values,
			"borderColor": palette[i%len(palette)],
			"tension":     0.2,
		})
	}
	return chartScript("kpiChart", map[string]any{
		"type": "line",
		"data": map[string]any{"labels": c.X, "datasets": datasets},
		"options": map[string]any{
			"responsive": true,
			"scales":     map[string]any{"x": axisStyle, "y": axisStyle},
			"plugins":    map[string]any{"legend": map[string]any{"labels": map[string]any{"color": "#a1a1aa"}}},
		},
	})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	var up *upstreamError
	if errors.As(err, &up) {
		return "Strategy generation failed: " + up.Err.Error()
	}
	return err.Error()
}
