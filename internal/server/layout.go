package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/novaev/expansion/internal/utils"
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

const chartJS = "https://cdn.jsdelivr.net/npm/chart.js@4/dist/chart.umd.min.js"

var palette = []string{"#06b6d4", "#3b82f6", "#8b5cf6", "#f97316", "#eab308", "#22c55e", "#ef4444", "#ec4899"}

// PageLayout wraps content in the shared head, navbar and footer.
func PageLayout(title string, navbar g.Node, content g.Node) g.Node {
	return g.Group([]g.Node{
		g.Raw("<!DOCTYPE html>"),
		HTML(g.Attr("lang", "en"),
			Head(
				Meta(Charset("UTF-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1.0")),
				TitleEl(g.Text(title)),
				Link(Rel("preconnect"), Href("https://fonts.googleapis.com")),
				Link(Rel("stylesheet"), Href("https://fonts.googleapis.com/css2?family=Inter:wght@400;500;600;700&display=swap")),
				Script(Src("https://cdn.tailwindcss.com?plugins=typography")),
				Script(Src("https://unpkg.com/htmx.org@2.0.4")),
				Script(Src(chartJS)),
				Script(g.Raw(`tailwind.config={theme:{extend:{fontFamily:{sans:['Inter','ui-sans-serif','system-ui','sans-serif']}}}}`)),
				StyleEl(g.Raw(`
					::selection { background: #0891b2; color: white; }
					.htmx-indicator { display: none; }
					.htmx-request .htmx-indicator, .htmx-request.htmx-indicator { display: inline; }
				`)),
			),
			Body(Class("bg-slate-950 font-sans antialiased flex flex-col min-h-screen text-slate-300"),
				navbar,
				Div(Class("flex-grow"), content),
				FooterEl(),
			),
		),
	})
}

// Navbar renders the three dashboard tabs.
func Navbar(currentPath string) g.Node {
	navLink := func(href, label string) g.Node {
		base := "inline-block transition-all duration-200 px-3 py-2 rounded-md text-sm font-medium "
		if currentPath == href {
			base += "text-cyan-400 bg-cyan-400/10"
		} else {
			base += "text-slate-400 hover:text-white hover:bg-slate-800/50"
		}
		return A(Href(href), Class(base), g.Text(label))
	}

	return Nav(Class("bg-slate-900/80 text-white p-4 shadow-lg sticky top-0 z-50 border-b border-slate-700/50"),
		Div(Class("container mx-auto flex flex-wrap justify-between items-center gap-2"),
			A(Href("/"), Class("text-xl font-bold tracking-tight hover:text-cyan-400"), g.Text("NovaEV Global Expansion")),
			Div(Class("flex space-x-1"),
				navLink("/", "Market Discovery"),
				navLink("/strategy", "GTM Strategy"),
				navLink("/monitor", "Monitor & Adapt"),
			),
		),
	)
}

func FooterEl() g.Node {
	return Footer(Class("border-t border-slate-800 py-6 text-center text-xs text-slate-500"),
		g.Text("NovaEV market expansion dashboard. Market data and telemetry are illustrative."),
	)
}

func section(title string, children ...g.Node) g.Node {
	return Div(Class("p-6 bg-slate-900/50 border border-slate-800 rounded-xl"),
		H2(Class("text-lg font-semibold text-slate-200 mb-4"), g.Text(title)),
		g.Group(children),
	)
}

func errorBox(msg string) g.Node {
	return Div(Class("p-4 rounded-lg border border-red-500/40 bg-red-500/10 text-red-300"), g.Attr("role", "alert"),
		Strong(g.Text("Error: ")), g.Text(msg),
	)
}

// alert renders an error box for err, or nothing when err is nil.
func alert(err error) g.Node {
	if err == nil {
		return g.Group(nil)
	}
	return errorBox(errString(err))
}

// chartScript renders a Chart.js initialisation for the canvas with the given id.
func chartScript(canvasID string, config map[string]any) g.Node {
	data, err := json.Marshal(config)
	if err != nil {
		utils.Log.Errorf("[server] encoding chart %s: %v", canvasID, err)
		return g.Group(nil)
	}
	return Script(g.Raw(fmt.Sprintf(`new Chart(document.getElementById('%s'), %s);`, canvasID, data)))
}

var axisStyle = map[string]any{
	"ticks": map[string]any{"color": "#a1a1aa"},
	"grid":  map[string]any{"color": "#27272a"},
}

func render(w http.ResponseWriter, status int, node g.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := node.Render(w); err != nil {
		utils.Log.Errorf("[server] render: %v", err)
	}
}
