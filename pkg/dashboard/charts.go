package dashboard

import (
	"github.com/novaev/expansion/pkg/market"
	"github.com/novaev/expansion/pkg/telemetry"
)

// MinRadarPriorities is the number of selected priorities needed before the
// radar profile is shown.
const MinRadarPriorities = 3

// Series is one named line, polygon or bar group.
type Series struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// BarChart plots the score of every market in the top N view.
type BarChart struct {
	Title  string    `json:"title"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// RadarChart plots the raw selected attributes of each top N market.
type RadarChart struct {
	Axes   []string `json:"axes"`
	Series []Series `json:"series"`
}

// LineChart plots the weekly values of one metric per region.
type LineChart struct {
	Title  string   `json:"title"`
	X      []string `json:"x"`
	Series []Series `json:"series"`
}

func (m *Model) BarChart() BarChart {
	top := m.Top()
	c := BarChart{
		Title:  "Top Markets by Weighted Score",
		Labels: make([]string, 0, len(top)),
		Values: make([]float64, 0, len(top)),
	}
	for _, s := range top {
		c.Labels = append(c.Labels, s.Country)
		c.Values = append(c.Values, s.Score)
	}
	return c
}

// RadarChart returns false when fewer than MinRadarPriorities are selected.
func (m *Model) RadarChart() (RadarChart, bool) {
	attrs := m.selection.Attributes()
	if len(attrs) < MinRadarPriorities {
		return RadarChart{}, false
	}
	c := RadarChart{Axes: make([]string, 0, len(attrs))}
	for _, a := range attrs {
		c.Axes = append(c.Axes, a.Column())
	}
	for _, s := range m.Top() {
		values := make([]float64, 0, len(attrs))
		for _, a := range attrs {
			values = append(values, s.Value(a))
		}
		c.Series = append(c.Series, Series{Name: s.Country, Values: values})
	}
	return c, true
}

func (m *Model) LineChart() LineChart {
	c := LineChart{
		Title: m.metric.Label() + " by Region",
		X:     telemetry.WeekLabels(),
	}
	for _, rs := range m.telemetry {
		values := append([]float64(nil), rs.Metrics[m.metric]...)
		c.Series = append(c.Series, Series{Name: rs.Region, Values: values})
	}
	return c
}

// Columns lists the table columns in display order.
func Columns() []market.Attribute {
	return []market.Attribute{
		market.AttrEVAdoption,
		market.AttrTariffs,
		market.AttrChargingStations,
		market.AttrChinaSentiment,
		market.AttrMarketSize,
	}
}
