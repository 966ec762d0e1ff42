// Package dashboard derives everything the three dashboard views display from
// a handful of inputs. Each input setter only invalidates the values that
// depend on it; derived values are recomputed lazily on the next read.
//
//	priorities -> weights -> ranking -> top N -> table / bar / radar
//	country, product -> prompt
//	metric -> feedback / line chart
package dashboard

import (
	"fmt"

	"github.com/novaev/expansion/pkg/market"
	"github.com/novaev/expansion/pkg/prompt"
	"github.com/novaev/expansion/pkg/telemetry"
)

// Recomputes counts how often each derived stage has been rebuilt.
type Recomputes struct {
	Weights  int
	Ranking  int
	Top      int
	Prompt   int
	Feedback int
}

// Model is not safe for concurrent use; build one per request or session.
type Model struct {
	markets   []market.Record
	telemetry telemetry.Table

	selection market.Selection
	topN      int
	country   string
	product   prompt.Product
	metric    telemetry.Metric

	weights     market.Weights
	weightsOK   bool
	ranked      []market.Scored
	rankedOK    bool
	top         []market.Scored
	topOK       bool
	prompt      string
	promptErr   error
	promptOK    bool
	feedback    []telemetry.RegionFeedback
	feedbackErr error
	feedbackOK  bool

	Recomputes Recomputes
}

// New builds a model over the given tables with default inputs: no priorities,
// the default top N, the first country, the default product and CTR.
func New(markets []market.Record, tel telemetry.Table) *Model {
	m := &Model{
		markets:   markets,
		telemetry: tel,
		selection: market.NewSelection(),
		topN:      market.ClampTopN(0, len(markets)),
		product:   prompt.DefaultProduct(),
		metric:    telemetry.MetricCTR,
	}
	if len(markets) > 0 {
		m.country = markets[0].Country
	}
	return m
}

// Markets returns the source table.
func (m *Model) Markets() []market.Record { return m.markets }

// Telemetry returns the source telemetry.
func (m *Model) Telemetry() telemetry.Table { return m.telemetry }

func (m *Model) Selection() market.Selection { return m.selection }
func (m *Model) TopN() int                   { return m.topN }
func (m *Model) Country() string             { return m.country }
func (m *Model) Product() prompt.Product     { return m.product }
func (m *Model) Metric() telemetry.Metric    { return m.metric }

// SetPriorities replaces the selection and invalidates weights, ranking and top N.
func (m *Model) SetPriorities(sel market.Selection) {
	m.selection = sel
	m.weightsOK = false
	m.rankedOK = false
	m.topOK = false
}

// SetTopN clamps n to the allowed range and invalidates only the top N view.
func (m *Model) SetTopN(n int) {
	n = market.ClampTopN(n, len(m.markets))
	if n == m.topN {
		return
	}
	m.topN = n
	m.topOK = false
}

// SetCountry selects the GTM target market.
func (m *Model) SetCountry(country string) error {
	r, err := market.Find(m.markets, country)
	if err != nil {
		return err
	}
	if r.Country != m.country {
		m.country = r.Country
		m.promptOK = false
	}
	return nil
}

// SetProduct replaces the product profile; blank fields take the defaults.
func (m *Model) SetProduct(p prompt.Product) {
	p = p.WithDefaults()
	if p == m.product {
		return
	}
	m.product = p
	m.promptOK = false
}

// SetMetric selects the KPI evaluated on the monitor view.
func (m *Model) SetMetric(metric telemetry.Metric) {
	if metric == m.metric && m.feedbackOK {
		return
	}
	m.metric = metric
	m.feedbackOK = false
}

func (m *Model) Weights() market.Weights {
	if !m.weightsOK {
		m.weights = market.ComputeWeights(m.selection)
		m.weightsOK = true
		m.Recomputes.Weights++
	}
	return m.weights
}

// Ranking is the full table ordered by score.
func (m *Model) Ranking() []market.Scored {
	if !m.rankedOK {
		m.ranked = market.Rank(m.markets, m.Weights())
		m.rankedOK = true
		m.Recomputes.Ranking++
	}
	return m.ranked
}

// Top is the ranking truncated to the current top N.
func (m *Model) Top() []market.Scored {
	if !m.topOK {
		m.top = market.TopN(m.Ranking(), m.topN)
		m.topOK = true
		m.Recomputes.Top++
	}
	return m.top
}

// Leader returns the highest ranked market; ok is false for an empty table.
func (m *Model) Leader() (market.Scored, bool) {
	ranked := m.Ranking()
	if len(ranked) == 0 {
		return market.Scored{}, false
	}
	return ranked[0], true
}

// Headline is the one-line summary of the leader.
func (m *Model) Headline() string {
	leader, ok := m.Leader()
	if !ok {
		return "No markets loaded."
	}
	return fmt.Sprintf("Top-ranked market: %s with score %.2f", leader.Country, leader.Score)
}

// Prompt renders the GTM prompt for the current country and product.
func (m *Model) Prompt() (string, error) {
	if !m.promptOK {
		r, err := market.Find(m.markets, m.country)
		if err == nil {
			m.prompt, err = prompt.Build(r, m.product)
		}
		m.promptErr = err
		m.promptOK = true
		m.Recomputes.Prompt++
	}
	return m.prompt, m.promptErr
}

// Feedback evaluates the current metric for every region.
func (m *Model) Feedback() ([]telemetry.RegionFeedback, error) {
	if !m.feedbackOK {
		m.feedback, m.feedbackErr = telemetry.Feedback(m.telemetry, m.metric)
		m.feedbackOK = true
		m.Recomputes.Feedback++
	}
	return m.feedback, m.feedbackErr
}

// RankingSummary is the serialisable form of the ranking view.
type RankingSummary struct {
	Priorities []string        `json:"priorities"`
	Weights    market.Weights  `json:"weights"`
	TopN       int             `json:"top_n"`
	Headline   string          `json:"headline"`
	Markets    []market.Scored `json:"markets"`
}

func (m *Model) Summary() RankingSummary {
	return RankingSummary{
		Priorities: m.selection.Slugs(),
		Weights:    m.Weights(),
		TopN:       m.topN,
		Headline:   m.Headline(),
		Markets:    m.Top(),
	}
}
