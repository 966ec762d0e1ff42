package telemetry

import (
	"errors"
	"fmt"
	"strings"
)

// Metric is one of the five tracked marketing KPIs.
type Metric int

const (
	MetricCTR Metric = iota
	MetricCPI
	MetricRetention
	MetricMediaSentiment
	MetricEngagement
)

// AllMetrics lists the KPIs in selector order.
var AllMetrics = []Metric{MetricCTR, MetricCPI, MetricRetention, MetricMediaSentiment, MetricEngagement}

// Weeks is the number of observations kept per series.
const Weeks = 4

var (
	ErrUnknownMetric = errors.New("unknown metric")
	ErrShortSeries   = errors.New("series needs at least two observations")
)

// Polarity tells whether a rising value is good news.
type Polarity int

const (
	HigherIsBetter Polarity = iota
	LowerIsBetter
)

// Key is the column name of the metric in the telemetry table.
func (m Metric) Key() string {
	switch m {
	case MetricCTR:
		return "CTR"
	case MetricCPI:
		return "CPI"
	case MetricRetention:
		return "Retention"
	case MetricMediaSentiment:
		return "Media_Sentiment"
	case MetricEngagement:
		return "Engagement"
	}
	return fmt.Sprintf("Metric(%d)", int(m))
}

// Label is the name shown in the KPI selector and chart titles.
func (m Metric) Label() string {
	switch m {
	case MetricCTR:
		return "CTR (Click Through Rate)"
	case MetricCPI:
		return "CPI (Cost per Install)"
	case MetricMediaSentiment:
		return "Media Sentiment"
	}
	return m.Key()
}

// Slug is the lowercase identifier used in flags and query strings.
func (m Metric) Slug() string {
	return strings.ReplaceAll(strings.ToLower(m.Key()), "_", "-")
}

func (m Metric) String() string { return m.Key() }

func (m Metric) Polarity() Polarity {
	if m == MetricCPI {
		return LowerIsBetter
	}
	return HigherIsBetter
}

// ParseMetric accepts the key, the label or the slug, case-insensitively.
func ParseMetric(s string) (Metric, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for _, m := range AllMetrics {
		if needle == strings.ToLower(m.Key()) || needle == strings.ToLower(m.Label()) || needle == m.Slug() {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMetric, s)
}

// Label is the categorical feedback for one region.
type Label int

const (
	Stable Label = iota
	Momentum
	Underwhelming
)

func (l Label) String() string {
	switch l {
	case Momentum:
		return "momentum"
	case Underwhelming:
		return "underwhelming"
	}
	return "stable"
}

// Note is the advice attached to each label.
func (l Label) Note() string {
	switch l {
	case Momentum:
		return "Great momentum – double down on current messaging."
	case Underwhelming:
		return "Underwhelming – revise creative and reassess influencers."
	}
	return "Stable – maintain course, watch for regional shifts."
}

// MarshalText lets labels appear as words in JSON.
func (l Label) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Trend is the delta between the last two observations.
func Trend(series []float64) (float64, error) {
	n := len(series)
	if n < 2 {
		return 0, ErrShortSeries
	}
	return series[n-1] - series[n-2], nil
}

// Classify maps a trend to a label using the metric's polarity.
func Classify(m Metric, trend float64) Label {
	switch m.Polarity() {
	case LowerIsBetter:
		switch {
		case trend < -2:
			return Momentum
		case trend > 1:
			return Underwhelming
		}
	default:
		switch {
		case trend > 0.3:
			return Momentum
		case trend < 0.1:
			return Underwhelming
		}
	}
	return Stable
}
