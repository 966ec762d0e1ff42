package telemetry

import (
	"fmt"
	"strconv"
)

// RegionSeries holds every metric series of one region.
type RegionSeries struct {
	Region  string
	Metrics map[Metric][]float64
}

// Table is the per-region telemetry, in display order.
type Table []RegionSeries

// RegionFeedback is the evaluated feedback of a single region.
type RegionFeedback struct {
	Region string  `json:"region"`
	Trend  float64 `json:"trend"`
	Label  Label   `json:"label"`
	Note   string  `json:"note"`
}

// Reference returns the built-in mocked telemetry.
func Reference() Table {
	return Table{
		{Region: "Norway", Metrics: map[Metric][]float64{
			MetricCTR:            {1.2, 1.5, 1.8, 2.2},
			MetricCPI:            {20, 18, 15, 12},
			MetricRetention:      {30, 35, 40, 42},
			MetricMediaSentiment: {0.2, 0.25, 0.3, 0.35},
			MetricEngagement:     {100, 120, 140, 160},
		}},
		{Region: "UK", Metrics: map[Metric][]float64{
			MetricCTR:            {1.0, 1.2, 1.3, 1.4},
			MetricCPI:            {25, 24, 23, 22},
			MetricRetention:      {25, 28, 30, 32},
			MetricMediaSentiment: {0.1, 0.15, 0.18, 0.2},
			MetricEngagement:     {90, 95, 100, 105},
		}},
		{Region: "Germany", Metrics: map[Metric][]float64{
			MetricCTR:            {0.8, 0.9, 1.0, 1.1},
			MetricCPI:            {30, 29, 28, 27},
			MetricRetention:      {20, 22, 25, 26},
			MetricMediaSentiment: {0.15, 0.17, 0.18, 0.2},
			MetricEngagement:     {80, 85, 87, 90},
		}},
	}
}

// WeekLabels returns "Week 1" .. "Week N".
func WeekLabels() []string {
	out := make([]string, Weeks)
	for i := range out {
		out[i] = "Week " + strconv.Itoa(i+1)
	}
	return out
}

// Validate requires every region to carry all metrics with exactly Weeks points.
func (t Table) Validate() error {
	seen := make(map[string]struct{}, len(t))
	for _, rs := range t {
		if rs.Region == "" {
			return fmt.Errorf("telemetry region without a name")
		}
		if _, dup := seen[rs.Region]; dup {
			return fmt.Errorf("duplicate telemetry region %q", rs.Region)
		}
		seen[rs.Region] = struct{}{}
		for _, m := range AllMetrics {
			if got := len(rs.Metrics[m]); got != Weeks {
				return fmt.Errorf("%s/%s: expected %d observations, got %d", rs.Region, m.Key(), Weeks, got)
			}
		}
	}
	return nil
}

// Feedback evaluates metric m for every region in table order.
func Feedback(t Table, m Metric) ([]RegionFeedback, error) {
	out := make([]RegionFeedback, 0, len(t))
	for _, rs := range t {
		trend, err := Trend(rs.Metrics[m])
		if err != nil {
			return nil, fmt.Errorf("%s/%s: %w", rs.Region, m.Key(), err)
		}
		label := Classify(m, trend)
		out = append(out, RegionFeedback{
			Region: rs.Region,
			Trend:  trend,
			Label:  label,
			Note:   label.Note(),
		})
	}
	return out, nil
}
