package market

import "sort"

const (
	// Stations are divided and sentiment multiplied so every term lands in a
	// comparable 0-40 range before weighting.
	stationsDivisor   = 100.0
	sentimentMultiple = 10.0

	DefaultTopN = 5
	MinTopN     = 3
)

// Weights holds one coefficient per scored attribute.
type Weights struct {
	EVAdoption       float64 `json:"ev_adoption"`
	Tariffs          float64 `json:"tariffs"`
	ChargingStations float64 `json:"charging_stations"`
	ChinaSentiment   float64 `json:"china_sentiment"`
	MarketSize       float64 `json:"market_size"`
}

// coefficient is the fixed weight a priority contributes when selected.
func (p Priority) coefficient() float64 {
	switch p {
	case PriorityEVAdoption:
		return 0.4
	case PriorityLowTariffs:
		return -0.2
	case PriorityInfrastructure, PriorityChinaSentiment, PriorityMarketSize:
		return 0.2
	}
	return 0
}

// ComputeWeights derives the weight vector for a selection. Unselected
// priorities contribute zero; there is no normalization.
func ComputeWeights(sel Selection) Weights {
	var w Weights
	for p := range sel {
		c := p.coefficient()
		switch p.Attribute() {
		case AttrEVAdoption:
			w.EVAdoption = c
		case AttrTariffs:
			w.Tariffs = c
		case AttrChargingStations:
			w.ChargingStations = c
		case AttrChinaSentiment:
			w.ChinaSentiment = c
		case AttrMarketSize:
			w.MarketSize = c
		}
	}
	return w
}

// Get returns the coefficient for attribute a.
func (w Weights) Get(a Attribute) float64 {
	switch a {
	case AttrEVAdoption:
		return w.EVAdoption
	case AttrTariffs:
		return w.Tariffs
	case AttrChargingStations:
		return w.ChargingStations
	case AttrChinaSentiment:
		return w.ChinaSentiment
	case AttrMarketSize:
		return w.MarketSize
	}
	return 0
}

// Score is the linear weighted sum of the scaled attributes. Terms are added
// in a fixed order so results are bit-identical across runs.
func Score(r Record, w Weights) float64 {
	return r.EVAdoption*w.EVAdoption +
		r.Tariffs*w.Tariffs +
		float64(r.ChargingStations)/stationsDivisor*w.ChargingStations +
		r.ChinaSentiment*sentimentMultiple*w.ChinaSentiment +
		r.MarketSize*w.MarketSize
}

// Rank scores every record and orders them by score, highest first. Equal
// scores keep their input order. records is not modified.
func Rank(records []Record, w Weights) []Scored {
	out := make([]Scored, len(records))
	for i, r := range records {
		out[i] = Scored{Record: r, Score: Score(r, w)}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// TopN returns the first n ranked records, or all of them when n exceeds the length.
func TopN(ranked []Scored, n int) []Scored {
	if n <= 0 {
		return []Scored{}
	}
	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n:n]
}

// ClampTopN bounds a user supplied n to [MinTopN, total]. Zero selects the default.
func ClampTopN(n, total int) int {
	if n == 0 {
		n = DefaultTopN
	}
	if n > total {
		n = total
	}
	if n < MinTopN {
		n = MinTopN
	}
	return n
}
