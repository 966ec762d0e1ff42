package market

import (
	"errors"
	"fmt"
	"strings"
)

// Record is one row of the country reference table.
type Record struct {
	Country          string  `json:"country"`
	EVAdoption       float64 `json:"ev_adoption"`
	Tariffs          float64 `json:"tariffs"`
	ChargingStations int     `json:"charging_stations"`
	ChinaSentiment   float64 `json:"china_sentiment"`
	MarketSize       float64 `json:"market_size"`
}

// Scored is a Record together with the score computed for one weight vector.
type Scored struct {
	Record
	Score float64 `json:"score"`
}

var ErrUnknownCountry = errors.New("unknown country")

// Attribute names a scored column of the reference table.
type Attribute int

const (
	AttrEVAdoption Attribute = iota
	AttrTariffs
	AttrChargingStations
	AttrChinaSentiment
	AttrMarketSize
)

// Column returns the column name used in tables and exports.
func (a Attribute) Column() string {
	switch a {
	case AttrEVAdoption:
		return "EV_Adoption"
	case AttrTariffs:
		return "Tariffs"
	case AttrChargingStations:
		return "Charging_Stations"
	case AttrChinaSentiment:
		return "China_Sentiment"
	case AttrMarketSize:
		return "Market_Size"
	}
	return fmt.Sprintf("Attribute(%d)", int(a))
}

// Value returns the raw, unscaled value of attribute a.
func (r Record) Value(a Attribute) float64 {
	switch a {
	case AttrEVAdoption:
		return r.EVAdoption
	case AttrTariffs:
		return r.Tariffs
	case AttrChargingStations:
		return float64(r.ChargingStations)
	case AttrChinaSentiment:
		return r.ChinaSentiment
	case AttrMarketSize:
		return r.MarketSize
	}
	return 0
}

// Validate checks the documented ranges of every attribute.
func (r Record) Validate() error {
	switch {
	case strings.TrimSpace(r.Country) == "":
		return errors.New("country is empty")
	case r.EVAdoption < 0 || r.EVAdoption > 100:
		return fmt.Errorf("%s: EV adoption %v out of range 0-100", r.Country, r.EVAdoption)
	case r.Tariffs < 0:
		return fmt.Errorf("%s: negative tariffs %v", r.Country, r.Tariffs)
	case r.ChargingStations < 0:
		return fmt.Errorf("%s: negative charging stations %d", r.Country, r.ChargingStations)
	case r.ChinaSentiment < 0 || r.ChinaSentiment > 1:
		return fmt.Errorf("%s: sentiment %v out of range 0-1", r.Country, r.ChinaSentiment)
	case r.MarketSize < 0 || r.MarketSize > 10:
		return fmt.Errorf("%s: market size %v out of range 0-10", r.Country, r.MarketSize)
	}
	return nil
}

// ValidateTable validates every record and rejects duplicate countries.
func ValidateTable(records []Record) error {
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return err
		}
		key := strings.ToLower(r.Country)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate country %q", r.Country)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// Find returns the record for country, matched case-insensitively.
func Find(records []Record, country string) (Record, error) {
	want := strings.TrimSpace(country)
	for _, r := range records {
		if strings.EqualFold(r.Country, want) {
			return r, nil
		}
	}
	return Record{}, fmt.Errorf("%w: %q", ErrUnknownCountry, country)
}

// Countries lists the country names in table order.
func Countries(records []Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Country)
	}
	return out
}
