package market

// Reference returns a fresh copy of the built-in eight-country table.
func Reference() []Record {
	return []Record{
		{Country: "Norway", EVAdoption: 80, Tariffs: 0, ChargingStations: 5000, ChinaSentiment: 0.8, MarketSize: 5},
		{Country: "UK", EVAdoption: 20, Tariffs: 10, ChargingStations: 700, ChinaSentiment: 0.7, MarketSize: 8},
		{Country: "Australia", EVAdoption: 8, Tariffs: 5, ChargingStations: 300, ChinaSentiment: 0.6, MarketSize: 6},
		{Country: "Germany", EVAdoption: 25, Tariffs: 10, ChargingStations: 1500, ChinaSentiment: 0.4, MarketSize: 9},
		{Country: "Mexico", EVAdoption: 3, Tariffs: 20, ChargingStations: 200, ChinaSentiment: 0.5, MarketSize: 6},
		{Country: "India", EVAdoption: 5, Tariffs: 15, ChargingStations: 400, ChinaSentiment: 0.3, MarketSize: 10},
		{Country: "Brazil", EVAdoption: 4, Tariffs: 12, ChargingStations: 350, ChinaSentiment: 0.6, MarketSize: 7},
		{Country: "Thailand", EVAdoption: 7, Tariffs: 10, ChargingStations: 220, ChinaSentiment: 0.7, MarketSize: 6},
	}
}
