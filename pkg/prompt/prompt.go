package prompt

import (
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/novaev/expansion/pkg/market"
)

// SystemMessage is sent as the system role ahead of every GTM prompt.
const SystemMessage = "You are a global marketing consultant."

// Product describes the vehicle NovaEV wants to launch.
type Product struct {
	Type       string `json:"type"`
	PricePoint string `json:"price_point"`
	Target     string `json:"target"`
}

// DefaultProduct is the profile pre-filled in every form.
func DefaultProduct() Product {
	return Product{
		Type:       "Compact urban electric car",
		PricePoint: "~$20,000 USD",
		Target:     "Urban professionals, 25–40, eco-conscious, value-focused",
	}
}

// WithDefaults fills blank fields from DefaultProduct.
func (p Product) WithDefaults() Product {
	d := DefaultProduct()
	if strings.TrimSpace(p.Type) == "" {
		p.Type = d.Type
	}
	if strings.TrimSpace(p.PricePoint) == "" {
		p.PricePoint = d.PricePoint
	}
	if strings.TrimSpace(p.Target) == "" {
		p.Target = d.Target
	}
	return p
}

const gtmTemplate = `
You are an expert global marketing consultant specializing in automotive go-to-market (GTM) strategies.
A Chinese electric vehicle company, NovaEV, wants to expand to the {{.Country}} market.

Market context data:
- EV Adoption Rate: {{.EVAdoption}}%
- Vehicle Import Tariffs: {{.Tariffs}}%
- Charging Infrastructure: {{.ChargingStations}} stations
- Public Sentiment towards Chinese Brands: Score {{.ChinaSentiment}}/1
- Market Size Index: {{.MarketSize}} / 10

NovaEV's Product Profile:
- Type: {{.ProductType}}
- Price point: {{.PricePoint}}
- Target: {{.Target}}

Generate a GTM launch plan with:
1. Entry strategy
2. Positioning & messaging
3. Key content themes
4. Influencer/media recommendations (3+)
`

var gtm = template.Must(template.New("gtm").Option("missingkey=error").Parse(gtmTemplate))

// Build renders the GTM prompt for one market and product. User text is
// inserted as-is.
func Build(r market.Record, p Product) (string, error) {
	data := map[string]string{
		"Country":          r.Country,
		"EVAdoption":       formatNumber(r.EVAdoption),
		"Tariffs":          formatNumber(r.Tariffs),
		"ChargingStations": strconv.Itoa(r.ChargingStations),
		"ChinaSentiment":   formatNumber(r.ChinaSentiment),
		"MarketSize":       formatNumber(r.MarketSize),
		"ProductType":      p.Type,
		"PricePoint":       p.PricePoint,
		"Target":           p.Target,
	}

	var sb strings.Builder
	if err := gtm.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("rendering GTM prompt for %s: %w", r.Country, err)
	}
	return sb.String(), nil
}

// formatNumber prints the shortest representation: 80 rather than 80.0.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
