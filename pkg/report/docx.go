package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/gingfrederik/docx"
	"github.com/novaev/expansion/pkg/market"
	"github.com/novaev/expansion/pkg/prompt"
)

// StrategyReport is everything written to an exported GTM plan.
type StrategyReport struct {
	Market      market.Record
	Product     prompt.Product
	Plan        string
	Model       string
	GeneratedAt time.Time
}

// WriteStrategyDocx saves the plan and its market context as a Word document.
func WriteStrategyDocx(path string, r StrategyReport) error {
	if strings.TrimSpace(r.Plan) == "" {
		return fmt.Errorf("nothing to export: empty plan for %s", r.Market.Country)
	}

	f := docx.NewFile()

	title := f.AddParagraph().AddText("NovaEV GTM Strategy: " + r.Market.Country)
	title.Size(20)

	meta := fmt.Sprintf("Generated %s", r.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"))
	if r.Model != "" {
		meta += " | Model: " + r.Model
	}
	run := f.AddParagraph().AddText(meta)
	run.Size(10)
	run.Color("808080")
	f.AddParagraph()

	heading(f, "Market context")
	for _, line := range ContextLines(r.Market) {
		f.AddParagraph().AddText(line)
	}

	heading(f, "Product profile")
	f.AddParagraph().AddText("Type: " + r.Product.Type)
	f.AddParagraph().AddText("Price point: " + r.Product.PricePoint)
	f.AddParagraph().AddText("Target: " + r.Product.Target)

	heading(f, "Launch plan")
	for _, line := range strings.Split(r.Plan, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if h := strings.TrimLeft(line, "#"); h != line {
			heading(f, strings.TrimSpace(h))
			continue
		}
		f.AddParagraph().AddText(line)
	}

	return f.Save(path)
}

// ContextLines describes a market the same way the GTM prompt does.
func ContextLines(r market.Record) []string {
	return []string{
		fmt.Sprintf("EV Adoption Rate: %g%%", r.EVAdoption),
		fmt.Sprintf("Vehicle Import Tariffs: %g%%", r.Tariffs),
		fmt.Sprintf("Charging Infrastructure: %d stations", r.ChargingStations),
		fmt.Sprintf("Public Sentiment towards Chinese Brands: Score %g/1", r.ChinaSentiment),
		fmt.Sprintf("Market Size Index: %g / 10", r.MarketSize),
	}
}

func heading(f *docx.File, text string) {
	run := f.AddParagraph().AddText(text)
	run.Size(14)
}
