package cmd

import (
	"fmt"
	"time"

	"github.com/novaev/expansion/internal/utils"
	"github.com/novaev/expansion/pkg/dashboard"
	"github.com/novaev/expansion/pkg/market"
	"github.com/novaev/expansion/pkg/report"
	"github.com/spf13/cobra"
)

// strategyCmd represents the strategy command
var strategyCmd = &cobra.Command{
	Use:   "strategy",
	Short: "Generate a GTM launch plan for a market.",
	Long: `Generate a GTM launch plan for a market with the configured text-generation
service. Requires openai.api_key in the config file or OPENAI_API_KEY.`,
	Example: `  expansion strategy --country Norway
  expansion strategy -c Germany --price "~€25,000" --docx germany.docx`,
	RunE: func(cmd *cobra.Command, args []string) error {
		country, product := productFlags(cmd)
		docxPath, _ := cmd.Flags().GetString("docx")

		strategist, err := newStrategist()
		if err != nil {
			return err
		}

		data, err := loadData(cmd.Context())
		if err != nil {
			return err
		}

		m := dashboard.New(data.Markets, data.Telemetry)
		if err := m.SetCountry(country); err != nil {
			return err
		}
		m.SetProduct(product)
		p, err := m.Prompt()
		if err != nil {
			return err
		}

		utils.Log.Infof("Generating GTM strategy for %s...", m.Country())
		st, err := strategist.GenerateStrategy(cmd.Context(), p)
		if err != nil {
			return fmt.Errorf("generating strategy for %s: %w", m.Country(), err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), st.Content)

		if docxPath != "" {
			record, _ := market.Find(m.Markets(), m.Country())
			err := report.WriteStrategyDocx(docxPath, report.StrategyReport{
				Market:      record,
				Product:     m.Product(),
				Plan:        st.Content,
				Model:       st.Model,
				GeneratedAt: time.Now(),
			})
			if err != nil {
				return fmt.Errorf("writing %s: %w", docxPath, err)
			}
			utils.Log.Infof("Strategy saved to %s", docxPath)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(strategyCmd)
	addProductFlags(strategyCmd)
	strategyCmd.Flags().String("docx", "", "Also save the plan as a Word document at this path")
}
