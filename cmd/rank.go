package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/novaev/expansion/internal/utils"
	"github.com/novaev/expansion/pkg/dashboard"
	"github.com/novaev/expansion/pkg/market"
	"github.com/spf13/cobra"
)

// rankCmd represents the rank command
var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank candidate markets by a priority-weighted score.",
	Long: `Rank candidate markets by a priority-weighted score.

Priorities (comma separated, label or slug): ev-adoption, low-import-tariffs,
strong-infrastructure, positive-china-sentiment, market-size.`,
	Example: `  expansion rank --priority ev-adoption,market-size --top 3
  expansion rank -p "Low Import Tariffs,Strong Infrastructure" -o json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		priorities, _ := cmd.Flags().GetString("priority")
		top, _ := cmd.Flags().GetInt("top")
		output, _ := cmd.Flags().GetString("output")

		if output != "table" && output != "json" {
			return fmt.Errorf("unknown output format %q (available: table, json)", output)
		}

		sel, err := market.ParseSelection(utils.SplitList(priorities))
		if err != nil {
			return err
		}

		data, err := loadData(cmd.Context())
		if err != nil {
			return err
		}

		m := dashboard.New(data.Markets, data.Telemetry)
		m.SetPriorities(sel)
		m.SetTopN(top)

		if output == "json" {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(m.Summary())
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprint(w, "#\tCOUNTRY\t")
		for _, a := range dashboard.Columns() {
			fmt.Fprintf(w, "%s\t", a.Column())
		}
		fmt.Fprintln(w, "SCORE\t")

		for i, r := range m.Top() {
			fmt.Fprintf(w, "%d\t%s\t", i+1, r.Country)
			for _, a := range dashboard.Columns() {
				fmt.Fprintf(w, "%g\t", r.Value(a))
			}
			fmt.Fprintf(w, "%.2f\t\n", r.Score)
		}
		w.Flush()

		fmt.Fprintln(cmd.OutOrStdout())
		fmt.Fprintln(cmd.OutOrStdout(), m.Headline())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().StringP("priority", "p", "", "Comma separated priorities to weight")
	rankCmd.Flags().IntP("top", "t", market.DefaultTopN, "Number of markets to show (min 3)")
	rankCmd.Flags().StringP("output", "o", "table", "Output format: table, json")
}
