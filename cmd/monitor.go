package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/novaev/expansion/pkg/dashboard"
	"github.com/novaev/expansion/pkg/telemetry"
	"github.com/spf13/cobra"
)

// monitorCmd represents the monitor command
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Turn weekly campaign telemetry into per-region feedback.",
	Long: `Evaluate the last weekly change of a KPI for every launched region.

KPIs: CTR, CPI, Retention, Media_Sentiment, Engagement. CPI is lower-is-better.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		kpi, _ := cmd.Flags().GetString("kpi")
		output, _ := cmd.Flags().GetString("output")

		if output != "table" && output != "json" {
			return fmt.Errorf("unknown output format %q (available: table, json)", output)
		}

		metric, err := telemetry.ParseMetric(kpi)
		if err != nil {
			return err
		}

		data, err := loadData(cmd.Context())
		if err != nil {
			return err
		}

		m := dashboard.New(data.Markets, data.Telemetry)
		m.SetMetric(metric)
		feedback, err := m.Feedback()
		if err != nil {
			return err
		}

		if output == "json" {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(feedback)
		}

		chart := m.LineChart()
		fmt.Fprintln(cmd.OutOrStdout(), chart.Title)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintf(w, "REGION\t%s\tTREND\tFEEDBACK\n", strings.ToUpper(strings.Join(chart.X, "\t")))
		for i, fb := range feedback {
			var values []string
			for _, v := range chart.Series[i].Values {
				values = append(values, fmt.Sprintf("%g", v))
			}
			fmt.Fprintf(w, "%s\t%s\t%+.2f\t%s\n", fb.Region, strings.Join(values, "\t"), fb.Trend, fb.Note)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().StringP("kpi", "k", telemetry.MetricCTR.Key(), "KPI to evaluate")
	monitorCmd.Flags().StringP("output", "o", "table", "Output format: table, json")
}
