package cmd

import (
	"fmt"

	"github.com/novaev/expansion/pkg/dashboard"
	"github.com/spf13/cobra"
)

// promptCmd represents the prompt command
var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the GTM prompt for a market without calling the text-generation service.",
	RunE: func(cmd *cobra.Command, args []string) error {
		country, product := productFlags(cmd)

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
		fmt.Fprint(cmd.OutOrStdout(), p)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(promptCmd)
	addProductFlags(promptCmd)
}
