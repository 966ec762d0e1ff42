package cmd

import (
	"github.com/novaev/expansion/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// webCmd represents the web command
var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Start the expansion dashboard web interface",
	Long:  `Start a web server with the market discovery, GTM strategy and monitoring views.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		strategist, err := newStrategist()
		if err != nil {
			return err
		}

		data, err := loadData(cmd.Context())
		if err != nil {
			return err
		}

		// Auth
		user := viper.GetString("web.username")
		pass := viper.GetString("web.password")
		addr := viper.GetString("web.bind")

		srv := server.New(data, strategist, user, pass)
		return srv.Start(cmd.Context(), addr)
	},
}

func init() {
	rootCmd.AddCommand(webCmd)

	webCmd.Flags().StringP("bind", "b", ":9999", "Address to bind the server to")
	webCmd.Flags().StringP("username", "u", "", "Username for basic auth (optional)")
	webCmd.Flags().StringP("password", "p", "", "Password for basic auth (optional)")

	viper.BindPFlag("web.bind", webCmd.Flags().Lookup("bind"))
	viper.BindPFlag("web.username", webCmd.Flags().Lookup("username"))
	viper.BindPFlag("web.password", webCmd.Flags().Lookup("password"))
}
