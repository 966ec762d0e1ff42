package cmd

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/novaev/expansion/internal/mcptools"
	"github.com/novaev/expansion/internal/utils"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the ranking, telemetry and GTM tools over MCP (stdio)",
	RunE: func(cmd *cobra.Command, args []string) error {
		strategist, err := newStrategist()
		if err != nil {
			return err
		}

		data, err := loadData(cmd.Context())
		if err != nil {
			return err
		}

		// stdout carries the protocol.
		utils.Log.SetOutput(cmd.ErrOrStderr())

		s := mcptools.NewServer(data, strategist, Version)
		return server.ServeStdio(s)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
