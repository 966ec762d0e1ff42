package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/novaev/expansion/internal/utils"
	"github.com/spf13/cobra"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `
	 _   _                 _______     __
	| \ | | _____   ____ _| ____\ \   / /
	|  \| |/ _ \ \ / / _' |  _|  \ \ / /
	| |\  | (_) \ V / (_| | |___  \ V /
	|_| \_|\___/ \_/ \__,_|_____|  \_/

`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "expansion",
	Short: "Rank markets, draft GTM strategies and monitor launches for NovaEV.",
	Long: LOGO + `expansion scores candidate countries by the priorities you pick, asks a
text-generation service for a go-to-market plan and turns weekly campaign
telemetry into feedback. Use it from the command line, the web dashboard or as
an MCP tool server.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.expansion.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("dataset", "d", "", "SQLite dataset to load markets and telemetry from (read-only). Built-in data when empty")
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP Proxy for text-generation calls (Useful for debugging. Example: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")

	viper.BindPFlag("dataset.path", rootCmd.PersistentFlags().Lookup("dataset"))
}

// setDefaults registers every known key so that a freshly written config file
// lists them all.
func setDefaults(v *viper.Viper) {
	v.SetDefault("openai.provider", "openai")
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model", "gpt-4")
	v.SetDefault("openai.endpoint", "https://api.openai.com/v1/chat/completions")
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("openai.retry_max", 0)
	v.SetDefault("openai.timeout", "60s")
	v.SetDefault("dataset.path", "")
	v.SetDefault("web.bind", ":9999")
	v.SetDefault("web.username", "")
	v.SetDefault("web.password", "")
}

// writeDefaultConfig writes only the defaults, never values picked up from
// the environment.
func writeDefaultConfig(path string) error {
	v := viper.New()
	setDefaults(v)
	return v.SafeWriteConfigAs(path)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	setDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".expansion")
		viper.SetConfigType("yaml")
	}

	// OPENAI_API_KEY, DATASET_PATH, ...
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	if err := utils.SetLogLevel(levelString); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := filepath.Join(home, ".expansion.yaml")
			if err := writeDefaultConfig(configPath); err != nil {
				utils.Log.Warnf("Error creating config file: %s", err)
			} else {
				utils.Log.Debugf("Created default config at %s", configPath)
			}
		} else {
			utils.Log.Warnf("Error reading config file: %s", err)
		}
	}
}
