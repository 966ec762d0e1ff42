package cmd

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/novaev/expansion/internal/utils"
	"github.com/novaev/expansion/pkg/ai"
	"github.com/novaev/expansion/pkg/dataset"
	"github.com/novaev/expansion/pkg/prompt"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// loadData loads the dataset named by --dataset or dataset.path, or the
// built-in tables when neither is set.
func loadData(ctx context.Context) (dataset.Data, error) {
	path := viper.GetString("dataset.path")
	data, err := dataset.Load(ctx, path)
	if err != nil {
		return dataset.Data{}, fmt.Errorf("loading dataset %q: %w", path, err)
	}
	if path != "" {
		utils.Log.Debugf("Loaded %d markets and %d telemetry regions from %s", len(data.Markets), len(data.Telemetry), path)
	}
	return data, nil
}

// newStrategist builds the text-generation client from the openai.* config.
// A missing credential fails here, before any work is done.
func newStrategist() (ai.Strategist, error) {
	cfg := ai.Config{
		Provider:    viper.GetString("openai.provider"),
		APIKey:      viper.GetString("openai.api_key"),
		Model:       viper.GetString("openai.model"),
		Endpoint:    viper.GetString("openai.endpoint"),
		RetryMax:    viper.GetInt("openai.retry_max"),
		Timeout:     viper.GetDuration("openai.timeout"),
	}

	if viper.IsSet("openai.temperature") {
		temperature := viper.GetFloat64("openai.temperature")
		cfg.Temperature = &temperature
	}

	proxy, _ := rootCmd.PersistentFlags().GetString("proxy")
	if proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy %q: %w", proxy, err)
		}
		cfg.HTTPClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
		}
	}

	st, err := ai.NewStrategist(cfg)
	if err != nil {
		return nil, fmt.Errorf("startup: %w", err)
	}
	return st, nil
}

// addProductFlags registers the flags shared by prompt and strategy.
func addProductFlags(cmd *cobra.Command) {
	d := prompt.DefaultProduct()
	cmd.Flags().StringP("country", "c", "", "Target market (required)")
	cmd.Flags().String("product-type", d.Type, "Product type")
	cmd.Flags().String("price", d.PricePoint, "Price point")
	cmd.Flags().String("target", d.Target, "Target demographic")
	cmd.MarkFlagRequired("country")
}

func productFlags(cmd *cobra.Command) (string, prompt.Product) {
	country, _ := cmd.Flags().GetString("country")
	productType, _ := cmd.Flags().GetString("product-type")
	price, _ := cmd.Flags().GetString("price")
	target, _ := cmd.Flags().GetString("target")
	return strings.TrimSpace(country), prompt.Product{Type: productType, PricePoint: price, Target: target}
}
