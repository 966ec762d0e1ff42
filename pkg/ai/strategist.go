package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/novaev/expansion/internal/utils"
	"github.com/novaev/expansion/pkg/prompt"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Config controls how the strategist talks to the language model.
type Config struct {
	Provider string
	APIKey   string
	Model    string
	Endpoint string
	// Temperature nil selects the default of 0.7. Valid values are 0 to 2.
	Temperature *float64
	// RetryMax is the number of retries on transport errors and 5xx/429
	// responses. Zero means a single attempt.
	RetryMax   int
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Strategy is a generated go-to-market plan.
type Strategy struct {
	Content     string `json:"content"`
	Model       string `json:"model,omitempty"`
	ResponseID  string `json:"response_id,omitempty"`
	TotalTokens int64  `json:"total_tokens,omitempty"`
}

// Strategist drafts GTM plans from an assembled prompt.
type Strategist interface {
	GenerateStrategy(ctx context.Context, userPrompt string) (Strategy, error)
}

var (
	// ErrMissingAPIKey is the startup fault raised when no credential is configured.
	ErrMissingAPIKey = errors.New("strategy generation requires an API key (set openai.api_key in config or OPENAI_API_KEY)")
	ErrEmptyResponse = errors.New("strategy generation returned an empty response")
)

const (
	defaultProvider    = "openai"
	defaultModel       = "gpt-4"
	defaultEndpoint    = "https://api.openai.com/v1/chat/completions"
	defaultTemperature = 0.7
	defaultTimeout     = 60 * time.Second
)

// NewStrategist validates cfg and builds the provider implementation. It is the
// one place the credential is checked; callers run it once at startup.
func NewStrategist(cfg Config) (Strategist, error) {
	cfg.Provider = strings.TrimSpace(strings.ToLower(cfg.Provider))
	if cfg.Provider == "" {
		cfg.Provider = defaultProvider
	}

	switch cfg.Provider {
	case "openai":
		return newOpenAIStrategist(cfg)
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
	}
}

type openAIStrategist struct {
	apiKey      string
	model       string
	endpoint    string
	temperature float64
	client      *retryablehttp.Client
}

func newOpenAIStrategist(cfg Config) (*openAIStrategist, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	temperature := defaultTemperature
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
		if temperature < 0 || temperature > 2 {
			return nil, fmt.Errorf("temperature %g out of range [0, 2]", temperature)
		}
	}

	retryMax := cfg.RetryMax
	if retryMax < 0 {
		retryMax = 0
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := retryablehttp.NewClient()
	client.RetryMax = retryMax
	client.Logger = leveledLogrus{}
	// Hand non-2xx responses back so the API's error message can be surfaced.
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if cfg.HTTPClient != nil {
		client.HTTPClient = cfg.HTTPClient
	} else {
		client.HTTPClient.Timeout = timeout
	}

	return &openAIStrategist{
		apiKey:      apiKey,
		model:       model,
		endpoint:    endpoint,
		temperature: temperature,
		client:      client,
	}, nil
}

// GenerateStrategy sends the system and user messages and returns the first
// completion verbatim. Transport and API failures are returned to the caller.
func (s *openAIStrategist) GenerateStrategy(ctx context.Context, userPrompt string) (Strategy, error) {
	body, err := s.requestBody(userPrompt)
	if err != nil {
		return Strategy{}, err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, body)
	if err != nil {
		return Strategy{}, err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	utils.Log.Debugf("[ai] requesting strategy from %s (model %s, %d prompt chars)", s.endpoint, s.model, len(userPrompt))
	start := time.Now()

	resp, err := s.client.Do(req)
	if err != nil {
		return Strategy{}, fmt.Errorf("strategy request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Strategy{}, fmt.Errorf("reading strategy response: %w", err)
	}

	if resp.StatusCode >= 300 {
		if msg := gjson.GetBytes(respBody, "error.message").String(); msg != "" {
			return Strategy{}, fmt.Errorf("strategy generation: %s", msg)
		}
		return Strategy{}, fmt.Errorf("strategy generation failed with HTTP %d", resp.StatusCode)
	}

	if !gjson.ValidBytes(respBody) {
		return Strategy{}, errors.New("strategy generation returned malformed JSON")
	}

	content := gjson.GetBytes(respBody, "choices.0.message.content").String()
	if strings.TrimSpace(content) == "" {
		return Strategy{}, ErrEmptyResponse
	}

	out := Strategy{
		Content:     content,
		Model:       gjson.GetBytes(respBody, "model").String(),
		ResponseID:  gjson.GetBytes(respBody, "id").String(),
		TotalTokens: gjson.GetBytes(respBody, "usage.total_tokens").Int(),
	}
	utils.Log.Debugf("[ai] strategy ready in %s (%d chars, %d tokens)", time.Since(start).Round(time.Millisecond), len(out.Content), out.TotalTokens)
	return out, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (s *openAIStrategist) requestBody(userPrompt string) ([]byte, error) {
	body := []byte(`{}`)
	var err error
	if body, err = sjson.SetBytes(body, "model", s.model); err != nil {
		return nil, err
	}
	messages := []chatMessage{
		{Role: "system", Content: prompt.SystemMessage},
		{Role: "user", Content: userPrompt},
	}
	if body, err = sjson.SetBytes(body, "messages", messages); err != nil {
		return nil, err
	}
	if body, err = sjson.SetBytes(body, "temperature", s.temperature); err != nil {
		return nil, err
	}
	return body, nil
}

// leveledLogrus routes retryablehttp's chatter to the shared logger.
type leveledLogrus struct{}

func (leveledLogrus) Error(msg string, kv ...interface{}) { utils.Log.WithFields(fields(kv)).Error(msg) }
func (leveledLogrus) Warn(msg string, kv ...interface{})  { utils.Log.WithFields(fields(kv)).Warn(msg) }
func (leveledLogrus) Info(msg string, kv ...interface{})  { utils.Log.WithFields(fields(kv)).Debug(msg) }
func (leveledLogrus) Debug(msg string, kv ...interface{}) { utils.Log.WithFields(fields(kv)).Debug(msg) }

func fields(kv []interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return out
}
