package inference

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/autosentience/vigil/internal/logging"
)

// AnthropicClient implements Client using the Anthropic Claude API.
type AnthropicClient struct {
	client anthropic.Client
	config Config
	logger *logging.Logger
}

// NewAnthropicClient creates a new Anthropic client.
// The API key is read from the ANTHROPIC_API_KEY environment variable by default.
func NewAnthropicClient(cfg Config) *AnthropicClient {
	return newAnthropicClient(anthropic.NewClient(), cfg)
}

// NewAnthropicClientWithKey creates a new Anthropic client with an explicit API key.
func NewAnthropicClientWithKey(apiKey string, cfg Config) *AnthropicClient {
	return newAnthropicClient(anthropic.NewClient(option.WithAPIKey(apiKey)), cfg)
}

func newAnthropicClient(client anthropic.Client, cfg Config) *AnthropicClient {
	def := DefaultConfig()
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.RetryBaseDelay == 0 {
		cfg.RetryBaseDelay = def.RetryBaseDelay
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}

	return &AnthropicClient{
		client: client,
		config: cfg,
		logger: logging.GetLogger("inference"),
	}
}

// Complete implements Client.Complete with bounded retries.
// Attempts are retried with exponential backoff starting at the
// configured base delay; each attempt has its own timeout. Exhausting
// the retry budget returns the last error.
func (c *AnthropicClient) Complete(ctx context.Context, prompt, systemPrompt string, temperature float64) (string, error) {
	var lastErr error

	for attempt := 0; attempt < c.config.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := c.config.RetryBaseDelay * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", fmt.Errorf("inference canceled during backoff: %w", ctx.Err())
			}
		}

		text, err := c.complete(ctx, prompt, systemPrompt, temperature)
		if err == nil {
			return text, nil
		}

		lastErr = err
		c.logger.WarnWithFields("inference attempt failed",
			logging.Field("attempt", attempt+1),
			logging.Field("max_attempts", c.config.MaxAttempts),
			logging.Field("error", err.Error()),
		)

		if ctx.Err() != nil {
			break
		}
	}

	return "", fmt.Errorf("inference failed after %d attempts: %w", c.config.MaxAttempts, lastErr)
}

func (c *AnthropicClient) complete(ctx context.Context, prompt, systemPrompt string, temperature float64) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.config.Model),
		MaxTokens:   int64(c.config.MaxTokens),
		Temperature: anthropic.Float(temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: systemPrompt},
		}
	}

	resp, err := c.client.Messages.New(attemptCtx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic API call failed: %w", err)
	}

	var textParts []string
	for i := range resp.Content {
		block := &resp.Content[i]
		if block.Type == "text" {
			textParts = append(textParts, block.Text)
		}
	}

	return strings.Join(textParts, ""), nil
}

// Model implements Client.Model.
func (c *AnthropicClient) Model() string {
	return c.config.Model
}
