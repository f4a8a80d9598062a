// Package inference implements the LLM inference boundary for the agent
// layer. Agents depend on the Client interface only; the concrete
// Anthropic implementation handles retries, timeouts, and transport.
package inference

import (
	"context"
	"time"
)

// Client is the interface every agent wrapper depends on.
// Complete sends a single prompt and returns the raw model text, which
// callers are expected to parse as JSON (possibly inside a code fence).
type Client interface {
	// Complete sends the prompt to the model and returns the complete
	// response text. Temperature controls randomness (0.0 = deterministic).
	Complete(ctx context.Context, prompt, systemPrompt string, temperature float64) (string, error)

	// Model returns the model identifier being used.
	Model() string
}

// Config contains common configuration for inference clients.
type Config struct {
	// Model is the model identifier
	Model string

	// MaxTokens is the maximum number of tokens to generate
	MaxTokens int

	// MaxAttempts bounds the retry loop for one Complete call
	MaxAttempts int

	// RetryBaseDelay is the first backoff delay; it doubles per attempt
	RetryBaseDelay time.Duration

	// RequestTimeout bounds each individual API attempt
	RequestTimeout time.Duration
}

// DefaultConfig returns sensible defaults for the agent layer.
func DefaultConfig() Config {
	return Config{
		Model:          "claude-sonnet-4-5-20250929",
		MaxTokens:      2048,
		MaxAttempts:    3,
		RetryBaseDelay: 1 * time.Second,
		RequestTimeout: 30 * time.Second,
	}
}
