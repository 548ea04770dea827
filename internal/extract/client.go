package extract

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Client is an LLM backend able to turn assembled context into raw
// register JSON. Implementations must honor ctx cancellation; retry policy
// is owned by the caller.
type Client interface {
	// Extract sends the system and user prompts and returns the model's
	// text response.
	Extract(ctx context.Context, system, user string) (string, error)
	Name() string
	Close()
}

// Config selects and configures the extraction backend.
type Config struct {
	AnthropicAPIKey string
	AnthropicModel  string
	OpenAIAPIKey    string
	OpenAIModel     string
	Timeout         time.Duration
}

// ErrNoProvider is returned when neither backend is configured.
var ErrNoProvider = errors.New("no extraction API key configured (set ANTHROPIC_API_KEY or OPENAI_API_KEY)")

// NewFromConfig builds the extraction client from configured keys,
// preferring Anthropic. The selection happens once at startup; the result
// is passed around as a plain value, never read from process state.
func NewFromConfig(cfg Config) (Client, error) {
	if cfg.AnthropicAPIKey != "" {
		return NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.Timeout), nil
	}
	if cfg.OpenAIAPIKey != "" {
		return NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel), nil
	}
	return nil, ErrNoProvider
}

// RetryableError indicates a transient backend failure worth retrying.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// IsRetryable reports whether err is a transient backend failure.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
