// Package summary produces natural-language descriptions of source text by
// calling a language model service.
package summary

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
)

// DefaultPrompt is the system instruction sent with every request.
const DefaultPrompt = "Analyze this python function and generate a summary"

var (
	// ErrTransient marks failures worth retrying: rate limits, upstream 5xx,
	// timeouts and dropped connections.
	ErrTransient = errors.New("transient summary service failure")

	// ErrMissingAPIKey is returned when a remote provider has no credentials.
	ErrMissingAPIKey = errors.New("missing API key")
)

// Provider summarizes one piece of source text.
type Provider interface {
	// Summarize returns the model's description of source. An empty string
	// is a valid answer.
	Summarize(ctx context.Context, source string) (string, error)

	// Name identifies the provider and model, e.g. "openai:gpt-4o-mini".
	// It is part of the cache key.
	Name() string

	// Close releases any resources held by the provider.
	Close() error
}

// Options contains configuration for creating a provider.
type Options struct {
	// Provider selects the backend: "openai", "gemini" or "mock".
	Provider string

	Model string

	// Endpoint is the OpenAI-compatible base URL.
	Endpoint string

	// APIKey takes precedence over APIKeyEnv.
	APIKey    string
	APIKeyEnv string

	Prompt      string
	Temperature float64
	TopP        float64
	MaxTokens   int

	// HTTPClient overrides the OpenAI transport. Tests only.
	HTTPClient *http.Client
}

func (o Options) apiKey(defaultEnv string) string {
	if o.APIKey != "" {
		return o.APIKey
	}
	env := o.APIKeyEnv
	if env == "" {
		env = defaultEnv
	}
	return os.Getenv(env)
}

func (o Options) prompt() string {
	if o.Prompt == "" {
		return DefaultPrompt
	}
	return o.Prompt
}

// NewProvider creates a provider based on the options.
func NewProvider(ctx context.Context, opts Options) (Provider, error) {
	switch opts.Provider {
	case "openai", "":
		return NewOpenAIProvider(opts)
	case "gemini":
		return NewGeminiProvider(ctx, opts)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported summary provider: %s (supported: openai, gemini, mock)", opts.Provider)
	}
}
