package summary

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

const (
	defaultGeminiModel  = "gemini-2.5-flash"
	defaultGeminiKeyEnv = "GEMINI_API_KEY"
)

// GeminiProvider is a thin wrapper around the official genai client.
type GeminiProvider struct {
	cli    *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

// NewGeminiProvider builds a provider using the Gemini API backend.
// The OpenAI model default is not carried over; an empty or gpt-* model
// selects the Gemini default.
func NewGeminiProvider(ctx context.Context, opts Options) (*GeminiProvider, error) {
	key := opts.apiKey(defaultGeminiKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("gemini: %w", ErrMissingAPIKey)
	}

	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     key,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := opts.Model
	if model == "" || strings.HasPrefix(model, "gpt-") {
		model = defaultGeminiModel
	}

	temperature := float32(opts.Temperature)
	topP := float32(opts.TopP)
	return &GeminiProvider{
		cli:   cli,
		model: model,
		config: &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: opts.prompt()}}},
			Temperature:       &temperature,
			TopP:              &topP,
			MaxOutputTokens:   int32(opts.MaxTokens),
		},
	}, nil
}

func (g *GeminiProvider) Name() string { return "gemini:" + g.model }

func (g *GeminiProvider) Close() error { return nil }

// Summarize sends source as a single user turn.
func (g *GeminiProvider) Summarize(ctx context.Context, source string) (string, error) {
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: source}}}},
		g.config,
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", classifyGeminiError(err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", nil
	}
	content := resp.Candidates[0].Content
	if content == nil {
		return "", nil
	}

	var sb strings.Builder
	for _, part := range content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

// classifyGeminiError marks rate limits and server errors as transient.
func classifyGeminiError(err error) error {
	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	default:
		// Transport failure before any answer.
		return fmt.Errorf("gemini request failed: %w: %v", ErrTransient, err)
	}

	if code == http.StatusTooManyRequests || code == http.StatusRequestTimeout || code/100 == 5 {
		return fmt.Errorf("gemini upstream %d: %w: %v", code, ErrTransient, err)
	}
	return fmt.Errorf("gemini upstream %d: %w", code, err)
}
