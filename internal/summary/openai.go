package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const (
	defaultOpenAIEndpoint = "https://api.openai.com/v1"
	defaultOpenAIModel    = "gpt-4o-mini"
	defaultOpenAIKeyEnv   = "OPENAI_API_KEY"
)

// OpenAIProvider calls an OpenAI-compatible chat completions endpoint.
type OpenAIProvider struct {
	hc     *http.Client
	url    string
	apiKey string
	model  string
	prompt string

	temperature float64
	topP        float64
	maxTokens   int
}

// NewOpenAIProvider builds a provider from opts. The API key is read from
// opts.APIKey or the environment variable named by opts.APIKeyEnv
// (default OPENAI_API_KEY).
func NewOpenAIProvider(opts Options) (*OpenAIProvider, error) {
	key := opts.apiKey(defaultOpenAIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("openai: %w", ErrMissingAPIKey)
	}

	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = defaultOpenAIEndpoint
	}
	model := opts.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	// Per-request deadlines come from the caller's context.
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}

	return &OpenAIProvider{
		hc:          hc,
		url:         strings.TrimRight(endpoint, "/") + "/chat/completions",
		apiKey:      key,
		model:       model,
		prompt:      opts.prompt(),
		temperature: opts.Temperature,
		topP:        opts.TopP,
		maxTokens:   opts.MaxTokens,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model               string        `json:"model"`
	Messages            []chatMessage `json:"messages"`
	Temperature         float64       `json:"temperature"`
	TopP                float64       `json:"top_p"`
	MaxCompletionTokens int           `json:"max_completion_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// upstreamError is a non-2xx answer from the service.
type upstreamError struct {
	status int
	msg    string
}

func (e *upstreamError) Error() string {
	return fmt.Sprintf("openai upstream %d: %s", e.status, e.msg)
}

// Is reports rate limits, request timeouts and 5xx answers as transient.
func (e *upstreamError) Is(target error) bool {
	if target != ErrTransient {
		return false
	}
	return e.status == http.StatusTooManyRequests ||
		e.status == http.StatusRequestTimeout ||
		e.status/100 == 5
}

func (p *OpenAIProvider) Name() string { return "openai:" + p.model }

func (p *OpenAIProvider) Close() error {
	p.hc.CloseIdleConnections()
	return nil
}

// Summarize sends source as the user message.
func (p *OpenAIProvider) Summarize(ctx context.Context, source string) (string, error) {
	body, err := json.Marshal(&chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: p.prompt},
			{Role: "user", Content: source},
		},
		Temperature:         p.temperature,
		TopP:                p.topP,
		MaxCompletionTokens: p.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Client-Request-Id", uuid.NewString())

	resp, err := p.hc.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("openai request failed: %w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", &upstreamError{status: resp.StatusCode, msg: strings.TrimSpace(string(slurp))}
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if errors.Is(err, io.EOF) {
			return "", nil
		}
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
