package summary

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for OpenAIProvider:
// - Request carries model, system prompt, user source and sampling settings
// - Authorization and request id headers are set
// - First choice content is returned trimmed
// - Empty choices is an empty summary
// - 429 and 5xx are transient; 400 is not
// - Missing API key fails construction

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewOpenAIProvider(Options{
		Endpoint:    srv.URL + "/v1/",
		APIKey:      "test-key",
		Temperature: 1,
		TopP:        1,
		MaxTokens:   2048,
	})
	require.NoError(t, err)
	return p
}

func TestOpenAI_Summarize(t *testing.T) {
	t.Parallel()

	var got chatRequest
	var auth, requestID, path string
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		requestID = r.Header.Get("X-Client-Request-Id")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"  Adds two numbers.\n"}}]}`))
	})

	summary, err := p.Summarize(context.Background(), "def add(a, b):\n    return a + b")
	require.NoError(t, err)
	assert.Equal(t, "Adds two numbers.", summary)

	assert.Equal(t, "/v1/chat/completions", path)
	assert.Equal(t, "Bearer test-key", auth)
	assert.NotEmpty(t, requestID)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, DefaultPrompt, got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "def add(a, b):\n    return a + b", got.Messages[1].Content)
	assert.Equal(t, 1.0, got.Temperature)
	assert.Equal(t, 1.0, got.TopP)
	assert.Equal(t, 2048, got.MaxCompletionTokens)

	assert.Equal(t, "openai:gpt-4o-mini", p.Name())
}

func TestOpenAI_EmptyChoices(t *testing.T) {
	t.Parallel()

	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	})

	summary, err := p.Summarize(context.Background(), "def f(): pass")
	require.NoError(t, err)
	assert.Empty(t, summary)
}

func TestOpenAI_ErrorClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status    int
		transient bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
		{http.StatusRequestTimeout, true},
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			t.Parallel()
			p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			})

			_, err := p.Summarize(context.Background(), "x")
			require.Error(t, err)
			assert.Equal(t, tt.transient, retryable(err))
			assert.Contains(t, err.Error(), "nope")
		})
	}
}

func TestOpenAI_MissingAPIKey(t *testing.T) {
	_, err := NewOpenAIProvider(Options{APIKeyEnv: "AUTODOC_TEST_UNSET_KEY"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestOpenAI_KeyFromEnv(t *testing.T) {
	t.Setenv("AUTODOC_TEST_KEY", "from-env")

	p, err := NewOpenAIProvider(Options{APIKeyEnv: "AUTODOC_TEST_KEY", Model: "gpt-test"})
	require.NoError(t, err)
	assert.Equal(t, "from-env", p.apiKey)
	assert.Equal(t, "openai:gpt-test", p.Name())
}
