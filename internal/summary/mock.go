package summary

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
)

// MockProvider returns a deterministic summary derived from the first line
// of the source. Useful for tests and offline runs.
type MockProvider struct {
	calls atomic.Int64
}

// NewMockProvider creates a mock provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Close() error { return nil }

// Summarize returns "Summary of <first non-decorator line>".
func (m *MockProvider) Summarize(ctx context.Context, source string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.calls.Add(1)

	header := ""
	for _, line := range strings.Split(source, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "@") {
			continue
		}
		header = strings.TrimSuffix(line, ":")
		break
	}
	return fmt.Sprintf("Summary of %s", header), nil
}

// Calls returns how many summaries were produced.
func (m *MockProvider) Calls() int {
	return int(m.calls.Load())
}
