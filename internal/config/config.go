package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config represents the complete autodoc configuration.
// It can be loaded from .autodoc/config.yml with environment variable overrides.
type Config struct {
	Summary SummaryConfig `yaml:"summary" mapstructure:"summary"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Filter  FilterConfig  `yaml:"filter" mapstructure:"filter"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
}

// SummaryConfig configures the summary service and how failures are handled.
type SummaryConfig struct {
	Provider    string  `yaml:"provider" mapstructure:"provider"`       // "openai", "gemini" or "mock"
	Model       string  `yaml:"model" mapstructure:"model"`             // e.g., "gpt-4o-mini"
	Endpoint    string  `yaml:"endpoint" mapstructure:"endpoint"`       // OpenAI-compatible base URL
	APIKeyEnv   string  `yaml:"api_key_env" mapstructure:"api_key_env"` // env var holding the key; empty = provider default
	Prompt      string  `yaml:"prompt" mapstructure:"prompt"`           // system instruction
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	TopP        float64 `yaml:"top_p" mapstructure:"top_p"`
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`

	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"` // per request
	MaxRetries     int           `yaml:"max_retries" mapstructure:"max_retries"`
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff" mapstructure:"max_backoff"`

	Concurrency int    `yaml:"concurrency" mapstructure:"concurrency"` // 1 = sequential
	Fallback    string `yaml:"fallback" mapstructure:"fallback"`       // text used when a summary fails
	Strict      bool   `yaml:"strict" mapstructure:"strict"`           // fail the file instead of falling back
}

// CacheConfig controls summary caching.
type CacheConfig struct {
	Enabled       bool   `yaml:"enabled" mapstructure:"enabled"`
	Location      string `yaml:"location" mapstructure:"location"` // Override default ~/.autodoc/cache/summaries.db
	MemoryEntries int    `yaml:"memory_entries" mapstructure:"memory_entries"`
}

// FilterConfig selects which definitions are documented.
type FilterConfig struct {
	SkipNames []string `yaml:"skip_names" mapstructure:"skip_names"` // glob patterns on definition names
	Kinds     []string `yaml:"kinds" mapstructure:"kinds"`           // "function", "class"
}

// OutputConfig controls how results are written.
type OutputConfig struct {
	Backup bool `yaml:"backup" mapstructure:"backup"` // keep <file>.bak
	Verify bool `yaml:"verify" mapstructure:"verify"` // re-parse before writing
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Summary: SummaryConfig{
			Provider:       "openai",
			Model:          "gpt-4o-mini",
			Endpoint:       "https://api.openai.com/v1",
			APIKeyEnv:      "",
			Prompt:         "Analyze this python function and generate a summary",
			Temperature:    1.0,
			TopP:           1.0,
			MaxTokens:      2048,
			Timeout:        60 * time.Second,
			MaxRetries:     3,
			InitialBackoff: 1 * time.Second,
			MaxBackoff:     8 * time.Second,
			Concurrency:    4,
			Fallback:       "Summary unavailable.",
			Strict:         false,
		},
		Cache: CacheConfig{
			Enabled:       true,
			Location:      "", // Empty means use default ~/.autodoc/cache/summaries.db
			MemoryEntries: 1024,
		},
		Filter: FilterConfig{
			SkipNames: []string{},
			Kinds:     []string{"function", "class"},
		},
		Output: OutputConfig{
			Backup: false,
			Verify: true,
		},
	}
}

// CachePath returns the summary database path, resolving the default under
// the user's home directory.
func (c *CacheConfig) CachePath() (string, error) {
	if c.Location != "" {
		return c.Location, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".autodoc", "cache", "summaries.db"), nil
}
