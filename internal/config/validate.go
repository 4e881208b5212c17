package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

var (
	// ErrInvalidProvider indicates an unsupported summary provider
	ErrInvalidProvider = errors.New("invalid summary provider")

	// ErrEmptyModel indicates missing model name
	ErrEmptyModel = errors.New("empty summary model")

	// ErrEmptyEndpoint indicates missing OpenAI endpoint
	ErrEmptyEndpoint = errors.New("empty summary endpoint")

	// ErrInvalidSampling indicates temperature, top_p or max_tokens out of range
	ErrInvalidSampling = errors.New("invalid sampling settings")

	// ErrInvalidRetry indicates invalid timeout or retry settings
	ErrInvalidRetry = errors.New("invalid retry settings")

	// ErrInvalidConcurrency indicates concurrency below one
	ErrInvalidConcurrency = errors.New("invalid concurrency")

	// ErrInvalidCacheSettings indicates invalid cache configuration
	ErrInvalidCacheSettings = errors.New("invalid cache settings")

	// ErrInvalidFilter indicates an unknown kind or malformed glob
	ErrInvalidFilter = errors.New("invalid filter")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateSummary(&cfg.Summary); err != nil {
		errs = append(errs, err)
	}

	if err := validateCache(&cfg.Cache); err != nil {
		errs = append(errs, err)
	}

	if err := validateFilter(&cfg.Filter); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateSummary(cfg *SummaryConfig) error {
	var errs []error

	provider := strings.ToLower(cfg.Provider)
	switch provider {
	case "openai", "gemini", "mock":
	default:
		errs = append(errs, fmt.Errorf("%w: must be 'openai', 'gemini' or 'mock', got '%s'", ErrInvalidProvider, cfg.Provider))
	}

	if provider != "mock" && strings.TrimSpace(cfg.Model) == "" {
		errs = append(errs, fmt.Errorf("%w: model is required", ErrEmptyModel))
	}

	if provider == "openai" && strings.TrimSpace(cfg.Endpoint) == "" {
		errs = append(errs, fmt.Errorf("%w: endpoint is required", ErrEmptyEndpoint))
	}

	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		errs = append(errs, fmt.Errorf("%w: temperature must be between 0 and 2, got %.2f", ErrInvalidSampling, cfg.Temperature))
	}
	if cfg.TopP < 0 || cfg.TopP > 1 {
		errs = append(errs, fmt.Errorf("%w: top_p must be between 0 and 1, got %.2f", ErrInvalidSampling, cfg.TopP))
	}
	if cfg.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("%w: max_tokens must be positive, got %d", ErrInvalidSampling, cfg.MaxTokens))
	}

	if cfg.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: timeout must be positive, got %v", ErrInvalidRetry, cfg.Timeout))
	}
	if cfg.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("%w: max_retries cannot be negative, got %d", ErrInvalidRetry, cfg.MaxRetries))
	}
	if cfg.InitialBackoff < 0 || cfg.MaxBackoff < 0 {
		errs = append(errs, fmt.Errorf("%w: backoff cannot be negative", ErrInvalidRetry))
	} else if cfg.MaxBackoff > 0 && cfg.MaxBackoff < cfg.InitialBackoff {
		errs = append(errs, fmt.Errorf("%w: max_backoff (%v) is less than initial_backoff (%v)", ErrInvalidRetry, cfg.MaxBackoff, cfg.InitialBackoff))
	}

	if cfg.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("%w: concurrency must be at least 1, got %d", ErrInvalidConcurrency, cfg.Concurrency))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateCache(cfg *CacheConfig) error {
	// Disabled caches are never opened
	if !cfg.Enabled {
		return nil
	}
	if cfg.MemoryEntries < 1 {
		return fmt.Errorf("%w: memory_entries must be positive, got %d", ErrInvalidCacheSettings, cfg.MemoryEntries)
	}
	return nil
}

func validateFilter(cfg *FilterConfig) error {
	var errs []error

	if len(cfg.Kinds) == 0 {
		errs = append(errs, fmt.Errorf("%w: at least one kind required", ErrInvalidFilter))
	}
	for _, kind := range cfg.Kinds {
		if kind != "function" && kind != "class" {
			errs = append(errs, fmt.Errorf("%w: unknown kind: %s (valid: function, class)", ErrInvalidFilter, kind))
		}
	}

	for _, pattern := range cfg.SkipNames {
		if _, err := glob.Compile(pattern); err != nil {
			errs = append(errs, fmt.Errorf("%w: bad skip pattern %q: %v", ErrInvalidFilter, pattern, err))
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
