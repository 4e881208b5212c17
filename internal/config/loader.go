package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir    string
	configFile string
}

// LoaderOption configures a loader.
type LoaderOption func(*loader)

// WithConfigFile reads the given file instead of searching .autodoc/.
// A missing explicit file is an error.
func WithConfigFile(path string) LoaderOption {
	return func(l *loader) {
		l.configFile = path
	}
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string, opts ...LoaderOption) Loader {
	l := &loader{
		rootDir: rootDir,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (AUTODOC_*)
// 2. Config file (.autodoc/config.yml or .autodoc/config.yaml)
// 3. Default values
//
// A .env file in the root directory is loaded first; variables already set
// in the environment win.
func (l *loader) Load() (*Config, error) {
	_ = godotenv.Load(filepath.Join(l.rootDir, ".env"))

	// Configure viper
	v := viper.New()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(l.rootDir, ".autodoc"))
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("AUTODOC")
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g., AUTODOC_SUMMARY_PROVIDER)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	bindEnvVars(v)
	setDefaults(v)

	// Try to read config file
	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound || l.configFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal into config struct
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate the configuration
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// bindEnvVars binds environment variables to config keys.
func bindEnvVars(v *viper.Viper) {
	// Summary service
	v.BindEnv("summary.provider")
	v.BindEnv("summary.model")
	v.BindEnv("summary.endpoint")
	v.BindEnv("summary.api_key_env")
	v.BindEnv("summary.prompt")
	v.BindEnv("summary.temperature")
	v.BindEnv("summary.top_p")
	v.BindEnv("summary.max_tokens")
	v.BindEnv("summary.timeout")
	v.BindEnv("summary.max_retries")
	v.BindEnv("summary.initial_backoff")
	v.BindEnv("summary.max_backoff")
	v.BindEnv("summary.concurrency")
	v.BindEnv("summary.fallback")
	v.BindEnv("summary.strict")

	// Cache
	v.BindEnv("cache.enabled")
	v.BindEnv("cache.location")
	v.BindEnv("cache.memory_entries")

	// Filter (comma separated lists)
	v.BindEnv("filter.skip_names")
	v.BindEnv("filter.kinds")

	// Output
	v.BindEnv("output.backup")
	v.BindEnv("output.verify")
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("summary.provider", defaults.Summary.Provider)
	v.SetDefault("summary.model", defaults.Summary.Model)
	v.SetDefault("summary.endpoint", defaults.Summary.Endpoint)
	v.SetDefault("summary.api_key_env", defaults.Summary.APIKeyEnv)
	v.SetDefault("summary.prompt", defaults.Summary.Prompt)
	v.SetDefault("summary.temperature", defaults.Summary.Temperature)
	v.SetDefault("summary.top_p", defaults.Summary.TopP)
	v.SetDefault("summary.max_tokens", defaults.Summary.MaxTokens)
	v.SetDefault("summary.timeout", defaults.Summary.Timeout)
	v.SetDefault("summary.max_retries", defaults.Summary.MaxRetries)
	v.SetDefault("summary.initial_backoff", defaults.Summary.InitialBackoff)
	v.SetDefault("summary.max_backoff", defaults.Summary.MaxBackoff)
	v.SetDefault("summary.concurrency", defaults.Summary.Concurrency)
	v.SetDefault("summary.fallback", defaults.Summary.Fallback)
	v.SetDefault("summary.strict", defaults.Summary.Strict)

	v.SetDefault("cache.enabled", defaults.Cache.Enabled)
	v.SetDefault("cache.location", defaults.Cache.Location)
	v.SetDefault("cache.memory_entries", defaults.Cache.MemoryEntries)

	v.SetDefault("filter.skip_names", defaults.Filter.SkipNames)
	v.SetDefault("filter.kinds", defaults.Filter.Kinds)

	v.SetDefault("output.backup", defaults.Output.Backup)
	v.SetDefault("output.verify", defaults.Output.Verify)
}

// LoadConfig is a convenience function that creates a loader and loads config.
// It uses the current working directory as the root.
func LoadConfig(opts ...LoaderOption) (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd, opts...).Load()
}

// LoadConfigFromDir loads configuration from a specific directory.
func LoadConfigFromDir(rootDir string, opts ...LoaderOption) (*Config, error) {
	return NewLoader(rootDir, opts...).Load()
}
