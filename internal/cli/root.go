package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/autodoc/internal/config"
	"github.com/mvp-joe/autodoc/internal/docstring"
	"github.com/mvp-joe/autodoc/internal/processor"
	"github.com/mvp-joe/autodoc/internal/summary"
)

// Exit codes.
const (
	exitOK      = 0
	exitUsage   = 1 // missing file, bad flags or configuration
	exitProcess = 2 // parse, summary or write failure
)

// exitError carries the process exit code for err.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageError(err error) error   { return &exitError{code: exitUsage, err: err} }
func processError(err error) error { return &exitError{code: exitProcess, err: err} }

// exitCode maps an error returned by the root command to a process exit code.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	// Errors from cobra itself: unknown flags, wrong argument count.
	return exitUsage
}

// documentFlags holds the root command's flags. Zero values leave the
// loaded configuration untouched.
type documentFlags struct {
	configFile  string
	verbose     bool
	quiet       bool
	dryRun      bool
	backup      bool
	strict      bool
	noCache     bool
	provider    string
	model       string
	timeout     time.Duration
	concurrency int
	skip        []string
}

var flags documentFlags

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "autodoc [flags] <file>",
	Short: "Autodoc - generate docstrings for Python definitions",
	Long: `Autodoc reads a Python file, asks a language model to summarize every
function and class, and writes each summary into a docstring directly below
the definition header. Existing docstrings are extended, never duplicated.

Configuration is read from .autodoc/config.yml in the working directory,
AUTODOC_* environment variables and a .env file; flags override both.

Examples:
  # Document a file using OpenAI (OPENAI_API_KEY must be set)
  autodoc app.py

  # Preview the result without touching the file
  autodoc --dry-run app.py

  # Use Gemini, keep a backup, skip private helpers
  autodoc --provider gemini --backup --skip '_*' app.py
`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return documentFile(ctx, args[0], &flags, cmd.OutOrStdout())
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		msg := err.Error()
		if !strings.HasPrefix(msg, "Error:") {
			msg = "Error: " + msg
		}
		fmt.Fprintln(os.Stderr, msg)
	}
	os.Exit(exitCode(err))
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&flags.configFile, "config", "", "config file (default is .autodoc/config.yml)")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "verbose output")
	f.BoolVarP(&flags.quiet, "quiet", "q", false, "disable progress bar")
	f.BoolVar(&flags.dryRun, "dry-run", false, "print the result instead of writing the file")
	f.BoolVar(&flags.backup, "backup", false, "keep the original as <file>.bak")
	f.BoolVar(&flags.strict, "strict", false, "fail instead of using the fallback summary")
	f.BoolVar(&flags.noCache, "no-cache", false, "do not read or write the summary cache")
	f.StringVar(&flags.provider, "provider", "", "summary provider: openai, gemini or mock")
	f.StringVar(&flags.model, "model", "", "model name")
	f.DurationVar(&flags.timeout, "timeout", 0, "per-request timeout (e.g. 30s)")
	f.IntVar(&flags.concurrency, "concurrency", 0, "parallel summary requests (1 = sequential)")
	f.StringArrayVar(&flags.skip, "skip", nil, "skip definitions whose name matches this glob (repeatable)")
}

// documentFile runs the whole pipeline for one file.
func documentFile(ctx context.Context, path string, f *documentFlags, stdout io.Writer) error {
	// Pre-flight before any configuration or network setup
	info, err := os.Stat(path)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return usageError(fmt.Errorf("Error: File '%s' does not exist.", path))
	}
	if err == nil && info.IsDir() {
		return usageError(fmt.Errorf("Error: '%s' is a directory, not a file.", path))
	}

	var loaderOpts []config.LoaderOption
	if f.configFile != "" {
		loaderOpts = append(loaderOpts, config.WithConfigFile(f.configFile))
	}
	cfg, err := config.LoadConfig(loaderOpts...)
	if err != nil {
		return usageError(fmt.Errorf("failed to load configuration: %w", err))
	}
	applyFlags(cfg, f)
	if err := config.Validate(cfg); err != nil {
		return usageError(fmt.Errorf("invalid configuration: %w", err))
	}
	if f.verbose {
		log.Printf("Using %s provider (model %s)", cfg.Summary.Provider, cfg.Summary.Model)
	}

	provider, closeProvider, err := buildProvider(ctx, cfg, f.verbose)
	if err != nil {
		return usageError(err)
	}
	defer closeProvider()

	describer := summary.NewDescriber(provider, cfg.Summary.Fallback, cfg.Summary.Strict)

	var progress docstring.ProgressReporter = docstring.NoOpProgressReporter{}
	if !f.quiet {
		progress = NewCLIProgressReporter(os.Stderr)
	}

	proc, err := processor.New(describer, processor.Options{
		Concurrency: cfg.Summary.Concurrency,
		SkipNames:   cfg.Filter.SkipNames,
		Kinds:       cfg.Filter.Kinds,
		DryRun:      f.dryRun,
		Stdout:      stdout,
		Backup:      cfg.Output.Backup,
		Verify:      cfg.Output.Verify,
		Progress:    progress,
		Verbose:     f.verbose,
	})
	if err != nil {
		return usageError(err)
	}

	result, err := proc.ProcessFile(ctx, path)
	if err != nil {
		if errors.Is(err, processor.ErrPathNotFound) {
			return usageError(fmt.Errorf("Error: File '%s' does not exist.", path))
		}
		return processError(err)
	}

	// Dry-run stdout carries the rendered file only
	report := stdout
	if f.dryRun {
		report = os.Stderr
	}

	switch {
	case result.NoDefinitions:
		fmt.Fprintf(report, "No functions or classes found in %s.\n", path)
	case result.Written:
		fmt.Fprintf(report, "Docstrings updated in %s.\n", path)
	case f.dryRun && countChanged(result) > 0:
		fmt.Fprintf(report, "Dry run: %s not modified.\n", path)
	default:
		fmt.Fprintf(report, "No docstrings changed in %s.\n", path)
	}

	if f.verbose {
		log.Printf("Inserted %d, appended %d, skipped %d, filtered %d, fallback summaries %d",
			result.Count(docstring.ActionInserted),
			result.Count(docstring.ActionAppended),
			result.Count(docstring.ActionSkipped),
			result.Filtered,
			describer.Fallbacks(),
		)
	}
	return nil
}

func countChanged(r *processor.Result) int {
	return r.Count(docstring.ActionInserted) + r.Count(docstring.ActionAppended)
}

// applyFlags overrides configuration with explicitly set flags.
func applyFlags(cfg *config.Config, f *documentFlags) {
	if f.provider != "" {
		cfg.Summary.Provider = f.provider
	}
	if f.model != "" {
		cfg.Summary.Model = f.model
	}
	if f.timeout > 0 {
		cfg.Summary.Timeout = f.timeout
	}
	if f.concurrency > 0 {
		cfg.Summary.Concurrency = f.concurrency
	}
	if f.strict {
		cfg.Summary.Strict = true
	}
	if f.noCache {
		cfg.Cache.Enabled = false
	}
	if f.backup {
		cfg.Output.Backup = true
	}
	cfg.Filter.SkipNames = append(cfg.Filter.SkipNames, f.skip...)
}

// buildProvider assembles provider → retry → cache. A cache that cannot be
// opened is reported and skipped.
func buildProvider(ctx context.Context, cfg *config.Config, verbose bool) (summary.Provider, func(), error) {
	base, err := summary.NewProvider(ctx, summary.Options{
		Provider:    cfg.Summary.Provider,
		Model:       cfg.Summary.Model,
		Endpoint:    cfg.Summary.Endpoint,
		APIKeyEnv:   cfg.Summary.APIKeyEnv,
		Prompt:      cfg.Summary.Prompt,
		Temperature: cfg.Summary.Temperature,
		TopP:        cfg.Summary.TopP,
		MaxTokens:   cfg.Summary.MaxTokens,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create summary provider: %w", err)
	}

	provider := summary.WithRetry(base, summary.RetryPolicy{
		Timeout:        cfg.Summary.Timeout,
		MaxRetries:     cfg.Summary.MaxRetries,
		InitialBackoff: cfg.Summary.InitialBackoff,
		MaxBackoff:     cfg.Summary.MaxBackoff,
	})

	closers := []func() error{base.Close}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Printf("Warning: %v", err)
			}
		}
	}

	if !cfg.Cache.Enabled {
		return provider, closeAll, nil
	}

	path, err := cfg.Cache.CachePath()
	if err == nil {
		var store *summary.Store
		store, err = summary.OpenStore(path, cfg.Cache.MemoryEntries)
		if err == nil {
			if verbose {
				log.Printf("Using summary cache %s", path)
			}
			closers = append(closers, store.Close)
			return summary.WithCache(provider, store, cfg.Summary.Prompt), closeAll, nil
		}
	}
	log.Printf("Warning: summary cache disabled: %v", err)
	return provider, closeAll, nil
}
