package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/autodoc/internal/config"
)

var cleanQuietFlag bool

// cleanCmd represents the clean command
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete the summary cache",
	Long: `Clean removes the SQLite summary cache so every definition is summarized
again on the next run.

The cache location comes from cache.location in .autodoc/config.yml
(default ~/.autodoc/cache/summaries.db).

Examples:
  # Remove the cache
  autodoc clean

  # Remove the cache without output
  autodoc clean --quiet
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return usageError(fmt.Errorf("failed to load configuration: %w", err))
		}
		return runClean(&cfg.Cache, cleanQuietFlag, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().BoolVarP(&cleanQuietFlag, "quiet", "q", false, "Suppress output messages")
}

func runClean(cfg *config.CacheConfig, quiet bool, out io.Writer) error {
	cachePath, err := cfg.CachePath()
	if err != nil {
		return processError(fmt.Errorf("failed to get cache location: %w", err))
	}

	info, err := os.Stat(cachePath)
	if os.IsNotExist(err) {
		if !quiet {
			fmt.Fprintln(out, "No summary cache found")
		}
		return nil
	}
	if err != nil {
		return processError(fmt.Errorf("failed to stat cache: %w", err))
	}
	sizeKB := float64(info.Size()) / 1024

	// SQLite may leave journal files next to the database
	for _, p := range []string{cachePath, cachePath + "-wal", cachePath + "-shm", cachePath + "-journal"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return processError(fmt.Errorf("failed to remove cache: %w", err))
		}
	}

	if !quiet {
		fmt.Fprintf(out, "✓ Cleaned summary cache %s (~%.1f KB)\n", cachePath, sizeKB)
	}
	return nil
}
