package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/autodoc/internal/config"
	"github.com/mvp-joe/autodoc/internal/parsers"
)

// Test Plan for the root command:
// - Missing file exits 1 with the "does not exist" message
// - A directory argument exits 1
// - A file without definitions prints the notice and is not modified
// - A file with definitions is rewritten and "Docstrings updated" printed
// - A syntax error exits 2 and leaves the file untouched
// - Dry run prints the rendered file and leaves the original alone
// - Unknown provider and missing API key exit 1
// - Flags override configuration
// - exitCode maps wrapped and plain errors
// - clean removes the cache database and tolerates a missing one
// - version prints build information
// - The progress reporter counts completed summaries

// mockFlags runs offline: mock provider, no cache, no progress bar.
func mockFlags() *documentFlags {
	return &documentFlags{provider: "mock", noCache: true, quiet: true, concurrency: 1}
}

func writePython(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.py")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDocumentFile_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.py")

	var out bytes.Buffer
	err := documentFile(context.Background(), path, mockFlags(), &out)
	require.Error(t, err)
	assert.Equal(t, exitUsage, exitCode(err))
	assert.Equal(t, "Error: File '"+path+"' does not exist.", err.Error())
}

func TestDocumentFile_Directory(t *testing.T) {
	dir := t.TempDir()

	err := documentFile(context.Background(), dir, mockFlags(), &bytes.Buffer{})
	require.Error(t, err)
	assert.Equal(t, exitUsage, exitCode(err))
	assert.Contains(t, err.Error(), "is a directory")
}

func TestDocumentFile_NoDefinitions(t *testing.T) {
	source := "import os\n\nVALUE = 1\n"
	path := writePython(t, source)

	var out bytes.Buffer
	require.NoError(t, documentFile(context.Background(), path, mockFlags(), &out))
	assert.Equal(t, "No functions or classes found in "+path+".\n", out.String())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, source, string(data))
}

func TestDocumentFile_UpdatesFile(t *testing.T) {
	path := writePython(t, "def add(a, b):\n    return a + b\n")

	var out bytes.Buffer
	require.NoError(t, documentFile(context.Background(), path, mockFlags(), &out))
	assert.Equal(t, "Docstrings updated in "+path+".\n", out.String())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"def add(a, b):\n    \"\"\"\n    Description: Summary of def add(a, b)\n    \"\"\"\n\n    return a + b\n",
		string(data))
}

func TestDocumentFile_ParseError(t *testing.T) {
	source := "def broken(:\n    return 1\n"
	path := writePython(t, source)

	var out bytes.Buffer
	err := documentFile(context.Background(), path, mockFlags(), &out)
	require.Error(t, err)
	assert.Equal(t, exitProcess, exitCode(err))
	assert.ErrorIs(t, err, parsers.ErrParse)

	data, _ := os.ReadFile(path)
	assert.Equal(t, source, string(data))
}

func TestDocumentFile_DryRun(t *testing.T) {
	source := "class A:\n    x = 1\n"
	path := writePython(t, source)

	f := mockFlags()
	f.dryRun = true

	var out bytes.Buffer
	require.NoError(t, documentFile(context.Background(), path, f, &out))
	assert.Equal(t, "class A:\n    \"\"\"\n    Description: Summary of class A\n    \"\"\"\n\n    x = 1\n", out.String())

	data, _ := os.ReadFile(path)
	assert.Equal(t, source, string(data))
}

func TestDocumentFile_ConfigErrors(t *testing.T) {
	path := writePython(t, "def f():\n    pass\n")

	f := mockFlags()
	f.provider = "llama"
	err := documentFile(context.Background(), path, f, &bytes.Buffer{})
	require.Error(t, err)
	assert.Equal(t, exitUsage, exitCode(err))
	assert.ErrorIs(t, err, config.ErrInvalidProvider)

	t.Setenv("OPENAI_API_KEY", "")
	f = mockFlags()
	f.provider = "openai"
	err = documentFile(context.Background(), path, f, &bytes.Buffer{})
	require.Error(t, err)
	assert.Equal(t, exitUsage, exitCode(err))
	assert.Contains(t, err.Error(), "missing API key")
}

func TestApplyFlags(t *testing.T) {
	cfg := config.Default()
	cfg.Filter.SkipNames = []string{"test_*"}

	applyFlags(cfg, &documentFlags{
		provider:    "gemini",
		model:       "gemini-2.5-pro",
		timeout:     5e9,
		concurrency: 2,
		strict:      true,
		noCache:     true,
		backup:      true,
		skip:        []string{"_*"},
	})

	assert.Equal(t, "gemini", cfg.Summary.Provider)
	assert.Equal(t, "gemini-2.5-pro", cfg.Summary.Model)
	assert.Equal(t, int64(5e9), int64(cfg.Summary.Timeout))
	assert.Equal(t, 2, cfg.Summary.Concurrency)
	assert.True(t, cfg.Summary.Strict)
	assert.False(t, cfg.Cache.Enabled)
	assert.True(t, cfg.Output.Backup)
	assert.Equal(t, []string{"test_*", "_*"}, cfg.Filter.SkipNames)

	// Zero flags change nothing.
	cfg = config.Default()
	applyFlags(cfg, &documentFlags{})
	assert.Equal(t, config.Default(), cfg)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, exitUsage, exitCode(errors.New("accepts 1 arg(s), received 0")))
	assert.Equal(t, exitProcess, exitCode(processError(errors.New("boom"))))
	assert.Equal(t, exitUsage, exitCode(usageError(errors.New("bad"))))
}

func TestRunClean(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.CacheConfig{Location: filepath.Join(dir, "summaries.db")}

	var out bytes.Buffer
	require.NoError(t, runClean(cfg, false, &out))
	assert.Contains(t, out.String(), "No summary cache found")

	require.NoError(t, os.WriteFile(cfg.Location, []byte("data"), 0644))
	require.NoError(t, os.WriteFile(cfg.Location+"-journal", []byte("j"), 0644))

	out.Reset()
	require.NoError(t, runClean(cfg, false, &out))
	assert.Contains(t, out.String(), "Cleaned summary cache")
	assert.NoFileExists(t, cfg.Location)
	assert.NoFileExists(t, cfg.Location+"-journal")

	out.Reset()
	require.NoError(t, os.WriteFile(cfg.Location, []byte("data"), 0644))
	require.NoError(t, runClean(cfg, true, &out))
	assert.Empty(t, out.String())
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "Autodoc dev")
	assert.Contains(t, out.String(), "Git commit: none")
	assert.Contains(t, out.String(), "Go: go")

	out.Reset()
	printVersion(&out, true)
	assert.Equal(t, "dev\n", out.String())
}

func TestCLIProgressReporter(t *testing.T) {
	var out bytes.Buffer
	p := NewCLIProgressReporter(&out)

	p.OnSummariesStart(2)
	p.OnSummaryDone(parsers.Definition{Name: "a"})
	p.OnSummaryDone(parsers.Definition{Name: "b"})
	p.OnSummariesComplete()

	done, total := p.Progress()
	assert.Equal(t, 2, done)
	assert.Equal(t, 2, total)
	assert.Contains(t, out.String(), "Summarizing definitions")

	// Nothing to do draws nothing.
	out.Reset()
	p.OnSummariesStart(0)
	p.OnSummariesComplete()
	assert.Empty(t, out.String())
}
