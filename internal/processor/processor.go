// Package processor runs the documentation pipeline for one Python file:
// read, detect indentation, extract definitions, summarize, insert, verify
// and write.
package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"

	"github.com/gobwas/glob"

	"github.com/mvp-joe/autodoc/internal/docstring"
	"github.com/mvp-joe/autodoc/internal/indent"
	"github.com/mvp-joe/autodoc/internal/parsers"
)

var (
	// ErrPathNotFound is returned before any work when the input is missing.
	ErrPathNotFound = errors.New("path not found")

	// ErrOutputInvalid is returned when the rendered file no longer parses.
	ErrOutputInvalid = errors.New("rendered output does not parse")
)

// Options configures a Processor.
type Options struct {
	// Concurrency bounds parallel summary requests.
	Concurrency int

	// SkipNames are glob patterns; matching definitions are left alone.
	SkipNames []string

	// Kinds restricts which definitions are documented. Empty means all.
	Kinds []string

	// DryRun prints the result to Stdout instead of writing the file.
	DryRun bool
	Stdout io.Writer

	Backup bool
	Verify bool

	Progress docstring.ProgressReporter
	Verbose  bool
}

// Result describes one processed file.
type Result struct {
	Path string

	// Indent is the detected unit; empty when detection failed, in which
	// case IndentErr holds the reason.
	Indent    indent.Unit
	IndentErr error

	// Definitions is the number found; Filtered how many were excluded.
	Definitions int
	Filtered    int

	NoDefinitions bool
	Changes       []docstring.Change
	Written       bool
}

// Count returns how many changes ended with action a.
func (r *Result) Count(a docstring.Action) int {
	n := 0
	for _, c := range r.Changes {
		if c.Action == a {
			n++
		}
	}
	return n
}

// Processor documents Python files.
type Processor struct {
	extractor  *parsers.PythonExtractor
	summarizer docstring.Summarizer
	writer     *AtomicWriter
	skip       []glob.Glob
	kinds      map[parsers.Kind]bool
	opts       Options
}

// New creates a processor that asks summarizer for every description.
func New(summarizer docstring.Summarizer, opts Options) (*Processor, error) {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Progress == nil {
		opts.Progress = docstring.NoOpProgressReporter{}
	}

	p := &Processor{
		extractor:  parsers.NewPythonExtractor(),
		summarizer: summarizer,
		writer:     NewAtomicWriter(opts.Backup),
		opts:       opts,
	}

	for _, pattern := range opts.SkipNames {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid skip pattern %q: %w", pattern, err)
		}
		p.skip = append(p.skip, g)
	}

	if len(opts.Kinds) > 0 {
		p.kinds = make(map[parsers.Kind]bool, len(opts.Kinds))
		for _, k := range opts.Kinds {
			p.kinds[parsers.Kind(k)] = true
		}
	}

	return p, nil
}

// ProcessFile documents every definition in the file at path. The file is
// read once and written once; on any error it is left unchanged.
func (p *Processor) ProcessFile(ctx context.Context, path string) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory, not a Python file", path)
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	result := &Result{Path: path}

	unit, err := indent.DetectBytes(source)
	if err != nil {
		// New blocks follow each body's own indentation instead.
		log.Printf("Warning: %s: %v; aligning blocks with definition bodies", path, err)
		result.IndentErr = err
	} else {
		result.Indent = unit
		p.debugf("Detected indentation in %s: %s", path, unit.Describe())
	}

	defs, err := p.extractor.Extract(ctx, path, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	result.Definitions = len(defs)
	if len(defs) == 0 {
		result.NoDefinitions = true
		return result, nil
	}

	selected := p.filter(defs)
	result.Filtered = len(defs) - len(selected)
	p.debugf("Documenting %d of %d definitions in %s", len(selected), len(defs), path)

	unitText := ""
	if result.IndentErr == nil {
		unitText = result.Indent.String()
	}
	engine := docstring.NewEngine(unitText, p.summarizer,
		docstring.WithConcurrency(p.opts.Concurrency),
		docstring.WithProgress(p.opts.Progress),
	)

	inserted, err := engine.Insert(ctx, docstring.NewBuffer(source), selected)
	if err != nil {
		return nil, err
	}
	result.Changes = inserted.Changes

	for _, c := range inserted.Changes {
		if c.Action == docstring.ActionSkipped {
			log.Printf("Warning: skipped %s: %s", c.Def, c.Reason)
		}
	}

	if !inserted.Changed() {
		return result, nil
	}

	output := inserted.Buffer.Bytes()
	if p.opts.Verify {
		if err := p.extractor.Validate(path, output); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrOutputInvalid, path, err)
		}
	}

	if p.opts.DryRun {
		if _, err := p.opts.Stdout.Write(output); err != nil {
			return nil, fmt.Errorf("failed to print result: %w", err)
		}
		return result, nil
	}

	if err := p.writer.WriteFile(path, output); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}
	result.Written = true
	return result, nil
}

// filter drops definitions excluded by kind or name pattern.
func (p *Processor) filter(defs []parsers.Definition) []parsers.Definition {
	out := make([]parsers.Definition, 0, len(defs))
	for _, def := range defs {
		if p.kinds != nil && !p.kinds[def.Kind] {
			continue
		}
		if p.skipped(def.Name) {
			p.debugf("Skipping %s (name filter)", def)
			continue
		}
		out = append(out, def)
	}
	return out
}

func (p *Processor) skipped(name string) bool {
	for _, g := range p.skip {
		if g.Match(name) {
			return true
		}
	}
	return false
}

func (p *Processor) debugf(format string, args ...any) {
	if p.opts.Verbose {
		log.Printf(format, args...)
	}
}
