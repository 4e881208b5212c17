// Package docstring inserts generated descriptions into Python source as
// documentation blocks placed immediately after each definition header.
package docstring

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/mvp-joe/autodoc/internal/indent"
	"github.com/mvp-joe/autodoc/internal/parsers"
)

// defaultUnit is used for new blocks when neither an indentation unit nor a
// body line is available.
const defaultUnit = "    "

// Summarizer produces the description text for one definition.
type Summarizer interface {
	Describe(ctx context.Context, def parsers.Definition) (string, error)
}

// SummarizerFunc adapts a plain function to Summarizer.
type SummarizerFunc func(ctx context.Context, def parsers.Definition) (string, error)

// Describe calls f.
func (f SummarizerFunc) Describe(ctx context.Context, def parsers.Definition) (string, error) {
	return f(ctx, def)
}

// ProgressReporter receives callbacks while summaries are requested.
// OnSummaryDone may be called from several goroutines.
type ProgressReporter interface {
	OnSummariesStart(total int)
	OnSummaryDone(def parsers.Definition)
	OnSummariesComplete()
}

// NoOpProgressReporter discards progress callbacks.
type NoOpProgressReporter struct{}

func (NoOpProgressReporter) OnSummariesStart(total int)           {}
func (NoOpProgressReporter) OnSummaryDone(def parsers.Definition) {}
func (NoOpProgressReporter) OnSummariesComplete()                 {}

// Action is what the engine did for one definition.
type Action string

const (
	ActionInserted Action = "inserted"
	ActionAppended Action = "appended"
	ActionSkipped  Action = "skipped"
)

// Change records the outcome for one definition.
type Change struct {
	Def    parsers.Definition
	Action Action
	// Line is the 1-based line in the original file where the block starts
	// (inserted) or closes (appended). Zero for skipped definitions.
	Line   int
	Reason string
}

// Result is the outcome of one Insert call.
type Result struct {
	Buffer *Buffer
	// Changes are listed in processing order: descending start line.
	Changes []Change
	// NoOp is set when no definitions were supplied.
	NoOp bool
}

// Count returns how many definitions ended with action a.
func (r *Result) Count(a Action) int {
	n := 0
	for _, c := range r.Changes {
		if c.Action == a {
			n++
		}
	}
	return n
}

// Changed reports whether any block was inserted or extended.
func (r *Result) Changed() bool {
	return r.Count(ActionInserted)+r.Count(ActionAppended) > 0
}

// Engine inserts or extends documentation blocks.
type Engine struct {
	unit        string
	summarizer  Summarizer
	concurrency int
	progress    ProgressReporter
}

// Option configures an Engine.
type Option func(*Engine)

// WithConcurrency bounds how many summaries are requested at once.
// Values below 1 mean sequential.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n < 1 {
			n = 1
		}
		e.concurrency = n
	}
}

// WithProgress sets the progress reporter.
func WithProgress(p ProgressReporter) Option {
	return func(e *Engine) {
		if p != nil {
			e.progress = p
		}
	}
}

// NewEngine creates an engine. unit is the file's indentation unit; it may be
// empty when detection failed, in which case new blocks follow the body's
// own indentation.
func NewEngine(unit string, summarizer Summarizer, opts ...Option) *Engine {
	e := &Engine{
		unit:        unit,
		summarizer:  summarizer,
		concurrency: 1,
		progress:    NoOpProgressReporter{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// target is one definition's insertion site.
type target struct {
	def      parsers.Definition
	header   int    // 0-based index of the header's last line
	existing *block // nil when a new block must be synthesized
	prefix   string // indent for a new block
	summary  string
	skip     string
}

// edit replaces original lines [start, end) with lines.
type edit struct {
	start, end int
	lines      []string
}

// Insert documents every definition in defs and returns the updated buffer.
// buf is not modified.
//
// Definitions are handled in descending start-line order. Every insertion
// site is located against the original lines, the summaries are collected,
// and the output is assembled by copying the original lines up to each edit.
// Summary errors abort the whole call; callers wanting per-definition
// recovery should absorb them in the Summarizer.
func (e *Engine) Insert(ctx context.Context, buf *Buffer, defs []parsers.Definition) (*Result, error) {
	if len(defs) == 0 {
		lines := append([]string(nil), buf.Lines...)
		return &Result{Buffer: buf.WithLines(lines), NoOp: true}, nil
	}

	targets := make([]*target, 0, len(defs))
	for _, def := range sortDescending(defs) {
		targets = append(targets, e.locate(buf, def))
	}

	if err := e.describe(ctx, targets); err != nil {
		return nil, err
	}

	result := &Result{}
	var edits []edit
	lowest := buf.Len() + 1
	for _, t := range targets {
		if t.skip != "" {
			result.Changes = append(result.Changes, Change{Def: t.def, Action: ActionSkipped, Reason: t.skip})
			continue
		}

		ed, change := e.plan(buf, t)
		if ed.end > lowest {
			result.Changes = append(result.Changes, Change{
				Def:    t.def,
				Action: ActionSkipped,
				Reason: "documentation block overlaps a later definition",
			})
			continue
		}

		edits = append(edits, ed)
		lowest = ed.start
		result.Changes = append(result.Changes, change)
	}

	result.Buffer = buf.WithLines(build(buf.Lines, edits))
	return result, nil
}

// sortDescending orders definitions by start line, last first.
func sortDescending(defs []parsers.Definition) []parsers.Definition {
	sorted := append([]parsers.Definition(nil), defs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].StartLine != sorted[j].StartLine {
			return sorted[i].StartLine > sorted[j].StartLine
		}
		return sorted[i].HeaderEndLine > sorted[j].HeaderEndLine
	})
	return sorted
}

// locate finds where def's block goes, or why it cannot have one.
func (e *Engine) locate(buf *Buffer, def parsers.Definition) *target {
	t := &target{def: def, header: def.HeaderEndLine - 1}

	switch {
	case def.StartLine < 1 || t.header < def.StartLine-1 || t.header >= buf.Len():
		t.skip = "header line out of range"
		return t
	case def.InlineBody:
		t.skip = "body shares the header line"
		return t
	}

	// Trust the parser's rows for a string opening the body; scan otherwise.
	if def.DocStartLine-1 == t.header+1 && def.DocEndLine >= def.DocStartLine {
		if b, ok := blockAt(buf.Lines, def.DocStartLine-1, def.DocEndLine-1); ok {
			t.existing = &b
			return t
		}
	}

	b, found, terminated := findBlock(buf.Lines, t.header+1)
	switch {
	case found && !terminated:
		t.skip = "documentation block is not terminated"
	case found:
		t.existing = &b
	default:
		t.prefix = e.blockIndent(buf, def)
	}
	return t
}

// blockIndent is the header's indent plus one unit. When the first body
// statement sits at a different depth the block follows the body, since a
// docstring indented unlike its body would not parse.
func (e *Engine) blockIndent(buf *Buffer, def parsers.Definition) string {
	header := indent.Leading(buf.Lines[def.StartLine-1])
	prefix := header + e.unit

	if def.BodyLine > 0 && def.BodyLine-1 < buf.Len() {
		body := indent.Leading(buf.Lines[def.BodyLine-1])
		if len(body) > len(header) && body != prefix {
			prefix = body
		}
	}

	if prefix == header {
		prefix += defaultUnit
	}
	return prefix
}

// describe requests summaries for all non-skipped targets. With concurrency 1
// requests run one at a time in target order.
func (e *Engine) describe(ctx context.Context, targets []*target) error {
	active := 0
	for _, t := range targets {
		if t.skip == "" {
			active++
		}
	}

	e.progress.OnSummariesStart(active)
	defer e.progress.OnSummariesComplete()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for _, t := range targets {
		if t.skip != "" {
			continue
		}
		g.Go(func() error {
			summary, err := e.summarizer.Describe(gctx, t.def)
			if err != nil {
				return fmt.Errorf("failed to summarize %s: %w", t.def, err)
			}
			t.summary = summary
			e.progress.OnSummaryDone(t.def)
			return nil
		})
	}
	return g.Wait()
}

// plan renders the edit for one located target. A blank separator follows
// the block unless the next original line is already blank or the block
// ends the file.
func (e *Engine) plan(buf *Buffer, t *target) (edit, Change) {
	if t.existing != nil {
		b := *t.existing
		lines := appendLines(buf.Lines, b, t.summary)
		if b.close+1 < buf.Len() && !buf.isBlank(b.close+1) {
			lines = append(lines, "")
		}
		return edit{start: b.close, end: b.close + 1, lines: lines},
			Change{Def: t.def, Action: ActionAppended, Line: b.close + 1}
	}

	at := t.header + 1
	lines := newBlockLines(t.prefix, t.summary)
	if at < buf.Len() && !buf.isBlank(at) {
		lines = append(lines, "")
	}
	return edit{start: at, end: at, lines: lines},
		Change{Def: t.def, Action: ActionInserted, Line: at + 1}
}

// build copies lines into a new slice, applying edits. edits are in
// descending position order as planned.
func build(lines []string, edits []edit) []string {
	extra := 0
	for _, ed := range edits {
		extra += len(ed.lines)
	}

	out := make([]string, 0, len(lines)+extra)
	cursor := 0
	for i := len(edits) - 1; i >= 0; i-- {
		ed := edits[i]
		out = append(out, lines[cursor:ed.start]...)
		out = append(out, ed.lines...)
		cursor = ed.end
	}
	return append(out, lines[cursor:]...)
}
