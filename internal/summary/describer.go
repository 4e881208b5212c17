package summary

import (
	"context"
	"log"
	"sync/atomic"

	"github.com/mvp-joe/autodoc/internal/parsers"
)

// DefaultFallback replaces a summary that could not be produced.
const DefaultFallback = "Summary unavailable."

// Describer adapts a Provider to the docstring engine. Unless strict, a
// failed request is logged and replaced by the fallback text so one
// definition cannot abort the whole file.
type Describer struct {
	provider  Provider
	fallback  string
	strict    bool
	fallbacks atomic.Int64
}

// NewDescriber creates a describer. An empty fallback uses DefaultFallback.
func NewDescriber(p Provider, fallback string, strict bool) *Describer {
	if fallback == "" {
		fallback = DefaultFallback
	}
	return &Describer{provider: p, fallback: fallback, strict: strict}
}

// Describe summarizes the definition's source text.
func (d *Describer) Describe(ctx context.Context, def parsers.Definition) (string, error) {
	summary, err := d.provider.Summarize(ctx, def.Text)
	if err == nil {
		return summary, nil
	}
	if d.strict || ctx.Err() != nil {
		return "", err
	}

	log.Printf("Warning: using fallback summary for %s: %v", def, err)
	d.fallbacks.Add(1)
	return d.fallback, nil
}

// Fallbacks returns how many definitions received the fallback text.
func (d *Describer) Fallbacks() int {
	return int(d.fallbacks.Load())
}
