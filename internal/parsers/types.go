package parsers

import (
	"errors"
	"fmt"
)

// Kind identifies the syntactic category of a definition.
type Kind string

const (
	KindFunction Kind = "function"
	KindClass    Kind = "class"
)

// ErrParse indicates the source could not be parsed as valid Python.
var ErrParse = errors.New("parse error")

// Definition is one function or class found in a source file.
// All line numbers are 1-based. Definitions are immutable once extracted.
type Definition struct {
	Kind Kind
	Name string

	// StartLine is the line holding the def/class keyword (decorators excluded).
	StartLine int

	// HeaderEndLine is the line holding the colon that terminates the header.
	// Equal to StartLine for single-line headers.
	HeaderEndLine int

	// BodyLine is the first non-comment statement of the body, 0 if unknown.
	BodyLine int

	EndLine int

	// DocStartLine and DocEndLine span a string literal that opens the body,
	// 0 when the body does not start with one.
	DocStartLine int
	DocEndLine   int

	// InlineBody is set when the body starts on the header line (def f(): pass).
	InlineBody bool

	// Depth is the number of enclosing function or class definitions.
	Depth int

	// Text is the definition's full source including decorators; this is
	// what gets sent for summarization.
	Text string
}

// String returns a short human-readable label, e.g. "function load (line 12)".
func (d Definition) String() string {
	return fmt.Sprintf("%s %s (line %d)", d.Kind, d.Name, d.StartLine)
}

// ParseError reports the first syntax error found in a file.
type ParseError struct {
	Path   string
	Line   int
	Column int
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s at line %d, column %d", ErrParse, e.Line, e.Column)
	}
	return fmt.Sprintf("%s: %s at line %d, column %d", e.Path, ErrParse, e.Line, e.Column)
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}
