// Package indent infers a Python file's indentation unit from its leading
// whitespace. Detection is a heuristic scan, not a lexer: lines inside
// multi-line strings are counted like any other line.
package indent

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	// ErrFileNotFound indicates the file to scan does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrRead indicates the file could not be read.
	ErrRead = errors.New("error reading file")

	// ErrNoIndentation indicates no indented, non-blank line was found.
	ErrNoIndentation = errors.New("no consistent indentation found")

	// ErrMixedIndentation indicates tabs and spaces were both used for indentation.
	ErrMixedIndentation = errors.New("mixed spaces and tabs detected")
)

// Style is the character class used for indentation.
type Style int

const (
	StyleTabs Style = iota + 1
	StyleSpaces
)

func (s Style) String() string {
	switch s {
	case StyleTabs:
		return "tabs"
	case StyleSpaces:
		return "spaces"
	default:
		return "unknown"
	}
}

// Unit is a successfully detected indentation unit.
type Unit struct {
	Style Style
	// Width is the number of characters in one unit. Always 1 for tabs.
	Width int
}

// String returns the literal indent prefix: a tab or Width spaces.
func (u Unit) String() string {
	switch u.Style {
	case StyleTabs:
		return "\t"
	case StyleSpaces:
		return strings.Repeat(" ", u.Width)
	default:
		return ""
	}
}

// Describe returns a human-readable form such as "tabs" or "4 spaces".
func (u Unit) Describe() string {
	if u.Style == StyleTabs {
		return "tabs"
	}
	return fmt.Sprintf("%d spaces", u.Width)
}

// MixedIndentationError reports the line where tabs and spaces conflicted.
type MixedIndentationError struct {
	Line int
}

func (e *MixedIndentationError) Error() string {
	return fmt.Sprintf("%s at line %d", ErrMixedIndentation, e.Line)
}

func (e *MixedIndentationError) Unwrap() error {
	return ErrMixedIndentation
}

// Detect scans the file at path. See DetectReader.
func Detect(path string) (Unit, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Unit{}, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return Unit{}, fmt.Errorf("%w: %v", ErrRead, err)
	}
	defer f.Close()

	return DetectReader(f)
}

// DetectBytes scans in-memory source. See DetectReader.
func DetectBytes(source []byte) (Unit, error) {
	return DetectReader(bytes.NewReader(source))
}

// DetectReader infers the indentation unit from r.
//
// Blank lines and unindented lines are skipped. The first indented line fixes
// the style; for spaces the unit is the smallest nonzero width seen. A line
// whose leading whitespace mixes tabs and spaces, or whose style disagrees
// with the established one, stops the scan with a *MixedIndentationError.
func DetectReader(r io.Reader) (Unit, error) {
	br := bufio.NewReader(r)

	var unit Unit
	lineNum := 0
	for {
		line, readErr := br.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return Unit{}, fmt.Errorf("%w: %v", ErrRead, readErr)
		}
		if line == "" && readErr == io.EOF {
			break
		}
		lineNum++

		if strings.TrimSpace(line) != "" {
			lead := leadingWhitespace(line)
			if lead != "" {
				hasTab := strings.Contains(lead, "\t")
				hasSpace := strings.Contains(lead, " ")

				switch {
				case hasTab && hasSpace:
					return Unit{}, &MixedIndentationError{Line: lineNum}
				case hasTab:
					if unit.Style == StyleSpaces {
						return Unit{}, &MixedIndentationError{Line: lineNum}
					}
					unit = Unit{Style: StyleTabs, Width: 1}
				default:
					if unit.Style == StyleTabs {
						return Unit{}, &MixedIndentationError{Line: lineNum}
					}
					if unit.Style == 0 || len(lead) < unit.Width {
						unit = Unit{Style: StyleSpaces, Width: len(lead)}
					}
				}
			}
		}

		if readErr == io.EOF {
			break
		}
	}

	if unit.Style == 0 {
		return Unit{}, ErrNoIndentation
	}
	return unit, nil
}

// Leading returns the run of spaces and tabs at the start of line.
func Leading(line string) string {
	return leadingWhitespace(line)
}

func leadingWhitespace(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] != ' ' && line[i] != '\t' {
			return line[:i]
		}
	}
	return line
}
