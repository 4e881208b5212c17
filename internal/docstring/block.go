package docstring

import (
	"strings"

	"github.com/mvp-joe/autodoc/internal/indent"
)

// Delimiter opens and closes every newly synthesized block.
const Delimiter = `"""`

// Label prefixes each generated description line.
const Label = "Description: "

var delimiters = []string{`"""`, `'''`}

// block is an existing documentation block found after a definition header.
type block struct {
	open    int // index of the opening line
	close   int // index of the closing line
	closeAt int // byte offset of the closing delimiter in the closing line
	delim   string
	indent  string // leading whitespace of the opening line
	raw     bool
}

// openingDelimiter returns the triple-quote token a trimmed line starts with,
// allowing one string prefix character (r, u), and the text after it.
func openingDelimiter(trimmed string) (delim, rest string, ok bool) {
	s := trimmed
	if len(s) > 0 && strings.ContainsRune("rRuU", rune(s[0])) {
		s = s[1:]
	}
	for _, d := range delimiters {
		if strings.HasPrefix(s, d) {
			return d, s[len(d):], true
		}
	}
	return "", "", false
}

// closingIndex returns the offset of the first delim at or after from that is
// followed only by whitespace or a comment, or -1.
func closingIndex(line, delim string, from int) int {
	for from <= len(line) {
		i := strings.Index(line[from:], delim)
		if i < 0 {
			return -1
		}
		at := from + i
		tail := strings.TrimSpace(line[at+len(delim):])
		if tail == "" || strings.HasPrefix(tail, "#") {
			return at
		}
		from = at + 1
	}
	return -1
}

// opening parses the opening line at index start; rest is the offset just
// past the opening delimiter.
func opening(lines []string, start int) (b block, rest int, ok bool) {
	if start < 0 || start >= len(lines) {
		return block{}, 0, false
	}

	line := lines[start]
	lead := indent.Leading(line)
	trimmed := line[len(lead):]
	delim, after, ok := openingDelimiter(trimmed)
	if !ok {
		return block{}, 0, false
	}

	b = block{
		open:   start,
		delim:  delim,
		indent: lead,
		raw:    trimmed[0] == 'r' || trimmed[0] == 'R',
	}
	return b, len(line) - len(after), true
}

// findBlock looks for a documentation block starting at line index start.
// found is false when the line does not open a block; terminated is false
// when it opens one but no closing delimiter follows.
func findBlock(lines []string, start int) (b block, found, terminated bool) {
	b, from, ok := opening(lines, start)
	if !ok {
		return block{}, false, false
	}

	// The opening line closes itself only when a delimiter follows the opening one.
	if at := closingIndex(lines[start], b.delim, from); at >= 0 {
		b.close, b.closeAt = start, at
		return b, true, true
	}

	for i := start + 1; i < len(lines); i++ {
		if at := closingIndex(lines[i], b.delim, 0); at >= 0 {
			b.close, b.closeAt = i, at
			return b, true, true
		}
	}

	return b, true, false
}

// blockAt builds a block from known opening and closing line indexes.
func blockAt(lines []string, open, close int) (block, bool) {
	b, from, ok := opening(lines, open)
	if !ok || close < open || close >= len(lines) {
		return block{}, false
	}
	if close > open {
		from = 0
	}
	at := closingIndex(lines[close], b.delim, from)
	if at < 0 {
		return block{}, false
	}
	b.close, b.closeAt = close, at
	return b, true
}

// escape keeps summary text literal inside a block closed by delim.
func escape(summary, delim string, raw bool) string {
	if !raw {
		summary = strings.ReplaceAll(summary, `\`, `\\`)
	}
	return strings.ReplaceAll(summary, delim, strings.Repeat(`\`+delim[:1], len(delim)))
}

// descriptionLines renders the labelled summary, one output line per summary
// line, each prefixed with prefix. Whitespace-only lines are left empty.
func descriptionLines(prefix, summary string) []string {
	text := Label + strings.TrimSpace(summary)
	text = strings.ReplaceAll(text, "\r\n", "\n")

	parts := strings.Split(text, "\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimRight(p, " \t\r")
		if p == "" {
			out = append(out, "")
			continue
		}
		out = append(out, prefix+p)
	}
	return out
}

// newBlockLines synthesizes a complete delimiter-wrapped block.
func newBlockLines(prefix, summary string) []string {
	lines := []string{prefix + Delimiter}
	lines = append(lines, descriptionLines(prefix, escape(summary, Delimiter, false))...)
	return append(lines, prefix+Delimiter)
}

// appendLines rewrites an existing block's closing line: the closing
// delimiter is removed, the description appended after a blank line, and the
// block closed again at the opening line's indent. A comment that followed
// the closing delimiter stays with it.
func appendLines(lines []string, b block, summary string) []string {
	line := lines[b.close]
	rest := strings.TrimRight(line[:b.closeAt], " \t")
	tail := strings.TrimRight(line[b.closeAt+len(b.delim):], " \t")

	var out []string
	separate := false
	if strings.TrimSpace(rest) != "" {
		out = append(out, rest)
		// A bare opener left over from an empty one-line block needs no gap.
		_, after, _ := openingDelimiter(strings.TrimSpace(rest))
		separate = !(b.close == b.open && after == "")
	} else if b.close > b.open {
		prev := strings.TrimSpace(lines[b.close-1])
		_, after, isOpener := openingDelimiter(prev)
		separate = prev != "" && !(b.close-1 == b.open && isOpener && after == "")
	}
	if separate {
		out = append(out, "")
	}

	out = append(out, descriptionLines(b.indent, escape(summary, b.delim, b.raw))...)
	return append(out, b.indent+b.delim+tail)
}
