package docstring

import "strings"

// Buffer is a file's content as a sequence of lines without terminators.
// It remembers the line ending and whether the file ended with one, so
// Bytes reproduces untouched input byte for byte.
type Buffer struct {
	Lines        []string
	LineEnding   string
	FinalNewline bool
}

// NewBuffer splits source into lines. CRLF is used as the line ending when
// the source contains any "\r\n".
func NewBuffer(source []byte) *Buffer {
	buf := &Buffer{LineEnding: "\n"}
	if len(source) == 0 {
		return buf
	}

	text := string(source)
	if strings.Contains(text, "\r\n") {
		buf.LineEnding = "\r\n"
	}

	if strings.HasSuffix(text, buf.LineEnding) {
		buf.FinalNewline = true
		text = strings.TrimSuffix(text, buf.LineEnding)
	}

	// Split on "\n" so line indexes match the parser's row numbers even when
	// a CRLF file contains stray bare newlines.
	buf.Lines = strings.Split(text, "\n")
	if buf.LineEnding == "\r\n" {
		for i, line := range buf.Lines {
			buf.Lines[i] = strings.TrimSuffix(line, "\r")
		}
	}
	return buf
}

// Len returns the number of lines.
func (b *Buffer) Len() int {
	return len(b.Lines)
}

// WithLines returns a buffer sharing b's line ending settings.
func (b *Buffer) WithLines(lines []string) *Buffer {
	return &Buffer{
		Lines:        lines,
		LineEnding:   b.LineEnding,
		FinalNewline: b.FinalNewline,
	}
}

// Bytes joins the lines back into file content.
func (b *Buffer) Bytes() []byte {
	if len(b.Lines) == 0 {
		return nil
	}

	var sb strings.Builder
	for i, line := range b.Lines {
		if i > 0 {
			sb.WriteString(b.LineEnding)
		}
		sb.WriteString(line)
	}
	if b.FinalNewline {
		sb.WriteString(b.LineEnding)
	}
	return []byte(sb.String())
}

// isBlank reports whether line i is missing or whitespace-only.
func (b *Buffer) isBlank(i int) bool {
	if i < 0 || i >= len(b.Lines) {
		return true
	}
	return strings.TrimSpace(b.Lines[i]) == ""
}
