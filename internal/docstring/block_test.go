package docstring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindBlock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		lines      []string
		found      bool
		terminated bool
		close      int
		delim      string
	}{
		{"one line", []string{`    """Doc."""`}, true, true, 0, `"""`},
		{"multi line", []string{`    """`, `    Doc.`, `    """`}, true, true, 2, `"""`},
		{"opener alone is not a close", []string{`    """`, `    text"""`}, true, true, 1, `"""`},
		{"single quotes", []string{`    '''Doc.`, `    more'''`}, true, true, 1, `'''`},
		{"raw prefix", []string{`    r"""C:\path"""`}, true, true, 0, `"""`},
		{"empty docstring", []string{`    """"""`}, true, true, 0, `"""`},
		{"unterminated", []string{`    """open`, `    return 1`}, true, false, 0, `"""`},
		{"not a block", []string{`    return 1`}, false, false, 0, ""},
		{"trailing comment", []string{`    """Doc."""  # noqa: D401`}, true, true, 0, `"""`},
		{"delimiter before code is not a close", []string{`    """a`, `    x = """ + y`, `    b"""`}, true, true, 2, `"""`},
		{"mismatched quotes keep scanning", []string{`    """a`, `    b'''`, `    c"""`}, true, true, 2, `"""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b, found, terminated := findBlock(tt.lines, 0)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.terminated, terminated)
			if found && terminated {
				assert.Equal(t, tt.close, b.close)
				assert.Equal(t, tt.delim, b.delim)
				assert.Equal(t, "    ", b.indent)
			}
		})
	}
}

func TestFindBlock_OutOfRange(t *testing.T) {
	t.Parallel()

	_, found, _ := findBlock([]string{"x"}, 1)
	assert.False(t, found)
	_, found, _ = findBlock(nil, 0)
	assert.False(t, found)
}

func TestDescriptionLines(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"  Description: Adds numbers."}, descriptionLines("  ", "  Adds numbers.\n"))
	assert.Equal(t, []string{"  Description:"}, descriptionLines("  ", ""))
	assert.Equal(t,
		[]string{"  Description: First.", "", "  Second."},
		descriptionLines("  ", "First.\r\n   \r\nSecond."),
	)
}

func TestAppendLines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		lines    []string
		expected []string
	}{
		{
			name:     "one line docstring",
			lines:    []string{`    """Existing."""`},
			expected: []string{`    """Existing.`, ``, `    Description: S`, `    """`},
		},
		{
			name:     "close on its own line",
			lines:    []string{`    """`, `    Description: A`, `    """`},
			expected: []string{``, `    Description: S`, `    """`},
		},
		{
			name:     "text before close",
			lines:    []string{`    '''First.`, `    More.'''`},
			expected: []string{`    More.`, ``, `    Description: S`, `    '''`},
		},
		{
			name:     "empty one line docstring",
			lines:    []string{`    """"""`},
			expected: []string{`    """`, `    Description: S`, `    """`},
		},
		{
			name:     "empty two line docstring",
			lines:    []string{`    """`, `    """`},
			expected: []string{`    Description: S`, `    """`},
		},
		{
			name:     "comment after close",
			lines:    []string{`    """Doc."""  # noqa: D401`},
			expected: []string{`    """Doc.`, ``, `    Description: S`, `    """  # noqa: D401`},
		},
		{
			name:     "blank before close",
			lines:    []string{`    """Doc.`, ``, `    """`},
			expected: []string{`    Description: S`, `    """`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b, found, terminated := findBlock(tt.lines, 0)
			assert.True(t, found && terminated)
			assert.Equal(t, tt.expected, appendLines(tt.lines, b, "S"))
		})
	}
}

func TestBlockAt(t *testing.T) {
	t.Parallel()

	lines := []string{`    """Doc."""  # noqa`, `    sql = """`, `    """`}
	b, ok := blockAt(lines, 0, 0)
	assert.True(t, ok)
	assert.Equal(t, 0, b.close)
	assert.Equal(t, 11, b.closeAt)

	multi := []string{`    r"""`, `    Doc.`, `    """`}
	b, ok = blockAt(multi, 0, 2)
	assert.True(t, ok)
	assert.Equal(t, 2, b.close)
	assert.True(t, b.raw)

	_, ok = blockAt([]string{`    "Doc."`}, 0, 0)
	assert.False(t, ok, "single-quoted strings are not blocks")
	_, ok = blockAt(lines, 0, 5)
	assert.False(t, ok)
}

func TestEscape(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `C:\\tmp \"\"\"`, escape(`C:\tmp """`, `"""`, false))
	assert.Equal(t, `C:\tmp \"\"\"`, escape(`C:\tmp """`, `"""`, true))
	assert.Equal(t, `it's \'\'\' """`, escape(`it's ''' """`, `'''`, false))
}
