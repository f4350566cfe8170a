package printer

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToolsListPrinter_Item(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		result   ToolsListResult
		expected string
	}{
		{
			name: "server with multiple tools",
			result: ToolsListResult{
				Server: "files",
				Tools: []ToolItem{
					{ID: "files__read", Name: "read", Description: "Read a file"},
					{ID: "files__write", Name: "write"},
				},
				Count: 2,
			},
			expected: "Tools for 'files' (2 total):\n  files__read - Read a file\n  files__write\n",
		},
		{
			name: "server with no tools",
			result: ToolsListResult{
				Server: "empty",
				Tools:  []ToolItem{},
			},
			expected: "Tools for 'empty' (0 total):\n  (No tools discovered)\n",
		},
		{
			name:     "server with nil tools",
			result:   ToolsListResult{Server: "nil-tools"},
			expected: "Tools for 'nil-tools' (0 total):\n  (No tools discovered)\n",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			printer := &ToolsListPrinter{}

			err := printer.Item(&buf, tc.result)
			require.NoError(t, err)
			require.Equal(t, tc.expected, buf.String())
		})
	}
}

func TestToolsListPrinter_HeaderFooter(t *testing.T) {
	t.Parallel()

	t.Run("unset hooks write nothing", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		printer := &ToolsListPrinter{}

		printer.Header(&buf, 3)
		printer.Footer(&buf, 3)
		require.Empty(t, buf.String())
	})

	t.Run("custom hooks receive the count", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		printer := &ToolsListPrinter{}
		printer.SetHeader(func(w io.Writer, count int) {
			_, _ = io.WriteString(w, "header\n")
		})
		printer.SetFooter(func(w io.Writer, count int) {
			_, _ = io.WriteString(w, "footer\n")
		})

		printer.Header(&buf, 1)
		printer.Footer(&buf, 1)
		require.Equal(t, "header\nfooter\n", buf.String())
	})
}
