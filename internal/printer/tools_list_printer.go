package printer

import (
	"fmt"
	"io"

	"github.com/mozilla-ai/mcpfleet/internal/cmd/output"
)

var _ output.Printer[ToolsListResult] = (*ToolsListPrinter)(nil)

// ToolsListResult represents the tools of a single server.
type ToolsListResult struct {
	Server string     `json:"server" yaml:"server"`
	Tools  []ToolItem `json:"tools"  yaml:"tools"`
	Count  int        `json:"count"  yaml:"count"`
}

// ToolItem is a single tool in a ToolsListResult.
type ToolItem struct {
	ID          string `json:"id"                    yaml:"id"`
	Name        string `json:"name"                  yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

type ToolsListPrinter struct {
	hooks[ToolsListResult]
}

func (p *ToolsListPrinter) Item(w io.Writer, result ToolsListResult) error {
	_, _ = fmt.Fprintf(w, "Tools for '%s' (%d total):\n", result.Server, result.Count)

	if len(result.Tools) == 0 {
		_, _ = fmt.Fprintln(w, "  (No tools discovered)")
		return nil
	}

	// Tools should already be sorted.
	for _, tool := range result.Tools {
		if tool.Description == "" {
			_, _ = fmt.Fprintf(w, "  %s\n", tool.ID)
			continue
		}
		_, _ = fmt.Fprintf(w, "  %s - %s\n", tool.ID, tool.Description)
	}

	return nil
}
