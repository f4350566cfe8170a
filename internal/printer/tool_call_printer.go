package printer

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mozilla-ai/mcpfleet/internal/cmd/output"
	"github.com/mozilla-ai/mcpfleet/internal/domain"
)

var _ output.Printer[ToolCallResult] = (*ToolCallPrinter)(nil)

// ToolCallResult is the rendered outcome of a tool call.
type ToolCallResult struct {
	Tool              string               `json:"tool"                        yaml:"tool"`
	IsError           bool                 `json:"isError"                     yaml:"isError"`
	Text              string               `json:"text"                        yaml:"text"`
	Content           []domain.ToolContent `json:"content"                     yaml:"-"`
	StructuredContent json.RawMessage      `json:"structuredContent,omitempty" yaml:"-"`
}

// NewToolCallResult converts a tool result for output.
func NewToolCallResult(tool string, r domain.ToolResult) ToolCallResult {
	content := r.Content
	if content == nil {
		content = []domain.ToolContent{}
	}
	return ToolCallResult{
		Tool:              tool,
		IsError:           r.IsError,
		Text:              r.Text(),
		Content:           content,
		StructuredContent: r.StructuredContent,
	}
}

type ToolCallPrinter struct {
	hooks[ToolCallResult]
}

// Item prints the text content of the result.
func (p *ToolCallPrinter) Item(w io.Writer, r ToolCallResult) error {
	if r.IsError {
		_, _ = fmt.Fprintf(w, "❌ Tool '%s' reported an error:\n", r.Tool)
	}

	switch {
	case r.Text != "":
		_, _ = fmt.Fprintln(w, r.Text)
	case len(r.StructuredContent) > 0:
		_, _ = fmt.Fprintln(w, string(r.StructuredContent))
	default:
		_, _ = fmt.Fprintf(w, "(no text content, %d item(s))\n", len(r.Content))
	}

	return nil
}
