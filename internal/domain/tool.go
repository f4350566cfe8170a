package domain

import (
	"encoding/json"
	"strings"
)

// Tool is a tool as declared by an MCP server.
// QualifiedID is only populated on copies returned from aggregate queries.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
	QualifiedID string          `json:"qualifiedId,omitempty"`
	ServerID    string          `json:"serverId,omitempty"`
}

// Resource is a resource exposed by an MCP server.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MIMEType    string `json:"mimeType,omitempty"`
}

// Prompt is a prompt template exposed by an MCP server.
type Prompt struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ToolResult is the outcome of a tool call.
type ToolResult struct {
	Content           []ToolContent   `json:"content"`
	StructuredContent json.RawMessage `json:"structuredContent,omitempty"`
	IsError           bool            `json:"isError,omitempty"`
}

// ToolContent is a single content item of a tool result.
// Only text content is interpreted, other kinds are kept verbatim in Raw.
type ToolContent struct {
	Type string          `json:"type"`
	Text string          `json:"text,omitempty"`
	Raw  json.RawMessage `json:"-"`
}

func (c *ToolContent) UnmarshalJSON(data []byte) error {
	type plain ToolContent
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = ToolContent(p)
	c.Raw = append(json.RawMessage(nil), data...)
	return nil
}

func (c ToolContent) MarshalJSON() ([]byte, error) {
	if len(c.Raw) > 0 {
		return c.Raw, nil
	}
	type plain ToolContent
	return json.Marshal(plain(c))
}

// Text joins the text content items of the result.
func (r ToolResult) Text() string {
	var parts []string
	for _, c := range r.Content {
		if c.Type == "text" && c.Text != "" {
			parts = append(parts, c.Text)
		}
	}
	return strings.Join(parts, "\n")
}
