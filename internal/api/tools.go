package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mozilla-ai/mcpfleet/internal/contracts"
	"github.com/mozilla-ai/mcpfleet/internal/domain"
	errs "github.com/mozilla-ai/mcpfleet/internal/errors"
)

const (
	// queryParamDetail is the name of the query parameter for detail level selection.
	queryParamDetail = "detail"

	// toolDetailFull returns all fields including the input schema.
	toolDetailFull toolDetailLevel = "full"

	// toolDetailMinimal returns only the qualified ID, server and name.
	toolDetailMinimal toolDetailLevel = "minimal"

	// toolDetailSummary returns the minimal fields plus the description.
	toolDetailSummary toolDetailLevel = "summary"
)

// toolDetailLevel defines the amount of information to return about tools.
type toolDetailLevel string

// ToolView is a union constraint for all tool view types.
// This ensures type safety when using generic ToolsResponse.
type ToolView interface {
	ToolMinimal | ToolSummary | Tool
}

// ToolsRequest represents the incoming API request for listing tools.
type ToolsRequest struct {
	Available bool `doc:"Only tools of available servers" query:"available"`
}

// ToolsResponseBody represents the body of a tools response.
type ToolsResponseBody[T ToolView] struct {
	Tools []T `json:"tools"`
}

// ToolsResponse represents a generic wrapped API response for tool collections.
// The type parameter T must be one of the ToolView types (ToolMinimal, ToolSummary, or Tool).
type ToolsResponse[T ToolView] struct {
	Body ToolsResponseBody[T]
}

// ToolMinimal represents minimal tool information.
type ToolMinimal struct {
	// ID is the qualified ID used to call the tool.
	ID string `doc:"Qualified tool ID" example:"mcp__time__get_current_time" json:"id"`

	// Server is the ID of the server which declared the tool.
	Server string `doc:"Server ID" json:"server"`

	// Name of the tool as declared by its server.
	Name string `doc:"Name of the tool" json:"name"`
}

// ToolSummary represents summary tool information including the description.
type ToolSummary struct {
	ToolMinimal

	// Description is a human-readable description of the tool.
	Description string `doc:"Description of what the tool does" json:"description"`
}

// Tool represents complete tool information.
type Tool struct {
	ToolSummary

	// InputSchema is JSONSchema defining the expected parameters for the tool.
	InputSchema *JSONSchema `doc:"Input parameters schema" json:"inputSchema,omitempty"`
}

// JSONSchema defines the structure for a JSON schema object.
type JSONSchema struct {
	// Type defines the type for this schema, e.g. "object".
	Type string `json:"type"`

	// Properties represents a property name and associated object definition.
	Properties map[string]any `json:"properties,omitempty"`

	// Required lists the (keys of) Properties that are required.
	Required []string `json:"required,omitempty"`
}

// ToolCallRequest represents the incoming API request for calling a tool.
type ToolCallRequest struct {
	ID   string `doc:"Qualified tool ID" example:"mcp__time__get_current_time" path:"id"`
	Body struct {
		Arguments map[string]any `doc:"Tool arguments"                                     json:"arguments,omitempty"`
		Timeout   string         `doc:"Call timeout, defaults to the server's timeout" example:"30s" json:"timeout,omitempty"`
	}
}

// ToolCallResult is the outcome of a tool call.
type ToolCallResult struct {
	Content           []domain.ToolContent `doc:"Content items returned by the tool" json:"content"`
	StructuredContent json.RawMessage      `doc:"Structured tool output"             json:"structuredContent,omitempty"`
	IsError           bool                 `doc:"Whether the tool reported an error" json:"isError"`
	Text              string               `doc:"Joined text content"                json:"text"`
}

// ToolCallResponse represents the wrapped API response for calling a tool.
type ToolCallResponse struct {
	Body ToolCallResult
}

// domainTool wraps domain.Tool for conversion to Tool via ToAPIType.
type domainTool domain.Tool

// domainToolResult wraps domain.ToolResult for conversion via ToAPIType.
type domainToolResult domain.ToolResult

// domainToolMinimal wraps Tool for projection to ToolMinimal via ToAPIType.
type domainToolMinimal Tool

// domainToolSummary wraps Tool for projection to ToolSummary via ToAPIType.
type domainToolSummary Tool

// Normalize handles case-insensitivity and trimming, providing a safe default.
func (t toolDetailLevel) Normalize() toolDetailLevel {
	normalized := toolDetailLevel(strings.ToLower(strings.TrimSpace(string(t))))
	switch normalized {
	case toolDetailMinimal, toolDetailSummary, toolDetailFull:
		return normalized
	default:
		return toolDetailFull // Safe default.
	}
}

// ToAPIType converts a wrapped domain type to Tool.
func (d domainTool) ToAPIType() (Tool, error) {
	var inputSchema *JSONSchema
	if len(d.InputSchema) > 0 {
		var s JSONSchema
		if err := json.Unmarshal(d.InputSchema, &s); err != nil {
			return Tool{}, fmt.Errorf("invalid input schema for tool '%s': %w", d.QualifiedID, err)
		}
		inputSchema = &s
	}

	return Tool{
		ToolSummary: ToolSummary{
			ToolMinimal: ToolMinimal{
				ID:     d.QualifiedID,
				Server: d.ServerID,
				Name:   d.Name,
			},
			Description: d.Description,
		},
		InputSchema: inputSchema,
	}, nil
}

// ToAPIType converts a tool result.
func (d domainToolResult) ToAPIType() (ToolCallResult, error) {
	content := d.Content
	if content == nil {
		content = []domain.ToolContent{}
	}

	return ToolCallResult{
		Content:           content,
		StructuredContent: d.StructuredContent,
		IsError:           d.IsError,
		Text:              domain.ToolResult(d).Text(),
	}, nil
}

// ToAPIType projects Tool to ToolMinimal.
func (t domainToolMinimal) ToAPIType() (ToolMinimal, error) {
	return t.ToolMinimal, nil
}

// ToAPIType projects Tool to ToolSummary.
func (t domainToolSummary) ToAPIType() (ToolSummary, error) {
	minimal, err := domainToolMinimal(t).ToAPIType()
	if err != nil {
		return ToolSummary{}, err
	}

	return ToolSummary{
		ToolMinimal: minimal,
		Description: t.Description,
	}, nil
}

// RegisterToolRoutes sets up tool related API endpoints.
func RegisterToolRoutes(routerAPI huma.API, executor contracts.ToolExecutor, apiPathPrefix string) {
	toolsAPI := huma.NewGroup(routerAPI, apiPathPrefix)
	tags := []string{"Tools"}

	huma.Register(
		toolsAPI,
		huma.Operation{
			OperationID: "listTools",
			Method:      http.MethodGet,
			Summary:     "List tools",
			Description: "Returns tools with configurable detail level via ?detail= query parameter (minimal, summary, full)",
			Tags:        tags,
		},
		func(ctx context.Context, input *ToolsRequest) (*ToolsResponse[Tool], error) {
			return handleTools(executor, input.Available)
		},
	)

	huma.Register(
		toolsAPI,
		huma.Operation{
			OperationID: "callTool",
			Method:      http.MethodPost,
			Path:        "/{id}",
			Summary:     "Call a tool by its qualified ID",
			Tags:        tags,
		},
		func(ctx context.Context, input *ToolCallRequest) (*ToolCallResponse, error) {
			return handleToolCall(ctx, executor, input)
		},
	)
}

// handleTools returns every discovered tool.
func handleTools(executor contracts.ToolExecutor, availableOnly bool) (*ToolsResponse[Tool], error) {
	tools, err := convertAll[Tool](executor.ListTools(availableOnly), func(t domain.Tool) Convertible[Tool] {
		return domainTool(t)
	})
	if err != nil {
		return nil, err
	}

	return &ToolsResponse[Tool]{Body: ToolsResponseBody[Tool]{Tools: tools}}, nil
}

// handleToolCall executes a tool.
// A result which the tool flagged as an error is returned as the response body, not as an API error.
func handleToolCall(ctx context.Context, executor contracts.ToolExecutor, input *ToolCallRequest) (*ToolCallResponse, error) {
	var opts domain.ExecuteOptions
	if s := strings.TrimSpace(input.Body.Timeout); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("%w: invalid timeout '%s'", errs.ErrBadRequest, s)
		}
		opts.Timeout = d
	}

	args := input.Body.Arguments
	if args == nil {
		args = map[string]any{}
	}

	result, err := executor.ExecuteToolByID(ctx, input.ID, args, opts)
	if result == nil {
		return nil, err
	}
	if err != nil && !result.IsError {
		return nil, err
	}

	data, err := domainToolResult(*result).ToAPIType()
	if err != nil {
		return nil, err
	}

	return &ToolCallResponse{Body: data}, nil
}

// toolFieldSelectTransformer transforms tool responses based on the detail query parameter.
// It filters the response to return only the requested level of detail: minimal, summary, or full.
func toolFieldSelectTransformer(ctx huma.Context, _ string, v any) (any, error) {
	detailParam := ctx.Query(queryParamDetail)
	if detailParam == "" {
		detailParam = string(toolDetailFull)
	}

	detail := toolDetailLevel(detailParam).Normalize()
	if detail == toolDetailFull {
		return v, nil
	}

	// Huma passes the Body field to transformers, not the full response.
	body, ok := v.(ToolsResponseBody[Tool])
	if !ok {
		return v, nil // Not our type, pass through.
	}

	switch detail {
	case toolDetailMinimal:
		minimal, err := convertAll[ToolMinimal](body.Tools, func(t Tool) Convertible[ToolMinimal] {
			return domainToolMinimal(t)
		})
		if err != nil {
			return nil, err
		}
		return ToolsResponseBody[ToolMinimal]{Tools: minimal}, nil

	case toolDetailSummary:
		summary, err := convertAll[ToolSummary](body.Tools, func(t Tool) Convertible[ToolSummary] {
			return domainToolSummary(t)
		})
		if err != nil {
			return nil, err
		}
		return ToolsResponseBody[ToolSummary]{Tools: summary}, nil

	default:
		// Shouldn't reach here due to Normalize(), but pass through as safety.
		return v, nil
	}
}
