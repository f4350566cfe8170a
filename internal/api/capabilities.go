package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mozilla-ai/mcpfleet/internal/contracts"
	"github.com/mozilla-ai/mcpfleet/internal/domain"
)

// DomainResource wraps domain.Resource for API conversion.
type DomainResource domain.Resource

// DomainPrompt wraps domain.Prompt for API conversion.
type DomainPrompt domain.Prompt

// Resource is a resource exposed by an MCP server.
type Resource struct {
	URI         string `doc:"URI of the resource"         json:"uri"`
	Name        string `doc:"Name of the resource"        json:"name"`
	Description string `doc:"Description of the resource" json:"description,omitempty"`
	MIMEType    string `doc:"MIME type of the resource"   json:"mimeType,omitempty"`
}

// Prompt is a prompt template exposed by an MCP server.
type Prompt struct {
	Name        string `doc:"Name of the prompt"        json:"name"`
	Description string `doc:"Description of the prompt" json:"description,omitempty"`
}

// ResourcesResponse represents the wrapped API response for a server's resources.
type ResourcesResponse struct {
	Body struct {
		Resources []Resource `json:"resources"`
	}
}

// PromptsResponse represents the wrapped API response for a server's prompts.
type PromptsResponse struct {
	Body struct {
		Prompts []Prompt `json:"prompts"`
	}
}

// ToAPIType converts a domain resource.
func (d DomainResource) ToAPIType() (Resource, error) {
	return Resource{
		URI:         d.URI,
		Name:        d.Name,
		Description: d.Description,
		MIMEType:    d.MIMEType,
	}, nil
}

// ToAPIType converts a domain prompt.
func (d DomainPrompt) ToAPIType() (Prompt, error) {
	return Prompt{
		Name:        d.Name,
		Description: d.Description,
	}, nil
}

// RegisterCapabilityRoutes sets up the resource and prompt endpoints of a server.
func RegisterCapabilityRoutes(serversAPI huma.API, manager contracts.ServerManager) {
	huma.Register(
		serversAPI,
		huma.Operation{
			OperationID: "listResources",
			Method:      http.MethodGet,
			Path:        "/{id}/resources",
			Summary:     "List server resources",
			Tags:        []string{"Resources"},
		},
		func(ctx context.Context, input *ServerRequest) (*ResourcesResponse, error) {
			return handleServerResources(manager, input.ID)
		},
	)

	huma.Register(
		serversAPI,
		huma.Operation{
			OperationID: "listPrompts",
			Method:      http.MethodGet,
			Path:        "/{id}/prompts",
			Summary:     "List server prompts",
			Tags:        []string{"Prompts"},
		},
		func(ctx context.Context, input *ServerRequest) (*PromptsResponse, error) {
			return handleServerPrompts(manager, input.ID)
		},
	)
}

func handleServerResources(manager contracts.ServerManager, id string) (*ResourcesResponse, error) {
	resources, err := manager.ServerResources(id)
	if err != nil {
		return nil, err
	}

	resp := &ResourcesResponse{}
	resp.Body.Resources, err = convertAll[Resource](resources, func(r domain.Resource) Convertible[Resource] {
		return DomainResource(r)
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func handleServerPrompts(manager contracts.ServerManager, id string) (*PromptsResponse, error) {
	prompts, err := manager.ServerPrompts(id)
	if err != nil {
		return nil, err
	}

	resp := &PromptsResponse{}
	resp.Body.Prompts, err = convertAll[Prompt](prompts, func(p domain.Prompt) Convertible[Prompt] {
		return DomainPrompt(p)
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}
