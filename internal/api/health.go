package api

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mozilla-ai/mcpfleet/internal/contracts"
	"github.com/mozilla-ai/mcpfleet/internal/domain"
)

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	HealthStatusUnknown   HealthStatus = "unknown"
)

// DomainHealthCheckResult is a wrapper that allows receivers to be declared in the API package that deal with domain types.
type DomainHealthCheckResult domain.HealthCheckResult

// DomainHealthSummary wraps domain.HealthSummary for API conversion.
type DomainHealthSummary domain.HealthSummary

// HealthStatus represents the classification of a server's most recent health check.
type HealthStatus string

// ServerHealth is the result of the most recent health check performed on an MCP server.
type ServerHealth struct {
	ID          string         `json:"id"`
	Status      HealthStatus   `json:"status"`
	Available   bool           `json:"available"`
	Latency     string         `json:"latency"`
	LastChecked *time.Time     `json:"lastChecked,omitempty"`
	Error       string         `json:"error,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
}

// HealthSummary aggregates the health of every checked server.
type HealthSummary struct {
	Total          int    `json:"total"`
	Healthy        int    `json:"healthy"`
	Degraded       int    `json:"degraded"`
	Unhealthy      int    `json:"unhealthy"`
	Unknown        int    `json:"unknown"`
	AverageLatency string `json:"averageLatency"`
}

// ServersHealthResponse is the response for GET /health
type ServersHealthResponse struct {
	Body struct {
		Summary HealthSummary  `doc:"Aggregate health across servers"     json:"summary"`
		Servers []ServerHealth `doc:"Last health check of every server" json:"servers"`
	}
}

// ServerHealthRequest represents the incoming request for obtaining ServerHealth.
type ServerHealthRequest struct {
	ID string `doc:"ID of the server to check" example:"time" path:"id"`
}

// ServerHealthResponse represents the wrapped API response for a ServerHealth.
type ServerHealthResponse struct {
	Body ServerHealth
}

// ToAPIType can be used to convert a wrapped domain type to an API-safe type.
func (d DomainHealthCheckResult) ToAPIType() (ServerHealth, error) {
	status, err := parseHealthStatus(d.Status)
	if err != nil {
		return ServerHealth{}, err
	}

	return ServerHealth{
		ID:          d.ServerID,
		Status:      status,
		Available:   d.Available,
		Latency:     d.Latency.String(),
		LastChecked: timeOrNil(d.Timestamp),
		Error:       domain.HealthCheckResult(d).ErrorMessage(),
		Details:     d.Details,
	}, nil
}

// ToAPIType converts a domain health summary.
func (d DomainHealthSummary) ToAPIType() (HealthSummary, error) {
	return HealthSummary{
		Total:          d.Total,
		Healthy:        d.Healthy,
		Degraded:       d.Degraded,
		Unhealthy:      d.Unhealthy,
		Unknown:        d.Unknown,
		AverageLatency: d.AverageLatency.String(),
	}, nil
}

// RegisterHealthRoutes sets up health-related API endpoint routes.
func RegisterHealthRoutes(routerAPI huma.API, reporter contracts.HealthReporter, apiPathPrefix string) {
	healthAPI := huma.NewGroup(routerAPI, apiPathPrefix)
	tags := []string{"Health"}

	huma.Register(
		healthAPI,
		huma.Operation{
			OperationID: "listServersHealth",
			Method:      http.MethodGet,
			Summary:     "Summarize health and list the health of all servers",
			Tags:        tags,
		},
		func(ctx context.Context, _ *struct{}) (*ServersHealthResponse, error) {
			return handleHealthServers(reporter)
		},
	)

	huma.Register(
		healthAPI,
		huma.Operation{
			OperationID: "getServerHealth",
			Method:      http.MethodGet,
			Path:        "/{id}",
			Summary:     "Get the health status of a server",
			Tags:        tags,
		},
		func(ctx context.Context, input *ServerHealthRequest) (*ServerHealthResponse, error) {
			return handleHealthServer(reporter, input.ID)
		},
	)

	huma.Register(
		healthAPI,
		huma.Operation{
			OperationID: "refreshServerHealth",
			Method:      http.MethodPost,
			Path:        "/{id}/refresh",
			Summary:     "Check the health of a server now",
			Tags:        tags,
		},
		func(ctx context.Context, input *ServerHealthRequest) (*ServerHealthResponse, error) {
			return handleHealthRefresh(ctx, reporter, input.ID)
		},
	)
}

// handleHealthServers is the handler for retrieving the current health for all checked MCP servers.
func handleHealthServers(reporter contracts.HealthReporter) (*ServersHealthResponse, error) {
	results := reporter.HealthResults()

	ids := make([]string, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, strings.Compare)

	apiServers := make([]ServerHealth, 0, len(ids))
	for _, id := range ids {
		data, err := DomainHealthCheckResult(results[id]).ToAPIType()
		if err != nil {
			return nil, err
		}
		apiServers = append(apiServers, data)
	}

	summary, err := DomainHealthSummary(reporter.HealthSummary()).ToAPIType()
	if err != nil {
		return nil, err
	}

	resp := &ServersHealthResponse{}
	resp.Body.Summary = summary
	resp.Body.Servers = apiServers

	return resp, nil
}

// handleHealthServer is the handler for retrieving the last health result of the specified MCP server.
func handleHealthServer(reporter contracts.HealthReporter, id string) (*ServerHealthResponse, error) {
	result, err := reporter.ServerHealth(id)
	if err != nil {
		return nil, err
	}
	return healthResponse(result)
}

// handleHealthRefresh checks the specified MCP server immediately.
func handleHealthRefresh(ctx context.Context, reporter contracts.HealthReporter, id string) (*ServerHealthResponse, error) {
	result, err := reporter.RefreshHealth(ctx, id)
	if err != nil {
		return nil, err
	}
	return healthResponse(result)
}

func healthResponse(result domain.HealthCheckResult) (*ServerHealthResponse, error) {
	data, err := DomainHealthCheckResult(result).ToAPIType()
	if err != nil {
		return nil, err
	}

	response := ServerHealthResponse{}
	response.Body = data

	return &response, nil
}

func parseHealthStatus(status domain.HealthStatus) (HealthStatus, error) {
	switch status {
	case domain.HealthStatusHealthy:
		return HealthStatusHealthy, nil
	case domain.HealthStatusDegraded:
		return HealthStatusDegraded, nil
	case domain.HealthStatusUnhealthy:
		return HealthStatusUnhealthy, nil
	case domain.HealthStatusUnknown:
		return HealthStatusUnknown, nil
	default:
		return "", fmt.Errorf("unknown health status: %s", status)
	}
}
