package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mozilla-ai/mcpfleet/internal/contracts"
	"github.com/mozilla-ai/mcpfleet/internal/domain"
	"github.com/mozilla-ai/mcpfleet/internal/filter"
)

const (
	filterKeyState     = "state"
	filterKeyType      = "type"
	filterKeyTag       = "tag"
	filterKeyAvailable = "available"
)

// DomainServerStatus wraps domain.ServerStatus for API conversion.
type DomainServerStatus domain.ServerStatus

// Server is the API view of a registered MCP server.
type Server struct {
	ID                string        `doc:"Server ID"                            json:"id"`
	Type              string        `doc:"Transport kind"                       json:"type"`
	Target            string        `doc:"Command or URL used to reach it"      json:"target"`
	Description       string        `doc:"Description"                          json:"description,omitempty"`
	Tags              []string      `doc:"Tags"                                 json:"tags,omitempty"`
	State             string        `doc:"Connection state"                     json:"state"`
	Enabled           bool          `doc:"Whether the server may be connected"  json:"enabled"`
	Available         bool          `doc:"Connected and enabled"                json:"available"`
	Default           bool          `doc:"Whether this is the default server"   json:"default"`
	Monitored         bool          `doc:"Whether health is checked regularly"  json:"monitored"`
	Tools             []string      `doc:"Names of discovered tools"            json:"tools"`
	ConnectedAt       *time.Time    `doc:"When the current connection was made" json:"connectedAt,omitempty"`
	LastError         string        `doc:"Most recent error"                    json:"lastError,omitempty"`
	ReconnectAttempts int           `doc:"Reconnect attempts since connecting"  json:"reconnectAttempts"`
	Health            *ServerHealth `doc:"Last health check"                    json:"health,omitempty"`
	Stats             ServerStats   `doc:"Tool call statistics"                 json:"stats"`
}

// ServerStats is the API view of a server's call statistics.
type ServerStats struct {
	TotalRequests      int        `json:"totalRequests"`
	SuccessfulRequests int        `json:"successfulRequests"`
	FailedRequests     int        `json:"failedRequests"`
	AverageLatency     string     `json:"averageLatency"`
	SuccessRate        float64    `json:"successRate"`
	LastRequest        *time.Time `json:"lastRequest,omitempty"`
	RecentErrors       []string   `json:"recentErrors,omitempty"`
}

// ServersRequest represents the incoming API request for listing servers.
type ServersRequest struct {
	Tag       string `doc:"Only servers carrying this tag"                 example:"search" query:"tag"`
	Group     string `doc:"Only members of this group, in group order"     example:"core"   query:"group"`
	State     string `doc:"Only servers in this connection state"          example:"connected" query:"state"`
	Type      string `doc:"Only servers using this transport"              example:"http"   query:"type"`
	Available string `doc:"Only servers whose availability matches (bool)" example:"true"   query:"available"`
}

// ServersResponse represents the wrapped API response for a list of servers.
type ServersResponse struct {
	Body struct {
		Servers []Server `doc:"Registered MCP servers" json:"servers"`
	}
}

// ServerRequest identifies a single server.
type ServerRequest struct {
	ID string `doc:"ID of the server" example:"time" path:"id"`
}

// ServerResponse represents the wrapped API response for a single server.
type ServerResponse struct {
	Body Server
}

// ToAPIType converts a domain server status to an API server.
func (d DomainServerStatus) ToAPIType() (Server, error) {
	s := Server{
		ID:                d.ID,
		Type:              d.Type,
		Target:            d.Target,
		Description:       d.Description,
		Tags:              d.Tags,
		State:             string(d.State),
		Enabled:           d.Enabled,
		Available:         d.Available,
		Default:           d.Default,
		Monitored:         d.Monitored,
		Tools:             d.Tools,
		LastError:         d.LastError,
		ReconnectAttempts: d.ReconnectAttempts,
		Stats: ServerStats{
			TotalRequests:      d.Stats.TotalRequests,
			SuccessfulRequests: d.Stats.SuccessfulRequests,
			FailedRequests:     d.Stats.FailedRequests,
			AverageLatency:     d.Stats.AverageLatency.String(),
			SuccessRate:        d.Stats.SuccessRate,
			LastRequest:        timeOrNil(d.Stats.LastRequest),
			RecentErrors:       d.Stats.RecentErrors,
		},
	}

	if s.Tools == nil {
		s.Tools = []string{}
	}
	s.ConnectedAt = timeOrNil(d.ConnectedAt)

	if d.Health != nil {
		h, err := DomainHealthCheckResult(*d.Health).ToAPIType()
		if err != nil {
			return Server{}, err
		}
		s.Health = &h
	}

	return s, nil
}

func timeOrNil(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// RegisterServerRoutes sets up server related API endpoints.
func RegisterServerRoutes(routerAPI huma.API, manager contracts.ServerManager, apiPathPrefix string) {
	serversAPI := huma.NewGroup(routerAPI, apiPathPrefix)
	tags := []string{"Servers"}

	huma.Register(
		serversAPI,
		huma.Operation{
			OperationID: "listServers",
			Method:      http.MethodGet,
			Summary:     "List servers",
			Description: "Lists registered servers, optionally filtered by tag, group, state, type or availability",
			Tags:        tags,
		},
		func(ctx context.Context, input *ServersRequest) (*ServersResponse, error) {
			return handleServers(manager, input)
		},
	)

	huma.Register(
		serversAPI,
		huma.Operation{
			OperationID: "getServer",
			Method:      http.MethodGet,
			Path:        "/{id}",
			Summary:     "Get a server",
			Tags:        tags,
		},
		func(ctx context.Context, input *ServerRequest) (*ServerResponse, error) {
			return handleServer(manager, input.ID)
		},
	)

	huma.Register(
		serversAPI,
		huma.Operation{
			OperationID: "connectServer",
			Method:      http.MethodPost,
			Path:        "/{id}/connect",
			Summary:     "Connect a server",
			Tags:        tags,
		},
		func(ctx context.Context, input *ServerRequest) (*ServerResponse, error) {
			return handleServerConnect(ctx, manager, input.ID)
		},
	)

	huma.Register(
		serversAPI,
		huma.Operation{
			OperationID: "disconnectServer",
			Method:      http.MethodPost,
			Path:        "/{id}/disconnect",
			Summary:     "Disconnect a server",
			Tags:        tags,
		},
		func(ctx context.Context, input *ServerRequest) (*ServerResponse, error) {
			return handleServerDisconnect(ctx, manager, input.ID)
		},
	)

	RegisterCapabilityRoutes(serversAPI, manager)
}

// handleServers returns the registered servers which match the request filters.
func handleServers(manager contracts.ServerManager, input *ServersRequest) (*ServersResponse, error) {
	var statuses []domain.ServerStatus
	if group := strings.TrimSpace(input.Group); group != "" {
		var err error
		if statuses, err = manager.ServersByGroup(group); err != nil {
			return nil, err
		}
	} else {
		statuses = manager.Servers()
	}

	filters := map[string]string{
		filterKeyTag:       input.Tag,
		filterKeyState:     input.State,
		filterKeyType:      input.Type,
		filterKeyAvailable: input.Available,
	}

	servers := make([]Server, 0, len(statuses))
	for _, s := range statuses {
		ok, err := filter.Match(s, filters, serverMatchers())
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		data, err := DomainServerStatus(s).ToAPIType()
		if err != nil {
			return nil, err
		}
		servers = append(servers, data)
	}

	resp := &ServersResponse{}
	resp.Body.Servers = servers

	return resp, nil
}

func serverMatchers() filter.Option[domain.ServerStatus] {
	return filter.WithMatchers(map[string]filter.Predicate[domain.ServerStatus]{
		filterKeyTag: filter.HasAny(func(s domain.ServerStatus) []string { return s.Tags }),
		filterKeyState: filter.Equals(func(s domain.ServerStatus) string {
			return string(s.State)
		}),
		filterKeyType:      filter.Equals(func(s domain.ServerStatus) string { return s.Type }),
		filterKeyAvailable: filter.EqualsBool(func(s domain.ServerStatus) bool { return s.Available }),
	})
}

// handleServer returns a single server.
func handleServer(manager contracts.ServerManager, id string) (*ServerResponse, error) {
	status, err := manager.ServerStatus(id)
	if err != nil {
		return nil, err
	}

	data, err := DomainServerStatus(status).ToAPIType()
	if err != nil {
		return nil, err
	}

	resp := &ServerResponse{}
	resp.Body = data

	return resp, nil
}

// handleServerConnect connects a server and returns its resulting status.
func handleServerConnect(ctx context.Context, manager contracts.ServerManager, id string) (*ServerResponse, error) {
	if err := manager.Connect(ctx, id); err != nil {
		return nil, err
	}
	return handleServer(manager, id)
}

// handleServerDisconnect disconnects a server and returns its resulting status.
func handleServerDisconnect(ctx context.Context, manager contracts.ServerManager, id string) (*ServerResponse, error) {
	if err := manager.Disconnect(ctx, id); err != nil {
		return nil, err
	}
	return handleServer(manager, id)
}
