// Package contracts holds the interfaces shared between the client manager and its consumers.
package contracts

import (
	"context"

	"github.com/mozilla-ai/mcpfleet/internal/config"
	"github.com/mozilla-ai/mcpfleet/internal/domain"
)

// ConfigSource provides configuration snapshots and change notifications.
type ConfigSource interface {
	// Path returns the location of the configuration file.
	Path() string

	// Load reads the configuration and makes it current.
	Load() (*config.Config, error)

	// Current returns the last successfully loaded configuration, or nil.
	Current() *config.Config

	// Watch calls handlers when the configuration changes, until ctx ends or StopWatching is called.
	Watch(ctx context.Context, handlers config.WatchHandlers) error

	// StopWatching ends any active watch.
	StopWatching()
}

// ServerManager exposes server lifecycle operations.
type ServerManager interface {
	// Servers returns the status of every registered server.
	Servers() []domain.ServerStatus

	// ServerStatus returns the status of a single server.
	ServerStatus(id string) (domain.ServerStatus, error)

	// ServersByTag returns the status of every server carrying tag.
	ServersByTag(tag string) []domain.ServerStatus

	// ServersByGroup returns the status of the members of a named group.
	ServersByGroup(name string) ([]domain.ServerStatus, error)

	// ServerResources returns the resources discovered on a server.
	ServerResources(id string) ([]domain.Resource, error)

	// ServerPrompts returns the prompts discovered on a server.
	ServerPrompts(id string) ([]domain.Prompt, error)

	// Connect establishes a connection to a server.
	Connect(ctx context.Context, id string) error

	// Disconnect closes the connection to a server.
	Disconnect(ctx context.Context, id string) error
}

// ToolExecutor lists and invokes tools across servers.
type ToolExecutor interface {
	// ListTools returns discovered tools, optionally only those of available servers.
	ListTools(availableOnly bool) []domain.Tool

	// ExecuteToolByID invokes a tool identified by its qualified ID.
	ExecuteToolByID(ctx context.Context, qualifiedID string, args map[string]any, opts domain.ExecuteOptions) (*domain.ToolResult, error)
}

// HealthReporter exposes server health.
type HealthReporter interface {
	// HealthSummary aggregates the last known health of every checked server.
	HealthSummary() domain.HealthSummary

	// HealthResults returns the last known result of every checked server.
	HealthResults() map[string]domain.HealthCheckResult

	// ServerHealth returns the last known result for a server.
	ServerHealth(id string) (domain.HealthCheckResult, error)

	// RefreshHealth checks a server now, bypassing any cached result.
	RefreshHealth(ctx context.Context, id string) (domain.HealthCheckResult, error)
}
