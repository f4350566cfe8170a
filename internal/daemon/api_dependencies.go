package daemon

import (
	"fmt"
	"reflect"

	"github.com/hashicorp/go-hclog"

	"github.com/mozilla-ai/mcpfleet/internal/contracts"
)

// APIDependencies contains the required external dependencies for the API server.
// NewAPIDependencies should be used to create instances of APIDependencies.
type APIDependencies struct {
	// Addr specifies the network address to bind (e.g., "0.0.0.0:8090").
	Addr string

	// Servers exposes server lifecycle operations.
	Servers contracts.ServerManager

	// Tools lists and executes tools.
	Tools contracts.ToolExecutor

	// Health reports server health.
	Health contracts.HealthReporter

	// Logger for API server operations.
	Logger hclog.Logger
}

// NewAPIDependencies creates and validates APIDependencies.
func NewAPIDependencies(
	logger hclog.Logger,
	servers contracts.ServerManager,
	tools contracts.ToolExecutor,
	health contracts.HealthReporter,
	addr string,
) (APIDependencies, error) {
	deps := APIDependencies{
		Addr:    addr,
		Servers: servers,
		Tools:   tools,
		Health:  health,
		Logger:  logger,
	}

	if err := deps.Validate(); err != nil {
		return APIDependencies{}, err
	}

	return deps, nil
}

// Validate ensures all required dependencies are provided and valid.
func (d APIDependencies) Validate() error {
	if err := validateAddr(d.Addr); err != nil {
		return fmt.Errorf("invalid API address '%s': %w", d.Addr, err)
	}
	if d.Servers == nil || reflect.ValueOf(d.Servers).IsNil() {
		return fmt.Errorf("server manager cannot be nil")
	}
	if d.Tools == nil || reflect.ValueOf(d.Tools).IsNil() {
		return fmt.Errorf("tool executor cannot be nil")
	}
	if d.Health == nil || reflect.ValueOf(d.Health).IsNil() {
		return fmt.Errorf("health reporter cannot be nil")
	}
	if d.Logger == nil || reflect.ValueOf(d.Logger).IsNil() {
		return fmt.Errorf("logger cannot be nil")
	}
	return nil
}
