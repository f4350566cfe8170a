package daemon

import (
	"fmt"
	"reflect"

	"github.com/hashicorp/go-hclog"

	"github.com/mozilla-ai/mcpfleet/internal/contracts"
	"github.com/mozilla-ai/mcpfleet/internal/events"
	"github.com/mozilla-ai/mcpfleet/internal/transport"
)

// ManagerDependencies contains the required dependencies for the ClientManager.
// NewManagerDependencies should be used to create instances of ManagerDependencies.
type ManagerDependencies struct {
	// Logger for manager operations.
	Logger hclog.Logger

	// Source provides configuration snapshots.
	Source contracts.ConfigSource

	// Factory builds a transport for each server.
	Factory transport.Factory

	// Bus receives every lifecycle, health and server event.
	Bus *events.Bus
}

// NewManagerDependencies creates and validates ManagerDependencies.
func NewManagerDependencies(
	logger hclog.Logger,
	source contracts.ConfigSource,
	factory transport.Factory,
	bus *events.Bus,
) (ManagerDependencies, error) {
	deps := ManagerDependencies{
		Logger:  logger,
		Source:  source,
		Factory: factory,
		Bus:     bus,
	}

	if err := deps.Validate(); err != nil {
		return ManagerDependencies{}, err
	}

	return deps, nil
}

// Validate ensures all required dependencies are provided.
func (d ManagerDependencies) Validate() error {
	if d.Logger == nil || reflect.ValueOf(d.Logger).IsNil() {
		return fmt.Errorf("logger cannot be nil")
	}
	if d.Source == nil || reflect.ValueOf(d.Source).IsNil() {
		return fmt.Errorf("config source cannot be nil")
	}
	if d.Factory == nil || reflect.ValueOf(d.Factory).IsNil() {
		return fmt.Errorf("transport factory cannot be nil")
	}
	if d.Bus == nil {
		return fmt.Errorf("event bus cannot be nil")
	}
	return nil
}
