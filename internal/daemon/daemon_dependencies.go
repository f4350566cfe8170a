package daemon

import (
	"fmt"
	"reflect"

	"github.com/hashicorp/go-hclog"

	"github.com/mozilla-ai/mcpfleet/internal/contracts"
	"github.com/mozilla-ai/mcpfleet/internal/transport"
)

// Dependencies contains required dependencies for the Daemon.
// NewDependencies should be used to create instances of Dependencies.
type Dependencies struct {
	// APIAddr specifies the network address for the APIServer to bind (e.g., "0.0.0.0:8090").
	APIAddr string

	// Logger for daemon and subcomponent (manager, API server) operations.
	Logger hclog.Logger

	// Source provides the server configuration.
	Source contracts.ConfigSource

	// Factory builds transports for configured servers.
	Factory transport.Factory
}

// NewDependencies creates and validates Dependencies.
func NewDependencies(
	logger hclog.Logger,
	apiAddr string,
	source contracts.ConfigSource,
	factory transport.Factory,
) (Dependencies, error) {
	deps := Dependencies{
		APIAddr: apiAddr,
		Logger:  logger,
		Source:  source,
		Factory: factory,
	}

	if err := deps.Validate(); err != nil {
		return Dependencies{}, err
	}

	return deps, nil
}

// Validate ensures all required dependencies are provided and valid.
func (d Dependencies) Validate() error {
	if d.Logger == nil || reflect.ValueOf(d.Logger).IsNil() {
		return fmt.Errorf("logger cannot be nil")
	}

	if err := validateAddr(d.APIAddr); err != nil {
		return fmt.Errorf("invalid API address '%s': %w", d.APIAddr, err)
	}

	if d.Source == nil || reflect.ValueOf(d.Source).IsNil() {
		return fmt.Errorf("config source cannot be nil")
	}

	if d.Factory == nil || reflect.ValueOf(d.Factory).IsNil() {
		return fmt.Errorf("transport factory cannot be nil")
	}

	return nil
}
