package daemon

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/mozilla-ai/mcpfleet/internal/domain"
	"github.com/mozilla-ai/mcpfleet/internal/events"
	"github.com/mozilla-ai/mcpfleet/internal/health"
)

// Daemon runs the client manager and the HTTP API until its context is canceled.
// NewDaemon should be used to create instances of Daemon.
type Daemon struct {
	logger                hclog.Logger
	manager               *ClientManager
	apiServer             *APIServer
	clientShutdownTimeout time.Duration
}

// NewDaemon creates a Daemon with a client manager and an API server sharing one event bus.
func NewDaemon(deps Dependencies, opt ...Option) (*Daemon, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies for daemon: %w", err)
	}

	opts, err := NewOptions(opt...)
	if err != nil {
		return nil, fmt.Errorf("invalid daemon options: %w", err)
	}

	managerDeps, err := NewManagerDependencies(deps.Logger, deps.Source, deps.Factory, events.NewBus())
	if err != nil {
		return nil, err
	}

	manager, err := NewClientManager(managerDeps, opts.ManagerOptions...)
	if err != nil {
		return nil, err
	}

	apiDeps, err := NewAPIDependencies(deps.Logger, manager, manager, manager, deps.APIAddr)
	if err != nil {
		return nil, err
	}

	apiServer, err := NewAPIServer(apiDeps, opts.APIOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create daemon API server: %w", err)
	}

	return &Daemon{
		logger:                deps.Logger.Named("daemon"),
		manager:               manager,
		apiServer:             apiServer,
		clientShutdownTimeout: opts.ClientShutdownTimeout,
	}, nil
}

// Manager returns the daemon's client manager.
func (d *Daemon) Manager() *ClientManager {
	return d.manager
}

// StartAndManage initializes every configured server, serves the API and blocks until ctx is canceled,
// then disconnects every server.
func (d *Daemon) StartAndManage(ctx context.Context) error {
	unsubscribe := d.manager.Bus().Subscribe(
		d.logEvent,
		events.HealthChanged,
		events.ConfigReloaded,
		events.ServerDisconnected,
	)
	defer unsubscribe()

	result, err := d.manager.Initialize(ctx)
	if err != nil {
		return err
	}
	for id, err := range result.Failed {
		d.logger.Warn("MCP server failed to start", "server", id, "error", err)
	}
	d.logger.Info("MCP servers started", "connected", len(result.Succeeded), "failed", len(result.Failed))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return d.apiServer.Start(gctx)
	})

	err = g.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.clientShutdownTimeout)
	defer cancel()

	d.logger.Info("Shutting down all servers")
	if serr := d.manager.Shutdown(shutdownCtx); serr != nil {
		d.logger.Error("Error shutting down servers", "error", serr)
	}

	if stdErrors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (d *Daemon) logEvent(e events.Event) {
	switch e.Type {
	case events.HealthChanged:
		if c, ok := e.Data.(health.HealthChange); ok {
			d.logger.Info("Server health changed", "server", e.ServerID, "from", c.Previous, "to", c.Current)
		}
	case events.ConfigReloaded:
		if r, ok := e.Data.(domain.ReloadResult); ok {
			d.logger.Info(
				"Configuration change applied",
				"added", r.Added,
				"removed", r.Removed,
				"changed", r.Changed,
				"failed", len(r.Failed),
			)
		}
	case events.ServerDisconnected:
		if e.Err != nil {
			d.logger.Warn("Server disconnected", "server", e.ServerID, "error", e.Err)
		}
	}
}
