package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mozilla-ai/mcpfleet/internal/cmd"
	cmdopts "github.com/mozilla-ai/mcpfleet/internal/cmd/options"
	"github.com/mozilla-ai/mcpfleet/internal/config"
	"github.com/mozilla-ai/mcpfleet/internal/daemon"
	"github.com/mozilla-ai/mcpfleet/internal/flags"
)

const (
	defaultRunAddr = "0.0.0.0:8090"
	devRunAddr     = "localhost:8090"
)

// RunCmd represents the 'run' command.
type RunCmd struct {
	*FleetCmd
	Dev           bool
	Addr          string
	Watch         bool
	AutoReconnect bool
	NoAutoConnect bool
	CORSOrigins   []string
}

// NewRunCmd creates a newly configured (Cobra) command.
func NewRunCmd(baseCmd *cmd.BaseCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error) {
	fc, err := newFleetCmd(baseCmd, opt...)
	if err != nil {
		return nil, err
	}

	c := &RunCmd{FleetCmd: fc}

	cobraCommand := &cobra.Command{
		Use:   "run [--dev] [--addr]",
		Short: "Runs the MCP server fleet and serves the HTTP API",
		Long: "Connects every enabled MCP server, monitors their health and serves the HTTP API " +
			"used to inspect servers and call tools. Runs until interrupted.",
		Args: cobra.NoArgs,
		RunE: c.run,
	}

	c.registerFlags(cobraCommand.Flags())

	cobraCommand.Flags().BoolVar(
		&c.Dev,
		"dev",
		false,
		"Run in development-focused mode",
	)

	cobraCommand.Flags().StringVar(
		&c.Addr,
		"addr",
		defaultRunAddr,
		"Address for the API to bind (not applicable in --dev mode)",
	)

	cobraCommand.Flags().BoolVar(
		&c.Watch,
		"watch",
		true,
		"Reload the configuration when the file changes",
	)

	cobraCommand.Flags().BoolVar(
		&c.AutoReconnect,
		"auto-reconnect",
		true,
		"Reconnect servers whose connection drops, using their retry policy",
	)

	cobraCommand.Flags().BoolVar(
		&c.NoAutoConnect,
		"no-auto-connect",
		false,
		"Register servers without connecting them",
	)

	cobraCommand.Flags().StringSliceVar(
		&c.CORSOrigins,
		"cors-origin",
		nil,
		"Enable CORS for the given origin (repeatable)",
	)

	cobraCommand.MarkFlagsMutuallyExclusive("dev", "addr")

	return cobraCommand, nil
}

// run is configured (via NewRunCmd) to be called by the Cobra framework when the command is executed.
func (c *RunCmd) run(cobraCmd *cobra.Command, _ []string) error {
	logger := c.Logger()

	addr := strings.TrimSpace(c.Addr)
	if c.Dev {
		logger.Info("Development-focused mode", "addr", addr, "override", devRunAddr)
		addr = devRunAddr
	}

	src, err := c.source(config.RequireAtLeastOneServer)
	if err != nil {
		return err
	}

	factory, err := c.factory()
	if err != nil {
		return err
	}

	deps, err := daemon.NewDependencies(logger, addr, src, factory)
	if err != nil {
		return err
	}

	d, err := daemon.NewDaemon(deps, c.daemonOptions()...)
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}

	// Create the signal handling context for the application.
	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM, syscall.SIGINT,
	)
	defer cancel()

	return c.serve(ctx, cobraCmd, d, addr)
}

func (c *RunCmd) daemonOptions() []daemon.Option {
	apiOpts := []daemon.APIOption{}
	if len(c.CORSOrigins) > 0 {
		apiOpts = append(apiOpts,
			daemon.WithCORSEnabled(true),
			daemon.WithCORSAllowOrigins(c.CORSOrigins),
		)
	}

	return []daemon.Option{
		daemon.WithAPIOptions(apiOpts...),
		daemon.WithManagerOptions(
			daemon.WithAutoConnect(!c.NoAutoConnect),
			daemon.WithAutoReconnect(c.AutoReconnect),
			daemon.WithWatchConfig(c.Watch),
			daemon.WithNamespace(c.Namespace),
		),
	}
}

// serve runs the daemon until ctx is canceled or the daemon fails.
func (c *RunCmd) serve(ctx context.Context, cobraCmd *cobra.Command, d *daemon.Daemon, addr string) error {
	logger := c.Logger()

	runErr := make(chan error, 1)
	go func() {
		if err := d.StartAndManage(ctx); err != nil && !errors.Is(err, context.Canceled) {
			runErr <- err
		}
		close(runErr)
	}()

	if c.Dev {
		logger.Info("Launching in dev mode", "addr", addr)
		banner := fmt.Sprintf("mcpfleet running in 'dev' mode.\n\n"+
			"  Local API:\thttp://%s/api/v1\n"+
			"  OpenAPI UI:\thttp://%s/docs\n"+
			"  Config file:\t%s\n",
			addr, addr, configFile())

		if flags.LogPath != "" {
			banner += fmt.Sprintf("  Log file:\t%s => (%s)\n", flags.LogPath, flags.LogLevel)
		}

		banner += "\nPress Ctrl+C to stop.\n\n"
		_, _ = fmt.Fprint(cobraCmd.OutOrStdout(), banner)
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
		return <-runErr // Wait for servers to disconnect.
	case err := <-runErr:
		if err != nil {
			logger.Error("Daemon exited with error", "error", err)
		}
		return err
	}
}
