package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/mozilla-ai/mcpfleet/internal/cmd"
	cmdopts "github.com/mozilla-ai/mcpfleet/internal/cmd/options"
	"github.com/mozilla-ai/mcpfleet/internal/cmd/output"
	"github.com/mozilla-ai/mcpfleet/internal/config"
	"github.com/mozilla-ai/mcpfleet/internal/daemon"
	"github.com/mozilla-ai/mcpfleet/internal/events"
	"github.com/mozilla-ai/mcpfleet/internal/flags"
	"github.com/mozilla-ai/mcpfleet/internal/registry"
	"github.com/mozilla-ai/mcpfleet/internal/transport"
)

const (
	flagNameEnvFile   = "env-file"
	flagNameNamespace = "namespace"

	defaultEnvFile = ".env"
)

// configFile returns the configuration file path, falling back to the default when the flag is unset.
func configFile() string {
	if f := strings.TrimSpace(flags.ConfigFile); f != "" {
		return f
	}
	return flags.DefaultConfigFile
}

// FleetCmd is embedded by commands which load the configuration and talk to MCP servers.
type FleetCmd struct {
	*cmd.BaseCmd
	EnvFile   string
	Namespace string
	opts      cmdopts.CmdOptions
}

func newFleetCmd(baseCmd *cmd.BaseCmd, opt ...cmdopts.CmdOption) (*FleetCmd, error) {
	opts, err := cmdopts.NewOptions(opt...)
	if err != nil {
		return nil, err
	}

	return &FleetCmd{
		BaseCmd: baseCmd,
		opts:    opts,
	}, nil
}

func (c *FleetCmd) registerFlags(fs *pflag.FlagSet) {
	fs.StringVar(
		&c.EnvFile,
		flagNameEnvFile,
		defaultEnvFile,
		"Env file used to resolve ${NAME} placeholders not set in the environment",
	)

	fs.StringVar(
		&c.Namespace,
		flagNameNamespace,
		registry.DefaultNamespace(),
		"Namespace prefixing qualified tool IDs",
	)
}

// loader returns the configured loader, or one resolving placeholders from the environment then the env file.
func (c *FleetCmd) loader(predicates ...config.ValidationPredicate) (config.Loader, error) {
	l := c.opts.ConfigLoader
	if l == nil {
		vars := config.ChainVariables{config.EnvVariables()}
		if envFile := strings.TrimSpace(c.EnvFile); envFile != "" {
			dotenv, err := config.DotEnvVariables(envFile)
			if err != nil {
				return nil, err
			}
			vars = append(vars, dotenv)
		}

		dl, err := config.NewDefaultLoader(
			config.WithVariables(vars),
			config.WithLoaderLogger(c.Logger()),
		)
		if err != nil {
			return nil, err
		}
		l = dl
	}

	if len(predicates) == 0 {
		return l, nil
	}

	return config.NewValidatingLoader(l, predicates...), nil
}

func (c *FleetCmd) source(predicates ...config.ValidationPredicate) (*config.Source, error) {
	l, err := c.loader(predicates...)
	if err != nil {
		return nil, err
	}

	return config.NewSource(
		configFile(),
		config.WithSourceLoader(l),
		config.WithSourceLogger(c.Logger()),
	)
}

func (c *FleetCmd) factory() (transport.Factory, error) {
	if c.opts.TransportFactory != nil {
		return c.opts.TransportFactory, nil
	}

	return transport.NewFactory(
		transport.WithLogger(c.Logger()),
		transport.WithClientInfo(cmd.AppName, cmd.Version()),
	)
}

// startManager initializes a manager for a single command invocation.
// The configuration is not watched and dropped connections are not re-established.
// Servers which fail to connect are logged, callers see them in the manager's status.
func (c *FleetCmd) startManager(ctx context.Context, connect bool) (*daemon.ClientManager, error) {
	logger := c.Logger()

	src, err := c.source(config.RequireAtLeastOneServer)
	if err != nil {
		return nil, err
	}

	factory, err := c.factory()
	if err != nil {
		return nil, err
	}

	deps, err := daemon.NewManagerDependencies(logger, src, factory, events.NewBus())
	if err != nil {
		return nil, err
	}

	m, err := daemon.NewClientManager(
		deps,
		daemon.WithAutoConnect(connect),
		daemon.WithAutoReconnect(false),
		daemon.WithWatchConfig(false),
		daemon.WithNamespace(c.Namespace),
	)
	if err != nil {
		return nil, err
	}

	result, err := m.Initialize(ctx)
	if err != nil {
		return nil, err
	}
	for id, err := range result.Failed {
		logger.Warn("MCP server failed to connect", "server", id, "error", err)
	}

	return m, nil
}

// stopManager disconnects every server, joining any shutdown failure onto err.
func stopManager(ctx context.Context, m *daemon.ClientManager, err error) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), daemon.DefaultClientShutdownTimeout())
	defer cancel()

	if serr := m.Shutdown(ctx); serr != nil {
		return errors.Join(err, fmt.Errorf("failed to shut down servers: %w", serr))
	}

	return err
}

// reportError renders err with the handler, the command still fails with err.
func reportError[T any](h output.Handler[T], err error) error {
	if herr := h.HandleError(err); herr != nil && !errors.Is(herr, err) {
		return herr
	}
	return err
}
