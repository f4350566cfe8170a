package cmd

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/mozilla-ai/mcpfleet/internal/cmd"
	cmdopts "github.com/mozilla-ai/mcpfleet/internal/cmd/options"
	"github.com/mozilla-ai/mcpfleet/internal/config"
	"github.com/mozilla-ai/mcpfleet/internal/transport/transporttest"
)

// staticLoader returns the same configuration for every path.
type staticLoader struct {
	cfg *config.Config
	err error
}

func (l *staticLoader) Load(_ string) (*config.Config, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.cfg, nil
}

// mockInitializer records the path it was asked to initialize.
type mockInitializer struct {
	path string
	err  error
}

func (m *mockInitializer) Init(path string) error {
	m.path = path
	return m.err
}

// testConfig declares a local-process server per ID with health checks off.
func testConfig(t *testing.T, ids ...string) *config.Config {
	t.Helper()

	s := `
version = "1"

[defaults]
timeout = "1s"

[defaults.health_check]
enabled = false

[defaults.retry]
max_retries = 0
`
	for _, id := range ids {
		s += fmt.Sprintf("\n[servers.%s]\ntype = \"local-process\"\ncommand = \"run-%s\"\ntags = [\"test\"]\n", id, id)
	}
	s += "\n[groups]\nfirst = [\"" + ids[0] + "\"]\n"

	l, err := config.NewDefaultLoader(config.WithVariables(config.MapVariables{}))
	require.NoError(t, err)
	cfg, err := l.Parse([]byte(s), config.FormatTOML)
	require.NoError(t, err)
	return cfg
}

// fleetOptions wires a static configuration and fake transports into a command.
func fleetOptions(cfg *config.Config, fakes map[string]*transporttest.Fake) []cmdopts.CmdOption {
	return []cmdopts.CmdOption{
		cmdopts.WithConfigLoader(&staticLoader{cfg: cfg}),
		cmdopts.WithTransportFactory(transporttest.Factory(fakes)),
	}
}

// execute runs the command with args and returns what it wrote to stdout and stderr.
func execute(
	t *testing.T,
	newCmd func(*cmd.BaseCmd, ...cmdopts.CmdOption) (*cobra.Command, error),
	opts []cmdopts.CmdOption,
	args ...string,
) (string, string, error) {
	t.Helper()

	c, err := newCmd(&cmd.BaseCmd{}, opts...)
	require.NoError(t, err)

	var stdout, stderr bytes.Buffer
	c.SetOut(&stdout)
	c.SetErr(&stderr)
	c.SetArgs(args)

	err = c.Execute()
	return stdout.String(), stderr.String(), err
}
