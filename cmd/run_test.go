package cmd

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/mozilla-ai/mcpfleet/internal/cmd"
	"github.com/mozilla-ai/mcpfleet/internal/config"
	"github.com/mozilla-ai/mcpfleet/internal/daemon"
	"github.com/mozilla-ai/mcpfleet/internal/transport/transporttest"
)

func TestNewRunCmd_Flags(t *testing.T) {
	t.Parallel()

	c, err := NewRunCmd(&cmd.BaseCmd{})
	require.NoError(t, err)

	tests := map[string]string{
		"addr":            defaultRunAddr,
		"dev":             "false",
		"watch":           "true",
		"auto-reconnect":  "true",
		"no-auto-connect": "false",
		"namespace":       "mcp",
		"env-file":        defaultEnvFile,
		"cors-origin":     "[]",
	}
	for name, def := range tests {
		f := c.Flags().Lookup(name)
		require.NotNil(t, f, name)
		require.Equal(t, def, f.DefValue, name)
	}
}

func TestRunCmd_DevAndAddrExclusive(t *testing.T) {
	t.Parallel()

	_, _, err := execute(t, NewRunCmd, nil, "--dev", "--addr", "localhost:1234")
	require.Error(t, err)
}

func TestRunCmd_DaemonOptions(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		c := &RunCmd{FleetCmd: &FleetCmd{Namespace: "mcp"}, Watch: true, AutoReconnect: true}

		opts, err := daemon.NewOptions(c.daemonOptions()...)
		require.NoError(t, err)

		apiOpts, err := daemon.NewAPIOptions(opts.APIOptions...)
		require.NoError(t, err)
		require.False(t, apiOpts.CORS.Enabled)

		managerOpts, err := daemon.NewManagerOptions(opts.ManagerOptions...)
		require.NoError(t, err)
		require.True(t, managerOpts.AutoConnect)
		require.True(t, managerOpts.AutoReconnect)
		require.True(t, managerOpts.WatchConfig)
		require.Equal(t, "mcp", managerOpts.Namespace)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Parallel()

		c := &RunCmd{
			FleetCmd:      &FleetCmd{Namespace: "dev"},
			NoAutoConnect: true,
			CORSOrigins:   []string{"http://localhost:3000"},
		}

		opts, err := daemon.NewOptions(c.daemonOptions()...)
		require.NoError(t, err)

		apiOpts, err := daemon.NewAPIOptions(opts.APIOptions...)
		require.NoError(t, err)
		require.True(t, apiOpts.CORS.Enabled)
		require.Equal(t, []string{"http://localhost:3000"}, apiOpts.CORS.AllowOrigins)

		managerOpts, err := daemon.NewManagerOptions(opts.ManagerOptions...)
		require.NoError(t, err)
		require.False(t, managerOpts.AutoConnect)
		require.False(t, managerOpts.AutoReconnect)
		require.False(t, managerOpts.WatchConfig)
		require.Equal(t, "dev", managerOpts.Namespace)
	})
}

func TestRunCmd_Serve(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "a")
	fake := transporttest.New("a", "echo")

	src, err := config.NewSource("fleet.toml", config.WithSourceLoader(&staticLoader{cfg: cfg}))
	require.NoError(t, err)

	deps, err := daemon.NewDependencies(
		hclog.NewNullLogger(),
		"localhost:0",
		src,
		transporttest.Factory(map[string]*transporttest.Fake{"a": fake}),
	)
	require.NoError(t, err)

	c := &RunCmd{FleetCmd: &FleetCmd{BaseCmd: &cmd.BaseCmd{}, Namespace: "mcp"}, Dev: true}
	c.SetLogger(hclog.NewNullLogger())

	d, err := daemon.NewDaemon(deps, c.daemonOptions()...)
	require.NoError(t, err)

	var out bytes.Buffer
	cobraCmd := &cobra.Command{}
	cobraCmd.SetOut(&out)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- c.serve(ctx, cobraCmd, d, "localhost:0")
	}()

	require.Eventually(t, func() bool {
		return d.Manager().Registry().Summary().Available == 1
	}, 5*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancellation")
	}

	require.Contains(t, out.String(), "mcpfleet running in 'dev' mode")
	require.Positive(t, fake.Closes())
}
