package options

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mozilla-ai/mcpfleet/internal/config"
	"github.com/mozilla-ai/mcpfleet/internal/transport/transporttest"
)

type fakeLoader struct {
	config.Loader
}

type fakeInitializer struct {
	config.Initializer
}

func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	opts := defaultOptions()

	require.Nil(t, opts.ConfigLoader)
	require.Nil(t, opts.TransportFactory)
	require.NotNil(t, opts.ConfigInitializer)
	require.Equal(t, os.Stdout, opts.Out)
}

func TestNewOptions(t *testing.T) {
	t.Parallel()

	loader := &fakeLoader{}
	initializer := &fakeInitializer{}
	factory := transporttest.Factory(nil)
	buf := &bytes.Buffer{}

	opts, err := NewOptions(
		WithConfigLoader(loader),
		nil,
		WithConfigInitializer(initializer),
		WithTransportFactory(factory),
		WithOutput(buf),
	)
	require.NoError(t, err)
	require.Same(t, loader, opts.ConfigLoader)
	require.Same(t, initializer, opts.ConfigInitializer)
	require.NotNil(t, opts.TransportFactory)
	require.Same(t, buf, opts.Out)
}

func TestNewOptions_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opt     CmdOption
		wantErr string
	}{
		{name: "nil loader", opt: WithConfigLoader(nil), wantErr: "config loader cannot be nil"},
		{name: "nil initializer", opt: WithConfigInitializer(nil), wantErr: "config initializer cannot be nil"},
		{name: "nil factory", opt: WithTransportFactory(nil), wantErr: "transport factory cannot be nil"},
		{name: "nil output", opt: WithOutput(nil), wantErr: "output writer cannot be nil"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewOptions(tc.opt)
			require.EqualError(t, err, tc.wantErr)
		})
	}
}
