package transport

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mozilla-ai/mcpfleet/internal/config"
)

func TestNewFactory(t *testing.T) {
	t.Parallel()

	_, err := NewFactory(WithLogger(nil))
	require.EqualError(t, err, "logger cannot be nil")

	_, err = NewFactory(WithClientInfo("", "1"))
	require.EqualError(t, err, "client name cannot be empty")

	f, err := NewFactory(WithClientInfo("fleet", "1.0.0"), nil)
	require.NoError(t, err)
	require.Equal(t, "fleet", f.clientInfo.Name)
}

func TestDefaultFactory_New(t *testing.T) {
	t.Parallel()

	f, err := NewFactory()
	require.NoError(t, err)

	tc := []struct {
		name    string
		d       config.ServerDescriptor
		wantErr string
	}{
		{
			name: "local process",
			d:    config.ServerDescriptor{ID: "a", Type: config.KindLocalProcess, Command: "server"},
		},
		{
			name: "http",
			d:    config.ServerDescriptor{ID: "b", Type: config.KindHTTP, URL: "http://localhost:1/mcp"},
		},
		{
			name: "event stream",
			d:    config.ServerDescriptor{ID: "c", Type: config.KindEventStream, URL: "http://localhost:1/sse"},
		},
		{
			name:    "missing command",
			d:       config.ServerDescriptor{ID: "a", Type: config.KindLocalProcess},
			wantErr: "server 'a': command is required for local-process",
		},
		{
			name:    "missing url",
			d:       config.ServerDescriptor{ID: "b", Type: config.KindHTTP},
			wantErr: "server 'b': url is required for http",
		},
		{
			name:    "unsupported",
			d:       config.ServerDescriptor{ID: "x", Type: "pigeon"},
			wantErr: "server 'x': unsupported transport type 'pigeon'",
		},
	}

	for _, testCase := range tc {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			tr, err := f.New(testCase.d)
			if testCase.wantErr != "" {
				require.EqualError(t, err, testCase.wantErr)
				return
			}
			require.NoError(t, err)
			require.False(t, tr.IsReady())
			require.Equal(t, testCase.d.ID, tr.Info().ServerID)
			require.Equal(t, testCase.d.Type, tr.Info().Kind)
			require.NoError(t, tr.Close())
		})
	}
}

func TestEnviron(t *testing.T) {
	t.Parallel()

	require.Equal(t, []string{"A=1", "B=2"}, Environ(map[string]string{"B": "2", "A": "1"}))
	require.Empty(t, Environ(nil))
}
