package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"

	"github.com/mozilla-ai/mcpfleet/internal/config"
	errs "github.com/mozilla-ai/mcpfleet/internal/errors"
)

// mockClient is a test implementation of mcpClient.
type mockClient struct {
	mu            sync.Mutex
	initErr       error
	callErr       error
	lastCall      mcp.CallToolRequest
	closed        int
	notify        func(mcp.JSONRPCNotification)
	lost          func(error)
	initRequested mcp.InitializeRequest
}

func (m *mockClient) Initialize(_ context.Context, req mcp.InitializeRequest) (*mcp.InitializeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initRequested = req
	if m.initErr != nil {
		return nil, m.initErr
	}
	return &mcp.InitializeResult{
		ProtocolVersion: "2025-03-26",
		ServerInfo:      mcp.Implementation{Name: "srv", Version: "1.2.3"},
	}, nil
}

func (m *mockClient) Ping(context.Context) error { return nil }

func (m *mockClient) ListTools(context.Context, mcp.ListToolsRequest) (*mcp.ListToolsResult, error) {
	return &mcp.ListToolsResult{Tools: []mcp.Tool{mcp.NewTool("echo", mcp.WithDescription("Echo input"))}}, nil
}

func (m *mockClient) ListResources(context.Context, mcp.ListResourcesRequest) (*mcp.ListResourcesResult, error) {
	return &mcp.ListResourcesResult{Resources: []mcp.Resource{{URI: "file:///a", Name: "a"}}}, nil
}

func (m *mockClient) ListPrompts(context.Context, mcp.ListPromptsRequest) (*mcp.ListPromptsResult, error) {
	return &mcp.ListPromptsResult{Prompts: []mcp.Prompt{{Name: "greet"}}}, nil
}

func (m *mockClient) CallTool(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastCall = req
	if m.callErr != nil {
		return nil, m.callErr
	}
	return mcp.NewToolResultText("done"), nil
}

func (m *mockClient) OnNotification(handler func(notification mcp.JSONRPCNotification)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notify = handler
}

func (m *mockClient) OnConnectionLost(handler func(error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lost = handler
}

func (m *mockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed++
	return nil
}

func (m *mockClient) closeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func testDescriptor() config.ServerDescriptor {
	return config.ServerDescriptor{ID: "local", Type: config.KindLocalProcess, Command: "server"}
}

func newTestTransport(c *mockClient, stderr io.Reader) *MCPTransport {
	dial := func(context.Context) (mcpClient, io.Reader, error) { return c, stderr, nil }
	return newMCPTransport(
		testDescriptor(),
		mcp.Implementation{Name: "test", Version: "0"},
		dial,
		hclog.NewNullLogger(),
	)
}

func TestMCPTransport_StartAndInfo(t *testing.T) {
	t.Parallel()

	c := &mockClient{}
	tr := newTestTransport(c, nil)
	require.False(t, tr.IsReady())

	require.NoError(t, tr.Start(context.Background()))
	require.True(t, tr.IsReady())
	require.NoError(t, tr.Start(context.Background()))

	info := tr.Info()
	require.Equal(t, "local", info.ServerID)
	require.Equal(t, config.KindLocalProcess, info.Kind)
	require.Equal(t, "server", info.Target)
	require.Equal(t, "srv", info.ServerName)
	require.Equal(t, "1.2.3", info.ServerVersion)
	require.Equal(t, "2025-03-26", info.ProtocolVersion)
	require.Equal(t, "test", c.initRequested.Params.ClientInfo.Name)
}

func TestMCPTransport_StartErrors(t *testing.T) {
	t.Parallel()

	t.Run("dial", func(t *testing.T) {
		t.Parallel()

		dialErr := errors.New("no such file")
		tr := newMCPTransport(testDescriptor(), mcp.Implementation{}, func(context.Context) (mcpClient, io.Reader, error) {
			return nil, nil, dialErr
		}, hclog.NewNullLogger())

		err := tr.Start(context.Background())
		require.ErrorIs(t, err, dialErr)
		require.False(t, tr.IsReady())
	})

	t.Run("initialize", func(t *testing.T) {
		t.Parallel()

		c := &mockClient{initErr: errors.New("bad handshake")}
		tr := newTestTransport(c, nil)

		err := tr.Start(context.Background())
		require.ErrorContains(t, err, "bad handshake")
		require.False(t, tr.IsReady())
		require.Equal(t, 1, c.closeCount())
	})

	t.Run("closed", func(t *testing.T) {
		t.Parallel()

		tr := newTestTransport(&mockClient{}, nil)
		require.NoError(t, tr.Close())
		require.ErrorIs(t, tr.Start(context.Background()), errs.ErrTransportNotReady)
	})
}

func TestMCPTransport_Request(t *testing.T) {
	t.Parallel()

	c := &mockClient{}
	tr := newTestTransport(c, nil)

	_, err := tr.Request(context.Background(), MethodPing, nil)
	require.ErrorIs(t, err, errs.ErrTransportNotReady)

	require.NoError(t, tr.Start(context.Background()))

	raw, err := tr.Request(context.Background(), MethodListTools, nil)
	require.NoError(t, err)
	var tools struct {
		Tools []struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(raw, &tools))
	require.Len(t, tools.Tools, 1)
	require.Equal(t, "echo", tools.Tools[0].Name)
	require.Equal(t, "Echo input", tools.Tools[0].Description)

	raw, err = tr.Request(context.Background(), MethodListResources, nil)
	require.NoError(t, err)
	require.Contains(t, string(raw), "file:///a")

	raw, err = tr.Request(context.Background(), MethodListPrompts, nil)
	require.NoError(t, err)
	require.Contains(t, string(raw), "greet")

	_, err = tr.Request(context.Background(), MethodPing, nil)
	require.NoError(t, err)

	raw, err = tr.Request(context.Background(), MethodCallTool, ToolCallParams("echo", map[string]any{"x": 1}))
	require.NoError(t, err)
	require.Contains(t, string(raw), "done")
	require.Equal(t, "echo", c.lastCall.Params.Name)
	require.Equal(t, map[string]any{"x": 1}, c.lastCall.Params.Arguments)

	_, err = tr.Request(context.Background(), MethodCallTool, map[string]any{})
	require.ErrorIs(t, err, errs.ErrBadRequest)

	_, err = tr.Request(context.Background(), "sampling/createMessage", nil)
	require.ErrorIs(t, err, ErrUnsupportedMethod)
}

func TestMCPTransport_CloseIsIdempotentAndSilent(t *testing.T) {
	t.Parallel()

	c := &mockClient{}
	tr := newTestTransport(c, nil)
	require.NoError(t, tr.Start(context.Background()))

	closed := 0
	tr.SetHandlers(Handlers{OnClose: func(error) { closed++ }})

	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())
	require.False(t, tr.IsReady())
	require.Equal(t, 1, c.closeCount())
	require.Equal(t, 0, closed)
}

func TestMCPTransport_ConnectionLost(t *testing.T) {
	t.Parallel()

	c := &mockClient{}
	tr := newTestTransport(c, nil)
	require.NoError(t, tr.Start(context.Background()))

	var got []error
	tr.SetHandlers(Handlers{OnClose: func(err error) { got = append(got, err) }})

	lostErr := errors.New("stream reset")
	c.lost(lostErr)
	c.lost(lostErr)

	require.False(t, tr.IsReady())
	require.Equal(t, []error{lostErr}, got)
}

func TestMCPTransport_Notifications(t *testing.T) {
	t.Parallel()

	c := &mockClient{}
	tr := newTestTransport(c, nil)
	require.NoError(t, tr.Start(context.Background()))

	var got []Message
	tr.SetHandlers(Handlers{OnMessage: func(m Message) { got = append(got, m) }})

	c.notify(mcp.JSONRPCNotification{
		JSONRPC:      mcp.JSONRPC_VERSION,
		Notification: mcp.Notification{Method: "notifications/tools/list_changed"},
	})

	require.Len(t, got, 1)
	require.Equal(t, "notifications/tools/list_changed", got[0].Method)
}

func TestMCPTransport_ProcessExitReportsClose(t *testing.T) {
	t.Parallel()

	pr, pw := io.Pipe()
	c := &mockClient{}
	tr := newTestTransport(c, pr)

	closed := make(chan error, 1)
	tr.SetHandlers(Handlers{OnClose: func(err error) { closed <- err }})
	require.NoError(t, tr.Start(context.Background()))

	_, err := io.Copy(pw, strings.NewReader("starting up\n"))
	require.NoError(t, err)
	require.NoError(t, pw.Close())

	select {
	case err := <-closed:
		require.ErrorContains(t, err, "exited")
	case <-time.After(5 * time.Second):
		t.Fatal("expected close notification")
	}
	require.False(t, tr.IsReady())
}

func TestToolCallParams(t *testing.T) {
	t.Parallel()

	require.Equal(t, map[string]any{"name": "a", "arguments": map[string]any{}}, ToolCallParams("a", nil))
}
