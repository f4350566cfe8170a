package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mozilla-ai/mcpfleet/internal/config"
	errs "github.com/mozilla-ai/mcpfleet/internal/errors"
)

var _ Transport = (*MCPTransport)(nil)

// mcpClient is the subset of the MCP client library used by MCPTransport.
type mcpClient interface {
	Initialize(ctx context.Context, request mcp.InitializeRequest) (*mcp.InitializeResult, error)
	Ping(ctx context.Context) error
	ListTools(ctx context.Context, request mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
	ListResources(ctx context.Context, request mcp.ListResourcesRequest) (*mcp.ListResourcesResult, error)
	ListPrompts(ctx context.Context, request mcp.ListPromptsRequest) (*mcp.ListPromptsResult, error)
	CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
	OnNotification(handler func(notification mcp.JSONRPCNotification))
	Close() error
}

// connectionLoser is implemented by clients able to report a dropped connection.
type connectionLoser interface {
	OnConnectionLost(handler func(error))
}

// dialFunc creates and starts a client. The returned reader, if any, is the server's stderr.
// ctx bounds the lifetime of the connection, not just the dial.
type dialFunc func(ctx context.Context) (mcpClient, io.Reader, error)

// MCPTransport is a Transport backed by the MCP client library.
type MCPTransport struct {
	descriptor config.ServerDescriptor
	clientInfo mcp.Implementation
	dial       dialFunc
	logger     hclog.Logger

	startMu sync.Mutex

	mu       sync.RWMutex
	client   mcpClient
	ready    bool
	closed   bool
	handlers Handlers
	info     Info
	cancel   context.CancelFunc
}

func newMCPTransport(d config.ServerDescriptor, info mcp.Implementation, dial dialFunc, logger hclog.Logger) *MCPTransport {
	return &MCPTransport{
		descriptor: d,
		clientInfo: info,
		dial:       dial,
		logger:     logger,
		info: Info{
			ServerID: d.ID,
			Kind:     d.Type,
			Target:   d.Target(),
		},
	}
}

// Start connects and performs the initialize handshake.
// Calling Start on a ready transport is a no-op, a closed transport cannot be restarted.
func (t *MCPTransport) Start(ctx context.Context) error {
	t.startMu.Lock()
	defer t.startMu.Unlock()

	t.mu.RLock()
	closed, ready := t.closed, t.ready
	t.mu.RUnlock()

	if closed {
		return fmt.Errorf("%w: transport for '%s' is closed", errs.ErrTransportNotReady, t.descriptor.ID)
	}
	if ready {
		return nil
	}

	// The connection outlives the start context, but values such as trace data are kept.
	lifetime, cancel := context.WithCancel(context.WithoutCancel(ctx))

	c, stderr, err := t.dial(lifetime)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to connect to '%s' (%s): %w", t.descriptor.ID, t.descriptor.Target(), err)
	}

	if stderr != nil {
		go t.pipeStderr(lifetime, stderr)
	}

	c.OnNotification(t.notify)
	if cl, ok := c.(connectionLoser); ok {
		cl.OnConnectionLost(t.connectionLost)
	}

	res, err := c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			ClientInfo:      t.clientInfo,
		},
	})
	if err != nil {
		cancel()
		_ = c.Close()
		return fmt.Errorf("failed to initialize '%s': %w", t.descriptor.ID, err)
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		cancel()
		_ = c.Close()
		return fmt.Errorf("%w: transport for '%s' closed while starting", errs.ErrTransportNotReady, t.descriptor.ID)
	}
	t.client = c
	t.cancel = cancel
	t.ready = true
	if res != nil {
		t.info.ServerName = res.ServerInfo.Name
		t.info.ServerVersion = res.ServerInfo.Version
		t.info.ProtocolVersion = res.ProtocolVersion
	}
	info := t.info
	t.mu.Unlock()

	t.logger.Info(
		"MCP server initialized",
		"server", t.descriptor.ID,
		"name", info.ServerName,
		"version", info.ServerVersion,
	)

	return nil
}

// Request dispatches one of the supported methods and returns its JSON encoded result.
func (t *MCPTransport) Request(ctx context.Context, method string, params map[string]any) (json.RawMessage, error) {
	t.mu.RLock()
	c, ready := t.client, t.ready
	t.mu.RUnlock()

	if !ready || c == nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrTransportNotReady, t.descriptor.ID)
	}

	var (
		result any
		err    error
	)

	switch method {
	case MethodPing:
		err = c.Ping(ctx)
		result = struct{}{}
	case MethodListTools:
		result, err = c.ListTools(ctx, mcp.ListToolsRequest{})
	case MethodListResources:
		result, err = c.ListResources(ctx, mcp.ListResourcesRequest{})
	case MethodListPrompts:
		result, err = c.ListPrompts(ctx, mcp.ListPromptsRequest{})
	case MethodCallTool:
		var req mcp.CallToolRequest
		req, err = callToolRequest(params)
		if err == nil {
			result, err = c.CallTool(ctx, req)
		}
	default:
		return nil, fmt.Errorf("%w: '%s'", ErrUnsupportedMethod, method)
	}
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s result: %w", method, err)
	}

	return data, nil
}

func callToolRequest(params map[string]any) (mcp.CallToolRequest, error) {
	name, _ := params["name"].(string)
	if name == "" {
		return mcp.CallToolRequest{}, fmt.Errorf("%w: tool name is required", errs.ErrBadRequest)
	}

	args, _ := params["arguments"].(map[string]any)
	if args == nil {
		args = map[string]any{}
	}

	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}, nil
}

// Close releases the client. Handlers are not notified of an explicit close.
func (t *MCPTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	c, cancel := t.client, t.cancel
	t.closed = true
	t.ready = false
	t.client = nil
	t.mu.Unlock()

	var err error
	if c != nil {
		err = c.Close()
	}
	if cancel != nil {
		cancel()
	}

	return err
}

func (t *MCPTransport) IsReady() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ready
}

func (t *MCPTransport) SetHandlers(h Handlers) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers = h
}

func (t *MCPTransport) Info() Info {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.info
}

func (t *MCPTransport) currentHandlers() Handlers {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.handlers
}

func (t *MCPTransport) notify(n mcp.JSONRPCNotification) {
	h := t.currentHandlers()
	if h.OnMessage == nil {
		return
	}

	msg := Message{Method: n.Method}
	if params, err := json.Marshal(n.Params); err == nil {
		msg.Params = params
	}
	h.OnMessage(msg)
}

// connectionLost marks the transport unusable and reports the close once.
func (t *MCPTransport) connectionLost(err error) {
	t.mu.Lock()
	if t.closed || !t.ready {
		t.mu.Unlock()
		return
	}
	t.ready = false
	h := t.handlers
	t.mu.Unlock()

	t.logger.Warn("Connection to MCP server lost", "server", t.descriptor.ID, "error", err)

	if h.OnClose != nil {
		h.OnClose(err)
	}
}

// pipeStderr forwards the server's stderr to the logger.
// EOF means the process exited, which is reported as a lost connection.
func (t *MCPTransport) pipeStderr(ctx context.Context, stderr io.Reader) {
	reader := bufio.NewReader(stderr)
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			t.logger.Info("stderr", "server", t.descriptor.ID, "line", trimNewline(line))
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if !errors.Is(err, io.EOF) {
				t.logger.Error("Error reading stderr", "server", t.descriptor.ID, "error", err)
				if h := t.currentHandlers(); h.OnError != nil {
					h.OnError(err)
				}
			}
			t.connectionLost(fmt.Errorf("server process for '%s' exited", t.descriptor.ID))
			return
		}
	}
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
