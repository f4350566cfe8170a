// Package transport connects to MCP servers and exposes a small request interface over the MCP client library.
package transport

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mozilla-ai/mcpfleet/internal/config"
)

// Methods understood by Request.
const (
	MethodPing          = "ping"
	MethodListTools     = "tools/list"
	MethodCallTool      = "tools/call"
	MethodListResources = "resources/list"
	MethodListPrompts   = "prompts/list"
)

// ErrUnsupportedMethod is returned by Request for methods outside the supported set.
var ErrUnsupportedMethod = errors.New("unsupported method")

// Transport is a started connection to a single MCP server.
type Transport interface {
	// Start connects to the server and performs the initialize handshake.
	Start(ctx context.Context) error

	// Request sends a request and returns the raw JSON result.
	Request(ctx context.Context, method string, params map[string]any) (json.RawMessage, error)

	// Close releases the connection. It is safe to call more than once.
	Close() error

	// IsReady reports whether the transport has started and not closed.
	IsReady() bool

	// SetHandlers replaces the callbacks for asynchronous transport activity.
	SetHandlers(h Handlers)

	// Info describes the connection.
	Info() Info
}

// Handlers receives asynchronous transport activity.
// Any of the functions may be nil.
type Handlers struct {
	// OnMessage receives server initiated notifications.
	OnMessage func(msg Message)

	// OnError receives errors not tied to a request.
	OnError func(err error)

	// OnClose is called once when the connection ends without Close being called.
	OnClose func(err error)
}

// Message is a server initiated notification.
type Message struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Info describes a transport and, once started, the server behind it.
type Info struct {
	ServerID        string      `json:"serverId"`
	Kind            config.Kind `json:"kind"`
	Target          string      `json:"target"`
	ServerName      string      `json:"serverName,omitempty"`
	ServerVersion   string      `json:"serverVersion,omitempty"`
	ProtocolVersion string      `json:"protocolVersion,omitempty"`
}

// Factory creates unstarted transports from server descriptors.
type Factory interface {
	New(d config.ServerDescriptor) (Transport, error)
}

// FactoryFunc adapts a function to a Factory.
type FactoryFunc func(d config.ServerDescriptor) (Transport, error)

func (f FactoryFunc) New(d config.ServerDescriptor) (Transport, error) {
	return f(d)
}

// ToolCallParams builds the params for MethodCallTool.
func ToolCallParams(name string, args map[string]any) map[string]any {
	if args == nil {
		args = map[string]any{}
	}
	return map[string]any{
		"name":      name,
		"arguments": args,
	}
}
