package transport

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/hashicorp/go-hclog"
	"github.com/mark3labs/mcp-go/client"
	mcptransport "github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mozilla-ai/mcpfleet/internal/config"
)

var _ Factory = (*DefaultFactory)(nil)

// DefaultFactory builds MCPTransport instances for every supported server kind.
type DefaultFactory struct {
	logger     hclog.Logger
	clientInfo mcp.Implementation
}

// FactoryOption configures a DefaultFactory.
type FactoryOption func(*DefaultFactory) error

// WithLogger sets the logger transports write server stderr and lifecycle messages to.
func WithLogger(logger hclog.Logger) FactoryOption {
	return func(f *DefaultFactory) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		f.logger = logger
		return nil
	}
}

// WithClientInfo sets the client name and version sent during initialize.
func WithClientInfo(name string, version string) FactoryOption {
	return func(f *DefaultFactory) error {
		if name == "" {
			return fmt.Errorf("client name cannot be empty")
		}
		f.clientInfo = mcp.Implementation{Name: name, Version: version}
		return nil
	}
}

// NewFactory creates a DefaultFactory.
func NewFactory(opts ...FactoryOption) (*DefaultFactory, error) {
	f := &DefaultFactory{
		logger:     hclog.NewNullLogger(),
		clientInfo: mcp.Implementation{Name: "mcpfleet", Version: "dev"},
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(f); err != nil {
			return nil, err
		}
	}

	f.logger = f.logger.Named("transport")

	return f, nil
}

// New returns an unstarted transport for the descriptor.
func (f *DefaultFactory) New(d config.ServerDescriptor) (Transport, error) {
	var dial dialFunc

	switch d.Type {
	case config.KindLocalProcess:
		if d.Command == "" {
			return nil, fmt.Errorf("server '%s': command is required for %s", d.ID, d.Type)
		}
		dial = stdioDialer(d)
	case config.KindHTTP:
		if d.URL == "" {
			return nil, fmt.Errorf("server '%s': url is required for %s", d.ID, d.Type)
		}
		dial = streamableHTTPDialer(d)
	case config.KindEventStream:
		if d.URL == "" {
			return nil, fmt.Errorf("server '%s': url is required for %s", d.ID, d.Type)
		}
		dial = sseDialer(d)
	default:
		return nil, fmt.Errorf("server '%s': unsupported transport type '%s'", d.ID, d.Type)
	}

	return newMCPTransport(d, f.clientInfo, dial, f.logger.Named(d.ID)), nil
}

func stdioDialer(d config.ServerDescriptor) dialFunc {
	return func(ctx context.Context) (mcpClient, io.Reader, error) {
		t := mcptransport.NewStdio(d.Command, Environ(d.Env), d.Args...)
		c := client.NewClient(t)
		if err := c.Start(ctx); err != nil {
			return nil, nil, fmt.Errorf("failed to start process: %w", err)
		}

		stderr, ok := client.GetStderr(c)
		if !ok {
			_ = c.Close()
			return nil, nil, fmt.Errorf("failed to get stderr from process")
		}

		return c, stderr, nil
	}
}

func streamableHTTPDialer(d config.ServerDescriptor) dialFunc {
	return func(ctx context.Context) (mcpClient, io.Reader, error) {
		t, err := mcptransport.NewStreamableHTTP(d.URL, mcptransport.WithHTTPHeaders(maps.Clone(d.Headers)))
		if err != nil {
			return nil, nil, err
		}

		c := client.NewClient(t)
		if err := c.Start(ctx); err != nil {
			return nil, nil, err
		}

		return c, nil, nil
	}
}

func sseDialer(d config.ServerDescriptor) dialFunc {
	return func(ctx context.Context) (mcpClient, io.Reader, error) {
		t, err := mcptransport.NewSSE(d.URL, mcptransport.WithHeaders(maps.Clone(d.Headers)))
		if err != nil {
			return nil, nil, err
		}

		c := client.NewClient(t)
		if err := c.Start(ctx); err != nil {
			return nil, nil, err
		}

		return c, nil, nil
	}
}

// Environ formats env as sorted KEY=VALUE pairs.
func Environ(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for _, k := range slices.Sorted(maps.Keys(env)) {
		out = append(out, k+"="+env[k])
	}
	return out
}
