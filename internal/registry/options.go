package registry

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/mozilla-ai/mcpfleet/internal/config"
	"github.com/mozilla-ai/mcpfleet/internal/events"
)

// Option configures a Registry.
type Option func(*Options) error

// Options contains optional configuration for a Registry.
type Options struct {
	namespace string
	logger    hclog.Logger
	publisher events.Publisher
}

// DefaultNamespace prefixes qualified tool IDs when no namespace is configured.
func DefaultNamespace() string {
	return "mcp"
}

// NewOptions applies opts over the defaults.
func NewOptions(opts ...Option) (Options, error) {
	o := Options{
		namespace: DefaultNamespace(),
		logger:    hclog.NewNullLogger(),
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&o); err != nil {
			return Options{}, err
		}
	}

	return o, nil
}

// WithNamespace sets the qualified tool ID namespace.
func WithNamespace(ns string) Option {
	return func(o *Options) error {
		ns = strings.TrimSpace(ns)
		if ns == "" {
			return fmt.Errorf("namespace cannot be empty")
		}
		if strings.Contains(ns, config.QualifiedIDSeparator) {
			return fmt.Errorf("namespace cannot contain '%s'", config.QualifiedIDSeparator)
		}
		o.namespace = ns
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger hclog.Logger) Option {
	return func(o *Options) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		o.logger = logger
		return nil
	}
}

// WithPublisher sets where registry events are published.
func WithPublisher(p events.Publisher) Option {
	return func(o *Options) error {
		if p == nil {
			return fmt.Errorf("publisher cannot be nil")
		}
		o.publisher = p
		return nil
	}
}
