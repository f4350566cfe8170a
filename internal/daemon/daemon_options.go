package daemon

import (
	"fmt"
	"time"
)

// Options contains optional configuration for the daemon.
// NewOptions should be used to create instances of Options.
type Options struct {
	// APIOptions contains functional options for the API server.
	APIOptions []APIOption

	// ManagerOptions contains functional options for the client manager.
	ManagerOptions []ManagerOption

	// ClientShutdownTimeout specifies how long to wait for MCP servers to disconnect.
	ClientShutdownTimeout time.Duration
}

// Option defines a functional option for configuring Options.
// Options are applied in order, with later options overriding earlier ones.
type Option func(*Options) error

// NewOptions creates Options with optional configurations applied.
// Starts with default values, then applies options in order with later options overriding earlier ones.
func NewOptions(opts ...Option) (Options, error) {
	options := defaultOptions()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&options); err != nil {
			return Options{}, err
		}
	}

	return options, nil
}

// WithAPIOptions configures API server options.
// Replaces all previous API configuration including CORS settings.
func WithAPIOptions(apiOpts ...APIOption) Option {
	return func(o *Options) error {
		o.APIOptions = apiOpts
		return nil
	}
}

// WithManagerOptions configures client manager options.
// Replaces all previous client manager options.
func WithManagerOptions(managerOpts ...ManagerOption) Option {
	return func(o *Options) error {
		o.ManagerOptions = managerOpts
		return nil
	}
}

// WithClientShutdownTimeout configures how long to wait for MCP servers to disconnect.
func WithClientShutdownTimeout(timeout time.Duration) Option {
	return func(o *Options) error {
		if timeout <= 0 {
			return fmt.Errorf("client shutdown timeout must be positive, got %v", timeout)
		}
		o.ClientShutdownTimeout = timeout
		return nil
	}
}

// DefaultClientShutdownTimeout is the default time to wait for MCP servers to disconnect.
func DefaultClientShutdownTimeout() time.Duration {
	return 10 * time.Second
}

// defaultOptions returns Options with default values.
func defaultOptions() Options {
	return Options{
		ClientShutdownTimeout: DefaultClientShutdownTimeout(),
	}
}
