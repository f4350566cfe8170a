package daemon

import (
	"fmt"
	"strings"
	"time"

	"github.com/mozilla-ai/mcpfleet/internal/config"
	"github.com/mozilla-ai/mcpfleet/internal/health"
	"github.com/mozilla-ai/mcpfleet/internal/registry"
)

// ManagerOptions contains optional configuration for the ClientManager.
// NewManagerOptions should be used to create instances of ManagerOptions.
type ManagerOptions struct {
	// AutoConnect connects every enabled server on Initialize and when servers are added by a reload.
	AutoConnect bool

	// AutoReconnect reconnects a server, using its retry policy, when its transport closes unexpectedly.
	AutoReconnect bool

	// WatchConfig reloads the configuration when the file changes.
	WatchConfig bool

	// Namespace prefixes qualified tool IDs.
	Namespace string

	// DegradedThreshold is the probe latency above which a server is reported degraded.
	DegradedThreshold time.Duration

	// HealthCacheTTL is how long health results are served from cache.
	HealthCacheTTL time.Duration
}

// ManagerOption defines a functional option for configuring ManagerOptions.
// Options are applied in order, with later options overriding earlier ones.
type ManagerOption func(*ManagerOptions) error

// NewManagerOptions creates ManagerOptions with optional configurations applied.
func NewManagerOptions(opts ...ManagerOption) (ManagerOptions, error) {
	options := ManagerOptions{
		AutoConnect:       true,
		Namespace:         registry.DefaultNamespace(),
		DegradedThreshold: health.DefaultDegradedThreshold(),
		HealthCacheTTL:    health.DefaultCacheTTL(),
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&options); err != nil {
			return ManagerOptions{}, err
		}
	}

	return options, nil
}

// WithAutoConnect configures whether servers are connected as soon as they are registered.
func WithAutoConnect(enabled bool) ManagerOption {
	return func(o *ManagerOptions) error {
		o.AutoConnect = enabled
		return nil
	}
}

// WithAutoReconnect configures whether unexpectedly closed connections are re-established.
func WithAutoReconnect(enabled bool) ManagerOption {
	return func(o *ManagerOptions) error {
		o.AutoReconnect = enabled
		return nil
	}
}

// WithWatchConfig configures whether configuration file changes are applied while running.
func WithWatchConfig(enabled bool) ManagerOption {
	return func(o *ManagerOptions) error {
		o.WatchConfig = enabled
		return nil
	}
}

// WithNamespace configures the prefix of qualified tool IDs.
func WithNamespace(namespace string) ManagerOption {
	return func(o *ManagerOptions) error {
		namespace = strings.TrimSpace(namespace)
		if namespace == "" {
			return fmt.Errorf("namespace cannot be empty")
		}
		if strings.Contains(namespace, config.QualifiedIDSeparator) {
			return fmt.Errorf("namespace '%s' cannot contain '%s'", namespace, config.QualifiedIDSeparator)
		}
		o.Namespace = namespace
		return nil
	}
}

// WithDegradedThreshold configures the probe latency above which a server is reported degraded.
func WithDegradedThreshold(d time.Duration) ManagerOption {
	return func(o *ManagerOptions) error {
		if d <= 0 {
			return fmt.Errorf("degraded threshold must be positive, got %v", d)
		}
		o.DegradedThreshold = d
		return nil
	}
}

// WithHealthCacheTTL configures how long health results are served from cache.
func WithHealthCacheTTL(d time.Duration) ManagerOption {
	return func(o *ManagerOptions) error {
		if d <= 0 {
			return fmt.Errorf("health cache TTL must be positive, got %v", d)
		}
		o.HealthCacheTTL = d
		return nil
	}
}
