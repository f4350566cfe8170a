package health

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/mozilla-ai/mcpfleet/internal/cache"
	"github.com/mozilla-ai/mcpfleet/internal/events"
)

// Option configures a Checker.
type Option func(*Options) error

// Options contains optional configuration for a Checker.
type Options struct {
	logger            hclog.Logger
	publisher         events.Publisher
	recorder          ResultRecorder
	degradedThreshold time.Duration
	timeout           time.Duration
	cacheTTL          time.Duration
	cacheSize         int
}

// DefaultDegradedThreshold is the probe latency above which a server is reported degraded.
func DefaultDegradedThreshold() time.Duration {
	return time.Second
}

// DefaultTimeout bounds a probe when the caller does not supply a timeout.
func DefaultTimeout() time.Duration {
	return 5 * time.Second
}

// DefaultCacheTTL is how long a result is served from cache when no TTL is supplied.
func DefaultCacheTTL() time.Duration {
	return 10 * time.Second
}

// NewOptions applies opts over the defaults.
func NewOptions(opts ...Option) (Options, error) {
	o := Options{
		logger:            hclog.NewNullLogger(),
		degradedThreshold: DefaultDegradedThreshold(),
		timeout:           DefaultTimeout(),
		cacheTTL:          DefaultCacheTTL(),
		cacheSize:         cache.DefaultMaxSize(),
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

// WithPublisher sets where health events are published.
func WithPublisher(p events.Publisher) Option {
	return func(o *Options) error {
		if p == nil {
			return fmt.Errorf("publisher cannot be nil")
		}
		o.publisher = p
		return nil
	}
}

// WithRecorder sets a sink which receives every result.
func WithRecorder(r ResultRecorder) Option {
	return func(o *Options) error {
		if r == nil {
			return fmt.Errorf("recorder cannot be nil")
		}
		o.recorder = r
		return nil
	}
}

// WithDegradedThreshold sets the latency above which a successful probe is degraded.
func WithDegradedThreshold(d time.Duration) Option {
	return func(o *Options) error {
		if d <= 0 {
			return fmt.Errorf("degraded threshold must be positive, got %s", d)
		}
		o.degradedThreshold = d
		return nil
	}
}

// WithTimeout sets the probe timeout used when none is supplied.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) error {
		if d <= 0 {
			return fmt.Errorf("timeout must be positive, got %s", d)
		}
		o.timeout = d
		return nil
	}
}

// WithCacheTTL sets the result cache TTL used when none is supplied.
func WithCacheTTL(d time.Duration) Option {
	return func(o *Options) error {
		if d <= 0 {
			return fmt.Errorf("cache TTL must be positive, got %s", d)
		}
		o.cacheTTL = d
		return nil
	}
}

// WithCacheSize bounds the number of cached results.
func WithCacheSize(n int) Option {
	return func(o *Options) error {
		if n <= 0 {
			return fmt.Errorf("cache size must be positive, got %d", n)
		}
		o.cacheSize = n
		return nil
	}
}
