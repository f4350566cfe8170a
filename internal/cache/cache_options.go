package cache

import (
	"fmt"
	"time"
)

// Option defines a functional option for configuring a TTL cache.
type Option func(*Options) error

// Options contains optional configuration for the cache.
type Options struct {
	// ttl is the default time-to-live for entries stored without an explicit TTL.
	ttl time.Duration

	// maxSize is the maximum number of entries held before the oldest-inserted entry is evicted.
	maxSize int

	// now returns the current time, overridable for tests.
	now func() time.Time
}

// DefaultTTL is the default time-to-live for cached entries.
func DefaultTTL() time.Duration {
	return 60 * time.Second
}

// DefaultMaxSize is the default maximum number of cached entries.
func DefaultMaxSize() int {
	return 100
}

// NewOptions creates Options with defaults, then applies options in order.
func NewOptions(opts ...Option) (Options, error) {
	o := Options{
		ttl:     DefaultTTL(),
		maxSize: DefaultMaxSize(),
		now:     time.Now,
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

// WithTTL sets the default entry time-to-live.
func WithTTL(ttl time.Duration) Option {
	return func(o *Options) error {
		if ttl <= 0 {
			return fmt.Errorf("TTL must be positive, got %v", ttl)
		}
		o.ttl = ttl
		return nil
	}
}

// WithMaxSize sets the capacity of the cache.
func WithMaxSize(size int) Option {
	return func(o *Options) error {
		if size <= 0 {
			return fmt.Errorf("max size must be positive, got %d", size)
		}
		o.maxSize = size
		return nil
	}
}

// WithClock replaces the time source used for expiry calculations.
func WithClock(now func() time.Time) Option {
	return func(o *Options) error {
		if now == nil {
			return fmt.Errorf("clock cannot be nil")
		}
		o.now = now
		return nil
	}
}
