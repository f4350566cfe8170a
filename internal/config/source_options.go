package config

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
)

// SourceOption configures a Source.
type SourceOption func(*SourceOptions) error

// SourceOptions contains optional configuration for a Source.
type SourceOptions struct {
	loader   Loader
	logger   hclog.Logger
	debounce time.Duration
}

// DefaultDebounce is the window in which bursts of file events collapse into a single reload.
func DefaultDebounce() time.Duration {
	return 100 * time.Millisecond
}

// NewSourceOptions applies opts over the defaults.
func NewSourceOptions(opts ...SourceOption) (SourceOptions, error) {
	o := SourceOptions{
		logger:   hclog.NewNullLogger(),
		debounce: DefaultDebounce(),
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&o); err != nil {
			return SourceOptions{}, err
		}
	}

	return o, nil
}

// WithSourceLoader sets the loader used for Load and Reload.
// When not supplied a DefaultLoader reading the process environment is used.
func WithSourceLoader(l Loader) SourceOption {
	return func(o *SourceOptions) error {
		if l == nil {
			return fmt.Errorf("loader cannot be nil")
		}
		o.loader = l
		return nil
	}
}

// WithSourceLogger sets the logger.
func WithSourceLogger(logger hclog.Logger) SourceOption {
	return func(o *SourceOptions) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		o.logger = logger
		return nil
	}
}

// WithDebounce overrides the file event debounce window.
func WithDebounce(d time.Duration) SourceOption {
	return func(o *SourceOptions) error {
		if d <= 0 {
			return fmt.Errorf("debounce must be positive, got %s", d)
		}
		o.debounce = d
		return nil
	}
}
