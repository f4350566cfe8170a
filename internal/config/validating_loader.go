package config

import "fmt"

// ValidationPredicate evaluates a loaded Config and returns an error if invalid.
type ValidationPredicate func(*Config) error

// validatingLoader wraps a Loader to run additional validation predicates at load time.
// Uses decorator pattern to preserve custom loader implementations while adding validation.
type validatingLoader struct {
	Loader
	predicates []ValidationPredicate
}

// NewValidatingLoader creates a loader that runs validation predicates after Load().
func NewValidatingLoader(inner Loader, predicates ...ValidationPredicate) Loader {
	return &validatingLoader{
		Loader:     inner,
		predicates: predicates,
	}
}

// Load delegates to inner loader, then runs validation predicates.
func (l *validatingLoader) Load(path string) (*Config, error) {
	cfg, err := l.Loader.Load(path)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("%w: loader returned no configuration", ErrConfigLoadFailed)
	}

	for _, predicate := range l.predicates {
		if predicate == nil {
			continue
		}
		if err := predicate(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// RequireAtLeastOneServer fails when the configuration declares no servers.
func RequireAtLeastOneServer(cfg *Config) error {
	if len(cfg.Servers) == 0 {
		return &ValidationError{Violations: []Violation{{Field: "servers", Message: "at least one server must be configured"}}}
	}
	return nil
}

// RequireEnabledServer fails when every configured server is disabled.
func RequireEnabledServer(cfg *Config) error {
	for _, s := range cfg.Servers {
		if s.Enabled {
			return nil
		}
	}
	return &ValidationError{Violations: []Violation{{Field: "servers", Message: "at least one server must be enabled"}}}
}
