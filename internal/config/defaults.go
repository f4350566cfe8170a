package config

import (
	"maps"
	"slices"
	"time"
)

// DefaultTimeout is the baseline request timeout for a server.
func DefaultTimeout() time.Duration {
	return 30 * time.Second
}

// DefaultHealthCheckPolicy is the baseline health check policy.
func DefaultHealthCheckPolicy() HealthCheckPolicy {
	return HealthCheckPolicy{
		Enabled:  true,
		Interval: 30 * time.Second,
		Timeout:  5 * time.Second,
		CacheTTL: 10 * time.Second,
	}
}

// DefaultRetryPolicy is the baseline reconnection policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        3,
		BaseDelay:         time.Second,
		MaxDelay:          30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// BaselineDefaults returns the hard-coded defaults used beneath any document defaults.
func BaselineDefaults() Defaults {
	return Defaults{
		Timeout:     DefaultTimeout(),
		HealthCheck: DefaultHealthCheckPolicy(),
		Retry:       DefaultRetryPolicy(),
	}
}

// resolveDefaults overlays the document defaults on the baseline.
func resolveDefaults(doc *defaultsDocument) Defaults {
	base := BaselineDefaults()
	if doc == nil {
		return base
	}

	return Defaults{
		Timeout:     durationOr(doc.Timeout, base.Timeout),
		HealthCheck: mergeHealthCheck(doc.HealthCheck, base.HealthCheck),
		Retry:       mergeRetry(doc.Retry, base.Retry),
	}
}

func mergeHealthCheck(doc *healthCheckDocument, fallback HealthCheckPolicy) HealthCheckPolicy {
	if doc == nil {
		return fallback
	}
	return HealthCheckPolicy{
		Enabled:  boolOr(doc.Enabled, fallback.Enabled),
		Interval: durationOr(doc.Interval, fallback.Interval),
		Timeout:  durationOr(doc.Timeout, fallback.Timeout),
		CacheTTL: durationOr(doc.CacheTTL, fallback.CacheTTL),
	}
}

func mergeRetry(doc *retryDocument, fallback RetryPolicy) RetryPolicy {
	if doc == nil {
		return fallback
	}
	return RetryPolicy{
		MaxRetries:        intOr(doc.MaxRetries, fallback.MaxRetries),
		BaseDelay:         durationOr(doc.BaseDelay, fallback.BaseDelay),
		MaxDelay:          durationOr(doc.MaxDelay, fallback.MaxDelay),
		BackoffMultiplier: floatOr(doc.BackoffMultiplier, fallback.BackoffMultiplier),
	}
}

// resolveServer applies defaults to a single server document, server values win.
func resolveServer(id string, doc serverDocument, defaults Defaults) ServerDescriptor {
	return ServerDescriptor{
		ID:          id,
		Type:        Kind(doc.Type),
		Command:     doc.Command,
		Args:        slices.Clone(doc.Args),
		Env:         maps.Clone(doc.Env),
		URL:         doc.URL,
		Headers:     maps.Clone(doc.Headers),
		Timeout:     durationOr(doc.Timeout, defaults.Timeout),
		HealthCheck: mergeHealthCheck(doc.HealthCheck, defaults.HealthCheck),
		Retry:       mergeRetry(doc.Retry, defaults.Retry),
		Tags:        slices.Clone(doc.Tags),
		Enabled:     boolOr(doc.Enabled, true),
		Description: doc.Description,
		Default:     doc.Default,
	}
}

// resolve builds an immutable snapshot from a validated document.
func resolve(doc document, path string) *Config {
	defaults := resolveDefaults(doc.Defaults)

	servers := make(map[string]ServerDescriptor, len(doc.Servers))
	for id, s := range doc.Servers {
		servers[id] = resolveServer(id, s, defaults)
	}

	groups := make(map[string][]string, len(doc.Groups))
	for name, ids := range doc.Groups {
		groups[name] = slices.Clone(ids)
	}

	return &Config{
		Version:  doc.Version,
		Servers:  servers,
		Defaults: defaults,
		Groups:   groups,
		Path:     path,
		LoadedAt: time.Now().UTC(),
	}
}
