package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// QualifiedIDSeparator separates the parts of a qualified tool ID, so server IDs may not contain it.
const QualifiedIDSeparator = "__"

// validateDocument enforces the rules the schema cannot express with field-level precision.
func validateDocument(doc document) []Violation {
	var violations []Violation
	add := func(field, format string, args ...any) {
		violations = append(violations, Violation{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	var defaults []string
	for _, id := range sortedKeys(doc.Servers) {
		s := doc.Servers[id]
		prefix := "servers." + id

		if strings.Contains(id, QualifiedIDSeparator) {
			add(prefix, "server id must not contain '%s'", QualifiedIDSeparator)
		}

		switch kind := Kind(s.Type); {
		case kind == KindLocalProcess:
			if strings.TrimSpace(s.Command) == "" {
				add(prefix+".command", "is required for %s servers", kind)
			}
			if s.URL != "" {
				add(prefix+".url", "is not supported for %s servers", kind)
			}
		case kind.IsNetwork():
			if strings.TrimSpace(s.URL) == "" {
				add(prefix+".url", "is required for %s servers", kind)
			} else if u, err := url.Parse(s.URL); err != nil || u.Scheme == "" || u.Host == "" {
				add(prefix+".url", "must be an absolute URL, got '%s'", s.URL)
			}
			if s.Command != "" {
				add(prefix+".command", "is not supported for %s servers", kind)
			}
		default:
			add(prefix+".type", "unsupported transport type '%s'", s.Type)
		}

		validateHealthCheck(prefix+".health_check", s.HealthCheck, add)
		if s.Retry != nil && s.Retry.BaseDelay != nil && s.Retry.MaxDelay != nil && *s.Retry.MaxDelay < *s.Retry.BaseDelay {
			add(prefix+".retry.max_delay", "must not be less than base_delay")
		}

		if s.Default {
			defaults = append(defaults, id)
		}
	}

	if doc.Defaults != nil {
		validateHealthCheck("defaults.health_check", doc.Defaults.HealthCheck, add)
	}

	if len(defaults) > 1 {
		add("servers", "only one server may be marked default, got: %s", strings.Join(defaults, ", "))
	}

	for _, name := range sortedKeys(doc.Groups) {
		for i, id := range doc.Groups[name] {
			if _, ok := doc.Servers[id]; !ok {
				add(fmt.Sprintf("groups.%s.%d", name, i), "references unknown server '%s'", id)
			}
		}
	}

	return violations
}

// validateHealthCheck rejects a zero interval or timeout, which would otherwise fall back silently.
func validateHealthCheck(prefix string, hc *healthCheckDocument, add func(field, format string, args ...any)) {
	if hc == nil {
		return
	}
	if hc.Interval != nil && *hc.Interval <= 0 {
		add(prefix+".interval", "must be positive")
	}
	if hc.Timeout != nil && *hc.Timeout <= 0 {
		add(prefix+".timeout", "must be positive")
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
