package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// document mirrors the on-disk configuration shape.
// Pointer fields distinguish 'unset' from zero values so defaults can be layered.
type document struct {
	Version  string                    `json:"version"`
	Servers  map[string]serverDocument `json:"servers"`
	Defaults *defaultsDocument         `json:"defaults,omitempty"`
	Groups   map[string][]string       `json:"groups,omitempty"`
}

type serverDocument struct {
	Type        string               `json:"type"`
	Command     string               `json:"command,omitempty"`
	Args        []string             `json:"args,omitempty"`
	Env         map[string]string    `json:"env,omitempty"`
	URL         string               `json:"url,omitempty"`
	Headers     map[string]string    `json:"headers,omitempty"`
	Timeout     *Duration            `json:"timeout,omitempty"`
	HealthCheck *healthCheckDocument `json:"health_check,omitempty"`
	Retry       *retryDocument       `json:"retry,omitempty"`
	Tags        []string             `json:"tags,omitempty"`
	Enabled     *bool                `json:"enabled,omitempty"`
	Description string               `json:"description,omitempty"`
	Default     bool                 `json:"default,omitempty"`
}

type defaultsDocument struct {
	Timeout     *Duration            `json:"timeout,omitempty"`
	HealthCheck *healthCheckDocument `json:"health_check,omitempty"`
	Retry       *retryDocument       `json:"retry,omitempty"`
}

type healthCheckDocument struct {
	Enabled  *bool     `json:"enabled,omitempty"`
	Interval *Duration `json:"interval,omitempty"`
	Timeout  *Duration `json:"timeout,omitempty"`
	CacheTTL *Duration `json:"cache_ttl,omitempty"`
}

type retryDocument struct {
	MaxRetries        *int      `json:"max_retries,omitempty"`
	BaseDelay         *Duration `json:"base_delay,omitempty"`
	MaxDelay          *Duration `json:"max_delay,omitempty"`
	BackoffMultiplier *float64  `json:"backoff_multiplier,omitempty"`
}

// Duration accepts either a Go duration string ("30s") or an integer number of milliseconds.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}

	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		parsed, err := time.ParseDuration(strings.TrimSpace(str))
		if err != nil {
			return fmt.Errorf("invalid duration '%s': %w", str, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var ms float64
	if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("invalid duration %s: %w", s, err)
	}
	*d = Duration(time.Duration(ms * float64(time.Millisecond)))

	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// durationOr returns the pointed-to duration or the fallback.
func durationOr(d *Duration, fallback time.Duration) time.Duration {
	if d == nil {
		return fallback
	}
	return time.Duration(*d)
}

func boolOr(b *bool, fallback bool) bool {
	if b == nil {
		return fallback
	}
	return *b
}

func intOr(i *int, fallback int) int {
	if i == nil {
		return fallback
	}
	return *i
}

func floatOr(f *float64, fallback float64) float64 {
	if f == nil {
		return fallback
	}
	return *f
}
