package config

import (
	"maps"
	"slices"
	"time"
)

var (
	_ Loader      = (*DefaultLoader)(nil)
	_ Initializer = (*DefaultLoader)(nil)
)

// Loader reads a configuration snapshot from a path.
type Loader interface {
	Load(path string) (*Config, error)
}

// Initializer creates a new configuration file.
type Initializer interface {
	Init(path string) error
}

// Provider can both create and load configuration.
type Provider interface {
	Initializer
	Loader
}

// Kind is the transport kind used to reach an MCP server.
type Kind string

const (
	KindLocalProcess Kind = "local-process"
	KindHTTP         Kind = "http"
	KindEventStream  Kind = "event-stream"
)

// Kinds returns the closed set of supported transport kinds.
func Kinds() []Kind {
	return []Kind{KindLocalProcess, KindHTTP, KindEventStream}
}

// IsNetwork reports whether the kind is reached via a URL rather than a local command.
func (k Kind) IsNetwork() bool {
	return k == KindHTTP || k == KindEventStream
}

// Config is an immutable configuration snapshot.
// A reload produces a new *Config rather than mutating an existing one.
type Config struct {
	// Version is the free-form version tag declared by the document.
	Version string

	// Servers maps server ID to its fully resolved descriptor.
	Servers map[string]ServerDescriptor

	// Defaults is the resolved global defaults overlay (document defaults over the baseline).
	Defaults Defaults

	// Groups maps a group name to an ordered list of server IDs.
	Groups map[string][]string

	// Path is the file the snapshot was loaded from.
	Path string

	// LoadedAt is when the snapshot was produced.
	LoadedAt time.Time
}

// ServerDescriptor is the configuration of a single MCP server after defaults have been applied.
type ServerDescriptor struct {
	// ID is the unique key of this server in the configuration document.
	ID string `json:"id"`

	// Type selects the transport used to reach the server.
	Type Kind `json:"type"`

	// Command is the executable to launch (local-process only).
	Command string `json:"command,omitempty"`

	// Args are passed to Command (local-process only).
	Args []string `json:"args,omitempty"`

	// Env is added to the process environment of Command (local-process only).
	Env map[string]string `json:"env,omitempty"`

	// URL is the endpoint of a network server (http and event-stream).
	URL string `json:"url,omitempty"`

	// Headers are sent with every request to a network server.
	Headers map[string]string `json:"headers,omitempty"`

	// Timeout bounds each request made to the server.
	Timeout time.Duration `json:"timeout"`

	// HealthCheck configures periodic probing.
	HealthCheck HealthCheckPolicy `json:"healthCheck"`

	// Retry configures reconnection backoff.
	Retry RetryPolicy `json:"retry"`

	// Tags are free-form labels usable for lookups.
	Tags []string `json:"tags,omitempty"`

	// Enabled controls whether the server may be connected.
	Enabled bool `json:"enabled"`

	// Description is optional human readable text.
	Description string `json:"description,omitempty"`

	// Default marks the server as the preferred default server.
	Default bool `json:"default,omitempty"`
}

// HealthCheckPolicy configures health probing for a server.
type HealthCheckPolicy struct {
	Enabled  bool          `json:"enabled"`
	Interval time.Duration `json:"interval"`
	Timeout  time.Duration `json:"timeout"`
	CacheTTL time.Duration `json:"cacheTTL"`
}

// RetryPolicy configures reconnection attempts for a server.
type RetryPolicy struct {
	MaxRetries        int           `json:"maxRetries"`
	BaseDelay         time.Duration `json:"baseDelay"`
	MaxDelay          time.Duration `json:"maxDelay"`
	BackoffMultiplier float64       `json:"backoffMultiplier"`
}

// Defaults holds the values applied to servers which do not declare their own.
type Defaults struct {
	Timeout     time.Duration
	HealthCheck HealthCheckPolicy
	Retry       RetryPolicy
}

// ServerIDs returns the configured server IDs in sorted order.
func (c *Config) ServerIDs() []string {
	if c == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(c.Servers))
}

// Server returns the descriptor for the given ID.
func (c *Config) Server(id string) (ServerDescriptor, bool) {
	if c == nil {
		return ServerDescriptor{}, false
	}
	d, ok := c.Servers[id]
	return d, ok
}

// Group returns a copy of the server IDs in the named group.
func (c *Config) Group(name string) ([]string, bool) {
	if c == nil {
		return nil, false
	}
	ids, ok := c.Groups[name]
	return slices.Clone(ids), ok
}

// GroupNames returns the declared group names in sorted order.
func (c *Config) GroupNames() []string {
	if c == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(c.Groups))
}

// IsNetwork reports whether the server is reached via URL.
func (d ServerDescriptor) IsNetwork() bool {
	return d.Type.IsNetwork()
}

// Target returns the command line or URL used to reach the server, for diagnostics.
func (d ServerDescriptor) Target() string {
	if d.IsNetwork() {
		return d.URL
	}
	return d.Command
}

// HasTag reports whether the descriptor carries the given tag.
func (d ServerDescriptor) HasTag(tag string) bool {
	return slices.Contains(d.Tags, tag)
}
