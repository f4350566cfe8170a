package registry

import (
	"slices"
	"time"

	"github.com/mozilla-ai/mcpfleet/internal/config"
	"github.com/mozilla-ai/mcpfleet/internal/domain"
	"github.com/mozilla-ai/mcpfleet/internal/transport"
)

// maxRecentErrors bounds the failure history kept per server.
const maxRecentErrors = 10

// Entry is the registry's record of a single server.
// Values returned by the Registry are snapshots, changing them has no effect on the registry.
type Entry struct {
	ID                string
	Descriptor        config.ServerDescriptor
	State             domain.ConnectionState
	Transport         transport.Transport
	Tools             []domain.Tool
	Resources         []domain.Resource
	Prompts           []domain.Prompt
	Health            *domain.HealthCheckResult
	LastHealthCheck   time.Time
	RegisteredAt      time.Time
	ConnectedAt       time.Time
	LastError         error
	ReconnectAttempts int
	Stats             Stats
}

// Stats tracks the outcome of requests routed to a server.
type Stats struct {
	TotalRequests      int
	SuccessfulRequests int
	FailedRequests     int
	TotalLatency       time.Duration
	LastRequest        time.Time
	RecentErrors       []ErrorRecord
}

// ErrorRecord is a single recorded failure.
type ErrorRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// IsAvailable reports whether the server can serve requests: connected and enabled.
func (e Entry) IsAvailable() bool {
	return e.State == domain.StateConnected && e.Descriptor.Enabled
}

// AverageLatency is the mean latency of successful requests.
func (s Stats) AverageLatency() time.Duration {
	if s.SuccessfulRequests == 0 {
		return 0
	}
	return s.TotalLatency / time.Duration(s.SuccessfulRequests)
}

// SuccessRate is the fraction of requests which succeeded, or zero when there were none.
func (s Stats) SuccessRate() float64 {
	if s.TotalRequests == 0 {
		return 0
	}
	return float64(s.SuccessfulRequests) / float64(s.TotalRequests)
}

func (s Stats) clone() Stats {
	s.RecentErrors = slices.Clone(s.RecentErrors)
	return s
}

func (e *Entry) clone() Entry {
	c := *e
	c.Tools = slices.Clone(e.Tools)
	c.Resources = slices.Clone(e.Resources)
	c.Prompts = slices.Clone(e.Prompts)
	c.Stats = e.Stats.clone()
	if e.Health != nil {
		h := *e.Health
		c.Health = &h
	}
	return c
}
