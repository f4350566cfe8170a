package registry

import (
	"time"

	"github.com/mozilla-ai/mcpfleet/internal/domain"
)

// Summary aggregates the registry state.
type Summary struct {
	Total     int
	Available int
	Tools     int
	Default   string
	States    map[domain.ConnectionState]int
	Servers   []ServerSummary
}

// ServerSummary reports a single server's state and call statistics.
type ServerSummary struct {
	ID                 string
	State              domain.ConnectionState
	Enabled            bool
	Available          bool
	ToolCount          int
	TotalRequests      int
	SuccessfulRequests int
	FailedRequests     int
	AverageLatency     time.Duration
	SuccessRate        float64
	ReconnectAttempts  int
	LastError          string
}

// Summary returns counts per state and per-server statistics.
func (r *Registry) Summary() Summary {
	entries := r.List()

	s := Summary{
		Total:   len(entries),
		States:  make(map[domain.ConnectionState]int, len(domain.ConnectionStates())),
		Servers: make([]ServerSummary, 0, len(entries)),
	}
	for _, st := range domain.ConnectionStates() {
		s.States[st] = 0
	}
	if d, ok := r.Default(); ok {
		s.Default = d.ID
	}

	for _, e := range entries {
		s.States[e.State]++
		s.Tools += len(e.Tools)
		if e.IsAvailable() {
			s.Available++
		}

		lastErr := ""
		if e.LastError != nil {
			lastErr = e.LastError.Error()
		}

		s.Servers = append(s.Servers, ServerSummary{
			ID:                 e.ID,
			State:              e.State,
			Enabled:            e.Descriptor.Enabled,
			Available:          e.IsAvailable(),
			ToolCount:          len(e.Tools),
			TotalRequests:      e.Stats.TotalRequests,
			SuccessfulRequests: e.Stats.SuccessfulRequests,
			FailedRequests:     e.Stats.FailedRequests,
			AverageLatency:     e.Stats.AverageLatency(),
			SuccessRate:        e.Stats.SuccessRate(),
			ReconnectAttempts:  e.ReconnectAttempts,
			LastError:          lastErr,
		})
	}

	return s
}
