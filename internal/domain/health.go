package domain

import "time"

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	HealthStatusUnknown   HealthStatus = "unknown"
)

// HealthStatus represents the classification of an MCP server's most recent health probe.
// HealthStatusUnknown is only reported before any check has been performed.
type HealthStatus string

// HealthCheckResult captures the outcome of a single health probe against an MCP server.
type HealthCheckResult struct {
	// ServerID is the configured ID of the probed server.
	ServerID string

	// Status is the classification of the probe.
	Status HealthStatus

	// Available is true when the probe succeeded (healthy or degraded).
	Available bool

	// Latency is the time elapsed between issuing the probe and it settling (or failing).
	Latency time.Duration

	// Timestamp is when the probe settled.
	Timestamp time.Time

	// Details carries optional structured information about the probe (e.g. tool count).
	Details map[string]any

	// Err is the captured failure, if any.
	Err error
}

// ErrorMessage returns the captured error message, or an empty string.
func (r HealthCheckResult) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// HealthSummary aggregates the last known results across servers.
type HealthSummary struct {
	Total          int
	Healthy        int
	Degraded       int
	Unhealthy      int
	Unknown        int
	AverageLatency time.Duration
}
