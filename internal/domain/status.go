package domain

import (
	"time"
)

// ServerStatus is a point-in-time view of a registered server.
type ServerStatus struct {
	ID                string
	Type              string
	Target            string
	Description       string
	Tags              []string
	State             ConnectionState
	Enabled           bool
	Available         bool
	Default           bool
	Monitored         bool
	Tools             []string
	ConnectedAt       time.Time
	LastError         string
	ReconnectAttempts int
	Health            *HealthCheckResult
	Stats             CallStats
}

// CallStats summarizes requests routed to a server.
type CallStats struct {
	TotalRequests      int
	SuccessfulRequests int
	FailedRequests     int
	AverageLatency     time.Duration
	SuccessRate        float64
	LastRequest        time.Time
	RecentErrors       []string
}

// BatchResult partitions the servers of a batch operation by outcome.
type BatchResult struct {
	Succeeded []string
	Failed    map[string]error
}

// ReloadResult reports how a configuration reload was reconciled.
type ReloadResult struct {
	Added   []string
	Removed []string
	Changed []string
	Failed  map[string]error
}

// ExecuteOptions controls a single tool execution.
type ExecuteOptions struct {
	// Timeout bounds the call, zero uses the server's configured timeout.
	Timeout time.Duration
}
