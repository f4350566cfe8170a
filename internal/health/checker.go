// Package health probes MCP servers, classifies and caches the results, and runs periodic monitors.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/mozilla-ai/mcpfleet/internal/cache"
	"github.com/mozilla-ai/mcpfleet/internal/domain"
	errs "github.com/mozilla-ai/mcpfleet/internal/errors"
	"github.com/mozilla-ai/mcpfleet/internal/events"
	"github.com/mozilla-ai/mcpfleet/internal/transport"
)

// Target is the part of a transport the checker needs.
type Target interface {
	IsReady() bool
	Request(ctx context.Context, method string, params map[string]any) (json.RawMessage, error)
}

// ResultRecorder receives every health result.
type ResultRecorder interface {
	SetHealth(id string, result domain.HealthCheckResult) error
}

// ResultRecorderFunc adapts a function to a ResultRecorder.
type ResultRecorderFunc func(id string, result domain.HealthCheckResult) error

func (f ResultRecorderFunc) SetHealth(id string, result domain.HealthCheckResult) error {
	return f(id, result)
}

// HealthChange is the payload of events.HealthChanged.
type HealthChange struct {
	Previous domain.HealthStatus
	Current  domain.HealthStatus
	Result   domain.HealthCheckResult
}

// CheckOptions controls a single check.
type CheckOptions struct {
	// Timeout bounds the probe, zero uses the checker default.
	Timeout time.Duration

	// UseCache returns a cached result when one has not expired.
	UseCache bool

	// CacheTTL is how long the new result is cached, zero uses the checker default.
	CacheTTL time.Duration
}

// MonitorOptions controls periodic checks for a server.
type MonitorOptions struct {
	Interval time.Duration
	Timeout  time.Duration
	CacheTTL time.Duration
}

type monitor struct {
	cancel context.CancelFunc
}

// generation identifies the results an in-flight probe may still record.
// Forget bumps the per-server counter and Reset bumps the checker wide one.
type generation struct {
	reset  uint64
	server uint64
}

// Checker probes servers and keeps the last known result for each.
type Checker struct {
	logger            hclog.Logger
	publisher         events.Publisher
	recorder          ResultRecorder
	degradedThreshold time.Duration
	timeout           time.Duration
	cacheTTL          time.Duration
	cache             *cache.TTL[string, domain.HealthCheckResult]

	mu          sync.Mutex
	results     map[string]domain.HealthCheckResult
	monitors    map[string]*monitor
	resets      uint64
	generations map[string]uint64
}

// NewChecker creates a Checker.
func NewChecker(opts ...Option) (*Checker, error) {
	o, err := NewOptions(opts...)
	if err != nil {
		return nil, err
	}

	c, err := cache.NewTTL[string, domain.HealthCheckResult](
		cache.WithTTL(o.cacheTTL),
		cache.WithMaxSize(o.cacheSize),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create health cache: %w", err)
	}

	return &Checker{
		logger:            o.logger.Named("health"),
		publisher:         o.publisher,
		recorder:          o.recorder,
		degradedThreshold: o.degradedThreshold,
		timeout:           o.timeout,
		cacheTTL:          o.cacheTTL,
		cache:             c,
		results:           make(map[string]domain.HealthCheckResult),
		monitors:          make(map[string]*monitor),
		generations:       make(map[string]uint64),
	}, nil
}

// Check probes a server, or returns a cached result when allowed.
// Failures are reported in the result, never as an error.
func (c *Checker) Check(ctx context.Context, id string, t Target, opts CheckOptions) domain.HealthCheckResult {
	if opts.UseCache {
		if r, ok := c.cache.Get(id); ok {
			return r
		}
	}

	gen := c.generation(id)
	result := c.probe(ctx, id, t, c.timeoutOr(opts.Timeout))
	c.record(id, result, opts.CacheTTL, nil, gen)

	return result
}

func (c *Checker) generation(id string) generation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generationLocked(id)
}

func (c *Checker) generationLocked(id string) generation {
	return generation{reset: c.resets, server: c.generations[id]}
}

// CheckAll checks every target concurrently and returns the result for each.
func (c *Checker) CheckAll(ctx context.Context, targets map[string]Target, opts CheckOptions) map[string]domain.HealthCheckResult {
	var mu sync.Mutex
	results := make(map[string]domain.HealthCheckResult, len(targets))

	var g errgroup.Group
	for id, t := range targets {
		g.Go(func() error {
			r := c.Check(ctx, id, t, opts)
			mu.Lock()
			results[id] = r
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Refresh discards any cached result and checks again.
func (c *Checker) Refresh(ctx context.Context, id string, t Target, timeout time.Duration) domain.HealthCheckResult {
	c.cache.Delete(id)
	return c.Check(ctx, id, t, CheckOptions{Timeout: timeout})
}

func (c *Checker) timeoutOr(d time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return c.timeout
}

// probe lists tools on the target, racing the request against the timeout.
func (c *Checker) probe(ctx context.Context, id string, t Target, timeout time.Duration) domain.HealthCheckResult {
	start := time.Now()

	if t == nil || !t.IsReady() {
		return domain.HealthCheckResult{
			ServerID:  id,
			Status:    domain.HealthStatusUnhealthy,
			Timestamp: time.Now().UTC(),
			Err:       fmt.Errorf("%w: %s", errs.ErrTransportNotReady, id),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		raw json.RawMessage
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		raw, err := t.Request(ctx, transport.MethodListTools, nil)
		done <- outcome{raw: raw, err: err}
	}()

	var o outcome
	select {
	case o = <-done:
	case <-ctx.Done():
		o.err = fmt.Errorf("health check timed out after %s: %w", timeout, ctx.Err())
	}

	result := domain.HealthCheckResult{
		ServerID:  id,
		Latency:   time.Since(start),
		Timestamp: time.Now().UTC(),
	}

	if o.err != nil {
		result.Status = domain.HealthStatusUnhealthy
		result.Err = o.err
		return result
	}

	result.Available = true
	result.Status = domain.HealthStatusHealthy
	if result.Latency > c.degradedThreshold {
		result.Status = domain.HealthStatusDegraded
	}

	var listed struct {
		Tools []json.RawMessage `json:"tools"`
	}
	if err := json.Unmarshal(o.raw, &listed); err == nil {
		result.Details = map[string]any{"toolCount": len(listed.Tools)}
	}

	return result
}

// record stores a result and publishes events.
// The result is discarded when id was forgotten or the checker reset after gen was taken,
// or when m is not nil and is no longer the active monitor for id.
func (c *Checker) record(id string, result domain.HealthCheckResult, ttl time.Duration, m *monitor, gen generation) {
	c.mu.Lock()
	if c.generationLocked(id) != gen || (m != nil && c.monitors[id] != m) {
		c.mu.Unlock()
		c.logger.Debug("Discarding stale health result", "server", id)
		return
	}
	previous, seen := c.results[id]
	c.results[id] = result
	if ttl <= 0 {
		ttl = c.cacheTTL
	}
	c.cache.Set(id, result, ttl)
	c.mu.Unlock()

	if c.recorder != nil {
		if err := c.recorder.SetHealth(id, result); err != nil {
			c.logger.Debug("Health result not recorded", "server", id, "error", err)
		}
	}

	prevStatus := domain.HealthStatusUnknown
	if seen {
		prevStatus = previous.Status
	}

	if prevStatus != result.Status {
		c.logger.Info("Server health changed", "server", id, "from", prevStatus, "to", result.Status)
		c.publish(events.Event{
			Type:     events.HealthChanged,
			ServerID: id,
			Data:     HealthChange{Previous: prevStatus, Current: result.Status, Result: result},
			Err:      result.Err,
		})
	}

	c.publish(events.Event{Type: events.HealthChecked, ServerID: id, Data: result, Err: result.Err})
}

func (c *Checker) publish(e events.Event) {
	if c.publisher == nil {
		return
	}
	c.publisher.Publish(e)
}

// LastResult returns the last known result for a server.
func (c *Checker) LastResult(id string) (domain.HealthCheckResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.results[id]
	if !ok {
		return domain.HealthCheckResult{}, fmt.Errorf("%w: %s", errs.ErrHealthNotTracked, id)
	}
	return r, nil
}

// Results returns a copy of every last known result.
func (c *Checker) Results() map[string]domain.HealthCheckResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.results)
}

// Forget stops monitoring a server and drops its results.
// Checks for id still in flight are not recorded.
func (c *Checker) Forget(id string) {
	c.StopMonitoring(id)

	c.mu.Lock()
	delete(c.results, id)
	c.generations[id]++
	c.cache.Delete(id)
	c.mu.Unlock()
}

// Summary aggregates the last known results.
func (c *Checker) Summary() domain.HealthSummary {
	c.mu.Lock()
	defer c.mu.Unlock()

	var s domain.HealthSummary
	var total time.Duration
	for _, r := range c.results {
		s.Total++
		total += r.Latency
		switch r.Status {
		case domain.HealthStatusHealthy:
			s.Healthy++
		case domain.HealthStatusDegraded:
			s.Degraded++
		case domain.HealthStatusUnhealthy:
			s.Unhealthy++
		default:
			s.Unknown++
		}
	}
	if s.Total > 0 {
		s.AverageLatency = total / time.Duration(s.Total)
	}

	return s
}

// Reset stops every monitor and clears all results.
func (c *Checker) Reset() {
	c.StopAllMonitoring()

	c.mu.Lock()
	c.results = make(map[string]domain.HealthCheckResult)
	c.resets++
	c.cache.Clear()
	c.mu.Unlock()
}
