package health

import (
	"context"
	"maps"
	"slices"
	"time"
)

// StartMonitoring replaces any existing monitor for id, checks once immediately, then re-checks every interval.
// Checks bypass the cache. Results from a monitor stopped while its probe was in flight are discarded.
func (c *Checker) StartMonitoring(id string, t Target, opts MonitorOptions) {
	c.StopMonitoring(id)

	interval := opts.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	timeout := c.timeoutOr(opts.Timeout)

	ctx, cancel := context.WithCancel(context.Background())
	m := &monitor{cancel: cancel}

	c.mu.Lock()
	c.monitors[id] = m
	c.mu.Unlock()

	c.logger.Debug("Starting health monitor", "server", id, "interval", interval, "timeout", timeout)

	c.monitorCheck(ctx, m, id, t, timeout, opts.CacheTTL)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.monitorCheck(ctx, m, id, t, timeout, opts.CacheTTL)
			}
		}
	}()
}

func (c *Checker) monitorCheck(ctx context.Context, m *monitor, id string, t Target, timeout time.Duration, ttl time.Duration) {
	gen := c.generation(id)
	result := c.probe(ctx, id, t, timeout)
	if ctx.Err() != nil {
		return
	}
	c.record(id, result, ttl, m, gen)
}

// StopMonitoring cancels the monitor for id, if any.
func (c *Checker) StopMonitoring(id string) {
	c.mu.Lock()
	m, ok := c.monitors[id]
	delete(c.monitors, id)
	c.mu.Unlock()

	if ok {
		m.cancel()
		c.logger.Debug("Stopped health monitor", "server", id)
	}
}

// StopAllMonitoring cancels every monitor.
func (c *Checker) StopAllMonitoring() {
	c.mu.Lock()
	stopped := c.monitors
	c.monitors = make(map[string]*monitor)
	c.mu.Unlock()

	for _, m := range stopped {
		m.cancel()
	}
}

// IsMonitoring reports whether a monitor is active for id.
func (c *Checker) IsMonitoring(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.monitors[id]
	return ok
}

// Monitored returns the IDs with active monitors, sorted.
func (c *Checker) Monitored() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Sorted(maps.Keys(c.monitors))
}
