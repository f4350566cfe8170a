package daemon

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/mozilla-ai/mcpfleet/internal/config"
	"github.com/mozilla-ai/mcpfleet/internal/contracts"
	"github.com/mozilla-ai/mcpfleet/internal/domain"
	"github.com/mozilla-ai/mcpfleet/internal/errors"
	"github.com/mozilla-ai/mcpfleet/internal/events"
	"github.com/mozilla-ai/mcpfleet/internal/health"
	"github.com/mozilla-ai/mcpfleet/internal/registry"
	"github.com/mozilla-ai/mcpfleet/internal/transport"
)

var (
	_ contracts.ServerManager  = (*ClientManager)(nil)
	_ contracts.ToolExecutor   = (*ClientManager)(nil)
	_ contracts.HealthReporter = (*ClientManager)(nil)
)

// ClientManager owns the lifecycle of every configured MCP server.
// It registers servers from configuration, connects them and discovers their capabilities,
// starts health monitoring, routes tool calls and reconciles the fleet when the configuration changes.
// NewClientManager should be used to create instances of ClientManager.
type ClientManager struct {
	logger   hclog.Logger
	source   contracts.ConfigSource
	factory  transport.Factory
	bus      *events.Bus
	registry *registry.Registry
	checker  *health.Checker
	opts     ManagerOptions

	// connects collapses concurrent Connect calls for the same server.
	connects singleflight.Group

	// locks serializes connect and disconnect per server.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	// mu guards initialization and shutdown.
	mu          sync.Mutex
	initialized bool

	lifeMu   sync.Mutex
	lifetime context.Context
	cancel   context.CancelFunc
}

// NewClientManager creates a ClientManager together with the registry and health checker it owns.
func NewClientManager(deps ManagerDependencies, opt ...ManagerOption) (*ClientManager, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies for client manager: %w", err)
	}

	opts, err := NewManagerOptions(opt...)
	if err != nil {
		return nil, fmt.Errorf("invalid client manager options: %w", err)
	}

	reg, err := registry.New(
		registry.WithNamespace(opts.Namespace),
		registry.WithLogger(deps.Logger),
		registry.WithPublisher(deps.Bus),
	)
	if err != nil {
		return nil, err
	}

	checker, err := health.NewChecker(
		health.WithLogger(deps.Logger),
		health.WithPublisher(deps.Bus),
		health.WithRecorder(reg),
		health.WithDegradedThreshold(opts.DegradedThreshold),
		health.WithCacheTTL(opts.HealthCacheTTL),
	)
	if err != nil {
		return nil, err
	}

	return &ClientManager{
		logger:   deps.Logger.Named("manager"),
		source:   deps.Source,
		factory:  deps.Factory,
		bus:      deps.Bus,
		registry: reg,
		checker:  checker,
		opts:     opts,
		locks:    make(map[string]*sync.Mutex),
	}, nil
}

// Registry returns the registry owned by the manager.
func (m *ClientManager) Registry() *registry.Registry {
	return m.registry
}

// Checker returns the health checker owned by the manager.
func (m *ClientManager) Checker() *health.Checker {
	return m.checker
}

// Bus returns the event bus the manager publishes to.
func (m *ClientManager) Bus() *events.Bus {
	return m.bus
}

// Initialize loads the configuration, registers every server and, depending on options,
// connects enabled servers and starts watching the configuration file.
// Calling Initialize on an initialized manager does nothing.
func (m *ClientManager) Initialize(ctx context.Context) (domain.BatchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return domain.BatchResult{}, nil
	}

	cfg, err := m.source.Load()
	if err != nil {
		m.publish(events.Event{Type: events.Error, Err: err})
		return domain.BatchResult{}, err
	}
	m.publish(events.Event{Type: events.ConfigLoaded, Data: cfg})

	m.checker.Reset()
	m.registry.Reset()
	m.registry.SetGroups(cfg.Groups)

	for _, id := range cfg.ServerIDs() {
		d, _ := cfg.Server(id)
		if _, err := m.registry.Register(id, d); err != nil {
			return domain.BatchResult{}, fmt.Errorf("failed to register server '%s': %w", id, err)
		}
	}

	lifetime := m.startLifetime(ctx)

	var result domain.BatchResult
	if m.opts.AutoConnect {
		result = m.ConnectAll(ctx)
	}

	if m.opts.WatchConfig {
		err := m.source.Watch(lifetime, config.WatchHandlers{
			OnReload: func(previous *config.Config, current *config.Config) {
				m.HandleConfigReload(lifetime, previous, current)
			},
			OnError: func(err error) {
				m.logger.Warn("Configuration reload rejected", "path", m.source.Path(), "error", err)
				m.publish(events.Event{Type: events.Error, Err: err})
			},
		})
		if err != nil {
			m.logger.Warn("Failed to watch configuration", "path", m.source.Path(), "error", err)
		}
	}

	m.initialized = true
	m.logger.Info(
		"Client manager initialized",
		"servers", m.registry.Len(),
		"connected", len(result.Succeeded),
		"failed", len(result.Failed),
	)

	return result, nil
}

func (m *ClientManager) startLifetime(ctx context.Context) context.Context {
	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()

	if m.cancel != nil {
		m.cancel()
	}
	m.lifetime, m.cancel = context.WithCancel(context.WithoutCancel(ctx))

	return m.lifetime
}

// lifetimeContext is used by work that outlives the request which started it.
func (m *ClientManager) lifetimeContext() context.Context {
	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()

	if m.lifetime == nil {
		return context.Background()
	}
	return m.lifetime
}

func (m *ClientManager) publish(e events.Event) {
	m.bus.Publish(e)
}

func (m *ClientManager) lockFor(id string) *sync.Mutex {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()

	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	return l
}

// Connect connects a registered server and discovers its capabilities.
// Connecting a connected or disabled server does nothing.
// Concurrent calls for the same server share a single attempt.
func (m *ClientManager) Connect(ctx context.Context, id string) error {
	_, err, _ := m.connects.Do(id, func() (any, error) {
		return nil, m.connect(ctx, id)
	})
	return err
}

func (m *ClientManager) connect(ctx context.Context, id string) error {
	lock := m.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	e, ok := m.registry.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", errors.ErrServerNotFound, id)
	}
	if !e.Descriptor.Enabled {
		m.logger.Debug("Skipping disabled server", "server", id)
		return nil
	}
	if e.State == domain.StateConnected && e.Transport != nil && e.Transport.IsReady() {
		return nil
	}
	if e.Transport != nil {
		m.checker.StopMonitoring(id)
		if err := e.Transport.Close(); err != nil {
			m.logger.Debug("Error closing stale transport", "server", id, "error", err)
		}
	}

	if _, err := m.registry.UpdateState(id, domain.StateConnecting); err != nil {
		return err
	}

	m.logger.Info("Connecting to server", "server", id, "type", e.Descriptor.Type, "target", e.Descriptor.Target())

	t, err := m.factory.New(e.Descriptor)
	if err != nil {
		return m.connectFailed(id, err)
	}
	t.SetHandlers(m.handlersFor(id, t))

	timeout := timeoutOr(e.Descriptor.Timeout)
	startCtx, cancel := context.WithTimeout(ctx, timeout)
	err = t.Start(startCtx)
	cancel()
	if err != nil {
		_ = t.Close()
		return m.connectFailed(id, err)
	}

	m.discover(ctx, id, t, timeout)

	if _, err := m.registry.UpdateState(id, domain.StateConnected, registry.WithTransport(t)); err != nil {
		// Unregistered while connecting.
		_ = t.Close()
		return err
	}

	info := t.Info()
	m.logger.Info("Connected to server", "server", id, "name", info.ServerName, "version", info.ServerVersion)
	m.publish(events.Event{Type: events.ServerConnected, ServerID: id, Data: info})

	if hc := e.Descriptor.HealthCheck; hc.Enabled {
		m.checker.StartMonitoring(id, t, health.MonitorOptions{
			Interval: hc.Interval,
			Timeout:  hc.Timeout,
			CacheTTL: hc.CacheTTL,
		})
	}

	return nil
}

func (m *ClientManager) connectFailed(id string, cause error) error {
	err := fmt.Errorf("%w: %s: %w", errors.ErrConnectFailed, id, cause)
	m.logger.Error("Failed to connect to server", "server", id, "error", cause)

	if _, uerr := m.registry.UpdateState(id, domain.StateError, registry.WithoutTransport(), registry.WithError(err)); uerr != nil {
		m.logger.Debug("Failed to record connect error", "server", id, "error", uerr)
	}
	m.publish(events.Event{Type: events.Error, ServerID: id, Err: err})

	return err
}

// discover lists tools, resources and prompts. Tool discovery failure leaves the server with no tools
// and is reported as an error event, resources and prompts are optional capabilities.
func (m *ClientManager) discover(ctx context.Context, id string, t transport.Transport, timeout time.Duration) {
	var tools []domain.Tool
	if raw, err := request(ctx, t, transport.MethodListTools, nil, timeout); err != nil {
		err = fmt.Errorf("failed to list tools for '%s': %w", id, err)
		m.logger.Warn("Tool discovery failed", "server", id, "error", err)
		m.publish(events.Event{Type: events.Error, ServerID: id, Err: err})
	} else {
		var listed struct {
			Tools []domain.Tool `json:"tools"`
		}
		if err := json.Unmarshal(raw, &listed); err != nil {
			err = fmt.Errorf("failed to decode tools for '%s': %w", id, err)
			m.logger.Warn("Tool discovery failed", "server", id, "error", err)
			m.publish(events.Event{Type: events.Error, ServerID: id, Err: err})
		}
		tools = listed.Tools
	}
	if err := m.registry.RegisterTools(id, tools); err != nil {
		m.logger.Debug("Failed to register tools", "server", id, "error", err)
	}

	if raw, err := request(ctx, t, transport.MethodListResources, nil, timeout); err == nil {
		var listed struct {
			Resources []domain.Resource `json:"resources"`
		}
		if json.Unmarshal(raw, &listed) == nil {
			_ = m.registry.RegisterResources(id, listed.Resources)
		}
	} else {
		m.logger.Debug("Resources not listed", "server", id, "error", err)
	}

	if raw, err := request(ctx, t, transport.MethodListPrompts, nil, timeout); err == nil {
		var listed struct {
			Prompts []domain.Prompt `json:"prompts"`
		}
		if json.Unmarshal(raw, &listed) == nil {
			_ = m.registry.RegisterPrompts(id, listed.Prompts)
		}
	} else {
		m.logger.Debug("Prompts not listed", "server", id, "error", err)
	}
}

func (m *ClientManager) handlersFor(id string, t transport.Transport) transport.Handlers {
	return transport.Handlers{
		OnMessage: func(msg transport.Message) {
			m.publish(events.Event{Type: events.Message, ServerID: id, Data: msg})
		},
		OnError: func(err error) {
			m.logger.Warn("Transport error", "server", id, "error", err)
			m.publish(events.Event{Type: events.Error, ServerID: id, Err: err})
		},
		OnClose: func(err error) {
			m.handleClose(id, t, err)
		},
	}
}

// handleClose demotes a server whose transport closed without being asked to.
// Closes of a transport that is no longer the server's current transport are ignored.
func (m *ClientManager) handleClose(id string, t transport.Transport, cause error) {
	lock := m.lockFor(id)
	lock.Lock()

	e, ok := m.registry.Get(id)
	if !ok || e.Transport != t {
		lock.Unlock()
		return
	}

	if cause == nil {
		cause = fmt.Errorf("connection to '%s' closed", id)
	}

	m.checker.StopMonitoring(id)
	_, _ = m.registry.UpdateState(id, domain.StateDisconnected, registry.WithoutTransport(), registry.WithError(cause))
	lock.Unlock()

	m.logger.Warn("Server connection lost", "server", id, "error", cause)
	m.publish(events.Event{Type: events.ServerDisconnected, ServerID: id, Err: cause})

	if !m.opts.AutoReconnect {
		return
	}

	go func() {
		if err := m.Reconnect(m.lifetimeContext(), id); err != nil {
			m.logger.Error("Automatic reconnect failed", "server", id, "error", err)
		}
	}()
}

// ConnectAll connects every enabled server concurrently.
// A failure for one server never prevents the others from connecting.
func (m *ClientManager) ConnectAll(ctx context.Context) domain.BatchResult {
	result := domain.BatchResult{Succeeded: []string{}, Failed: map[string]error{}}

	var mu sync.Mutex
	var g errgroup.Group
	for _, e := range m.registry.List() {
		if !e.Descriptor.Enabled {
			continue
		}
		g.Go(func() error {
			err := m.Connect(ctx, e.ID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed[e.ID] = err
				return nil
			}
			result.Succeeded = append(result.Succeeded, e.ID)
			return nil
		})
	}
	_ = g.Wait()

	slices.Sort(result.Succeeded)

	return result
}

// Disconnect stops monitoring a server, closes its transport and marks it disconnected.
// Disconnecting an unknown or already disconnected server does nothing.
func (m *ClientManager) Disconnect(_ context.Context, id string) error {
	lock := m.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	m.checker.StopMonitoring(id)

	e, ok := m.registry.Get(id)
	if !ok {
		return nil
	}
	if e.Transport == nil && e.State == domain.StateDisconnected {
		return nil
	}

	var closeErr error
	if e.Transport != nil {
		if err := e.Transport.Close(); err != nil {
			closeErr = fmt.Errorf("failed to close transport for '%s': %w", id, err)
			m.logger.Warn("Error closing transport", "server", id, "error", err)
		}
	}

	if _, err := m.registry.UpdateState(id, domain.StateDisconnected, registry.WithoutTransport()); err != nil {
		return err
	}

	m.logger.Info("Disconnected from server", "server", id)
	m.publish(events.Event{Type: events.ServerDisconnected, ServerID: id})

	return closeErr
}

// DisconnectAll disconnects every registered server concurrently.
func (m *ClientManager) DisconnectAll(ctx context.Context) error {
	var mu sync.Mutex
	var errs []error

	var g errgroup.Group
	for _, id := range m.registry.IDs() {
		g.Go(func() error {
			if err := m.Disconnect(ctx, id); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return stdErrors.Join(errs...)
}

// Reconnect closes any existing connection and connects again, retrying with exponential backoff
// according to the server's retry policy. The server is marked reconnecting before every attempt.
func (m *ClientManager) Reconnect(ctx context.Context, id string) error {
	e, ok := m.registry.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", errors.ErrServerNotFound, id)
	}
	if !e.Descriptor.Enabled {
		return fmt.Errorf("%w: %s is disabled", errors.ErrServerUnavailable, id)
	}

	if err := m.Disconnect(ctx, id); err != nil {
		m.logger.Debug("Error closing connection before reconnect", "server", id, "error", err)
	}

	policy := e.Descriptor.Retry
	attempts := 0

	operation := func() error {
		attempts++
		if _, err := m.registry.UpdateState(id, domain.StateReconnecting); err != nil {
			return backoff.Permanent(err)
		}
		m.logger.Info("Reconnecting to server", "server", id, "attempt", attempts)

		err := m.Connect(ctx, id)
		if stdErrors.Is(err, errors.ErrServerNotFound) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, next time.Duration) {
		m.logger.Warn("Reconnect attempt failed", "server", id, "attempt", attempts, "retryIn", next, "error", err)
	}

	if err := backoff.RetryNotify(operation, retryBackOff(ctx, policy), notify); err != nil {
		return fmt.Errorf("reconnect to '%s' failed after %d attempt(s): %w", id, attempts, err)
	}

	return nil
}

// retryBackOff builds a deterministic exponential backoff allowing policy.MaxRetries retries after the first attempt.
func retryBackOff(ctx context.Context, policy config.RetryPolicy) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = policy.BaseDelay
	b.MaxInterval = policy.MaxDelay
	b.Multiplier = policy.BackoffMultiplier
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0

	retries := max(policy.MaxRetries, 0)

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// ExecuteTool calls a tool on a server and records the outcome in the server's statistics.
// A result flagged as an error by the server is returned together with an ErrToolCallFailed error.
func (m *ClientManager) ExecuteTool(
	ctx context.Context,
	serverID string,
	toolName string,
	args map[string]any,
	opts domain.ExecuteOptions,
) (*domain.ToolResult, error) {
	e, ok := m.registry.Get(serverID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrServerNotFound, serverID)
	}
	if !e.IsAvailable() || e.Transport == nil {
		return nil, fmt.Errorf("%w: %s (%s)", errors.ErrServerUnavailable, serverID, e.State)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = timeoutOr(e.Descriptor.Timeout)
	}

	start := time.Now()
	raw, err := request(ctx, e.Transport, transport.MethodCallTool, transport.ToolCallParams(toolName, args), timeout)
	latency := time.Since(start)
	if err != nil {
		err = fmt.Errorf("%w: %s/%s: %w", errors.ErrToolCallFailed, serverID, toolName, err)
		m.recordFailure(serverID, err)
		return nil, err
	}

	var result domain.ToolResult
	if err := json.Unmarshal(raw, &result); err != nil {
		err = fmt.Errorf("%w: %s/%s: invalid result: %w", errors.ErrToolCallFailed, serverID, toolName, err)
		m.recordFailure(serverID, err)
		return nil, err
	}

	if result.IsError {
		err := fmt.Errorf("%w: %s/%s: %s", errors.ErrToolCallFailed, serverID, toolName, result.Text())
		m.recordFailure(serverID, err)
		return &result, err
	}

	if err := m.registry.RecordSuccess(serverID, latency); err != nil {
		m.logger.Debug("Failed to record tool call", "server", serverID, "error", err)
	}

	return &result, nil
}

func (m *ClientManager) recordFailure(id string, err error) {
	m.logger.Warn("Tool call failed", "server", id, "error", err)
	if rerr := m.registry.RecordFailure(id, err); rerr != nil {
		m.logger.Debug("Failed to record tool call", "server", id, "error", rerr)
	}
}

// ExecuteToolByID calls a tool identified by '<namespace>__<server>__<tool>'.
func (m *ClientManager) ExecuteToolByID(
	ctx context.Context,
	qualifiedID string,
	args map[string]any,
	opts domain.ExecuteOptions,
) (*domain.ToolResult, error) {
	ns, serverID, toolName, err := registry.ParseQualifiedToolID(qualifiedID)
	if err != nil {
		return nil, err
	}
	if ns != m.registry.Namespace() {
		return nil, fmt.Errorf("%w: namespace '%s' does not match '%s'", errors.ErrInvalidToolID, ns, m.registry.Namespace())
	}

	return m.ExecuteTool(ctx, serverID, toolName, args, opts)
}

// ListTools returns discovered tools sorted by qualified ID.
func (m *ClientManager) ListTools(availableOnly bool) []domain.Tool {
	return m.registry.AllTools(availableOnly)
}

// HandleConfigReload reconciles the registry with a new configuration.
// Removed servers are disconnected and unregistered, added servers are registered and connected when
// auto-connect is enabled, and changed servers are replaced. Servers are reconciled concurrently.
func (m *ClientManager) HandleConfigReload(ctx context.Context, previous *config.Config, current *config.Config) domain.ReloadResult {
	result := domain.ReloadResult{Failed: map[string]error{}}
	if current == nil {
		return result
	}

	changes := config.Diff(previous, current)
	result.Added = changes.Added
	result.Removed = changes.Removed
	result.Changed = changes.Changed

	m.registry.SetGroups(current.Groups)

	var mu sync.Mutex
	fail := func(id string, err error) {
		mu.Lock()
		defer mu.Unlock()
		result.Failed[id] = err
	}

	var g errgroup.Group
	for _, id := range changes.Removed {
		g.Go(func() error {
			m.removeServer(ctx, id)
			return nil
		})
	}
	for _, id := range slices.Concat(changes.Added, changes.Changed) {
		d, _ := current.Server(id)
		g.Go(func() error {
			if err := m.addServer(ctx, id, d); err != nil {
				fail(id, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	m.logger.Info(
		"Configuration reloaded",
		"added", len(result.Added),
		"removed", len(result.Removed),
		"changed", len(result.Changed),
		"failed", len(result.Failed),
	)
	m.publish(events.Event{Type: events.ConfigReloaded, Data: result})

	return result
}

func (m *ClientManager) removeServer(ctx context.Context, id string) {
	if err := m.Disconnect(ctx, id); err != nil {
		m.logger.Warn("Error disconnecting removed server", "server", id, "error", err)
	}
	m.checker.Forget(id)
	if _, err := m.registry.Unregister(id); err != nil {
		m.logger.Debug("Server already unregistered", "server", id, "error", err)
	}
}

// addServer registers a server, replacing any existing registration, and connects it when configured to.
func (m *ClientManager) addServer(ctx context.Context, id string, d config.ServerDescriptor) error {
	if _, ok := m.registry.Get(id); ok {
		m.removeServer(ctx, id)
	}

	if _, err := m.registry.Register(id, d); err != nil {
		return err
	}

	if !m.opts.AutoConnect || !d.Enabled {
		return nil
	}

	return m.Connect(ctx, id)
}

// CheckAllHealth checks every registered server now, bypassing cached results.
func (m *ClientManager) CheckAllHealth(ctx context.Context) map[string]domain.HealthCheckResult {
	targets := make(map[string]health.Target, m.registry.Len())
	for _, e := range m.registry.List() {
		var t health.Target
		if e.Transport != nil {
			t = e.Transport
		}
		targets[e.ID] = t
	}

	return m.checker.CheckAll(ctx, targets, health.CheckOptions{})
}

// RefreshHealth checks a server now, bypassing any cached result.
func (m *ClientManager) RefreshHealth(ctx context.Context, id string) (domain.HealthCheckResult, error) {
	e, ok := m.registry.Get(id)
	if !ok {
		return domain.HealthCheckResult{}, fmt.Errorf("%w: %s", errors.ErrServerNotFound, id)
	}

	var t health.Target
	if e.Transport != nil {
		t = e.Transport
	}

	return m.checker.Refresh(ctx, id, t, e.Descriptor.HealthCheck.Timeout), nil
}

// ServerHealth returns the last known health result for a server.
func (m *ClientManager) ServerHealth(id string) (domain.HealthCheckResult, error) {
	if _, ok := m.registry.Get(id); !ok {
		return domain.HealthCheckResult{}, fmt.Errorf("%w: %s", errors.ErrServerNotFound, id)
	}
	return m.checker.LastResult(id)
}

// HealthResults returns the last known health result of every checked server.
func (m *ClientManager) HealthResults() map[string]domain.HealthCheckResult {
	return m.checker.Results()
}

// HealthSummary aggregates the last known health results.
func (m *ClientManager) HealthSummary() domain.HealthSummary {
	return m.checker.Summary()
}

// Shutdown stops watching the configuration, stops every health monitor and disconnects every server.
// The manager may be initialized again afterwards.
func (m *ClientManager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.source.StopWatching()

	m.lifeMu.Lock()
	if m.cancel != nil {
		m.cancel()
	}
	m.lifeMu.Unlock()

	m.checker.StopAllMonitoring()
	err := m.DisconnectAll(ctx)
	m.initialized = false

	m.logger.Info("Client manager shut down")

	return err
}

// IsInitialized reports whether Initialize has completed without a later Shutdown.
func (m *ClientManager) IsInitialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initialized
}

func timeoutOr(d time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return config.DefaultTimeout()
}

// request races a transport request against timeout.
// The transport is expected to honor ctx, the race covers transports that do not.
func request(
	ctx context.Context,
	t transport.Transport,
	method string,
	params map[string]any,
	timeout time.Duration,
) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		raw json.RawMessage
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		raw, err := t.Request(ctx, method, params)
		done <- outcome{raw: raw, err: err}
	}()

	select {
	case o := <-done:
		return o.raw, o.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%s timed out after %s: %w", method, timeout, ctx.Err())
	}
}
