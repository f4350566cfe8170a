// Package registry tracks registered MCP servers, their connection state, discovered capabilities and call statistics.
package registry

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/mozilla-ai/mcpfleet/internal/config"
	"github.com/mozilla-ai/mcpfleet/internal/domain"
	errs "github.com/mozilla-ai/mcpfleet/internal/errors"
	"github.com/mozilla-ai/mcpfleet/internal/events"
	"github.com/mozilla-ai/mcpfleet/internal/transport"
)

// StateChange is the payload of events.StateChanged.
type StateChange struct {
	Previous domain.ConnectionState
	Current  domain.ConnectionState
	Entry    Entry
}

// ToolsDiscovered is the payload of events.ToolsDiscovered.
type ToolsDiscovered struct {
	Tools []domain.Tool
}

// Registry is the single writer of server entry state.
// All mutation happens under one lock so transitions for a server are linearized,
// events are published after the lock is released.
type Registry struct {
	namespace string
	logger    hclog.Logger
	publisher events.Publisher

	mu        sync.RWMutex
	entries   map[string]*Entry
	toolIndex map[string]string
	groups    map[string][]string
	defaultID string
}

// New creates an empty Registry.
func New(opts ...Option) (*Registry, error) {
	o, err := NewOptions(opts...)
	if err != nil {
		return nil, err
	}

	return &Registry{
		namespace: o.namespace,
		logger:    o.logger.Named("registry"),
		publisher: o.publisher,
		entries:   make(map[string]*Entry),
		toolIndex: make(map[string]string),
		groups:    make(map[string][]string),
	}, nil
}

// Namespace returns the prefix used for qualified tool IDs.
func (r *Registry) Namespace() string {
	return r.namespace
}

func (r *Registry) publish(e events.Event) {
	if r.publisher == nil {
		return
	}
	r.publisher.Publish(e)
}

// Register adds a server in the disconnected state.
// The first registered server, or one whose descriptor is flagged default, becomes the default server.
func (r *Registry) Register(id string, d config.ServerDescriptor) (Entry, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Entry{}, fmt.Errorf("%w: server id cannot be empty", errs.ErrBadRequest)
	}
	if strings.Contains(id, config.QualifiedIDSeparator) {
		return Entry{}, fmt.Errorf("%w: server id '%s' cannot contain '%s'", errs.ErrBadRequest, id, config.QualifiedIDSeparator)
	}

	r.mu.Lock()
	if _, ok := r.entries[id]; ok {
		r.mu.Unlock()
		return Entry{}, fmt.Errorf("%w: %s", errs.ErrAlreadyRegistered, id)
	}

	d.ID = id
	e := &Entry{
		ID:           id,
		Descriptor:   d,
		State:        domain.StateDisconnected,
		RegisteredAt: time.Now().UTC(),
	}
	r.entries[id] = e

	if r.defaultID == "" || d.Default {
		r.defaultID = id
	}
	snapshot := e.clone()
	r.mu.Unlock()

	r.logger.Debug("Server registered", "server", id, "type", d.Type)
	r.publish(events.Event{Type: events.ServerRegistered, ServerID: id, Data: snapshot})

	return snapshot, nil
}

// Unregister removes a server and every qualified tool ID it owns.
func (r *Registry) Unregister(id string) (Entry, error) {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok {
		r.mu.Unlock()
		return Entry{}, fmt.Errorf("%w: %s", errs.ErrServerNotFound, id)
	}

	r.dropToolIndex(id)
	delete(r.entries, id)

	if r.defaultID == id {
		r.defaultID = r.pickDefault()
	}
	snapshot := e.clone()
	r.mu.Unlock()

	r.logger.Debug("Server unregistered", "server", id)
	r.publish(events.Event{Type: events.ServerUnregistered, ServerID: id, Data: snapshot})

	return snapshot, nil
}

// pickDefault chooses a replacement default: a flagged server if one remains, else the smallest ID.
// Callers must hold the write lock.
func (r *Registry) pickDefault() string {
	ids := slices.Sorted(maps.Keys(r.entries))
	for _, id := range ids {
		if r.entries[id].Descriptor.Default {
			return id
		}
	}
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

// dropToolIndex removes all index entries owned by id. Callers must hold the write lock.
func (r *Registry) dropToolIndex(id string) {
	maps.DeleteFunc(r.toolIndex, func(_ string, owner string) bool {
		return owner == id
	})
}

// StateOption supplies extra data alongside a state transition.
type StateOption func(*stateUpdate)

type stateUpdate struct {
	transport    transport.Transport
	setTransport bool
	err          error
	health       *domain.HealthCheckResult
}

// WithTransport stores the live transport handle on the entry.
func WithTransport(t transport.Transport) StateOption {
	return func(u *stateUpdate) {
		u.transport = t
		u.setTransport = true
	}
}

// WithoutTransport clears the transport handle.
func WithoutTransport() StateOption {
	return func(u *stateUpdate) {
		u.transport = nil
		u.setTransport = true
	}
}

// WithError records err as the entry's last error.
func WithError(err error) StateOption {
	return func(u *stateUpdate) {
		u.err = err
	}
}

// WithHealth records a health result alongside the transition.
func WithHealth(result domain.HealthCheckResult) StateOption {
	return func(u *stateUpdate) {
		u.health = &result
	}
}

// UpdateState is the only way an entry's state changes.
// Entering connected records the connection time, clears the last error and resets the reconnect counter.
// Entering reconnecting increments the reconnect counter.
func (r *Registry) UpdateState(id string, state domain.ConnectionState, opts ...StateOption) (Entry, error) {
	if _, err := domain.ParseConnectionState(string(state)); err != nil {
		return Entry{}, fmt.Errorf("%w: %w", errs.ErrBadRequest, err)
	}

	var u stateUpdate
	for _, opt := range opts {
		if opt != nil {
			opt(&u)
		}
	}

	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok {
		r.mu.Unlock()
		return Entry{}, fmt.Errorf("%w: %s", errs.ErrServerNotFound, id)
	}

	previous := e.State
	e.State = state

	switch state {
	case domain.StateConnected:
		e.ConnectedAt = time.Now().UTC()
		e.LastError = nil
		e.ReconnectAttempts = 0
	case domain.StateReconnecting:
		e.ReconnectAttempts++
	}

	if u.setTransport {
		e.Transport = u.transport
	}
	if u.err != nil {
		e.LastError = u.err
	}
	if u.health != nil {
		h := *u.health
		e.Health = &h
		e.LastHealthCheck = h.Timestamp
	}
	snapshot := e.clone()
	r.mu.Unlock()

	if previous != state {
		r.logger.Debug("Server state changed", "server", id, "from", previous, "to", state)
	}
	r.publish(events.Event{
		Type:     events.StateChanged,
		ServerID: id,
		Data:     StateChange{Previous: previous, Current: state, Entry: snapshot},
		Err:      u.err,
	})

	return snapshot, nil
}

// RegisterTools replaces the tools of a server and indexes them by qualified ID.
func (r *Registry) RegisterTools(id string, tools []domain.Tool) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", errs.ErrServerNotFound, id)
	}

	r.dropToolIndex(id)

	stored := make([]domain.Tool, 0, len(tools))
	for _, t := range tools {
		t.ServerID = id
		t.QualifiedID = QualifiedToolID(r.namespace, id, t.Name)
		r.toolIndex[t.QualifiedID] = id
		stored = append(stored, t)
	}
	e.Tools = stored
	discovered := slices.Clone(stored)
	r.mu.Unlock()

	r.logger.Debug("Tools registered", "server", id, "count", len(discovered))
	r.publish(events.Event{Type: events.ToolsDiscovered, ServerID: id, Data: ToolsDiscovered{Tools: discovered}})

	return nil
}

// RegisterResources replaces the resources of a server.
func (r *Registry) RegisterResources(id string, resources []domain.Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", errs.ErrServerNotFound, id)
	}
	e.Resources = slices.Clone(resources)

	return nil
}

// RegisterPrompts replaces the prompts of a server.
func (r *Registry) RegisterPrompts(id string, prompts []domain.Prompt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", errs.ErrServerNotFound, id)
	}
	e.Prompts = slices.Clone(prompts)

	return nil
}

// SetHealth stores the latest health result for a server.
func (r *Registry) SetHealth(id string, result domain.HealthCheckResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", errs.ErrServerNotFound, id)
	}
	e.Health = &result
	e.LastHealthCheck = result.Timestamp

	return nil
}

// RecordSuccess records a successful request and its latency.
func (r *Registry) RecordSuccess(id string, latency time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", errs.ErrServerNotFound, id)
	}
	e.Stats.TotalRequests++
	e.Stats.SuccessfulRequests++
	e.Stats.TotalLatency += latency
	e.Stats.LastRequest = time.Now().UTC()

	return nil
}

// RecordFailure records a failed request, keeping only the most recent errors.
func (r *Registry) RecordFailure(id string, err error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", errs.ErrServerNotFound, id)
	}

	now := time.Now().UTC()
	msg := ""
	if err != nil {
		msg = err.Error()
	}

	e.Stats.TotalRequests++
	e.Stats.FailedRequests++
	e.Stats.LastRequest = now
	e.Stats.RecentErrors = append(e.Stats.RecentErrors, ErrorRecord{Timestamp: now, Message: msg})
	if n := len(e.Stats.RecentErrors); n > maxRecentErrors {
		e.Stats.RecentErrors = slices.Clone(e.Stats.RecentErrors[n-maxRecentErrors:])
	}

	return nil
}

// SetGroups replaces the named server groups used by ByGroup.
func (r *Registry) SetGroups(groups map[string][]string) {
	cloned := make(map[string][]string, len(groups))
	for name, ids := range groups {
		cloned[name] = slices.Clone(ids)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups = cloned
}

// Get returns a snapshot of the entry for id.
func (r *Registry) Get(id string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return Entry{}, false
	}
	return e.clone(), true
}

// Len returns the number of registered servers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// IDs returns the registered server IDs in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.entries))
}

// List returns snapshots of every entry, sorted by ID.
func (r *Registry) List() []Entry {
	return r.filter(func(*Entry) bool { return true })
}

// Available returns the entries that are connected and enabled.
func (r *Registry) Available() []Entry {
	return r.filter(func(e *Entry) bool { return e.IsAvailable() })
}

// ByState returns the entries currently in state.
func (r *Registry) ByState(state domain.ConnectionState) []Entry {
	return r.filter(func(e *Entry) bool { return e.State == state })
}

// ByTag returns the entries whose descriptor carries tag.
func (r *Registry) ByTag(tag string) []Entry {
	return r.filter(func(e *Entry) bool { return e.Descriptor.HasTag(tag) })
}

// ByGroup returns the registered members of a group in group order.
func (r *Registry) ByGroup(name string) ([]Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids, ok := r.groups[name]
	if !ok {
		return nil, false
	}

	out := make([]Entry, 0, len(ids))
	for _, id := range ids {
		if e, ok := r.entries[id]; ok {
			out = append(out, e.clone())
		}
	}
	return out, true
}

func (r *Registry) filter(keep func(*Entry) bool) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.entries))
	for _, id := range slices.Sorted(maps.Keys(r.entries)) {
		e := r.entries[id]
		if keep(e) {
			out = append(out, e.clone())
		}
	}
	return out
}

// Default returns the default server, if any server is registered.
func (r *Registry) Default() (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[r.defaultID]
	if !ok {
		return Entry{}, false
	}
	return e.clone(), true
}

// FindServerForTool returns the ID of the server owning a qualified tool ID.
func (r *Registry) FindServerForTool(qualifiedID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.toolIndex[qualifiedID]
	return id, ok
}

// AllTools returns the tools of every server, or only of available servers, sorted by qualified ID.
func (r *Registry) AllTools(availableOnly bool) []domain.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var tools []domain.Tool
	for _, e := range r.entries {
		if availableOnly && !e.IsAvailable() {
			continue
		}
		tools = append(tools, e.Tools...)
	}

	slices.SortFunc(tools, func(a, b domain.Tool) int {
		return strings.Compare(a.QualifiedID, b.QualifiedID)
	})

	return tools
}

// Reset removes every entry, index and group.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = make(map[string]*Entry)
	r.toolIndex = make(map[string]string)
	r.groups = make(map[string][]string)
	r.defaultID = ""
}
