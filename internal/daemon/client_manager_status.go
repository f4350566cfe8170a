package daemon

import (
	"fmt"
	"slices"
	"time"

	"github.com/mozilla-ai/mcpfleet/internal/domain"
	"github.com/mozilla-ai/mcpfleet/internal/errors"
	"github.com/mozilla-ai/mcpfleet/internal/registry"
)

// ManagerStatus is an overview of the whole fleet.
type ManagerStatus struct {
	Initialized bool
	ConfigPath  string
	LoadedAt    time.Time
	Namespace   string
	Registry    registry.Summary
	Health      domain.HealthSummary
}

// Status returns an overview of the manager, the registry and server health.
func (m *ClientManager) Status() ManagerStatus {
	s := ManagerStatus{
		Initialized: m.IsInitialized(),
		ConfigPath:  m.source.Path(),
		Namespace:   m.registry.Namespace(),
		Registry:    m.registry.Summary(),
		Health:      m.checker.Summary(),
	}
	if cfg := m.source.Current(); cfg != nil {
		s.LoadedAt = cfg.LoadedAt
	}
	return s
}

// Servers returns the status of every registered server, sorted by ID.
func (m *ClientManager) Servers() []domain.ServerStatus {
	return m.statuses(m.registry.List())
}

// ServerStatus returns the status of a single server.
func (m *ClientManager) ServerStatus(id string) (domain.ServerStatus, error) {
	e, ok := m.registry.Get(id)
	if !ok {
		return domain.ServerStatus{}, fmt.Errorf("%w: %s", errors.ErrServerNotFound, id)
	}
	return m.statuses([]registry.Entry{e})[0], nil
}

// ServersByTag returns the status of every server carrying tag.
func (m *ClientManager) ServersByTag(tag string) []domain.ServerStatus {
	return m.statuses(m.registry.ByTag(tag))
}

// ServersByGroup returns the status of the registered members of a group, in group order.
func (m *ClientManager) ServersByGroup(name string) ([]domain.ServerStatus, error) {
	entries, ok := m.registry.ByGroup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrGroupNotFound, name)
	}
	return m.statuses(entries), nil
}

// ServerResources returns the resources discovered when the server last connected.
func (m *ClientManager) ServerResources(id string) ([]domain.Resource, error) {
	e, ok := m.registry.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrServerNotFound, id)
	}
	return e.Resources, nil
}

// ServerPrompts returns the prompts discovered when the server last connected.
func (m *ClientManager) ServerPrompts(id string) ([]domain.Prompt, error) {
	e, ok := m.registry.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrServerNotFound, id)
	}
	return e.Prompts, nil
}

func (m *ClientManager) statuses(entries []registry.Entry) []domain.ServerStatus {
	defaultID := ""
	if d, ok := m.registry.Default(); ok {
		defaultID = d.ID
	}

	out := make([]domain.ServerStatus, 0, len(entries))
	for _, e := range entries {
		out = append(out, m.toStatus(e, defaultID))
	}
	return out
}

func (m *ClientManager) toStatus(e registry.Entry, defaultID string) domain.ServerStatus {
	s := domain.ServerStatus{
		ID:                e.ID,
		Type:              string(e.Descriptor.Type),
		Target:            e.Descriptor.Target(),
		Description:       e.Descriptor.Description,
		Tags:              slices.Clone(e.Descriptor.Tags),
		State:             e.State,
		Enabled:           e.Descriptor.Enabled,
		Available:         e.IsAvailable(),
		Default:           e.ID == defaultID,
		Monitored:         m.checker.IsMonitoring(e.ID),
		Tools:             make([]string, 0, len(e.Tools)),
		ConnectedAt:       e.ConnectedAt,
		ReconnectAttempts: e.ReconnectAttempts,
		Health:            e.Health,
		Stats: domain.CallStats{
			TotalRequests:      e.Stats.TotalRequests,
			SuccessfulRequests: e.Stats.SuccessfulRequests,
			FailedRequests:     e.Stats.FailedRequests,
			AverageLatency:     e.Stats.AverageLatency(),
			SuccessRate:        e.Stats.SuccessRate(),
			LastRequest:        e.Stats.LastRequest,
		},
	}

	for _, t := range e.Tools {
		s.Tools = append(s.Tools, t.Name)
	}
	for _, r := range e.Stats.RecentErrors {
		s.Stats.RecentErrors = append(s.Stats.RecentErrors, r.Message)
	}
	if e.LastError != nil {
		s.LastError = e.LastError.Error()
	}

	return s
}
