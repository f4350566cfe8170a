package api

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/mozilla-ai/mcpfleet/internal/domain"
	errs "github.com/mozilla-ai/mcpfleet/internal/errors"
)

type mockServerManager struct {
	servers      []domain.ServerStatus
	groups       map[string][]string
	resources    map[string][]domain.Resource
	prompts      map[string][]domain.Prompt
	connectErr   error
	connected    []string
	disconnected []string
}

func (m *mockServerManager) Servers() []domain.ServerStatus {
	return slices.Clone(m.servers)
}

func (m *mockServerManager) ServerStatus(id string) (domain.ServerStatus, error) {
	for _, s := range m.servers {
		if s.ID == id {
			return s, nil
		}
	}
	return domain.ServerStatus{}, fmt.Errorf("%w: %s", errs.ErrServerNotFound, id)
}

func (m *mockServerManager) ServersByTag(tag string) []domain.ServerStatus {
	var out []domain.ServerStatus
	for _, s := range m.servers {
		if slices.Contains(s.Tags, tag) {
			out = append(out, s)
		}
	}
	return out
}

func (m *mockServerManager) ServersByGroup(name string) ([]domain.ServerStatus, error) {
	members, ok := m.groups[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errs.ErrGroupNotFound, name)
	}
	var out []domain.ServerStatus
	for _, id := range members {
		if s, err := m.ServerStatus(id); err == nil {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockServerManager) ServerResources(id string) ([]domain.Resource, error) {
	if _, err := m.ServerStatus(id); err != nil {
		return nil, err
	}
	return m.resources[id], nil
}

func (m *mockServerManager) ServerPrompts(id string) ([]domain.Prompt, error) {
	if _, err := m.ServerStatus(id); err != nil {
		return nil, err
	}
	return m.prompts[id], nil
}

func (m *mockServerManager) Connect(_ context.Context, id string) error {
	if m.connectErr != nil {
		return m.connectErr
	}
	for i, s := range m.servers {
		if s.ID == id {
			m.servers[i].State = domain.StateConnected
			m.servers[i].Available = true
			m.connected = append(m.connected, id)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", errs.ErrServerNotFound, id)
}

func (m *mockServerManager) Disconnect(_ context.Context, id string) error {
	for i, s := range m.servers {
		if s.ID == id {
			m.servers[i].State = domain.StateDisconnected
			m.servers[i].Available = false
			m.disconnected = append(m.disconnected, id)
		}
	}
	return nil
}

type mockToolExecutor struct {
	tools  []domain.Tool
	result *domain.ToolResult
	err    error

	calledID   string
	calledArgs map[string]any
	calledOpts domain.ExecuteOptions
}

func (m *mockToolExecutor) ListTools(availableOnly bool) []domain.Tool {
	if !availableOnly {
		return slices.Clone(m.tools)
	}
	var out []domain.Tool
	for _, t := range m.tools {
		if !strings.HasPrefix(t.ServerID, "offline") {
			out = append(out, t)
		}
	}
	return out
}

func (m *mockToolExecutor) ExecuteToolByID(
	_ context.Context,
	qualifiedID string,
	args map[string]any,
	opts domain.ExecuteOptions,
) (*domain.ToolResult, error) {
	m.calledID = qualifiedID
	m.calledArgs = args
	m.calledOpts = opts
	return m.result, m.err
}

type mockHealthReporter struct {
	results    map[string]domain.HealthCheckResult
	summary    domain.HealthSummary
	refreshed  []string
	refreshErr error
}

func (m *mockHealthReporter) HealthSummary() domain.HealthSummary {
	return m.summary
}

func (m *mockHealthReporter) HealthResults() map[string]domain.HealthCheckResult {
	return maps.Clone(m.results)
}

func (m *mockHealthReporter) ServerHealth(id string) (domain.HealthCheckResult, error) {
	r, ok := m.results[id]
	if !ok {
		return domain.HealthCheckResult{}, fmt.Errorf("%w: %s", errs.ErrHealthNotTracked, id)
	}
	return r, nil
}

func (m *mockHealthReporter) RefreshHealth(_ context.Context, id string) (domain.HealthCheckResult, error) {
	if m.refreshErr != nil {
		return domain.HealthCheckResult{}, m.refreshErr
	}
	m.refreshed = append(m.refreshed, id)
	r := domain.HealthCheckResult{ServerID: id, Status: domain.HealthStatusHealthy, Available: true}
	if m.results == nil {
		m.results = map[string]domain.HealthCheckResult{}
	}
	m.results[id] = r
	return r, nil
}
