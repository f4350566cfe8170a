package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mozilla-ai/mcpfleet/internal/domain"
	errs "github.com/mozilla-ai/mcpfleet/internal/errors"
)

func TestParseHealthStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    domain.HealthStatus
		expected HealthStatus
		wantErr  bool
	}{
		{input: domain.HealthStatusHealthy, expected: HealthStatusHealthy},
		{input: domain.HealthStatusDegraded, expected: HealthStatusDegraded},
		{input: domain.HealthStatusUnhealthy, expected: HealthStatusUnhealthy},
		{input: domain.HealthStatusUnknown, expected: HealthStatusUnknown},
		{input: "bogus", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(string(tc.input), func(t *testing.T) {
			t.Parallel()

			got, err := parseHealthStatus(tc.input)
			if tc.wantErr {
				require.EqualError(t, err, "unknown health status: bogus")
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expected, got)
		})
	}
}

func TestHandleHealthServers(t *testing.T) {
	t.Parallel()

	checked := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	reporter := &mockHealthReporter{
		results: map[string]domain.HealthCheckResult{
			"search": {
				ServerID:  "search",
				Status:    domain.HealthStatusUnhealthy,
				Latency:   5 * time.Millisecond,
				Timestamp: checked,
				Err:       errors.New("connection refused"),
			},
			"files": {
				ServerID:  "files",
				Status:    domain.HealthStatusHealthy,
				Available: true,
				Latency:   15 * time.Millisecond,
				Timestamp: checked,
				Details:   map[string]any{"toolCount": 2},
			},
		},
		summary: domain.HealthSummary{Total: 2, Healthy: 1, Unhealthy: 1, AverageLatency: 10 * time.Millisecond},
	}

	resp, err := handleHealthServers(reporter)
	require.NoError(t, err)

	require.Equal(t, HealthSummary{Total: 2, Healthy: 1, Unhealthy: 1, AverageLatency: "10ms"}, resp.Body.Summary)
	require.Len(t, resp.Body.Servers, 2)

	files := resp.Body.Servers[0]
	require.Equal(t, "files", files.ID)
	require.Equal(t, HealthStatusHealthy, files.Status)
	require.True(t, files.Available)
	require.Equal(t, "15ms", files.Latency)
	require.Equal(t, &checked, files.LastChecked)
	require.Empty(t, files.Error)
	require.Equal(t, map[string]any{"toolCount": 2}, files.Details)

	search := resp.Body.Servers[1]
	require.Equal(t, "search", search.ID)
	require.Equal(t, HealthStatusUnhealthy, search.Status)
	require.Equal(t, "connection refused", search.Error)
}

func TestHandleHealthServers_Empty(t *testing.T) {
	t.Parallel()

	resp, err := handleHealthServers(&mockHealthReporter{})
	require.NoError(t, err)
	require.NotNil(t, resp.Body.Servers)
	require.Empty(t, resp.Body.Servers)
	require.Equal(t, "0s", resp.Body.Summary.AverageLatency)
}

func TestHandleHealthServer(t *testing.T) {
	t.Parallel()

	reporter := &mockHealthReporter{
		results: map[string]domain.HealthCheckResult{
			"files": {ServerID: "files", Status: domain.HealthStatusDegraded, Available: true},
		},
	}

	resp, err := handleHealthServer(reporter, "files")
	require.NoError(t, err)
	require.Equal(t, HealthStatusDegraded, resp.Body.Status)
	require.Nil(t, resp.Body.LastChecked)

	_, err = handleHealthServer(reporter, "missing")
	require.ErrorIs(t, err, errs.ErrHealthNotTracked)

	reporter.results["broken"] = domain.HealthCheckResult{ServerID: "broken", Status: "bogus"}
	_, err = handleHealthServer(reporter, "broken")
	require.Error(t, err)
}

func TestHandleHealthRefresh(t *testing.T) {
	t.Parallel()

	reporter := &mockHealthReporter{}

	resp, err := handleHealthRefresh(context.Background(), reporter, "files")
	require.NoError(t, err)
	require.Equal(t, HealthStatusHealthy, resp.Body.Status)
	require.Equal(t, []string{"files"}, reporter.refreshed)

	failing := &mockHealthReporter{refreshErr: errs.ErrServerNotFound}
	_, err = handleHealthRefresh(context.Background(), failing, "missing")
	require.ErrorIs(t, err, errs.ErrServerNotFound)
}
