package registry

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mozilla-ai/mcpfleet/internal/config"
	"github.com/mozilla-ai/mcpfleet/internal/domain"
	errs "github.com/mozilla-ai/mcpfleet/internal/errors"
	"github.com/mozilla-ai/mcpfleet/internal/events"
	"github.com/mozilla-ai/mcpfleet/internal/transport/transporttest"
)

func descriptor(id string, tags ...string) config.ServerDescriptor {
	return config.ServerDescriptor{
		ID:      id,
		Type:    config.KindLocalProcess,
		Command: "run-" + id,
		Enabled: true,
		Tags:    tags,
	}
}

func newTestRegistry(t *testing.T, opts ...Option) (*Registry, *[]events.Event) {
	t.Helper()

	var got []events.Event
	bus := events.NewBus()
	bus.Subscribe(func(e events.Event) { got = append(got, e) })

	r, err := New(append([]Option{WithPublisher(bus)}, opts...)...)
	require.NoError(t, err)
	return r, &got
}

func TestNewOptions(t *testing.T) {
	t.Parallel()

	o, err := NewOptions()
	require.NoError(t, err)
	require.Equal(t, "mcp", o.namespace)

	_, err = NewOptions(WithNamespace(" "))
	require.EqualError(t, err, "namespace cannot be empty")

	_, err = NewOptions(WithNamespace("a__b"))
	require.EqualError(t, err, "namespace cannot contain '__'")

	_, err = NewOptions(WithPublisher(nil))
	require.EqualError(t, err, "publisher cannot be nil")
}

func TestRegistry_Register(t *testing.T) {
	t.Parallel()

	r, got := newTestRegistry(t)

	e, err := r.Register("a", descriptor("a"))
	require.NoError(t, err)
	require.Equal(t, domain.StateDisconnected, e.State)
	require.False(t, e.IsAvailable())

	d := descriptor("a")
	d.Command = "other"
	_, err = r.Register("a", d)
	require.ErrorIs(t, err, errs.ErrAlreadyRegistered)

	original, ok := r.Get("a")
	require.True(t, ok)
	require.Equal(t, "run-a", original.Descriptor.Command)

	_, err = r.Register("x__y", descriptor("x__y"))
	require.ErrorIs(t, err, errs.ErrBadRequest)

	require.Len(t, *got, 1)
	require.Equal(t, events.ServerRegistered, (*got)[0].Type)
}

func TestRegistry_Default(t *testing.T) {
	t.Parallel()

	r, _ := newTestRegistry(t)

	_, ok := r.Default()
	require.False(t, ok)

	_, err := r.Register("b", descriptor("b"))
	require.NoError(t, err)
	_, err = r.Register("c", descriptor("c"))
	require.NoError(t, err)

	def, ok := r.Default()
	require.True(t, ok)
	require.Equal(t, "b", def.ID)

	flagged := descriptor("d")
	flagged.Default = true
	_, err = r.Register("d", flagged)
	require.NoError(t, err)

	def, _ = r.Default()
	require.Equal(t, "d", def.ID)

	_, err = r.Unregister("d")
	require.NoError(t, err)
	def, _ = r.Default()
	require.Equal(t, "b", def.ID)

	_, err = r.Unregister("b")
	require.NoError(t, err)
	_, err = r.Unregister("c")
	require.NoError(t, err)
	_, ok = r.Default()
	require.False(t, ok)
}

func TestRegistry_UpdateState(t *testing.T) {
	t.Parallel()

	r, got := newTestRegistry(t)
	_, err := r.Register("a", descriptor("a"))
	require.NoError(t, err)
	*got = nil

	fake := transporttest.New("a")
	e, err := r.UpdateState("a", domain.StateReconnecting)
	require.NoError(t, err)
	require.Equal(t, 1, e.ReconnectAttempts)

	e, err = r.UpdateState("a", domain.StateReconnecting)
	require.NoError(t, err)
	require.Equal(t, 2, e.ReconnectAttempts)

	boom := errors.New("boom")
	e, err = r.UpdateState("a", domain.StateError, WithError(boom))
	require.NoError(t, err)
	require.Equal(t, boom, e.LastError)

	e, err = r.UpdateState("a", domain.StateConnected, WithTransport(fake))
	require.NoError(t, err)
	require.Equal(t, 0, e.ReconnectAttempts)
	require.Nil(t, e.LastError)
	require.False(t, e.ConnectedAt.IsZero())
	require.Same(t, fake, e.Transport)
	require.True(t, e.IsAvailable())

	e, err = r.UpdateState("a", domain.StateDisconnected, WithoutTransport())
	require.NoError(t, err)
	require.Nil(t, e.Transport)

	_, err = r.UpdateState("a", "sleeping")
	require.ErrorIs(t, err, errs.ErrBadRequest)

	_, err = r.UpdateState("missing", domain.StateConnected)
	require.ErrorIs(t, err, errs.ErrServerNotFound)

	require.Len(t, *got, 5)
	for _, ev := range *got {
		require.Equal(t, events.StateChanged, ev.Type)
	}
	change := (*got)[3].Data.(StateChange)
	require.Equal(t, domain.StateError, change.Previous)
	require.Equal(t, domain.StateConnected, change.Current)
	require.Equal(t, domain.StateConnected, change.Entry.State)
	require.Equal(t, boom, (*got)[2].Err)
}

func TestRegistry_AvailableRequiresEnabled(t *testing.T) {
	t.Parallel()

	r, _ := newTestRegistry(t)

	disabled := descriptor("off")
	disabled.Enabled = false
	_, err := r.Register("off", disabled)
	require.NoError(t, err)
	_, err = r.Register("on", descriptor("on"))
	require.NoError(t, err)

	for _, id := range []string{"off", "on"} {
		_, err := r.UpdateState(id, domain.StateConnected)
		require.NoError(t, err)
	}

	available := r.Available()
	require.Len(t, available, 1)
	require.Equal(t, "on", available[0].ID)
	require.Len(t, r.ByState(domain.StateConnected), 2)
}

func TestRegistry_Tools(t *testing.T) {
	t.Parallel()

	r, got := newTestRegistry(t, WithNamespace("ns"))
	_, err := r.Register("server1", descriptor("server1"))
	require.NoError(t, err)
	_, err = r.Register("server2", descriptor("server2"))
	require.NoError(t, err)
	*got = nil

	require.NoError(t, r.RegisterTools("server1", []domain.Tool{{Name: "search"}, {Name: "fetch"}}))
	require.NoError(t, r.RegisterTools("server2", []domain.Tool{{Name: "search"}}))
	require.ErrorIs(t, r.RegisterTools("nope", nil), errs.ErrServerNotFound)

	id, ok := r.FindServerForTool("ns__server1__search")
	require.True(t, ok)
	require.Equal(t, "server1", id)

	require.Len(t, *got, 2)
	require.Equal(t, events.ToolsDiscovered, (*got)[0].Type)
	discovered := (*got)[0].Data.(ToolsDiscovered)
	require.Len(t, discovered.Tools, 2)

	// Only available servers are listed unless all are requested.
	require.Empty(t, r.AllTools(true))
	all := r.AllTools(false)
	require.Equal(t, []string{"ns__server1__fetch", "ns__server1__search", "ns__server2__search"}, qualifiedIDs(all))

	_, err = r.UpdateState("server2", domain.StateConnected)
	require.NoError(t, err)
	available := r.AllTools(true)
	require.Len(t, available, 1)
	require.Equal(t, "server2", available[0].ServerID)
	require.Equal(t, "search", available[0].Name)

	// Rediscovery replaces the previous index entries.
	require.NoError(t, r.RegisterTools("server1", []domain.Tool{{Name: "fetch"}}))
	_, ok = r.FindServerForTool("ns__server1__search")
	require.False(t, ok)

	_, err = r.Unregister("server1")
	require.NoError(t, err)
	_, ok = r.FindServerForTool("ns__server1__fetch")
	require.False(t, ok)
	_, ok = r.FindServerForTool("ns__server2__search")
	require.True(t, ok)
}

func qualifiedIDs(tools []domain.Tool) []string {
	out := make([]string, 0, len(tools))
	for _, t := range tools {
		out = append(out, t.QualifiedID)
	}
	return out
}

func TestRegistry_ResourcesPromptsHealth(t *testing.T) {
	t.Parallel()

	r, _ := newTestRegistry(t)
	_, err := r.Register("a", descriptor("a"))
	require.NoError(t, err)

	require.NoError(t, r.RegisterResources("a", []domain.Resource{{URI: "file:///x", Name: "x"}}))
	require.NoError(t, r.RegisterPrompts("a", []domain.Prompt{{Name: "p"}}))

	ts := time.Now().UTC()
	require.NoError(t, r.SetHealth("a", domain.HealthCheckResult{ServerID: "a", Status: domain.HealthStatusHealthy, Timestamp: ts}))
	require.ErrorIs(t, r.SetHealth("b", domain.HealthCheckResult{}), errs.ErrServerNotFound)

	e, ok := r.Get("a")
	require.True(t, ok)
	require.Len(t, e.Resources, 1)
	require.Len(t, e.Prompts, 1)
	require.Equal(t, domain.HealthStatusHealthy, e.Health.Status)
	require.Equal(t, ts, e.LastHealthCheck)

	// Snapshots are copies.
	e.Resources[0].Name = "changed"
	e.Health.Status = domain.HealthStatusUnhealthy
	again, _ := r.Get("a")
	require.Equal(t, "x", again.Resources[0].Name)
	require.Equal(t, domain.HealthStatusHealthy, again.Health.Status)
}

func TestRegistry_Stats(t *testing.T) {
	t.Parallel()

	r, _ := newTestRegistry(t)
	_, err := r.Register("a", descriptor("a"))
	require.NoError(t, err)

	require.NoError(t, r.RecordSuccess("a", 100*time.Millisecond))
	require.NoError(t, r.RecordSuccess("a", 300*time.Millisecond))
	for i := range 15 {
		require.NoError(t, r.RecordFailure("a", fmt.Errorf("failure %d", i)))
	}
	require.ErrorIs(t, r.RecordSuccess("b", 0), errs.ErrServerNotFound)

	e, _ := r.Get("a")
	require.Equal(t, 17, e.Stats.TotalRequests)
	require.Equal(t, 2, e.Stats.SuccessfulRequests)
	require.Equal(t, 15, e.Stats.FailedRequests)
	require.Equal(t, 200*time.Millisecond, e.Stats.AverageLatency())
	require.InDelta(t, 2.0/17.0, e.Stats.SuccessRate(), 0.0001)

	require.Len(t, e.Stats.RecentErrors, 10)
	require.Equal(t, "failure 5", e.Stats.RecentErrors[0].Message)
	require.Equal(t, "failure 14", e.Stats.RecentErrors[9].Message)
}

func TestRegistry_TagsAndGroups(t *testing.T) {
	t.Parallel()

	r, _ := newTestRegistry(t)
	for _, d := range []config.ServerDescriptor{descriptor("a", "dev"), descriptor("b", "prod"), descriptor("c", "dev", "prod")} {
		_, err := r.Register(d.ID, d)
		require.NoError(t, err)
	}

	dev := r.ByTag("dev")
	require.Len(t, dev, 2)
	require.Equal(t, "a", dev[0].ID)
	require.Equal(t, "c", dev[1].ID)

	r.SetGroups(map[string][]string{"pair": {"c", "a", "ghost"}})

	members, ok := r.ByGroup("pair")
	require.True(t, ok)
	require.Len(t, members, 2)
	require.Equal(t, "c", members[0].ID)
	require.Equal(t, "a", members[1].ID)

	_, ok = r.ByGroup("missing")
	require.False(t, ok)
}

func TestRegistry_SummaryAndReset(t *testing.T) {
	t.Parallel()

	r, _ := newTestRegistry(t)
	_, err := r.Register("a", descriptor("a"))
	require.NoError(t, err)
	_, err = r.Register("b", descriptor("b"))
	require.NoError(t, err)
	_, err = r.UpdateState("a", domain.StateConnected)
	require.NoError(t, err)
	require.NoError(t, r.RegisterTools("a", []domain.Tool{{Name: "t"}}))
	require.NoError(t, r.RecordSuccess("a", time.Second))

	s := r.Summary()
	require.Equal(t, 2, s.Total)
	require.Equal(t, 1, s.Available)
	require.Equal(t, 1, s.Tools)
	require.Equal(t, "a", s.Default)
	require.Equal(t, 1, s.States[domain.StateConnected])
	require.Equal(t, 1, s.States[domain.StateDisconnected])
	require.Equal(t, 0, s.States[domain.StateError])
	require.Len(t, s.Servers, 2)
	require.Equal(t, time.Second, s.Servers[0].AverageLatency)
	require.InDelta(t, 1.0, s.Servers[0].SuccessRate, 0.0001)

	r.Reset()
	require.Equal(t, 0, r.Len())
	require.Empty(t, r.AllTools(false))
	_, ok := r.Default()
	require.False(t, ok)
}

func TestQualifiedToolID(t *testing.T) {
	t.Parallel()

	require.Equal(t, "ns__server1__search", QualifiedToolID("ns", "server1", "search"))

	tc := []struct {
		name    string
		id      string
		ns      string
		server  string
		tool    string
		wantErr bool
	}{
		{name: "simple", id: "ns__server1__search", ns: "ns", server: "server1", tool: "search"},
		{name: "tool with separator", id: "mcp__a__do__it", ns: "mcp", server: "a", tool: "do__it"},
		{name: "two parts", id: "mcp__a", wantErr: true},
		{name: "empty server", id: "mcp____tool", wantErr: true},
		{name: "empty", id: "", wantErr: true},
	}

	for _, testCase := range tc {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			ns, server, tool, err := ParseQualifiedToolID(testCase.id)
			if testCase.wantErr {
				require.ErrorIs(t, err, errs.ErrInvalidToolID)
				return
			}
			require.NoError(t, err)
			require.Equal(t, testCase.ns, ns)
			require.Equal(t, testCase.server, server)
			require.Equal(t, testCase.tool, tool)
		})
	}
}
