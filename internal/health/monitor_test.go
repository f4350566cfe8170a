package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	errs "github.com/mozilla-ai/mcpfleet/internal/errors"
	"github.com/mozilla-ai/mcpfleet/internal/transport"
	"github.com/mozilla-ai/mcpfleet/internal/transport/transporttest"
)

func TestChecker_Monitoring(t *testing.T) {
	t.Parallel()

	c, _ := newTestChecker(t)
	f := startedFake(t, "a")

	c.StartMonitoring("a", f, MonitorOptions{Interval: 10 * time.Millisecond, Timeout: time.Second})

	// The first check happens before StartMonitoring returns.
	_, err := c.LastResult("a")
	require.NoError(t, err)
	require.True(t, c.IsMonitoring("a"))
	require.Equal(t, []string{"a"}, c.Monitored())

	require.Eventually(t, func() bool {
		return f.Requests(transport.MethodListTools) >= 3
	}, 5*time.Second, 5*time.Millisecond)

	c.StopMonitoring("a")
	require.False(t, c.IsMonitoring("a"))

	// At most one in-flight tick can land after stopping.
	stopped := f.Requests(transport.MethodListTools)
	time.Sleep(50 * time.Millisecond)
	require.LessOrEqual(t, f.Requests(transport.MethodListTools), stopped+1)
}

func TestChecker_StartMonitoringReplacesExisting(t *testing.T) {
	t.Parallel()

	c, _ := newTestChecker(t)
	first := startedFake(t, "a")
	second := startedFake(t, "a")

	c.StartMonitoring("a", first, MonitorOptions{Interval: time.Hour})
	c.StartMonitoring("a", second, MonitorOptions{Interval: time.Hour})

	require.Equal(t, 1, first.Requests(transport.MethodListTools))
	require.Equal(t, 1, second.Requests(transport.MethodListTools))
	require.Equal(t, []string{"a"}, c.Monitored())

	c.StopAllMonitoring()
	require.Empty(t, c.Monitored())
}

func TestChecker_StoppedMonitorResultDiscarded(t *testing.T) {
	t.Parallel()

	c, _ := newTestChecker(t)
	f := startedFake(t, "a")
	f.Delay = 5 * time.Second

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.StartMonitoring("a", f, MonitorOptions{Interval: time.Hour, Timeout: 10 * time.Second})
	}()

	require.Eventually(t, func() bool {
		return f.Requests(transport.MethodListTools) == 1
	}, 5*time.Second, 5*time.Millisecond)

	c.StopMonitoring("a")

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not stop")
	}

	_, err := c.LastResult("a")
	require.ErrorIs(t, err, errs.ErrHealthNotTracked)
}

func TestChecker_MonitorNotReadyTransport(t *testing.T) {
	t.Parallel()

	c, _ := newTestChecker(t)
	f := transporttest.New("a")

	c.StartMonitoring("a", f, MonitorOptions{Interval: time.Hour})
	r, err := c.LastResult("a")
	require.NoError(t, err)
	require.ErrorIs(t, r.Err, errs.ErrTransportNotReady)
	require.Equal(t, 0, f.Requests(transport.MethodListTools))
}
