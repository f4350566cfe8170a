package events

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBus_SubscribeAll(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	var got []Type
	bus.Subscribe(func(e Event) { got = append(got, e.Type) })

	bus.Publish(Event{Type: ServerRegistered, ServerID: "a"})
	bus.Publish(Event{Type: HealthChanged, ServerID: "a"})

	require.Equal(t, []Type{ServerRegistered, HealthChanged}, got)
}

func TestBus_SubscribeFiltered(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	var got []Event
	bus.Subscribe(func(e Event) { got = append(got, e) }, ToolsDiscovered)

	bus.Publish(Event{Type: ServerRegistered, ServerID: "a"})
	bus.Publish(Event{Type: ToolsDiscovered, ServerID: "b", Data: 3})

	require.Len(t, got, 1)
	require.Equal(t, "b", got[0].ServerID)
	require.Equal(t, 3, got[0].Data)
	require.False(t, got[0].Timestamp.IsZero())
}

func TestBus_Unsubscribe(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	count := 0
	unsubscribe := bus.Subscribe(func(Event) { count++ })
	require.Equal(t, 1, bus.Len())

	bus.Publish(Event{Type: Error})
	unsubscribe()
	unsubscribe()
	bus.Publish(Event{Type: Error})

	require.Equal(t, 1, count)
	require.Equal(t, 0, bus.Len())
}

func TestBus_OrderPreserved(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	var order []string
	bus.Subscribe(func(Event) { order = append(order, "first") })
	bus.Subscribe(func(Event) { order = append(order, "second") })

	bus.Publish(Event{Type: Message})

	require.Equal(t, []string{"first", "second"}, order)
}

func TestBus_NilSafe(t *testing.T) {
	t.Parallel()

	var bus *Bus
	require.NotPanics(t, func() { bus.Publish(Event{Type: Error}) })

	b := NewBus()
	unsubscribe := b.Subscribe(nil)
	require.NotPanics(t, unsubscribe)
	require.Equal(t, 0, b.Len())
}
