// Package events provides typed notifications published by the registry, health checker and client manager.
package events

import (
	"slices"
	"sync"
	"time"
)

const (
	ConfigLoaded       Type = "config-loaded"
	ConfigReloaded     Type = "config-reloaded"
	ServerRegistered   Type = "server-registered"
	ServerUnregistered Type = "server-unregistered"
	ServerConnected    Type = "server-connected"
	ServerDisconnected Type = "server-disconnected"
	ToolsDiscovered    Type = "tools-discovered"
	HealthChanged      Type = "health-changed"
	HealthChecked      Type = "health-checked"
	StateChanged       Type = "state-changed"
	Message            Type = "message"
	Error              Type = "error"
)

// Type names a kind of event.
type Type string

// Event is a single notification.
// Data holds the payload type documented by the publisher of each Type.
type Event struct {
	Type      Type
	ServerID  string
	Timestamp time.Time
	Data      any
	Err       error
}

// Handler receives published events.
// Handlers are called synchronously from the publishing goroutine and should return quickly.
type Handler func(Event)

// Publisher is implemented by anything able to emit events.
type Publisher interface {
	Publish(e Event)
}

type subscription struct {
	id      uint64
	handler Handler
	types   map[Type]struct{}
}

// Bus fans published events out to subscribers.
// The zero value is not usable, NewBus should be used to create instances of Bus.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscription
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for the given event types, or for all events when no types are given.
// The returned function removes the subscription, it is safe to call more than once.
func (b *Bus) Subscribe(h Handler, types ...Type) func() {
	if h == nil {
		return func() {}
	}

	var filter map[Type]struct{}
	if len(types) > 0 {
		filter = make(map[Type]struct{}, len(types))
		for _, t := range types {
			filter[t] = struct{}{}
		}
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, handler: h, types: filter})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.subs = slices.DeleteFunc(b.subs, func(s subscription) bool { return s.id == id })
	}
}

// Publish delivers the event to every matching subscriber in subscription order.
// A zero Timestamp is replaced with the current time.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	b.mu.RLock()
	subs := slices.Clone(b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		if s.types != nil {
			if _, ok := s.types[e.Type]; !ok {
				continue
			}
		}
		s.handler(e)
	}
}

// Len returns the number of active subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Reset removes all subscriptions.
func (b *Bus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = nil
}
