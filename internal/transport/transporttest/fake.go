// Package transporttest provides an in-memory Transport for tests.
package transporttest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/mozilla-ai/mcpfleet/internal/config"
	errs "github.com/mozilla-ai/mcpfleet/internal/errors"
	"github.com/mozilla-ai/mcpfleet/internal/transport"
)

var _ transport.Transport = (*Fake)(nil)

// Tool is a tool advertised by a Fake.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"inputSchema,omitempty"`
}

// CallFunc handles a tools/call request and returns the result object.
type CallFunc func(name string, args map[string]any) (any, error)

// Fake is a scriptable Transport. Exported fields must be set before the Fake is shared.
type Fake struct {
	// ID is reported in Info.
	ID string

	// Tools is returned by tools/list.
	Tools []Tool

	// Call handles tools/call. When nil the arguments are echoed back as text content.
	Call CallFunc

	// StartErr fails Start.
	StartErr error

	// Delay is applied to every request.
	Delay time.Duration

	// IgnoreContext makes requests wait out Delay even when the context ends first.
	IgnoreContext bool

	mu        sync.Mutex
	ready     bool
	closed    bool
	failWith  error
	handlers  transport.Handlers
	requests  map[string]int
	starts    int
	closeCall int
}

// New returns a Fake advertising the named tools.
func New(id string, tools ...string) *Fake {
	f := &Fake{ID: id}
	for _, name := range tools {
		f.Tools = append(f.Tools, Tool{Name: name, Description: name + " tool"})
	}
	return f
}

// Factory returns a transport.Factory serving fakes by server ID.
// Unknown IDs produce a fresh Fake with no tools.
func Factory(fakes map[string]*Fake) transport.Factory {
	var mu sync.Mutex
	return transport.FactoryFunc(func(d config.ServerDescriptor) (transport.Transport, error) {
		mu.Lock()
		defer mu.Unlock()
		if f, ok := fakes[d.ID]; ok {
			return f, nil
		}
		return New(d.ID), nil
	})
}

func (f *Fake) Start(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.starts++
	if f.StartErr != nil {
		return f.StartErr
	}
	f.ready = true
	f.closed = false
	return nil
}

func (f *Fake) Request(ctx context.Context, method string, params map[string]any) (json.RawMessage, error) {
	f.mu.Lock()
	if f.requests == nil {
		f.requests = map[string]int{}
	}
	f.requests[method]++
	ready, failWith := f.ready, f.failWith
	f.mu.Unlock()

	if f.Delay > 0 {
		if f.IgnoreContext {
			time.Sleep(f.Delay)
		} else {
			select {
			case <-time.After(f.Delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	if !ready {
		return nil, fmt.Errorf("%w: %s", errs.ErrTransportNotReady, f.ID)
	}
	if failWith != nil {
		return nil, failWith
	}

	var result any
	switch method {
	case transport.MethodPing:
		result = struct{}{}
	case transport.MethodListTools:
		tools := f.Tools
		if tools == nil {
			tools = []Tool{}
		}
		result = map[string]any{"tools": tools}
	case transport.MethodListResources:
		result = map[string]any{"resources": []any{}}
	case transport.MethodListPrompts:
		result = map[string]any{"prompts": []any{}}
	case transport.MethodCallTool:
		name, _ := params["name"].(string)
		args, _ := params["arguments"].(map[string]any)
		if f.Call != nil {
			res, err := f.Call(name, args)
			if err != nil {
				return nil, err
			}
			result = res
		} else {
			echo, _ := json.Marshal(args)
			result = map[string]any{
				"content": []any{map[string]any{"type": "text", "text": string(echo)}},
			}
		}
	default:
		return nil, fmt.Errorf("%w: '%s'", transport.ErrUnsupportedMethod, method)
	}

	return json.Marshal(result)
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ready = false
	f.closed = true
	f.closeCall++
	return nil
}

func (f *Fake) IsReady() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ready
}

func (f *Fake) SetHandlers(h transport.Handlers) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers = h
}

func (f *Fake) Info() transport.Info {
	return transport.Info{ServerID: f.ID, Kind: config.KindLocalProcess, Target: "fake", ServerName: f.ID}
}

// FailRequests makes every later request fail with err, nil restores normal behavior.
func (f *Fake) FailRequests(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWith = err
}

// SetReady overrides readiness without calling Start or Close.
func (f *Fake) SetReady(ready bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ready = ready
}

// Drop simulates the server going away: the Fake becomes unready and OnClose fires.
func (f *Fake) Drop(err error) {
	f.mu.Lock()
	f.ready = false
	h := f.handlers
	f.mu.Unlock()

	if h.OnClose != nil {
		h.OnClose(err)
	}
}

// Notify delivers a server notification to OnMessage.
func (f *Fake) Notify(msg transport.Message) {
	f.mu.Lock()
	h := f.handlers
	f.mu.Unlock()

	if h.OnMessage != nil {
		h.OnMessage(msg)
	}
}

// Requests returns how many times method was requested.
func (f *Fake) Requests(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[method]
}

// Starts returns how many times Start was called.
func (f *Fake) Starts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

// Closes returns how many times Close was called.
func (f *Fake) Closes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closeCall
}
