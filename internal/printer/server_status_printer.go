package printer

import (
	"fmt"
	"io"
	"strings"

	"github.com/mozilla-ai/mcpfleet/internal/cmd/output"
	"github.com/mozilla-ai/mcpfleet/internal/domain"
)

var _ output.Printer[ServerStatusResult] = (*ServerStatusPrinter)(nil)

// ServerStatusResult is the rendered status of a single server.
type ServerStatusResult struct {
	ID        string   `json:"id"                  yaml:"id"`
	Type      string   `json:"type"                yaml:"type"`
	Target    string   `json:"target"              yaml:"target"`
	State     string   `json:"state"               yaml:"state"`
	Enabled   bool     `json:"enabled"             yaml:"enabled"`
	Available bool     `json:"available"           yaml:"available"`
	Default   bool     `json:"default"             yaml:"default"`
	Tags      []string `json:"tags,omitempty"      yaml:"tags,omitempty"`
	Tools     []string `json:"tools"               yaml:"tools"`
	Health    string   `json:"health,omitempty"    yaml:"health,omitempty"`
	Latency   string   `json:"latency,omitempty"   yaml:"latency,omitempty"`
	LastError string   `json:"lastError,omitempty" yaml:"lastError,omitempty"`
}

// NewServerStatusResult converts a server status for output.
func NewServerStatusResult(s domain.ServerStatus) ServerStatusResult {
	r := ServerStatusResult{
		ID:        s.ID,
		Type:      s.Type,
		Target:    s.Target,
		State:     string(s.State),
		Enabled:   s.Enabled,
		Available: s.Available,
		Default:   s.Default,
		Tags:      s.Tags,
		Tools:     s.Tools,
		LastError: s.LastError,
	}
	if r.Tools == nil {
		r.Tools = []string{}
	}
	if s.Health != nil {
		r.Health = string(s.Health.Status)
		r.Latency = s.Health.Latency.String()
	}
	return r
}

// DefaultServerStatusFooter reports how many servers were listed.
func DefaultServerStatusFooter() output.WriteFunc[ServerStatusResult] {
	return func(w io.Writer, count int) {
		_, _ = fmt.Fprintf(w, "\n%d server(s)\n", count)
	}
}

type ServerStatusPrinter struct {
	hooks[ServerStatusResult]
}

func NewServerStatusPrinter() *ServerStatusPrinter {
	p := &ServerStatusPrinter{}
	p.SetFooter(DefaultServerStatusFooter())
	return p
}

// Item outputs a single server status.
func (p *ServerStatusPrinter) Item(w io.Writer, s ServerStatusResult) error {
	title := fmt.Sprintf("%s %s (%s) %s", stateIcon(domain.ConnectionState(s.State)), s.ID, s.Type, s.State)
	if s.Default {
		title += " [default]"
	}
	if !s.Enabled {
		title += " [disabled]"
	}
	_, _ = fmt.Fprintln(w, title)

	if s.Target != "" {
		_, _ = fmt.Fprintf(w, "  Target: %s\n", s.Target)
	}
	if len(s.Tags) > 0 {
		_, _ = fmt.Fprintf(w, "  Tags: %s\n", strings.Join(s.Tags, ", "))
	}
	if s.Available {
		_, _ = fmt.Fprintf(w, "  Tools: %d\n", len(s.Tools))
	}
	if s.Health != "" {
		_, _ = fmt.Fprintf(w, "  Health: %s (%s)\n", s.Health, s.Latency)
	}
	if s.LastError != "" {
		_, _ = fmt.Fprintf(w, "  Error: %s\n", s.LastError)
	}

	return nil
}

func stateIcon(state domain.ConnectionState) string {
	switch state {
	case domain.StateConnected:
		return "🟢"
	case domain.StateConnecting, domain.StateReconnecting:
		return "🟡"
	case domain.StateError:
		return "🔴"
	default:
		return "⚪"
	}
}
