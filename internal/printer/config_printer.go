package printer

import (
	"fmt"
	"io"
	"strings"

	"github.com/mozilla-ai/mcpfleet/internal/cmd/output"
	"github.com/mozilla-ai/mcpfleet/internal/config"
)

var _ output.Printer[ServerConfigResult] = (*ServerConfigPrinter)(nil)

// ServerConfigResult is the rendered configuration of a single server.
type ServerConfigResult struct {
	ID          string   `json:"id"             yaml:"id"`
	Type        string   `json:"type"           yaml:"type"`
	Target      string   `json:"target"         yaml:"target"`
	Enabled     bool     `json:"enabled"        yaml:"enabled"`
	Default     bool     `json:"default"        yaml:"default"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Timeout     string   `json:"timeout"        yaml:"timeout"`
	HealthCheck string   `json:"healthCheck"    yaml:"healthCheck"`
	MaxRetries  int      `json:"maxRetries"     yaml:"maxRetries"`
}

// NewServerConfigResult converts a resolved server descriptor for output.
func NewServerConfigResult(d config.ServerDescriptor) ServerConfigResult {
	health := "off"
	if d.HealthCheck.Enabled {
		health = fmt.Sprintf("every %s", d.HealthCheck.Interval)
	}
	return ServerConfigResult{
		ID:          d.ID,
		Type:        string(d.Type),
		Target:      d.Target(),
		Enabled:     d.Enabled,
		Default:     d.Default,
		Tags:        d.Tags,
		Timeout:     d.Timeout.String(),
		HealthCheck: health,
		MaxRetries:  d.Retry.MaxRetries,
	}
}

// DefaultServerConfigFooter confirms the configuration is valid.
func DefaultServerConfigFooter() output.WriteFunc[ServerConfigResult] {
	return func(w io.Writer, count int) {
		_, _ = fmt.Fprintf(w, "\n✅ Configuration is valid (%d server(s))\n", count)
	}
}

type ServerConfigPrinter struct {
	hooks[ServerConfigResult]
}

func NewServerConfigPrinter() *ServerConfigPrinter {
	p := &ServerConfigPrinter{}
	p.SetFooter(DefaultServerConfigFooter())
	return p
}

// Item outputs a single server configuration.
func (p *ServerConfigPrinter) Item(w io.Writer, s ServerConfigResult) error {
	title := fmt.Sprintf("  🆔 %s (%s)", s.ID, s.Type)
	if s.Default {
		title += " [default]"
	}
	if !s.Enabled {
		title += " [disabled]"
	}
	_, _ = fmt.Fprintln(w, title)
	_, _ = fmt.Fprintf(w, "    Target: %s\n", s.Target)
	_, _ = fmt.Fprintf(w, "    Timeout: %s, health check: %s, retries: %d\n", s.Timeout, s.HealthCheck, s.MaxRetries)
	if len(s.Tags) > 0 {
		_, _ = fmt.Fprintf(w, "    Tags: %s\n", strings.Join(s.Tags, ", "))
	}
	return nil
}
