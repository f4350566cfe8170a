package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-hclog"
	"gopkg.in/yaml.v3"

	"github.com/mozilla-ai/mcpfleet/internal/files"
	"github.com/mozilla-ai/mcpfleet/internal/perms"
)

// DefaultLoader loads configuration documents from disk.
type DefaultLoader struct {
	logger hclog.Logger
	vars   VariableSource
}

// LoaderOption configures a DefaultLoader.
type LoaderOption func(*DefaultLoader) error

// WithVariables sets the source used to resolve '${NAME}' placeholders.
func WithVariables(vars VariableSource) LoaderOption {
	return func(l *DefaultLoader) error {
		if vars == nil {
			return fmt.Errorf("variable source cannot be nil")
		}
		l.vars = vars
		return nil
	}
}

// WithLoaderLogger sets the logger used to report unresolved placeholders.
func WithLoaderLogger(logger hclog.Logger) LoaderOption {
	return func(l *DefaultLoader) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		l.logger = logger.Named("config")
		return nil
	}
}

// NewDefaultLoader creates a loader which resolves placeholders from the process environment by default.
func NewDefaultLoader(opts ...LoaderOption) (*DefaultLoader, error) {
	l := &DefaultLoader{
		logger: hclog.NewNullLogger(),
		vars:   EnvVariables(),
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(l); err != nil {
			return nil, err
		}
	}

	return l, nil
}

// skeleton is written by Init.
const skeleton = `version = "1"

[defaults]
timeout = "30s"

[defaults.health_check]
enabled = true
interval = "30s"
timeout = "5s"
cache_ttl = "10s"

[defaults.retry]
max_retries = 3
base_delay = "1s"
max_delay = "30s"
backoff_multiplier = 2.0

[servers]
`

// Init creates the base skeleton configuration file.
func (l *DefaultLoader) Init(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if err := files.EnsureParentDir(path, perms.RegularDir); err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(skeleton), perms.RegularFile); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

// Load reads, interpolates, validates and resolves the configuration at path.
func (l *DefaultLoader) Load(path string) (*Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: path cannot be empty", ErrConfigLoadFailed)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w: %s, run: 'mcpfleet init'", ErrConfigLoadFailed, ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: failed to read config file (%s): %w", ErrConfigLoadFailed, path, err)
	}

	cfg, err := l.parse(data, FormatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("%w (%s): %w", ErrConfigLoadFailed, path, err)
	}
	cfg.Path = path

	return cfg, nil
}

// Parse decodes and resolves configuration held in memory.
func (l *DefaultLoader) Parse(data []byte, format Format) (*Config, error) {
	return l.parse(data, format)
}

func (l *DefaultLoader) parse(data []byte, format Format) (*Config, error) {
	raw, err := decode(data, format)
	if err != nil {
		return nil, err
	}

	interp := newInterpolator(l.vars)
	raw, _ = interp.walk(raw).(map[string]any)
	if unresolved := interp.Unresolved(); len(unresolved) > 0 {
		l.logger.Warn("Unresolved configuration variables replaced with empty values", "variables", unresolved)
	}

	violations, err := validateSchema(raw)
	if err != nil {
		return nil, err
	}
	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	// The schema guarantees the shape, so the typed document can be decoded from the generic one.
	buf, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	var doc document
	if err := json.Unmarshal(buf, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	if violations := validateDocument(doc); len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	return resolve(doc, ""), nil
}

// Format is an on-disk configuration encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatForPath picks a format from the file extension, defaulting to TOML.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	default:
		return FormatTOML
	}
}

// decode reads data into a generic document tree.
func decode(data []byte, format Format) (map[string]any, error) {
	var raw map[string]any

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParse, err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParse, err)
		}
	case FormatTOML, "":
		if _, err := toml.Decode(string(data), &raw); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParse, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported format '%s'", ErrParse, format)
	}

	if raw == nil {
		return nil, fmt.Errorf("%w: document is empty", ErrParse)
	}

	return normalize(raw).(map[string]any), nil
}

// normalize converts decoder specific value types into the JSON compatible
// types the schema validator understands.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalize(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []map[string]any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return v
	}
}
