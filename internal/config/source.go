package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Source owns the last good configuration snapshot for a single file.
type Source struct {
	path     string
	loader   Loader
	logger   hclog.Logger
	debounce time.Duration

	mu      sync.RWMutex
	current *Config

	watchMu sync.Mutex
	watch   *watch
}

// NewSource creates a Source for the file at path. Nothing is read until Load is called.
func NewSource(path string, opts ...SourceOption) (*Source, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}

	o, err := NewSourceOptions(opts...)
	if err != nil {
		return nil, err
	}

	if o.loader == nil {
		l, err := NewDefaultLoader(WithLoaderLogger(o.logger))
		if err != nil {
			return nil, err
		}
		o.loader = l
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path (%s): %w", path, err)
	}

	return &Source{
		path:     abs,
		loader:   o.loader,
		logger:   o.logger.Named("source"),
		debounce: o.debounce,
	}, nil
}

// Path returns the absolute path of the configuration file.
func (s *Source) Path() string {
	return s.path
}

// Load reads the file and replaces the current snapshot on success.
func (s *Source) Load() (*Config, error) {
	cfg, err := s.loader.Load(s.path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.current = cfg
	s.mu.Unlock()

	s.logger.Info("Configuration loaded", "path", s.path, "servers", len(cfg.Servers))

	return cfg, nil
}

// Current returns the last successfully loaded snapshot, or nil.
func (s *Source) Current() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Reload re-reads the file. On failure the previous snapshot is kept and the error returned.
func (s *Source) Reload() (previous *Config, current *Config, err error) {
	cfg, err := s.loader.Load(s.path)
	if err != nil {
		s.logger.Warn("Configuration reload failed, keeping previous configuration", "path", s.path, "error", err)
		return nil, nil, err
	}

	s.mu.Lock()
	previous = s.current
	s.current = cfg
	s.mu.Unlock()

	changes := Diff(previous, cfg)
	s.logger.Info(
		"Configuration reloaded",
		"added", changes.Added,
		"removed", changes.Removed,
		"changed", changes.Changed,
	)

	return previous, cfg, nil
}
