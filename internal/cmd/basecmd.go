package cmd

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mozilla-ai/mcpfleet/internal/files"
	"github.com/mozilla-ai/mcpfleet/internal/flags"
	"github.com/mozilla-ai/mcpfleet/internal/perms"
)

// AppName is the name of the application, used for logging and the MCP client identity.
const AppName = "mcpfleet"

const (
	// logMaxSizeMB is the size a log file reaches before it is rotated.
	logMaxSizeMB = 10

	// logMaxBackups is the number of rotated log files kept.
	logMaxBackups = 5

	// logMaxAgeDays is how long rotated log files are kept.
	logMaxAgeDays = 28
)

var version = "dev" // Set at build time using -ldflags

// Version returns the build version of the application.
func Version() string {
	return version
}

type BaseCmd struct {
	mu     sync.Mutex
	logger hclog.Logger
}

// SetLogger updates the command's logger
func (c *BaseCmd) SetLogger(logger hclog.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger = logger
}

// Logger returns the logger for the command, creating it from the global flags on first use.
// Output goes to a rotated file at the configured log path, or is discarded when no path is set.
func (c *BaseCmd) Logger() hclog.Logger {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.logger != nil {
		return c.logger
	}

	c.logger = hclog.New(&hclog.LoggerOptions{
		Name:   AppName,
		Level:  hclog.LevelFromString(logLevel(flags.LogLevel)),
		Output: logOutput(flags.LogPath),
	})

	return c.logger
}

// RequireTogether returns an error unless every named flag is set, or none are.
func (c *BaseCmd) RequireTogether(cmd *cobra.Command, flagNames ...string) error {
	set := 0
	for _, name := range flagNames {
		if cmd.Flags().Changed(name) {
			set++
		}
	}

	if set == 0 || set == len(flagNames) {
		return nil
	}

	names := slices.Clone(flagNames)
	slices.Sort(names)

	return fmt.Errorf("flags must be provided together or not at all: (%s)", strings.Join(names, ", "))
}

func logLevel(lvl string) string {
	lvl = strings.ToLower(strings.TrimSpace(lvl))
	switch lvl {
	case "trace", "debug", "info", "warn", "error", "off":
		return lvl
	default:
		return flags.DefaultLogLevel
	}
}

func logOutput(path string) io.Writer {
	path = strings.TrimSpace(path)
	if path == "" {
		return io.Discard
	}

	// Rotated files are created owner-only, the directory is too when it has to be created.
	if err := files.EnsureParentDir(path, perms.SecureDir); err != nil {
		return io.Discard
	}

	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    logMaxSizeMB,
		MaxBackups: logMaxBackups,
		MaxAge:     logMaxAgeDays,
	}
}
