package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mozilla-ai/mcpfleet/internal/cmd"
	cmdopts "github.com/mozilla-ai/mcpfleet/internal/cmd/options"
	"github.com/mozilla-ai/mcpfleet/internal/flags"
)

type RootCmd struct {
	*cmd.BaseCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd, err := NewRootCmd(&RootCmd{BaseCmd: &cmd.BaseCmd{}})
	if err != nil {
		return err
	}

	return rootCmd.Execute()
}

// NewRootCmd creates the root command and every subcommand.
func NewRootCmd(c *RootCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error) {
	rootCmd := &cobra.Command{
		Use:           "mcpfleet <command> [args]",
		Short:         "'mcpfleet' starts, monitors and routes tool calls to a fleet of MCP servers",
		Long:          c.longDescription(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       cmd.Version(),
	}

	// Global flags
	flags.InitFlags(rootCmd.PersistentFlags())

	fns := []func(baseCmd *cmd.BaseCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error){
		NewInitCmd,
		NewValidateCmd,
		NewRunCmd,
		NewStatusCmd,
		NewToolsCmd,
		NewCallCmd,
	}

	for _, fn := range fns {
		tempCmd, err := fn(c.BaseCmd, opt...)
		if err != nil {
			return nil, err
		}
		rootCmd.AddCommand(tempCmd)
	}

	return rootCmd, nil
}

func (c *RootCmd) longDescription() string {
	return `The 'mcpfleet' CLI manages the MCP servers declared in a single configuration file.

It connects each server over its transport (local process, HTTP or event-stream),
discovers the tools they offer, watches their health and reconnects them when they drop.
Tools are addressed by qualified IDs ('<namespace>__<server>__<tool>') and can be called
from the command line or through the HTTP API served by 'mcpfleet run'.`
}
