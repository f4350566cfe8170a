package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mozilla-ai/mcpfleet/internal/cmd"
	cmdopts "github.com/mozilla-ai/mcpfleet/internal/cmd/options"
	"github.com/mozilla-ai/mcpfleet/internal/daemon"
	"github.com/mozilla-ai/mcpfleet/internal/domain"
	"github.com/mozilla-ai/mcpfleet/internal/printer"
)

type StatusCmd struct {
	*FleetCmd
	Check  bool
	Tag    string
	Group  string
	Format cmd.OutputFormat
}

func NewStatusCmd(baseCmd *cmd.BaseCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error) {
	fc, err := newFleetCmd(baseCmd, opt...)
	if err != nil {
		return nil, err
	}

	c := &StatusCmd{
		FleetCmd: fc,
		Format:   cmd.FormatText,
	}

	cobraCommand := &cobra.Command{
		Use:   "status [--check] [--tag|--group]",
		Short: "Connects the configured servers and reports their status",
		Long: "Connects every enabled server once, reports its connection state and discovered tools, " +
			"then disconnects. Use --check to also probe the health of each server.",
		Args: cobra.NoArgs,
		RunE: c.run,
	}

	c.registerFlags(cobraCommand.Flags())

	cobraCommand.Flags().BoolVar(&c.Check, "check", false, "Probe the health of every server")
	cobraCommand.Flags().StringVar(&c.Tag, "tag", "", "Only report servers with this tag")
	cobraCommand.Flags().StringVar(&c.Group, "group", "", "Only report servers in this group")

	allowed := cmd.AllowedOutputFormats()
	cobraCommand.Flags().Var(
		&c.Format,
		"format",
		fmt.Sprintf("Specify the output format (one of: %s)", allowed.String()),
	)

	cobraCommand.MarkFlagsMutuallyExclusive("tag", "group")

	return cobraCommand, nil
}

func (c *StatusCmd) run(cobraCmd *cobra.Command, _ []string) (err error) {
	handler, err := cmd.NewOutputHandler[printer.ServerStatusResult](
		c.Format,
		cobraCmd.OutOrStdout(),
		printer.NewServerStatusPrinter(),
	)
	if err != nil {
		return err
	}

	ctx := cobraCmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	m, err := c.startManager(ctx, true)
	if err != nil {
		return reportError(handler, err)
	}
	defer func() { err = stopManager(ctx, m, err) }()

	if c.Check {
		m.CheckAllHealth(ctx)
	}

	servers, err := c.servers(m)
	if err != nil {
		return reportError(handler, err)
	}

	results := make([]printer.ServerStatusResult, 0, len(servers))
	for _, s := range servers {
		results = append(results, printer.NewServerStatusResult(s))
	}

	return handler.HandleResults(results...)
}

func (c *StatusCmd) servers(m *daemon.ClientManager) ([]domain.ServerStatus, error) {
	if tag := strings.TrimSpace(c.Tag); tag != "" {
		return m.ServersByTag(tag), nil
	}
	if group := strings.TrimSpace(c.Group); group != "" {
		return m.ServersByGroup(group)
	}
	return m.Servers(), nil
}
