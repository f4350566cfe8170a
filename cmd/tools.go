package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mozilla-ai/mcpfleet/internal/cmd"
	cmdopts "github.com/mozilla-ai/mcpfleet/internal/cmd/options"
	"github.com/mozilla-ai/mcpfleet/internal/domain"
	"github.com/mozilla-ai/mcpfleet/internal/printer"
)

type ToolsCmd struct {
	*FleetCmd
	Available bool
	Format    cmd.OutputFormat
}

func NewToolsCmd(baseCmd *cmd.BaseCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error) {
	fc, err := newFleetCmd(baseCmd, opt...)
	if err != nil {
		return nil, err
	}

	c := &ToolsCmd{
		FleetCmd:  fc,
		Available: true,
		Format:    cmd.FormatText,
	}

	cobraCommand := &cobra.Command{
		Use:   "tools",
		Short: "Lists the tools discovered on each server",
		Long: "Connects every enabled server once and lists the tools it offers by qualified ID " +
			"('<namespace>__<server>__<tool>'), then disconnects.",
		Args: cobra.NoArgs,
		RunE: c.run,
	}

	c.registerFlags(cobraCommand.Flags())

	cobraCommand.Flags().BoolVar(
		&c.Available,
		"available",
		true,
		"Only list tools of servers that are connected",
	)

	allowed := cmd.AllowedOutputFormats()
	cobraCommand.Flags().Var(
		&c.Format,
		"format",
		fmt.Sprintf("Specify the output format (one of: %s)", allowed.String()),
	)

	return cobraCommand, nil
}

func (c *ToolsCmd) run(cobraCmd *cobra.Command, _ []string) (err error) {
	handler, err := cmd.NewOutputHandler[printer.ToolsListResult](
		c.Format,
		cobraCmd.OutOrStdout(),
		&printer.ToolsListPrinter{},
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

	return handler.HandleResults(groupTools(m.Servers(), m.ListTools(c.Available), c.Available)...)
}

// groupTools groups tools by server, keeping the order of servers.
func groupTools(servers []domain.ServerStatus, tools []domain.Tool, availableOnly bool) []printer.ToolsListResult {
	byServer := make(map[string][]printer.ToolItem, len(servers))
	for _, t := range tools {
		byServer[t.ServerID] = append(byServer[t.ServerID], printer.ToolItem{
			ID:          t.QualifiedID,
			Name:        t.Name,
			Description: t.Description,
		})
	}

	results := make([]printer.ToolsListResult, 0, len(servers))
	for _, s := range servers {
		if availableOnly && !s.Available {
			continue
		}
		items := byServer[s.ID]
		if items == nil {
			items = []printer.ToolItem{}
		}
		results = append(results, printer.ToolsListResult{
			Server: s.ID,
			Tools:  items,
			Count:  len(items),
		})
	}

	return results
}
