package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mozilla-ai/mcpfleet/internal/cmd"
	cmdopts "github.com/mozilla-ai/mcpfleet/internal/cmd/options"
	"github.com/mozilla-ai/mcpfleet/internal/domain"
	errs "github.com/mozilla-ai/mcpfleet/internal/errors"
	"github.com/mozilla-ai/mcpfleet/internal/printer"
)

type CallCmd struct {
	*FleetCmd
	Timeout time.Duration
	Format  cmd.OutputFormat
}

func NewCallCmd(baseCmd *cmd.BaseCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error) {
	fc, err := newFleetCmd(baseCmd, opt...)
	if err != nil {
		return nil, err
	}

	c := &CallCmd{
		FleetCmd: fc,
		Format:   cmd.FormatText,
	}

	cobraCommand := &cobra.Command{
		Use:   "call <tool-id> [json-arguments]",
		Short: "Calls a tool by its qualified ID",
		Long: "Connects the server owning the tool, calls the tool with the given JSON object as arguments " +
			"and prints the result. The tool ID has the form '<namespace>__<server>__<tool>'.",
		Example: `  mcpfleet call mcp__files__read_file '{"path": "README.md"}'`,
		Args:    cobra.RangeArgs(1, 2),
		RunE:    c.run,
	}

	c.registerFlags(cobraCommand.Flags())

	cobraCommand.Flags().DurationVar(
		&c.Timeout,
		"timeout",
		0,
		"Timeout for the call, defaults to the server's configured timeout",
	)

	allowed := cmd.AllowedOutputFormats()
	cobraCommand.Flags().Var(
		&c.Format,
		"format",
		fmt.Sprintf("Specify the output format (one of: %s)", allowed.String()),
	)

	return cobraCommand, nil
}

func (c *CallCmd) run(cobraCmd *cobra.Command, args []string) (err error) {
	handler, err := cmd.NewOutputHandler[printer.ToolCallResult](
		c.Format,
		cobraCmd.OutOrStdout(),
		&printer.ToolCallPrinter{},
	)
	if err != nil {
		return err
	}

	toolID := strings.TrimSpace(args[0])

	var toolArgs map[string]any
	if len(args) > 1 {
		toolArgs, err = parseToolArgs(args[1])
		if err != nil {
			return reportError(handler, err)
		}
	}

	if c.Timeout < 0 {
		return reportError(handler, fmt.Errorf("%w: timeout cannot be negative", errs.ErrBadRequest))
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

	result, err := m.ExecuteToolByID(ctx, toolID, toolArgs, domain.ExecuteOptions{Timeout: c.Timeout})
	if result == nil {
		return reportError(handler, err)
	}

	if herr := handler.HandleResult(printer.NewToolCallResult(toolID, *result)); herr != nil {
		return herr
	}

	// Non-nil when the tool reported an error in its result.
	return err
}

// parseToolArgs decodes the JSON object passed as tool arguments.
func parseToolArgs(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("%w: arguments must be a JSON object: %w", errs.ErrBadRequest, err)
	}

	return args, nil
}
