package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mozilla-ai/mcpfleet/internal/cmd"
	cmdopts "github.com/mozilla-ai/mcpfleet/internal/cmd/options"
	"github.com/mozilla-ai/mcpfleet/internal/config"
	"github.com/mozilla-ai/mcpfleet/internal/printer"
)

type ValidateCmd struct {
	*FleetCmd
	Format cmd.OutputFormat
}

func NewValidateCmd(baseCmd *cmd.BaseCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error) {
	fc, err := newFleetCmd(baseCmd, opt...)
	if err != nil {
		return nil, err
	}

	c := &ValidateCmd{
		FleetCmd: fc,
		Format:   cmd.FormatText,
	}

	cobraCommand := &cobra.Command{
		Use:   "validate",
		Short: "Validates the configuration file",
		Long: "Loads the configuration file, resolving ${NAME} placeholders, and reports every schema " +
			"and semantic violation. On success the resolved servers are printed.",
		Args: cobra.NoArgs,
		RunE: c.run,
	}

	c.registerFlags(cobraCommand.Flags())

	allowed := cmd.AllowedOutputFormats()
	cobraCommand.Flags().Var(
		&c.Format,
		"format",
		fmt.Sprintf("Specify the output format (one of: %s)", allowed.String()),
	)

	return cobraCommand, nil
}

func (c *ValidateCmd) run(cobraCmd *cobra.Command, _ []string) error {
	handler, err := cmd.NewOutputHandler[printer.ServerConfigResult](
		c.Format,
		cobraCmd.OutOrStdout(),
		printer.NewServerConfigPrinter(),
	)
	if err != nil {
		return err
	}

	loader, err := c.loader()
	if err != nil {
		return reportError(handler, err)
	}

	cfg, err := loader.Load(configFile())
	if err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) && c.Format == cmd.FormatText {
			out := cobraCmd.ErrOrStderr()
			_, _ = fmt.Fprintf(out, "❌ Configuration is invalid (%d violation(s)):\n", len(verr.Violations))
			for _, v := range verr.Violations {
				_, _ = fmt.Fprintf(out, "  - %s\n", v)
			}
		}
		return reportError(handler, err)
	}

	results := make([]printer.ServerConfigResult, 0, len(cfg.Servers))
	for _, id := range cfg.ServerIDs() {
		d, _ := cfg.Server(id)
		results = append(results, printer.NewServerConfigResult(d))
	}

	return handler.HandleResults(results...)
}
