package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/snowpost/snowpost/internal/config"
	"github.com/snowpost/snowpost/internal/exchange"
	"github.com/snowpost/snowpost/internal/store"
	"github.com/snowpost/snowpost/internal/telegram"
)

// NewDistributeCommand creates the distribute command.
func NewDistributeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "distribute",
		Short: "Deliver all letters anonymously",
		Long: `Run one distribution pass over the current letters.

Loads every stored letter, computes a random assignment in which every
author receives exactly one letter written by someone else, and delivers
the letters. Individual delivery failures are counted, not fatal; the
store is never modified.

Exit code 1 with no deliveries when only a single letter exists - there
is no assignment that avoids handing it back to its author.

Example:
  SNOWPOST_BOT_TOKEN=... snowpost distribute -c ./snowpost.yaml
  snowpost distribute -c ./snowpost.yaml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDistribute(rootOpts, cmd)
		},
	}

	return cmd
}

func runDistribute(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid config", err)
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	client, err := telegram.NewClient(cfg.BotToken)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create telegram client", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	engine := exchange.New(st, client)
	report, runErr := engine.Run(ctx)

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if err := formatter.Success(report, func() string { return renderReport(report) }); err != nil {
		return WrapExitError(ExitCommandError, "failed to write report", err)
	}

	if errors.Is(runErr, exchange.ErrUnsatisfiable) {
		return WrapExitError(ExitFailure, "distribution unsatisfiable", runErr)
	}
	if runErr != nil {
		return WrapExitError(ExitCommandError, "distribution run failed", runErr)
	}

	return nil
}

// renderReport produces the human-readable completion report.
func renderReport(r exchange.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Distribution run %s\n", r.RunID)
	fmt.Fprintf(&b, "  letters:   %d\n", r.Letters)
	fmt.Fprintf(&b, "  attempted: %d\n", r.Attempted)
	fmt.Fprintf(&b, "  delivered: %d\n", r.Delivered)
	fmt.Fprintf(&b, "  failed:    %d", r.Failed)

	for _, f := range r.Failures {
		fmt.Fprintf(&b, "\n  failure: recipient %d: %s", f.RecipientID, f.Reason)
	}

	return b.String()
}
