package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/snowpost/snowpost/internal/bot"
	"github.com/snowpost/snowpost/internal/config"
	"github.com/snowpost/snowpost/internal/gatekeeper"
	"github.com/snowpost/snowpost/internal/locale"
	"github.com/snowpost/snowpost/internal/metrics"
	"github.com/snowpost/snowpost/internal/store"
	"github.com/snowpost/snowpost/internal/telegram"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bot",
		Long: `Run the letter-collection bot.

Long-polls the Bot API for updates, opens the SQLite letter store
(creating it if it doesn't exist), and dispatches each participant's
messages through the conversation state machine.

Example:
  SNOWPOST_BOT_TOKEN=... snowpost serve --config ./snowpost.yaml
  snowpost serve -c ./snowpost.yaml --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts, cmd)
		},
	}

	return cmd
}

func runServe(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid config", err)
	}

	catalog, err := loadCatalog(cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load locale catalog", err)
	}

	slog.Info("opening letter store", "path", cfg.DatabasePath)
	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	client, err := telegram.NewClient(cfg.BotToken)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create telegram client", err)
	}

	gate := gatekeeper.New(client, cfg.GroupID)
	controller := bot.New(client, st, gate, catalog, cfg.GroupID,
		bot.WithMaxLetterLen(cfg.MaxLetterLen),
	)
	dispatcher := bot.NewDispatcher(controller)
	poller := bot.NewPoller(client, dispatcher, cfg.PollTimeout)

	// Signal handling for graceful shutdown. Use the command's context if
	// available (for testing), otherwise create one.
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	if cfg.OpsListenAddr != "" {
		go metrics.NewServer(cfg.OpsListenAddr).Start(ctx)
	}

	if err := poller.Run(ctx); err != nil && ctx.Err() == nil {
		return WrapExitError(ExitFailure, "poller stopped", err)
	}

	slog.Info("shutdown complete")
	return nil
}

func loadCatalog(cfg config.Config) (*locale.Catalog, error) {
	if cfg.LocalePath == "" {
		return locale.Default(), nil
	}
	return locale.Load(cfg.LocalePath)
}
