package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/capverde/posagent/internal/netmon"
	"github.com/capverde/posagent/internal/store"
	"github.com/capverde/posagent/internal/syncengine"
)

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the agent: connectivity monitor, sync engine, retention sweep",
		Long: `Start the long-running agent loop.

The agent opens the local database (creating it if it doesn't exist),
watches connectivity to the sync server, and drains unacknowledged
orders whenever a cycle is triggered: a debounced reconnect, the
periodic timer, or a manual sync. Acknowledged orders older than the
retention window are swept periodically.

Example:
  posagent run --config /etc/posagent.yaml
  posagent run -c ./posagent.yaml --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgent(rootOpts, cmd)
		},
	}

	return cmd
}

func runAgent(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	slog.Info("opening database", "path", cfg.Database.Path)
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database ready")

	prober := netmon.NewHTTPProber(cfg.Server.BaseURL, cfg.Server.Timeout)
	monitor := netmon.New(prober, cfg.Server.ProbeInterval)

	uploader := syncengine.NewHTTPUploader(cfg.Server.BaseURL, cfg.Server.Timeout)
	engine := syncengine.New(st, uploader, monitor,
		syncengine.WithDebounce(cfg.Sync.Debounce),
		syncengine.WithInterval(cfg.Sync.Interval),
		syncengine.WithSweepInterval(cfg.Sync.SweepInterval),
		syncengine.WithRetention(cfg.Sync.Retention),
	)

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	go monitor.Run(ctx)

	slog.Info("agent started",
		"server", cfg.Server.BaseURL,
		"retention", cfg.Sync.Retention.String(),
		"printer_transport", cfg.Printer.Transport,
	)

	if err := engine.Run(ctx); err != nil {
		return WrapExitError(ExitFailure, "sync engine stopped", err)
	}

	slog.Info("agent stopped")
	return nil
}
