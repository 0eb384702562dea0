package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/capverde/posagent/internal/config"
	"github.com/capverde/posagent/internal/dispatch"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
	Format     string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the POS agent CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "posagent",
		Short: "Offline-first point-of-sale device agent",
		Long: `posagent keeps taking orders while connectivity is intermittent:
every paid order is durably persisted locally, synced to the server
opportunistically and idempotently, and rendered onto the configured
receipt printer with deterministic fallback.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			setupLogging(opts.Verbose)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "posagent.yaml", "path to config file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	// Add subcommands
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewPrintCommand(opts))
	cmd.AddCommand(NewTestPrintCommand(opts))
	cmd.AddCommand(NewPurgeCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewMenuCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

// loadConfig reads the agent configuration named by the global flag.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	return cfg, nil
}

// newRouter builds the dispatch router from configuration. The CLI has
// no paired Bluetooth device capability; its local surface is the
// terminal.
func newRouter(cfg *config.Config, out *OutputFormatter) *dispatch.Router {
	caps := dispatch.Capabilities{
		Surface: &consoleSurface{out: out},
	}

	router := dispatch.NewRouter(caps, cfg.Restaurant.Profile(),
		dispatch.WithTimeout(cfg.Printer.Timeout))

	switch cfg.Printer.Transport {
	case "bluetooth":
		router.Configure(dispatch.Config{Kind: dispatch.TransportBluetooth})
	case "network":
		router.Configure(dispatch.Config{
			Kind: dispatch.TransportNetwork,
			Host: cfg.Printer.Host,
			Port: cfg.Printer.Port,
		})
	}

	return router
}
