package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/capverde/posagent/internal/store"
	"github.com/capverde/posagent/internal/syncengine"
)

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one manual sync cycle",
		Long: `Drain all currently unacknowledged orders to the server once.

Orders that fail to upload stay queued; a later cycle retries them.

Example:
  posagent sync -c ./posagent.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runManualSync(rootOpts, cmd)
		},
	}

	return cmd
}

type syncSummary struct {
	Acknowledged int    `json:"acknowledged"`
	Remaining    int    `json:"remaining"`
	State        string `json:"state"`
}

func (s syncSummary) String() string {
	return fmt.Sprintf("acknowledged %d order(s), %d remaining (state: %s)", s.Acknowledged, s.Remaining, s.State)
}

func runManualSync(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	uploader := syncengine.NewHTTPUploader(cfg.Server.BaseURL, cfg.Server.Timeout)
	engine := syncengine.New(st, uploader, nil)

	acked, failed, err := engine.RunCycle(cmd.Context())
	if err != nil {
		return WrapExitError(ExitFailure, "sync cycle failed", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	summary := syncSummary{
		Acknowledged: acked,
		Remaining:    failed,
		State:        engine.State().String(),
	}
	if err := out.Success(summary); err != nil {
		return err
	}

	if engine.State() == syncengine.StateError {
		return WrapExitError(ExitFailure, "sync made no progress", nil)
	}
	return nil
}
