package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/capverde/posagent/internal/store"
	"github.com/capverde/posagent/internal/syncengine"
)

// NewPurgeCommand creates the purge command.
func NewPurgeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Run the retention sweep once",
		Long: `Delete acknowledged orders older than the retention window.

Unacknowledged orders are never deleted regardless of age; they stay
queued until the server accepts them.

Example:
  posagent purge -c ./posagent.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPurge(rootOpts, cmd)
		},
	}

	return cmd
}

type purgeSummary struct {
	Removed int64 `json:"removed"`
}

func (s purgeSummary) String() string {
	return fmt.Sprintf("removed %d order(s)", s.Removed)
}

func runPurge(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	engine := syncengine.New(st, nil, nil,
		syncengine.WithRetention(cfg.Sync.Retention))

	removed, err := engine.RunSweep(cmd.Context())
	if err != nil {
		return WrapExitError(ExitFailure, "retention sweep failed", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Success(purgeSummary{Removed: removed})
}
