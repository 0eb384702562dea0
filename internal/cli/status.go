package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/capverde/posagent/internal/netmon"
	"github.com/capverde/posagent/internal/store"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show queue depth and server reachability",
		Long: `Report how many orders are pending (unacknowledged) and retained
(acknowledged), and whether the sync server is currently reachable.

Example:
  posagent status -c ./posagent.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(rootOpts, cmd)
		},
	}

	return cmd
}

type statusSummary struct {
	Pending      int64 `json:"pending"`
	Acknowledged int64 `json:"acknowledged"`
	Online       bool  `json:"online"`
}

func (s statusSummary) String() string {
	link := "offline"
	if s.Online {
		link = "online"
	}
	return fmt.Sprintf("%d pending, %d acknowledged, server %s", s.Pending, s.Acknowledged, link)
}

func runStatus(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	pending, acked, err := st.CountOrders(cmd.Context())
	if err != nil {
		return WrapExitError(ExitFailure, "failed to count orders", err)
	}

	prober := netmon.NewHTTPProber(cfg.Server.BaseURL, cfg.Server.Timeout)
	online := prober.Probe(cmd.Context())

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Success(statusSummary{
		Pending:      pending,
		Acknowledged: acked,
		Online:       online,
	})
}
