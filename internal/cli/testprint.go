package cli

import (
	"github.com/spf13/cobra"

	"github.com/capverde/posagent/internal/order"
)

// NewTestPrintCommand creates the testprint command.
func NewTestPrintCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "testprint",
		Short: "Print a test receipt through the configured transport",
		Long: `Dispatch a fixed single-item cash order through the full delivery
path. Verifies the transport configuration end to end, including the
cash-drawer pulse.

Example:
  posagent testprint -c ./posagent.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTestPrint(rootOpts, cmd)
		},
	}

	return cmd
}

func runTestPrint(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	testOrder := order.New(
		[]order.LineItem{{Name: "Test Article", UnitPrice: 10.00, Quantity: 1}},
		order.PaymentCash,
		"Test",
		99,
	)

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	router := newRouter(cfg, out)

	return dispatchOrder(router, false, testOrder, out, cmd)
}
