package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/capverde/posagent/internal/dispatch"
	"github.com/capverde/posagent/internal/order"
)

// PrintOptions holds flags for the print command.
type PrintOptions struct {
	*RootOptions
	Kitchen bool
}

// NewPrintCommand creates the print command.
func NewPrintCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PrintOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "print <order.json>",
		Short: "Dispatch a finalized order to the configured printer",
		Long: `Render a finalized order and deliver it through the configured
transport: bluetooth if configured, else network, else the terminal
fallback. Exactly one transport is attempted; a hardware failure is
reported, never silently retried elsewhere.

With --kitchen the kitchen ticket is printed instead of the customer
receipt (no pricing, no payment method, no drawer pulse).

Example:
  posagent print ./order.json
  posagent print --kitchen ./order.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrint(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Kitchen, "kitchen", false, "print the kitchen ticket instead of the customer receipt")

	return cmd
}

type printSummary struct {
	Status       string `json:"status"`
	Transport    string `json:"transport"`
	DrawerPulsed bool   `json:"drawer_pulsed"`
}

func (s printSummary) String() string {
	msg := fmt.Sprintf("dispatched via %s: %s", s.Transport, s.Status)
	if s.DrawerPulsed {
		msg += " (drawer pulsed)"
	}
	return msg
}

func runPrint(opts *PrintOptions, path string, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read order file", err)
	}

	var o order.Order
	if err := json.Unmarshal(data, &o); err != nil {
		return WrapExitError(ExitCommandError, "failed to parse order file", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	router := newRouter(cfg, out)

	return dispatchOrder(router, opts.Kitchen, o, out, cmd)
}

func dispatchOrder(router *dispatch.Router, kitchen bool, o order.Order, out *OutputFormatter, cmd *cobra.Command) error {
	var (
		res dispatch.Result
		err error
	)
	if kitchen {
		res, err = router.DispatchKitchen(cmd.Context(), o)
	} else {
		res, err = router.Dispatch(cmd.Context(), o)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "dispatch failed", err)
	}

	return out.Success(printSummary{
		Status:       string(res.Status),
		Transport:    string(res.Transport),
		DrawerPulsed: res.DrawerPulsed,
	})
}
