package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/capverde/posagent/internal/order"
	"github.com/capverde/posagent/internal/store"
	"github.com/capverde/posagent/internal/syncengine"
)

// MenuOptions holds flags for the menu command.
type MenuOptions struct {
	*RootOptions
	Refresh bool
}

// NewMenuCommand creates the menu command.
func NewMenuCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MenuOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "menu",
		Short: "Show the cached menu, optionally refreshing it from the server",
		Long: `Show the locally cached menu catalog.

With --refresh the catalog is fetched from the server first and the
cache is replaced in one step, so offline reads never see a mix of old
and new entries. Without connectivity the cached snapshot keeps
serving.

Example:
  posagent menu -c ./posagent.yaml
  posagent menu --refresh -c ./posagent.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMenu(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "fetch the catalog from the server before showing it")

	return cmd
}

type menuSummary struct {
	Refreshed bool             `json:"refreshed"`
	Items     []order.MenuItem `json:"items"`
}

func (s menuSummary) String() string {
	if len(s.Items) == 0 {
		return "menu cache is empty"
	}

	var sb strings.Builder
	category := ""
	for _, it := range s.Items {
		if it.Category != category {
			category = it.Category
			fmt.Fprintf(&sb, "%s\n", category)
		}
		fmt.Fprintf(&sb, "  %-24s %6.2f EUR\n", it.Name, it.UnitPrice)
	}
	fmt.Fprintf(&sb, "%d item(s)", len(s.Items))
	if s.Refreshed {
		sb.WriteString(" (refreshed)")
	}
	return sb.String()
}

func runMenu(opts *MenuOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()

	if opts.Refresh {
		client := syncengine.NewHTTPUploader(cfg.Server.BaseURL, cfg.Server.Timeout)
		items, err := client.FetchMenu(ctx)
		if err != nil {
			return WrapExitError(ExitFailure, "menu refresh failed", err)
		}
		if err := st.ReplaceMenuCache(ctx, items); err != nil {
			return WrapExitError(ExitFailure, "failed to replace menu cache", err)
		}
	}

	items, err := st.ReadMenuCache(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read menu cache", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Success(menuSummary{Refreshed: opts.Refresh, Items: items})
}
