package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/drowselabs/drowse/internal/sleep"
	"github.com/drowselabs/drowse/internal/ui"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stats",
		Short:         "Show aggregate sleep statistics",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, rootOpts)
		},
	}

	return cmd
}

func runStats(cmd *cobra.Command, rootOpts *RootOptions) error {
	e, err := openEnv(rootOpts, quietLogger())
	if err != nil {
		return err
	}
	defer e.close()

	sessions, err := e.store.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No sessions recorded. Start one with 'drowse start'.")
		return nil
	}

	fmt.Fprint(cmd.OutOrStdout(), ui.StatsView(sleep.Compute(sessions)))
	return nil
}
