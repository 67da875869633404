package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/drowselabs/drowse/internal/ui"
)

// ClearOptions holds flags for the clear command.
type ClearOptions struct {
	*RootOptions
	Force bool
}

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClearOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "clear",
		Short:         "Delete all recorded sessions",
		Long:          "Delete all recorded sessions, including an open one. Requires --force.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClear(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "confirm deleting every session")

	return cmd
}

func runClear(cmd *cobra.Command, opts *ClearOptions) error {
	if !opts.Force {
		return fmt.Errorf("clear deletes every recorded session; re-run with --force to confirm")
	}

	e, err := openTrackerEnv(cmd, opts.RootOptions, quietLogger())
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.tracker.Clear(cmd.Context()); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s All sessions deleted\n", ui.RenderPass("✓"))
	return nil
}
