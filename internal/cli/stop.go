package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/drowselabs/drowse/internal/timeparse"
	"github.com/drowselabs/drowse/internal/tracker"
	"github.com/drowselabs/drowse/internal/ui"
)

// StopOptions holds flags for the stop command.
type StopOptions struct {
	*RootOptions
	At string
}

// NewStopCommand creates the stop command.
func NewStopCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StopOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Finish the open sleep session",
		Long: `Finish the open sleep session and print how long it lasted.

With --at the session ends at the given time instead of now.

Example:
  drowse stop
  drowse stop --at "7:30"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStop(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.At, "at", "", "wake time (defaults to now)")

	return cmd
}

func runStop(cmd *cobra.Command, opts *StopOptions) error {
	at := time.Now()
	if opts.At != "" {
		parsed, err := timeparse.Parse(opts.At, time.Now())
		if err != nil {
			return err
		}
		at = parsed
	}

	e, err := openTrackerEnv(cmd, opts.RootOptions, quietLogger())
	if err != nil {
		return err
	}
	defer e.close()

	closed, err := e.tracker.StopAt(cmd.Context(), at)
	if errors.Is(err, tracker.ErrNotTracking) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s No open session to stop\n", ui.RenderWarn("⚠"))
		return nil
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s Slept %s (%s to %s)\n",
		ui.RenderPass("✓"),
		ui.RenderAccent(ui.FormatDuration(closed.Duration())),
		ui.FormatTime(closed.Start), ui.FormatTime(closed.End))
	fmt.Fprintf(out, "   Rate it with 'drowse rate'\n")
	return nil
}
