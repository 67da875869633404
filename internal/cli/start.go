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

// StartOptions holds flags for the start command.
type StartOptions struct {
	*RootOptions
	At string
}

// NewStartCommand creates the start command.
func NewStartCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StartOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Begin tracking a sleep session",
		Long: `Begin tracking a sleep session.

With --at the session starts at the given time instead of now. The time
may be a clock time ("23:30"), a timestamp, or natural language
("yesterday at 11pm").

Example:
  drowse start
  drowse start --at 23:30`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.At, "at", "", "bedtime (defaults to now)")

	return cmd
}

func runStart(cmd *cobra.Command, opts *StartOptions) error {
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

	err = e.tracker.StartAt(cmd.Context(), at)
	if errors.Is(err, tracker.ErrAlreadyTracking) {
		notice := "Already tracking an open session"
		if cur := e.tracker.Current(); cur != nil {
			notice = fmt.Sprintf("Already tracking since %s", ui.FormatTime(cur.Start))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.RenderWarn("⚠"), notice)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s Sleep session started at %s\n",
		ui.RenderPass("✓"), ui.FormatTime(at))
	return nil
}
