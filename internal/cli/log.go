package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/drowselabs/drowse/internal/ui"
)

// LogOptions holds flags for the log command.
type LogOptions struct {
	*RootOptions
	Limit int
	JSON  bool
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show recorded sleep sessions",
		Long: `Show recorded sleep sessions, newest first.

Example:
  drowse log
  drowse log --limit 7
  drowse log --json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "show at most this many sessions (0 = all)")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "emit sessions as JSON")

	return cmd
}

func runLog(cmd *cobra.Command, opts *LogOptions) error {
	e, err := openEnv(opts.RootOptions, quietLogger())
	if err != nil {
		return err
	}
	defer e.close()

	sessions, err := e.store.List(cmd.Context())
	if err != nil {
		return err
	}
	if opts.Limit > 0 && len(sessions) > opts.Limit {
		sessions = sessions[:opts.Limit]
	}

	if opts.JSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(sessions)
	}

	if len(sessions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No sessions recorded. Start one with 'drowse start'.")
		return nil
	}

	fmt.Fprint(cmd.OutOrStdout(), ui.History(sessions, time.Now()))
	return nil
}
