package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/drowselabs/drowse/internal/daemon"
	"github.com/drowselabs/drowse/internal/ui"
	"github.com/drowselabs/drowse/internal/version"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "version",
		Short:         "Print the drowse version",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(cmd, rootOpts)
		},
	}

	return cmd
}

func runVersion(cmd *cobra.Command, rootOpts *RootOptions) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "drowse %s\n", version.Version)

	// A stale daemon keeps serving old behavior until restarted; say so.
	status, err := daemon.ReadStatus(rootOpts.DataDir)
	if err != nil || status == nil {
		return nil
	}
	if !version.SameMajor(status.Version, version.Version) {
		fmt.Fprintf(out, "%s Daemon at %s runs %s; restart it to match\n",
			ui.RenderWarn("⚠"), status.Addr, status.Version)
	}
	return nil
}
