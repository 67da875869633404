package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/drowselabs/drowse/internal/export"
	"github.com/drowselabs/drowse/internal/ui"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Format string
	Output string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all sessions to a file or stdout",
		Long: `Write all sessions to a file or stdout.

The format defaults to jsonl, or to whatever the output file extension
implies.

Example:
  drowse export
  drowse export -o sessions.csv
  drowse export --format yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Format, "format", "", "output format: jsonl, json, csv, or yaml")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (defaults to stdout)")

	return cmd
}

func runExport(cmd *cobra.Command, opts *ExportOptions) error {
	format := export.FormatJSONL
	if opts.Format != "" {
		parsed, err := export.ParseFormat(opts.Format)
		if err != nil {
			return err
		}
		format = parsed
	} else if opts.Output != "" {
		format = export.DetectFormat(opts.Output)
	}

	e, err := openEnv(opts.RootOptions, quietLogger())
	if err != nil {
		return err
	}
	defer e.close()

	sessions, err := e.store.List(cmd.Context())
	if err != nil {
		return err
	}

	if opts.Output == "" {
		return export.Export(cmd.OutOrStdout(), sessions, format)
	}

	f, err := os.Create(opts.Output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", opts.Output, err)
	}
	if err := export.Export(f, sessions, format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s Exported %d sessions to %s\n",
		ui.RenderPass("✓"), len(sessions), opts.Output)
	return nil
}
